// Package parallel splits an index range across goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls how a range is split.
type Config struct {
	Workers  int // upper bound on goroutines; <= 1 runs inline
	MinChunk int // smallest range handed to one goroutine
}

// DefaultConfig uses one worker per CPU and chunks of at least 256 items.
func DefaultConfig() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		MinChunk: 256,
	}
}

// Sequential runs every range inline on the calling goroutine.
func Sequential() Config {
	return Config{Workers: 1}
}

// Range calls f over disjoint half-open ranges covering [0, n) and returns
// once every call has finished. f must only touch state owned by its range.
func Range(n int, cfg Config, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	chunk := max(cfg.MinChunk, 1)
	if cfg.Workers > 1 {
		chunk = max((n+cfg.Workers-1)/cfg.Workers, chunk)
	}
	if cfg.Workers <= 1 || chunk >= n {
		f(0, n)
		return
	}

	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			f(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}
