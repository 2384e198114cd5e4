package ctype

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Errors returned by the registry.
var (
	ErrUnknownKind = errors.New("unknown numeric kind")
	ErrInvalidType = errors.New("not a valid type descriptor")
)

// Kind is an abstract numeric kind, independent of any concrete layout.
type Kind string

// Default kinds: the front end's untyped integer and float. The float default
// is double precision because the routine library computes in double.
const (
	DefaultInt   Kind = "int"
	DefaultFloat Kind = "float"
)

// defaultTable is the registry content built by NewRegistry.
var defaultTable = map[Kind]Descriptor{
	DefaultInt:   Int32,
	DefaultFloat: Float64,

	"int8":    Int8,
	"int16":   Int16,
	"int32":   Int32,
	"int64":   Int64,
	"uint8":   Uint8,
	"uint16":  Uint16,
	"uint32":  Uint32,
	"uint64":  Uint64,
	"float32": Float32,
	"float64": Float64,

	// C simple types on LP64.
	"char":      Int8,
	"short":     Int16,
	"long":      Int64,
	"longlong":  Int64,
	"uchar":     Uint8,
	"ushort":    Uint16,
	"uint":      Uint32,
	"ulong":     Uint64,
	"ulonglong": Uint64,
	"double":    Float64,
}

// Registry maps kinds to descriptors. A Registry is immutable after
// construction and safe for concurrent reads.
type Registry struct {
	table map[Kind]Descriptor
}

// NewRegistry returns a registry populated with the default table.
func NewRegistry() *Registry {
	table := make(map[Kind]Descriptor, len(defaultTable))
	for k, d := range defaultTable {
		table[k] = d
	}
	return &Registry{table: table}
}

// NewRegistryFrom returns a private registry holding exactly the given
// entries. Every entry must map to a valid descriptor.
func NewRegistryFrom(entries map[Kind]Descriptor) (*Registry, error) {
	table := make(map[Kind]Descriptor, len(entries))
	for k, d := range entries {
		if !d.Valid() {
			return nil, fmt.Errorf("kind %q: %w", k, ErrInvalidType)
		}
		table[k] = d
	}
	return &Registry{table: table}, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared default registry. It is built once on first use
// and never written again.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Resolve returns the descriptor registered for kind.
func (r *Registry) Resolve(kind Kind) (Descriptor, error) {
	d, ok := r.table[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q has no fixed-width representation", ErrUnknownKind, string(kind))
	}
	return d, nil
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.table[kind]
	return ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.table))
	for k := range r.table {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.table)
}
