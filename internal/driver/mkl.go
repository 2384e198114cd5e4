package driver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamba-ml/mamba/internal/ctype"
	"github.com/mamba-ml/mamba/internal/marshal"
	"github.com/mamba-ml/mamba/internal/sparse"
)

// MKLLibrary is the base name of the MKL single dynamic library.
const MKLLibrary = "libmkl_rt"

// ParamLength is the length of the ipar and dpar parameter arrays.
const ParamLength = 128

// restartCap bounds the default GMRES restart length, ipar[14].
const restartCap = 150

// Routine names.
const (
	routineGMRESInit = "dgmres_init"
	routineILU0      = "dcsrilu0"
)

// ScratchLength returns the length of the GMRES scratch array for a problem
// of order n with the default restart length t = min(150, n):
// (2t+1)n + t(t+9)/2 + 1.
func ScratchLength(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("scratch length: %w: %d", ErrInvalidSize, n)
	}
	t := min(restartCap, n)
	// t(t+9) is always even.
	return (2*t+1)*n + t*(t+9)/2 + 1, nil
}

// Params holds the integer and double parameter arrays shared by the
// iterative solver and the preconditioners.
type Params struct {
	IPar *marshal.Buffer // ParamLength 4-byte signed integers
	DPar *marshal.Buffer // ParamLength doubles
}

// NewParams allocates zeroed parameter arrays.
func NewParams() (*Params, error) {
	ipar, err := marshal.NewBuffer(ctype.Int32, ParamLength)
	if err != nil {
		return nil, err
	}
	dpar, err := marshal.NewBuffer(ctype.Float64, ParamLength)
	if err != nil {
		return nil, err
	}
	return &Params{IPar: ipar, DPar: dpar}, nil
}

// Validate checks that both arrays hold ParamLength elements of the layout
// the routines read and write.
func (p *Params) Validate() error {
	if p.IPar == nil || p.DPar == nil {
		return fmt.Errorf("params: %w: missing ipar or dpar", sparse.ErrDimensionMismatch)
	}
	if d := p.IPar.Descriptor(); d != ctype.Int32 {
		return fmt.Errorf("params: ipar is %s, want %s: %w", d, ctype.Int32, marshal.ErrInvalidType)
	}
	if d := p.DPar.Descriptor(); d != ctype.Float64 {
		return fmt.Errorf("params: dpar is %s, want %s: %w", d, ctype.Float64, marshal.ErrInvalidType)
	}
	if p.IPar.Len() != ParamLength || p.DPar.Len() != ParamLength {
		return fmt.Errorf("params: %w: ipar has %d and dpar has %d entries, want %d",
			sparse.ErrDimensionMismatch, p.IPar.Len(), p.DPar.Len(), ParamLength)
	}
	return nil
}

// Solver is the routine surface a driver may offer.
type Solver interface {
	ILU(m *sparse.Adapter, p *Params) (*sparse.Adapter, error)
	IChol(m *sparse.Adapter) (*sparse.Adapter, error)
	BiCG(m *sparse.Adapter, b []float64) ([]float64, error)
	PCG(m *sparse.Adapter, b []float64) ([]float64, error)
}

// Unimplemented answers every Solver routine with ErrNotImplemented.
// Drivers embed it and override what their library provides.
type Unimplemented struct {
	Driver string
}

// ILU reports that incomplete LU is not implemented.
func (u Unimplemented) ILU(*sparse.Adapter, *Params) (*sparse.Adapter, error) {
	return nil, fmt.Errorf("incomplete LU for %s: %w", u.Driver, ErrNotImplemented)
}

// IChol reports that incomplete Cholesky is not implemented.
func (u Unimplemented) IChol(*sparse.Adapter) (*sparse.Adapter, error) {
	return nil, fmt.Errorf("incomplete Cholesky for %s: %w", u.Driver, ErrNotImplemented)
}

// BiCG reports that BiCG is not implemented.
func (u Unimplemented) BiCG(*sparse.Adapter, []float64) ([]float64, error) {
	return nil, fmt.Errorf("BiCG for %s: %w", u.Driver, ErrNotImplemented)
}

// PCG reports that PCG is not implemented.
func (u Unimplemented) PCG(*sparse.Adapter, []float64) ([]float64, error) {
	return nil, fmt.Errorf("PCG for %s: %w", u.Driver, ErrNotImplemented)
}

// MKL drives the Intel MKL sparse solver routines.
type MKL struct {
	Unimplemented

	lib    Caller
	res    *marshal.Resolver
	logger *zap.Logger
}

// Compile-time check that MKL implements Solver.
var _ Solver = (*MKL)(nil)

// NewMKL returns a driver calling routines through lib.
func NewMKL(lib Caller, logger *zap.Logger) *MKL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MKL{
		Unimplemented: Unimplemented{Driver: "MKL"},
		lib:           lib,
		res:           marshal.NewResolver(nil),
		logger:        logger,
	}
}

// OpenMKL loads the MKL library from dir (or the platform search path when
// dir is empty) and returns a driver over it.
func OpenMKL(dir string, logger *zap.Logger) (*MKL, error) {
	lib, err := Open(MKLLibrary, dir, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s for MKL: %w", MKLLibrary, err)
	}
	return NewMKL(lib, logger), nil
}

// Close releases the underlying library if the driver owns one.
func (d *MKL) Close() error {
	if lib, ok := d.lib.(*Library); ok {
		return lib.Close()
	}
	return nil
}

// GMRESInit loads the default parameter arrays for a problem of order n.
// x and b are the initial solution estimate and right-hand side; nil selects
// zeros.
func (d *MKL) GMRESInit(n int, x, b []float64) (*Params, error) {
	tmpLen, err := ScratchLength(n)
	if err != nil {
		return nil, fmt.Errorf("gmres init: %w", err)
	}
	if x == nil {
		x = make([]float64, n)
	}
	if b == nil {
		b = make([]float64, n)
	}
	if len(x) != n || len(b) != n {
		return nil, fmt.Errorf("gmres init: %w: x has %d and b has %d entries for order %d",
			sparse.ErrDimensionMismatch, len(x), len(b), n)
	}

	params, err := NewParams()
	if err != nil {
		return nil, err
	}
	tmp, err := marshal.NewBuffer(ctype.Float64, tmpLen)
	if err != nil {
		return nil, err
	}

	args, err := d.handles(
		argSpec{in: marshal.ScalarOf(n), opts: []marshal.Option{marshal.WithType(sparse.IndexType)}},
		argSpec{in: marshal.ArrayOf(x), opts: []marshal.Option{marshal.WithType(sparse.ValueType)}},
		argSpec{in: marshal.ArrayOf(b), opts: []marshal.Option{marshal.WithType(sparse.ValueType)}},
		argSpec{in: marshal.Slot(ctype.Int32)},
		argSpec{in: params.IPar},
		argSpec{in: params.DPar},
		argSpec{in: tmp},
	)
	if err != nil {
		return nil, fmt.Errorf("gmres init: %w", err)
	}

	d.logger.Debug("gmres init", zap.Int("n", n), zap.Int("scratch", tmpLen))
	if err := d.lib.Call(routineGMRESInit, args...); err != nil {
		return nil, err
	}
	if rci := args[3].Buffer().AsInt32()[0]; rci != 0 {
		return nil, &ForeignCallError{Routine: routineGMRESInit, Code: int(rci)}
	}
	return params, nil
}

// ILU computes the zero fill-in incomplete LU factorization of m and returns
// it as a new adapter with m's sparsity pattern. A nil p selects the
// parameters from GMRESInit. m must use one-based indices.
func (d *MKL) ILU(m *sparse.Adapter, p *Params) (*sparse.Adapter, error) {
	if m == nil {
		return nil, errors.New("ilu0: nil matrix")
	}
	if m.Offset() != 1 {
		return nil, fmt.Errorf("ilu0: %w: offset %d, want 1", ErrOffset, m.Offset())
	}
	if p == nil {
		var err error
		if p, err = d.GMRESInit(m.N(), nil, nil); err != nil {
			return nil, fmt.Errorf("ilu0: %w", err)
		}
	} else if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("ilu0: %w", err)
	}

	ops, err := m.Operands()
	if err != nil {
		return nil, fmt.Errorf("ilu0: %w", err)
	}
	bilu0, err := marshal.NewBuffer(ctype.Float64, m.NNZ())
	if err != nil {
		return nil, err
	}
	rest, err := d.handles(
		argSpec{in: bilu0},
		argSpec{in: p.IPar},
		argSpec{in: p.DPar},
		argSpec{in: marshal.Slot(ctype.Int32)},
	)
	if err != nil {
		return nil, fmt.Errorf("ilu0: %w", err)
	}

	d.logger.Debug("ilu0", zap.Int("n", m.N()), zap.Int("nnz", m.NNZ()))
	err = d.lib.Call(routineILU0,
		ops.Order, ops.Values, ops.RowPointers, ops.ColumnIndices,
		rest[0], rest[1], rest[2], rest[3])
	if err != nil {
		return nil, err
	}
	if ierr := rest[3].Buffer().AsInt32()[0]; ierr != 0 {
		return nil, &ForeignCallError{Routine: routineILU0, Code: int(ierr)}
	}
	return m.CopyUpdate(bilu0.AsFloat64())
}

type argSpec struct {
	in   marshal.Input
	opts []marshal.Option
}

func (d *MKL) handles(specs ...argSpec) ([]marshal.Handle, error) {
	hs := make([]marshal.Handle, len(specs))
	for i, s := range specs {
		h, err := d.res.HandleOf(s.in, s.opts...)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		hs[i] = h
	}
	return hs, nil
}
