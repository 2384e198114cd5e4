// Package sparse pairs a square CSR matrix with the index origin expected by
// an external routine and exposes ready-to-call buffers of its fields.
package sparse

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/mamba-ml/mamba/internal/csr"
	"github.com/mamba-ml/mamba/internal/ctype"
	"github.com/mamba-ml/mamba/internal/marshal"
)

// Common errors.
var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrMissingShape      = errors.New("matrix order cannot be inferred")
	ErrIndexOutOfRange   = errors.New("index out of range after origin shift")
	ErrInvalidStructure  = csr.ErrInvalidStructure
)

// Element types of the external buffers: indices and counts are 4-byte
// signed integers, values are doubles.
var (
	IndexType = ctype.Int32
	ValueType = ctype.Float64
)

// DefaultOffset is the index origin used when none is given.
const DefaultOffset = 1

// Integer is a constraint for raw index arrays.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

type options struct {
	offset int
	size   int
	sized  bool
	conv   *marshal.Converter
}

// Option configures adapter construction.
type Option func(*options)

// WithOffset sets the external index origin.
func WithOffset(offset int) Option {
	return func(o *options) {
		o.offset = offset
	}
}

// WithSize sets the matrix order instead of inferring it.
func WithSize(n int) Option {
	return func(o *options) {
		o.size = n
		o.sized = true
	}
}

// WithConverter sets the converter used to materialize buffers.
func WithConverter(c *marshal.Converter) Option {
	return func(o *options) {
		o.conv = c
	}
}

func buildOptions(opts []Option) options {
	o := options{offset: DefaultOffset}
	for _, opt := range opts {
		opt(&o)
	}
	if o.conv == nil {
		o.conv = marshal.NewConverter(nil)
	}
	return o
}

// Adapter views a square CSR matrix in two index origins: native zero-based
// arrays as stored, and external arrays shifted by the offset. An Adapter is
// never modified after construction.
type Adapter struct {
	m      *csr.Matrix
	offset int
	conv   *marshal.Converter
}

// FromContainer wraps m, which stays referenced rather than copied. Its
// indices are sorted in place if they are not sorted already.
func FromContainer(m *csr.Matrix, opts ...Option) (*Adapter, error) {
	o := buildOptions(opts)
	if m == nil {
		return nil, fmt.Errorf("sparse: nil container: %w", ErrMissingShape)
	}

	rows, cols := m.Shape()
	if rows != cols {
		return nil, fmt.Errorf("sparse: %w: matrix is %d×%d, want square", ErrDimensionMismatch, rows, cols)
	}
	if o.sized && o.size != rows {
		return nil, fmt.Errorf("sparse: %w: size %d for a %d×%d matrix", ErrDimensionMismatch, o.size, rows, cols)
	}

	m.SortIndices()
	return &Adapter{m: m, offset: o.offset, conv: o.conv}, nil
}

// FromRaw assembles an adapter from arrays expressed in the external origin.
// The offset is subtracted from every row pointer and column index to obtain
// the native arrays; a shifted index outside the native range fails with
// ErrIndexOutOfRange. The order is len(rowPtr)-1 unless WithSize is given.
func FromRaw[I Integer](values []float64, colIdx, rowPtr []I, opts ...Option) (*Adapter, error) {
	o := buildOptions(opts)

	if len(values) != len(colIdx) {
		return nil, fmt.Errorf("sparse: %w: %d values but %d column indices",
			ErrDimensionMismatch, len(values), len(colIdx))
	}

	var n int
	switch {
	case o.sized:
		n = o.size
		if len(rowPtr) != n+1 {
			return nil, fmt.Errorf("sparse: %w: %d row pointers for order %d",
				ErrDimensionMismatch, len(rowPtr), n)
		}
	case len(rowPtr) == 0:
		return nil, fmt.Errorf("sparse: no row pointers and no size: %w", ErrMissingShape)
	default:
		n = len(rowPtr) - 1
	}

	nnz := len(values)
	indptr := make([]int, len(rowPtr))
	for i, p := range rowPtr {
		indptr[i] = int(p) - o.offset
		if indptr[i] < 0 || indptr[i] > nnz {
			return nil, fmt.Errorf("sparse: %w: row pointer %d at %d with offset %d",
				ErrIndexOutOfRange, p, i, o.offset)
		}
	}
	indices := make([]int, len(colIdx))
	for k, c := range colIdx {
		indices[k] = int(c) - o.offset
		if indices[k] < 0 || indices[k] >= n {
			return nil, fmt.Errorf("sparse: %w: column index %d at %d with offset %d",
				ErrIndexOutOfRange, c, k, o.offset)
		}
	}

	m, err := csr.New(slices.Clone(values), indices, indptr, n, n)
	if err != nil {
		return nil, fmt.Errorf("sparse: %w", err)
	}
	m.SortIndices()
	return &Adapter{m: m, offset: o.offset, conv: o.conv}, nil
}

// N returns the matrix order.
func (a *Adapter) N() int {
	rows, _ := a.m.Shape()
	return rows
}

// NNZ returns the number of stored entries.
func (a *Adapter) NNZ() int {
	return a.m.NNZ()
}

// Offset returns the external index origin.
func (a *Adapter) Offset() int {
	return a.offset
}

// Container returns the wrapped CSR matrix.
func (a *Adapter) Container() *csr.Matrix {
	return a.m
}

// Values returns a copy of the stored values.
func (a *Adapter) Values() []float64 {
	return slices.Clone(a.m.Data())
}

// NativeRowPointers returns a copy of the zero-based row pointers.
func (a *Adapter) NativeRowPointers() []int {
	return slices.Clone(a.m.IndPtr())
}

// NativeColumnIndices returns a copy of the zero-based column indices.
func (a *Adapter) NativeColumnIndices() []int {
	return slices.Clone(a.m.Indices())
}

// ExternalRowPointers materializes the row pointers shifted by the offset.
func (a *Adapter) ExternalRowPointers() (*marshal.Buffer, error) {
	return a.shifted(a.m.IndPtr())
}

// ExternalColumnIndices materializes the column indices shifted by the offset.
func (a *Adapter) ExternalColumnIndices() (*marshal.Buffer, error) {
	return a.shifted(a.m.Indices())
}

func (a *Adapter) shifted(native []int) (*marshal.Buffer, error) {
	ext := make([]int64, len(native))
	for i, v := range native {
		ext[i] = int64(v) + int64(a.offset)
		if err := checkIndex("index", ext[i]); err != nil {
			return nil, err
		}
	}
	return a.conv.Convert(marshal.ArrayOf(ext), marshal.WithType(IndexType))
}

// checkIndex fails when v does not fit IndexType.
func checkIndex(what string, v int64) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("sparse: %w: %s %d exceeds the %d-byte index range",
			ErrDimensionMismatch, what, v, IndexType.Size())
	}
	return nil
}

func (a *Adapter) indexScalar(what string, v int) (*marshal.Buffer, error) {
	if err := checkIndex(what, int64(v)); err != nil {
		return nil, err
	}
	return a.conv.Convert(marshal.ScalarOf(v), marshal.WithType(IndexType))
}

// ValuesBuffer materializes the values as doubles.
func (a *Adapter) ValuesBuffer() (*marshal.Buffer, error) {
	return a.conv.Convert(marshal.ArrayOf(a.m.Data()), marshal.WithType(ValueType))
}

// Count materializes nnz as a scalar index-typed buffer.
func (a *Adapter) Count() (*marshal.Buffer, error) {
	return a.indexScalar("nnz", a.NNZ())
}

// Order materializes the matrix order as a scalar index-typed buffer.
func (a *Adapter) Order() (*marshal.Buffer, error) {
	return a.indexScalar("order", a.N())
}

// CopyUpdate returns a new adapter with the same index structure and offset
// holding a copy of values. The receiver is unchanged.
func (a *Adapter) CopyUpdate(values []float64) (*Adapter, error) {
	if len(values) != a.NNZ() {
		return nil, fmt.Errorf("sparse: %w: %d values for %d stored entries",
			ErrDimensionMismatch, len(values), a.NNZ())
	}
	m, err := a.m.WithData(slices.Clone(values))
	if err != nil {
		return nil, fmt.Errorf("sparse: %w", err)
	}
	return &Adapter{m: m, offset: a.offset, conv: a.conv}, nil
}
