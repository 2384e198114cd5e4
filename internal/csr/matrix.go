// Package csr validates and row-sorts compressed sparse row matrices held in
// a gonum-compatible sparse.CSR.
package csr

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/mamba-ml/mamba/internal/parallel"
)

// ErrInvalidStructure reports arrays that violate the CSR invariants.
var ErrInvalidStructure = errors.New("invalid CSR structure")

// Matrix is a CSR matrix with zero-based indices.
//
// Row i holds the entries Data[Indptr[i]:Indptr[i+1]] in columns
// Ind[Indptr[i]:Indptr[i+1]] of the underlying raw matrix.
type Matrix struct {
	csr    *sparse.CSR
	sorted bool
}

// New builds a rows×cols matrix from its CSR arrays. The arrays are taken
// by reference.
func New(data []float64, indices, indptr []int, rows, cols int) (*Matrix, error) {
	if err := validate(data, indices, indptr, rows, cols); err != nil {
		return nil, err
	}
	return wrap(sparse.NewCSR(rows, cols, indptr, indices, data)), nil
}

// FromCSR wraps an existing sparse.CSR after checking its invariants. The
// raw arrays stay shared with c.
func FromCSR(c *sparse.CSR) (*Matrix, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil matrix", ErrInvalidStructure)
	}
	raw := c.RawMatrix()
	if err := validate(raw.Data, raw.Ind, raw.Indptr, raw.I, raw.J); err != nil {
		return nil, err
	}
	return wrap(c), nil
}

func wrap(c *sparse.CSR) *Matrix {
	m := &Matrix{csr: c}
	m.sorted = m.checkSorted()
	return m
}

func validate(data []float64, indices, indptr []int, rows, cols int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("%w: negative shape (%d, %d)", ErrInvalidStructure, rows, cols)
	}
	if len(data) != len(indices) {
		return fmt.Errorf("%w: %d values but %d column indices", ErrInvalidStructure, len(data), len(indices))
	}
	if len(indptr) != rows+1 {
		return fmt.Errorf("%w: %d row pointers for %d rows", ErrInvalidStructure, len(indptr), rows)
	}
	if indptr[0] != 0 {
		return fmt.Errorf("%w: first row pointer is %d, want 0", ErrInvalidStructure, indptr[0])
	}
	for i := 1; i <= rows; i++ {
		if indptr[i] < indptr[i-1] {
			return fmt.Errorf("%w: row pointers decrease at row %d", ErrInvalidStructure, i-1)
		}
	}
	if indptr[rows] != len(data) {
		return fmt.Errorf("%w: last row pointer is %d, want nnz %d", ErrInvalidStructure, indptr[rows], len(data))
	}
	for k, c := range indices {
		if c < 0 || c >= cols {
			return fmt.Errorf("%w: column index %d at %d out of range [0, %d)", ErrInvalidStructure, c, k, cols)
		}
	}
	return nil
}

// CSR returns the underlying matrix for use with gonum routines.
func (m *Matrix) CSR() *sparse.CSR {
	return m.csr
}

// Shape returns (rows, cols).
func (m *Matrix) Shape() (rows, cols int) {
	return m.csr.Dims()
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return m.csr.NNZ()
}

// Data returns the stored values. Callers must not modify the slice.
func (m *Matrix) Data() []float64 {
	return m.csr.RawMatrix().Data
}

// Indices returns the column indices. Callers must not modify the slice.
func (m *Matrix) Indices() []int {
	return m.csr.RawMatrix().Ind
}

// IndPtr returns the row pointers. Callers must not modify the slice.
func (m *Matrix) IndPtr() []int {
	return m.csr.RawMatrix().Indptr
}

// At returns the value at (i, j), or 0 if absent.
func (m *Matrix) At(i, j int) float64 {
	return m.csr.At(i, j)
}

// HasSortedIndices reports whether column indices ascend within every row.
func (m *Matrix) HasSortedIndices() bool {
	return m.sorted
}

func (m *Matrix) checkSorted() bool {
	raw := m.csr.RawMatrix()
	for i := 0; i < raw.I; i++ {
		if !slices.IsSorted(raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]]) {
			return false
		}
	}
	return true
}

// SortIndices sorts column indices within every row in place, permuting the
// values alongside. It is a no-op on an already sorted matrix. Large
// matrices are sorted with rows split across CPUs.
func (m *Matrix) SortIndices() {
	m.SortIndicesWith(parallel.DefaultConfig())
}

// SortIndicesWith is SortIndices with an explicit row split.
func (m *Matrix) SortIndicesWith(cfg parallel.Config) {
	if m.sorted {
		return
	}
	raw := m.csr.RawMatrix()
	parallel.Range(raw.I, cfg, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a, b := raw.Indptr[i], raw.Indptr[i+1]
			sort.Stable(rowSorter{cols: raw.Ind[a:b], vals: raw.Data[a:b]})
		}
	})
	m.sorted = true
}

// WithData returns a matrix with the same index structure and the given
// values. The index arrays are shared, not copied.
func (m *Matrix) WithData(data []float64) (*Matrix, error) {
	raw := m.csr.RawMatrix()
	if len(data) != len(raw.Data) {
		return nil, fmt.Errorf("%w: %d values for %d stored entries", ErrInvalidStructure, len(data), len(raw.Data))
	}
	return &Matrix{
		csr:    sparse.NewCSR(raw.I, raw.J, raw.Indptr, raw.Ind, data),
		sorted: m.sorted,
	}, nil
}

// Copy returns a deep copy.
func (m *Matrix) Copy() *Matrix {
	raw := m.csr.RawMatrix()
	return &Matrix{
		csr: sparse.NewCSR(raw.I, raw.J,
			slices.Clone(raw.Indptr), slices.Clone(raw.Ind), slices.Clone(raw.Data)),
		sorted: m.sorted,
	}
}

type rowSorter struct {
	cols []int
	vals []float64
}

func (r rowSorter) Len() int           { return len(r.cols) }
func (r rowSorter) Less(i, j int) bool { return r.cols[i] < r.cols[j] }
func (r rowSorter) Swap(i, j int) {
	r.cols[i], r.cols[j] = r.cols[j], r.cols[i]
	r.vals[i], r.vals[j] = r.vals[j], r.vals[i]
}
