// Copyright 2025 Mamba Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sparse provides the public API for dual-indexed CSR matrices.
//
// An Adapter stores a square CSR matrix zero-based and exposes the same
// arrays shifted to an external origin (one-based by default) as buffers
// ready for a foreign routine:
//
//	a, err := sparse.FromRaw(values, ja, ia)   // ia, ja one-based
//	ja1, err := a.ExternalColumnIndices()      // int32, one-based
//	ja0 := a.NativeColumnIndices()             // zero-based
package sparse

import (
	"github.com/mamba-ml/mamba/internal/csr"
	"github.com/mamba-ml/mamba/internal/sparse"
)

// Adapter is a square CSR matrix viewed in two index origins.
type Adapter = sparse.Adapter

// Matrix is the zero-based CSR container wrapped by an Adapter.
type Matrix = csr.Matrix

// Operands bundles handles to an adapter's external buffers.
type Operands = sparse.Operands

// Option configures adapter construction.
type Option = sparse.Option

// Integer is a constraint for raw index arrays.
type Integer = sparse.Integer

// DefaultOffset is the external origin used when none is given.
const DefaultOffset = sparse.DefaultOffset

// Errors.
var (
	ErrDimensionMismatch = sparse.ErrDimensionMismatch
	ErrMissingShape      = sparse.ErrMissingShape
	ErrIndexOutOfRange   = sparse.ErrIndexOutOfRange
	ErrInvalidStructure  = sparse.ErrInvalidStructure
)

// NewMatrix builds a zero-based rows×cols CSR matrix.
func NewMatrix(data []float64, indices, indptr []int, rows, cols int) (*Matrix, error) {
	return csr.New(data, indices, indptr, rows, cols)
}

// FromContainer wraps a square CSR matrix without copying it. Unsorted
// column indices are sorted in place, so the slices passed to NewMatrix are
// permuted along with their values.
func FromContainer(m *Matrix, opts ...Option) (*Adapter, error) {
	return sparse.FromContainer(m, opts...)
}

// FromRaw assembles an adapter from arrays in the external origin.
func FromRaw[I Integer](values []float64, colIdx, rowPtr []I, opts ...Option) (*Adapter, error) {
	return sparse.FromRaw(values, colIdx, rowPtr, opts...)
}

// WithOffset sets the external index origin.
func WithOffset(offset int) Option { return sparse.WithOffset(offset) }

// WithSize sets the matrix order.
func WithSize(n int) Option { return sparse.WithSize(n) }
