// Copyright 2025 Mamba Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package driver provides the public API for loading the routine library and
// calling its solvers.
//
// Example:
//
//	mkl, err := driver.OpenMKL("/opt/intel/mkl/lib", logger)
//	if err != nil {
//	    return err
//	}
//	defer mkl.Close()
//	lu, err := mkl.ILU(a, nil)
package driver

import (
	"go.uber.org/zap"

	"github.com/mamba-ml/mamba/internal/driver"
)

// Type aliases for public API.
type (
	Caller           = driver.Caller
	Library          = driver.Library
	Solver           = driver.Solver
	Unimplemented    = driver.Unimplemented
	MKL              = driver.MKL
	Params           = driver.Params
	ForeignCallError = driver.ForeignCallError
)

// ParamLength is the length of the solver parameter arrays.
const ParamLength = driver.ParamLength

// Errors.
var (
	ErrLibraryNotFound  = driver.ErrLibraryNotFound
	ErrAmbiguousLibrary = driver.ErrAmbiguousLibrary
	ErrNotImplemented   = driver.ErrNotImplemented
	ErrInvalidSize      = driver.ErrInvalidSize
	ErrOffset           = driver.ErrOffset
	ErrForeignCall      = driver.ErrForeignCall
)

// FindLibrary resolves a library base name to a loadable path.
func FindLibrary(name, dir string) (string, error) { return driver.FindLibrary(name, dir) }

// Open locates and loads a shared library.
func Open(name, dir string, logger *zap.Logger) (*Library, error) {
	return driver.Open(name, dir, logger)
}

// NewMKL returns an MKL driver over lib.
func NewMKL(lib Caller, logger *zap.Logger) *MKL { return driver.NewMKL(lib, logger) }

// OpenMKL loads MKL from dir and returns a driver over it.
func OpenMKL(dir string, logger *zap.Logger) (*MKL, error) { return driver.OpenMKL(dir, logger) }

// ScratchLength returns the GMRES scratch length for order n.
func ScratchLength(n int) (int, error) { return driver.ScratchLength(n) }

// NewParams allocates zeroed solver parameter arrays.
func NewParams() (*Params, error) { return driver.NewParams() }
