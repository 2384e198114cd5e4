// Copyright 2025 Mamba Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ctype provides the public API for fixed-width numeric types.
//
// A Descriptor names one concrete layout (signed/unsigned integer of 1, 2, 4
// or 8 bytes, IEEE single or double). A Registry maps abstract kinds, such as
// the front end's default integer and float, to descriptors:
//
//	d, err := ctype.Default().Resolve(ctype.DefaultInt) // Int32
package ctype

import (
	"github.com/mamba-ml/mamba/internal/ctype"
)

// Descriptor identifies a concrete fixed-width numeric representation.
type Descriptor = ctype.Descriptor

// Class is the numeric family of a Descriptor.
type Class = ctype.Class

// Kind is an abstract numeric kind.
type Kind = ctype.Kind

// Registry maps kinds to descriptors.
type Registry = ctype.Registry

// Number is a constraint for Go numeric types with a fixed-width layout.
type Number = ctype.Number

// Descriptors.
var (
	Int8    = ctype.Int8
	Int16   = ctype.Int16
	Int32   = ctype.Int32
	Int64   = ctype.Int64
	Uint8   = ctype.Uint8
	Uint16  = ctype.Uint16
	Uint32  = ctype.Uint32
	Uint64  = ctype.Uint64
	Float32 = ctype.Float32
	Float64 = ctype.Float64
)

// Default kinds.
const (
	DefaultInt   = ctype.DefaultInt
	DefaultFloat = ctype.DefaultFloat
)

// Errors.
var (
	ErrUnknownKind = ctype.ErrUnknownKind
	ErrInvalidType = ctype.ErrInvalidType
)

// Default returns the shared, read-only default registry.
func Default() *Registry {
	return ctype.Default()
}

// NewRegistry returns a private registry with the default table.
func NewRegistry() *Registry {
	return ctype.NewRegistry()
}

// NewRegistryFrom returns a private registry holding exactly entries.
func NewRegistryFrom(entries map[Kind]Descriptor) (*Registry, error) {
	return ctype.NewRegistryFrom(entries)
}

// DescriptorOf returns the descriptor matching the layout of T.
func DescriptorOf[T Number]() Descriptor {
	return ctype.DescriptorOf[T]()
}

// KindOf returns the source kind of T.
func KindOf[T Number]() Kind {
	return ctype.KindOf[T]()
}
