// Copyright 2025 Mamba Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package marshal provides the public API for turning front-end values into
// call-ready buffers and handles.
//
// Values form a closed set: Scalar, List, *Array and Absent. Convert infers
// the element type through a registry unless WithType is given; HandleOf
// addresses buffers, foreign values and output slots.
//
// Example:
//
//	buf, err := marshal.Convert(marshal.ListOf(1.0, 2.0)) // two float64
//	h, err := marshal.HandleOf(buf)                       // no copy
//	out, err := marshal.HandleOf(marshal.Slot(ctype.Int32))
package marshal

import (
	"unsafe"

	"github.com/mamba-ml/mamba/ctype"
	"github.com/mamba-ml/mamba/internal/marshal"
)

// Type aliases for public API.
type (
	Buffer     = marshal.Buffer
	Value      = marshal.Value
	Input      = marshal.Input
	Scalar     = marshal.Scalar
	List       = marshal.List
	Array      = marshal.Array
	Handle     = marshal.Handle
	HandleKind = marshal.HandleKind
	Converter  = marshal.Converter
	Resolver   = marshal.Resolver
	Option     = marshal.Option

	AmbiguousTypeError = marshal.AmbiguousTypeError
)

// Handle kinds.
const (
	NullHandle    = marshal.NullHandle
	BufferHandle  = marshal.BufferHandle
	ForeignHandle = marshal.ForeignHandle
	SlotHandle    = marshal.SlotHandle
)

// Sentinels.
var (
	Absent = marshal.Absent
	Null   = marshal.Null
)

// Errors.
var (
	ErrAmbiguousType    = marshal.ErrAmbiguousType
	ErrUnsupportedShape = marshal.ErrUnsupportedShape
	ErrUnsupportedType  = marshal.ErrUnsupportedType
	ErrInvalidType      = marshal.ErrInvalidType
)

// ScalarOf wraps a single Go number.
func ScalarOf[T ctype.Number](v T) Scalar { return marshal.ScalarOf(v) }

// ListOf builds a homogeneous list.
func ListOf[T ctype.Number](xs ...T) List { return marshal.ListOf(xs...) }

// ArrayOf views a slice as an Array without copying.
func ArrayOf[T ctype.Number](xs []T) *Array { return marshal.ArrayOf(xs) }

// NewArray wraps n elements of type d stored in data.
func NewArray(d ctype.Descriptor, n int, data []byte) (*Array, error) {
	return marshal.NewArray(d, n, data)
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(d ctype.Descriptor, n int) (*Buffer, error) { return marshal.NewBuffer(d, n) }

// Slot names a bare type for an output-only slot.
func Slot(d ctype.Descriptor) Input { return marshal.Slot(d) }

// Foreign names existing memory at ptr.
func Foreign(ptr unsafe.Pointer, d ctype.Descriptor, n int) Input { return marshal.Foreign(ptr, d, n) }

// ForeignSlice names the backing array of xs.
func ForeignSlice[T ctype.Number](xs []T) Input { return marshal.ForeignSlice(xs) }

// WithType forces the element type of a conversion.
func WithType(d ctype.Descriptor) Option { return marshal.WithType(d) }

// WithoutCoerce keeps an array's own element kind.
func WithoutCoerce() Option { return marshal.WithoutCoerce() }

// NewConverter returns a converter over reg (nil = default registry).
func NewConverter(reg *ctype.Registry) *Converter { return marshal.NewConverter(reg) }

// NewResolver returns a resolver over conv (nil = default converter).
func NewResolver(conv *Converter) *Resolver { return marshal.NewResolver(conv) }

// Convert produces a Buffer from v using the default registry.
func Convert(v Value, opts ...Option) (*Buffer, error) { return marshal.Convert(v, opts...) }

// HandleOf resolves in to a Handle using the default registry.
func HandleOf(in Input, opts ...Option) (Handle, error) { return marshal.HandleOf(in, opts...) }
