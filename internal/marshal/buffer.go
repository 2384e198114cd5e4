// Package marshal turns front-end values into fixed-width, contiguous,
// natively laid-out buffers and resolves handles to them for the foreign
// call boundary.
package marshal

import (
	"fmt"
	"unsafe"

	"github.com/mamba-ml/mamba/internal/ctype"
)

// Buffer is an owned, contiguous block of fixed-width elements tagged with
// its descriptor. Storage is native-endian and 8-byte aligned.
type Buffer struct {
	data  []byte
	dtype ctype.Descriptor
	n     int
}

// NewBuffer allocates a zeroed buffer of n elements of type d.
func NewBuffer(d ctype.Descriptor, n int) (*Buffer, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("buffer: %v: %w", d, ErrInvalidType)
	}
	if n < 0 {
		return nil, fmt.Errorf("buffer: negative length %d", n)
	}

	size := n * d.Size()
	var data []byte
	if size > 0 {
		// Back the bytes with words so every element is naturally aligned.
		words := make([]uint64, (size+7)/8)
		//nolint:gosec // unsafe.Slice over owned storage, length bounded by size
		data = unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
	}

	return &Buffer{data: data, dtype: d, n: n}, nil
}

// Descriptor returns the element type.
func (b *Buffer) Descriptor() ctype.Descriptor {
	return b.dtype
}

// Len returns the number of elements (1 for scalars).
func (b *Buffer) Len() int {
	return b.n
}

// ByteSize returns the total memory size in bytes.
func (b *Buffer) ByteSize() int {
	return len(b.data)
}

// Bytes returns the raw storage.
// WARNING: Direct access to underlying memory. Use with caution.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Pointer returns the address of the first element, or nil for an empty buffer.
func (b *Buffer) Pointer() unsafe.Pointer {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.data[0])
}

// Float64At reads element i converted to float64.
func (b *Buffer) Float64At(i int) float64 {
	return load(b.dtype, b.data, i).float()
}

// Int64At reads element i converted to int64. Floating point elements are
// truncated toward zero.
func (b *Buffer) Int64At(i int) int64 {
	return load(b.dtype, b.data, i).int()
}

// Float64s returns a copy of every element converted to float64.
func (b *Buffer) Float64s() []float64 {
	out := make([]float64, b.n)
	for i := range out {
		out[i] = b.Float64At(i)
	}
	return out
}

// Int64s returns a copy of every element converted to int64.
func (b *Buffer) Int64s() []int64 {
	out := make([]int64, b.n)
	for i := range out {
		out[i] = b.Int64At(i)
	}
	return out
}

func (b *Buffer) mustBe(d ctype.Descriptor) {
	if b.dtype != d {
		panic(fmt.Sprintf("buffer dtype is %s, not %s", b.dtype, d))
	}
}

// AsInt8 interprets the data as []int8.
// Panics if the buffer's descriptor is not Int8.
func (b *Buffer) AsInt8() []int8 {
	b.mustBe(ctype.Int8)
	return view[int8](b.data, b.n)
}

// AsInt16 interprets the data as []int16.
// Panics if the buffer's descriptor is not Int16.
func (b *Buffer) AsInt16() []int16 {
	b.mustBe(ctype.Int16)
	return view[int16](b.data, b.n)
}

// AsInt32 interprets the data as []int32.
// Panics if the buffer's descriptor is not Int32.
func (b *Buffer) AsInt32() []int32 {
	b.mustBe(ctype.Int32)
	return view[int32](b.data, b.n)
}

// AsInt64 interprets the data as []int64.
// Panics if the buffer's descriptor is not Int64.
func (b *Buffer) AsInt64() []int64 {
	b.mustBe(ctype.Int64)
	return view[int64](b.data, b.n)
}

// AsUint8 interprets the data as []uint8.
// Panics if the buffer's descriptor is not Uint8.
func (b *Buffer) AsUint8() []uint8 {
	b.mustBe(ctype.Uint8)
	return b.data // Already []byte = []uint8
}

// AsUint16 interprets the data as []uint16.
// Panics if the buffer's descriptor is not Uint16.
func (b *Buffer) AsUint16() []uint16 {
	b.mustBe(ctype.Uint16)
	return view[uint16](b.data, b.n)
}

// AsUint32 interprets the data as []uint32.
// Panics if the buffer's descriptor is not Uint32.
func (b *Buffer) AsUint32() []uint32 {
	b.mustBe(ctype.Uint32)
	return view[uint32](b.data, b.n)
}

// AsUint64 interprets the data as []uint64.
// Panics if the buffer's descriptor is not Uint64.
func (b *Buffer) AsUint64() []uint64 {
	b.mustBe(ctype.Uint64)
	return view[uint64](b.data, b.n)
}

// AsFloat32 interprets the data as []float32.
// Panics if the buffer's descriptor is not Float32.
func (b *Buffer) AsFloat32() []float32 {
	b.mustBe(ctype.Float32)
	return view[float32](b.data, b.n)
}

// AsFloat64 interprets the data as []float64.
// Panics if the buffer's descriptor is not Float64.
func (b *Buffer) AsFloat64() []float64 {
	b.mustBe(ctype.Float64)
	return view[float64](b.data, b.n)
}

// view reinterprets raw bytes as n elements of T without copying.
func view[T ctype.Number](data []byte, n int) []T {
	if n == 0 || len(data) == 0 {
		return []T{}
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by the caller's element count
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}

// bytesOf reinterprets a typed slice as its raw bytes without copying.
func bytesOf[T ctype.Number](xs []T) []byte {
	if len(xs) == 0 {
		return nil
	}
	var zero T
	//nolint:gosec // unsafe.Slice for zero-copy access over the caller's slice
	return unsafe.Slice((*byte)(unsafe.Pointer(&xs[0])), len(xs)*int(unsafe.Sizeof(zero)))
}
