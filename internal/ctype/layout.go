package ctype

import "unsafe"

// intSize is the width of int and uint in bytes.
const intSize = (32 << (^uint(0) >> 63)) / 8

func descriptorByLayout[T Number]() Descriptor {
	var zero T
	width := int(unsafe.Sizeof(zero))

	half := 0.5
	if T(half) != 0 {
		if width == 4 {
			return Float32
		}
		return Float64
	}

	minusOne := zero
	minusOne--
	signed := minusOne < 0
	for _, d := range All() {
		if d.IsInteger() && d.Size() == width && (d.class == Signed) == signed {
			return d
		}
	}
	return Descriptor{}
}
