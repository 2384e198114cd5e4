package marshal

import (
	"math"
	"unsafe"

	"github.com/mamba-ml/mamba/internal/ctype"
)

// number carries one element in the widest representation of its class.
type number struct {
	class ctype.Class
	i     int64
	u     uint64
	f     float64
}

func signed(v int64) number    { return number{class: ctype.Signed, i: v} }
func unsigned(v uint64) number { return number{class: ctype.Unsigned, u: v} }
func floating(v float64) number {
	return number{class: ctype.Float, f: v}
}

// numberOf widens a Go value according to its in-memory descriptor.
func numberOf[T ctype.Number](v T) number {
	switch ctype.DescriptorOf[T]().Class() {
	case ctype.Signed:
		return signed(int64(v))
	case ctype.Unsigned:
		return unsigned(uint64(v))
	default:
		return floating(float64(v))
	}
}

func (n number) float() float64 {
	switch n.class {
	case ctype.Signed:
		return float64(n.i)
	case ctype.Unsigned:
		return float64(n.u)
	default:
		return n.f
	}
}

// int converts to int64; floats truncate toward zero.
func (n number) int() int64 {
	switch n.class {
	case ctype.Signed:
		return n.i
	case ctype.Unsigned:
		return int64(n.u)
	default:
		return int64(n.f)
	}
}

func (n number) uint() uint64 {
	switch n.class {
	case ctype.Signed:
		return uint64(n.i)
	case ctype.Unsigned:
		return n.u
	default:
		return uint64(int64(n.f))
	}
}

// integral reports whether n is within tolerance of its truncated value,
// using the absolute/relative tolerances of a standard allclose check.
func (n number) integral() bool {
	if n.class != ctype.Float {
		return true
	}
	if math.IsNaN(n.f) || math.IsInf(n.f, 0) {
		return false
	}
	return math.Abs(n.f-math.Trunc(n.f)) <= 1e-8+1e-5*math.Abs(n.f)
}

// load reads element i of data laid out as d.
func load(d ctype.Descriptor, data []byte, i int) number {
	p := unsafe.Pointer(&data[i*d.Size()])
	switch d {
	case ctype.Int8:
		return signed(int64(*(*int8)(p)))
	case ctype.Int16:
		return signed(int64(*(*int16)(p)))
	case ctype.Int32:
		return signed(int64(*(*int32)(p)))
	case ctype.Int64:
		return signed(*(*int64)(p))
	case ctype.Uint8:
		return unsigned(uint64(*(*uint8)(p)))
	case ctype.Uint16:
		return unsigned(uint64(*(*uint16)(p)))
	case ctype.Uint32:
		return unsigned(uint64(*(*uint32)(p)))
	case ctype.Uint64:
		return unsigned(*(*uint64)(p))
	case ctype.Float32:
		return floating(float64(*(*float32)(p)))
	case ctype.Float64:
		return floating(*(*float64)(p))
	default:
		panic("load: unsupported descriptor " + d.String())
	}
}

// store writes n into element i of data laid out as d, casting as needed.
// Narrowing casts wrap or lose precision silently.
func store(d ctype.Descriptor, data []byte, i int, n number) {
	p := unsafe.Pointer(&data[i*d.Size()])
	switch d {
	case ctype.Int8:
		*(*int8)(p) = int8(n.int())
	case ctype.Int16:
		*(*int16)(p) = int16(n.int())
	case ctype.Int32:
		*(*int32)(p) = int32(n.int())
	case ctype.Int64:
		*(*int64)(p) = n.int()
	case ctype.Uint8:
		*(*uint8)(p) = uint8(n.uint())
	case ctype.Uint16:
		*(*uint16)(p) = uint16(n.uint())
	case ctype.Uint32:
		*(*uint32)(p) = uint32(n.uint())
	case ctype.Uint64:
		*(*uint64)(p) = n.uint()
	case ctype.Float32:
		*(*float32)(p) = float32(n.float())
	case ctype.Float64:
		*(*float64)(p) = n.float()
	default:
		panic("store: unsupported descriptor " + d.String())
	}
}
