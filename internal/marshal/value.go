package marshal

import (
	"fmt"
	"unsafe"

	"github.com/mamba-ml/mamba/internal/ctype"
)

// Input is anything a handle can be resolved from: a Value, a *Buffer, a
// Slot, a Foreign value, or Absent.
type Input interface {
	input()
}

// Value is a front-end value the converter understands: a Scalar, a List,
// an *Array, or Absent. The set is closed.
type Value interface {
	Input
	value()
}

// Scalar is a single numeric value tagged with its source kind.
type Scalar struct {
	kind ctype.Kind
	num  number
}

// ScalarOf wraps v. Go int and float64 carry the default integer and float
// kinds; other types carry their exact kind.
func ScalarOf[T ctype.Number](v T) Scalar {
	return Scalar{kind: ctype.KindOf[T](), num: numberOf(v)}
}

// Kind returns the scalar's source kind.
func (s Scalar) Kind() ctype.Kind { return s.kind }

// Float64 returns the scalar converted to float64.
func (s Scalar) Float64() float64 { return s.num.float() }

func (Scalar) input() {}
func (Scalar) value() {}

// List is a sequence of values. Only flat lists of scalars convert.
type List []Value

// ListOf builds a homogeneous list from Go values.
func ListOf[T ctype.Number](xs ...T) List {
	l := make(List, len(xs))
	for i, x := range xs {
		l[i] = ScalarOf(x)
	}
	return l
}

func (List) input() {}
func (List) value() {}

// Array is a dense, contiguous array that reports its own element type:
// the Go-side rendition of a foreign array-interchange protocol.
type Array struct {
	dtype ctype.Descriptor
	n     int
	data  []byte
}

// ArrayOf views xs as an Array without copying. The element kind is the
// exact descriptor of T.
func ArrayOf[T ctype.Number](xs []T) *Array {
	return &Array{dtype: ctype.DescriptorOf[T](), n: len(xs), data: bytesOf(xs)}
}

// NewArray wraps n elements of type d stored in data.
func NewArray(d ctype.Descriptor, n int, data []byte) (*Array, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("array: %v: %w", d, ErrInvalidType)
	}
	if n < 0 || len(data) < n*d.Size() {
		return nil, fmt.Errorf("array: %d bytes cannot hold %d %s elements", len(data), n, d)
	}
	return &Array{dtype: d, n: n, data: data[:n*d.Size()]}, nil
}

// Descriptor returns the reported element type.
func (a *Array) Descriptor() ctype.Descriptor { return a.dtype }

// Kind returns the reported element kind.
func (a *Array) Kind() ctype.Kind { return ctype.Kind(a.dtype.Name()) }

// Len returns the number of elements.
func (a *Array) Len() int { return a.n }

func (a *Array) at(i int) number { return load(a.dtype, a.data, i) }

func (*Array) input() {}
func (*Array) value() {}

type absent struct{}

func (absent) input() {}
func (absent) value() {}

// Absent is the no-value sentinel. It resolves to the null handle.
var Absent Value = absent{}

type slot struct {
	dtype ctype.Descriptor
}

func (slot) input() {}

// Slot names a bare type: resolving it yields an output-only slot of that
// type.
func Slot(d ctype.Descriptor) Input {
	return slot{dtype: d}
}

type foreign struct {
	ptr   unsafe.Pointer
	dtype ctype.Descriptor
	n     int
	keep  any
}

func (foreign) input() {}

// Foreign names an existing value of n elements of type d at ptr.
// The memory is addressed as is; nothing is copied.
func Foreign(ptr unsafe.Pointer, d ctype.Descriptor, n int) Input {
	return foreign{ptr: ptr, dtype: d, n: n}
}

// ForeignSlice names the backing array of xs as an existing value.
// The returned handle keeps xs reachable.
func ForeignSlice[T ctype.Number](xs []T) Input {
	var ptr unsafe.Pointer
	if len(xs) > 0 {
		ptr = unsafe.Pointer(&xs[0])
	}
	return foreign{ptr: ptr, dtype: ctype.DescriptorOf[T](), n: len(xs), keep: xs}
}

func (*Buffer) input() {}
