// Package ctype describes the fixed-width numeric representations that cross
// the foreign call boundary and the registry resolving abstract kinds to them.
package ctype

// Number is a constraint for Go numeric types that have a fixed-width
// foreign representation.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Class is the numeric family of a Descriptor.
type Class int

// Numeric families.
const (
	Invalid Class = iota
	Signed
	Unsigned
	Float
)

// String returns a human-readable class name.
func (c Class) String() string {
	switch c {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	default:
		return "invalid"
	}
}

// Descriptor identifies one concrete fixed-width numeric representation.
// Descriptors are comparable values; the zero Descriptor is invalid.
type Descriptor struct {
	name  string
	class Class
	width int
}

// Predeclared descriptors.
var (
	Int8    = Descriptor{name: "int8", class: Signed, width: 1}
	Int16   = Descriptor{name: "int16", class: Signed, width: 2}
	Int32   = Descriptor{name: "int32", class: Signed, width: 4}
	Int64   = Descriptor{name: "int64", class: Signed, width: 8}
	Uint8   = Descriptor{name: "uint8", class: Unsigned, width: 1}
	Uint16  = Descriptor{name: "uint16", class: Unsigned, width: 2}
	Uint32  = Descriptor{name: "uint32", class: Unsigned, width: 4}
	Uint64  = Descriptor{name: "uint64", class: Unsigned, width: 8}
	Float32 = Descriptor{name: "float32", class: Float, width: 4}
	Float64 = Descriptor{name: "float64", class: Float, width: 8}
)

// All lists every predeclared descriptor.
func All() []Descriptor {
	return []Descriptor{Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64}
}

// Name returns the descriptor name, e.g. "int32".
func (d Descriptor) Name() string { return d.name }

// Class returns the numeric family.
func (d Descriptor) Class() Class { return d.class }

// Size returns the element width in bytes.
func (d Descriptor) Size() int { return d.width }

// Signed reports whether the representation carries a sign.
// Floating point representations are signed.
func (d Descriptor) Signed() bool { return d.class == Signed || d.class == Float }

// IsFloat reports whether d is an IEEE floating point representation.
func (d Descriptor) IsFloat() bool { return d.class == Float }

// IsInteger reports whether d is an integral representation.
func (d Descriptor) IsInteger() bool { return d.class == Signed || d.class == Unsigned }

// Valid reports whether d is one of the predeclared descriptors.
func (d Descriptor) Valid() bool {
	for _, p := range All() {
		if d == p {
			return true
		}
	}
	return false
}

// String returns the descriptor name, or "invalid" for the zero value.
func (d Descriptor) String() string {
	if d.name == "" {
		return "invalid"
	}
	return d.name
}

// DescriptorOf returns the descriptor matching the in-memory layout of T.
// Platform-sized int and uint map to their 64-bit descriptors on 64-bit
// targets and 32-bit descriptors otherwise.
func DescriptorOf[T Number]() Descriptor {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case int:
		if intSize == 8 {
			return Int64
		}
		return Int32
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case uint:
		if intSize == 8 {
			return Uint64
		}
		return Uint32
	case float32:
		return Float32
	case float64:
		return Float64
	}
	// Named types built on the basic ones fall through the type switch.
	return descriptorByLayout[T]()
}

// KindOf returns the source Kind for a Go numeric type. Go's int and float64
// are the front end's untyped integer and float, so they map to the default
// kinds; every other type maps to its exact concrete kind.
func KindOf[T Number]() Kind {
	var zero T
	switch any(zero).(type) {
	case int:
		return DefaultInt
	case float64:
		return DefaultFloat
	}
	return Kind(DescriptorOf[T]().Name())
}
