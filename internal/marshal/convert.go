package marshal

import (
	"fmt"
	"slices"

	"github.com/mamba-ml/mamba/internal/ctype"
)

// Converter turns Values into Buffers, inferring element types through its
// registry.
type Converter struct {
	registry *ctype.Registry
}

// NewConverter returns a converter resolving kinds through reg.
// A nil reg selects the shared default registry.
func NewConverter(reg *ctype.Registry) *Converter {
	if reg == nil {
		reg = ctype.Default()
	}
	return &Converter{registry: reg}
}

// Registry returns the registry used for inference.
func (c *Converter) Registry() *ctype.Registry {
	return c.registry
}

type convertOptions struct {
	dtype  ctype.Descriptor
	typed  bool
	coerce bool
}

// Option configures a single conversion.
type Option func(*convertOptions)

// WithType forces the element type. An explicit type is always honored.
func WithType(d ctype.Descriptor) Option {
	return func(o *convertOptions) {
		o.dtype = d
		o.typed = true
	}
}

// WithoutCoerce makes array conversion keep the array's own element kind
// instead of preferring the default integer or float kind.
func WithoutCoerce() Option {
	return func(o *convertOptions) {
		o.coerce = false
	}
}

// Convert produces a new Buffer holding v.
//
// Scalars become one-element buffers. Flat lists of scalars of a single kind
// become buffers of that kind; mixed kinds need WithType. Arrays are coerced
// to the default integer kind when every element is integral, and to the
// default float kind otherwise, unless WithoutCoerce or WithType is given.
func (c *Converter) Convert(v Value, opts ...Option) (*Buffer, error) {
	o := convertOptions{coerce: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.typed && !o.dtype.Valid() {
		return nil, fmt.Errorf("convert: explicit type %v: %w", o.dtype, ErrInvalidType)
	}

	switch v := v.(type) {
	case Scalar:
		return c.convertScalar(v, o)
	case List:
		return c.convertList(v, o)
	case *Array:
		if v == nil {
			return nil, fmt.Errorf("convert: nil array: %w", ErrUnsupportedType)
		}
		return c.convertArray(v, o)
	default:
		return nil, fmt.Errorf("convert: %T: %w", v, ErrUnsupportedType)
	}
}

func (c *Converter) convertScalar(s Scalar, o convertOptions) (*Buffer, error) {
	d := o.dtype
	if !o.typed {
		var err error
		if d, err = c.registry.Resolve(s.kind); err != nil {
			return nil, fmt.Errorf("convert scalar: %w", err)
		}
	}

	buf, err := NewBuffer(d, 1)
	if err != nil {
		return nil, err
	}
	store(d, buf.data, 0, s.num)
	return buf, nil
}

func (c *Converter) convertList(l List, o convertOptions) (*Buffer, error) {
	var kinds []ctype.Kind
	for i, elem := range l {
		switch e := elem.(type) {
		case Scalar:
			if !slices.Contains(kinds, e.kind) {
				kinds = append(kinds, e.kind)
			}
		case List, *Array:
			return nil, fmt.Errorf("convert list: element %d is a sequence: %w", i, ErrUnsupportedShape)
		default:
			return nil, fmt.Errorf("convert list: element %d is %T: %w", i, elem, ErrUnsupportedType)
		}
	}

	d := o.dtype
	if !o.typed {
		if len(kinds) != 1 {
			return nil, &AmbiguousTypeError{Kinds: kinds}
		}
		var err error
		if d, err = c.registry.Resolve(kinds[0]); err != nil {
			return nil, fmt.Errorf("convert list: %w", err)
		}
	}

	buf, err := NewBuffer(d, len(l))
	if err != nil {
		return nil, err
	}
	for i, elem := range l {
		store(d, buf.data, i, elem.(Scalar).num)
	}
	return buf, nil
}

func (c *Converter) convertArray(a *Array, o convertOptions) (*Buffer, error) {
	d := o.dtype
	if !o.typed {
		kind := a.Kind()
		if o.coerce {
			kind = ctype.DefaultInt
			for i := 0; i < a.n; i++ {
				if !a.at(i).integral() {
					kind = ctype.DefaultFloat
					break
				}
			}
		}
		var err error
		if d, err = c.registry.Resolve(kind); err != nil {
			return nil, fmt.Errorf("convert array: %w", err)
		}
	}

	buf, err := NewBuffer(d, a.n)
	if err != nil {
		return nil, err
	}
	if d == a.dtype {
		copy(buf.data, a.data)
		return buf, nil
	}
	for i := 0; i < a.n; i++ {
		store(d, buf.data, i, a.at(i))
	}
	return buf, nil
}

// Convert produces a Buffer from v using the shared default registry.
func Convert(v Value, opts ...Option) (*Buffer, error) {
	return NewConverter(nil).Convert(v, opts...)
}
