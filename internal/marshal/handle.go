package marshal

import (
	"fmt"
	"unsafe"

	"github.com/mamba-ml/mamba/internal/ctype"
)

// HandleKind tells what a Handle addresses.
type HandleKind int

// Handle kinds.
const (
	NullHandle HandleKind = iota
	BufferHandle
	ForeignHandle
	SlotHandle
)

// String returns a human-readable handle kind.
func (k HandleKind) String() string {
	switch k {
	case NullHandle:
		return "null"
	case BufferHandle:
		return "buffer"
	case ForeignHandle:
		return "foreign"
	case SlotHandle:
		return "slot"
	default:
		return "unknown"
	}
}

// Handle is an address-like reference for the call boundary. It never owns
// memory; the referent must outlive every use of the handle.
type Handle struct {
	kind  HandleKind
	ptr   unsafe.Pointer
	dtype ctype.Descriptor
	n     int
	buf   *Buffer
	keep  any
}

// Null is the void handle.
var Null = Handle{}

// Kind returns what the handle addresses.
func (h Handle) Kind() HandleKind { return h.kind }

// Pointer returns the referenced address, nil for the null handle and for
// empty buffers.
func (h Handle) Pointer() unsafe.Pointer { return h.ptr }

// IsNull reports whether h is the void handle.
func (h Handle) IsNull() bool { return h.kind == NullHandle }

// Descriptor returns the element type of the referent.
func (h Handle) Descriptor() ctype.Descriptor { return h.dtype }

// Len returns the element count of the referent.
func (h Handle) Len() int { return h.n }

// Buffer returns the addressed Buffer, or nil for null and foreign handles.
func (h Handle) Buffer() *Buffer { return h.buf }

// Referent returns whatever keeps the addressed memory reachable: the Buffer
// or the foreign Go value. Callers pass it to runtime.KeepAlive after a
// foreign call.
func (h Handle) Referent() any {
	if h.buf != nil {
		return h.buf
	}
	return h.keep
}

// String returns a short description for diagnostics.
func (h Handle) String() string {
	if h.kind == NullHandle {
		return "handle(null)"
	}
	return fmt.Sprintf("handle(%s %s[%d] @%p)", h.kind, h.dtype, h.n, h.ptr)
}

func bufferHandle(kind HandleKind, b *Buffer) Handle {
	return Handle{kind: kind, ptr: b.Pointer(), dtype: b.dtype, n: b.n, buf: b}
}

// Resolver produces handles, materializing raw values through its converter.
type Resolver struct {
	conv *Converter
}

// NewResolver returns a resolver converting raw values with conv.
// A nil conv selects a converter over the shared default registry.
func NewResolver(conv *Converter) *Resolver {
	if conv == nil {
		conv = NewConverter(nil)
	}
	return &Resolver{conv: conv}
}

// HandleOf resolves in to a handle.
//
// A Slot yields a handle to a fresh zeroed one-element buffer. A *Buffer or
// Foreign value is addressed directly with no copy. Absent (or nil) yields
// Null. Any other Value is first converted to a new Buffer; the caller must
// keep that Buffer, reachable through Handle.Buffer, alive while the handle
// is in use.
func (r *Resolver) HandleOf(in Input, opts ...Option) (Handle, error) {
	switch v := in.(type) {
	case nil, absent:
		return Null, nil
	case slot:
		b, err := NewBuffer(v.dtype, 1)
		if err != nil {
			return Null, fmt.Errorf("handle of slot: %w", err)
		}
		return bufferHandle(SlotHandle, b), nil
	case *Buffer:
		if v == nil {
			return Null, fmt.Errorf("handle of nil buffer: %w", ErrUnsupportedType)
		}
		return bufferHandle(BufferHandle, v), nil
	case foreign:
		if !v.dtype.Valid() {
			return Null, fmt.Errorf("handle of foreign value: %v: %w", v.dtype, ErrInvalidType)
		}
		return Handle{kind: ForeignHandle, ptr: v.ptr, dtype: v.dtype, n: v.n, keep: v.keep}, nil
	case Value:
		b, err := r.conv.Convert(v, opts...)
		if err != nil {
			return Null, err
		}
		return bufferHandle(BufferHandle, b), nil
	default:
		return Null, fmt.Errorf("handle of %T: %w", in, ErrUnsupportedType)
	}
}

// HandleOf resolves in using the shared default registry.
func HandleOf(in Input, opts ...Option) (Handle, error) {
	return NewResolver(nil).HandleOf(in, opts...)
}
