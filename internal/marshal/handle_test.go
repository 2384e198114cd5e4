package marshal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamba-ml/mamba/internal/ctype"
)

func TestHandleOf_Absent(t *testing.T) {
	h, err := HandleOf(Absent)
	require.NoError(t, err)
	assert.True(t, h.IsNull())
	assert.Nil(t, h.Pointer())
	assert.Equal(t, NullHandle, h.Kind())

	h, err = HandleOf(nil)
	require.NoError(t, err)
	assert.True(t, h.IsNull())
	assert.Equal(t, "handle(null)", h.String())
}

func TestHandleOf_BufferIsNotCopied(t *testing.T) {
	buf, err := Convert(ListOf(int32(1), int32(2), int32(3)))
	require.NoError(t, err)

	h, err := HandleOf(buf)
	require.NoError(t, err)
	assert.Equal(t, BufferHandle, h.Kind())
	assert.Same(t, buf, h.Buffer())
	assert.Equal(t, buf.Pointer(), h.Pointer())
	assert.Equal(t, 3, h.Len())

	// Writing through the handle is visible to the owner.
	*(*int32)(h.Pointer()) = 42
	assert.Equal(t, []int32{42, 2, 3}, buf.AsInt32())
}

func TestHandleOf_Slot(t *testing.T) {
	h, err := HandleOf(Slot(ctype.Float64))
	require.NoError(t, err)
	assert.Equal(t, SlotHandle, h.Kind())
	assert.Equal(t, ctype.Float64, h.Descriptor())
	require.NotNil(t, h.Buffer())
	assert.Equal(t, []float64{0}, h.Buffer().AsFloat64())

	*(*float64)(h.Pointer()) = 3.5
	assert.Equal(t, 3.5, h.Buffer().Float64At(0))

	_, err = HandleOf(Slot(ctype.Descriptor{}))
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestHandleOf_ForeignSlice(t *testing.T) {
	xs := []float64{1, 2, 3}
	h, err := HandleOf(ForeignSlice(xs))
	require.NoError(t, err)
	assert.Equal(t, ForeignHandle, h.Kind())
	assert.Nil(t, h.Buffer())
	assert.Equal(t, ctype.Float64, h.Descriptor())
	assert.Equal(t, 3, h.Len())
	assert.NotNil(t, h.Referent())

	*(*float64)(h.Pointer()) = -1
	assert.Equal(t, -1.0, xs[0])
}

func TestHandleOf_ForeignPointer(t *testing.T) {
	var n int32 = 9
	h, err := HandleOf(Foreign(unsafePointer(&n), ctype.Int32, 1))
	require.NoError(t, err)
	assert.Equal(t, ForeignHandle, h.Kind())
	assert.Equal(t, unsafePointer(&n), h.Pointer())

	_, err = HandleOf(Foreign(unsafePointer(&n), ctype.Descriptor{}, 1))
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestHandleOf_RawValues(t *testing.T) {
	h, err := HandleOf(ScalarOf(0))
	require.NoError(t, err)
	assert.Equal(t, BufferHandle, h.Kind())
	assert.Equal(t, ctype.Int32, h.Descriptor())

	h, err = HandleOf(ListOf(1.0, 2.0))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, h.Buffer().AsFloat64())

	h, err = HandleOf(ArrayOf([]float64{1.5}), WithType(ctype.Float32))
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5}, h.Buffer().AsFloat32())
}

func TestHandleOf_PropagatesConverterErrors(t *testing.T) {
	_, err := HandleOf(List{ScalarOf(1), ScalarOf(2.0)})
	assert.ErrorIs(t, err, ErrAmbiguousType)

	var nilBuf *Buffer
	_, err = HandleOf(nilBuf)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestResolver_UsesConverterRegistry(t *testing.T) {
	reg, err := ctype.NewRegistryFrom(map[ctype.Kind]ctype.Descriptor{ctype.DefaultInt: ctype.Int8})
	require.NoError(t, err)
	r := NewResolver(NewConverter(reg))

	h, err := r.HandleOf(ScalarOf(5))
	require.NoError(t, err)
	assert.Equal(t, ctype.Int8, h.Descriptor())
}

func TestHandleKind_String(t *testing.T) {
	assert.Equal(t, "slot", SlotHandle.String())
	assert.Equal(t, "unknown", HandleKind(99).String())
}
