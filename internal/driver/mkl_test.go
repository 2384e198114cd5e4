package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamba-ml/mamba/internal/ctype"
	"github.com/mamba-ml/mamba/internal/marshal"
	"github.com/mamba-ml/mamba/internal/sparse"
)

// fakeLib stands in for the routine library: each routine reads and writes
// through the handles it receives, as the real one would.
type fakeLib struct {
	calls    []string
	routines map[string]func(args []marshal.Handle) error
}

func (f *fakeLib) Call(routine string, args ...marshal.Handle) error {
	f.calls = append(f.calls, routine)
	fn, ok := f.routines[routine]
	if !ok {
		return &ForeignCallError{Routine: routine, Err: errors.New("undefined symbol")}
	}
	return fn(args)
}

func int32At(h marshal.Handle) int32 {
	return *(*int32)(h.Pointer())
}

func newFakeMKL(t *testing.T, rci, ierr int32) *fakeLib {
	t.Helper()
	return &fakeLib{routines: map[string]func([]marshal.Handle) error{
		routineGMRESInit: func(args []marshal.Handle) error {
			require.Len(t, args, 7)
			n := int(int32At(args[0]))
			want, err := ScratchLength(n)
			require.NoError(t, err)
			assert.Equal(t, n, args[1].Len())
			assert.Equal(t, n, args[2].Len())
			assert.Equal(t, ParamLength, args[4].Len())
			assert.Equal(t, ParamLength, args[5].Len())
			assert.Equal(t, want, args[6].Len())

			args[4].Buffer().AsInt32()[0] = int32(n)
			args[5].Buffer().AsFloat64()[0] = 1e-6
			args[3].Buffer().AsInt32()[0] = rci
			return nil
		},
		routineILU0: func(args []marshal.Handle) error {
			require.Len(t, args, 8)
			n := int(int32At(args[0]))
			ia := args[2].Buffer().AsInt32()
			ja := args[3].Buffer().AsInt32()
			assert.Len(t, ia, n+1)
			assert.Equal(t, int32(1), ia[0], "row pointers must be one-based")
			for _, j := range ja {
				assert.GreaterOrEqual(t, j, int32(1))
			}

			a := args[1].Buffer().AsFloat64()
			out := args[4].Buffer().AsFloat64()
			for i := range a {
				out[i] = a[i] / 2
			}
			args[7].Buffer().AsInt32()[0] = ierr
			return nil
		},
	}}
}

func diagonalAdapter(t *testing.T) *sparse.Adapter {
	t.Helper()
	a, err := sparse.FromRaw([]float64{10, 20, 30}, []int{1, 2, 3}, []int{1, 2, 3, 4})
	require.NoError(t, err)
	return a
}

func TestScratchLength(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1, 3*1 + 5 + 1},
		{10, 306},
		{150, 301*150 + 150*159/2 + 1},
		{1000, 301*1000 + 150*159/2 + 1},
	}
	for _, tt := range tests {
		got, err := ScratchLength(tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)
	}

	_, err := ScratchLength(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = ScratchLength(-3)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestNewParams(t *testing.T) {
	p, err := NewParams()
	require.NoError(t, err)
	assert.Equal(t, ctype.Int32, p.IPar.Descriptor())
	assert.Equal(t, ctype.Float64, p.DPar.Descriptor())
	assert.Equal(t, ParamLength, p.IPar.Len())
	assert.Equal(t, ParamLength, p.DPar.Len())
}

func TestParams_Validate(t *testing.T) {
	p, err := NewParams()
	require.NoError(t, err)
	assert.NoError(t, p.Validate())

	p.IPar, err = marshal.NewBuffer(ctype.Int64, ParamLength)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Validate(), marshal.ErrInvalidType)
}

func TestGMRESInit(t *testing.T) {
	lib := newFakeMKL(t, 0, 0)
	d := NewMKL(lib, zap.NewNop())

	p, err := d.GMRESInit(10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), p.IPar.AsInt32()[0])
	assert.Equal(t, 1e-6, p.DPar.AsFloat64()[0])
	assert.Equal(t, []string{routineGMRESInit}, lib.calls)
}

func TestGMRESInit_Errors(t *testing.T) {
	d := NewMKL(newFakeMKL(t, 0, 0), nil)

	_, err := d.GMRESInit(0, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = d.GMRESInit(3, []float64{1}, nil)
	assert.ErrorIs(t, err, sparse.ErrDimensionMismatch)
}

func TestGMRESInit_NonzeroStatus(t *testing.T) {
	d := NewMKL(newFakeMKL(t, -10000, 0), nil)

	_, err := d.GMRESInit(4, nil, nil)
	require.ErrorIs(t, err, ErrForeignCall)
	var fce *ForeignCallError
	require.ErrorAs(t, err, &fce)
	assert.Equal(t, routineGMRESInit, fce.Routine)
	assert.Equal(t, -10000, fce.Code)
}

func TestILU(t *testing.T) {
	lib := newFakeMKL(t, 0, 0)
	d := NewMKL(lib, nil)
	m := diagonalAdapter(t)

	l, err := d.ILU(m, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{routineGMRESInit, routineILU0}, lib.calls)

	assert.Equal(t, []float64{5, 10, 15}, l.Values())
	assert.Equal(t, m.NativeRowPointers(), l.NativeRowPointers())
	assert.Equal(t, m.NativeColumnIndices(), l.NativeColumnIndices())
	assert.Equal(t, []float64{10, 20, 30}, m.Values())
}

func TestILU_WithParams(t *testing.T) {
	lib := newFakeMKL(t, 0, 0)
	d := NewMKL(lib, nil)

	p, err := NewParams()
	require.NoError(t, err)
	_, err = d.ILU(diagonalAdapter(t), p)
	require.NoError(t, err)
	assert.Equal(t, []string{routineILU0}, lib.calls)
}

func TestILU_Errors(t *testing.T) {
	d := NewMKL(newFakeMKL(t, 0, -101), nil)

	_, err := d.ILU(diagonalAdapter(t), nil)
	var fce *ForeignCallError
	require.ErrorAs(t, err, &fce)
	assert.Equal(t, routineILU0, fce.Routine)
	assert.Equal(t, -101, fce.Code)

	zeroBased, err := sparse.FromRaw([]float64{1}, []int{0}, []int{0, 1}, sparse.WithOffset(0))
	require.NoError(t, err)
	_, err = d.ILU(zeroBased, nil)
	assert.ErrorIs(t, err, ErrOffset)

	_, err = d.ILU(nil, nil)
	assert.Error(t, err)
}

func TestILU_RejectsMalformedParams(t *testing.T) {
	short, err := marshal.NewBuffer(ctype.Int32, 1)
	require.NoError(t, err)
	narrow, err := marshal.NewBuffer(ctype.Float32, ParamLength)
	require.NoError(t, err)
	good, err := NewParams()
	require.NoError(t, err)

	tests := []struct {
		name    string
		params  *Params
		wantErr error
	}{
		{"short ipar", &Params{IPar: short, DPar: good.DPar}, sparse.ErrDimensionMismatch},
		{"single precision dpar", &Params{IPar: good.IPar, DPar: narrow}, marshal.ErrInvalidType},
		{"missing dpar", &Params{IPar: good.IPar}, sparse.ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := newFakeMKL(t, 0, 0)
			_, err := NewMKL(lib, nil).ILU(diagonalAdapter(t), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, lib.calls, "no routine may see malformed parameters")
		})
	}
}

func TestILU_PropagatesCallFailure(t *testing.T) {
	callErr := &ForeignCallError{Routine: routineILU0, Err: errors.New("undefined symbol")}
	lib := &fakeLib{routines: map[string]func([]marshal.Handle) error{
		routineILU0: func([]marshal.Handle) error { return callErr },
	}}
	d := NewMKL(lib, nil)

	p, err := NewParams()
	require.NoError(t, err)
	_, err = d.ILU(diagonalAdapter(t), p)
	assert.Same(t, callErr, err)
}

func TestUnimplemented(t *testing.T) {
	d := NewMKL(&fakeLib{}, nil)
	m := diagonalAdapter(t)

	_, err := d.IChol(m)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.Contains(t, err.Error(), "MKL")

	_, err = d.BiCG(m, nil)
	assert.ErrorIs(t, err, ErrNotImplemented)

	_, err = d.PCG(m, nil)
	assert.ErrorIs(t, err, ErrNotImplemented)

	var base Solver = Unimplemented{Driver: "Reference"}
	_, err = base.ILU(m, nil)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestMKL_CloseWithoutLibrary(t *testing.T) {
	assert.NoError(t, NewMKL(&fakeLib{}, nil).Close())
}
