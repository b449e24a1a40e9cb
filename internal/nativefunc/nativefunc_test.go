package nativefunc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/nativefunc"
	"github.com/corewasm/corewasm/internal/wasm"
)

func TestEncodeDecodeFloatRoundtrip(t *testing.T) {
	assert.Equal(t, float32(3.5), nativefunc.DecodeF32(nativefunc.EncodeF32(3.5)))
	assert.Equal(t, float64(-2.25), nativefunc.DecodeF64(nativefunc.EncodeF64(-2.25)))
}

func TestWrapHostFunc_PlainSignature(t *testing.T) {
	hf, err := nativefunc.WrapHostFunc(func(a, b int32) int32 { return a + b })
	require.NoError(t, err)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, hf.Type.Params)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, hf.Type.Results)

	results, err := hf.Invoke(context.Background(), []uint64{2, 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint64(7), results[0])
}

func TestWrapHostFunc_ContextAndErrorResult(t *testing.T) {
	wantErr := errors.New("boom")
	hf, err := nativefunc.WrapHostFunc(func(ctx context.Context, a int32) (int32, error) {
		if a == 0 {
			return 0, wantErr
		}
		return a * 2, nil
	})
	require.NoError(t, err)

	results, err := hf.Invoke(context.Background(), []uint64{21})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), results[0])

	_, err = hf.Invoke(context.Background(), []uint64{0})
	assert.Equal(t, wantErr, err)
}

func TestWrapHostFunc_RejectsUnsupportedKind(t *testing.T) {
	_, err := nativefunc.WrapHostFunc(func(s string) int32 { return 0 })
	assert.Error(t, err)
}

func TestWrapHostFunc_RejectsNonFunc(t *testing.T) {
	_, err := nativefunc.WrapHostFunc(42)
	assert.Error(t, err)
}

type fakeCaller struct {
	gotArgs []uint64
	results []uint64
	err     error
}

func (f *fakeCaller) Call(ctx context.Context, args []uint64) ([]uint64, error) {
	f.gotArgs = args
	return f.results, f.err
}

func TestBindCaller_PlainSignature(t *testing.T) {
	caller := &fakeCaller{results: []uint64{99}}
	var add func(int32, int32) int32
	require.NoError(t, nativefunc.BindCaller(caller, &add))

	got := add(3, 4)
	assert.Equal(t, int32(99), got)
	assert.Equal(t, []uint64{3, 4}, caller.gotArgs)
}

func TestBindCaller_ErrorResultPropagates(t *testing.T) {
	wantErr := errors.New("trap")
	caller := &fakeCaller{err: wantErr}
	var call func(int32) (int32, error)
	require.NoError(t, nativefunc.BindCaller(caller, &call))

	_, err := call(1)
	assert.Equal(t, wantErr, err)
}

func TestBindCaller_PanicsWithoutErrorResult(t *testing.T) {
	caller := &fakeCaller{err: errors.New("trap")}
	var call func(int32) int32
	require.NoError(t, nativefunc.BindCaller(caller, &call))

	assert.Panics(t, func() { call(1) })
}

func TestBindCaller_RejectsNonFuncPointer(t *testing.T) {
	var notAFunc int
	err := nativefunc.BindCaller(&fakeCaller{}, &notAFunc)
	assert.Error(t, err)
}
