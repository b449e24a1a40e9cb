package nativefunc

import (
	"context"
	"fmt"
	"reflect"

	"github.com/corewasm/corewasm/internal/wasm"
)

// HostFunc is what WrapHostFunc produces: the Wasm-visible signature of a
// wrapped Go function, plus the flat-stack entry point the engine actually
// calls. This is the counterpart of Caller above: BindCaller lets Go call
// Wasm, WrapHostFunc lets Wasm call Go.
type HostFunc struct {
	Type   wasm.FuncType
	Invoke func(ctx context.Context, args []uint64) ([]uint64, error)
}

// WrapHostFunc reflects on goFunc (any Go func whose parameters and, if
// present, lone non-error result are int32/int64/uint32/uint64/float32/
// float64, optionally prefixed with a context.Context parameter) and
// produces the HostFunc an import resolver needs. Invoke does not recover
// panics from goFunc: when goFunc runs under a Wasm call, a panic carrying
// a *wasmerrors.RuntimeError (as corewasm.Raise produces) is recovered by
// internal/exec.Run, and any other panic propagates unchanged.
func WrapHostFunc(goFunc interface{}) (*HostFunc, error) {
	v := reflect.ValueOf(goFunc)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("nativefunc: WrapHostFunc: expected a function, got %s", v.Kind())
	}
	t := v.Type()

	kind, hasErrorResult, err := inspectSignature(t)
	if err != nil {
		return nil, err
	}

	paramOffset := 0
	if kind == kindContext {
		paramOffset = 1
	}

	params := make([]wasm.ValueType, 0, t.NumIn()-paramOffset)
	for i := paramOffset; i < t.NumIn(); i++ {
		vt, err := valueTypeOf(t.In(i).Kind())
		if err != nil {
			return nil, err
		}
		params = append(params, vt)
	}

	numOut := t.NumOut()
	if hasErrorResult {
		numOut--
	}
	var results []wasm.ValueType
	if numOut == 1 {
		vt, err := valueTypeOf(t.Out(0).Kind())
		if err != nil {
			return nil, err
		}
		results = []wasm.ValueType{vt}
	}

	hf := &HostFunc{Type: wasm.FuncType{Params: params, Results: results}}
	hf.Invoke = func(ctx context.Context, args []uint64) ([]uint64, error) {
		in := make([]reflect.Value, 0, len(args)+paramOffset)
		if kind == kindContext {
			in = append(in, reflect.ValueOf(ctx))
		}
		for i, raw := range args {
			in = append(in, decodeValue(t.In(i+paramOffset).Kind(), raw))
		}

		out := v.Call(in)

		if hasErrorResult {
			if errVal := out[len(out)-1]; !errVal.IsNil() {
				return nil, errVal.Interface().(error)
			}
			out = out[:len(out)-1]
		}
		if len(out) == 0 {
			return nil, nil
		}
		return []uint64{encodeValue(out[0])}, nil
	}
	return hf, nil
}

func valueTypeOf(k reflect.Kind) (wasm.ValueType, error) {
	switch k {
	case reflect.Int32, reflect.Uint32:
		return wasm.ValueTypeI32, nil
	case reflect.Int64, reflect.Uint64:
		return wasm.ValueTypeI64, nil
	case reflect.Float32:
		return wasm.ValueTypeF32, nil
	case reflect.Float64:
		return wasm.ValueTypeF64, nil
	default:
		return 0, fmt.Errorf("nativefunc: unsupported Go kind %s", k)
	}
}
