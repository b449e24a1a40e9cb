// Package nativefunc implements the two reflect-based bridges the
// embedder API needs between Go function values and Wasm's flat []uint64
// calling convention: BindCaller makes a Go function value that calls
// into a Wasm export, and WrapHostFunc goes the other way, turning a
// plain Go function into something callable from Wasm (mirroring
// wasmer-rust's Function::new_native).
//
// Adapted from wazero's internal/makefunc.MakeWasmFunc: same
// reflect.MakeFunc technique, generalized from wazero's ModuleContext-aware
// three-way FunctionKind switch down to the two shapes this engine's
// Caller abstraction needs (plain, and context.Context-prefixed).
package nativefunc

import (
	"context"
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()
var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Caller is the minimal surface BindCaller needs from whatever owns the
// Wasm function being called: take the flat uint64 argument stack, return
// the flat uint64 result stack or an error (a *wasmerrors.RuntimeError on
// trap, surfaced unchanged).
type Caller interface {
	Call(ctx context.Context, args []uint64) ([]uint64, error)
}

// funcKind classifies the Go function signature a BindCaller/WrapHostFunc
// caller supplied, mirroring wazero's FunctionKind.
type funcKind byte

const (
	kindPlain funcKind = iota
	kindContext
)

// BindCaller points goFuncPtr (expected to be a pointer to a nil function
// value, e.g. `var add func(int32, int32) int32; BindCaller(caller, &add)`)
// at a reflect.MakeFunc shim that forwards every call to caller, encoding
// Go arguments to Wasm's flat uint64 representation and decoding results
// back. This is what corewasm.GetNativeFunction uses under the hood.
func BindCaller(caller Caller, goFuncPtr interface{}) error {
	fn := reflect.ValueOf(goFuncPtr).Elem()
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("nativefunc: BindCaller: goFuncPtr must point to a function, got %s", fn.Kind())
	}

	kind, hasErrorResult, err := inspectSignature(fn.Type())
	if err != nil {
		return err
	}

	cf := &callerFunc{
		caller:               caller,
		kind:                 kind,
		goFuncHasErrorResult: hasErrorResult,
	}
	numOut := fn.Type().NumOut()
	if hasErrorResult {
		numOut--
	}
	cf.goFuncResultCount = uint32(numOut)
	if hasErrorResult {
		cf.goFuncResultCount++
	}
	if numOut == 1 {
		cf.goFuncResultKind = fn.Type().Out(0).Kind()
	}

	v := reflect.MakeFunc(fn.Type(), cf.invoke)
	fn.Set(v)
	return nil
}

// inspectSignature validates that t is callable against Wasm's flat
// uint64/float32/float64 vocabulary and reports whether its final result is
// an error.
func inspectSignature(t reflect.Type) (kind funcKind, hasErrorResult bool, err error) {
	paramOffset := 0
	if t.NumIn() > 0 && t.In(0) == ctxType {
		kind = kindContext
		paramOffset = 1
	}

	for i := paramOffset; i < t.NumIn(); i++ {
		if !isWasmValueKind(t.In(i).Kind()) {
			return 0, false, fmt.Errorf("nativefunc: param %d has unsupported kind %s", i, t.In(i).Kind())
		}
	}

	numOut := t.NumOut()
	if numOut > 0 && t.Out(numOut-1) == errorType {
		hasErrorResult = true
		numOut--
	}
	if numOut > 1 {
		return 0, false, fmt.Errorf("nativefunc: multi-value Go results are not supported, got %d", numOut)
	}
	if numOut == 1 && !isWasmValueKind(t.Out(0).Kind()) {
		return 0, false, fmt.Errorf("nativefunc: result has unsupported kind %s", t.Out(0).Kind())
	}
	return kind, hasErrorResult, nil
}

func isWasmValueKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int32, reflect.Int64, reflect.Uint32, reflect.Uint64, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

type callerFunc struct {
	caller               Caller
	kind                 funcKind
	goFuncResultKind     reflect.Kind
	goFuncResultCount    uint32
	goFuncHasErrorResult bool
}

func (f *callerFunc) invoke(args []reflect.Value) (results []reflect.Value) {
	ctx := context.Background()
	paramOffset := 0
	if f.kind == kindContext {
		ctx = args[0].Interface().(context.Context)
		paramOffset = 1
	}

	wasmParams := make([]uint64, len(args)-paramOffset)
	for i := range wasmParams {
		wasmParams[i] = encodeValue(args[i+paramOffset])
	}

	wasmResults, err := f.caller.Call(ctx, wasmParams)
	if err != nil {
		return f.error(err)
	}

	results = make([]reflect.Value, f.goFuncResultCount)
	if f.goFuncHasErrorResult {
		results[f.goFuncResultCount-1] = reflect.Zero(errorType)
	}
	if f.goFuncResultKind == 0 {
		return
	}
	results[0] = decodeValue(f.goFuncResultKind, wasmResults[0])
	return
}

func (f *callerFunc) error(err error) []reflect.Value {
	if !f.goFuncHasErrorResult {
		panic(err)
	}
	reflectErr := reflect.ValueOf(err)
	if f.goFuncResultKind != 0 {
		return []reflect.Value{decodeValue(f.goFuncResultKind, 0), reflectErr}
	}
	return []reflect.Value{reflectErr}
}

func encodeValue(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Float32:
		return EncodeF32(float32(v.Float()))
	case reflect.Float64:
		return EncodeF64(v.Float())
	case reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	default:
		panic(fmt.Errorf("nativefunc: BUG: unencodable kind %s", v.Kind()))
	}
}

func decodeValue(kind reflect.Kind, raw uint64) reflect.Value {
	switch kind {
	case reflect.Float32:
		return reflect.ValueOf(DecodeF32(raw))
	case reflect.Float64:
		return reflect.ValueOf(DecodeF64(raw))
	case reflect.Uint32:
		return reflect.ValueOf(uint32(raw))
	case reflect.Uint64:
		return reflect.ValueOf(raw)
	case reflect.Int32:
		return reflect.ValueOf(int32(raw))
	case reflect.Int64:
		return reflect.ValueOf(int64(raw))
	default:
		panic(fmt.Errorf("nativefunc: BUG: undecodable kind %s", kind))
	}
}
