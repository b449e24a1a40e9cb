package corewasm

import (
	"context"
	"fmt"
	"reflect"

	"github.com/corewasm/corewasm/internal/instance"
	"github.com/corewasm/corewasm/internal/nativefunc"
	"github.com/corewasm/corewasm/internal/wasm"
)

// Function is a host function ready to be registered as a Wasm import,
// matching `Function::new_native(&store, fn_ptr) → Function`. Its Go
// signature is reflected into a wasm.FuncType by internal/nativefunc:
// parameters and its lone non-error result must be
// int32/int64/uint32/uint64/float32/float64, optionally prefixed with a
// context.Context parameter.
type Function struct {
	hostFunc *nativefunc.HostFunc
}

// NewFunction wraps goFunc with no environment, matching
// `Function::new_native(&store, fn_ptr) → Function`.
func NewFunction(goFunc interface{}) (*Function, error) {
	hf, err := nativefunc.WrapHostFunc(goFunc)
	if err != nil {
		return nil, err
	}
	return &Function{hostFunc: hf}, nil
}

// NewFunctionEnv curries env into goFunc's first parameter before wrapping
// it, matching wasmer-rust's `Function::new_native_env(&store, &mut env,
// fn_ptr) → Function`. Go closures already capture their environment, so
// this exists only to mirror that naming; an ordinary closure passed to
// NewFunction does the same job.
func NewFunctionEnv[Env any](env Env, goFunc interface{}) (*Function, error) {
	v := reflect.ValueOf(goFunc)
	t := v.Type()
	envType := reflect.TypeOf(env)
	if t.NumIn() == 0 || t.In(0) != envType {
		return nil, fmt.Errorf("corewasm: NewFunctionEnv: goFunc's first parameter must be %s, got %s", envType, t)
	}

	ins := make([]reflect.Type, t.NumIn()-1)
	for i := range ins {
		ins[i] = t.In(i + 1)
	}
	outs := make([]reflect.Type, t.NumOut())
	for i := range outs {
		outs[i] = t.Out(i)
	}
	curriedType := reflect.FuncOf(ins, outs, t.IsVariadic())
	envVal := reflect.ValueOf(env)
	curried := reflect.MakeFunc(curriedType, func(args []reflect.Value) []reflect.Value {
		return v.Call(append([]reflect.Value{envVal}, args...))
	})
	return NewFunction(curried.Interface())
}

func (f *Function) toExtern() *instance.Extern {
	return &instance.Extern{
		Kind: wasm.ExternKindFunc,
		Func: &instance.FuncExtern{Type: f.hostFunc.Type, Call: f.hostFunc.Invoke},
	}
}

// funcExternCaller adapts an *instance.FuncExtern (the engine's internal
// calling convention) to nativefunc.Caller, so GetNativeFunction can reuse
// BindCaller's reflect.MakeFunc trampoline instead of writing its own.
type funcExternCaller struct{ ext *instance.FuncExtern }

func (c funcExternCaller) Call(ctx context.Context, args []uint64) ([]uint64, error) {
	return c.ext.Call(ctx, args)
}

// ExportError reports a failed export lookup: no export of that name, or
// one of the wrong kind.
type ExportError struct {
	Name   string
	Reason string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("corewasm: export %q: %s", e.Name, e.Reason)
}

// GetNativeFunction looks up name in inst's exports and binds it to F, a
// concrete Go function type matching the export's Wasm signature — the Go
// analogue of `instance.exports.get_native_function::<Args, Rets>(name)`.
// F's parameters/result follow the same rules as NewFunction's goFunc.
//
//	add, err := corewasm.GetNativeFunction[func(int32, int32) int32](inst, "add")
func GetNativeFunction[F any](inst *Instance, name string) (F, error) {
	var fn F
	ext, ok := inst.handle.GetExport(name)
	if !ok {
		return fn, &ExportError{Name: name, Reason: "no such export"}
	}
	if ext.Kind != wasm.ExternKindFunc {
		return fn, &ExportError{Name: name, Reason: "export is not a function"}
	}
	if err := nativefunc.BindCaller(funcExternCaller{ext.Func}, &fn); err != nil {
		return fn, err
	}
	return fn, nil
}
