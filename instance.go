package corewasm

import (
	"context"

	"github.com/corewasm/corewasm/internal/instance"
	"github.com/corewasm/corewasm/internal/wasm"
)

// Instance is one running copy of a Module, with its own memories, tables
// and globals. Instances are not Sync — each instance is bound to the
// thread that currently owns it. Nothing in this type is internally
// synchronized; a caller sharing an *Instance across goroutines must
// provide its own locking.
type Instance struct {
	handle *instance.InstanceHandle
}

// GetFunction looks up a function export by name without binding it to a
// concrete Go signature, returning an *ExportedFunction called via ctx/args.
func (i *Instance) GetFunction(name string) (*ExportedFunction, error) {
	ext, ok := i.handle.GetExport(name)
	if !ok {
		return nil, &ExportError{Name: name, Reason: "no such export"}
	}
	if ext.Kind != wasm.ExternKindFunc {
		return nil, &ExportError{Name: name, Reason: "export is not a function"}
	}
	return &ExportedFunction{ext: ext.Func}, nil
}

// GetMemory looks up a memory export by name.
func (i *Instance) GetMemory(name string) (*Memory, error) {
	ext, ok := i.handle.GetExport(name)
	if !ok {
		return nil, &ExportError{Name: name, Reason: "no such export"}
	}
	if ext.Kind != wasm.ExternKindMemory {
		return nil, &ExportError{Name: name, Reason: "export is not a memory"}
	}
	return &Memory{mem: ext.Memory}, nil
}

// GetGlobal looks up a global export by name.
func (i *Instance) GetGlobal(name string) (*Global, error) {
	ext, ok := i.handle.GetExport(name)
	if !ok {
		return nil, &ExportError{Name: name, Reason: "no such export"}
	}
	if ext.Kind != wasm.ExternKindGlobal {
		return nil, &ExportError{Name: name, Reason: "export is not a global"}
	}
	return &Global{global: ext.Global}, nil
}

// GetTable looks up a table export by name.
func (i *Instance) GetTable(name string) (*Table, error) {
	ext, ok := i.handle.GetExport(name)
	if !ok {
		return nil, &ExportError{Name: name, Reason: "no such export"}
	}
	if ext.Kind != wasm.ExternKindTable {
		return nil, &ExportError{Name: name, Reason: "export is not a table"}
	}
	return &Table{table: ext.Table}, nil
}

// ExportedFunction is an exported function reached by name rather than by
// binding GetNativeFunction's concrete Go signature — useful for `corewasm
// run`'s CLI path, which only learns the function name at runtime.
type ExportedFunction struct {
	ext *instance.FuncExtern
}

// Type returns the function's Wasm signature.
func (f *ExportedFunction) Type() wasm.FuncType { return f.ext.Type }

// Call invokes the function with its flat []uint64 argument encoding,
// matching `NativeFunc::call(args…) → Result<Rets, RuntimeError>` at the
// untyped granularity the CLI needs; typed callers should prefer
// GetNativeFunction.
func (f *ExportedFunction) Call(ctx context.Context, args []uint64) ([]uint64, error) {
	return f.ext.Call(ctx, args)
}
