// Package instance implements the Artifact instantiation protocol:
// resolving imports, allocating runtime state via Tunables, registering
// frame info, and driving a ModuleTranslation + Compilation into a live
// InstanceHandle.
//
// Grounded on wasmer's lib/engine Artifact trait (preinstantiate /
// resolve_imports / create memories-tables-globals / register_frame_info
// / InstanceHandle::new / finish_instantiation, in exactly that order)
// and wasmer's lib/compiler/src/vm.rs for the shape of the
// import/definition records each VMOffsets field addresses.
package instance

import (
	"context"
	"fmt"

	"github.com/corewasm/corewasm/internal/exec"
	"github.com/corewasm/corewasm/internal/wasm"
)

// FuncExtern is a resolved function import or export: its signature and the
// flat-stack entry point that runs it (an interpreted Wasm function or a
// host function wrapped by internal/nativefunc).
type FuncExtern struct {
	Type wasm.FuncType
	Call func(ctx context.Context, args []uint64) ([]uint64, error)
}

// GlobalExtern is a resolved global import or export.
type GlobalExtern struct {
	Type wasm.GlobalType
	Get  func() uint64
	Set  func(uint64)
}

// Extern is the tagged union a Resolver hands back for one (module, field)
// lookup: exactly one of Func/Table/Memory/Global is set, per Kind.
type Extern struct {
	Kind   wasm.ExternKind
	Func   *FuncExtern
	Table  *exec.Table
	Memory *exec.Memory
	Global *GlobalExtern
}

// Resolver maps (module, field) to a concrete imported extern. Returning
// ok == false means "no such import"; instantiation turns that into
// LinkErrorImport.
type Resolver interface {
	Resolve(module, field string) (*Extern, bool)
}

// ImportObject is the default Resolver: a two-level map from module name to
// field name to Extern, matching wasmer-rust's `imports! { "mod" => {
// "field" => extern, ... }, ... }` construction helper.
type ImportObject struct {
	modules map[string]map[string]*Extern
}

// NewImportObject returns an empty ImportObject ready for Register calls.
func NewImportObject() *ImportObject {
	return &ImportObject{modules: map[string]map[string]*Extern{}}
}

// Register adds one import under (module, field), overwriting any existing
// entry at that key.
func (io *ImportObject) Register(module, field string, e *Extern) {
	m, ok := io.modules[module]
	if !ok {
		m = map[string]*Extern{}
		io.modules[module] = m
	}
	m[field] = e
}

// Resolve implements Resolver.
func (io *ImportObject) Resolve(module, field string) (*Extern, bool) {
	m, ok := io.modules[module]
	if !ok {
		return nil, false
	}
	e, ok := m[field]
	return e, ok
}

// externTypeMatches reports whether a resolved Extern satisfies a module's
// declared import type. A mismatch or missing symbol becomes
// InstantiationError{Link: LinkError{...}}.
func externTypeMatches(want wasm.ExternType, got *Extern) error {
	switch want.Kind {
	case wasm.ExternKindFunc:
		if got.Kind != wasm.ExternKindFunc {
			return fmt.Errorf("expected a func, got kind %d", got.Kind)
		}
	case wasm.ExternKindTable:
		if got.Kind != wasm.ExternKindTable {
			return fmt.Errorf("expected a table, got kind %d", got.Kind)
		}
	case wasm.ExternKindMemory:
		if got.Kind != wasm.ExternKindMemory {
			return fmt.Errorf("expected a memory, got kind %d", got.Kind)
		}
	case wasm.ExternKindGlobal:
		if got.Kind != wasm.ExternKindGlobal {
			return fmt.Errorf("expected a global, got kind %d", got.Kind)
		}
		if got.Global.Type.ValType != want.Global.ValType || got.Global.Type.Mutable != want.Global.Mutable {
			return fmt.Errorf("global type mismatch: want %v/%v got %v/%v",
				want.Global.ValType, want.Global.Mutable, got.Global.Type.ValType, got.Global.Type.Mutable)
		}
	}
	return nil
}
