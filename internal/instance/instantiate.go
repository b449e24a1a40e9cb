package instance

import (
	"context"
	"fmt"
	"math"

	"github.com/corewasm/corewasm/internal/exec"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
)

// Instantiate runs the instantiation protocol against artifact, resolving
// its imports through resolver: preinstantiate, resolve imports, create
// memories, create tables, create globals, register frame info, build
// the InstanceHandle, then finish instantiation (active segment
// initializers, then the start function). Every step after preinstantiate
// runs in that exact order, matching wasmer's Artifact::instantiate.
func Instantiate(ctx context.Context, artifact *Artifact, resolver Resolver) (*InstanceHandle, error) {
	if err := preinstantiate(artifact); err != nil {
		return nil, err
	}

	importedFuncs, importedTables, importedMemories, importedGlobals, err := resolveImports(artifact.Module, resolver)
	if err != nil {
		return nil, err
	}

	definedMemories := createMemories(artifact)
	definedTables := createTables(artifact)
	_, combinedGlobals := createGlobals(artifact.Module, importedGlobals)

	artifact.registerFrameInfo()

	h := &InstanceHandle{artifact: artifact}
	h.tables = append(append([]*exec.Table{}, importedTables...), definedTables...)
	h.memories = append(append([]*exec.Memory{}, importedMemories...), definedMemories...)
	h.globals = combinedGlobals
	h.funcs = buildFuncs(h, artifact, importedFuncs)
	h.exports = buildExports(artifact.Module, h)

	Logger.WithField("module", artifact.Module.Name).Debug("instance handle built, running initializers")

	if err := h.initializeElements(artifact); err != nil {
		return nil, err
	}
	if err := h.initializeData(artifact); err != nil {
		return nil, err
	}
	if artifact.Module.StartFunc != nil {
		if _, err := h.Invoke(ctx, *artifact.Module.StartFunc, nil); err != nil {
			return nil, wasmerrors.NewInstantiationStartError(toRuntimeError(err))
		}
	}

	return h, nil
}

func toRuntimeError(err error) *wasmerrors.RuntimeError {
	if rt, ok := err.(*wasmerrors.RuntimeError); ok {
		return rt
	}
	return wasmerrors.FromUserPayload(err)
}

// preinstantiate checks the invariant the rest of this file relies on:
// exactly one compiled function per defined function. A violation here is
// an Artifact/Module construction bug, not a recoverable runtime
// condition.
func preinstantiate(artifact *Artifact) error {
	defined := artifact.Module.Funcs.Len() - artifact.Module.NumImportedFuncs
	if len(artifact.Compiled) != defined {
		return fmt.Errorf("instance: BUG: artifact has %d compiled functions, module declares %d defined", len(artifact.Compiled), defined)
	}
	return nil
}

// resolveImports looks up every declared
// import through resolver, in declaration order, checking type and (for
// functions) signature compatibility. Any failure is reported as an
// InstantiationError in the Link stage.
func resolveImports(module *wasm.ModuleInfo, resolver Resolver) (funcs []*FuncExtern, tables []*exec.Table, memories []*exec.Memory, globals []*GlobalExtern, err error) {
	for _, imp := range module.Imports {
		ext, ok := resolver.Resolve(imp.Module, imp.Field)
		if !ok {
			return nil, nil, nil, nil, wasmerrors.NewInstantiationLinkError(
				wasmerrors.NewLinkError(wasmerrors.LinkErrorImport, nil, "no import supplied for %s.%s", imp.Module, imp.Field))
		}
		if matchErr := externTypeMatches(imp.Type, ext); matchErr != nil {
			return nil, nil, nil, nil, wasmerrors.NewInstantiationLinkError(
				wasmerrors.NewLinkError(wasmerrors.LinkErrorImport, matchErr, "%s.%s", imp.Module, imp.Field))
		}

		switch imp.Type.Kind {
		case wasm.ExternKindFunc:
			want := module.Types.Get(imp.Type.Func).Type
			if !want.Equals(&ext.Func.Type) {
				return nil, nil, nil, nil, wasmerrors.NewInstantiationLinkError(
					wasmerrors.NewLinkError(wasmerrors.LinkErrorSignature, nil, "%s.%s: signature mismatch", imp.Module, imp.Field))
			}
			funcs = append(funcs, ext.Func)
		case wasm.ExternKindTable:
			tables = append(tables, ext.Table)
		case wasm.ExternKindMemory:
			memories = append(memories, ext.Memory)
		case wasm.ExternKindGlobal:
			globals = append(globals, ext.Global)
		}
	}
	return funcs, tables, memories, globals, nil
}

// createMemories allocates defined (non-imported) memories. The reference interpreter addresses linear memory as a plain
// Go byte slice rather than a guarded mmap reservation, so
// Artifact.MemoryStyles only informs a diagnostic here; it still governs
// what a real codegen backend's CreateMemories would reserve up front.
func createMemories(artifact *Artifact) []*exec.Memory {
	module := artifact.Module
	n := module.Memories.Len() - module.NumImportedMemories
	mems := make([]*exec.Memory, n)
	for i := 0; i < n; i++ {
		mt := module.Memories.Get(wasm.MemoryIndex(module.NumImportedMemories + i))
		style := artifact.MemoryStyles[i]
		Logger.WithField("static", style.Static).WithField("min_pages", mt.Min).Debug("creating memory")
		mems[i] = exec.NewMemory(mt.Min, mt.Max)
	}
	return mems
}

// createTables allocates defined (non-imported) tables.
func createTables(artifact *Artifact) []*exec.Table {
	module := artifact.Module
	n := module.Tables.Len() - module.NumImportedTables
	tables := make([]*exec.Table, n)
	for i := 0; i < n; i++ {
		tt := module.Tables.Get(wasm.TableIndex(module.NumImportedTables + i))
		tables[i] = exec.NewTable(tt.Min, tt.Max)
	}
	return tables
}

// globalCell is the storage behind one defined global.
type globalCell struct{ val uint64 }

func (c *globalCell) Get() uint64  { return c.val }
func (c *globalCell) Set(v uint64) { c.val = v }

// createGlobals evaluates each defined
// global's constant initializer expression against the combined global
// index space built so far (imports, then earlier defined globals — the
// only two things a const expr is allowed to reference), and allocate its
// backing storage. Returns both the defined-only slice (for InstanceHandle
// bookkeeping, currently unused beyond combinedGlobals) and the full
// combined slice InstanceHandle.globals is built from.
func createGlobals(module *wasm.ModuleInfo, imported []*GlobalExtern) (defined []*GlobalExtern, combined []*GlobalExtern) {
	combined = append([]*GlobalExtern{}, imported...)
	n := module.Globals.Len() - module.NumImportedGlobals
	defined = make([]*GlobalExtern, n)
	for i := 0; i < n; i++ {
		gt := module.Globals.Get(wasm.GlobalIndex(module.NumImportedGlobals + i))
		cell := &globalCell{val: evalGlobalInit(gt.Init, combined)}
		ext := &GlobalExtern{Type: gt, Get: cell.Get, Set: cell.Set}
		defined[i] = ext
		combined = append(combined, ext)
	}
	return defined, combined
}

// evalGlobalInit evaluates one of the constant-expression forms
// wasm.GlobalInit enumerates, producing the flat uint64 encoding the rest
// of the engine uses.
func evalGlobalInit(init wasm.GlobalInit, combined []*GlobalExtern) uint64 {
	switch init.Kind {
	case wasm.GlobalInitConstI32:
		return uint64(uint32(init.I32))
	case wasm.GlobalInitConstI64:
		return uint64(init.I64)
	case wasm.GlobalInitConstF32:
		return uint64(math.Float32bits(init.F32))
	case wasm.GlobalInitConstF64:
		return math.Float64bits(init.F64)
	case wasm.GlobalInitGetGlobal:
		return combined[init.Index].Get()
	case wasm.GlobalInitRefNull:
		return uint64(exec.NullElem)
	case wasm.GlobalInitRefFunc:
		return uint64(init.Index)
	default:
		panic(fmt.Errorf("instance: BUG: unhandled global init kind %d", init.Kind))
	}
}

// buildFuncs assembles the combined (imports-then-defined) function index
// space. Defined functions close over h, which must already carry its
// tables/memories/globals — exec.Run reaches back into h as its Host for
// every memory/table/global access and nested call.
func buildFuncs(h *InstanceHandle, artifact *Artifact, imported []*FuncExtern) []*FuncExtern {
	module := artifact.Module
	combined := append([]*FuncExtern{}, imported...)
	for i, body := range artifact.Translation.FunctionBodies {
		definedIdx := wasm.DefinedFuncIndex(i)
		funcIdx := wasm.FuncIndex(module.NumImportedFuncs + i)
		sig := module.FuncType(funcIdx)
		compiled := artifact.Compiled[definedIdx]
		fb := body
		combined = append(combined, &FuncExtern{
			Type: *sig,
			Call: func(ctx context.Context, args []uint64) ([]uint64, error) {
				return exec.Run(ctx, h, funcIdx, wasm.FuncBody{Bytes: compiled.Body, ModuleOffset: fb.ModuleOffset, LocalTypes: fb.LocalTypes}, sig, args)
			},
		})
	}
	return combined
}

// buildExports resolves every declared export's index (within the index
// space its Kind selects) against h's already-combined slices.
func buildExports(module *wasm.ModuleInfo, h *InstanceHandle) map[string]*Extern {
	exports := make(map[string]*Extern, len(module.Exports))
	for _, exp := range module.Exports {
		switch exp.Type.Kind {
		case wasm.ExternKindFunc:
			exports[exp.Name] = &Extern{Kind: wasm.ExternKindFunc, Func: h.funcs[exp.Index]}
		case wasm.ExternKindTable:
			exports[exp.Name] = &Extern{Kind: wasm.ExternKindTable, Table: h.tables[exp.Index]}
		case wasm.ExternKindMemory:
			exports[exp.Name] = &Extern{Kind: wasm.ExternKindMemory, Memory: h.memories[exp.Index]}
		case wasm.ExternKindGlobal:
			exports[exp.Name] = &Extern{Kind: wasm.ExternKindGlobal, Global: h.globals[exp.Index]}
		}
	}
	return exports
}

// evalOffset resolves an active segment's base address: either a literal
// constant, or a constant plus a referenced global's current value.
func evalOffset(off wasm.Offset, globals []*GlobalExtern) uint32 {
	base := uint32(0)
	if off.BaseGlobal != nil {
		base = uint32(globals[*off.BaseGlobal].Get())
	}
	return base + uint32(off.Constant)
}

// initializeElements runs every active element segment, writing function
// indices into their target table. An out-of-bounds segment traps, which
// surfaces as an InstantiationError in the Start stage.
func (h *InstanceHandle) initializeElements(artifact *Artifact) error {
	for _, seg := range artifact.Translation.ElementSegments {
		if seg.Active == nil {
			continue
		}
		base := evalOffset(seg.Active.Offset, h.globals)
		table := h.tables[seg.Active.Target.TableIndex]
		if uint64(base)+uint64(len(seg.FuncIndices)) > uint64(len(table.Elems)) {
			return wasmerrors.NewInstantiationStartError(wasmerrors.FromTrap(wasmerrors.TrapOutOfBoundsTableAccess))
		}
		for i, fi := range seg.FuncIndices {
			table.Elems[int(base)+i] = uint32(fi)
		}
	}
	return nil
}

// initializeData runs every active data segment, writing bytes into their
// target memory. An out-of-bounds segment traps the same way
// initializeElements does.
func (h *InstanceHandle) initializeData(artifact *Artifact) error {
	for _, d := range artifact.Translation.DataInitializers {
		if d.Active == nil {
			continue
		}
		base := evalOffset(d.Active.Offset, h.globals)
		mem := h.memories[d.Active.Target.MemoryIndex]
		if uint64(base)+uint64(len(d.Bytes)) > uint64(len(mem.Data)) {
			return wasmerrors.NewInstantiationStartError(wasmerrors.FromTrap(wasmerrors.TrapOutOfBoundsMemoryAccess))
		}
		copy(mem.Data[base:int(base)+len(d.Bytes)], d.Bytes)
	}
	return nil
}
