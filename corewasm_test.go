package corewasm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm"
	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/refcompiler"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmtest"
)

func newStore() *corewasm.Store {
	return corewasm.NewStore(corewasm.NewEngine(nil))
}

func identityAddModule() []byte {
	b := wasmtest.New()
	b.TypeSection(wasmtest.FuncType{Params: []byte{wasmtest.I32, wasmtest.I32}, Results: []byte{wasmtest.I32}})
	b.FunctionSection(0)
	b.ExportSection(wasmtest.Export{Name: "add", Kind: 0x00, Index: 0})
	b.CodeSection(wasmtest.Concat(wasmtest.LocalGet(0), wasmtest.LocalGet(1), wasmtest.I32Add))
	return b.Bytes()
}

// Scenario 1: instantiate a module and call an exported function via both
// the untyped and the generically-typed embedder surfaces.
func TestEndToEnd_IdentityAdd(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	module, err := corewasm.NewModule(ctx, store, identityAddModule())
	require.NoError(t, err)
	defer module.Close()

	inst, err := module.Instantiate(ctx, nil)
	require.NoError(t, err)

	fn, err := inst.GetFunction("add")
	require.NoError(t, err)
	results, err := fn.Call(ctx, []uint64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, results)

	add, err := corewasm.GetNativeFunction[func(int32, int32) int32](inst, "add")
	require.NoError(t, err)
	assert.Equal(t, int32(9), add(4, 5))
}

// Scenario 2: a host function raises a payload mid-call; the embedder
// recovers it via Downcast without it being mistaken for a Wasm trap.
func TestEndToEnd_EarlyExitViaRaise(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	b := wasmtest.New()
	b.TypeSection(
		wasmtest.FuncType{},
		wasmtest.FuncType{},
	)
	b.ImportSection(wasmtest.FuncImport{Module: "env", Field: "bail", TypeIndex: 0})
	b.FunctionSection(1)
	b.ExportSection(wasmtest.Export{Name: "run", Kind: 0x00, Index: 1})
	b.CodeSection(wasmtest.Concat(wasmtest.Call(0)))

	module, err := corewasm.NewModule(ctx, store, b.Bytes())
	require.NoError(t, err)
	defer module.Close()

	type abortSignal struct{ reason string }

	bail, err := corewasm.NewFunction(func() {
		corewasm.Raise(abortSignal{reason: "budget exceeded"})
	})
	require.NoError(t, err)

	imports := corewasm.NewImportObject().Register("env", "bail", bail)
	inst, err := module.Instantiate(ctx, imports)
	require.NoError(t, err)

	run, err := inst.GetFunction("run")
	require.NoError(t, err)

	_, callErr := run.Call(ctx, nil)
	require.Error(t, callErr)

	signal, ok := corewasm.Downcast[abortSignal](callErr)
	require.True(t, ok)
	assert.Equal(t, "budget exceeded", signal.reason)
}

// Scenario 3: instantiating a module with an unsatisfied import fails with
// an InstantiationError in the Link stage.
func TestEndToEnd_MissingImport(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	b := wasmtest.New()
	b.TypeSection(wasmtest.FuncType{})
	b.ImportSection(wasmtest.FuncImport{Module: "env", Field: "missing", TypeIndex: 0})

	module, err := corewasm.NewModule(ctx, store, b.Bytes())
	require.NoError(t, err)
	defer module.Close()

	_, err = module.Instantiate(ctx, nil)
	require.Error(t, err)

	var instErr *corewasm.InstantiationError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, corewasm.InstantiationStageLink, instErr.Stage)
	assert.Equal(t, corewasm.LinkErrorImport, instErr.Link.Kind)
}

// Scenario 4: a module declaring a shared memory is rejected at translation
// time, before any Artifact is ever built.
func TestEndToEnd_SharedMemoryRejectedAtModuleNew(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	b := wasmtest.New()
	b.MemorySection(wasmtest.Memory{Min: 1, Max: 2, HasMax: true, Shared: true})

	_, err := corewasm.NewModule(ctx, store, b.Bytes())
	require.Error(t, err)

	var wasmErr *corewasm.WasmError
	require.ErrorAs(t, err, &wasmErr)
	assert.True(t, wasmErr.Unsupported)
}

// Scenario 5: a start function that traps surfaces as an InstantiationError
// in the Start stage, distinct from a Link failure.
func TestEndToEnd_StartFunctionTrap(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	b := wasmtest.New()
	b.TypeSection(wasmtest.FuncType{})
	b.FunctionSection(0)
	b.StartSection(0)
	b.CodeSection(wasmtest.Concat(wasmtest.Unreachable))

	module, err := corewasm.NewModule(ctx, store, b.Bytes())
	require.NoError(t, err)
	defer module.Close()

	_, err = module.Instantiate(ctx, nil)
	require.Error(t, err)

	var instErr *corewasm.InstantiationError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, corewasm.InstantiationStageStart, instErr.Stage)
	assert.Equal(t, corewasm.RuntimeErrorTrap, instErr.Start.Kind)
}

// A module exporting a table, reached via Instance.GetTable and handed back
// through the map-literal Imports builder (Importable's table arm).
func TestEndToEnd_TableExportAndImportsMapBuilder(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	b := wasmtest.New()
	b.TableSection(wasmtest.TableType{ElemType: 0x70, Min: 2, Max: 2, HasMax: true})
	b.ExportSection(wasmtest.Export{Name: "tbl", Kind: 0x01, Index: 0})

	module, err := corewasm.NewModule(ctx, store, b.Bytes())
	require.NoError(t, err)
	defer module.Close()

	inst, err := module.Instantiate(ctx, nil)
	require.NoError(t, err)

	tbl, err := inst.GetTable("tbl")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	_, err = inst.GetTable("nope")
	assert.Error(t, err)

	// Imports is the map-literal alternative to chaining Register calls;
	// both must end up with the same (module, field) -> extern wiring.
	viaMap := corewasm.Imports(map[string]map[string]corewasm.Importable{
		"env": {"tbl": tbl},
	})
	viaChain := corewasm.NewImportObject().Register("env", "tbl", tbl)
	assert.Equal(t, viaChain, viaMap)
}

func TestEndToEnd_ExportedFunctionType(t *testing.T) {
	ctx := context.Background()
	store := newStore()

	module, err := corewasm.NewModule(ctx, store, identityAddModule())
	require.NoError(t, err)
	defer module.Close()

	inst, err := module.Instantiate(ctx, nil)
	require.NoError(t, err)

	fn, err := inst.GetFunction("add")
	require.NoError(t, err)

	sig := fn.Type()
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, sig.Params)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, sig.Results)
}

func TestStoreConfig_WithCompilerAndTarget(t *testing.T) {
	target := compiler.Target{Triple: "host", PointerWidth: 4}
	cc := refcompiler.NewConfig(target)

	cfg := corewasm.NewStoreConfig().WithCompiler(cc).WithTarget(target)
	engine := corewasm.NewEngine(cfg)

	assert.Same(t, cc, engine.CompilerConfig())
	assert.Equal(t, 4, engine.CompilerConfig().Target().PointerWidth)

	// A 32-bit target gets a smaller static memory bound than the 64-bit
	// default (the pointer-width-derived Tunables table).
	defaultEngine := corewasm.NewEngine(nil)
	assert.Less(t, engine.Tunables().StaticMemoryBoundPages, defaultEngine.Tunables().StaticMemoryBoundPages)
}
