package binary_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/binary"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
	"github.com/corewasm/corewasm/internal/wasmtest"
)

func identityAddModule() []byte {
	b := wasmtest.New()
	b.TypeSection(wasmtest.FuncType{Params: []byte{wasmtest.I32, wasmtest.I32}, Results: []byte{wasmtest.I32}})
	b.FunctionSection(0)
	b.ExportSection(wasmtest.Export{Name: "run", Kind: 0x00, Index: 0})
	b.CodeSection(wasmtest.Concat(wasmtest.LocalGet(0), wasmtest.LocalGet(1), wasmtest.I32Add))
	return b.Bytes()
}

func TestTranslate_IdentityAdd(t *testing.T) {
	tr, err := binary.Translate(bytes.NewReader(identityAddModule()))
	require.NoError(t, err)

	require.Equal(t, 1, tr.Module.Types.Len())
	require.Equal(t, 1, tr.Module.Funcs.Len())
	require.Len(t, tr.FunctionBodies, 1)

	ft := tr.Module.FuncType(wasm.FuncIndex(0))
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ft.Params)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, ft.Results)

	require.Len(t, tr.Module.Exports, 1)
	assert.Equal(t, "run", tr.Module.Exports[0].Name)
	assert.Equal(t, wasm.ExternKindFunc, tr.Module.Exports[0].Type.Kind)
}

func TestTranslate_RejectsBadMagic(t *testing.T) {
	bad := []byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00}
	_, err := binary.Translate(bytes.NewReader(bad))
	require.Error(t, err)
	var wasmErr *wasmerrors.WasmError
	require.ErrorAs(t, err, &wasmErr)
	assert.False(t, wasmErr.Unsupported)
}

func TestTranslate_RejectsSharedMemory(t *testing.T) {
	b := wasmtest.New()
	b.MemorySection(wasmtest.Memory{Min: 1, Max: 2, HasMax: true, Shared: true})

	_, err := binary.Translate(bytes.NewReader(b.Bytes()))
	require.Error(t, err)
	var wasmErr *wasmerrors.WasmError
	require.ErrorAs(t, err, &wasmErr)
	assert.True(t, wasmErr.Unsupported)
	assert.Contains(t, wasmErr.Error(), "shared memories are not supported")
}

func TestTranslate_ImportsOccupyLowIndices(t *testing.T) {
	b := wasmtest.New()
	b.TypeSection(
		wasmtest.FuncType{},
		wasmtest.FuncType{Params: []byte{wasmtest.I32}, Results: []byte{wasmtest.I32}},
	)
	b.ImportSection(wasmtest.FuncImport{Module: "env", Field: "early_exit", TypeIndex: 0})
	b.FunctionSection(1)
	b.CodeSection(wasmtest.Concat(wasmtest.LocalGet(0)))

	tr, err := binary.Translate(bytes.NewReader(b.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, 1, tr.Module.NumImportedFuncs)
	assert.Equal(t, 2, tr.Module.Funcs.Len())
	assert.True(t, tr.Module.IsImportedFunc(wasm.FuncIndex(0)))
	assert.False(t, tr.Module.IsImportedFunc(wasm.FuncIndex(1)))
	assert.Equal(t, wasm.DefinedFuncIndex(0), tr.Module.DefinedFuncIndex(wasm.FuncIndex(1)))
}

func TestTranslate_DuplicateSectionIDRejected(t *testing.T) {
	// Section IDs must strictly increase across a module; this also happens
	// to be the only way a binary-level duplicate Start section could ever
	// reach ModuleInfo.DeclareStart, since the decoder's ordering check
	// rejects it first.
	b := wasmtest.New()
	b.TypeSection(wasmtest.FuncType{})
	b.FunctionSection(0, 0)
	b.StartSection(0)
	b.StartSection(1)
	b.CodeSection(wasmtest.Concat(), wasmtest.Concat())

	_, err := binary.Translate(bytes.NewReader(b.Bytes()))
	require.Error(t, err)
}
