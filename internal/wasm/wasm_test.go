package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/wasm"
)

func TestValueType_StringAndSize(t *testing.T) {
	cases := []struct {
		vt   wasm.ValueType
		str  string
		size int
	}{
		{wasm.ValueTypeI32, "i32", 4},
		{wasm.ValueTypeI64, "i64", 8},
		{wasm.ValueTypeF32, "f32", 4},
		{wasm.ValueTypeF64, "f64", 8},
		{wasm.ValueTypeV128, "v128", 16},
		{wasm.ValueTypeFuncRef, "funcref", 8},
		{wasm.ValueTypeAnyRef, "externref", 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.str, c.vt.String())
		assert.Equal(t, c.size, c.vt.Size())
	}
	assert.Equal(t, "unknown", wasm.ValueType(0x00).String())
}

func TestFuncType_Equals(t *testing.T) {
	a := &wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI64}}
	b := &wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI64}}
	c := &wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI64}, Results: []wasm.ValueType{wasm.ValueTypeI64}}

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(nil))
}

func TestFuncType_KeyDistinguishesSignatures(t *testing.T) {
	a := &wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI64}}
	b := &wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeI32}}
	assert.NotEqual(t, a.Key(), b.Key())

	c := &wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI64}}
	assert.Equal(t, a.Key(), c.Key())
}

func TestModuleInfo_FuncImportBoundary(t *testing.T) {
	m := wasm.NewModuleInfo()
	sig := m.DeclareType(wasm.FuncType{})

	imported := m.DeclareFuncImport(sig)
	assert.True(t, m.IsImportedFunc(imported))

	defined := m.DeclareFuncType(sig)
	assert.False(t, m.IsImportedFunc(defined))
	assert.Equal(t, wasm.DefinedFuncIndex(0), m.DefinedFuncIndex(defined))
}

func TestModuleInfo_DeclareFuncTypePanicsWhenAnImportArrivesLate(t *testing.T) {
	m := wasm.NewModuleInfo()
	sig := m.DeclareType(wasm.FuncType{})

	m.DeclareFuncType(sig)  // a local with no imports yet is fine
	m.DeclareFuncImport(sig) // an import arriving after a local breaks the invariant

	assert.Panics(t, func() { m.DeclareFuncType(sig) })
}

func TestModuleInfo_DeclareFuncNameKeepsFirstAndReportsDuplicate(t *testing.T) {
	m := wasm.NewModuleInfo()
	sig := m.DeclareType(wasm.FuncType{})
	idx := m.DeclareFuncType(sig)

	dup := m.DeclareFuncName(idx, "first")
	require.False(t, dup)
	dup = m.DeclareFuncName(idx, "second")
	assert.True(t, dup)
	assert.Equal(t, "first", m.FuncNames[idx])
}

func TestModuleInfo_DeclareStartTwiceErrors(t *testing.T) {
	m := wasm.NewModuleInfo()
	sig := m.DeclareType(wasm.FuncType{})
	f1 := m.DeclareFuncType(sig)
	f2 := m.DeclareFuncType(sig)

	require.NoError(t, m.DeclareStart(f1))
	assert.Error(t, m.DeclareStart(f2))
}

func TestIndexedVec_PushGetLen(t *testing.T) {
	var vec wasm.IndexedVec[wasm.FuncIndex, string]
	i0 := vec.Push("a")
	i1 := vec.Push("b")

	assert.Equal(t, wasm.FuncIndex(0), i0)
	assert.Equal(t, wasm.FuncIndex(1), i1)
	assert.Equal(t, 2, vec.Len())
	assert.Equal(t, "a", vec.Get(i0))
	assert.Equal(t, "b", vec.Get(i1))
}
