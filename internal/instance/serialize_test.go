package instance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/instance"
	"github.com/corewasm/corewasm/internal/tunables"
	"github.com/corewasm/corewasm/internal/unwind"
	"github.com/corewasm/corewasm/internal/wasm"
)

func buildArtifact() *instance.Artifact {
	module := wasm.NewModuleInfo()
	sig := module.DeclareType(wasm.FuncType{Results: []wasm.ValueType{wasm.ValueTypeI32}})
	idx := module.DeclareFuncType(sig)
	module.DeclareFuncName(idx, "answer")
	module.DeclareExport("answer", wasm.ExternType{Kind: wasm.ExternKindFunc, Func: sig}, uint32(idx))

	translation := &wasm.ModuleTranslation{
		Module:         module,
		FunctionBodies: []wasm.FuncBody{{Bytes: []byte{0x41, 42, 0x0b}}},
	}
	compiled := []compiler.FunctionCompilation{
		{Body: []byte{0x41, 42, 0x0b}, Unwind: unwind.None()},
	}
	return instance.NewArtifact(translation, compiled, tunables.New(tunables.Target{PointerSize: 8}))
}

func TestArtifact_SerializeDeserializeRoundtrip(t *testing.T) {
	a := buildArtifact()

	data, err := a.Serialize()
	require.NoError(t, err)

	got, err := instance.DeserializeArtifact(data)
	require.NoError(t, err)

	assert.Equal(t, a.Module.Funcs.Len(), got.Module.Funcs.Len())
	assert.Equal(t, a.Module.Exports, got.Module.Exports)
	assert.Equal(t, a.Tunables, got.Tunables)
	assert.Equal(t, a.Compiled, got.Compiled)

	require.NotNil(t, got.CodeOffsets)
	assert.Equal(t, a.CodeOffsets.Len(), got.CodeOffsets.Len())
	assert.Equal(t, a.CodeOffsets.Offset(0), got.CodeOffsets.Offset(0))

	// A deserialized Artifact has no ModuleTranslation: that field only
	// makes sense relative to the original bytecode, which was not cached.
	assert.Nil(t, got.Translation)
}

func TestDeserializeArtifact_RejectsGarbage(t *testing.T) {
	_, err := instance.DeserializeArtifact([]byte("not a gob stream"))
	assert.Error(t, err)
}

func TestLookupFrameCodeOffset(t *testing.T) {
	a := buildArtifact()
	offset, ok := instance.LookupFrameCodeOffset(a, wasm.FuncIndex(0))
	assert.True(t, ok)
	assert.Equal(t, uint64(0), offset)

	_, ok = instance.LookupFrameCodeOffset(a, wasm.FuncIndex(5))
	assert.False(t, ok)
}
