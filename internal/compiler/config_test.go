package compiler_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/unwind"
	"github.com/corewasm/corewasm/internal/wasm"
)

type stubCompiler struct{}

func (stubCompiler) CompileFunction(ctx context.Context, module *wasm.ModuleInfo, idx wasm.DefinedFuncIndex, body wasm.FuncBody, sig *wasm.FuncType) (compiler.FunctionCompilation, error) {
	return compiler.FunctionCompilation{Body: []byte{0x00}, Unwind: unwind.None()}, nil
}

func TestDefaultFeatures_MVPPlusSignExtensionAndMultiValue(t *testing.T) {
	f := compiler.DefaultFeatures()
	assert.True(t, f.SignExtension)
	assert.True(t, f.MultiValue)
	assert.False(t, f.BulkMemoryOperations)
	assert.False(t, f.ReferenceTypes)
	assert.False(t, f.SIMD)
	assert.False(t, f.Threads)
}

func TestFeatures_EnableIgnoresUnknownNames(t *testing.T) {
	var f compiler.Features
	f.Enable("simd", "bogus", " threads ")
	assert.True(t, f.SIMD)
	assert.True(t, f.Threads)
	assert.False(t, f.BulkMemoryOperations)
}

func TestFeatures_EnableFromEnvironment(t *testing.T) {
	t.Setenv("COREWASM_FEATURES", "reference-types,bulk-memory")
	var f compiler.Features
	f.EnableFromEnvironment()
	assert.True(t, f.ReferenceTypes)
	assert.True(t, f.BulkMemoryOperations)
	assert.False(t, f.SIMD)
}

func TestFeatures_EnableFromEnvironmentNoopWhenUnset(t *testing.T) {
	require.NoError(t, os.Unsetenv("COREWASM_FEATURES"))
	var f compiler.Features
	f.EnableFromEnvironment()
	assert.Equal(t, compiler.Features{}, f)
}

func TestCraneliftConfig_AccessorsRoundtrip(t *testing.T) {
	cfg := compiler.NewCraneliftConfig(stubCompiler{})
	assert.Equal(t, compiler.DefaultFeatures(), cfg.Features())
	assert.Equal(t, compiler.DefaultTarget(), cfg.Target())
	assert.Equal(t, stubCompiler{}, cfg.Compiler())

	cfg.FeaturesMut().SIMD = true
	assert.True(t, cfg.Features().SIMD)

	cfg.TargetMut().PointerWidth = 4
	assert.Equal(t, 4, cfg.Target().PointerWidth)
}

func TestLLVMConfig_AccessorsRoundtrip(t *testing.T) {
	cfg := compiler.NewLLVMConfig(stubCompiler{})
	assert.Equal(t, compiler.DefaultFeatures(), cfg.Features())

	cfg.FeaturesMut().Threads = true
	assert.True(t, cfg.Features().Threads)
}

func TestCompilerConfig_InterfaceSatisfiedByBothConfigs(t *testing.T) {
	var configs = []compiler.CompilerConfig{
		compiler.NewCraneliftConfig(stubCompiler{}),
		compiler.NewLLVMConfig(stubCompiler{}),
	}
	for _, cfg := range configs {
		fc, err := cfg.Compiler().CompileFunction(context.Background(), wasm.NewModuleInfo(), wasm.DefinedFuncIndex(0), wasm.FuncBody{}, &wasm.FuncType{})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00}, fc.Body)
	}
}
