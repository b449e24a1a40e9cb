package corewasm

import (
	"bytes"
	"context"
	"fmt"

	"github.com/corewasm/corewasm/internal/binary"
	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/instance"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
)

// Module is a translated and compiled Wasm binary, immutable after
// Module::new and shared behind reference counting, matching
// `Module::new(&Store, bytes) → Result<Module, CompileError>`.
// Its Artifact may be instantiated any number of times.
type Module struct {
	store    *Store
	artifact *instance.Artifact
}

// NewModule translates wasmBytes and lowers every defined function through
// store's Engine's configured backend, matching
// `Module::new(&Store, bytes)`.
func NewModule(ctx context.Context, store *Store, wasmBytes []byte) (*Module, error) {
	translation, err := binary.Translate(bytes.NewReader(wasmBytes))
	if err != nil {
		return nil, err
	}

	comp := store.engine.compilerConfig.Compiler()
	compiled := make([]compiler.FunctionCompilation, len(translation.FunctionBodies))
	for i, body := range translation.FunctionBodies {
		definedIdx := wasm.DefinedFuncIndex(i)
		funcIdx := wasm.FuncIndex(translation.Module.NumImportedFuncs + i)
		sig := translation.Module.FuncType(funcIdx)
		fc, err := comp.CompileFunction(ctx, translation.Module, definedIdx, body, sig)
		if err != nil {
			return nil, &wasmerrors.CompileError{Func: fmt.Sprintf("func[%d]", funcIdx), Cause: err}
		}
		compiled[i] = fc
	}

	artifact := instance.NewArtifact(translation, compiled, store.engine.tunables)
	return &Module{store: store, artifact: artifact}, nil
}

// Instantiate links imports against the module and runs the full
// instantiation protocol, matching
// `Instance::new(&Module, &ImportObject)`.
func (m *Module) Instantiate(ctx context.Context, imports *ImportObject) (*Instance, error) {
	resolver := imports
	if resolver == nil {
		resolver = NewImportObject()
	}
	handle, err := instance.Instantiate(ctx, m.artifact, resolver.obj)
	if err != nil {
		return nil, err
	}
	return &Instance{handle: handle}, nil
}

// Close releases m's frame-info registration. The compiled pages
// themselves are ordinary Go-GC'd memory; this only affects trap
// symbolication bookkeeping.
func (m *Module) Close() error { return m.artifact.Close() }
