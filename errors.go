package corewasm

import "github.com/corewasm/corewasm/internal/wasmerrors"

// Re-exported error taxonomy: embedders outside this module see and
// type-switch on these directly rather than reaching into
// internal/wasmerrors.
type (
	WasmError          = wasmerrors.WasmError
	CompileError       = wasmerrors.CompileError
	LinkError          = wasmerrors.LinkError
	InstantiationError = wasmerrors.InstantiationError
	RuntimeError       = wasmerrors.RuntimeError
	SerializeError     = wasmerrors.SerializeError
	DeserializeError   = wasmerrors.DeserializeError
)

const (
	LinkErrorImport    = wasmerrors.LinkErrorImport
	LinkErrorResource  = wasmerrors.LinkErrorResource
	LinkErrorSignature = wasmerrors.LinkErrorSignature

	InstantiationStageLink  = wasmerrors.InstantiationStageLink
	InstantiationStageStart = wasmerrors.InstantiationStageStart

	RuntimeErrorTrap = wasmerrors.RuntimeErrorTrap
	RuntimeErrorUser = wasmerrors.RuntimeErrorUser
)

// Raise is the `raise(payload)` entry point, callable from inside any
// host function registered via NewFunction: it panics with a
// *RuntimeError wrapping payload, which unwinds through Go's own panic/recover mechanism up to
// the nearest Wasm-call boundary (internal/exec.Run's deferred recover),
// a long-jump/stack-unwind contract matching `RuntimeError::raise(payload)`.
func Raise(payload interface{}) {
	panic(wasmerrors.FromUserPayload(payload))
}

// Downcast attempts to recover a RuntimeError's user-raised payload as T,
// matching `RuntimeError::downcast::<T>() → Result<T, RuntimeError>`. It
// reports ok == false for Wasm-level traps or a payload of the wrong type.
func Downcast[T any](err error) (T, bool) {
	var zero T
	rt, ok := err.(*RuntimeError)
	if !ok {
		return zero, false
	}
	return wasmerrors.Downcast[T](rt)
}
