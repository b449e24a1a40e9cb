// Package wasmerrors implements the error taxonomy for this engine:
// every failure mode the translator, linker, instantiation pipeline and
// running instances can produce, plus the rules for how they propagate.
package wasmerrors

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/corewasm/corewasm/internal/sourceloc"
)

// WasmError is raised by the translator: either the binary is malformed
// (InvalidWebAssembly) or it uses a feature this engine does not implement
// (Unsupported, e.g. shared memories).
type WasmError struct {
	Message     string
	Offset      uint32
	Unsupported bool
}

func (e *WasmError) Error() string {
	if e.Unsupported {
		return fmt.Sprintf("unsupported: %s", e.Message)
	}
	return fmt.Sprintf("invalid wasm at offset 0x%x: %s", e.Offset, e.Message)
}

// InvalidWebAssembly builds a WasmError for malformed input encountered at
// a specific byte offset during translation.
func InvalidWebAssembly(offset uint32, format string, args ...interface{}) *WasmError {
	return &WasmError{Message: fmt.Sprintf(format, args...), Offset: offset}
}

// Unsupported builds a WasmError for a recognized-but-unimplemented
// feature, e.g. `WasmError::Unsupported("shared memories are not supported yet")`.
func Unsupported(format string, args ...interface{}) *WasmError {
	return &WasmError{Message: fmt.Sprintf(format, args...), Unsupported: true}
}

// CompileError is returned when a CompilerConfig backend fails to lower a
// translated module to machine code. It is fatal to Module creation.
type CompileError struct {
	Func  string
	Cause error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error in %s: %v", e.Func, e.Cause)
}

func (e *CompileError) Unwrap() error { return e.Cause }

// LinkErrorKind distinguishes why resolving imports or allocating runtime
// state failed during instantiation.
type LinkErrorKind byte

const (
	// LinkErrorImport: the resolver could not supply a matching extern, or
	// the extern it supplied has the wrong type.
	LinkErrorImport LinkErrorKind = iota
	// LinkErrorResource: Tunables could not allocate a memory, table, or
	// global (e.g. out of address space).
	LinkErrorResource
	// LinkErrorSignature: an imported function's signature does not match
	// the module's declared import signature.
	LinkErrorSignature
)

func (k LinkErrorKind) String() string {
	switch k {
	case LinkErrorImport:
		return "import"
	case LinkErrorResource:
		return "resource"
	case LinkErrorSignature:
		return "signature"
	default:
		return "unknown"
	}
}

// LinkError reports a failure in the import-resolution/resource-creation
// steps of the instantiation protocol.
type LinkError struct {
	Kind    LinkErrorKind
	Message string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link error (%s): %s", e.Kind, e.Message)
}

// NewLinkError wraps a lower-level cause with Wrapf so the (module, field)
// or resource that failed is preserved in the error chain even after it
// crosses the internal/instance package boundary. cause may be nil (e.g. a
// missing-import failure has no underlying error to wrap) — pkg/errors'
// Wrapf returns nil for a nil cause, so that case falls back to a plain
// Errorf instead of dereferencing it.
func NewLinkError(kind LinkErrorKind, cause error, format string, args ...interface{}) *LinkError {
	if cause == nil {
		return &LinkError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	}
	return &LinkError{Kind: kind, Message: errors.Wrapf(cause, format, args...).Error()}
}

// InstantiationErrorStage distinguishes a link failure from a trap during
// initialization.
type InstantiationErrorStage byte

const (
	InstantiationStageLink InstantiationErrorStage = iota
	InstantiationStageStart
)

// InstantiationError wraps either a LinkError (stage Link) or a
// RuntimeError from a trap during data/element initialization or the start
// function (stage Start).
type InstantiationError struct {
	Stage InstantiationErrorStage
	Link  *LinkError
	Start *RuntimeError
}

func (e *InstantiationError) Error() string {
	switch e.Stage {
	case InstantiationStageLink:
		return e.Link.Error()
	default:
		return fmt.Sprintf("trap during instantiation: %v", e.Start)
	}
}

func (e *InstantiationError) Unwrap() error {
	if e.Stage == InstantiationStageLink {
		return e.Link
	}
	return e.Start
}

// NewInstantiationLinkError builds an InstantiationError for a link failure.
func NewInstantiationLinkError(l *LinkError) *InstantiationError {
	return &InstantiationError{Stage: InstantiationStageLink, Link: l}
}

// NewInstantiationStartError builds an InstantiationError for a trap during
// init/start.
func NewInstantiationStartError(r *RuntimeError) *InstantiationError {
	return &InstantiationError{Stage: InstantiationStageStart, Start: r}
}

// TrapKind enumerates the reasons a Wasm instruction itself can trap.
type TrapKind byte

const (
	TrapUnreachable TrapKind = iota
	TrapIntegerDivideByZero
	TrapIntegerOverflow
	TrapInvalidConversionToInteger
	TrapOutOfBoundsMemoryAccess
	TrapOutOfBoundsTableAccess
	TrapIndirectCallTypeMismatch
	TrapUninitializedElement
	TrapStackOverflow
)

func (k TrapKind) String() string {
	switch k {
	case TrapUnreachable:
		return "unreachable"
	case TrapIntegerDivideByZero:
		return "integer divide by zero"
	case TrapIntegerOverflow:
		return "integer overflow"
	case TrapInvalidConversionToInteger:
		return "invalid conversion to integer"
	case TrapOutOfBoundsMemoryAccess:
		return "out of bounds memory access"
	case TrapOutOfBoundsTableAccess:
		return "out of bounds table access"
	case TrapIndirectCallTypeMismatch:
		return "indirect call type mismatch"
	case TrapUninitializedElement:
		return "uninitialized element"
	case TrapStackOverflow:
		return "call stack exhausted"
	default:
		return "unknown trap"
	}
}

// RuntimeErrorKind distinguishes a Wasm-level trap from a host-raised early
// exit.
type RuntimeErrorKind byte

const (
	RuntimeErrorTrap RuntimeErrorKind = iota
	RuntimeErrorUser
)

// RuntimeError is returned to the embedder for both Wasm traps and
// host-initiated early exits (Raise). User payloads are opaque beyond two
// capabilities: a printable description (Error()) and underlying kind
// introspection (Downcast).
type RuntimeError struct {
	Kind    RuntimeErrorKind
	Trap    TrapKind
	Payload interface{}

	// Loc is the trap/frame location token: the trapping instruction's
	// byte position relative to the start of the module, opaque beyond
	// Loc.String(). It is
	// sourceloc.Default() for traps raised outside a running function body
	// (e.g. the post-call stack-underflow check) and for all user-raised
	// early exits, which have no code position of their own.
	Loc sourceloc.SourceLoc

	// Frame is the trapping function's symbolic name, if the module's name
	// subsection declared one and its Artifact is still registered for
	// symbolication. Empty when no name is available.
	Frame string

	// CodeOffset is the trapping function's start within its module's
	// compiled code page, valid only when HasCodeOffset is true (imported
	// functions have no such page).
	CodeOffset    uint64
	HasCodeOffset bool
}

// WithFrame attaches a symbolicated frame name to e, returning e for
// chaining at the point a trap is raised.
func (e *RuntimeError) WithFrame(name string) *RuntimeError {
	e.Frame = name
	return e
}

// WithCodeOffset attaches the trapping function's code-page offset to e.
func (e *RuntimeError) WithCodeOffset(offset uint64) *RuntimeError {
	e.CodeOffset = offset
	e.HasCodeOffset = true
	return e
}

func (e *RuntimeError) Error() string {
	if e.Kind == RuntimeErrorTrap {
		if e.Loc.IsDefault() {
			return fmt.Sprintf("wasm trap: %s", e.Trap)
		}
		if e.Frame != "" && e.HasCodeOffset {
			return fmt.Sprintf("wasm trap: %s (at %s in %s+0x%x)", e.Trap, e.Loc, e.Frame, e.CodeOffset)
		}
		if e.Frame != "" {
			return fmt.Sprintf("wasm trap: %s (at %s in %s)", e.Trap, e.Loc, e.Frame)
		}
		return fmt.Sprintf("wasm trap: %s (at %s)", e.Trap, e.Loc)
	}
	if s, ok := e.Payload.(fmt.Stringer); ok {
		return fmt.Sprintf("wasm early exit: %s", s.String())
	}
	if err, ok := e.Payload.(error); ok {
		return fmt.Sprintf("wasm early exit: %v", err)
	}
	return fmt.Sprintf("wasm early exit: %v", e.Payload)
}

// FromTrap builds a RuntimeError for a Wasm-level trap with no known code
// position.
func FromTrap(kind TrapKind) *RuntimeError {
	return &RuntimeError{Kind: RuntimeErrorTrap, Trap: kind, Loc: sourceloc.Default()}
}

// FromTrapAt builds a RuntimeError for a Wasm-level trap at a specific
// position within the trapping function's body.
func FromTrapAt(kind TrapKind, loc sourceloc.SourceLoc) *RuntimeError {
	return &RuntimeError{Kind: RuntimeErrorTrap, Trap: kind, Loc: loc}
}

// FromUserPayload builds a RuntimeError carrying an embedder-defined
// payload raised via Raise. User-raised early exits have no code position
// of their own, hence the explicit Default (the zero SourceLoc is itself
// a valid-looking, merely coincidentally-all-zero location, not "none").
func FromUserPayload(payload interface{}) *RuntimeError {
	return &RuntimeError{Kind: RuntimeErrorUser, Payload: payload, Loc: sourceloc.Default()}
}

// Downcast attempts to recover the original payload of a user-raised
// RuntimeError as T. It fails (ok == false) for Wasm-level traps, or when
// the payload isn't a T — the caller is then free to re-surface the error
// as unknown.
func Downcast[T any](e *RuntimeError) (T, bool) {
	var zero T
	if e == nil || e.Kind != RuntimeErrorUser {
		return zero, false
	}
	v, ok := e.Payload.(T)
	return v, ok
}

// SerializeError / DeserializeError are fatal to Artifact (de)serialization.
type SerializeError struct{ Cause error }

func (e *SerializeError) Error() string { return fmt.Sprintf("serialize: %v", e.Cause) }
func (e *SerializeError) Unwrap() error { return e.Cause }

type DeserializeError struct{ Cause error }

func (e *DeserializeError) Error() string { return fmt.Sprintf("deserialize: %v", e.Cause) }
func (e *DeserializeError) Unwrap() error { return e.Cause }
