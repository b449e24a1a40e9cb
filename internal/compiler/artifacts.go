package compiler

import "github.com/corewasm/corewasm/internal/unwind"

// RelocationKind enumerates the fixup shapes a backend's Relocations can
// request. Only a subset make sense off amd64, but the set is shared
// across targets the way wazero's asm package shares instruction
// plumbing across amd64/arm64.
type RelocationKind byte

const (
	RelocationAbs4 RelocationKind = iota
	RelocationAbs8
	RelocationX86PCRel4
	RelocationX86PCRelRodata4
	RelocationX86CallPCRel4
)

// RelocationTargetKind discriminates what a Relocation points at.
type RelocationTargetKind byte

const (
	RelocationTargetUserFunc RelocationTargetKind = iota
	RelocationTargetLibCall
	RelocationTargetJumpTable
)

// LibCallKind enumerates the runtime helpers a compiler backend may need
// to call out to, e.g. for `memory.grow`.
type LibCallKind byte

const (
	LibCallMemory32Grow LibCallKind = iota
	LibCallMemory32Size
	LibCallTableCopy
	LibCallTableInit
	LibCallElemDrop
	LibCallMemoryCopy
	LibCallMemoryFill
	LibCallMemoryInit
	LibCallDataDrop
)

// RelocationTarget is a union: a relocation targets a user-defined
// function, a LibCall, or a position in a jump table.
type RelocationTarget struct {
	Kind      RelocationTargetKind
	UserFunc  uint32 // meaningful when Kind == RelocationTargetUserFunc
	LibCall   LibCallKind
	JumpFunc  uint32 // function index owning the jump table
	JumpTable uint32 // which jump table within that function
}

// Relocation is one fixup a backend's emitted code needs applied once the
// function's final address is known. Grounded on wazerolift's
// functionRelocationEntry{index, offset uint32} — generalized here from a
// single (index, offset) pair to the full kind/target/addend shape this
// engine needs.
type Relocation struct {
	Kind       RelocationKind
	Target     RelocationTarget
	CodeOffset uint32
	Addend     int64
}

// TrapInformation maps a code offset within a function body to the reason
// execution would trap there. The compiler backend emits one
// entry per instruction capable of trapping implicitly (e.g. an unchecked
// memory access guarded by a guard page).
type TrapInformation struct {
	CodeOffset uint32
	Kind       uint8 // mirrors wasmerrors.TrapKind; compiler package avoids importing wasmerrors to keep the dependency direction backend -> errors, not the reverse.
}

// FunctionCompilation is everything a Compiler produces for one function:
// the lowered body, its relocations, its trap map, jump table offsets
// within the body, and unwind info. Named "FunctionCompilation" at this
// per-function granularity; the engine assembles a module's worth of
// these into the page it publishes (see internal/instance.Artifact).
type FunctionCompilation struct {
	Body             []byte
	Relocations      []Relocation
	Traps            []TrapInformation
	JumpTableOffsets []uint32
	Unwind           unwind.Info
}
