package wasm

// FuncBody is the raw bytecode slice for one locally-defined function and
// the byte offset, relative to the start of the module, where that slice
// begins. The offset is what a trap's SourceLoc is measured against.
type FuncBody struct {
	Bytes        []byte
	ModuleOffset uint32
	LocalTypes   []ValueType
}

// ActiveTarget distinguishes a memory-targeted data initializer from a
// table-targeted element segment without introducing two near-identical
// struct shapes.
type ActiveTarget struct {
	MemoryIndex MemoryIndex
	TableIndex  TableIndex
}

// Offset is an active segment's base: either a literal constant, or a
// constant plus the value of a global read at instantiation time.
type Offset struct {
	BaseGlobal *GlobalIndex
	Constant   int32
}

// DataInitializer is either active (Active != nil, targets a memory) or
// passive (owned by the module, referenced by DataIndex from `memory.init`).
type DataInitializer struct {
	Active *struct {
		Target ActiveTarget
		Offset Offset
	}
	Bytes []byte
}

// ElementSegment is either active (targets a table) or passive (referenced
// by ElemIndex from `table.init`/`ref.func`). FuncIndices is the sequence of
// function indices (or nulls, represented as FuncIndex(math.MaxUint32)) the
// segment initializes.
type ElementSegment struct {
	Active *struct {
		Target ActiveTarget
		Offset Offset
	}
	FuncIndices []FuncIndex
}

// ModuleTranslationState carries translator-internal progress that a
// streaming decoder may need to resume or inspect mid-translation (e.g. for
// incremental/parallel function-body compilation). It is optional and
// carries no behavior of its own here; a real multi-stage pipeline would
// thread additional bookkeeping through it.
type ModuleTranslationState struct {
	NumFunctionsProcessed int
}

// ModuleTranslation is the translator's complete output: the decoded
// ModuleInfo, a dense map from DefinedFuncIndex to function bytecode, and
// data and element segments split into active/passive. It carries no
// Tunables; those are attached to the Artifact built from it.
type ModuleTranslation struct {
	Module *ModuleInfo

	// FunctionBodies is indexed by DefinedFuncIndex (0-based, imports
	// excluded — see ModuleInfo.DefinedFuncIndex).
	FunctionBodies []FuncBody

	DataInitializers []DataInitializer
	PassiveData      map[DataIndex][]byte
	ElementSegments  []ElementSegment
	PassiveElements  map[ElemIndex][]FuncIndex

	State *ModuleTranslationState
}
