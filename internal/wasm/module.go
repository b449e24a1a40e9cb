package wasm

import "fmt"

// FuncTypeEntry is one function signature; its SignatureIndex is its
// position in ModuleInfo.Types. Signatures are declared in the order they are read from
// the Type section and are not deduplicated — see FuncType.Key for the
// hook a caller can use to do that later.
type FuncTypeEntry struct {
	Type FuncType
}

// FuncEntry records a function's signature and whether it is imported.
// Bodies for locally-defined functions live in ModuleTranslation, not here:
// ModuleInfo only ever holds metadata needed to resolve and type-check,
// never bytecode.
type FuncEntry struct {
	SignatureIndex SignatureIndex
	IsImport       bool
}

// ModuleInfo is the translator's output shape for everything except
// function bodies and segments. It is append-only: declare_* calls are the
// only way to add entries, and every index space enforces the invariant
// that imported entries occupy the low end.
type ModuleInfo struct {
	Name     string
	Types    IndexedVec[SignatureIndex, FuncTypeEntry]
	Funcs    IndexedVec[FuncIndex, FuncEntry]
	Tables   IndexedVec[TableIndex, TableType]
	Memories IndexedVec[MemoryIndex, MemoryType]
	Globals  IndexedVec[GlobalIndex, GlobalType]

	Imports []Import
	Exports []Export

	// NumImportedFuncs is the count of entries in Funcs that are imports;
	// the next DeclareFuncType call must satisfy Funcs.Len() ==
	// NumImportedFuncs, enforced by DeclareFuncType.
	NumImportedFuncs    int
	NumImportedTables   int
	NumImportedMemories int
	NumImportedGlobals  int

	StartFunc *FuncIndex

	FuncNames map[FuncIndex]string
}

// NewModuleInfo returns an empty, ready-to-populate ModuleInfo.
func NewModuleInfo() *ModuleInfo {
	return &ModuleInfo{FuncNames: map[FuncIndex]string{}}
}

// errBoundary reports that a local declaration arrived before all imports
// of the same entity class were declared. In a correctly functioning
// translator this never happens; it exists to fail loudly rather than
// silently corrupt an index space.
func errBoundary(class string, want, got int) error {
	return fmt.Errorf("wasm: BUG: %s import boundary violated: want %d imported entries declared first, have %d", class, want, got)
}

// ReserveTypes hints the capacity of the Type section.
func (m *ModuleInfo) ReserveTypes(n int) { m.Types.Reserve(n) }

// DeclareType appends a function signature and returns its index.
func (m *ModuleInfo) DeclareType(ft FuncType) SignatureIndex {
	return m.Types.Push(FuncTypeEntry{Type: ft})
}

// ReserveFuncs hints the capacity of the Function section.
func (m *ModuleInfo) ReserveFuncs(n int) { m.Funcs.Reserve(n) }

// DeclareFuncImport appends an imported function. Imported functions must
// all be declared before any DeclareFuncType call.
func (m *ModuleInfo) DeclareFuncImport(sig SignatureIndex) FuncIndex {
	idx := m.Funcs.Push(FuncEntry{SignatureIndex: sig, IsImport: true})
	m.NumImportedFuncs++
	return idx
}

// DeclareFuncType appends a locally-defined function's signature. It panics
// if the import-boundary invariant is violated — a hard failure since it
// can only be tripped by a translator bug.
func (m *ModuleInfo) DeclareFuncType(sig SignatureIndex) FuncIndex {
	if m.Funcs.Len() != m.NumImportedFuncs {
		panic(errBoundary("func", m.NumImportedFuncs, m.Funcs.Len()))
	}
	return m.Funcs.Push(FuncEntry{SignatureIndex: sig})
}

// DeclareTableImport appends an imported table.
func (m *ModuleInfo) DeclareTableImport(tt TableType) TableIndex {
	idx := m.Tables.Push(tt)
	m.NumImportedTables++
	return idx
}

// DeclareTable appends a locally-defined table.
func (m *ModuleInfo) DeclareTable(tt TableType) TableIndex {
	if m.Tables.Len() != m.NumImportedTables {
		panic(errBoundary("table", m.NumImportedTables, m.Tables.Len()))
	}
	return m.Tables.Push(tt)
}

// DeclareMemoryImport appends an imported memory.
func (m *ModuleInfo) DeclareMemoryImport(mt MemoryType) MemoryIndex {
	idx := m.Memories.Push(mt)
	m.NumImportedMemories++
	return idx
}

// DeclareMemory appends a locally-defined memory.
func (m *ModuleInfo) DeclareMemory(mt MemoryType) MemoryIndex {
	if m.Memories.Len() != m.NumImportedMemories {
		panic(errBoundary("memory", m.NumImportedMemories, m.Memories.Len()))
	}
	return m.Memories.Push(mt)
}

// DeclareGlobalImport appends an imported global.
func (m *ModuleInfo) DeclareGlobalImport(gt GlobalType) GlobalIndex {
	idx := m.Globals.Push(gt)
	m.NumImportedGlobals++
	return idx
}

// DeclareGlobal appends a locally-defined global.
func (m *ModuleInfo) DeclareGlobal(gt GlobalType) GlobalIndex {
	if m.Globals.Len() != m.NumImportedGlobals {
		panic(errBoundary("global", m.NumImportedGlobals, m.Globals.Len()))
	}
	return m.Globals.Push(gt)
}

// DeclareImport records an import in declaration order, separately from the
// entity-class DeclareXImport calls (which assign the index). Import keeps
// the (module, field) pair for the resolver.
func (m *ModuleInfo) DeclareImport(mod, field string, t ExternType) {
	m.Imports = append(m.Imports, Import{Module: mod, Field: field, Type: t})
}

// DeclareExport records an export of the entity at idx (within the index
// space t.Kind selects).
func (m *ModuleInfo) DeclareExport(name string, t ExternType, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Type: t, Index: idx})
}

// DeclareStart sets the module's start function. It is an error — surfaced
// by the translator as WasmError.InvalidWebAssembly — to call this twice.
func (m *ModuleInfo) DeclareStart(idx FuncIndex) error {
	if m.StartFunc != nil {
		return fmt.Errorf("wasm: multiple start sections")
	}
	m.StartFunc = &idx
	return nil
}

// DeclareFuncName records a name-subsection entry for idx. Per the Open
// name subsection's duplicate-entry case, this keeps
// the first name seen and reports whether idx already had one so the
// translator can log a diagnostic instead of silently overwriting.
func (m *ModuleInfo) DeclareFuncName(idx FuncIndex, name string) (duplicate bool) {
	if _, ok := m.FuncNames[idx]; ok {
		return true
	}
	m.FuncNames[idx] = name
	return false
}

// FuncType returns the signature of the function at idx.
func (m *ModuleInfo) FuncType(idx FuncIndex) *FuncType {
	entry := m.Funcs.Get(idx)
	ft := m.Types.Get(entry.SignatureIndex).Type
	return &ft
}

// IsImportedFunc reports whether idx names an imported function.
func (m *ModuleInfo) IsImportedFunc(idx FuncIndex) bool {
	return int(idx) < m.NumImportedFuncs
}

// DefinedFuncIndex converts a FuncIndex known to be locally defined into
// its DefinedFuncIndex (the space ModuleTranslation's body map is keyed by).
func (m *ModuleInfo) DefinedFuncIndex(idx FuncIndex) DefinedFuncIndex {
	return DefinedFuncIndex(int(idx) - m.NumImportedFuncs)
}
