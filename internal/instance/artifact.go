package instance

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/tunables"
	"github.com/corewasm/corewasm/internal/vmoffsets"
	"github.com/corewasm/corewasm/internal/wasm"
)

// Logger is used for instantiation-pipeline diagnostics. Defaults to
// logrus.StandardLogger(); corewasm.StoreConfig.WithLogger replaces it.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// Artifact is the live product of compilation: the module's metadata,
// the memory/table allocation styles derived from Tunables, the compiled
// function bodies, and the data it needs to produce one InstanceHandle
// per Instantiate call. It is shared (by reference) across every
// InstanceHandle created from it; in Go that sharing is ordinary
// reference semantics rather than manual refcounting, but frame-info
// registration/unregistration still brackets the Artifact's own lifetime
// (Close): the process-wide frame-info registry inserts on Artifact
// creation and removes on Artifact drop.
type Artifact struct {
	Module      *wasm.ModuleInfo
	Translation *wasm.ModuleTranslation
	Compiled    []compiler.FunctionCompilation // indexed by DefinedFuncIndex
	Tunables    tunables.Tunables

	MemoryStyles []tunables.MemoryStyle // indexed by DefinedMemoryIndex
	TableStyles  []tunables.TableStyle  // indexed by DefinedTableIndex

	// SignatureIDs maps a module-local SignatureIndex to the
	// VMSharedSignatureIndex JIT code would compare against at an indirect
	// call site. Signatures are not deduplicated across modules, so this
	// is simply the identity map — kept as an explicit field rather than
	// inlined arithmetic so a future deduplicating Engine has somewhere to
	// plug in a real mapping.
	SignatureIDs []uint32

	// CodeOffsets locates each defined function's start within the
	// notional concatenated code page this Artifact would publish if a
	// real backend had compiled it: offset i is the sum of the body lengths
	// of every function compiled before it. LookupFrameCodeOffset reports it
	// alongside a function's symbolic name (LookupFrame) so trap
	// symbolication has something to correlate against even without an
	// executable-page allocator behind it.
	CodeOffsets *vmoffsets.CodeOffsets

	registerOnce sync.Once
}

// NewArtifact builds an Artifact from a translated module and its
// per-function compilation output, deriving memory/table allocation
// styles from t, and registers its frame info. compiled must be indexed by
// DefinedFuncIndex and have the same length as translation.FunctionBodies.
func NewArtifact(translation *wasm.ModuleTranslation, compiled []compiler.FunctionCompilation, t tunables.Tunables) *Artifact {
	module := translation.Module

	memStyles := make([]tunables.MemoryStyle, module.Memories.Len()-module.NumImportedMemories)
	for i := range memStyles {
		mt := module.Memories.Get(wasm.MemoryIndex(module.NumImportedMemories + i))
		memStyles[i] = t.StyleFor(mt.Max)
	}
	tableStyles := make([]tunables.TableStyle, module.Tables.Len()-module.NumImportedTables)
	for i := range tableStyles {
		tt := module.Tables.Get(wasm.TableIndex(module.NumImportedTables + i))
		tableStyles[i] = t.StyleForTable(tt.Max)
	}
	sigIDs := make([]uint32, module.Types.Len())
	for i := range sigIDs {
		sigIDs[i] = uint32(i)
	}

	codeOffsets := make([]uint64, len(compiled))
	var cursor uint64
	for i, fc := range compiled {
		codeOffsets[i] = cursor
		cursor += uint64(len(fc.Body))
	}

	a := &Artifact{
		Module:       module,
		Translation:  translation,
		Compiled:     compiled,
		Tunables:     t,
		MemoryStyles: memStyles,
		TableStyles:  tableStyles,
		SignatureIDs: sigIDs,
		CodeOffsets:  vmoffsets.NewCodeOffsets(codeOffsets),
	}
	a.registerFrameInfo()
	return a
}

// registerFrameInfo publishes a's function-pointer ranges (here, its
// function names) to the process-wide registry so traps can be
// symbolicated. NewArtifact calls it on creation and Instantiate calls it
// again. Idempotent: an Artifact is registered at most once regardless of
// how many times it's instantiated.
func (a *Artifact) registerFrameInfo() {
	a.registerOnce.Do(func() {
		registerFrameInfo(a)
	})
}

// Close unregisters a's frame info. Callers that create many short-lived
// Artifacts (e.g. the CLI) should call this once they're done instantiating
// from it; a long-lived Engine typically never calls it.
func (a *Artifact) Close() error {
	unregisterFrameInfo(a)
	return nil
}

// frameInfoRegistry is the process-wide, mutex-protected map from Artifact
// to its symbolication metadata: inserts on Artifact creation, removes
// on Artifact drop.
var (
	frameInfoMu  sync.Mutex
	frameInfoMap = map[*Artifact]*frameInfo{}
)

type frameInfo struct {
	funcNames map[wasm.FuncIndex]string
}

func registerFrameInfo(a *Artifact) {
	frameInfoMu.Lock()
	defer frameInfoMu.Unlock()
	frameInfoMap[a] = &frameInfo{funcNames: a.Module.FuncNames}
	Logger.WithField("module", a.Module.Name).Debug("registered frame info")
}

func unregisterFrameInfo(a *Artifact) {
	frameInfoMu.Lock()
	defer frameInfoMu.Unlock()
	delete(frameInfoMap, a)
}

// LookupFrame returns the symbolic name of idx within a, if the module's
// name subsection declared one and a is still registered.
func LookupFrame(a *Artifact, idx wasm.FuncIndex) (string, bool) {
	frameInfoMu.Lock()
	defer frameInfoMu.Unlock()
	fi, ok := frameInfoMap[a]
	if !ok {
		return "", false
	}
	name, ok := fi.funcNames[idx]
	return name, ok
}

// LookupFrameCodeOffset returns the code offset of the defined function at
// idx within a's notional compiled code page (see Artifact.CodeOffsets),
// or ok == false if idx names an imported function or is out of range.
func LookupFrameCodeOffset(a *Artifact, idx wasm.FuncIndex) (offset uint64, ok bool) {
	if a.Module.IsImportedFunc(idx) || a.CodeOffsets == nil {
		return 0, false
	}
	defined := int(a.Module.DefinedFuncIndex(idx))
	if defined < 0 || defined >= a.CodeOffsets.Len() {
		return 0, false
	}
	return a.CodeOffsets.Offset(defined), true
}
