// Package vmoffsets computes the byte-exact VMContext layout JIT-emitted
// code addresses directly. It is the heart of the runtime/codegen ABI:
// every offset here is load-bearing for any backend that emits native
// code against this engine.
//
// Grounded on wazerolift/internal.opaqueVmContextOffsets and its
// getOpaqueVmContextOffsets/buildOpaqueVMContext pair — the same
// compute-offsets-then-stamp-bytes shape, generalized here from
// wazerolift's three hardcoded fields (localMemoryBegin,
// importedMemoryBegin, importedFunctionsBegin) to every VMContext region
// this engine needs.
package vmoffsets

import "fmt"

// ModuleCounts is the module-derived input to VMOffsets: how many imported
// and locally defined entries exist in each entity class, plus how many
// distinct function signatures the module declares (for the
// VMSharedSignatureIndex array).
type ModuleCounts struct {
	NumSignatureIDs     uint32
	NumImportedFuncs    uint32
	NumImportedTables   uint32
	NumImportedMemories uint32
	NumImportedGlobals  uint32
	NumDefinedTables    uint32
	NumDefinedMemories  uint32
	NumDefinedGlobals   uint32
}

// Builtin indexes the 13-entry builtin function table. Adding an entry
// here is a JIT-ABI break.
type Builtin uint8

const (
	BuiltinMemory32Grow Builtin = iota
	BuiltinImportedMemory32Grow
	BuiltinMemory32Size
	BuiltinImportedMemory32Size
	BuiltinTableCopy
	BuiltinTableInit
	BuiltinElemDrop
	BuiltinDefinedMemoryCopy
	BuiltinImportedMemoryCopy
	BuiltinMemoryFill
	BuiltinImportedMemoryFill
	BuiltinMemoryInit
	BuiltinDataDrop

	numBuiltins = 13
)

// Record sizes, all in units of P = PointerSize unless stated otherwise.
const (
	vmFunctionImportWords = 2 // body, vmctx
	vmTableImportWords    = 2 // definition, from
	vmMemoryImportWords   = 2 // definition, from
	vmGlobalImportWords   = 1 // definition
	vmCallerCheckedWords  = 3 // func_ptr, type_index, vmctx

	vmTableDefinitionTailBytes  = 4 // current_elements
	vmMemoryDefinitionTailBytes = 4 // current_length
	vmGlobalDefinitionBytes     = 16
	vmSharedSignatureIDBytes    = 4
)

// VMOffsets computes every byte offset JIT code may touch into one
// instance's VMContext, deterministically from a pointer size and the
// module's import/definition counts.
type VMOffsets struct {
	pointerSize uint32
	counts      ModuleCounts

	signatureIDsBegin      uint32
	importedFunctionsBegin uint32
	importedTablesBegin    uint32
	importedMemoriesBegin  uint32
	importedGlobalsBegin   uint32
	definedTablesBegin     uint32
	definedMemoriesBegin   uint32
	definedGlobalsBegin    uint32
	builtinFunctionsBegin  uint32
	size                   uint32
}

// checkedAdd adds a and b, failing the process on overflow: overflow here
// means a malformed or hostile module, not a recoverable condition.
func checkedAdd(a, b uint32) uint32 {
	sum := a + b
	if sum < a {
		panic(fmt.Sprintf("vmoffsets: BUG: overflow adding %d + %d", a, b))
	}
	return sum
}

// checkedMul multiplies a and b, failing the process on overflow.
func checkedMul(a, b uint32) uint32 {
	if a == 0 || b == 0 {
		return 0
	}
	product := a * b
	if product/a != b {
		panic(fmt.Sprintf("vmoffsets: BUG: overflow multiplying %d * %d", a, b))
	}
	return product
}

// alignTo16 rounds n up to the next multiple of 16, the alignment
// VMGlobalDefinition's V128-sized value requires.
func alignTo16(n uint32) uint32 {
	return (n + 15) &^ 15
}

// New computes a VMOffsets for pointerSize (1, 2, 4, or 8; only 4 and 8 are
// supported by any real backend) and the given module counts.
func New(pointerSize uint32, counts ModuleCounts) *VMOffsets {
	if pointerSize == 0 {
		panic("vmoffsets: BUG: pointerSize must be nonzero")
	}
	o := &VMOffsets{pointerSize: pointerSize, counts: counts}

	cursor := uint32(0)

	o.signatureIDsBegin = cursor
	cursor = checkedAdd(cursor, checkedMul(counts.NumSignatureIDs, vmSharedSignatureIDBytes))

	o.importedFunctionsBegin = cursor
	cursor = checkedAdd(cursor, checkedMul(counts.NumImportedFuncs, pointerSize*vmFunctionImportWords))

	o.importedTablesBegin = cursor
	cursor = checkedAdd(cursor, checkedMul(counts.NumImportedTables, pointerSize*vmTableImportWords))

	o.importedMemoriesBegin = cursor
	cursor = checkedAdd(cursor, checkedMul(counts.NumImportedMemories, pointerSize*vmMemoryImportWords))

	o.importedGlobalsBegin = cursor
	cursor = checkedAdd(cursor, checkedMul(counts.NumImportedGlobals, pointerSize*vmGlobalImportWords))

	o.definedTablesBegin = cursor
	tableDefSize := checkedAdd(pointerSize, vmTableDefinitionTailBytes)
	// VMTableDefinition is specified as 2P total (base + current_elements,
	// padded); pick whichever is larger so 4-byte current_elements never
	// overlaps the next record.
	if tableDefSize < 2*pointerSize {
		tableDefSize = 2 * pointerSize
	}
	cursor = checkedAdd(cursor, checkedMul(counts.NumDefinedTables, tableDefSize))

	o.definedMemoriesBegin = cursor
	memDefSize := checkedAdd(pointerSize, vmMemoryDefinitionTailBytes)
	cursor = checkedAdd(cursor, checkedMul(counts.NumDefinedMemories, memDefSize))

	// Globals region begins 16-byte aligned (V128 alignment); no other
	// region imposes alignment beyond natural pointer alignment.
	cursor = alignTo16(cursor)
	o.definedGlobalsBegin = cursor
	cursor = checkedAdd(cursor, checkedMul(counts.NumDefinedGlobals, vmGlobalDefinitionBytes))

	o.builtinFunctionsBegin = cursor
	cursor = checkedAdd(cursor, pointerSize*numBuiltins)

	o.size = cursor
	return o
}

// PointerSize returns the pointer width this VMOffsets was computed for.
func (o *VMOffsets) PointerSize() uint32 { return o.pointerSize }

// Size returns the total VMContext size in bytes.
func (o *VMOffsets) Size() uint32 { return o.size }

// check panics if off is not within [0, o.size): any such index is a bug,
// since the caller has already validated the module.
func (o *VMOffsets) check(off uint32) uint32 {
	if off >= o.size {
		panic(fmt.Sprintf("vmoffsets: BUG: offset %d out of range [0, %d)", off, o.size))
	}
	return off
}

// VMContextSignatureIDsBegin is the offset of the VMSharedSignatureIndex array.
func (o *VMOffsets) VMContextSignatureIDsBegin() uint32 { return o.signatureIDsBegin }

// VMContextImportedFunctionsBegin is the offset of the imported-functions array.
func (o *VMOffsets) VMContextImportedFunctionsBegin() uint32 { return o.importedFunctionsBegin }

// VMContextImportedTablesBegin is the offset of the imported-tables array.
func (o *VMOffsets) VMContextImportedTablesBegin() uint32 { return o.importedTablesBegin }

// VMContextImportedMemoriesBegin is the offset of the imported-memories array.
func (o *VMOffsets) VMContextImportedMemoriesBegin() uint32 { return o.importedMemoriesBegin }

// VMContextImportedGlobalsBegin is the offset of the imported-globals array.
func (o *VMOffsets) VMContextImportedGlobalsBegin() uint32 { return o.importedGlobalsBegin }

// VMContextDefinedTablesBegin is the offset of the defined-tables array.
func (o *VMOffsets) VMContextDefinedTablesBegin() uint32 { return o.definedTablesBegin }

// VMContextDefinedMemoriesBegin is the offset of the defined-memories array.
func (o *VMOffsets) VMContextDefinedMemoriesBegin() uint32 { return o.definedMemoriesBegin }

// VMContextDefinedGlobalsBegin is the offset of the defined-globals array,
// always 16-byte aligned.
func (o *VMOffsets) VMContextDefinedGlobalsBegin() uint32 { return o.definedGlobalsBegin }

// VMContextBuiltinFunctionsBegin is the offset of the 13-entry builtin
// function table.
func (o *VMOffsets) VMContextBuiltinFunctionsBegin() uint32 { return o.builtinFunctionsBegin }

// VMSignatureID returns the offset of the i'th VMSharedSignatureIndex.
func (o *VMOffsets) VMSignatureID(i uint32) uint32 {
	return o.check(o.signatureIDsBegin + i*vmSharedSignatureIDBytes)
}

// VMFunctionImportBody returns the offset of the i'th imported function's body pointer.
func (o *VMOffsets) VMFunctionImportBody(i uint32) uint32 {
	if i >= o.counts.NumImportedFuncs {
		panic(fmt.Sprintf("vmoffsets: BUG: imported function index %d out of range [0, %d)", i, o.counts.NumImportedFuncs))
	}
	return o.check(o.importedFunctionsBegin + i*o.pointerSize*vmFunctionImportWords)
}

// VMFunctionImportVmctx returns the offset of the i'th imported function's vmctx pointer.
func (o *VMOffsets) VMFunctionImportVmctx(i uint32) uint32 {
	return o.check(o.importedFunctionsBegin + i*o.pointerSize*vmFunctionImportWords + o.pointerSize)
}

// VMTableImportFrom returns the offset of the i'th imported table's source pointer.
func (o *VMOffsets) VMTableImportFrom(i uint32) uint32 {
	return o.check(o.importedTablesBegin + i*o.pointerSize*vmTableImportWords + o.pointerSize)
}

// VMMemoryImportFrom returns the offset of the i'th imported memory's source pointer.
func (o *VMOffsets) VMMemoryImportFrom(i uint32) uint32 {
	return o.check(o.importedMemoriesBegin + i*o.pointerSize*vmMemoryImportWords + o.pointerSize)
}

// VMGlobalImportDefinition returns the offset of the i'th imported global's definition pointer.
func (o *VMOffsets) VMGlobalImportDefinition(i uint32) uint32 {
	return o.check(o.importedGlobalsBegin + i*o.pointerSize*vmGlobalImportWords)
}

// VMTableDefinitionBase returns the offset of the i'th defined table's base pointer.
func (o *VMOffsets) VMTableDefinitionBase(i uint32) uint32 {
	size := 2 * o.pointerSize
	return o.check(o.definedTablesBegin + i*size)
}

// VMTableDefinitionCurrentElements returns the offset of the i'th defined
// table's current_elements counter.
func (o *VMOffsets) VMTableDefinitionCurrentElements(i uint32) uint32 {
	size := 2 * o.pointerSize
	return o.check(o.definedTablesBegin + i*size + o.pointerSize)
}

// VMMemoryDefinitionBase returns the offset of the i'th defined memory's base pointer.
func (o *VMOffsets) VMMemoryDefinitionBase(i uint32) uint32 {
	size := o.pointerSize + vmMemoryDefinitionTailBytes
	return o.check(o.definedMemoriesBegin + i*size)
}

// VMMemoryDefinitionCurrentLength returns the offset of the i'th defined
// memory's current_length counter.
func (o *VMOffsets) VMMemoryDefinitionCurrentLength(i uint32) uint32 {
	size := o.pointerSize + vmMemoryDefinitionTailBytes
	return o.check(o.definedMemoriesBegin + i*size + o.pointerSize)
}

// VMGlobalDefinitionValue returns the offset of the i'th defined global's
// 16-byte value slot.
func (o *VMOffsets) VMGlobalDefinitionValue(i uint32) uint32 {
	return o.check(o.definedGlobalsBegin + i*vmGlobalDefinitionBytes)
}

// VMBuiltinFunction returns the offset of the given builtin's slot in the
// builtin function table.
func (o *VMOffsets) VMBuiltinFunction(b Builtin) uint32 {
	return o.check(o.builtinFunctionsBegin + uint32(b)*o.pointerSize)
}

// VMCallerCheckedAnyfuncSize is the size in bytes of one
// VMCallerCheckedAnyfunc record (func_ptr, type_index, vmctx).
func (o *VMOffsets) VMCallerCheckedAnyfuncSize() uint32 {
	return o.pointerSize * vmCallerCheckedWords
}
