// Package wasm holds the intermediate representation produced by the
// translator: value and function types, the per-entity-class index spaces,
// and the append-only ModuleInfo that the rest of the engine is built on.
package wasm

import "strings"

// ValueType is one of the numeric or reference types the engine moves
// between the host and a running instance.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
	// ValueTypeV128 is a 16-byte SIMD value. Stubbed: the translator accepts
	// it in signatures but no lowering backend is expected to move it.
	ValueTypeV128 ValueType = 0x7b
	// ValueTypeFuncRef is an opaque reference to a function.
	ValueTypeFuncRef ValueType = 0x70
	// ValueTypeAnyRef is an opaque host reference. wazero-style externref;
	// kept distinct from FuncRef per spec.
	ValueTypeAnyRef ValueType = 0x6f
)

// String returns the WebAssembly text format name of t, or "unknown".
func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	case ValueTypeFuncRef:
		return "funcref"
	case ValueTypeAnyRef:
		return "externref"
	}
	return "unknown"
}

// Size returns the natural width of t in bytes. V128 is a 16-byte bag;
// everything else is at most 8 bytes.
func (t ValueType) Size() int {
	switch t {
	case ValueTypeI32, ValueTypeF32:
		return 4
	case ValueTypeI64, ValueTypeF64:
		return 8
	case ValueTypeV128:
		return 16
	case ValueTypeFuncRef, ValueTypeAnyRef:
		return 8 // one pointer-sized slot on every supported target.
	default:
		return 8
	}
}

// FuncType is an ordered sequence of parameter types and an ordered
// sequence of result types. Equality is structural (Equals), and Key gives
// a stable string suitable for deduplication maps — callers may fold equal
// FuncTypes to a canonical SignatureIndex; the translator itself does not
// (preserved intentionally, see DESIGN.md).
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equals reports whether f and o describe the same signature.
func (f *FuncType) Equals(o *FuncType) bool {
	if o == nil || len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i, p := range f.Params {
		if p != o.Params[i] {
			return false
		}
	}
	for i, r := range f.Results {
		if r != o.Results[i] {
			return false
		}
	}
	return true
}

// Key returns a stable, serializable representation of f, usable as a map
// key for signature interning.
func (f *FuncType) Key() string {
	var b strings.Builder
	for _, p := range f.Params {
		b.WriteByte(byte(p))
	}
	b.WriteByte(0xff) // separator, not a valid ValueType byte in this type system
	for _, r := range f.Results {
		b.WriteByte(byte(r))
	}
	return b.String()
}

// Mutability distinguishes constant globals from variable ones.
type Mutability byte

const (
	Const Mutability = iota
	Var
)

// GlobalInitKind enumerates the possible initializers of a GlobalType.
type GlobalInitKind byte

const (
	GlobalInitConstI32 GlobalInitKind = iota
	GlobalInitConstI64
	GlobalInitConstF32
	GlobalInitConstF64
	GlobalInitGetGlobal
	GlobalInitRefNull
	GlobalInitRefFunc
	GlobalInitImport
)

// GlobalInit is the tagged union of global initializer expressions: one
// of the *Const variants, GetGlobal(idx), RefNull, RefFunc(idx), or
// Import.
type GlobalInit struct {
	Kind GlobalInitKind
	I32  int32
	I64  int64
	F32  float32
	F64  float64
	// Index is the referenced global (GetGlobal) or function (RefFunc).
	Index uint32
}

// GlobalType is a value type, a mutability flag, and an initializer.
type GlobalType struct {
	ValType ValueType
	Mutable Mutability
	Init    GlobalInit
}

// TableType is an element type together with minimum and optional maximum
// length.
type TableType struct {
	ElemType ValueType // ValueTypeFuncRef or ValueTypeAnyRef
	Min      uint32
	Max      *uint32
}

// MemoryType is minimum/maximum page counts and the shared flag. The
// translator rejects Shared == true with WasmError.Unsupported.
type MemoryType struct {
	Min    uint32
	Max    *uint32
	Shared bool
}

// ExternKind classifies an Import or Export.
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

// ExternType is the payload of an Import or Export: exactly one of the
// following is meaningful, selected by Kind.
type ExternType struct {
	Kind   ExternKind
	Func   SignatureIndex
	Table  TableType
	Memory MemoryType
	Global GlobalType
}

// Import is a (module, field, type) triple. Names are UTF-8 and bounded by
// the limits the translator enforces while decoding.
type Import struct {
	Module string
	Field  string
	Type   ExternType
}

// Export is a (name, type) pair together with the index, within the index
// space its Kind selects, of the entity being exported. ExternType alone
// only pins down the entity's *shape* (a function's signature, say); Index
// is what lets instantiation actually find the function/table/memory/
// global being named.
type Export struct {
	Name  string
	Type  ExternType
	Index uint32
}
