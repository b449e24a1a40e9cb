// Package wasmtest assembles minimal, hand-built WebAssembly v1 binaries
// for exercising internal/binary and end-to-end instantiation scenarios,
// without depending on an external wat2wasm toolchain. It is test-only
// support code, imported solely from _test.go files across the module.
package wasmtest

import "bytes"

// Builder accumulates a Wasm binary module section by section.
type Builder struct {
	buf bytes.Buffer
}

// New starts a Builder already holding the \0asm header and version 1.
func New() *Builder {
	b := &Builder{}
	b.buf.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	return b
}

// Bytes returns the assembled module.
func (b *Builder) Bytes() []byte { return b.buf.Bytes() }

func uleb128(v uint32) []byte {
	var out []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		out = append(out, c)
		if v == 0 {
			return out
		}
	}
}

func sleb128(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func vec(items [][]byte) []byte {
	var out []byte
	out = append(out, uleb128(uint32(len(items)))...)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func name(s string) []byte {
	return append(uleb128(uint32(len(s))), []byte(s)...)
}

// section appends a section with the given id and raw body, length-prefixed.
func (b *Builder) section(id byte, body []byte) *Builder {
	b.buf.WriteByte(id)
	b.buf.Write(uleb128(uint32(len(body))))
	b.buf.Write(body)
	return b
}

// ValueType byte constants, matching internal/wasm.ValueType.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
	F32 byte = 0x7d
	F64 byte = 0x7c
)

// FuncType describes one entry of the Type section.
type FuncType struct {
	Params  []byte
	Results []byte
}

func encodeFuncType(ft FuncType) []byte {
	out := []byte{0x60}
	out = append(out, uleb128(uint32(len(ft.Params)))...)
	out = append(out, ft.Params...)
	out = append(out, uleb128(uint32(len(ft.Results)))...)
	out = append(out, ft.Results...)
	return out
}

// TypeSection appends a Type section.
func (b *Builder) TypeSection(types ...FuncType) *Builder {
	items := make([][]byte, len(types))
	for i, t := range types {
		items[i] = encodeFuncType(t)
	}
	return b.section(1, vec(items))
}

// FuncImport describes one function import.
type FuncImport struct {
	Module, Field string
	TypeIndex     uint32
}

// ImportSection appends an Import section of function imports only (the
// only kind this builder's scenarios need).
func (b *Builder) ImportSection(imports ...FuncImport) *Builder {
	items := make([][]byte, len(imports))
	for i, imp := range imports {
		var e []byte
		e = append(e, name(imp.Module)...)
		e = append(e, name(imp.Field)...)
		e = append(e, 0x00) // func import kind
		e = append(e, uleb128(imp.TypeIndex)...)
		items[i] = e
	}
	return b.section(2, vec(items))
}

// FunctionSection appends a Function section mapping each defined function
// to its type index, in order.
func (b *Builder) FunctionSection(typeIndices ...uint32) *Builder {
	items := make([][]byte, len(typeIndices))
	for i, t := range typeIndices {
		items[i] = uleb128(t)
	}
	return b.section(3, vec(items))
}

// TableType describes one table declaration. ElemType follows the binary
// format: 0x70 funcref, 0x6f externref.
type TableType struct {
	ElemType byte
	Min, Max uint32
	HasMax   bool
}

// TableSection appends a Table section.
func (b *Builder) TableSection(tables ...TableType) *Builder {
	items := make([][]byte, len(tables))
	for i, t := range tables {
		e := []byte{t.ElemType}
		var flags byte
		if t.HasMax {
			flags = 0x01
		}
		e = append(e, flags)
		e = append(e, uleb128(t.Min)...)
		if t.HasMax {
			e = append(e, uleb128(t.Max)...)
		}
		items[i] = e
	}
	return b.section(4, vec(items))
}

// Memory describes one memory declaration.
type Memory struct {
	Min, Max uint32
	HasMax   bool
	Shared   bool
}

// MemorySection appends a Memory section.
func (b *Builder) MemorySection(mems ...Memory) *Builder {
	items := make([][]byte, len(mems))
	for i, m := range mems {
		var flags byte
		if m.HasMax {
			flags |= 0x01
		}
		if m.Shared {
			flags |= 0x02
		}
		e := []byte{flags}
		e = append(e, uleb128(m.Min)...)
		if m.HasMax {
			e = append(e, uleb128(m.Max)...)
		}
		items[i] = e
	}
	return b.section(5, vec(items))
}

// Export describes one export entry. Kind follows the binary format: 0x00
// func, 0x01 table, 0x02 memory, 0x03 global.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// ExportSection appends an Export section.
func (b *Builder) ExportSection(exports ...Export) *Builder {
	items := make([][]byte, len(exports))
	for i, e := range exports {
		var entry []byte
		entry = append(entry, name(e.Name)...)
		entry = append(entry, e.Kind)
		entry = append(entry, uleb128(e.Index)...)
		items[i] = entry
	}
	return b.section(7, vec(items))
}

// StartSection appends a Start section naming funcIndex.
func (b *Builder) StartSection(funcIndex uint32) *Builder {
	return b.section(8, uleb128(funcIndex))
}

// CodeSection appends a Code section; each entry in bodies is the raw
// instruction stream (no local declarations, no trailing 0x0B — both are
// added here).
func (b *Builder) CodeSection(bodies ...[]byte) *Builder {
	items := make([][]byte, len(bodies))
	for i, code := range bodies {
		body := append([]byte{0x00}, code...) // zero local-declaration groups
		body = append(body, 0x0b)              // end
		items[i] = append(uleb128(uint32(len(body))), body...)
	}
	return b.section(10, vec(items))
}

// Instruction helpers, returning raw opcode+immediate bytes.

func LocalGet(idx uint32) []byte  { return append([]byte{0x20}, uleb128(idx)...) }
func Call(idx uint32) []byte      { return append([]byte{0x10}, uleb128(idx)...) }
func I32Const(v int32) []byte     { return append([]byte{0x41}, sleb128(int64(v))...) }

var (
	I32Add      = []byte{0x6a}
	Unreachable = []byte{0x00}
	Drop        = []byte{0x1a}
)

// Concat joins instruction byte slices into one body.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
