package corewasm

import (
	"github.com/corewasm/corewasm/internal/exec"
	"github.com/corewasm/corewasm/internal/instance"
	"github.com/corewasm/corewasm/internal/wasm"
)

// Memory is an embedder handle onto a linear memory, either imported or
// obtained from an Instance's exports.
type Memory struct {
	mem *exec.Memory
}

// Data returns the memory's current backing bytes. The slice is only
// valid until the next Grow.
func (m *Memory) Data() []byte { return m.mem.Data }

// Pages returns the current size in 64KiB pages.
func (m *Memory) Pages() uint32 { return m.mem.Pages() }

// Grow appends delta pages, returning the previous size, or (0, false) if
// that would exceed the memory's declared maximum.
func (m *Memory) Grow(delta uint32) (uint32, bool) { return m.mem.Grow(delta) }

func (m *Memory) toExtern() *instance.Extern {
	return &instance.Extern{Kind: wasm.ExternKindMemory, Memory: m.mem}
}

// Table is an embedder handle onto a table of function references.
type Table struct {
	table *exec.Table
}

// Len returns the table's current length.
func (t *Table) Len() int { return len(t.table.Elems) }

func (t *Table) toExtern() *instance.Extern {
	return &instance.Extern{Kind: wasm.ExternKindTable, Table: t.table}
}

// Global is an embedder handle onto a global variable.
type Global struct {
	global *instance.GlobalExtern
}

// Type returns the global's value type and mutability.
func (g *Global) Type() wasm.GlobalType { return g.global.Type }

// Get returns the global's current value, bit-reinterpreted as its
// declared ValueType by the caller (matching the flat []uint64
// calling-convention used everywhere else in this engine).
func (g *Global) Get() uint64 { return g.global.Get() }

// Set assigns the global's value. Setting an immutable global is a
// programmer error the embedder is responsible for avoiding; this engine
// does not enforce behavior for it beyond what the Wasm module itself
// could already do to its own immutable globals (nothing).
func (g *Global) Set(v uint64) { g.global.Set(v) }

func (g *Global) toExtern() *instance.Extern {
	return &instance.Extern{Kind: wasm.ExternKindGlobal, Global: g.global}
}
