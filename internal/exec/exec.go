// Package exec is the reference instruction interpreter this engine runs
// function bodies with. Concrete codegen backends (Cranelift/LLVM
// adapters) are external collaborators that satisfy the CompilerConfig
// contract (internal/compiler); this package is what stands in for one
// so exported functions are actually runnable without a real JIT.
//
// Grounded on wazero's own bytecode-walking engine choice: wazero
// ships exactly this kind of direct Wasm-bytecode interpreter alongside its
// JIT (wasm/interpreter, wasm/naivevm), rather than lowering to an
// intermediate representation first. This interpreter keeps that shape: a
// flat []uint64 value stack (matching internal/nativefunc's ABI so host
// calls need no extra marshalling), a control-frame stack for
// block/loop/if, and a single decode-and-dispatch loop over the raw
// function body bytes internal/binary's translator already sliced out.
package exec

import (
	"context"
	"math"
	"math/bits"

	"github.com/corewasm/corewasm/internal/binary"
	"github.com/corewasm/corewasm/internal/sourceloc"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
)

// Memory is a linear memory instance: a contiguously addressable byte slice
// that can grow up to an optional maximum, measured in 64KiB pages.
type Memory struct {
	Data   []byte
	Max    *uint32 // nil means no declared maximum
}

const wasmPageSize = 64 * 1024

// NewMemory allocates a Memory with minPages already committed.
func NewMemory(minPages uint32, max *uint32) *Memory {
	return &Memory{Data: make([]byte, int(minPages)*wasmPageSize), Max: max}
}

// Pages returns the current size in 64KiB pages.
func (m *Memory) Pages() uint32 { return uint32(len(m.Data) / wasmPageSize) }

// Grow appends delta pages, returning the previous page count, or
// (0, false) if that would exceed Max.
func (m *Memory) Grow(delta uint32) (uint32, bool) {
	old := m.Pages()
	if m.Max != nil && old+delta > *m.Max {
		return 0, false
	}
	m.Data = append(m.Data, make([]byte, int(delta)*wasmPageSize)...)
	return old, true
}

// Table is a table instance: a dense array of function indices (or the
// null sentinel) addressable by call_indirect.
type Table struct {
	Elems []uint32
	Max   *uint32
}

// NullElem marks an uninitialized/null table slot.
const NullElem = ^uint32(0)

// NewTable allocates a Table with minLen null-initialized slots.
func NewTable(minLen uint32, max *uint32) *Table {
	elems := make([]uint32, minLen)
	for i := range elems {
		elems[i] = NullElem
	}
	return &Table{Elems: elems, Max: max}
}

// Host is everything the interpreter needs from whatever owns the running
// instance: crossing into other functions (local or imported), and
// reaching memories/tables/globals by index. internal/instance implements
// this over its InstanceHandle.
type Host interface {
	CallFunc(ctx context.Context, idx wasm.FuncIndex, args []uint64) ([]uint64, error)
	Memory(idx wasm.MemoryIndex) *Memory
	Table(idx wasm.TableIndex) *Table
	GlobalGet(idx wasm.GlobalIndex) uint64
	GlobalSet(idx wasm.GlobalIndex, v uint64)
	FuncType(idx wasm.FuncIndex) *wasm.FuncType
	SignatureType(idx wasm.SignatureIndex) *wasm.FuncType
	TableFuncSignature(tableIdx wasm.TableIndex, elemIdx uint32) (wasm.FuncIndex, bool)

	// Symbolicate reports what is known about idx for attaching to a
	// RuntimeError raised while idx's body is running. ok is false when
	// the Host knows neither a name nor a code offset for idx.
	Symbolicate(idx wasm.FuncIndex) (FrameInfo, bool)
}

// FrameInfo is the diagnostic information a Host can supply about a
// function for a trap raised inside it.
type FrameInfo struct {
	// Name is the module's declared name for the function, empty if it
	// declared none.
	Name string
	// CodeOffset is the function's start within its module's compiled code
	// page; HasCodeOffset is false for imported functions, which have no
	// such page.
	CodeOffset    uint64
	HasCodeOffset bool
}

// Run interprets body (the function named by idx) against params, returning
// the function's results or a *wasmerrors.RuntimeError on trap. ctx is
// threaded through to host function calls only; the interpreter itself
// never suspends.
func Run(ctx context.Context, host Host, idx wasm.FuncIndex, body wasm.FuncBody, sig *wasm.FuncType, params []uint64) (results []uint64, err error) {
	locals := make([]uint64, len(params)+len(body.LocalTypes))
	copy(locals, params)

	m := &machine{
		ctx:          ctx,
		host:         host,
		code:         body.Bytes,
		locals:       locals,
		moduleOffset: body.ModuleOffset,
		funcIdx:      idx,
	}

	defer func() {
		if r := recover(); r != nil {
			if rt, ok := r.(*wasmerrors.RuntimeError); ok {
				err = rt
				return
			}
			panic(r)
		}
	}()

	m.run()

	n := len(sig.Results)
	if len(m.stack) < n {
		panic(wasmerrors.FromTrap(wasmerrors.TrapStackOverflow))
	}
	return append([]uint64(nil), m.stack[len(m.stack)-n:]...), nil
}

type controlKind byte

const (
	ctrlBlock controlKind = iota
	ctrlLoop
	ctrlIf
)

type control struct {
	kind        controlKind
	stackHeight int
	arity       int // number of result values the label produces on normal exit
	contPos     int // br target: end of block/if, or start of loop body
}

type machine struct {
	ctx          context.Context
	host         Host
	code         []byte
	ip           int
	locals       []uint64
	stack        []uint64
	ctrl         []control
	moduleOffset uint32
	funcIdx      wasm.FuncIndex
}

func (m *machine) push(v uint64)  { m.stack = append(m.stack, v) }
func (m *machine) pop() uint64 {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}
func (m *machine) pushI32(v int32)     { m.push(uint64(uint32(v))) }
func (m *machine) popI32() int32       { return int32(uint32(m.pop())) }
func (m *machine) popU32() uint32      { return uint32(m.pop()) }
func (m *machine) pushI64(v int64)     { m.push(uint64(v)) }
func (m *machine) popI64() int64       { return int64(m.pop()) }
func (m *machine) pushF32(v float32)   { m.push(uint64(math.Float32bits(v))) }
func (m *machine) popF32() float32     { return math.Float32frombits(uint32(m.pop())) }
func (m *machine) pushF64(v float64)   { m.push(math.Float64bits(v)) }
func (m *machine) popF64() float64     { return math.Float64frombits(m.pop()) }

func trap(kind wasmerrors.TrapKind) {
	panic(wasmerrors.FromTrap(kind))
}

// trap panics with the trapping instruction's position already attached,
// for use anywhere the current machine is in scope. scanBlock calls the
// free trap() above instead: it runs ahead of execution, scanning a
// block/loop/if for its matching end, with no instruction currently
// "current". The position is module-relative (wasm.FuncBody.ModuleOffset
// plus the in-body instruction pointer), matching what SourceLoc is
// measured against per FuncBody's own doc comment.
func (m *machine) trap(kind wasmerrors.TrapKind) {
	rt := wasmerrors.FromTrapAt(kind, sourceloc.New(m.moduleOffset+uint32(m.ip)))
	if fi, ok := m.host.Symbolicate(m.funcIdx); ok {
		rt.WithFrame(fi.Name)
		if fi.HasCodeOffset {
			rt.WithCodeOffset(fi.CodeOffset)
		}
	}
	panic(rt)
}

// cursor decodes an opcode's immediate LEB128/flag operands by wrapping the
// remaining code in a small io.ByteReader, matching exactly the primitives
// internal/binary used to find this body's boundaries.
type cursor struct {
	m *machine
}

func (c cursor) ReadByte() (byte, error) {
	if c.m.ip >= len(c.m.code) {
		return 0, errEOFBody
	}
	b := c.m.code[c.m.ip]
	c.m.ip++
	return b, nil
}

var errEOFBody = &wasmerrors.WasmError{Message: "function body truncated mid-instruction"}

func (m *machine) readByte() byte {
	b, err := binary.ReadByte(cursor{m})
	if err != nil {
		panic(&wasmerrors.WasmError{Message: "BUG: truncated function body"})
	}
	return b
}
func (m *machine) readVarU32() uint32 {
	v, err := binary.ReadVarU32(cursor{m})
	if err != nil {
		panic(&wasmerrors.WasmError{Message: "BUG: malformed immediate"})
	}
	return v
}
func (m *machine) readVarI32() int32 {
	v, err := binary.ReadVarI32(cursor{m})
	if err != nil {
		panic(&wasmerrors.WasmError{Message: "BUG: malformed immediate"})
	}
	return v
}
func (m *machine) readVarI64() int64 {
	v, err := binary.ReadVarI64(cursor{m})
	if err != nil {
		panic(&wasmerrors.WasmError{Message: "BUG: malformed immediate"})
	}
	return v
}
func (m *machine) readF32() float32 {
	v, err := binary.ReadF32Bits(cursor{m})
	if err != nil {
		panic(&wasmerrors.WasmError{Message: "BUG: malformed immediate"})
	}
	return math.Float32frombits(v)
}
func (m *machine) readF64() float64 {
	v, err := binary.ReadF64Bits(cursor{m})
	if err != nil {
		panic(&wasmerrors.WasmError{Message: "BUG: malformed immediate"})
	}
	return math.Float64frombits(v)
}

// blockArity decodes a block's 0x40 (empty) or single-valtype blocktype
// byte into its result arity. Multi-value (type-index) block types are not
// supported here, even though DefaultFeatures enables MultiValue.
func (m *machine) blockArity() int {
	bt := m.readByte()
	if bt == 0x40 {
		return 0
	}
	return 1
}

// scanBlock scans forward from the instruction right after a block/loop/if
// opcode's blocktype byte, returning the position of its matching `else`
// (or -1 if none, or not an `if`) and the position right after its
// matching `end`.
func scanBlock(code []byte, pos int) (elsePos, endPos int) {
	depth := 0
	elsePos = -1
	p := pos
	for p < len(code) {
		op := code[p]
		p++
		switch op {
		case 0x02, 0x03, 0x04: // block, loop, if
			depth++
			p = skipImmediate(code, p, op)
		case 0x05: // else
			if depth == 0 {
				elsePos = p - 1
			}
		case 0x0B: // end
			if depth == 0 {
				return elsePos, p
			}
			depth--
		default:
			p = skipImmediate(code, p, op)
		}
	}
	trap(wasmerrors.TrapUnreachable)
	return
}

// skipImmediate advances past op's fixed/LEB128 immediates (not counting
// the blocktype byte already consumed by scanBlock's caller for
// block/loop/if, which this function handles itself when called from
// scanBlock directly after those opcodes).
func skipImmediate(code []byte, p int, op byte) int {
	readLEB := func(p int) int {
		for p < len(code) && code[p]&0x80 != 0 {
			p++
		}
		return p + 1
	}
	switch op {
	case 0x02, 0x03, 0x04: // blocktype byte
		return p + 1
	case 0x0C, 0x0D, 0x10, 0x20, 0x21, 0x22, 0x23, 0x24, 0x41, 0x3F, 0x40: // single LEB128 operand
		return readLEB(p)
	case 0x42: // i64.const
		return readLEB(p)
	case 0x11: // call_indirect: typeidx, tableidx
		p = readLEB(p)
		return readLEB(p)
	case 0x0E: // br_table: vec(labelidx) + default labelidx
		return readBrTable(code, p)
	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35,
		0x36, 0x37, 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E: // memarg: align, offset
		p = readLEB(p)
		return readLEB(p)
	case 0x43: // f32.const
		return p + 4
	case 0x44: // f64.const
		return p + 8
	default:
		return p
	}
}

func readBrTable(code []byte, p int) int {
	readLEB := func(p int) int {
		for p < len(code) && code[p]&0x80 != 0 {
			p++
		}
		return p + 1
	}
	count := 0
	start := p
	// decode vector count first
	cp := start
	v := uint32(0)
	shift := uint(0)
	for {
		b := code[cp]
		cp++
		v |= uint32(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	count = int(v)
	p = cp
	for i := 0; i < count+1; i++ { // +1 default label
		p = readLEB(p)
	}
	return p
}

func (m *machine) run() {
	for m.ip < len(m.code) {
		op := m.code[m.ip]
		m.ip++
		switch op {
		case 0x00: // unreachable
			m.trap(wasmerrors.TrapUnreachable)
		case 0x01: // nop
		case 0x02: // block
			arity := m.blockArity()
			_, end := scanBlock(m.code, m.ip)
			m.ctrl = append(m.ctrl, control{kind: ctrlBlock, stackHeight: len(m.stack), arity: arity, contPos: end})
		case 0x03: // loop
			m.readByte() // blocktype; loop's branch target is its start, param arity unused here
			loopStart := m.ip
			m.ctrl = append(m.ctrl, control{kind: ctrlLoop, stackHeight: len(m.stack), arity: 0, contPos: loopStart})
		case 0x04: // if
			arity := m.blockArity()
			elsePos, end := scanBlock(m.code, m.ip)
			cond := m.popI32()
			m.ctrl = append(m.ctrl, control{kind: ctrlIf, stackHeight: len(m.stack), arity: arity, contPos: end})
			if cond == 0 {
				if elsePos >= 0 {
					m.ip = elsePos + 1
				} else {
					m.ip = end
					m.ctrl = m.ctrl[:len(m.ctrl)-1]
				}
			}
		case 0x05: // else: reached by falling through the if-branch; skip to end.
			top := m.ctrl[len(m.ctrl)-1]
			m.ip = top.contPos
			m.ctrl = m.ctrl[:len(m.ctrl)-1]
		case 0x0B: // end
			if len(m.ctrl) == 0 {
				return // function end
			}
			m.ctrl = m.ctrl[:len(m.ctrl)-1]
		case 0x0C: // br
			depth := m.readVarU32()
			m.branch(int(depth))
		case 0x0D: // br_if
			depth := m.readVarU32()
			if m.popI32() != 0 {
				m.branch(int(depth))
			}
		case 0x0E: // br_table
			n := m.readVarU32()
			labels := make([]uint32, n)
			for i := range labels {
				labels[i] = m.readVarU32()
			}
			def := m.readVarU32()
			idx := uint32(m.popI32())
			target := def
			if idx < n {
				target = labels[idx]
			}
			m.branch(int(target))
		case 0x0F: // return
			m.ip = len(m.code) // force loop exit; caller trims to result arity
			m.ctrl = m.ctrl[:0]
		case 0x10: // call
			idx := wasm.FuncIndex(m.readVarU32())
			m.call(idx)
		case 0x11: // call_indirect
			sigIdx := wasm.SignatureIndex(m.readVarU32())
			tableIdx := wasm.TableIndex(m.readVarU32())
			elemIdx := m.popU32()
			funcIdx, ok := m.host.TableFuncSignature(tableIdx, elemIdx)
			if !ok {
				m.trap(wasmerrors.TrapUninitializedElement)
			}
			want := m.host.SignatureType(sigIdx)
			got := m.host.FuncType(funcIdx)
			if !want.Equals(got) {
				m.trap(wasmerrors.TrapIndirectCallTypeMismatch)
			}
			m.call(funcIdx)
		case 0x1A: // drop
			m.pop()
		case 0x1B: // select
			cond := m.popI32()
			b := m.pop()
			a := m.pop()
			if cond != 0 {
				m.push(a)
			} else {
				m.push(b)
			}
		case 0x20: // local.get
			m.push(m.locals[m.readVarU32()])
		case 0x21: // local.set
			idx := m.readVarU32()
			m.locals[idx] = m.pop()
		case 0x22: // local.tee
			idx := m.readVarU32()
			v := m.stack[len(m.stack)-1]
			m.locals[idx] = v
		case 0x23: // global.get
			m.push(m.host.GlobalGet(wasm.GlobalIndex(m.readVarU32())))
		case 0x24: // global.set
			idx := wasm.GlobalIndex(m.readVarU32())
			m.host.GlobalSet(idx, m.pop())
		case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F, 0x30, 0x31, 0x32, 0x33, 0x34, 0x35:
			m.execLoad(op)
		case 0x36, 0x37, 0x38, 0x39, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E:
			m.execStore(op)
		case 0x3F: // memory.size
			m.readVarU32() // memidx, reserved
			m.pushI32(int32(m.host.Memory(0).Pages()))
		case 0x40: // memory.grow
			m.readVarU32()
			delta := uint32(m.popI32())
			old, ok := m.host.Memory(0).Grow(delta)
			if !ok {
				m.pushI32(-1)
			} else {
				m.pushI32(int32(old))
			}
		case 0x41:
			m.pushI32(m.readVarI32())
		case 0x42:
			m.pushI64(m.readVarI64())
		case 0x43:
			m.pushF32(m.readF32())
		case 0x44:
			m.pushF64(m.readF64())
		default:
			m.execNumeric(op)
		}
	}
}

// branch implements br/br_if/br_table's target resolution: pop depth+1
// labels, preserving the target label's arity worth of result values —
// the standard Wasm br semantics, needed to make block/loop results
// observable at all.
func (m *machine) branch(depth int) {
	if depth >= len(m.ctrl) {
		m.trap(wasmerrors.TrapUnreachable)
	}
	target := m.ctrl[len(m.ctrl)-1-depth]
	if target.kind == ctrlLoop {
		m.stack = m.stack[:target.stackHeight]
		m.ctrl = m.ctrl[:len(m.ctrl)-depth]
		m.ip = target.contPos
		return
	}
	results := append([]uint64(nil), m.stack[len(m.stack)-target.arity:]...)
	m.stack = m.stack[:target.stackHeight]
	m.stack = append(m.stack, results...)
	m.ctrl = m.ctrl[:len(m.ctrl)-depth-1]
	m.ip = target.contPos
}

func (m *machine) call(idx wasm.FuncIndex) {
	sig := m.host.FuncType(idx)
	args := append([]uint64(nil), m.stack[len(m.stack)-len(sig.Params):]...)
	m.stack = m.stack[:len(m.stack)-len(sig.Params)]
	results, err := m.host.CallFunc(m.ctx, idx, args)
	if err != nil {
		panic(toRuntimeError(err))
	}
	for _, r := range results {
		m.push(r)
	}
}

func toRuntimeError(err error) *wasmerrors.RuntimeError {
	if rt, ok := err.(*wasmerrors.RuntimeError); ok {
		return rt
	}
	return wasmerrors.FromUserPayload(err)
}

func (m *machine) memArg() (align, offset uint32) {
	align = m.readVarU32()
	offset = m.readVarU32()
	return
}

func (m *machine) execLoad(op byte) {
	_, offset := m.memArg()
	addr := uint32(m.popI32()) + offset
	mem := m.host.Memory(0)
	read := func(n int) []byte {
		if uint64(addr)+uint64(n) > uint64(len(mem.Data)) {
			m.trap(wasmerrors.TrapOutOfBoundsMemoryAccess)
		}
		return mem.Data[addr : addr+uint32(n)]
	}
	switch op {
	case 0x28:
		b := read(4)
		m.pushI32(int32(littleEndianU32(b)))
	case 0x29:
		b := read(8)
		m.pushI64(int64(littleEndianU64(b)))
	case 0x2A:
		b := read(4)
		m.push(uint64(littleEndianU32(b)))
	case 0x2B:
		b := read(8)
		m.push(littleEndianU64(b))
	case 0x2C:
		m.pushI32(int32(int8(read(1)[0])))
	case 0x2D:
		m.pushI32(int32(read(1)[0]))
	case 0x2E:
		m.pushI32(int32(int16(littleEndianU16(read(2)))))
	case 0x2F:
		m.pushI32(int32(littleEndianU16(read(2))))
	case 0x30:
		m.pushI64(int64(int8(read(1)[0])))
	case 0x31:
		m.pushI64(int64(read(1)[0]))
	case 0x32:
		m.pushI64(int64(int16(littleEndianU16(read(2)))))
	case 0x33:
		m.pushI64(int64(littleEndianU16(read(2))))
	case 0x34:
		m.pushI64(int64(int32(littleEndianU32(read(4)))))
	case 0x35:
		m.pushI64(int64(littleEndianU32(read(4))))
	}
}

func (m *machine) execStore(op byte) {
	_, offset := m.memArg()
	var raw uint64
	switch op {
	case 0x37, 0x39, 0x3C, 0x3D, 0x3E: // i64 stores (full or narrowing)
		raw = m.pop()
	default: // i32 stores (full or narrowing) and f32 store
		raw = uint64(m.popU32())
	}
	addr := uint32(m.popI32()) + offset
	mem := m.host.Memory(0)
	write := func(n int, v uint64) {
		if uint64(addr)+uint64(n) > uint64(len(mem.Data)) {
			m.trap(wasmerrors.TrapOutOfBoundsMemoryAccess)
		}
		for i := 0; i < n; i++ {
			mem.Data[addr+uint32(i)] = byte(v >> (8 * i))
		}
	}
	switch op {
	case 0x36, 0x38:
		write(4, raw)
	case 0x37, 0x39:
		write(8, raw)
	case 0x3A:
		write(1, raw)
	case 0x3B:
		write(2, raw)
	case 0x3C:
		write(1, raw)
	case 0x3D:
		write(2, raw)
	case 0x3E:
		write(4, raw)
	}
}

func littleEndianU16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func littleEndianU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func littleEndianU64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// execNumeric handles the comparison/arithmetic opcode ranges. A full
// numeric-opcode validator is out of scope; unrecognized opcodes here are
// a translator/test bug, not a reachable production path, since no
// compiler in this engine lowers code it hasn't itself walked.
func (m *machine) execNumeric(op byte) {
	switch {
	case op == 0x45: // i32.eqz
		m.pushBool(m.popI32() == 0)
	case op >= 0x46 && op <= 0x4F: // i32 comparisons
		b, a := m.popI32(), m.popI32()
		m.pushBool(cmpI32(op, a, b))
	case op == 0x50: // i64.eqz
		m.pushBool(m.popI64() == 0)
	case op >= 0x51 && op <= 0x5A: // i64 comparisons
		b, a := m.popI64(), m.popI64()
		m.pushBool(cmpI64(op, a, b))
	case op >= 0x5B && op <= 0x60: // f32 comparisons
		b, a := m.popF32(), m.popF32()
		m.pushBool(cmpF64(op-0x5B, float64(a), float64(b)))
	case op >= 0x61 && op <= 0x66: // f64 comparisons
		b, a := m.popF64(), m.popF64()
		m.pushBool(cmpF64(op-0x61, a, b))
	case op >= 0x67 && op <= 0x78: // i32 arithmetic
		m.i32Arith(op)
	case op >= 0x79 && op <= 0x8A: // i64 arithmetic
		m.i64Arith(op)
	case op >= 0x8B && op <= 0x98: // f32 arithmetic
		m.f32Arith(op)
	case op >= 0x99 && op <= 0xA6: // f64 arithmetic
		m.f64Arith(op)
	case op == 0xA7: // i32.wrap_i64
		m.pushI32(int32(m.popI64()))
	case op == 0xAC: // i64.extend_i32_s
		m.pushI64(int64(m.popI32()))
	case op == 0xAD: // i64.extend_i32_u
		m.pushI64(int64(uint32(m.popI32())))
	case op == 0xB2: // f32.convert_i32_s
		m.pushF32(float32(m.popI32()))
	case op == 0xB7: // f64.convert_i32_s
		m.pushF64(float64(m.popI32()))
	default:
		panic(&wasmerrors.WasmError{Message: "interpreter: unsupported opcode, see DESIGN.md"})
	}
}

func (m *machine) pushBool(b bool) {
	if b {
		m.pushI32(1)
	} else {
		m.pushI32(0)
	}
}

func cmpI32(op byte, a, b int32) bool {
	switch op {
	case 0x46:
		return a == b
	case 0x47:
		return a != b
	case 0x48:
		return a < b
	case 0x49:
		return uint32(a) < uint32(b)
	case 0x4A:
		return a > b
	case 0x4B:
		return uint32(a) > uint32(b)
	case 0x4C:
		return a <= b
	case 0x4D:
		return uint32(a) <= uint32(b)
	case 0x4E:
		return a >= b
	case 0x4F:
		return uint32(a) >= uint32(b)
	}
	return false
}

func cmpI64(op byte, a, b int64) bool {
	switch op {
	case 0x51:
		return a == b
	case 0x52:
		return a != b
	case 0x53:
		return a < b
	case 0x54:
		return uint64(a) < uint64(b)
	case 0x55:
		return a > b
	case 0x56:
		return uint64(a) > uint64(b)
	case 0x57:
		return a <= b
	case 0x58:
		return uint64(a) <= uint64(b)
	case 0x59:
		return a >= b
	case 0x5A:
		return uint64(a) >= uint64(b)
	}
	return false
}

func cmpF64(rel byte, a, b float64) bool {
	switch rel {
	case 0x00:
		return a == b
	case 0x01:
		return a != b
	case 0x02:
		return a < b
	case 0x03:
		return a > b
	case 0x04:
		return a <= b
	case 0x05:
		return a >= b
	}
	return false
}

func (m *machine) i32Arith(op byte) {
	if op == 0x67 || op == 0x68 || op == 0x69 {
		a := m.popI32()
		switch op {
		case 0x67:
			m.pushI32(int32(bits.LeadingZeros32(uint32(a))))
		case 0x68:
			m.pushI32(int32(bits.TrailingZeros32(uint32(a))))
		case 0x69:
			m.pushI32(int32(bits.OnesCount32(uint32(a))))
		}
		return
	}
	b, a := m.popI32(), m.popI32()
	switch op {
	case 0x6A:
		m.pushI32(a + b)
	case 0x6B:
		m.pushI32(a - b)
	case 0x6C:
		m.pushI32(a * b)
	case 0x6D:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		if a == math.MinInt32 && b == -1 {
			m.trap(wasmerrors.TrapIntegerOverflow)
		}
		m.pushI32(a / b)
	case 0x6E:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		m.pushI32(int32(uint32(a) / uint32(b)))
	case 0x6F:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		m.pushI32(a % b)
	case 0x70:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		m.pushI32(int32(uint32(a) % uint32(b)))
	case 0x71:
		m.pushI32(a & b)
	case 0x72:
		m.pushI32(a | b)
	case 0x73:
		m.pushI32(a ^ b)
	case 0x74:
		m.pushI32(a << (uint32(b) % 32))
	case 0x75:
		m.pushI32(a >> (uint32(b) % 32))
	case 0x76:
		m.pushI32(int32(uint32(a) >> (uint32(b) % 32)))
	case 0x77:
		m.pushI32(int32(bits.RotateLeft32(uint32(a), int(b))))
	case 0x78:
		m.pushI32(int32(bits.RotateLeft32(uint32(a), -int(b))))
	}
}

func (m *machine) i64Arith(op byte) {
	if op == 0x79 || op == 0x7A || op == 0x7B {
		a := m.popI64()
		switch op {
		case 0x79:
			m.pushI64(int64(bits.LeadingZeros64(uint64(a))))
		case 0x7A:
			m.pushI64(int64(bits.TrailingZeros64(uint64(a))))
		case 0x7B:
			m.pushI64(int64(bits.OnesCount64(uint64(a))))
		}
		return
	}
	b, a := m.popI64(), m.popI64()
	switch op {
	case 0x7C:
		m.pushI64(a + b)
	case 0x7D:
		m.pushI64(a - b)
	case 0x7E:
		m.pushI64(a * b)
	case 0x7F:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		if a == math.MinInt64 && b == -1 {
			m.trap(wasmerrors.TrapIntegerOverflow)
		}
		m.pushI64(a / b)
	case 0x80:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		m.pushI64(int64(uint64(a) / uint64(b)))
	case 0x81:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		m.pushI64(a % b)
	case 0x82:
		if b == 0 {
			m.trap(wasmerrors.TrapIntegerDivideByZero)
		}
		m.pushI64(int64(uint64(a) % uint64(b)))
	case 0x83:
		m.pushI64(a & b)
	case 0x84:
		m.pushI64(a | b)
	case 0x85:
		m.pushI64(a ^ b)
	case 0x86:
		m.pushI64(a << (uint64(b) % 64))
	case 0x87:
		m.pushI64(a >> (uint64(b) % 64))
	case 0x88:
		m.pushI64(int64(uint64(a) >> (uint64(b) % 64)))
	case 0x89:
		m.pushI64(int64(bits.RotateLeft64(uint64(a), int(b))))
	case 0x8A:
		m.pushI64(int64(bits.RotateLeft64(uint64(a), -int(b))))
	}
}

func (m *machine) f32Arith(op byte) {
	if op >= 0x8B && op <= 0x91 {
		a := m.popF32()
		switch op {
		case 0x8B:
			m.pushF32(float32(math.Abs(float64(a))))
		case 0x8C:
			m.pushF32(-a)
		case 0x8D:
			m.pushF32(float32(math.Ceil(float64(a))))
		case 0x8E:
			m.pushF32(float32(math.Floor(float64(a))))
		case 0x8F:
			m.pushF32(float32(math.Trunc(float64(a))))
		case 0x90:
			m.pushF32(float32(math.RoundToEven(float64(a))))
		case 0x91:
			m.pushF32(float32(math.Sqrt(float64(a))))
		}
		return
	}
	b, a := m.popF32(), m.popF32()
	switch op {
	case 0x92:
		m.pushF32(a + b)
	case 0x93:
		m.pushF32(a - b)
	case 0x94:
		m.pushF32(a * b)
	case 0x95:
		m.pushF32(a / b)
	case 0x96:
		m.pushF32(float32(math.Min(float64(a), float64(b))))
	case 0x97:
		m.pushF32(float32(math.Max(float64(a), float64(b))))
	case 0x98:
		m.pushF32(float32(math.Copysign(float64(a), float64(b))))
	}
}

func (m *machine) f64Arith(op byte) {
	if op >= 0x99 && op <= 0x9F {
		a := m.popF64()
		switch op {
		case 0x99:
			m.pushF64(math.Abs(a))
		case 0x9A:
			m.pushF64(-a)
		case 0x9B:
			m.pushF64(math.Ceil(a))
		case 0x9C:
			m.pushF64(math.Floor(a))
		case 0x9D:
			m.pushF64(math.Trunc(a))
		case 0x9E:
			m.pushF64(math.RoundToEven(a))
		case 0x9F:
			m.pushF64(math.Sqrt(a))
		}
		return
	}
	b, a := m.popF64(), m.popF64()
	switch op {
	case 0xA0:
		m.pushF64(a + b)
	case 0xA1:
		m.pushF64(a - b)
	case 0xA2:
		m.pushF64(a * b)
	case 0xA3:
		m.pushF64(a / b)
	case 0xA4:
		m.pushF64(math.Min(a, b))
	case 0xA5:
		m.pushF64(math.Max(a, b))
	case 0xA6:
		m.pushF64(math.Copysign(a, b))
	}
}
