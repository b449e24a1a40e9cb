// Package binary implements the Wasm translator: a streaming
// section-by-section decoder from a raw WebAssembly binary module into a
// wasm.ModuleTranslation. It is the one package in this engine that
// reads bytes off the wire, so every malformed-input path here becomes a
// wasmerrors.WasmError rather than a panic.
//
// Grounded on wazero's own section-driven decode loop (its internal/wasm
// decoder): the section ID table and reserve/declare call shape mirror
// that structure.
package binary

import (
	"bufio"
	"io"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
)

var magic = [4]byte{0x00, 0x61, 0x73, 0x6d}

const version1 = uint32(1)

type sectionID byte

const (
	sectionCustom sectionID = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
	sectionDataCount
)

// Logger is used for the name-subsection duplicate diagnostic: a
// duplicate func_names entry keeps the first name and logs rather than
// silently overwriting. Defaults to logrus.StandardLogger();
// corewasm.StoreConfig.WithLogger replaces it at the embedder boundary
// (see applyLogger in corewasm's store.go).
var Logger logrus.FieldLogger = logrus.StandardLogger()

// Translate decodes a well-formed Wasm v1 binary module read from r into a
// ModuleTranslation. Any structural problem is returned as a
// *wasmerrors.WasmError; r is never partially consumed past the point of
// failure in a way that matters, since the whole call fails atomically from
// the caller's perspective: translate(bytes) → ModuleTranslation |
// WasmError.
func Translate(r io.Reader) (*wasm.ModuleTranslation, error) {
	br := bufio.NewReader(r)

	var offset uint32
	hdr := make([]byte, 8)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, wasmerrors.InvalidWebAssembly(offset, "truncated module header: %s", err)
	}
	if hdr[0] != magic[0] || hdr[1] != magic[1] || hdr[2] != magic[2] || hdr[3] != magic[3] {
		return nil, wasmerrors.InvalidWebAssembly(offset, "bad magic number")
	}
	gotVersion := uint32(hdr[4]) | uint32(hdr[5])<<8 | uint32(hdr[6])<<16 | uint32(hdr[7])<<24
	if gotVersion != version1 {
		return nil, wasmerrors.InvalidWebAssembly(offset, "unsupported version %d", gotVersion)
	}
	offset = 8

	d := &decoder{
		module: wasm.NewModuleInfo(),
		t: &wasm.ModuleTranslation{
			PassiveData:     map[wasm.DataIndex][]byte{},
			PassiveElements: map[wasm.ElemIndex][]wasm.FuncIndex{},
			State:           &wasm.ModuleTranslationState{},
		},
	}
	d.t.Module = d.module

	var lastSection = sectionID(0)
	sawNonCustom := false

	for {
		idByte, err := br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wasmerrors.InvalidWebAssembly(offset, "reading section id: %s", err)
		}
		offset++
		id := sectionID(idByte)

		size, err := readVarU32(br)
		if err != nil {
			return nil, wasmerrors.InvalidWebAssembly(offset, "reading section size: %s", err)
		}
		offset += varU32Len(size)

		body := make([]byte, size)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, wasmerrors.InvalidWebAssembly(offset, "truncated section %d: %s", id, err)
		}
		sectionOffset := offset
		offset += size

		if id != sectionCustom {
			if sawNonCustom && id <= lastSection && id != sectionCustom {
				return nil, wasmerrors.InvalidWebAssembly(sectionOffset, "section %d out of order after %d", id, lastSection)
			}
			lastSection = id
			sawNonCustom = true
		}

		sr := bufio.NewReader(newByteSliceReader(body))
		if err := d.section(id, sr, sectionOffset); err != nil {
			return nil, err
		}
	}

	return d.t, nil
}

func varU32Len(v uint32) uint32 {
	n := uint32(1)
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

type decoder struct {
	module *wasm.ModuleInfo
	t      *wasm.ModuleTranslation
}

func (d *decoder) section(id sectionID, r *bufio.Reader, offset uint32) error {
	switch id {
	case sectionCustom:
		return d.customSection(r, offset)
	case sectionType:
		return d.typeSection(r, offset)
	case sectionImport:
		return d.importSection(r, offset)
	case sectionFunction:
		return d.functionSection(r, offset)
	case sectionTable:
		return d.tableSection(r, offset)
	case sectionMemory:
		return d.memorySection(r, offset)
	case sectionGlobal:
		return d.globalSection(r, offset)
	case sectionExport:
		return d.exportSection(r, offset)
	case sectionStart:
		return d.startSection(r, offset)
	case sectionElement:
		return d.elementSection(r, offset)
	case sectionCode:
		return d.codeSection(r, offset)
	case sectionData:
		return d.dataSection(r, offset)
	case sectionDataCount:
		_, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "data count: %s", err)
		}
		return nil
	default:
		// Unknown, non-custom section ids are rejected the way an unknown
		// custom subsection is not: §4.1 only licenses ignoring *custom*
		// sections we don't recognize.
		return wasmerrors.InvalidWebAssembly(offset, "unknown section id %d", id)
	}
}

func (d *decoder) customSection(r *bufio.Reader, offset uint32) error {
	name, err := readName(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "custom section name: %s", err)
	}
	if name != "name" {
		// Other custom sections are preserved only to the extent an
		// embedder frontend exposes them; this engine has no such frontend
		// surface yet, so they are simply ignored, not an error.
		return nil
	}
	return d.nameSection(r, offset)
}

// nameSection decodes the subset of the "name" custom section this engine
// cares about: the module-name subsection (id 0) and the function-names
// subsection (id 1). Local-name and other subsections are skipped.
func (d *decoder) nameSection(r *bufio.Reader, offset uint32) error {
	for {
		subID, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "name subsection id: %s", err)
		}
		size, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "name subsection size: %s", err)
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "truncated name subsection: %s", err)
		}
		sr := bufio.NewReader(newByteSliceReader(body))

		switch subID {
		case 0:
			name, err := readName(sr)
			if err != nil {
				return wasmerrors.InvalidWebAssembly(offset, "module name: %s", err)
			}
			d.module.Name = name
		case 1:
			count, err := readVarU32(sr)
			if err != nil {
				return wasmerrors.InvalidWebAssembly(offset, "func names count: %s", err)
			}
			for i := uint32(0); i < count; i++ {
				idx, err := readVarU32(sr)
				if err != nil {
					return wasmerrors.InvalidWebAssembly(offset, "func name index: %s", err)
				}
				name, err := readName(sr)
				if err != nil {
					return wasmerrors.InvalidWebAssembly(offset, "func name: %s", err)
				}
				if dup := d.module.DeclareFuncName(wasm.FuncIndex(idx), name); dup {
					Logger.WithFields(logrus.Fields{"func_index": idx, "name": name}).
						Debug("duplicate name-subsection entry, keeping first")
				}
			}
		default:
			// local names and later subsections: not needed for lowering.
		}
	}
}

func (d *decoder) typeSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "type section count: %s", err)
	}
	d.module.ReserveTypes(int(count))
	for i := uint32(0); i < count; i++ {
		form, err := readByte(r)
		if err != nil || form != 0x60 {
			return wasmerrors.InvalidWebAssembly(offset, "expected func type form 0x60, got %#x (%v)", form, err)
		}
		params, err := readValueTypes(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "type params: %s", err)
		}
		results, err := readValueTypes(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "type results: %s", err)
		}
		d.module.DeclareType(wasm.FuncType{Params: params, Results: results})
	}
	return nil
}

func readValueTypes(r *bufio.Reader) ([]wasm.ValueType, error) {
	n, err := readVarU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]wasm.ValueType, n)
	for i := range out {
		b, err := readByte(r)
		if err != nil {
			return nil, err
		}
		out[i] = wasm.ValueType(b)
	}
	return out, nil
}

func (d *decoder) importSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "import section count: %s", err)
	}
	for i := uint32(0); i < count; i++ {
		mod, err := readName(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "import module name: %s", err)
		}
		field, err := readName(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "import field name: %s", err)
		}
		kind, err := readByte(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "import kind: %s", err)
		}
		var et wasm.ExternType
		switch kind {
		case 0x00:
			sigIdx, err := readVarU32(r)
			if err != nil {
				return wasmerrors.InvalidWebAssembly(offset, "import func type index: %s", err)
			}
			et = wasm.ExternType{Kind: wasm.ExternKindFunc, Func: wasm.SignatureIndex(sigIdx)}
			d.module.DeclareFuncImport(wasm.SignatureIndex(sigIdx))
		case 0x01:
			tt, err := readTableType(r)
			if err != nil {
				return wasmerrors.InvalidWebAssembly(offset, "import table type: %s", err)
			}
			et = wasm.ExternType{Kind: wasm.ExternKindTable, Table: tt}
			d.module.DeclareTableImport(tt)
		case 0x02:
			mt, err := readMemoryType(r)
			if err != nil {
				if _, ok := err.(*wasmerrors.WasmError); ok {
					return err
				}
				return wasmerrors.InvalidWebAssembly(offset, "import memory type: %s", err)
			}
			et = wasm.ExternType{Kind: wasm.ExternKindMemory, Memory: mt}
			d.module.DeclareMemoryImport(mt)
		case 0x03:
			gt, err := readGlobalType(r)
			if err != nil {
				return wasmerrors.InvalidWebAssembly(offset, "import global type: %s", err)
			}
			gt.Init = wasm.GlobalInit{Kind: wasm.GlobalInitImport}
			et = wasm.ExternType{Kind: wasm.ExternKindGlobal, Global: gt}
			d.module.DeclareGlobalImport(gt)
		default:
			return wasmerrors.InvalidWebAssembly(offset, "unknown import kind %#x", kind)
		}
		d.module.DeclareImport(mod, field, et)
	}
	return nil
}

func readTableType(r *bufio.Reader) (wasm.TableType, error) {
	elem, err := readByte(r)
	if err != nil {
		return wasm.TableType{}, err
	}
	min, max, err := readLimits(r)
	if err != nil {
		return wasm.TableType{}, err
	}
	return wasm.TableType{ElemType: wasm.ValueType(elem), Min: min, Max: max}, nil
}

func readMemoryType(r *bufio.Reader) (wasm.MemoryType, error) {
	flags, err := readByte(r)
	if err != nil {
		return wasm.MemoryType{}, errors.Wrap(err, "memory limits flags")
	}
	shared := flags&0x02 != 0
	hasMax := flags&0x01 != 0
	min, err := readVarU32(r)
	if err != nil {
		return wasm.MemoryType{}, errors.Wrap(err, "memory min")
	}
	var max *uint32
	if hasMax {
		m, err := readVarU32(r)
		if err != nil {
			return wasm.MemoryType{}, errors.Wrap(err, "memory max")
		}
		max = &m
	}
	if shared {
		return wasm.MemoryType{}, wasmerrors.Unsupported("shared memories are not supported yet")
	}
	return wasm.MemoryType{Min: min, Max: max, Shared: false}, nil
}

func readLimits(r *bufio.Reader) (min uint32, max *uint32, err error) {
	flags, err := readByte(r)
	if err != nil {
		return 0, nil, err
	}
	min, err = readVarU32(r)
	if err != nil {
		return 0, nil, err
	}
	if flags&0x01 != 0 {
		m, err := readVarU32(r)
		if err != nil {
			return 0, nil, err
		}
		max = &m
	}
	return min, max, nil
}

func readGlobalType(r *bufio.Reader) (wasm.GlobalType, error) {
	valType, err := readByte(r)
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mutByte, err := readByte(r)
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mut := wasm.Const
	if mutByte != 0 {
		mut = wasm.Var
	}
	return wasm.GlobalType{ValType: wasm.ValueType(valType), Mutable: mut}, nil
}

func (d *decoder) functionSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "function section count: %s", err)
	}
	d.module.ReserveFuncs(int(count))
	for i := uint32(0); i < count; i++ {
		sig, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "function signature index: %s", err)
		}
		d.module.DeclareFuncType(wasm.SignatureIndex(sig))
	}
	return nil
}

func (d *decoder) tableSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "table section count: %s", err)
	}
	for i := uint32(0); i < count; i++ {
		tt, err := readTableType(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "table type: %s", err)
		}
		d.module.DeclareTable(tt)
	}
	return nil
}

func (d *decoder) memorySection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "memory section count: %s", err)
	}
	for i := uint32(0); i < count; i++ {
		mt, err := readMemoryType(r)
		if err != nil {
			if _, ok := err.(*wasmerrors.WasmError); ok {
				return err
			}
			return wasmerrors.InvalidWebAssembly(offset, "memory type: %s", err)
		}
		d.module.DeclareMemory(mt)
	}
	return nil
}

func (d *decoder) globalSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "global section count: %s", err)
	}
	for i := uint32(0); i < count; i++ {
		gt, err := readGlobalType(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "global type: %s", err)
		}
		init, err := readConstExpr(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "global init expr: %s", err)
		}
		gt.Init = init
		d.module.DeclareGlobal(gt)
	}
	return nil
}

// readConstExpr decodes the handful of constant-expression forms a global
// initializer or active segment offset may use, terminated by 0x0B (end).
func readConstExpr(r *bufio.Reader) (wasm.GlobalInit, error) {
	op, err := readByte(r)
	if err != nil {
		return wasm.GlobalInit{}, err
	}
	var init wasm.GlobalInit
	switch op {
	case 0x41: // i32.const
		v, err := readVarI32(r)
		if err != nil {
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitConstI32, I32: v}
	case 0x42: // i64.const
		v, err := readVarI64(r)
		if err != nil {
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitConstI64, I64: v}
	case 0x43: // f32.const
		bits, err := readF32Bits(r)
		if err != nil {
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitConstF32, F32: math.Float32frombits(bits)}
	case 0x44: // f64.const
		bits, err := readF64Bits(r)
		if err != nil {
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitConstF64, F64: math.Float64frombits(bits)}
	case 0x23: // global.get
		idx, err := readVarU32(r)
		if err != nil {
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitGetGlobal, Index: idx}
	case 0xd0: // ref.null
		if _, err := readByte(r); err != nil { // reftype byte
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitRefNull}
	case 0xd2: // ref.func
		idx, err := readVarU32(r)
		if err != nil {
			return wasm.GlobalInit{}, err
		}
		init = wasm.GlobalInit{Kind: wasm.GlobalInitRefFunc, Index: idx}
	default:
		return wasm.GlobalInit{}, errors.Errorf("unsupported const expr opcode %#x", op)
	}
	end, err := readByte(r)
	if err != nil {
		return wasm.GlobalInit{}, err
	}
	if end != 0x0b {
		return wasm.GlobalInit{}, errors.Errorf("const expr missing end opcode, got %#x", end)
	}
	return init, nil
}

// constExprOffset reduces a const expr to the Offset shape active segments
// use: a literal, or a base-global resolved at instantiation time.
func constExprOffset(init wasm.GlobalInit) (wasm.Offset, error) {
	switch init.Kind {
	case wasm.GlobalInitConstI32:
		return wasm.Offset{Constant: init.I32}, nil
	case wasm.GlobalInitGetGlobal:
		idx := wasm.GlobalIndex(init.Index)
		return wasm.Offset{BaseGlobal: &idx}, nil
	default:
		return wasm.Offset{}, errors.Errorf("unsupported segment offset expression kind %d", init.Kind)
	}
}

func (d *decoder) exportSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "export section count: %s", err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := readName(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "export name: %s", err)
		}
		kind, err := readByte(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "export kind: %s", err)
		}
		idx, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "export index: %s", err)
		}
		limits := map[byte]int{0x00: d.module.Funcs.Len(), 0x01: d.module.Tables.Len(), 0x02: d.module.Memories.Len(), 0x03: d.module.Globals.Len()}
		if n, ok := limits[kind]; ok && int(idx) >= n {
			return wasmerrors.InvalidWebAssembly(offset, "export %q index %d out of range", name, idx)
		}
		var et wasm.ExternType
		switch kind {
		case 0x00:
			et = wasm.ExternType{Kind: wasm.ExternKindFunc, Func: wasm.SignatureIndex(d.module.Funcs.Get(wasm.FuncIndex(idx)).SignatureIndex)}
		case 0x01:
			et = wasm.ExternType{Kind: wasm.ExternKindTable, Table: d.module.Tables.Get(wasm.TableIndex(idx))}
		case 0x02:
			et = wasm.ExternType{Kind: wasm.ExternKindMemory, Memory: d.module.Memories.Get(wasm.MemoryIndex(idx))}
		case 0x03:
			et = wasm.ExternType{Kind: wasm.ExternKindGlobal, Global: d.module.Globals.Get(wasm.GlobalIndex(idx))}
		default:
			return wasmerrors.InvalidWebAssembly(offset, "unknown export kind %#x", kind)
		}
		d.module.DeclareExport(name, et, idx)
	}
	return nil
}

func (d *decoder) startSection(r *bufio.Reader, offset uint32) error {
	idx, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "start function index: %s", err)
	}
	if err := d.module.DeclareStart(wasm.FuncIndex(idx)); err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "%s", err)
	}
	return nil
}

// elementSection decodes the MVP active-segment-only encoding (table index,
// offset expr, vec(funcidx)): bulk-memory's flag-prefixed passive/declared
// forms are not decoded, consistent with BulkMemoryOperations defaulting to
// off (internal/compiler.DefaultFeatures).
func (d *decoder) elementSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "element section count: %s", err)
	}
	for i := uint32(0); i < count; i++ {
		tableIdx, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "element table index: %s", err)
		}
		init, err := readConstExpr(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "element offset expr: %s", err)
		}
		off, err := constExprOffset(init)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "element offset: %s", err)
		}
		n, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "element func count: %s", err)
		}
		funcs := make([]wasm.FuncIndex, n)
		for j := range funcs {
			fi, err := readVarU32(r)
			if err != nil {
				return wasmerrors.InvalidWebAssembly(offset, "element func index: %s", err)
			}
			funcs[j] = wasm.FuncIndex(fi)
		}
		seg := wasm.ElementSegment{
			Active: &struct {
				Target wasm.ActiveTarget
				Offset wasm.Offset
			}{Target: wasm.ActiveTarget{TableIndex: wasm.TableIndex(tableIdx)}, Offset: off},
			FuncIndices: funcs,
		}
		d.t.ElementSegments = append(d.t.ElementSegments, seg)
	}
	return nil
}

func (d *decoder) codeSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "code section count: %s", err)
	}
	bodies := make([]wasm.FuncBody, 0, count)
	cursor := offset + varU32Len(count)
	for i := uint32(0); i < count; i++ {
		size, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "function body size: %s", err)
		}
		bodyOffset := cursor + varU32Len(size)
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "truncated function body: %s", err)
		}
		cursor = bodyOffset + size

		locals, code, err := splitLocalsAndCode(body)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(bodyOffset, "function locals: %s", err)
		}
		bodies = append(bodies, wasm.FuncBody{Bytes: code, ModuleOffset: bodyOffset + uint32(len(body)-len(code)), LocalTypes: locals})
	}
	d.t.FunctionBodies = bodies
	d.t.State.NumFunctionsProcessed = len(bodies)
	return nil
}

// splitLocalsAndCode decodes a function body's local-declaration vector
// (count, then (count, type) group pairs) and returns the expanded local
// type list alongside the remaining instruction bytes.
func splitLocalsAndCode(body []byte) ([]wasm.ValueType, []byte, error) {
	r := bufio.NewReader(newByteSliceReader(body))
	groupCount, err := readVarU32(r)
	if err != nil {
		return nil, nil, err
	}
	var locals []wasm.ValueType
	for i := uint32(0); i < groupCount; i++ {
		n, err := readVarU32(r)
		if err != nil {
			return nil, nil, err
		}
		t, err := readByte(r)
		if err != nil {
			return nil, nil, err
		}
		for j := uint32(0); j < n; j++ {
			locals = append(locals, wasm.ValueType(t))
		}
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return locals, rest, nil
}

func (d *decoder) dataSection(r *bufio.Reader, offset uint32) error {
	count, err := readVarU32(r)
	if err != nil {
		return wasmerrors.InvalidWebAssembly(offset, "data section count: %s", err)
	}
	var inits []wasm.DataInitializer
	for i := uint32(0); i < count; i++ {
		memIdx, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "data memory index: %s", err)
		}
		init, err := readConstExpr(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "data offset expr: %s", err)
		}
		off, err := constExprOffset(init)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "data offset: %s", err)
		}
		n, err := readVarU32(r)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "data size: %s", err)
		}
		bytes, err := readBytes(r, n)
		if err != nil {
			return wasmerrors.InvalidWebAssembly(offset, "data bytes: %s", err)
		}
		inits = append(inits, wasm.DataInitializer{
			Active: &struct {
				Target wasm.ActiveTarget
				Offset wasm.Offset
			}{Target: wasm.ActiveTarget{MemoryIndex: wasm.MemoryIndex(memIdx)}, Offset: off},
			Bytes: bytes,
		})
	}
	d.t.DataInitializers = inits
	return nil
}

// byteSliceReader adapts a []byte to io.ByteReader/io.Reader without the
// allocation churn of bytes.NewReader's extra bookkeeping we don't need.
type byteSliceReader struct {
	data []byte
	pos  int
}

func newByteSliceReader(data []byte) *byteSliceReader {
	return &byteSliceReader{data: data}
}

func (b *byteSliceReader) ReadByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	c := b.data[b.pos]
	b.pos++
	return c, nil
}

func (b *byteSliceReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
