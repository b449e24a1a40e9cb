package instance

import (
	"context"

	"github.com/corewasm/corewasm/internal/exec"
	"github.com/corewasm/corewasm/internal/wasm"
)

// InstanceHandle is a live instance: the combined (imports-then-defined)
// index spaces for every entity class, and the export table resolving
// names back into them. It implements exec.Host so internal/exec can run
// against it directly.
type InstanceHandle struct {
	artifact *Artifact

	funcs    []*FuncExtern
	tables   []*exec.Table
	memories []*exec.Memory
	globals  []*GlobalExtern

	exports map[string]*Extern
}

var _ exec.Host = (*InstanceHandle)(nil)

// CallFunc implements exec.Host.
func (h *InstanceHandle) CallFunc(ctx context.Context, idx wasm.FuncIndex, args []uint64) ([]uint64, error) {
	return h.funcs[idx].Call(ctx, args)
}

// Memory implements exec.Host.
func (h *InstanceHandle) Memory(idx wasm.MemoryIndex) *exec.Memory { return h.memories[idx] }

// Table implements exec.Host.
func (h *InstanceHandle) Table(idx wasm.TableIndex) *exec.Table { return h.tables[idx] }

// GlobalGet implements exec.Host.
func (h *InstanceHandle) GlobalGet(idx wasm.GlobalIndex) uint64 { return h.globals[idx].Get() }

// GlobalSet implements exec.Host.
func (h *InstanceHandle) GlobalSet(idx wasm.GlobalIndex, v uint64) { h.globals[idx].Set(v) }

// FuncType implements exec.Host.
func (h *InstanceHandle) FuncType(idx wasm.FuncIndex) *wasm.FuncType {
	return h.artifact.Module.FuncType(idx)
}

// SignatureType implements exec.Host.
func (h *InstanceHandle) SignatureType(idx wasm.SignatureIndex) *wasm.FuncType {
	ft := h.artifact.Module.Types.Get(idx).Type
	return &ft
}

// Symbolicate implements exec.Host by consulting the process-wide frame-info
// registry the instance's Artifact was registered into.
func (h *InstanceHandle) Symbolicate(idx wasm.FuncIndex) (exec.FrameInfo, bool) {
	name, registered := LookupFrame(h.artifact, idx)
	offset, hasOffset := LookupFrameCodeOffset(h.artifact, idx)
	if !registered && !hasOffset {
		return exec.FrameInfo{}, false
	}
	return exec.FrameInfo{Name: name, CodeOffset: offset, HasCodeOffset: hasOffset}, true
}

// TableFuncSignature implements exec.Host: resolves a call_indirect's table
// slot to the function index stored there, or ok == false if the slot is
// out of range or still null (exec.NullElem).
func (h *InstanceHandle) TableFuncSignature(tableIdx wasm.TableIndex, elemIdx uint32) (wasm.FuncIndex, bool) {
	t := h.tables[tableIdx]
	if elemIdx >= uint32(len(t.Elems)) {
		return 0, false
	}
	e := t.Elems[elemIdx]
	if e == exec.NullElem {
		return 0, false
	}
	return wasm.FuncIndex(e), true
}

// Invoke calls the function at idx: the embedder's call-in entry point.
// It is the same dispatch CallFunc uses internally; exposed
// separately so the embedder API and finish_instantiation's start-function
// call don't need to reach into exec.Host's narrower signature.
func (h *InstanceHandle) Invoke(ctx context.Context, idx wasm.FuncIndex, args []uint64) ([]uint64, error) {
	return h.CallFunc(ctx, idx, args)
}

// GetExport looks up a name in the module's export table.
func (h *InstanceHandle) GetExport(name string) (*Extern, bool) {
	e, ok := h.exports[name]
	return e, ok
}

// Artifact returns the Artifact this instance was built from.
func (h *InstanceHandle) Artifact() *Artifact { return h.artifact }

// Memories returns the combined (imports-then-defined) memory index space,
// for serialization and embedder inspection.
func (h *InstanceHandle) Memories() []*exec.Memory { return h.memories }
