package exec_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/exec"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
	"github.com/corewasm/corewasm/internal/wasmtest"
)

// fakeHost is a no-calls, no-memory, no-tables Host: enough for the
// arithmetic/control-flow opcodes these tests exercise.
type fakeHost struct{}

func (fakeHost) CallFunc(context.Context, wasm.FuncIndex, []uint64) ([]uint64, error) {
	panic("not used by these tests")
}
func (fakeHost) Memory(wasm.MemoryIndex) *exec.Memory { panic("not used by these tests") }
func (fakeHost) Table(wasm.TableIndex) *exec.Table    { panic("not used by these tests") }
func (fakeHost) GlobalGet(wasm.GlobalIndex) uint64    { panic("not used by these tests") }
func (fakeHost) GlobalSet(wasm.GlobalIndex, uint64)   {}
func (fakeHost) FuncType(wasm.FuncIndex) *wasm.FuncType {
	panic("not used by these tests")
}
func (fakeHost) SignatureType(wasm.SignatureIndex) *wasm.FuncType {
	panic("not used by these tests")
}
func (fakeHost) TableFuncSignature(wasm.TableIndex, uint32) (wasm.FuncIndex, bool) {
	panic("not used by these tests")
}
func (fakeHost) Symbolicate(wasm.FuncIndex) (exec.FrameInfo, bool) { return exec.FrameInfo{}, false }

func addSig() *wasm.FuncType {
	return &wasm.FuncType{
		Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
		Results: []wasm.ValueType{wasm.ValueTypeI32},
	}
}

func TestRun_IdentityAdd(t *testing.T) {
	body := wasm.FuncBody{Bytes: wasmtest.Concat(wasmtest.LocalGet(0), wasmtest.LocalGet(1), wasmtest.I32Add)}
	results, err := exec.Run(context.Background(), fakeHost{}, 0, body, addSig(), []uint64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, results)
}

func TestRun_UnreachableTraps(t *testing.T) {
	body := wasm.FuncBody{Bytes: wasmtest.Concat(wasmtest.Unreachable)}
	_, err := exec.Run(context.Background(), fakeHost{}, 0, body, &wasm.FuncType{}, nil)
	require.Error(t, err)

	var rt *wasmerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, wasmerrors.RuntimeErrorTrap, rt.Kind)
	assert.Equal(t, wasmerrors.TrapUnreachable, rt.Trap)
}

// TestRun_TrapCarriesModuleRelativeLocation exercises
// wasm.FuncBody.ModuleOffset flowing through to wasmerrors.RuntimeError.Loc:
// a trap raised mid-body reports ModuleOffset plus the in-body instruction
// pointer, not a bare in-body offset.
func TestRun_TrapCarriesModuleRelativeLocation(t *testing.T) {
	// i32.const 1; i32.const 0; i32.div_s  -- traps at the div_s opcode.
	bytes := wasmtest.Concat(wasmtest.I32Const(1), wasmtest.I32Const(0), []byte{0x6d})
	body := wasm.FuncBody{Bytes: bytes, ModuleOffset: 0x100}

	sig := &wasm.FuncType{Results: []wasm.ValueType{wasm.ValueTypeI32}}
	_, err := exec.Run(context.Background(), fakeHost{}, 0, body, sig, nil)
	require.Error(t, err)

	var rt *wasmerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, wasmerrors.TrapIntegerDivideByZero, rt.Trap)
	assert.False(t, rt.Loc.IsDefault())
	assert.Equal(t, uint32(0x100)+uint32(len(bytes)), rt.Loc.Bits())
}

// symbolicatingHost is fakeHost plus a Symbolicate that reports a fixed
// frame, exercising the Host -> RuntimeError symbolication path trap()
// drives.
type symbolicatingHost struct {
	fakeHost
	info exec.FrameInfo
}

func (h symbolicatingHost) Symbolicate(wasm.FuncIndex) (exec.FrameInfo, bool) { return h.info, true }

func TestRun_TrapCarriesSymbolicatedFrame(t *testing.T) {
	bytes := wasmtest.Concat(wasmtest.I32Const(1), wasmtest.I32Const(0), []byte{0x6d})
	body := wasm.FuncBody{Bytes: bytes}
	sig := &wasm.FuncType{Results: []wasm.ValueType{wasm.ValueTypeI32}}

	host := symbolicatingHost{info: exec.FrameInfo{Name: "divide", CodeOffset: 0x40, HasCodeOffset: true}}
	_, err := exec.Run(context.Background(), host, 3, body, sig, nil)
	require.Error(t, err)

	var rt *wasmerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "divide", rt.Frame)
	assert.True(t, rt.HasCodeOffset)
	assert.Equal(t, uint64(0x40), rt.CodeOffset)
	assert.Contains(t, rt.Error(), "divide+0x40")
}

func TestRun_IntegerOverflowTrap(t *testing.T) {
	// i32.const -2147483648; i32.const -1; i32.div_s
	bytes := wasmtest.Concat(wasmtest.I32Const(-2147483648), wasmtest.I32Const(-1), []byte{0x6d})
	body := wasm.FuncBody{Bytes: bytes}
	sig := &wasm.FuncType{Results: []wasm.ValueType{wasm.ValueTypeI32}}

	_, err := exec.Run(context.Background(), fakeHost{}, 0, body, sig, nil)
	require.Error(t, err)

	var rt *wasmerrors.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, wasmerrors.TrapIntegerOverflow, rt.Trap)
}

func TestRun_BlockAndBranch(t *testing.T) {
	// block (result i32): i32.const 7; br 0; unreachable; end
	bytes := wasmtest.Concat(
		[]byte{0x02, 0x7f}, // block (result i32)
		wasmtest.I32Const(7),
		[]byte{0x0c, 0x00}, // br 0
		wasmtest.Unreachable,
		[]byte{0x0b}, // end
	)
	body := wasm.FuncBody{Bytes: bytes}
	sig := &wasm.FuncType{Results: []wasm.ValueType{wasm.ValueTypeI32}}

	results, err := exec.Run(context.Background(), fakeHost{}, 0, body, sig, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, results)
}

func TestMemory_GrowRespectsMax(t *testing.T) {
	max := uint32(2)
	mem := exec.NewMemory(1, &max)
	assert.Equal(t, uint32(1), mem.Pages())

	old, ok := mem.Grow(1)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), old)
	assert.Equal(t, uint32(2), mem.Pages())

	_, ok = mem.Grow(1)
	assert.False(t, ok)
	assert.Equal(t, uint32(2), mem.Pages())
}

func TestTable_NewInitializesNullElements(t *testing.T) {
	tbl := exec.NewTable(3, nil)
	require.Len(t, tbl.Elems, 3)
	for _, e := range tbl.Elems {
		assert.Equal(t, exec.NullElem, e)
	}
}
