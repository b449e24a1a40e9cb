package tunables_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corewasm/corewasm/internal/tunables"
)

func TestNew_PointerWidthTable(t *testing.T) {
	cases := []struct {
		name           string
		target         tunables.Target
		boundPages     uint64
		staticGuard    uint64
		dynamicGuard   uint64
	}{
		{
			name:         "64-bit",
			target:       tunables.Target{PointerSize: 8},
			boundPages:   0x1_0000,
			staticGuard:  2 * 1024 * 1024 * 1024,
			dynamicGuard: 64 * 1024,
		},
		{
			name:         "32-bit",
			target:       tunables.Target{PointerSize: 4},
			boundPages:   0x4000,
			staticGuard:  64 * 1024,
			dynamicGuard: 64 * 1024,
		},
		{
			name:         "16-bit",
			target:       tunables.Target{PointerSize: 2},
			boundPages:   0x400,
			staticGuard:  4 * 1024,
			dynamicGuard: 4 * 1024,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := tunables.New(c.target)
			assert.Equal(t, c.boundPages, got.StaticMemoryBoundPages)
			assert.Equal(t, c.staticGuard, got.StaticMemoryGuardSizeBytes)
			assert.Equal(t, c.dynamicGuard, got.DynamicMemoryGuardSizeBytes)
		})
	}
}

func TestNew_WindowsClampsStaticBudgets(t *testing.T) {
	got := tunables.New(tunables.Target{PointerSize: 8, Windows: true})
	assert.Equal(t, uint64(0x100), got.StaticMemoryBoundPages)
	assert.Equal(t, uint64(64*1024), got.StaticMemoryGuardSizeBytes)
	// The dynamic guard is unaffected by the Windows clamp.
	assert.Equal(t, uint64(64*1024), got.DynamicMemoryGuardSizeBytes)
}

func TestNew_WindowsClampIsNoopWhenAlreadySmaller(t *testing.T) {
	got := tunables.New(tunables.Target{PointerSize: 2, Windows: true})
	// The 16-bit bound (0x400) is still above 0x100 and is clamped; the
	// 4 KiB static guard is already below 64 KiB and is left as it is.
	assert.Equal(t, uint64(0x100), got.StaticMemoryBoundPages)
	assert.Equal(t, uint64(4*1024), got.StaticMemoryGuardSizeBytes)
}

func TestStaticMemoryBoundBytes(t *testing.T) {
	got := tunables.New(tunables.Target{PointerSize: 8})
	assert.Equal(t, got.StaticMemoryBoundPages*64*1024, got.StaticMemoryBoundBytes())
}

func TestStyleFor(t *testing.T) {
	got := tunables.New(tunables.Target{PointerSize: 8})

	small := uint32(10)
	style := got.StyleFor(&small)
	assert.True(t, style.Static)
	assert.Equal(t, got.StaticMemoryGuardSizeBytes, style.GuardBytes)

	unbounded := got.StyleFor(nil)
	assert.False(t, unbounded.Static)
	assert.Equal(t, got.DynamicMemoryGuardSizeBytes, unbounded.GuardBytes)

	huge := uint32(0xffffffff)
	hugeStyle := got.StyleFor(&huge)
	assert.False(t, hugeStyle.Static)
}
