// Package tunables implements the target-derived linear-memory sizing
// policy: these numbers are part of the ABI between the translator and
// the memory creator, so changes here are breaking.
package tunables

// Target names the pointer width and OS the policy is being derived for.
// PointerSize is the only input the sizing table actually branches on;
// Windows gets an extra clamp.
type Target struct {
	PointerSize int // 1, 2, 4, or 8; only 4 and 8 occur in practice.
	Windows     bool
}

// wasmPageSize is 64KiB, the unit every *Pages field below is measured in.
const wasmPageSize = 64 * 1024

// Tunables are the static/dynamic memory bound and guard sizes a
// CreateMemories/CreateTables/CreateGlobals consumer uses to size runtime
// allocations.
type Tunables struct {
	// StaticMemoryBoundPages is the number of Wasm pages a statically
	// allocated memory reserves address space for, regardless of its
	// declared minimum.
	StaticMemoryBoundPages uint64
	// StaticMemoryGuardSizeBytes is the guard region placed after a
	// statically allocated memory's bound.
	StaticMemoryGuardSizeBytes uint64
	// DynamicMemoryGuardSizeBytes is the guard region placed after a
	// dynamically grown memory's current length.
	DynamicMemoryGuardSizeBytes uint64
}

// New derives Tunables purely from target.
func New(target Target) Tunables {
	var t Tunables
	switch {
	case target.PointerSize >= 8:
		t = Tunables{
			StaticMemoryBoundPages:      0x1_0000,
			StaticMemoryGuardSizeBytes:  2 * 1024 * 1024 * 1024,
			DynamicMemoryGuardSizeBytes: 64 * 1024,
		}
	case target.PointerSize >= 4:
		t = Tunables{
			StaticMemoryBoundPages:      0x4000,
			StaticMemoryGuardSizeBytes:  64 * 1024,
			DynamicMemoryGuardSizeBytes: 64 * 1024,
		}
	default:
		t = Tunables{
			StaticMemoryBoundPages:      0x400,
			StaticMemoryGuardSizeBytes:  4 * 1024,
			DynamicMemoryGuardSizeBytes: 4 * 1024,
		}
	}

	if target.Windows {
		// Avoid exhausting the paging file by reserving less address space
		// per memory up front.
		if t.StaticMemoryBoundPages > 0x100 {
			t.StaticMemoryBoundPages = 0x100
		}
		if t.StaticMemoryGuardSizeBytes > 64*1024 {
			t.StaticMemoryGuardSizeBytes = 64 * 1024
		}
	}
	return t
}

// StaticMemoryBoundBytes is StaticMemoryBoundPages expressed in bytes.
func (t Tunables) StaticMemoryBoundBytes() uint64 {
	return t.StaticMemoryBoundPages * wasmPageSize
}

// MemoryStyle records, for one memory, whether it is allocated with its
// full static bound reserved up front or grown dynamically.
type MemoryStyle struct {
	Static      bool
	BoundPages  uint64
	GuardBytes  uint64
}

// StyleFor picks the allocation style for a memory whose declared maximum
// (possibly absent) is max. A memory with a declared maximum at or below
// the static bound gets a static reservation with a large guard; anything
// else is grown dynamically with a smaller guard.
func (t Tunables) StyleFor(max *uint32) MemoryStyle {
	if max != nil && uint64(*max) <= t.StaticMemoryBoundPages {
		return MemoryStyle{Static: true, BoundPages: t.StaticMemoryBoundPages, GuardBytes: t.StaticMemoryGuardSizeBytes}
	}
	return MemoryStyle{Static: false, BoundPages: t.StaticMemoryBoundPages, GuardBytes: t.DynamicMemoryGuardSizeBytes}
}

// TableStyle is currently uniform: tables are always grown dynamically.
// Kept as a distinct type so a future static-table strategy (e.g.
// preallocating a declared maximum) has somewhere to live without changing
// call sites.
type TableStyle struct {
	Static bool
}

// StyleForTable returns the allocation style for a table.
func (t Tunables) StyleForTable(max *uint32) TableStyle {
	return TableStyle{Static: false}
}
