// Package unwind holds the per-function frame unwind representation:
// either nothing, a Windows x64 UNWIND_INFO blob, or a Unix DWARF CFI
// frame-description entry plus the relocations it needs once placed next
// to the function it describes.
package unwind

// RelocationEntry is a single fixup a FrameLayout's FDE needs once its
// bytes are copied next to the function body they describe (e.g. the
// personality-routine or LSDA pointer). Grounded on the relocation record
// shape wazerolift uses for its own function-level fixups
// (functionRelocationEntry{index, offset uint32}).
type RelocationEntry struct {
	Offset uint32
	Addend int64
}

// Kind discriminates the three shapes Info can take.
type Kind byte

const (
	KindNone Kind = iota
	KindWindows
	KindFrameLayout
)

// Info is a tagged union over the three unwind representations. Exactly
// the fields matching Kind are meaningful.
type Info struct {
	Kind Kind

	// Windows: a Microsoft x64 UNWIND_INFO blob, verbatim.
	WindowsBytes []byte

	// FrameLayout: a Unix DWARF CFI frame description entry.
	FrameLayoutBytes     []byte
	FrameLayoutFDEOffset uint32
	FrameLayoutRelocs    []RelocationEntry
}

// None is the no-unwind-info value.
func None() Info { return Info{Kind: KindNone} }

// Windows builds a Windows-shaped Info.
func Windows(bytes []byte) Info {
	return Info{Kind: KindWindows, WindowsBytes: bytes}
}

// FrameLayout builds a Unix-shaped Info.
func FrameLayout(bytes []byte, fdeOffset uint32, relocs []RelocationEntry) Info {
	return Info{Kind: KindFrameLayout, FrameLayoutBytes: bytes, FrameLayoutFDEOffset: fdeOffset, FrameLayoutRelocs: relocs}
}
