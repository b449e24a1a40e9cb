package vmoffsets

// CodeOffsets is the start offset of every defined function's native code
// within a module's compiled code page, indexed by DefinedFuncIndex.
// internal/instance.Artifact builds one of these per module so a trapping
// frame's instruction pointer can be mapped back to the function that owns
// it.
//
// Code offsets are monotonically increasing by construction (each function's
// body is appended after the previous one's), but nothing in this engine
// reads enough of them at once to justify delta-compressing the array the
// way a binary's full symbol table might; a plain cumulative slice is the
// whole representation.
type CodeOffsets struct {
	offsets []uint64
}

// NewCodeOffsets copies offsets (in DefinedFuncIndex order) into a new
// CodeOffsets. The input slice is not retained.
func NewCodeOffsets(offsets []uint64) *CodeOffsets {
	cp := make([]uint64, len(offsets))
	copy(cp, offsets)
	return &CodeOffsets{offsets: cp}
}

// Offset returns the code offset of the i'th defined function.
func (c *CodeOffsets) Offset(i int) uint64 {
	return c.offsets[i]
}

// Len returns the number of offsets in the array. A nil receiver reports
// zero.
func (c *CodeOffsets) Len() int {
	if c == nil {
		return 0
	}
	return len(c.offsets)
}

// CodeOffsetsLen reports offsets.Len(), tolerating a nil offsets.
func CodeOffsetsLen(offsets *CodeOffsets) int {
	return offsets.Len()
}
