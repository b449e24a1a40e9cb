package wasm

import (
	"bytes"
	"encoding/gob"
)

// Typed index newtypes. Every entity class in a module has its own index
// space; using distinct types instead of bare uint32 keeps the translator
// and VMOffsets from accidentally mixing, say, a TableIndex with a
// MemoryIndex at a call site.
type (
	FuncIndex          uint32
	DefinedFuncIndex   uint32
	TableIndex         uint32
	DefinedTableIndex  uint32
	MemoryIndex        uint32
	DefinedMemoryIndex uint32
	GlobalIndex        uint32
	DefinedGlobalIndex uint32
	SignatureIndex     uint32
	DataIndex          uint32
	ElemIndex          uint32
)

// IndexedVec is a dense, append-only container keyed by a typed index. It
// backs every per-entity-class list in ModuleInfo: imported entries occupy
// indices [0, numImported) and are pushed first, matching the low-end
// invariant this index space must maintain.
//
// Grounded on wazero's internal/bitpack.OffsetArray generic-container
// idiom (a read-optimized compressed array keyed by position); ModuleInfo's
// index spaces are write-once-then-read and never compressed, so this is a
// plain growable slice with the same index-typed Get/Push/Len shape rather
// than OffsetArray's delta-encoding scheme.
type IndexedVec[I ~uint32, T any] struct {
	items []T
}

// Push appends v and returns the index it was stored at.
func (vec *IndexedVec[I, T]) Push(v T) I {
	idx := I(len(vec.items))
	vec.items = append(vec.items, v)
	return idx
}

// Len returns the number of entries.
func (vec *IndexedVec[I, T]) Len() int { return len(vec.items) }

// Get returns the entry at idx. It panics if idx is out of range: an
// out-of-range index here means the translator or a caller produced a
// malformed module, which is a bug, not a recoverable runtime condition.
func (vec *IndexedVec[I, T]) Get(idx I) T {
	return vec.items[idx]
}

// Set overwrites the entry at idx.
func (vec *IndexedVec[I, T]) Set(idx I, v T) {
	vec.items[idx] = v
}

// Reserve grows the backing capacity ahead of a run of Push calls, mirroring
// the translator's reserve_* hint before a sequence of declare_* calls.
func (vec *IndexedVec[I, T]) Reserve(n int) {
	if cap(vec.items)-len(vec.items) < n {
		grown := make([]T, len(vec.items), len(vec.items)+n)
		copy(grown, vec.items)
		vec.items = grown
	}
}

// All returns a slice view over every entry, imports first.
func (vec *IndexedVec[I, T]) All() []T { return vec.items }

// GobEncode/GobDecode let encoding/gob serialize an IndexedVec despite its
// backing slice being unexported: internal/instance.Artifact.Serialize
// round-trips a whole ModuleInfo this way, and gob only reaches
// unexported fields through these two methods.
func (vec IndexedVec[I, T]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vec.items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (vec *IndexedVec[I, T]) GobDecode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&vec.items)
}
