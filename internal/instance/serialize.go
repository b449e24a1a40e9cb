package instance

import (
	"bytes"
	"encoding/gob"

	"github.com/corewasm/corewasm/internal/compiler"
	"github.com/corewasm/corewasm/internal/tunables"
	"github.com/corewasm/corewasm/internal/vmoffsets"
	"github.com/corewasm/corewasm/internal/wasm"
	"github.com/corewasm/corewasm/internal/wasmerrors"
)

// serializedArtifact is the gob-encoded shape of an Artifact, used to
// cache a compiled module to disk so a later process can skip
// translation and compilation. It carries Module rather than the full
// ModuleTranslation, so each function body's local declarations and module
// offset and the data/element segments are not serialized. Instantiate
// reads all of these from Translation, so it cannot instantiate a
// deserialized Artifact until Translation is set again from a fresh
// translation of the original bytecode.
type serializedArtifact struct {
	Module       *wasm.ModuleInfo
	Compiled     []compiler.FunctionCompilation
	Tunables     tunables.Tunables
	MemoryStyles []tunables.MemoryStyle
	TableStyles  []tunables.TableStyle
	SignatureIDs []uint32
}

// Serialize encodes a into a self-contained byte slice, suitable for
// writing to a module cache keyed by the original bytecode's hash. It
// fails only if gob itself fails, wrapped as a *wasmerrors.SerializeError.
func (a *Artifact) Serialize() ([]byte, error) {
	payload := serializedArtifact{
		Module:       a.Module,
		Compiled:     a.Compiled,
		Tunables:     a.Tunables,
		MemoryStyles: a.MemoryStyles,
		TableStyles:  a.TableStyles,
		SignatureIDs: a.SignatureIDs,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&payload); err != nil {
		return nil, &wasmerrors.SerializeError{Cause: err}
	}
	return buf.Bytes(), nil
}

// DeserializeArtifact decodes an Artifact previously produced by Serialize.
// The result's Translation field is nil; see serializedArtifact's doc
// comment for what that does and doesn't let a caller do with it.
func DeserializeArtifact(data []byte) (*Artifact, error) {
	var payload serializedArtifact
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return nil, &wasmerrors.DeserializeError{Cause: err}
	}

	codeOffsets := make([]uint64, len(payload.Compiled))
	var cursor uint64
	for i, fc := range payload.Compiled {
		codeOffsets[i] = cursor
		cursor += uint64(len(fc.Body))
	}

	return &Artifact{
		Module:       payload.Module,
		Compiled:     payload.Compiled,
		Tunables:     payload.Tunables,
		MemoryStyles: payload.MemoryStyles,
		TableStyles:  payload.TableStyles,
		SignatureIDs: payload.SignatureIDs,
		CodeOffsets:  vmoffsets.NewCodeOffsets(codeOffsets),
	}, nil
}
