package vmoffsets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corewasm/corewasm/internal/vmoffsets"
)

func TestNew_ScenarioSixLayout(t *testing.T) {
	o := vmoffsets.New(8, vmoffsets.ModuleCounts{
		NumSignatureIDs:  2,
		NumImportedFuncs: 1,
	})

	assert.Equal(t, uint32(0), o.VMContextSignatureIDsBegin())
	assert.Equal(t, uint32(8), o.VMContextImportedFunctionsBegin())
	assert.Equal(t, uint32(24), o.VMContextImportedTablesBegin())
}

func TestNew_GlobalsRegionIs16ByteAligned(t *testing.T) {
	// One imported func (8 bytes * 2 words = 16) plus one signature ID (4
	// bytes) pushes the cursor to 20 before the globals region, which must
	// round up to 32.
	o := vmoffsets.New(8, vmoffsets.ModuleCounts{
		NumSignatureIDs:    1,
		NumImportedFuncs:   1,
		NumDefinedGlobals:  1,
	})
	assert.Zero(t, o.VMContextDefinedGlobalsBegin()%16)
}

func TestNew_EmptyModuleHasBuiltinsOnly(t *testing.T) {
	o := vmoffsets.New(8, vmoffsets.ModuleCounts{})
	assert.Equal(t, uint32(0), o.VMContextBuiltinFunctionsBegin())
	assert.Equal(t, uint32(8*13), o.Size())
}

func TestVMOffsets_PerEntryAccessors(t *testing.T) {
	o := vmoffsets.New(8, vmoffsets.ModuleCounts{
		NumImportedFuncs:   2,
		NumDefinedMemories: 2,
	})

	assert.Equal(t, o.VMFunctionImportBody(1)+8, o.VMFunctionImportVmctx(1))
	assert.Equal(t, o.VMMemoryDefinitionBase(1)+8, o.VMMemoryDefinitionCurrentLength(1))
	assert.Panics(t, func() { o.VMFunctionImportBody(2) })
}

func TestCodeOffsets_Roundtrips(t *testing.T) {
	cases := map[string][]uint64{
		"empty":       {},
		"single":      {42},
		"small":       {0, 10, 20, 30},
		"large delta": {0, 1 << 40, 1 << 41},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			offs := vmoffsets.NewCodeOffsets(values)
			require.Equal(t, len(values), offs.Len())
			for i, want := range values {
				assert.Equal(t, want, offs.Offset(i))
			}
		})
	}
}

func TestCodeOffsetsLen_HandlesNil(t *testing.T) {
	assert.Equal(t, 0, vmoffsets.CodeOffsetsLen(nil))
}
