package sourceloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corewasm/corewasm/internal/sourceloc"
)

func TestDefault(t *testing.T) {
	d := sourceloc.Default()
	assert.True(t, d.IsDefault())
	assert.Equal(t, uint32(0xffffffff), d.Bits())
	assert.Equal(t, "0x-", d.String())
}

func TestNewRoundtrips(t *testing.T) {
	s := sourceloc.New(0x2a)
	assert.False(t, s.IsDefault())
	assert.Equal(t, uint32(0x2a), s.Bits())
	assert.Equal(t, "0x002a", s.String())
}

func TestNewWithAllOnesIsDefault(t *testing.T) {
	// The all-ones pattern is indistinguishable from Default by construction;
	// this documents that edge rather than treating it as a bug.
	s := sourceloc.New(0xffffffff)
	assert.True(t, s.IsDefault())
}
