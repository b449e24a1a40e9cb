package wasmerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corewasm/corewasm/internal/sourceloc"
	"github.com/corewasm/corewasm/internal/wasmerrors"
)

func TestWasmError_ErrorStrings(t *testing.T) {
	invalid := wasmerrors.InvalidWebAssembly(0x10, "bad section id %d", 99)
	assert.Contains(t, invalid.Error(), "0x10")
	assert.False(t, invalid.Unsupported)

	unsupported := wasmerrors.Unsupported("shared memories are not supported yet")
	assert.True(t, unsupported.Unsupported)
	assert.Contains(t, unsupported.Error(), "unsupported")
}

func TestLinkErrorKind_String(t *testing.T) {
	assert.Equal(t, "import", wasmerrors.LinkErrorImport.String())
	assert.Equal(t, "resource", wasmerrors.LinkErrorResource.String())
	assert.Equal(t, "signature", wasmerrors.LinkErrorSignature.String())
}

func TestNewLinkError_PreservesCauseInMessage(t *testing.T) {
	cause := errors.New("no such field")
	le := wasmerrors.NewLinkError(wasmerrors.LinkErrorImport, cause, "env.missing")
	assert.Contains(t, le.Error(), "no such field")
	assert.Contains(t, le.Error(), "import")
}

func TestNewLinkError_NilCauseDoesNotPanic(t *testing.T) {
	le := wasmerrors.NewLinkError(wasmerrors.LinkErrorImport, nil, "no import supplied for %s.%s", "env", "missing")
	assert.Contains(t, le.Error(), "no import supplied for env.missing")
}

func TestInstantiationError_UnwrapsByStage(t *testing.T) {
	link := wasmerrors.NewLinkError(wasmerrors.LinkErrorImport, nil, "env.f")
	linkErr := wasmerrors.NewInstantiationLinkError(link)
	assert.Equal(t, wasmerrors.InstantiationStageLink, linkErr.Stage)
	assert.Same(t, link, errors.Unwrap(linkErr))

	start := wasmerrors.FromTrap(wasmerrors.TrapUnreachable)
	startErr := wasmerrors.NewInstantiationStartError(start)
	assert.Equal(t, wasmerrors.InstantiationStageStart, startErr.Stage)
	assert.Same(t, start, errors.Unwrap(startErr))
}

func TestRuntimeError_TrapVsUserPayload(t *testing.T) {
	trapErr := wasmerrors.FromTrap(wasmerrors.TrapIntegerDivideByZero)
	assert.Contains(t, trapErr.Error(), "divide by zero")

	userErr := wasmerrors.FromUserPayload("custom reason")
	assert.Contains(t, userErr.Error(), "custom reason")
}

type customPayload struct{ code int }

func TestDowncast_SucceedsOnlyForMatchingUserPayload(t *testing.T) {
	userErr := wasmerrors.FromUserPayload(customPayload{code: 7})
	v, ok := wasmerrors.Downcast[customPayload](userErr)
	assert.True(t, ok)
	assert.Equal(t, 7, v.code)

	_, ok = wasmerrors.Downcast[string](userErr)
	assert.False(t, ok)

	trapErr := wasmerrors.FromTrap(wasmerrors.TrapUnreachable)
	_, ok = wasmerrors.Downcast[customPayload](trapErr)
	assert.False(t, ok)

	_, ok = wasmerrors.Downcast[customPayload](nil)
	assert.False(t, ok)
}

func TestRuntimeError_LocDefaultsUnlessGivenAPosition(t *testing.T) {
	trapErr := wasmerrors.FromTrap(wasmerrors.TrapUnreachable)
	assert.True(t, trapErr.Loc.IsDefault())
	assert.NotContains(t, trapErr.Error(), "at 0x")

	located := wasmerrors.FromTrapAt(wasmerrors.TrapUnreachable, sourceloc.New(0x2a))
	assert.False(t, located.Loc.IsDefault())
	assert.Contains(t, located.Error(), "0x002a")

	userErr := wasmerrors.FromUserPayload("bail")
	assert.True(t, userErr.Loc.IsDefault())
}

func TestSerializeDeserializeError_Unwrap(t *testing.T) {
	cause := errors.New("short write")
	se := &wasmerrors.SerializeError{Cause: cause}
	assert.Same(t, cause, errors.Unwrap(se))

	de := &wasmerrors.DeserializeError{Cause: cause}
	assert.Same(t, cause, errors.Unwrap(de))
}
