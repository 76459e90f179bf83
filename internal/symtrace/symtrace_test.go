package symtrace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesUnderlyingError(t *testing.T) {
	original := errors.New("boom")
	wrapped := Wrap("optimize", original)

	assert.ErrorContains(t, wrapped, "optimize")
	assert.ErrorContains(t, wrapped, "boom")
	assert.ErrorIs(t, wrapped, original)
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap("emit", nil))
}

func TestTacNoopWhenDisabled(t *testing.T) {
	// Enabled is latched from the environment at init; in a test binary
	// NEVEC_TRACE is never set, so Tac must not panic on a nil Tac.
	assert.False(t, Enabled)
	Tac("lower", nil)
}
