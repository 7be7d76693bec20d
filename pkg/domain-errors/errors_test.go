package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code matches", func(t *testing.T) {
		err := New(CodeNotFound, "surveillance not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("wrapped code is visible through layers", func(t *testing.T) {
		cause := New(CodeConflict, "duplicate active surveillance")
		err := Wrap(cause, CodeInternal, "create failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause yields nil", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause stays reachable via errors.Is", func(t *testing.T) {
		sentinel := errors.New("row not found")
		err := Wrap(fmt.Errorf("query: %w", sentinel), CodeNotFound, "lookup failed")
		assert.True(t, Is(err, sentinel))
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "quota reached", Message(New(CodeQuotaExceeded, "quota reached")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
	assert.Equal(t, "", Message(nil))
}
