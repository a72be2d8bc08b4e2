package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(CodeNotFound, "content not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("wrapped code is visible through outer wraps", func(t *testing.T) {
		inner := New(CodeConflict, "source already registered")
		outer := Wrap(inner, CodeInternal, "register failed")
		assert.True(t, HasCode(outer, CodeConflict))
		assert.True(t, HasCode(outer, CodeInternal))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})

	t.Run("fmt wrapping preserves codes", func(t *testing.T) {
		err := fmt.Errorf("publish: %w", New(CodeForbidden, "not authorized"))
		assert.True(t, HasCode(err, CodeForbidden))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("preserves chain for errors.Is", func(t *testing.T) {
		sentinel := errors.New("driver gone")
		err := Wrap(sentinel, CodeUnavailable, "substrate unreachable")
		assert.ErrorIs(t, err, sentinel)
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOutOfRange, CodeOf(New(CodeOutOfRange, "index 3")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("raw")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "index 3", Message(New(CodeOutOfRange, "index 3")))
	assert.Equal(t, "raw", Message(errors.New("raw")))
}
