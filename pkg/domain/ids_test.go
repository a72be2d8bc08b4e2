package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veracity/pkg/domain-errors"
)

const (
	validIdentity  = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
	validContentID = "0x4d8b5f9a3e2c1d0f4d8b5f9a3e2c1d0f4d8b5f9a3e2c1d0f4d8b5f9a3e2c1d0f"
)

func TestParseIdentity(t *testing.T) {
	t.Run("accepts valid address", func(t *testing.T) {
		id, err := ParseIdentity(validIdentity)
		require.NoError(t, err)
		assert.Equal(t, Identity(validIdentity), id)
	})

	t.Run("normalizes to lowercase", func(t *testing.T) {
		id, err := ParseIdentity("0x5FBDB2315678AFECB367F032D93F642F64180AA3")
		require.NoError(t, err)
		assert.Equal(t, Identity(validIdentity), id)
	})

	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"missing prefix", "5fbdb2315678afecb367f032d93f642f64180aa3"},
		{"too short", "0x5fbdb2"},
		{"too long", validIdentity + "ff"},
		{"non-hex characters", "0x5fbdb2315678afecb367f032d93f642f64180azz"},
		{"zero address", "0x" + strings.Repeat("0", 40)},
		{"SQL injection attempt", "'; DROP TABLE sources;--"},
		{"path traversal", "../../../etc/passwd"},
		{"null byte injection", "0x5fbdb231\x00678afecb367f032d93f642f64180aa3"},
		{"oversized input", "0x" + strings.Repeat("a", 1000)},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			_, err := ParseIdentity(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseContentID(t *testing.T) {
	t.Run("accepts valid id", func(t *testing.T) {
		id, err := ParseContentID(validContentID)
		require.NoError(t, err)
		assert.Equal(t, ContentID(validContentID), id)
	})

	t.Run("rejects identity-length input", func(t *testing.T) {
		_, err := ParseContentID(validIdentity)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero id", func(t *testing.T) {
		_, err := ParseContentID("0x" + strings.Repeat("0", 64))
		require.Error(t, err)
	})
}

func TestDeriveContentID(t *testing.T) {
	publisher := Identity(validIdentity)

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		a := DeriveContentID(publisher, "abc123", "image/jpeg", 0)
		b := DeriveContentID(publisher, "abc123", "image/jpeg", 0)
		assert.Equal(t, a, b)
	})

	t.Run("nonce separates repeat publications", func(t *testing.T) {
		a := DeriveContentID(publisher, "abc123", "image/jpeg", 0)
		b := DeriveContentID(publisher, "abc123", "image/jpeg", 1)
		assert.NotEqual(t, a, b)
	})

	t.Run("field boundaries are unambiguous", func(t *testing.T) {
		// Without length prefixes these two tuples would hash identically.
		a := DeriveContentID(publisher, "ab", "c", 0)
		b := DeriveContentID(publisher, "a", "bc", 0)
		assert.NotEqual(t, a, b)
	})

	t.Run("result parses as a content id", func(t *testing.T) {
		derived := DeriveContentID(publisher, "abc123", "image/jpeg", 7)
		parsed, err := ParseContentID(derived.String())
		require.NoError(t, err)
		assert.Equal(t, derived, parsed)
	})
}
