// Package domain holds typed identifiers shared across modules. Parsing is the
// trust boundary: handlers and clients must go through ParseIdentity /
// ParseContentID so malformed input never reaches stores.
package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	dErrors "veracity/pkg/domain-errors"
)

// Identity is an account address: "0x" followed by 40 hex characters,
// normalized to lowercase. It identifies a publishing source.
type Identity string

// ContentID is the deterministic handle for a content record: "0x" followed by
// 64 hex characters (a 32-byte digest).
type ContentID string

const (
	identityHexLen  = 40
	contentIDHexLen = 64
)

// ParseIdentity validates and normalizes an account address.
func ParseIdentity(s string) (Identity, error) {
	hexPart, err := parseHexID(s, identityHexLen, "identity")
	if err != nil {
		return "", err
	}
	return Identity("0x" + hexPart), nil
}

// ParseContentID validates and normalizes a content id.
func ParseContentID(s string) (ContentID, error) {
	hexPart, err := parseHexID(s, contentIDHexLen, "content id")
	if err != nil {
		return "", err
	}
	return ContentID("0x" + hexPart), nil
}

func parseHexID(s string, hexLen int, what string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" must start with 0x")
	}
	hexPart := strings.ToLower(s[2:])
	if len(hexPart) != hexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" has wrong length")
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" is not valid hex")
	}
	if hexPart == strings.Repeat("0", hexLen) {
		return "", dErrors.New(dErrors.CodeInvalidInput, what+" must not be zero")
	}
	return hexPart, nil
}

func (i Identity) String() string { return string(i) }

// IsNil reports whether the identity is unset.
func (i Identity) IsNil() bool { return i == "" }

func (c ContentID) String() string { return string(c) }

// IsNil reports whether the content id is unset.
func (c ContentID) IsNil() bool { return c == "" }

// DeriveContentID computes the ledger-internal content id from the publish
// inputs plus the publisher's sequence number at publish time. Fields are
// length-prefixed before hashing so no two input tuples share an encoding.
// The nonce is internal ledger state, which is what makes ids non-guessable
// ahead of time by callers.
func DeriveContentID(publisher Identity, fingerprint, contentType string, nonce uint64) ContentID {
	h := sha256.New()
	writeField := func(field string) {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}
	writeField(string(publisher))
	writeField(fingerprint)
	writeField(contentType)
	var nonceBuf [8]byte
	binary.BigEndian.PutUint64(nonceBuf[:], nonce)
	h.Write(nonceBuf[:])
	return ContentID("0x" + hex.EncodeToString(h.Sum(nil)))
}
