package models

import (
	"strings"
	"time"

	"veracity/pkg/domain"

	dErrors "veracity/pkg/domain-errors"
)

const maxDescriptionLen = 512

// Modification is one append-only history entry for a content record. Entries
// are strictly ordered by insertion and immutable once appended; a correction
// is a new entry, never an edit of an old one.
type Modification struct {
	Fingerprint string          `json:"fingerprint"`
	Description string          `json:"description"`
	ModifiedAt  time.Time       `json:"modified_at"`
	ModifiedBy  domain.Identity `json:"modified_by"`
}

// NewModification validates and constructs a history entry.
func NewModification(fingerprint, description string, modifiedBy domain.Identity, now time.Time) (*Modification, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	description = strings.TrimSpace(description)
	if fingerprint == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "modification fingerprint cannot be empty")
	}
	if len(fingerprint) > maxFingerprintLen {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "modification fingerprint must be 512 characters or less")
	}
	if len(description) > maxDescriptionLen {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "description must be 512 characters or less")
	}
	if modifiedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "modifying identity is required")
	}
	return &Modification{
		Fingerprint: fingerprint,
		Description: description,
		ModifiedAt:  now,
		ModifiedBy:  modifiedBy,
	}, nil
}
