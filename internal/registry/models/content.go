package models

import (
	"strings"
	"time"

	"veracity/pkg/domain"

	dErrors "veracity/pkg/domain-errors"
)

const (
	maxFingerprintLen = 512
	maxContentTypeLen = 128
)

// ContentRecord is one published piece of content.
//
// Invariants:
//   - ContentID uniquely identifies exactly one record
//   - Fingerprint, Publisher, PublishedAt and ContentType are immutable
//   - CredibilityScore is a snapshot of the publisher's score at publish
//     time and never retroactively changes
//   - ModificationsCount equals the length of the record's modification log
//
// Records are never deleted. Edits to content are represented as appended
// Modification entries, not mutation of the original record.
type ContentRecord struct {
	ContentID          domain.ContentID `json:"content_id"`
	Fingerprint        string           `json:"fingerprint"`
	Publisher          domain.Identity  `json:"publisher"`
	PublishedAt        time.Time        `json:"published_at"`
	ContentType        string           `json:"content_type"`
	CredibilityScore   int              `json:"credibility_score"`
	IsVerified         bool             `json:"is_verified"`
	ModificationsCount int              `json:"modifications_count"`
}

// NewContentRecord derives the content id from the publisher's current state
// and snapshots the publisher's credibility. The sequence number must be the
// publisher's TotalPublications read under the same lock that increments it.
func NewContentRecord(publisher *Source, fingerprint, contentType string, now time.Time) (*ContentRecord, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	contentType = strings.TrimSpace(contentType)
	if fingerprint == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fingerprint cannot be empty")
	}
	if len(fingerprint) > maxFingerprintLen {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fingerprint must be 512 characters or less")
	}
	if contentType == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "content type cannot be empty")
	}
	if len(contentType) > maxContentTypeLen {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "content type must be 128 characters or less")
	}

	return &ContentRecord{
		ContentID:          domain.DeriveContentID(publisher.Identity, fingerprint, contentType, publisher.TotalPublications),
		Fingerprint:        fingerprint,
		Publisher:          publisher.Identity,
		PublishedAt:        now,
		ContentType:        contentType,
		CredibilityScore:   publisher.CredibilityScore,
		IsVerified:         false,
		ModificationsCount: 0,
	}, nil
}

// ApplyVerified sets the externally administered verification flag.
func (c *ContentRecord) ApplyVerified(verified bool) {
	c.IsVerified = verified
}
