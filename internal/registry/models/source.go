package models

import (
	"strings"
	"time"

	"veracity/pkg/domain"

	dErrors "veracity/pkg/domain-errors"
)

// Credibility score bounds. New sources start at the baseline; administrative
// adjustments clamp to [CredibilityMin, CredibilityMax].
const (
	CredibilityBaseline = 100
	CredibilityMin      = 0
	CredibilityMax      = 1000
)

const maxSourceNameLen = 128

// Source is a registered publishing identity.
//
// Invariants:
//   - At most one Source per identity; registration never overwrites
//   - Name is non-empty, at most 128 characters, set once at registration
//   - TotalPublications is monotonically increasing
//   - CredibilityScore stays within [CredibilityMin, CredibilityMax]
//   - RegisteredAt is immutable after construction
//
// A Source is never deleted. After registration only the publication counter,
// the credibility score, and the externally administered IsVerified flag
// change.
type Source struct {
	Identity          domain.Identity `json:"identity"`
	Name              string          `json:"name"`
	CredibilityScore  int             `json:"credibility_score"`
	TotalPublications uint64          `json:"total_publications"`
	IsVerified        bool            `json:"is_verified"`
	RegisteredAt      time.Time       `json:"registered_at"`
}

// NewSource constructs a Source with baseline credibility and no publications.
func NewSource(identity domain.Identity, name string, now time.Time) (*Source, error) {
	name = strings.TrimSpace(name)
	if identity.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "source identity is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "source name cannot be empty")
	}
	if len(name) > maxSourceNameLen {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "source name must be 128 characters or less")
	}
	return &Source{
		Identity:          identity,
		Name:              name,
		CredibilityScore:  CredibilityBaseline,
		TotalPublications: 0,
		IsVerified:        false,
		RegisteredAt:      now,
	}, nil
}

// ApplyPublication records one successful publication.
func (s *Source) ApplyPublication() {
	s.TotalPublications++
}

// ApplyCredibilityDelta adjusts the credibility score, clamping to the
// allowed range.
func (s *Source) ApplyCredibilityDelta(delta int) {
	score := s.CredibilityScore + delta
	if score < CredibilityMin {
		score = CredibilityMin
	}
	if score > CredibilityMax {
		score = CredibilityMax
	}
	s.CredibilityScore = score
}

// ApplyVerified sets the externally administered verification flag.
func (s *Source) ApplyVerified(verified bool) {
	s.IsVerified = verified
}
