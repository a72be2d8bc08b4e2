// Package events carries registry lifecycle notifications to interested
// consumers. The service emits an event after each committed write; sinks
// range from an in-process broker for tests and single-node deployments to a
// Kafka producer for anything that needs durable fan-out.
package events

import (
	"time"

	"veracity/pkg/domain"
)

// Type discriminates event payloads on the wire.
type Type string

const (
	TypeContentPublished    Type = "content_published"
	TypeContentModified     Type = "content_modified"
	TypeSourceRegistered    Type = "source_registered"
	TypeCredibilityAdjusted Type = "credibility_adjusted"
)

// Event is the envelope shared by every registry notification. Only the
// fields relevant to the event type are populated.
type Event struct {
	Type        Type             `json:"type"`
	ContentID   domain.ContentID `json:"content_id,omitempty"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Publisher   domain.Identity  `json:"publisher,omitempty"`
	Actor       domain.Identity  `json:"actor,omitempty"`
	Delta       int              `json:"delta,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// ContentPublished builds the notification for a newly registered record.
func ContentPublished(contentID domain.ContentID, fingerprint string, publisher domain.Identity, at time.Time) Event {
	return Event{
		Type:        TypeContentPublished,
		ContentID:   contentID,
		Fingerprint: fingerprint,
		Publisher:   publisher,
		Timestamp:   at,
	}
}

// ContentModified builds the notification for an appended modification.
func ContentModified(contentID domain.ContentID, fingerprint string, actor domain.Identity, at time.Time) Event {
	return Event{
		Type:        TypeContentModified,
		ContentID:   contentID,
		Fingerprint: fingerprint,
		Actor:       actor,
		Timestamp:   at,
	}
}

// SourceRegistered builds the notification for a new source.
func SourceRegistered(identity domain.Identity, at time.Time) Event {
	return Event{
		Type:      TypeSourceRegistered,
		Publisher: identity,
		Timestamp: at,
	}
}

// CredibilityAdjusted builds the notification for an admin score change.
func CredibilityAdjusted(identity domain.Identity, delta int, at time.Time) Event {
	return Event{
		Type:      TypeCredibilityAdjusted,
		Publisher: identity,
		Delta:     delta,
		Timestamp: at,
	}
}
