// Package store defines the ledger persistence contract. The registry service
// receives a Store handle at construction; there is no ambient global state.
//
// Mutating methods take callbacks that run under the store's lock (mutex in
// memory, row locks in Postgres) so validation, id derivation and the write
// are one atomic step. This models the substrate guarantee that no two
// mutating operations interleave their effects.
package store

import (
	"context"

	"veracity/internal/registry/models"
	"veracity/pkg/domain"
)

// Store persists the four ledger tables: sources, content records, per-content
// modification logs, and the publisher index.
//
// Stores return pkg/platform/sentinel errors for infrastructure facts
// (ErrNotFound, ErrConflict, ErrUnavailable); services translate them into
// domain errors.
type Store interface {
	// CreateSource inserts a new source. Returns sentinel.ErrConflict when
	// the identity is already registered; never overwrites.
	CreateSource(ctx context.Context, src *models.Source) error

	// FindSource returns the source for an identity or sentinel.ErrNotFound.
	FindSource(ctx context.Context, identity domain.Identity) (*models.Source, error)

	// ExecuteSource atomically validates and mutates a source. validate runs
	// under the lock and aborts the mutation when it errors; apply then
	// mutates in place. Returns the updated source.
	ExecuteSource(
		ctx context.Context,
		identity domain.Identity,
		validate func(*models.Source) error,
		apply func(*models.Source),
	) (*models.Source, error)

	// PublishContent atomically creates a content record for a registered
	// publisher. build receives the publisher's current state under the lock
	// (so the credibility snapshot and the sequence nonce are consistent) and
	// returns the record to insert. The publisher's TotalPublications is
	// incremented in the same step. Returns sentinel.ErrNotFound when the
	// publisher is not registered; nothing is written in that case.
	PublishContent(
		ctx context.Context,
		publisher domain.Identity,
		build func(*models.Source) (*models.ContentRecord, error),
	) (*models.ContentRecord, error)

	// FindContent returns a content record or sentinel.ErrNotFound.
	FindContent(ctx context.Context, contentID domain.ContentID) (*models.ContentRecord, error)

	// ExecuteContent atomically validates and mutates a content record's
	// administered flags. Immutable fields must not be touched by apply.
	ExecuteContent(
		ctx context.Context,
		contentID domain.ContentID,
		validate func(*models.ContentRecord) error,
		apply func(*models.ContentRecord),
	) (*models.ContentRecord, error)

	// AppendModification appends mod to the content's history. authorize runs
	// under the lock with the current record and the caller's source row
	// (nil when the caller never registered), so the permission check,
	// including the caller's verified status, and the append are one atomic
	// step. Returns the new entry's index, which equals the record's previous
	// ModificationsCount.
	AppendModification(
		ctx context.Context,
		contentID domain.ContentID,
		caller domain.Identity,
		authorize func(rec *models.ContentRecord, callerSource *models.Source) error,
		mod *models.Modification,
	) (int, error)

	// FindModification returns the index-th history entry.
	// sentinel.ErrNotFound covers both an unknown content id and an index at
	// or past the history length.
	FindModification(ctx context.Context, contentID domain.ContentID, index int) (*models.Modification, error)

	// ListModifications returns the full ordered history for a content id.
	ListModifications(ctx context.Context, contentID domain.ContentID) ([]models.Modification, error)

	// ListContentByPublisher returns the ids published by an identity in
	// publication order. This is a convenience read index, not authoritative.
	ListContentByPublisher(ctx context.Context, publisher domain.Identity) ([]domain.ContentID, error)
}
