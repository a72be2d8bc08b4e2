// Package service orchestrates the content authenticity registry: source
// registration, content publication, and the append-only modification log.
// All mutations go through the store's atomic callbacks; the service decides
// policy (who may do what) and translates store sentinels into domain errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"veracity/internal/registry/events"
	"veracity/internal/registry/metrics"
	"veracity/internal/registry/models"
	"veracity/internal/registry/store"
	"veracity/pkg/domain"
	dErrors "veracity/pkg/domain-errors"
	"veracity/pkg/platform/sentinel"
	"veracity/pkg/requestcontext"
)

// Service exposes the registry operations.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	events  events.Sink
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithEvents(sink events.Sink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service around a ledger store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, events: events.Discard}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterSource registers the calling identity as a content source. Each
// identity registers at most once; a second attempt fails without touching
// the existing record.
func (s *Service) RegisterSource(ctx context.Context, name string) (*models.Source, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	src, err := models.NewSource(caller, name, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, dErrors.Message(err))
		}
		return nil, err
	}

	if err := s.store.CreateSource(ctx, src); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "source already registered")
		}
		return nil, s.storeFailure(err, "failed to register source")
	}

	s.logOp(ctx, "source registered", "identity", src.Identity.String())
	s.emit(ctx, events.SourceRegistered(src.Identity, src.RegisteredAt))
	if s.metrics != nil {
		s.metrics.IncrementSourcesRegistered()
	}
	return src, nil
}

// GetSource returns the registered source for an identity.
func (s *Service) GetSource(ctx context.Context, identity domain.Identity) (*models.Source, error) {
	src, err := s.store.FindSource(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "source not found")
		}
		return nil, s.storeFailure(err, "failed to load source")
	}
	return src, nil
}

// PublishContent registers a content record for the calling identity. The
// content id derivation, the publisher's credibility snapshot, and the
// publication counter increment happen in one atomic store step.
func (s *Service) PublishContent(ctx context.Context, fingerprint, contentType string) (*models.ContentRecord, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	now := requestcontext.Now(ctx)

	rec, err := s.store.PublishContent(ctx, caller, func(publisher *models.Source) (*models.ContentRecord, error) {
		record, err := models.NewContentRecord(publisher, fingerprint, contentType, now)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return nil, dErrors.New(dErrors.CodeInvalidInput, dErrors.Message(err))
			}
			return nil, err
		}
		return record, nil
	})
	if err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "publisher is not a registered source")
		}
		return nil, s.storeFailure(err, "failed to publish content")
	}

	s.logOp(ctx, "content published",
		"content_id", rec.ContentID.String(),
		"publisher", caller.String(),
	)
	s.emit(ctx, events.ContentPublished(rec.ContentID, rec.Fingerprint, rec.Publisher, rec.PublishedAt))
	if s.metrics != nil {
		s.metrics.IncrementContentPublished()
		s.metrics.ObservePublish(start)
	}
	return rec, nil
}

// GetContent returns a published content record.
func (s *Service) GetContent(ctx context.Context, contentID domain.ContentID) (*models.ContentRecord, error) {
	start := time.Now()
	rec, err := s.store.FindContent(ctx, contentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "content not found")
		}
		return nil, s.storeFailure(err, "failed to load content")
	}
	if s.metrics != nil {
		s.metrics.ObserveGetContent(start)
	}
	return rec, nil
}

// RecordModification appends an entry to a content record's modification
// history and returns its index. The caller must be the original publisher or
// a verified registered source; the check runs under the same lock as the
// append so the history stays strictly ordered.
func (s *Service) RecordModification(ctx context.Context, contentID domain.ContentID, fingerprint, description string) (int, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return 0, err
	}

	start := time.Now()

	mod, err := models.NewModification(fingerprint, description, caller, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return 0, dErrors.New(dErrors.CodeInvalidInput, dErrors.Message(err))
		}
		return 0, err
	}

	// The store hands authorize the caller's source row read under the same
	// lock as the append, so an admin flipping the verified flag concurrently
	// cannot slip between the permission check and the write.
	index, err := s.store.AppendModification(ctx, contentID, caller, func(rec *models.ContentRecord, callerSource *models.Source) error {
		if rec.Publisher == caller {
			return nil
		}
		if callerSource != nil && callerSource.IsVerified {
			return nil
		}
		return dErrors.New(dErrors.CodeForbidden, "caller may not modify this content")
	}, mod)
	if err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return 0, err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "content not found")
		}
		return 0, s.storeFailure(err, "failed to record modification")
	}

	s.logOp(ctx, "modification recorded",
		"content_id", contentID.String(),
		"index", index,
		"modified_by", caller.String(),
	)
	s.emit(ctx, events.ContentModified(contentID, mod.Fingerprint, caller, mod.ModifiedAt))
	if s.metrics != nil {
		s.metrics.IncrementModificationsRecorded()
		s.metrics.ObserveModify(start)
	}
	return index, nil
}

// GetModification returns one history entry by index.
func (s *Service) GetModification(ctx context.Context, contentID domain.ContentID, index int) (*models.Modification, error) {
	mod, err := s.store.FindModification(ctx, contentID, index)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Distinguish an unknown record from a bad index.
			if _, findErr := s.store.FindContent(ctx, contentID); findErr != nil {
				if errors.Is(findErr, sentinel.ErrNotFound) {
					return nil, dErrors.New(dErrors.CodeNotFound, "content not found")
				}
				return nil, s.storeFailure(findErr, "failed to load content")
			}
			return nil, dErrors.New(dErrors.CodeOutOfRange, "modification index out of range")
		}
		return nil, s.storeFailure(err, "failed to load modification")
	}
	return mod, nil
}

// ListModifications returns the full ordered history for a content record.
func (s *Service) ListModifications(ctx context.Context, contentID domain.ContentID) ([]models.Modification, error) {
	history, err := s.store.ListModifications(ctx, contentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "content not found")
		}
		return nil, s.storeFailure(err, "failed to load modification history")
	}
	return history, nil
}

// ListContentByPublisher returns the content ids an identity has published,
// in publication order.
func (s *Service) ListContentByPublisher(ctx context.Context, publisher domain.Identity) ([]domain.ContentID, error) {
	if _, err := s.GetSource(ctx, publisher); err != nil {
		return nil, err
	}
	ids, err := s.store.ListContentByPublisher(ctx, publisher)
	if err != nil {
		return nil, s.storeFailure(err, "failed to load published content")
	}
	return ids, nil
}

// AdjustCredibility applies an administrative delta to a source's credibility
// score, clamped to the allowed range.
func (s *Service) AdjustCredibility(ctx context.Context, identity domain.Identity, delta int) (*models.Source, error) {
	src, err := s.store.ExecuteSource(ctx, identity,
		func(*models.Source) error { return nil },
		func(src *models.Source) { src.ApplyCredibilityDelta(delta) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "source not found")
		}
		return nil, s.storeFailure(err, "failed to adjust credibility")
	}

	s.logOp(ctx, "credibility adjusted",
		"identity", identity.String(),
		"delta", delta,
		"score", src.CredibilityScore,
	)
	s.emit(ctx, events.CredibilityAdjusted(identity, delta, requestcontext.Now(ctx)))
	return src, nil
}

// SetSourceVerified sets the externally administered verification flag on a
// source.
func (s *Service) SetSourceVerified(ctx context.Context, identity domain.Identity, verified bool) (*models.Source, error) {
	src, err := s.store.ExecuteSource(ctx, identity,
		func(*models.Source) error { return nil },
		func(src *models.Source) { src.ApplyVerified(verified) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "source not found")
		}
		return nil, s.storeFailure(err, "failed to update source verification")
	}

	s.logOp(ctx, "source verification updated",
		"identity", identity.String(),
		"verified", verified,
	)
	return src, nil
}

// SetContentVerified sets the externally administered verification flag on a
// content record.
func (s *Service) SetContentVerified(ctx context.Context, contentID domain.ContentID, verified bool) (*models.ContentRecord, error) {
	rec, err := s.store.ExecuteContent(ctx, contentID,
		func(*models.ContentRecord) error { return nil },
		func(rec *models.ContentRecord) { rec.ApplyVerified(verified) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "content not found")
		}
		return nil, s.storeFailure(err, "failed to update content verification")
	}

	s.logOp(ctx, "content verification updated",
		"content_id", contentID.String(),
		"verified", verified,
	)
	return rec, nil
}

// caller returns the authenticated identity from the request context.
func (s *Service) caller(ctx context.Context) (domain.Identity, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	return caller, nil
}

// storeFailure maps infrastructure sentinels to domain codes.
func (s *Service) storeFailure(err error, message string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "registry store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func (s *Service) logOp(ctx context.Context, msg string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	s.logger.InfoContext(ctx, msg, attributes...)
}

func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.events.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "event emit failed",
			"event_type", string(event.Type),
			"error", err.Error(),
		)
	}
}
