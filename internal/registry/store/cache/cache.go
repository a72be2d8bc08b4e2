// Package cache decorates a ledger store with a Redis read-through cache for
// the hot read paths (content and source lookups). The underlying store stays
// authoritative; cache entries expire after a configured TTL and are
// invalidated on every mutation of the cached record.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"veracity/internal/registry/models"
	"veracity/internal/registry/store"
	"veracity/pkg/domain"
)

const (
	sourceKeyPrefix  = "veracity:source:"
	contentKeyPrefix = "veracity:content:"
)

// Store wraps an authoritative ledger store with a Redis cache.
type Store struct {
	store.Store
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New builds the caching decorator.
func New(next store.Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{Store: next, redis: client, ttl: ttl, logger: logger}
}

func (s *Store) FindSource(ctx context.Context, identity domain.Identity) (*models.Source, error) {
	key := sourceKeyPrefix + identity.String()
	var cached models.Source
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	src, err := s.Store.FindSource(ctx, identity)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, src)
	return src, nil
}

func (s *Store) FindContent(ctx context.Context, contentID domain.ContentID) (*models.ContentRecord, error) {
	key := contentKeyPrefix + contentID.String()
	var cached models.ContentRecord
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	rec, err := s.Store.FindContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, rec)
	return rec, nil
}

func (s *Store) ExecuteSource(
	ctx context.Context,
	identity domain.Identity,
	validate func(*models.Source) error,
	apply func(*models.Source),
) (*models.Source, error) {
	src, err := s.Store.ExecuteSource(ctx, identity, validate, apply)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, sourceKeyPrefix+identity.String())
	return src, nil
}

func (s *Store) PublishContent(
	ctx context.Context,
	publisher domain.Identity,
	build func(*models.Source) (*models.ContentRecord, error),
) (*models.ContentRecord, error) {
	rec, err := s.Store.PublishContent(ctx, publisher, build)
	if err != nil {
		return nil, err
	}
	// The publish bumped the publisher's publication counter.
	s.invalidate(ctx, sourceKeyPrefix+publisher.String())
	return rec, nil
}

func (s *Store) ExecuteContent(
	ctx context.Context,
	contentID domain.ContentID,
	validate func(*models.ContentRecord) error,
	apply func(*models.ContentRecord),
) (*models.ContentRecord, error) {
	rec, err := s.Store.ExecuteContent(ctx, contentID, validate, apply)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, contentKeyPrefix+contentID.String())
	return rec, nil
}

func (s *Store) AppendModification(
	ctx context.Context,
	contentID domain.ContentID,
	caller domain.Identity,
	authorize func(*models.ContentRecord, *models.Source) error,
	mod *models.Modification,
) (int, error) {
	index, err := s.Store.AppendModification(ctx, contentID, caller, authorize, mod)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, contentKeyPrefix+contentID.String())
	return index, nil
}

// cacheGet reports whether key was present and decoded into out. Redis
// failures degrade to a miss; the authoritative store answers instead.
func (s *Store) cacheGet(ctx context.Context, key string, out any) bool {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "record cache read failed", "key", key, "error", err.Error())
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.WarnContext(ctx, "record cache entry corrupt", "key", key, "error", err.Error())
		return false
	}
	return true
}

func (s *Store) cacheSet(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "record cache write failed", "key", key, "error", err.Error())
	}
}

func (s *Store) invalidate(ctx context.Context, key string) {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.WarnContext(ctx, "record cache invalidation failed", "key", key, "error", err.Error())
	}
}
