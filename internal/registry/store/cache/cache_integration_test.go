//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veracity/internal/registry/models"
	"veracity/internal/registry/store/cache"
	"veracity/internal/registry/store/memory"
	"veracity/pkg/domain"
	"veracity/pkg/testutil/containers"
)

const (
	publisherID = "0x5fbdb2315678afecb367f032d93f642f64180aa3"
)

type CacheStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *memory.Store
	store *cache.Store
	ctx   context.Context
}

func TestCacheStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheStoreSuite))
}

func (s *CacheStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *CacheStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
	s.inner = memory.New()
	s.store = cache.New(s.inner, s.redis.Client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *CacheStoreSuite) registerSource() *models.Source {
	src, err := models.NewSource(domain.Identity(publisherID), "Reuters", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSource(s.ctx, src))
	return src
}

func (s *CacheStoreSuite) publish(fingerprint string) *models.ContentRecord {
	rec, err := s.store.PublishContent(s.ctx, domain.Identity(publisherID), func(publisher *models.Source) (*models.ContentRecord, error) {
		return models.NewContentRecord(publisher, fingerprint, "article", time.Now().UTC())
	})
	s.Require().NoError(err)
	return rec
}

func (s *CacheStoreSuite) TestSourceReadThrough() {
	s.registerSource()

	// First read populates the cache.
	first, err := s.store.FindSource(s.ctx, domain.Identity(publisherID))
	s.Require().NoError(err)
	s.Equal("Reuters", first.Name)

	// Mutate the authoritative store behind the cache's back; the cached
	// entry masks the change until it is invalidated or expires.
	_, err = s.inner.ExecuteSource(s.ctx, domain.Identity(publisherID),
		func(*models.Source) error { return nil },
		func(src *models.Source) { src.ApplyCredibilityDelta(50) },
	)
	s.Require().NoError(err)

	cached, err := s.store.FindSource(s.ctx, domain.Identity(publisherID))
	s.Require().NoError(err)
	s.Equal(models.CredibilityBaseline, cached.CredibilityScore)
}

func (s *CacheStoreSuite) TestExecuteSourceInvalidates() {
	s.registerSource()

	_, err := s.store.FindSource(s.ctx, domain.Identity(publisherID))
	s.Require().NoError(err)

	_, err = s.store.ExecuteSource(s.ctx, domain.Identity(publisherID),
		func(*models.Source) error { return nil },
		func(src *models.Source) { src.ApplyCredibilityDelta(50) },
	)
	s.Require().NoError(err)

	fresh, err := s.store.FindSource(s.ctx, domain.Identity(publisherID))
	s.Require().NoError(err)
	s.Equal(models.CredibilityBaseline+50, fresh.CredibilityScore)
}

func (s *CacheStoreSuite) TestPublishInvalidatesPublisher() {
	s.registerSource()

	before, err := s.store.FindSource(s.ctx, domain.Identity(publisherID))
	s.Require().NoError(err)
	s.Equal(uint64(0), before.TotalPublications)

	s.publish("sha256:cafe")

	after, err := s.store.FindSource(s.ctx, domain.Identity(publisherID))
	s.Require().NoError(err)
	s.Equal(uint64(1), after.TotalPublications)
}

func (s *CacheStoreSuite) TestContentReadThroughAndModificationInvalidates() {
	s.registerSource()
	rec := s.publish("sha256:cafe")

	first, err := s.store.FindContent(s.ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Equal(0, first.ModificationsCount)

	mod, err := models.NewModification("sha256:beef", "typo fix", domain.Identity(publisherID), time.Now().UTC())
	s.Require().NoError(err)
	index, err := s.store.AppendModification(s.ctx, rec.ContentID, domain.Identity(publisherID),
		func(*models.ContentRecord, *models.Source) error { return nil },
		mod,
	)
	s.Require().NoError(err)
	s.Equal(0, index)

	fresh, err := s.store.FindContent(s.ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Equal(1, fresh.ModificationsCount)
}

func (s *CacheStoreSuite) TestMissFallsThrough() {
	s.registerSource()
	rec := s.publish("sha256:cafe")

	// No prior read: the cache is cold and the lookup hits the store.
	got, err := s.store.FindContent(s.ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Equal(rec.ContentID, got.ContentID)
}
