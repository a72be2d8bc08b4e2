//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"veracity/internal/registry/models"
	"veracity/internal/registry/store/postgres"
	"veracity/pkg/domain"
	"veracity/pkg/platform/sentinel"
	"veracity/pkg/testutil/containers"
)

var (
	publisherID = domain.Identity("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	strangerID  = domain.Identity("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) SetupTest() {
	// Truncate in dependency order
	err := s.postgres.TruncateTables(context.Background(), "modifications", "content_records", "sources")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) registerSource(identity domain.Identity, name string) *models.Source {
	src, err := models.NewSource(identity, name, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSource(context.Background(), src))
	return src
}

func (s *PostgresStoreSuite) publish(identity domain.Identity, fingerprint, contentType string) *models.ContentRecord {
	rec, err := s.store.PublishContent(context.Background(), identity, func(src *models.Source) (*models.ContentRecord, error) {
		return models.NewContentRecord(src, fingerprint, contentType, s.now)
	})
	s.Require().NoError(err)
	return rec
}

func (s *PostgresStoreSuite) TestSourceRoundTrip() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")

	found, err := s.store.FindSource(ctx, publisherID)
	s.Require().NoError(err)
	s.Equal("Reuters", found.Name)
	s.Equal(models.CredibilityBaseline, found.CredibilityScore)
	s.Equal(uint64(0), found.TotalPublications)
	s.False(found.IsVerified)

	_, err = s.store.FindSource(ctx, strangerID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateRegistrationConflict() {
	s.registerSource(publisherID, "Reuters")

	dup, err := models.NewSource(publisherID, "Imposter", s.now)
	s.Require().NoError(err)
	err = s.store.CreateSource(context.Background(), dup)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

// TestConcurrentRegistration verifies that concurrent registrations for the
// same identity result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentRegistration() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src, err := models.NewSource(publisherID, "Reuters", s.now)
			if err != nil {
				return
			}
			err = s.store.CreateSource(ctx, src)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one registration should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestPublishContent() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")

	rec := s.publish(publisherID, "abc123", "image/jpeg")

	found, err := s.store.FindContent(ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Equal("abc123", found.Fingerprint)
	s.Equal(publisherID, found.Publisher)
	s.Equal(0, found.ModificationsCount)

	src, err := s.store.FindSource(ctx, publisherID)
	s.Require().NoError(err)
	s.Equal(uint64(1), src.TotalPublications)
}

func (s *PostgresStoreSuite) TestPublishUnregisteredLeavesNoState() {
	ctx := context.Background()

	_, err := s.store.PublishContent(ctx, strangerID, func(src *models.Source) (*models.ContentRecord, error) {
		return models.NewContentRecord(src, "abc", "text/plain", s.now)
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	ids, err := s.store.ListContentByPublisher(ctx, strangerID)
	s.Require().NoError(err)
	s.Empty(ids)
}

// TestConcurrentPublish verifies the FOR UPDATE path: concurrent publishes
// must produce unique ids and a consistent publication counter.
func (s *PostgresStoreSuite) TestConcurrentPublish() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")

	const goroutines = 16
	var wg sync.WaitGroup
	ids := make(chan domain.ContentID, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.store.PublishContent(ctx, publisherID, func(src *models.Source) (*models.ContentRecord, error) {
				return models.NewContentRecord(src, "same-fingerprint", "image/jpeg", s.now)
			})
			if err != nil {
				s.T().Error(err)
				return
			}
			ids <- rec.ContentID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[domain.ContentID]bool)
	for id := range ids {
		s.False(seen[id], "content ids must be unique")
		seen[id] = true
	}
	s.Len(seen, goroutines)

	src, err := s.store.FindSource(ctx, publisherID)
	s.Require().NoError(err)
	s.Equal(uint64(goroutines), src.TotalPublications)
}

func (s *PostgresStoreSuite) TestModificationHistory() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")
	rec := s.publish(publisherID, "abc123", "image/jpeg")

	allow := func(*models.ContentRecord, *models.Source) error { return nil }

	mod1, err := models.NewModification("def456", "cropped image", publisherID, s.now)
	s.Require().NoError(err)
	idx, err := s.store.AppendModification(ctx, rec.ContentID, publisherID, allow, mod1)
	s.Require().NoError(err)
	s.Equal(0, idx)

	mod2, err := models.NewModification("ghi789", "recolored", publisherID, s.now)
	s.Require().NoError(err)
	idx, err = s.store.AppendModification(ctx, rec.ContentID, publisherID, allow, mod2)
	s.Require().NoError(err)
	s.Equal(1, idx)

	found, err := s.store.FindModification(ctx, rec.ContentID, 0)
	s.Require().NoError(err)
	s.Equal("def456", found.Fingerprint)
	s.Equal("cropped image", found.Description)

	_, err = s.store.FindModification(ctx, rec.ContentID, 2)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	history, err := s.store.ListModifications(ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal("ghi789", history[1].Fingerprint)

	content, err := s.store.FindContent(ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Equal(2, content.ModificationsCount)
	s.Equal("abc123", content.Fingerprint, "original fingerprint must not change")
}

func (s *PostgresStoreSuite) TestDeniedAppendRollsBack() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")
	rec := s.publish(publisherID, "abc123", "image/jpeg")

	mod, err := models.NewModification("zzz", "sneaky", strangerID, s.now)
	s.Require().NoError(err)

	denied := errors.New("denied")
	_, err = s.store.AppendModification(ctx, rec.ContentID, strangerID,
		func(*models.ContentRecord, *models.Source) error { return denied },
		mod,
	)
	s.Require().ErrorIs(err, denied)

	content, err := s.store.FindContent(ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Equal(0, content.ModificationsCount)

	history, err := s.store.ListModifications(ctx, rec.ContentID)
	s.Require().NoError(err)
	s.Empty(history)
}

// TestAppendReadsCallerSourceInTransaction verifies that authorize receives
// the caller's source row as locked by the append transaction, and nil when
// the caller never registered.
func (s *PostgresStoreSuite) TestAppendReadsCallerSourceInTransaction() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")
	s.registerSource(strangerID, "AP Fact Check")
	rec := s.publish(publisherID, "abc123", "image/jpeg")

	_, err := s.store.ExecuteSource(ctx, strangerID,
		func(*models.Source) error { return nil },
		func(src *models.Source) { src.ApplyVerified(true) },
	)
	s.Require().NoError(err)

	mod, err := models.NewModification("def456", "cropped image", strangerID, s.now)
	s.Require().NoError(err)

	var seen *models.Source
	idx, err := s.store.AppendModification(ctx, rec.ContentID, strangerID,
		func(_ *models.ContentRecord, callerSrc *models.Source) error {
			seen = callerSrc
			return nil
		},
		mod,
	)
	s.Require().NoError(err)
	s.Equal(0, idx)
	s.Require().NotNil(seen)
	s.True(seen.IsVerified)

	unregistered := domain.Identity("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	mod2, err := models.NewModification("ghi789", "m", unregistered, s.now)
	s.Require().NoError(err)
	_, err = s.store.AppendModification(ctx, rec.ContentID, unregistered,
		func(_ *models.ContentRecord, callerSrc *models.Source) error {
			s.Nil(callerSrc)
			return errors.New("denied")
		},
		mod2,
	)
	s.Require().Error(err)
}

func (s *PostgresStoreSuite) TestExecuteSource() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")

	updated, err := s.store.ExecuteSource(ctx, publisherID,
		func(src *models.Source) error { return nil },
		func(src *models.Source) { src.ApplyCredibilityDelta(-25) },
	)
	s.Require().NoError(err)
	s.Equal(75, updated.CredibilityScore)

	found, err := s.store.FindSource(ctx, publisherID)
	s.Require().NoError(err)
	s.Equal(75, found.CredibilityScore)
}

func (s *PostgresStoreSuite) TestPublisherIndexOrder() {
	ctx := context.Background()
	s.registerSource(publisherID, "Reuters")

	first := s.publish(publisherID, "fp-1", "image/jpeg")
	second := s.publish(publisherID, "fp-2", "image/jpeg")

	ids, err := s.store.ListContentByPublisher(ctx, publisherID)
	s.Require().NoError(err)
	s.Equal([]domain.ContentID{first.ContentID, second.ContentID}, ids)
}
