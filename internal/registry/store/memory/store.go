// Package memory provides the in-memory ledger store. A single mutex covers
// all four tables, which matches the substrate model of one serialized
// sequence of state transitions.
package memory

import (
	"context"
	"sync"

	"veracity/internal/registry/models"
	"veracity/pkg/domain"
	"veracity/pkg/platform/sentinel"
)

// Store is the in-memory ledger store. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	sources     map[domain.Identity]*models.Source
	contents    map[domain.ContentID]*models.ContentRecord
	histories   map[domain.ContentID][]models.Modification
	byPublisher map[domain.Identity][]domain.ContentID
}

// New returns an empty ledger store.
func New() *Store {
	return &Store{
		sources:     make(map[domain.Identity]*models.Source),
		contents:    make(map[domain.ContentID]*models.ContentRecord),
		histories:   make(map[domain.ContentID][]models.Modification),
		byPublisher: make(map[domain.Identity][]domain.ContentID),
	}
}

func (s *Store) CreateSource(_ context.Context, src *models.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[src.Identity]; ok {
		return sentinel.ErrConflict
	}
	cp := *src
	s.sources[src.Identity] = &cp
	return nil
}

func (s *Store) FindSource(_ context.Context, identity domain.Identity) (*models.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[identity]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *src
	return &cp, nil
}

func (s *Store) ExecuteSource(
	_ context.Context,
	identity domain.Identity,
	validate func(*models.Source) error,
	apply func(*models.Source),
) (*models.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[identity]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(src); err != nil {
		return nil, err
	}
	apply(src)
	cp := *src
	return &cp, nil
}

func (s *Store) PublishContent(
	_ context.Context,
	publisher domain.Identity,
	build func(*models.Source) (*models.ContentRecord, error),
) (*models.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[publisher]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	record, err := build(src)
	if err != nil {
		return nil, err
	}
	if _, exists := s.contents[record.ContentID]; exists {
		// Derivation includes the per-publisher sequence, so this indicates a
		// corrupted table rather than an expected collision.
		return nil, sentinel.ErrConflict
	}
	cp := *record
	s.contents[record.ContentID] = &cp
	s.byPublisher[publisher] = append(s.byPublisher[publisher], record.ContentID)
	src.ApplyPublication()
	out := cp
	return &out, nil
}

func (s *Store) FindContent(_ context.Context, contentID domain.ContentID) (*models.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.contents[contentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) ExecuteContent(
	_ context.Context,
	contentID domain.ContentID,
	validate func(*models.ContentRecord) error,
	apply func(*models.ContentRecord),
) (*models.ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.contents[contentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(rec); err != nil {
		return nil, err
	}
	apply(rec)
	cp := *rec
	return &cp, nil
}

func (s *Store) AppendModification(
	_ context.Context,
	contentID domain.ContentID,
	caller domain.Identity,
	authorize func(*models.ContentRecord, *models.Source) error,
	mod *models.Modification,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.contents[contentID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	var callerSrc *models.Source
	if src, ok := s.sources[caller]; ok {
		cp := *src
		callerSrc = &cp
	}
	if err := authorize(rec, callerSrc); err != nil {
		return 0, err
	}
	index := rec.ModificationsCount
	s.histories[contentID] = append(s.histories[contentID], *mod)
	rec.ModificationsCount = index + 1
	return index, nil
}

func (s *Store) FindModification(_ context.Context, contentID domain.ContentID, index int) (*models.Modification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.histories[contentID]
	if !ok {
		if _, exists := s.contents[contentID]; !exists {
			return nil, sentinel.ErrNotFound
		}
	}
	if index < 0 || index >= len(history) {
		return nil, sentinel.ErrNotFound
	}
	cp := history[index]
	return &cp, nil
}

func (s *Store) ListModifications(_ context.Context, contentID domain.ContentID) ([]models.Modification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.contents[contentID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	history := s.histories[contentID]
	out := make([]models.Modification, len(history))
	copy(out, history)
	return out, nil
}

func (s *Store) ListContentByPublisher(_ context.Context, publisher domain.Identity) ([]domain.ContentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byPublisher[publisher]
	out := make([]domain.ContentID, len(ids))
	copy(out, ids)
	return out, nil
}
