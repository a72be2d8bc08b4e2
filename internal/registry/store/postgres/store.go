// Package postgres persists the ledger in PostgreSQL. Publish and append use
// SELECT ... FOR UPDATE inside a transaction so the permission check, the
// snapshot/derivation and the write are one atomic step, mirroring the
// in-memory store's single lock.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veracity/internal/registry/models"
	"veracity/pkg/domain"
	"veracity/pkg/platform/sentinel"
	txcontext "veracity/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Store is the PostgreSQL-backed ledger store.
type Store struct {
	db *sql.DB
}

// New constructs a Postgres ledger store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", classify(err))
	}
	return nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// classify maps connectivity-class driver failures to sentinel.ErrUnavailable
// so services can surface them as substrate unavailability.
func classify(err error) error {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	return err
}

func (s *Store) CreateSource(ctx context.Context, src *models.Source) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO sources (identity, name, credibility_score, total_publications, is_verified, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		src.Identity.String(), src.Name, src.CredibilityScore,
		src.TotalPublications, src.IsVerified, src.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create source: %w", classify(err))
	}
	return nil
}

func (s *Store) FindSource(ctx context.Context, identity domain.Identity) (*models.Source, error) {
	return scanSource(s.execer(ctx).QueryRowContext(ctx, `
		SELECT identity, name, credibility_score, total_publications, is_verified, registered_at
		FROM sources WHERE identity = $1`,
		identity.String(),
	))
}

func (s *Store) ExecuteSource(
	ctx context.Context,
	identity domain.Identity,
	validate func(*models.Source) error,
	apply func(*models.Source),
) (*models.Source, error) {
	var out *models.Source
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		src, err := scanSource(tx.QueryRowContext(ctx, `
			SELECT identity, name, credibility_score, total_publications, is_verified, registered_at
			FROM sources WHERE identity = $1 FOR UPDATE`,
			identity.String(),
		))
		if err != nil {
			return err
		}
		if err := validate(src); err != nil {
			return err
		}
		apply(src)
		if _, err := tx.ExecContext(ctx, `
			UPDATE sources SET credibility_score = $2, total_publications = $3, is_verified = $4
			WHERE identity = $1`,
			src.Identity.String(), src.CredibilityScore, src.TotalPublications, src.IsVerified,
		); err != nil {
			return fmt.Errorf("update source: %w", classify(err))
		}
		out = src
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) PublishContent(
	ctx context.Context,
	publisher domain.Identity,
	build func(*models.Source) (*models.ContentRecord, error),
) (*models.ContentRecord, error) {
	var out *models.ContentRecord
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		src, err := scanSource(tx.QueryRowContext(ctx, `
			SELECT identity, name, credibility_score, total_publications, is_verified, registered_at
			FROM sources WHERE identity = $1 FOR UPDATE`,
			publisher.String(),
		))
		if err != nil {
			return err
		}

		record, err := build(src)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO content_records
				(content_id, fingerprint, publisher, published_at, content_type, credibility_score, is_verified, modifications_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			record.ContentID.String(), record.Fingerprint, record.Publisher.String(),
			record.PublishedAt, record.ContentType, record.CredibilityScore,
			record.IsVerified, record.ModificationsCount,
		); err != nil {
			return fmt.Errorf("insert content record: %w", classify(err))
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE sources SET total_publications = total_publications + 1
			WHERE identity = $1`,
			publisher.String(),
		); err != nil {
			return fmt.Errorf("increment publications: %w", classify(err))
		}

		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) FindContent(ctx context.Context, contentID domain.ContentID) (*models.ContentRecord, error) {
	return scanContent(s.execer(ctx).QueryRowContext(ctx, `
		SELECT content_id, fingerprint, publisher, published_at, content_type, credibility_score, is_verified, modifications_count
		FROM content_records WHERE content_id = $1`,
		contentID.String(),
	))
}

func (s *Store) ExecuteContent(
	ctx context.Context,
	contentID domain.ContentID,
	validate func(*models.ContentRecord) error,
	apply func(*models.ContentRecord),
) (*models.ContentRecord, error) {
	var out *models.ContentRecord
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rec, err := scanContent(tx.QueryRowContext(ctx, `
			SELECT content_id, fingerprint, publisher, published_at, content_type, credibility_score, is_verified, modifications_count
			FROM content_records WHERE content_id = $1 FOR UPDATE`,
			contentID.String(),
		))
		if err != nil {
			return err
		}
		if err := validate(rec); err != nil {
			return err
		}
		apply(rec)
		if _, err := tx.ExecContext(ctx, `
			UPDATE content_records SET is_verified = $2 WHERE content_id = $1`,
			rec.ContentID.String(), rec.IsVerified,
		); err != nil {
			return fmt.Errorf("update content record: %w", classify(err))
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AppendModification(
	ctx context.Context,
	contentID domain.ContentID,
	caller domain.Identity,
	authorize func(*models.ContentRecord, *models.Source) error,
	mod *models.Modification,
) (int, error) {
	index := 0
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		rec, err := scanContent(tx.QueryRowContext(ctx, `
			SELECT content_id, fingerprint, publisher, published_at, content_type, credibility_score, is_verified, modifications_count
			FROM content_records WHERE content_id = $1 FOR UPDATE`,
			contentID.String(),
		))
		if err != nil {
			return err
		}

		// The caller's source row is locked in the same transaction so a
		// concurrent verified-flag change cannot land between the permission
		// check and the append. Content before source keeps lock ordering
		// consistent across appends.
		callerSrc, err := scanSource(tx.QueryRowContext(ctx, `
			SELECT identity, name, credibility_score, total_publications, is_verified, registered_at
			FROM sources WHERE identity = $1 FOR UPDATE`,
			caller.String(),
		))
		if err != nil {
			if !errors.Is(err, sentinel.ErrNotFound) {
				return err
			}
			callerSrc = nil
		}
		if err := authorize(rec, callerSrc); err != nil {
			return err
		}

		index = rec.ModificationsCount
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO modifications (content_id, idx, fingerprint, description, modified_at, modified_by)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			contentID.String(), index, mod.Fingerprint, mod.Description, mod.ModifiedAt, mod.ModifiedBy.String(),
		); err != nil {
			return fmt.Errorf("insert modification: %w", classify(err))
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE content_records SET modifications_count = $2 WHERE content_id = $1`,
			contentID.String(), index+1,
		); err != nil {
			return fmt.Errorf("update modification count: %w", classify(err))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

func (s *Store) FindModification(ctx context.Context, contentID domain.ContentID, index int) (*models.Modification, error) {
	if index < 0 {
		return nil, sentinel.ErrNotFound
	}
	mod, err := scanModification(s.execer(ctx).QueryRowContext(ctx, `
		SELECT fingerprint, description, modified_at, modified_by
		FROM modifications WHERE content_id = $1 AND idx = $2`,
		contentID.String(), index,
	))
	if err != nil {
		return nil, err
	}
	return mod, nil
}

func (s *Store) ListModifications(ctx context.Context, contentID domain.ContentID) ([]models.Modification, error) {
	// The content record must exist even when its history is empty.
	if _, err := s.FindContent(ctx, contentID); err != nil {
		return nil, err
	}

	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT fingerprint, description, modified_at, modified_by
		FROM modifications WHERE content_id = $1 ORDER BY idx`,
		contentID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list modifications: %w", classify(err))
	}
	defer rows.Close()

	var out []models.Modification
	for rows.Next() {
		var mod models.Modification
		var modifiedBy string
		if err := rows.Scan(&mod.Fingerprint, &mod.Description, &mod.ModifiedAt, &modifiedBy); err != nil {
			return nil, fmt.Errorf("scan modification: %w", err)
		}
		mod.ModifiedBy = domain.Identity(modifiedBy)
		out = append(out, mod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list modifications: %w", classify(err))
	}
	return out, nil
}

func (s *Store) ListContentByPublisher(ctx context.Context, publisher domain.Identity) ([]domain.ContentID, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT content_id FROM content_records WHERE publisher = $1 ORDER BY seq`,
		publisher.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list content by publisher: %w", classify(err))
	}
	defer rows.Close()

	var out []domain.ContentID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan content id: %w", err)
		}
		out = append(out, domain.ContentID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content by publisher: %w", classify(err))
	}
	return out, nil
}

// inTx joins a transaction already carried in ctx or opens its own.
func (s *Store) inTx(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(ctx, tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", classify(err))
	}
	if err := fn(txcontext.WithTx(ctx, tx), tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*models.Source, error) {
	var src models.Source
	var identity string
	err := row.Scan(&identity, &src.Name, &src.CredibilityScore, &src.TotalPublications, &src.IsVerified, &src.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan source: %w", classify(err))
	}
	src.Identity = domain.Identity(identity)
	return &src, nil
}

func scanContent(row rowScanner) (*models.ContentRecord, error) {
	var rec models.ContentRecord
	var contentID, publisher string
	err := row.Scan(&contentID, &rec.Fingerprint, &publisher, &rec.PublishedAt,
		&rec.ContentType, &rec.CredibilityScore, &rec.IsVerified, &rec.ModificationsCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan content record: %w", classify(err))
	}
	rec.ContentID = domain.ContentID(contentID)
	rec.Publisher = domain.Identity(publisher)
	return &rec, nil
}

func scanModification(row rowScanner) (*models.Modification, error) {
	var mod models.Modification
	var modifiedBy string
	err := row.Scan(&mod.Fingerprint, &mod.Description, &mod.ModifiedAt, &modifiedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan modification: %w", classify(err))
	}
	mod.ModifiedBy = domain.Identity(modifiedBy)
	return &mod, nil
}
