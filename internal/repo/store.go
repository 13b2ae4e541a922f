// Package repo is the assessment store: one row per subject, written with
// insert-or-replace semantics and read back for listing and statistics.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/healthalyze/healthalyze_backend/pkg/database"
	"github.com/healthalyze/healthalyze_backend/pkg/keylock"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 1000
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db      *sql.DB
	dialect string
	locks   *keylock.Locker
	now     func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore wraps an open database. The store does not own db.
func NewStore(db *database.DB, opts ...Option) *Store {
	s := &Store{
		db:      db.GetConnection(),
		dialect: db.Dialect(),
		locks:   keylock.New(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// Upsert inserts a or replaces every non-identity column of the existing
// row for a.SubjectID. created_at keeps its first value. The stored record
// is returned.
func (s *Store) Upsert(ctx context.Context, a *Assessment) (*Assessment, error) {
	if a == nil {
		return nil, errors.New("upsert assessment: nil record")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(a.SubjectID)
	defer unlock()

	now := s.timestamp()
	query, args := s.builder().
		Insert(Table).
		Columns(columns...).
		Values(append(a.values(), now, now)...).
		OnConflict(
			entsql.ConflictColumns(ColumnSubjectID),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range columns {
					if c == ColumnSubjectID || c == ColumnCreatedAt {
						continue
					}
					u.SetExcluded(c)
				}
			}),
		).
		Query()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert assessment: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("upsert assessment: %w", err)
	}
	stored, err := s.get(ctx, tx, a.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("upsert assessment: read back: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert assessment: row %q vanished", a.SubjectID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("upsert assessment: commit: %w", err)
	}
	return stored, nil
}

// Get returns the record for subjectID, or nil, nil if there is none.
func (s *Store) Get(ctx context.Context, subjectID string) (*Assessment, error) {
	a, err := s.get(ctx, s.db, subjectID)
	if err != nil {
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return a, nil
}

func (s *Store) get(ctx context.Context, q querier, subjectID string) (*Assessment, error) {
	b := s.builder()
	query, args := b.Select(columns...).
		From(b.Table(Table)).
		Where(entsql.EQ(ColumnSubjectID, subjectID)).
		Query()

	a, err := scanAssessment(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the record for subjectID. Deleting a missing record is
// not an error. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, subjectID string) (bool, error) {
	unlock := s.locks.Lock(subjectID)
	defer unlock()

	query, args := s.builder().
		Delete(Table).
		Where(entsql.EQ(ColumnSubjectID, subjectID)).
		Query()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete assessment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete assessment: %w", err)
	}
	return n > 0, nil
}

// List returns up to limit records, newest first. A non-positive limit
// means DefaultListLimit; limits above MaxListLimit are capped.
func (s *Store) List(ctx context.Context, limit int) ([]*Assessment, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	b := s.builder()
	query, args := b.Select(columns...).
		From(b.Table(Table)).
		OrderBy(entsql.Desc(ColumnCreatedAt), entsql.Asc(ColumnSubjectID)).
		Limit(limit).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	out, err := scanAssessments(rows)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.count(ctx, s.db)
}

func (s *Store) count(ctx context.Context, q querier) (int, error) {
	b := s.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(Table)).Query()

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}

// readTxOptions gives aggregate reads one consistent snapshot. SQLite
// transactions are already serializable.
func (s *Store) readTxOptions() *sql.TxOptions {
	if s.dialect == dialect.Postgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}
