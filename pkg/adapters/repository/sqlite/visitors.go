package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

// UpsertVisitor creates the visitor on first sight and otherwise only moves
// last_visit forward. first_visit is never rewritten.
func (r *SQLiteRepository) UpsertVisitor(ctx context.Context, id string, seenAt time.Time) error {
	query := `INSERT INTO visitors (id, first_visit, last_visit) VALUES (?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET last_visit = max(visitors.last_visit, excluded.last_visit)`

	ts := formatTime(seenAt)
	_, err := r.db.ExecContext(ctx, query, id, ts, ts)
	return domain.NewStorageError("record visit", err)
}

// GetVisitor looks up one visitor row, for inspection and tests.
func (r *SQLiteRepository) GetVisitor(ctx context.Context, id string) (*domain.Visitor, error) {
	query := `SELECT id, first_visit, last_visit FROM visitors WHERE id = ?`

	v, err := scanVisitor(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("visitor", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("get visitor", err)
	}
	return v, nil
}

func (r *SQLiteRepository) CountVisitors(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors`).Scan(&count); err != nil {
		return 0, domain.NewStorageError("count visitors", err)
	}
	return count, nil
}

func scanVisitor(s scanner) (*domain.Visitor, error) {
	var v domain.Visitor
	var first, last string
	if err := s.Scan(&v.ID, &first, &last); err != nil {
		return nil, err
	}
	var err error
	if v.FirstVisit, err = parseTime(first); err != nil {
		return nil, err
	}
	if v.LastVisit, err = parseTime(last); err != nil {
		return nil, err
	}
	return &v, nil
}
