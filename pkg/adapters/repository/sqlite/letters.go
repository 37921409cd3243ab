package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

func (r *SQLiteRepository) InsertPending(ctx context.Context, letter *domain.PendingLetter) error {
	query := `INSERT INTO pending_letters (id, letter_text, nickname, created_at, status)
			  VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		letter.ID, letter.LetterText, letter.Nickname, formatTime(letter.CreatedAt), domain.StatusPending)
	return domain.NewStorageError("insert pending letter", err)
}

// GetPending looks up one pending letter. No service path needs it; it is
// kept on the store for inspection and tests.
func (r *SQLiteRepository) GetPending(ctx context.Context, id string) (*domain.PendingLetter, error) {
	query := `SELECT id, letter_text, nickname, created_at, status FROM pending_letters WHERE id = ?`

	l, err := scanPending(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("pending letter", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("get pending letter", err)
	}
	return l, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]domain.PendingLetter, error) {
	query := `SELECT id, letter_text, nickname, created_at, status
			  FROM pending_letters ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.NewStorageError("list pending letters", err)
	}
	defer rows.Close()

	letters := []domain.PendingLetter{}
	for rows.Next() {
		l, err := scanPending(rows)
		if err != nil {
			return nil, domain.NewStorageError("list pending letters", err)
		}
		letters = append(letters, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list pending letters", err)
	}
	return letters, nil
}

func (r *SQLiteRepository) ListApproved(ctx context.Context, limit int) ([]domain.ApprovedLetter, error) {
	query := `SELECT id, letter_text, nickname, created_at, approved_at
			  FROM approved_letters ORDER BY approved_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, domain.NewStorageError("list approved letters", err)
	}
	defer rows.Close()

	letters := []domain.ApprovedLetter{}
	for rows.Next() {
		l, err := scanApproved(rows)
		if err != nil {
			return nil, domain.NewStorageError("list approved letters", err)
		}
		letters = append(letters, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("list approved letters", err)
	}
	return letters, nil
}

// ApprovePending claims the pending row with DELETE ... RETURNING and writes
// the approved row in the same transaction. Only one of several concurrent
// callers can delete the row; the rest see a NotFoundError.
func (r *SQLiteRepository) ApprovePending(ctx context.Context, id string, approvedAt time.Time) (*domain.ApprovedLetter, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewStorageError("approve letter", err)
	}
	defer tx.Rollback()

	// 1. Claim the pending record
	claim := `DELETE FROM pending_letters WHERE id = ?
			  RETURNING id, letter_text, nickname, created_at, status`
	pending, err := scanPending(tx.QueryRowContext(ctx, claim, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("pending letter", id)
	}
	if err != nil {
		return nil, domain.NewStorageError("approve letter", err)
	}

	if approvedAt.Before(pending.CreatedAt) {
		approvedAt = pending.CreatedAt
	}
	approved := &domain.ApprovedLetter{
		ID:         pending.ID,
		LetterText: pending.LetterText,
		Nickname:   pending.Nickname,
		CreatedAt:  pending.CreatedAt,
		ApprovedAt: approvedAt,
	}

	// 2. Publish it
	insert := `INSERT INTO approved_letters (id, letter_text, nickname, created_at, approved_at)
			   VALUES (?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insert,
		approved.ID, approved.LetterText, approved.Nickname,
		formatTime(approved.CreatedAt), formatTime(approved.ApprovedAt))
	if err != nil {
		return nil, domain.NewStorageError("approve letter", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStorageError("approve letter", err)
	}
	return approved, nil
}

func (r *SQLiteRepository) DeletePending(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_letters WHERE id = ?`, id)
	if err != nil {
		return false, domain.NewStorageError("delete pending letter", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.NewStorageError("delete pending letter", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	query := `SELECT
				(SELECT COUNT(*) FROM visitors),
				(SELECT COUNT(*) FROM pending_letters),
				(SELECT COUNT(*) FROM approved_letters)`

	var stats domain.Stats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.UniqueVisitors, &stats.PendingLetters, &stats.ApprovedLetters)
	if err != nil {
		return nil, domain.NewStorageError("stats", err)
	}
	return &stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPending(s scanner) (*domain.PendingLetter, error) {
	var l domain.PendingLetter
	var createdAt string
	if err := s.Scan(&l.ID, &l.LetterText, &l.Nickname, &createdAt, &l.Status); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.CreatedAt = t
	return &l, nil
}

func scanApproved(s scanner) (*domain.ApprovedLetter, error) {
	var l domain.ApprovedLetter
	var createdAt, approvedAt string
	if err := s.Scan(&l.ID, &l.LetterText, &l.Nickname, &createdAt, &approvedAt); err != nil {
		return nil, err
	}
	var err error
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.ApprovedAt, err = parseTime(approvedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
