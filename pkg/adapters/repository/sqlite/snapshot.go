package sqlite

import (
	"context"
	"strings"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

// Dump reads every record set. Used for migration between databases.
func (r *SQLiteRepository) Dump(ctx context.Context) (*domain.Snapshot, error) {
	pending, err := r.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, letter_text, nickname, created_at, approved_at
										 FROM approved_letters ORDER BY approved_at DESC, id DESC`)
	if err != nil {
		return nil, domain.NewStorageError("dump approved letters", err)
	}
	defer rows.Close()

	approved := []domain.ApprovedLetter{}
	for rows.Next() {
		l, err := scanApproved(rows)
		if err != nil {
			return nil, domain.NewStorageError("dump approved letters", err)
		}
		approved = append(approved, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("dump approved letters", err)
	}
	rows.Close()

	vrows, err := r.db.QueryContext(ctx, `SELECT id, first_visit, last_visit FROM visitors ORDER BY first_visit`)
	if err != nil {
		return nil, domain.NewStorageError("dump visitors", err)
	}
	defer vrows.Close()

	visitors := []domain.Visitor{}
	for vrows.Next() {
		v, err := scanVisitor(vrows)
		if err != nil {
			return nil, domain.NewStorageError("dump visitors", err)
		}
		visitors = append(visitors, *v)
	}
	if err := vrows.Err(); err != nil {
		return nil, domain.NewStorageError("dump visitors", err)
	}

	return &domain.Snapshot{Pending: pending, Approved: approved, Visitors: visitors}, nil
}

// Restore loads a snapshot in one transaction and returns how many records
// were inserted. Existing ids are skipped, records with blank text are
// dropped, and an approved id always wins over a pending one.
func (r *SQLiteRepository) Restore(ctx context.Context, snap *domain.Snapshot) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.NewStorageError("restore", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, l := range snap.Approved {
		if strings.TrimSpace(l.LetterText) == "" || l.ID == "" {
			continue
		}
		approvedAt := l.ApprovedAt
		if approvedAt.Before(l.CreatedAt) {
			approvedAt = l.CreatedAt
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO approved_letters (id, letter_text, nickname, created_at, approved_at)
			 VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			l.ID, l.LetterText, nickname(l.Nickname), formatTime(l.CreatedAt), formatTime(approvedAt))
		if err != nil {
			return 0, domain.NewStorageError("restore approved letter", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, domain.NewStorageError("restore approved letter", err)
		}
		inserted += int(n)
		if _, err := tx.ExecContext(ctx, `DELETE FROM pending_letters WHERE id = ?`, l.ID); err != nil {
			return 0, domain.NewStorageError("restore approved letter", err)
		}
	}

	for _, l := range snap.Pending {
		if strings.TrimSpace(l.LetterText) == "" || l.ID == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO pending_letters (id, letter_text, nickname, created_at, status)
			 SELECT ?, ?, ?, ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM approved_letters WHERE id = ?)
			 ON CONFLICT(id) DO NOTHING`,
			l.ID, l.LetterText, nickname(l.Nickname), formatTime(l.CreatedAt), domain.StatusPending, l.ID)
		if err != nil {
			return 0, domain.NewStorageError("restore pending letter", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, domain.NewStorageError("restore pending letter", err)
		}
		inserted += int(n)
	}

	for _, v := range snap.Visitors {
		if v.ID == "" {
			continue
		}
		last := v.LastVisit
		if last.Before(v.FirstVisit) {
			last = v.FirstVisit
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO visitors (id, first_visit, last_visit) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
			v.ID, formatTime(v.FirstVisit), formatTime(last))
		if err != nil {
			return 0, domain.NewStorageError("restore visitor", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, domain.NewStorageError("restore visitor", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.NewStorageError("restore", err)
	}
	return inserted, nil
}

func nickname(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.DefaultNickname
	}
	return s
}
