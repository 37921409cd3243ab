package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// legacyTable is a table as the first release created it, with camelCase
// columns and DATETIME values, plus the statements that copy its rows into
// the current layout.
type legacyTable struct {
	name   string
	marker string // column only the old layout has
	create string
	copy   string
}

// stamp renders a stored DATETIME in timeLayout. NULL or unparseable values
// stay NULL.
func stamp(expr string) string {
	return "(strftime('%Y-%m-%d %H:%M:%f', " + expr + ") || '000')"
}

var nowStamp = stamp("'now'")

var legacyTables = []legacyTable{
	{
		name:   "pending_letters",
		marker: "letterText",
		create: `CREATE TABLE pending_letters_upgrade (
			id TEXT PRIMARY KEY,
			letter_text TEXT NOT NULL,
			nickname TEXT NOT NULL DEFAULT 'Anonymous',
			created_at TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
		)`,
		copy: `INSERT INTO pending_letters_upgrade (id, letter_text, nickname, created_at, status)
			SELECT id, letterText, COALESCE(NULLIF(TRIM(nickname), ''), 'Anonymous'),
				COALESCE(` + stamp("createdAt") + `, ` + nowStamp + `), 'pending'
			FROM pending_letters WHERE id IS NOT NULL`,
	},
	{
		name:   "approved_letters",
		marker: "letterText",
		create: `CREATE TABLE approved_letters_upgrade (
			id TEXT PRIMARY KEY,
			letter_text TEXT NOT NULL,
			nickname TEXT NOT NULL DEFAULT 'Anonymous',
			created_at TEXT NOT NULL,
			approved_at TEXT NOT NULL
		)`,
		copy: `INSERT INTO approved_letters_upgrade (id, letter_text, nickname, created_at, approved_at)
			SELECT id, letterText, nickname, created, max(COALESCE(approved, ` + nowStamp + `), created)
			FROM (
				SELECT id, letterText, COALESCE(NULLIF(TRIM(nickname), ''), 'Anonymous') AS nickname,
					COALESCE(` + stamp("createdAt") + `, ` + stamp("approvedAt") + `, ` + nowStamp + `) AS created,
					` + stamp("approvedAt") + ` AS approved
				FROM approved_letters WHERE id IS NOT NULL
			)`,
	},
	{
		name:   "visitors",
		marker: "firstVisit",
		create: `CREATE TABLE visitors_upgrade (
			id TEXT PRIMARY KEY,
			first_visit TEXT NOT NULL,
			last_visit TEXT NOT NULL
		)`,
		copy: `INSERT INTO visitors_upgrade (id, first_visit, last_visit)
			SELECT id, first, max(COALESCE(last, ` + nowStamp + `), first)
			FROM (
				SELECT id,
					COALESCE(` + stamp("firstVisit") + `, ` + stamp("lastVisit") + `, ` + nowStamp + `) AS first,
					` + stamp("lastVisit") + ` AS last
				FROM visitors WHERE id IS NOT NULL
			)`,
	},
}

// upgradeLegacySchema rebuilds tables written by the first release into the
// layout the migrations expect, keeping every row. Tables that are missing
// or already current are left alone, so it runs on every open.
func upgradeLegacySchema(ctx context.Context, db *sql.DB) error {
	for _, t := range legacyTables {
		var n int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pragma_table_info('`+t.name+`') WHERE name = ?`, t.marker).Scan(&n)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", t.name, err)
		}
		if n == 0 {
			continue
		}
		if err := rebuildTable(ctx, db, t); err != nil {
			return fmt.Errorf("upgrade %s: %w", t.name, err)
		}
	}
	return nil
}

func rebuildTable(ctx context.Context, db *sql.DB, t legacyTable) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`DROP TABLE IF EXISTS ` + t.name + `_upgrade`,
		t.create,
		t.copy,
		`DROP TABLE ` + t.name,
		`ALTER TABLE ` + t.name + `_upgrade RENAME TO ` + t.name,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}
