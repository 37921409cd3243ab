package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/kind-letters/pkg/adapters/repository/sqlite/migrations"
	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02 15:04:05.000000"

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the store behind dbURL and runs migrations.
// Remote libSQL URLs go through the Turso driver; anything else is a local
// SQLite file or memory database.
func NewSQLiteRepository(dbURL, authToken string) (*SQLiteRepository, error) {
	driverName, dsn, err := resolveDriver(dbURL, authToken)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// SQLite allows one writer; a single connection keeps transactions
		// from failing with SQLITE_BUSY and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(context.Background(), db, driverName); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

// NewFromDB wraps an already opened handle. Migrations are not run.
func NewFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func resolveDriver(dbURL, authToken string) (string, string, error) {
	if !isRemote(dbURL) {
		return "sqlite", dbURL, nil
	}
	if authToken == "" {
		return "libsql", dbURL, nil
	}

	u, err := url.Parse(dbURL)
	if err != nil {
		return "", "", fmt.Errorf("parse database url: %w", err)
	}
	q := u.Query()
	q.Set("authToken", authToken)
	u.RawQuery = q.Encode()
	return "libsql", u.String(), nil
}

func isRemote(dbURL string) bool {
	for _, prefix := range []string{"libsql://", "wss://", "ws://", "https://", "http://"} {
		if strings.HasPrefix(dbURL, prefix) {
			return true
		}
	}
	return false
}

// gooseUp is swapped in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// migrate upgrades first-release tables, then applies the embedded goose
// migrations. goose sends each statement on its own, which libSQL over HTTP
// requires.
func migrate(ctx context.Context, db *sql.DB, driverName string) error {
	dialect := "sqlite3"
	if driverName == "libsql" {
		dialect = "turso"
	}

	if err := upgradeLegacySchema(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := gooseUp(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.NewStorageError("ping", err)
	}
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return domain.NewStorageError("ping", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime also accepts the second-precision CURRENT_TIMESTAMP format and
// RFC 3339, which older exports may contain.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// Ensure interface compliance
var _ ports.Store = (*SQLiteRepository)(nil)
