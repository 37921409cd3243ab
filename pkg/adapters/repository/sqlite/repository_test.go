package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:", "")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func pendingLetter(id, text string, createdAt time.Time) *domain.PendingLetter {
	return &domain.PendingLetter{
		ID:         id,
		LetterText: text,
		Nickname:   domain.DefaultNickname,
		CreatedAt:  createdAt,
		Status:     domain.StatusPending,
	}
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSQLiteRepository_PendingLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("a", "first", base)))
	require.NoError(t, repo.InsertPending(ctx, pendingLetter("b", "second", base.Add(time.Minute))))

	got, err := repo.GetPending(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "first", got.LetterText)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.True(t, got.CreatedAt.Equal(base))

	letters, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, letters, 2)
	assert.Equal(t, "b", letters[0].ID, "newest first")
	assert.Equal(t, "a", letters[1].ID)

	_, err = repo.GetPending(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteRepository_InsertDuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("dup", "one", base)))
	err := repo.InsertPending(ctx, pendingLetter("dup", "two", base))
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSQLiteRepository_ApprovePending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("a", "You matter.", base)))

	approvedAt := base.Add(time.Hour)
	approved, err := repo.ApprovePending(ctx, "a", approvedAt)
	require.NoError(t, err)
	assert.Equal(t, "a", approved.ID)
	assert.Equal(t, "You matter.", approved.LetterText)
	assert.True(t, approved.CreatedAt.Equal(base), "createdAt carried over")
	assert.True(t, approved.ApprovedAt.Equal(approvedAt))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	list, err := repo.ListApproved(ctx, 100)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
	assert.True(t, list[0].ApprovedAt.Equal(approvedAt))

	_, err = repo.ApprovePending(ctx, "a", approvedAt)
	assert.ErrorIs(t, err, domain.ErrNotFound, "second approval must fail")
}

func TestSQLiteRepository_ApproveClampsApprovedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("a", "text", base)))

	approved, err := repo.ApprovePending(ctx, "a", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, approved.ApprovedAt.Before(approved.CreatedAt))
}

func TestSQLiteRepository_ApproveUnknown(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.ApprovePending(context.Background(), "never-submitted", base)

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "never-submitted", nf.ID)
}

func TestSQLiteRepository_ConcurrentApprove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("race", "text", base)))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.ApprovePending(ctx, "race", base.Add(time.Second))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, 1, succeeded)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingLetters)
	assert.Equal(t, int64(1), stats.ApprovedLetters)
}

func TestSQLiteRepository_DeletePending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("a", "text", base)))

	deleted, err := repo.DeletePending(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeletePending(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSQLiteRepository_ListApprovedLimitAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ids := []string{"a", "b", "c", "d"}
	for i, id := range ids {
		require.NoError(t, repo.InsertPending(ctx, pendingLetter(id, "text "+id, base)))
		_, err := repo.ApprovePending(ctx, id, base.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
	}

	list, err := repo.ListApproved(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d", list[0].ID)
	assert.Equal(t, "c", list[1].ID)
}

func TestSQLiteRepository_VisitorUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertVisitor(ctx, "v1", base))
	require.NoError(t, repo.UpsertVisitor(ctx, "v1", base.Add(time.Hour)))

	count, err := repo.CountVisitors(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	v, err := repo.GetVisitor(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, v.FirstVisit.Equal(base), "firstVisit unchanged")
	assert.True(t, v.LastVisit.Equal(base.Add(time.Hour)), "lastVisit updated")

	// an out-of-order write never moves lastVisit backwards
	require.NoError(t, repo.UpsertVisitor(ctx, "v1", base.Add(time.Minute)))
	v, err = repo.GetVisitor(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, v.LastVisit.Equal(base.Add(time.Hour)))
	assert.True(t, v.FirstVisit.Equal(base))

	_, err = repo.GetVisitor(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteRepository_Stats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("a", "one", base)))
	require.NoError(t, repo.InsertPending(ctx, pendingLetter("b", "two", base)))
	_, err := repo.ApprovePending(ctx, "b", base)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertVisitor(ctx, "v1", base))
	require.NoError(t, repo.UpsertVisitor(ctx, "v2", base))
	require.NoError(t, repo.UpsertVisitor(ctx, "v2", base))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{UniqueVisitors: 2, PendingLetters: 1, ApprovedLetters: 1}, *stats)
}

func TestSQLiteRepository_DumpRestore(t *testing.T) {
	src := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, src.InsertPending(ctx, pendingLetter("p1", "pending one", base)))
	require.NoError(t, src.InsertPending(ctx, pendingLetter("a1", "approved one", base)))
	_, err := src.ApprovePending(ctx, "a1", base.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, src.UpsertVisitor(ctx, "v1", base))

	snap, err := src.Dump(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Pending, 1)
	assert.Len(t, snap.Approved, 1)
	assert.Len(t, snap.Visitors, 1)

	dst := newTestRepo(t)
	n, err := dst.Restore(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	restored, err := dst.Dump(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, restored)

	// a second restore inserts nothing
	n, err = dst.Restore(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLiteRepository_RestoreKeepsSetsDisjoint(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPending(ctx, pendingLetter("x", "text", base)))

	snap := &domain.Snapshot{
		Approved: []domain.ApprovedLetter{{ID: "x", LetterText: "text", CreatedAt: base, ApprovedAt: base}},
		Pending: []domain.PendingLetter{
			{ID: "x", LetterText: "text", CreatedAt: base},
			{ID: "blank", LetterText: "   ", CreatedAt: base},
		},
	}
	_, err := repo.Restore(ctx, snap)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.PendingLetters)
	assert.Equal(t, int64(1), stats.ApprovedLetters)

	list, err := repo.ListApproved(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.DefaultNickname, list[0].Nickname)
}

func TestSQLiteRepository_Ping(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Ping(context.Background()))

	require.NoError(t, repo.Close())
	assert.ErrorIs(t, repo.Ping(context.Background()), domain.ErrStorage)
}

func TestResolveDriver(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		token      string
		wantDriver string
		wantDSN    string
	}{
		{name: "local file", url: "file:local.db", wantDriver: "sqlite", wantDSN: "file:local.db"},
		{name: "memory", url: ":memory:", wantDriver: "sqlite", wantDSN: ":memory:"},
		{name: "turso without token", url: "libsql://db.turso.io", wantDriver: "libsql", wantDSN: "libsql://db.turso.io"},
		{name: "turso with token", url: "libsql://db.turso.io", token: "abc", wantDriver: "libsql", wantDSN: "libsql://db.turso.io?authToken=abc"},
		{name: "websocket", url: "wss://db.turso.io", wantDriver: "libsql", wantDSN: "wss://db.turso.io"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := resolveDriver(tt.url, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, s := range []string{"2026-01-02 03:04:05.000000", "2026-01-02 03:04:05", "2026-01-02T03:04:05Z"} {
		got, err := parseTime(s)
		require.NoError(t, err, s)
		assert.True(t, got.Equal(want), s)
	}

	_, err := parseTime("yesterday")
	assert.Error(t, err)
}
