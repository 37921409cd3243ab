package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

// memRepo is an in-memory LetterRepository and VisitorRepository
type memRepo struct {
	mu       sync.Mutex
	pending  map[string]domain.PendingLetter
	approved map[string]domain.ApprovedLetter
	visitors map[string]domain.Visitor
	err      error
	lastLim  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		pending:  map[string]domain.PendingLetter{},
		approved: map[string]domain.ApprovedLetter{},
		visitors: map[string]domain.Visitor{},
	}
}

func (m *memRepo) InsertPending(_ context.Context, l *domain.PendingLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.pending[l.ID] = *l
	return nil
}

func (m *memRepo) GetPending(_ context.Context, id string) (*domain.PendingLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.pending[id]
	if !ok {
		return nil, domain.NewNotFoundError("pending letter", id)
	}
	return &l, nil
}

func (m *memRepo) ListPending(context.Context) ([]domain.PendingLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PendingLetter, 0, len(m.pending))
	for _, l := range m.pending {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) ListApproved(_ context.Context, limit int) ([]domain.ApprovedLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLim = limit
	out := make([]domain.ApprovedLetter, 0, len(m.approved))
	for _, l := range m.approved {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApprovedAt.After(out[j].ApprovedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) ApprovePending(_ context.Context, id string, at time.Time) (*domain.ApprovedLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.pending[id]
	if !ok {
		return nil, domain.NewNotFoundError("pending letter", id)
	}
	delete(m.pending, id)
	if at.Before(p.CreatedAt) {
		at = p.CreatedAt
	}
	a := domain.ApprovedLetter{
		ID:         p.ID,
		LetterText: p.LetterText,
		Nickname:   p.Nickname,
		CreatedAt:  p.CreatedAt,
		ApprovedAt: at,
	}
	m.approved[id] = a
	return &a, nil
}

func (m *memRepo) DeletePending(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.pending[id]
	delete(m.pending, id)
	return ok, nil
}

func (m *memRepo) Stats(context.Context) (*domain.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.Stats{
		UniqueVisitors:  int64(len(m.visitors)),
		PendingLetters:  int64(len(m.pending)),
		ApprovedLetters: int64(len(m.approved)),
	}, nil
}

func (m *memRepo) UpsertVisitor(_ context.Context, id string, seenAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	v, ok := m.visitors[id]
	if !ok {
		m.visitors[id] = domain.Visitor{ID: id, FirstVisit: seenAt, LastVisit: seenAt}
		return nil
	}
	if seenAt.After(v.LastVisit) {
		v.LastVisit = seenAt
	}
	m.visitors[id] = v
	return nil
}

func (m *memRepo) GetVisitor(_ context.Context, id string) (*domain.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visitors[id]
	if !ok {
		return nil, domain.NewNotFoundError("visitor", id)
	}
	return &v, nil
}

func (m *memRepo) CountVisitors(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.visitors)), nil
}

type countingRecorder struct {
	submitted, approved, rejected, visits int
}

func (c *countingRecorder) LetterSubmitted() { c.submitted++ }
func (c *countingRecorder) LetterApproved()  { c.approved++ }
func (c *countingRecorder) LetterRejected()  { c.rejected++ }
func (c *countingRecorder) VisitRecorded()   { c.visits++ }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
