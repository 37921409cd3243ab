package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

// LetterRepository defines storage operations for the pending and approved sets
type LetterRepository interface {
	InsertPending(ctx context.Context, letter *domain.PendingLetter) error
	ListPending(ctx context.Context) ([]domain.PendingLetter, error)
	ListApproved(ctx context.Context, limit int) ([]domain.ApprovedLetter, error)

	// ApprovePending moves the pending letter into the approved set in one
	// transaction. Returns a NotFoundError if no pending letter has that id.
	ApprovePending(ctx context.Context, id string, approvedAt time.Time) (*domain.ApprovedLetter, error)

	// DeletePending reports whether a row was removed. Absence is not an error.
	DeletePending(ctx context.Context, id string) (bool, error)

	Stats(ctx context.Context) (*domain.Stats, error)
}

// VisitorRepository defines storage operations for the visitor tally
type VisitorRepository interface {
	UpsertVisitor(ctx context.Context, id string, seenAt time.Time) error
	CountVisitors(ctx context.Context) (int64, error)
}

// Store is everything the process needs from the persistence layer
type Store interface {
	LetterRepository
	VisitorRepository
	Ping(ctx context.Context) error
	Dump(ctx context.Context) (*domain.Snapshot, error)
	Restore(ctx context.Context, snap *domain.Snapshot) (int, error)
	Close() error
}

// LetterService defines the moderation queue operations
type LetterService interface {
	Submit(ctx context.Context, letterText, nickname string) (string, error)
	ListPending(ctx context.Context) ([]domain.PendingLetter, error)
	ListApproved(ctx context.Context, limit int) ([]domain.ApprovedLetter, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	Stats(ctx context.Context) (*domain.Stats, error)
}

// VisitorService defines the visitor tally operations
type VisitorService interface {
	RecordVisit(ctx context.Context, visitorID string) error
	CountVisitors(ctx context.Context) (int64, error)
}

// HealthChecker reports whether the store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventRecorder receives moderation events, e.g. for metrics
type EventRecorder interface {
	LetterSubmitted()
	LetterApproved()
	LetterRejected()
	VisitRecorded()
}
