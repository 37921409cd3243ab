package services

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// LetterService runs the moderation queue: pending -> approved, or pending -> deleted.
// It holds no state of its own between calls.
type LetterService struct {
	repo   ports.LetterRepository
	events ports.EventRecorder
	logger *zap.Logger
	now    func() time.Time
}

func NewLetterService(repo ports.LetterRepository, events ports.EventRecorder, logger *zap.Logger) *LetterService {
	if events == nil {
		events = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LetterService{repo: repo, events: events, logger: logger, now: time.Now}
}

type submission struct {
	LetterText string `json:"letterText"`
	Nickname   string `json:"nickname"`
}

func (s *submission) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.LetterText,
			validation.Required,
			validation.RuneLength(1, domain.MaxLetterLength),
		),
		validation.Field(&s.Nickname,
			validation.RuneLength(0, domain.MaxNicknameLength),
		),
	)
}

func (s *LetterService) Submit(ctx context.Context, letterText, nickname string) (string, error) {
	sub := &submission{
		LetterText: strings.TrimSpace(letterText),
		Nickname:   strings.TrimSpace(nickname),
	}
	if err := sub.Validate(); err != nil {
		return "", domain.NewValidationError("%s", err.Error())
	}
	if sub.Nickname == "" {
		sub.Nickname = domain.DefaultNickname
	}

	id, err := generateID(idLength)
	if err != nil {
		return "", domain.NewStorageError("generate letter id", err)
	}

	letter := &domain.PendingLetter{
		ID:         id,
		LetterText: sub.LetterText,
		Nickname:   sub.Nickname,
		CreatedAt:  s.now(),
		Status:     domain.StatusPending,
	}
	if err := s.repo.InsertPending(ctx, letter); err != nil {
		return "", err
	}

	s.events.LetterSubmitted()
	s.logger.Debug("letter submitted", zap.String("id", id))
	return id, nil
}

func (s *LetterService) ListPending(ctx context.Context) ([]domain.PendingLetter, error) {
	return s.repo.ListPending(ctx)
}

// ListApproved returns at most limit letters, newest approval first.
// Non-positive limits fall back to the default and larger ones are capped.
func (s *LetterService) ListApproved(ctx context.Context, limit int) ([]domain.ApprovedLetter, error) {
	if limit <= 0 || limit > domain.DefaultApprovedLimit {
		limit = domain.DefaultApprovedLimit
	}
	return s.repo.ListApproved(ctx, limit)
}

// Approve is not idempotent: a second call for the same id returns a NotFoundError.
func (s *LetterService) Approve(ctx context.Context, id string) error {
	approved, err := s.repo.ApprovePending(ctx, id, s.now())
	if err != nil {
		return err
	}

	s.events.LetterApproved()
	s.logger.Debug("letter approved",
		zap.String("id", approved.ID),
		zap.Time("approved_at", approved.ApprovedAt),
	)
	return nil
}

// Reject deletes the pending letter if it exists. Missing ids are not an error.
func (s *LetterService) Reject(ctx context.Context, id string) error {
	deleted, err := s.repo.DeletePending(ctx, id)
	if err != nil {
		return err
	}
	if deleted {
		s.events.LetterRejected()
		s.logger.Debug("letter rejected", zap.String("id", id))
	}
	return nil
}

func (s *LetterService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}

var _ ports.LetterService = (*LetterService)(nil)
