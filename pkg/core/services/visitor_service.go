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

// VisitorService keeps the unique visitor tally
type VisitorService struct {
	repo   ports.VisitorRepository
	events ports.EventRecorder
	logger *zap.Logger
	now    func() time.Time
}

func NewVisitorService(repo ports.VisitorRepository, events ports.EventRecorder, logger *zap.Logger) *VisitorService {
	if events == nil {
		events = noopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitorService{repo: repo, events: events, logger: logger, now: time.Now}
}

func (s *VisitorService) RecordVisit(ctx context.Context, visitorID string) error {
	visitorID = strings.TrimSpace(visitorID)
	err := validation.Validate(visitorID,
		validation.Required.Error("visitorId is required"),
		validation.RuneLength(1, domain.MaxVisitorIDLength).Error("visitorId is too long"),
	)
	if err != nil {
		return domain.NewValidationError("%s", err.Error())
	}

	if err := s.repo.UpsertVisitor(ctx, visitorID, s.now()); err != nil {
		return err
	}
	s.events.VisitRecorded()
	return nil
}

func (s *VisitorService) CountVisitors(ctx context.Context) (int64, error) {
	return s.repo.CountVisitors(ctx)
}

var _ ports.VisitorService = (*VisitorService)(nil)
