package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// HTTPHandler serves the public reader and writer endpoints
type HTTPHandler struct {
	letters  ports.LetterService
	visitors ports.VisitorService
	health   ports.HealthChecker
	logger   *zap.Logger
}

func NewHTTPHandler(letters ports.LetterService, visitors ports.VisitorService, health ports.HealthChecker, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{letters: letters, visitors: visitors, health: health, logger: logger}
}

// SubmitLetterRequest payload
type SubmitLetterRequest struct {
	LetterText *string `json:"letterText"`
	Nickname   string  `json:"nickname,omitempty"`
}

func (r *SubmitLetterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LetterText, validation.NotNil),
	)
}

// RecordVisitRequest payload
type RecordVisitRequest struct {
	VisitorID string `json:"visitorId"`
}

func (r *RecordVisitRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.VisitorID, validation.Required),
	)
}

// Health pings the store
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListApproved returns approved letters, newest approval first.
// Shuffling for display is left to the client.
func (h *HTTPHandler) ListApproved(w http.ResponseWriter, r *http.Request) {
	limit := domain.DefaultApprovedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	letters, err := h.letters.ListApproved(r.Context(), limit)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, letters)
}

// Submit queues a letter for moderation
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitLetterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, h.logger, domain.NewValidationError("%s", err.Error()))
		return
	}

	id, err := h.letters.Submit(r.Context(), *req.LetterText, req.Nickname)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// RecordVisit upserts the visitor tally
func (h *HTTPHandler) RecordVisit(w http.ResponseWriter, r *http.Request) {
	var req RecordVisitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, h.logger, domain.NewValidationError("%s", err.Error()))
		return
	}

	if err := h.visitors.RecordVisit(r.Context(), req.VisitorID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
