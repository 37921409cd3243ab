package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
	"github.com/wadjakorntonsri/kind-letters/pkg/ports"
)

// StatsObserver is told about every stats read, e.g. to refresh gauges
type StatsObserver interface {
	ObserveStats(s *domain.Stats)
}

// AdminHandler serves the moderator endpoints. Routes are expected to sit
// behind Middleware.AuthMiddleware.
type AdminHandler struct {
	letters  ports.LetterService
	observer StatsObserver
	logger   *zap.Logger
}

func NewAdminHandler(letters ports.LetterService, observer StatsObserver, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{letters: letters, observer: observer, logger: logger}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.letters.Stats(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if h.observer != nil {
		h.observer.ObserveStats(stats)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	letters, err := h.letters.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, letters)
}

func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.letters.Approve(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.logger.Info("moderator approved letter", zap.String("id", id), zap.String("moderator", moderatorFrom(r)))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Reject always succeeds for unknown ids
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.letters.Reject(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.logger.Info("moderator rejected letter", zap.String("id", id), zap.String("moderator", moderatorFrom(r)))
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
