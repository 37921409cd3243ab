package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/kind-letters/pkg/core/domain"
)

const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps the error taxonomy onto status codes. Storage
// failures are logged and reported with a generic message.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var httpErr domain.HTTPError
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		status := http.StatusBadRequest
		if errors.As(err, &httpErr) {
			status = httpErr.StatusCode()
		}
		writeError(w, status, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a single JSON object, rejecting unknown fields and
// bodies larger than maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return domain.NewValidationError("invalid request body: %v", err)
	}
	if dec.More() {
		return domain.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}
