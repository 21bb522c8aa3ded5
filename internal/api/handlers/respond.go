package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/Harshitk-cp/epistate/internal/triples"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps service and domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownEntity),
		errors.Is(err, service.ErrReferenceNotFound),
		errors.Is(err, service.ErrVersionNotFound):
		return http.StatusNotFound
	case errors.Is(err, algebra.ErrDimensionMismatch),
		errors.Is(err, knowledge.ErrInvalidRegistration),
		errors.Is(err, service.ErrEntityIDMissing),
		errors.Is(err, service.ErrEmptyPredicate),
		errors.Is(err, service.ErrEmptyObject),
		errors.Is(err, service.ErrReferenceNameMissing),
		errors.Is(err, service.ErrReferenceEmpty),
		errors.Is(err, triples.ErrIncompleteStatement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError reports client errors verbatim and hides internal ones behind msg.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}
