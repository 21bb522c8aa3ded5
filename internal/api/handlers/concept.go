package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/service"
	"go.uber.org/zap"
)

type ConceptHandler struct {
	svc    *service.ConceptService
	logger *zap.Logger
}

func NewConceptHandler(svc *service.ConceptService, logger *zap.Logger) *ConceptHandler {
	return &ConceptHandler{svc: svc, logger: logger}
}

type registerConceptRequest struct {
	Predicate string    `json:"predicate"`
	Object    string    `json:"object"`
	Vector    []float64 `json:"vector"`
}

func (h *ConceptHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerConceptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.svc.Register(r.Context(), req.Predicate, req.Object, algebra.Vector(req.Vector))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to register concept")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ConceptHandler) List(w http.ResponseWriter, r *http.Request) {
	concepts, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list concepts")
		return
	}
	if concepts == nil {
		concepts = []domain.Concept{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"concepts": concepts})
}
