package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReferenceHandler struct {
	svc    *service.ReferenceService
	logger *zap.Logger
}

func NewReferenceHandler(svc *service.ReferenceService, logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{svc: svc, logger: logger}
}

type defineReferenceRequest struct {
	Description string    `json:"description"`
	Real        []float64 `json:"real"`
	Concepts    []string  `json:"concepts"`
}

func (h *ReferenceHandler) Define(w http.ResponseWriter, r *http.Request) {
	var req defineReferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ref, err := h.svc.Define(r.Context(), chi.URLParam(r, "name"), req.Description,
		algebra.Vector(req.Real), req.Concepts)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to define reference")
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (h *ReferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref, err := h.svc.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get reference")
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (h *ReferenceHandler) List(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list references")
		return
	}
	if refs == nil {
		refs = []domain.Reference{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"references": refs})
}
