package handlers

import (
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EntityHandler struct {
	entities *service.EntityService
	refs     *service.ReferenceService
	logger   *zap.Logger
}

func NewEntityHandler(entities *service.EntityService, refs *service.ReferenceService, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{entities: entities, refs: refs, logger: logger}
}

type factInput struct {
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

type ingestRequest struct {
	Facts []factInput `json:"facts"`
}

type stateResponse struct {
	*domain.EntityState
	Dim int `json:"dim"`
}

func newStateResponse(st *domain.EntityState) stateResponse {
	return stateResponse{EntityState: st, Dim: st.Dim()}
}

// referenceInput names a stored reference or carries an inline real vector.
type referenceInput struct {
	Reference string    `json:"reference"`
	Real      []float64 `json:"real"`
}

func (h *EntityHandler) resolveReference(r *http.Request, in referenceInput) (algebra.SplitComplex, error) {
	if len(in.Real) > 0 {
		return algebra.FromReal(algebra.Vector(in.Real)), nil
	}
	if in.Reference == "" {
		return algebra.SplitComplex{}, service.ErrReferenceEmpty
	}
	ref, err := h.refs.Get(r.Context(), in.Reference)
	if err != nil {
		return algebra.SplitComplex{}, err
	}
	return ref.Value, nil
}

func (h *EntityHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	facts := make([]domain.Fact, len(req.Facts))
	for i, f := range req.Facts {
		facts[i] = domain.Fact{Predicate: f.Predicate, Object: f.Object}
	}

	st, err := h.entities.Ingest(r.Context(), chi.URLParam(r, "id"), facts)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to ingest facts")
		return
	}
	writeJSON(w, http.StatusCreated, newStateResponse(st))
}

func (h *EntityHandler) Facts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	facts, err := h.entities.Facts(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list facts")
		return
	}
	if facts == nil {
		facts = []domain.Fact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entity_id": id, "facts": facts})
}

func (h *EntityHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	st, err := h.entities.Rebuild(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to rebuild state")
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (h *EntityHandler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.entities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get state")
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (h *EntityHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	id := chi.URLParam(r, "id")
	versions, err := h.entities.History(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list history")
		return
	}
	out := make([]stateResponse, len(versions))
	for i := range versions {
		out[i] = newStateResponse(&versions[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"entity_id": id, "versions": out})
}

type rollbackRequest struct {
	VersionID string `json:"version_id"`
}

func (h *EntityHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	versionID, err := uuid.Parse(req.VersionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version_id")
		return
	}

	st, err := h.entities.Rollback(r.Context(), chi.URLParam(r, "id"), versionID)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to roll back")
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req factInput
	if !decodeJSON(w, r, &req) {
		return
	}

	st, err := h.entities.Update(r.Context(), chi.URLParam(r, "id"),
		domain.Fact{Predicate: req.Predicate, Object: req.Object})
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update state")
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (h *EntityHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req referenceInput
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := h.resolveReference(r, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to resolve reference")
		return
	}

	res, err := h.entities.Score(r.Context(), chi.URLParam(r, "id"), ref)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to score entity")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchScoreRequest struct {
	referenceInput
	EntityIDs []string `json:"entity_ids"`
}

type batchScoreResponse struct {
	Policy domain.ReviewPolicy  `json:"policy"`
	Scores []domain.EntityScore `json:"scores"`
}

// ScoreAll scores the listed entities, or every known entity when entity_ids is empty.
func (h *EntityHandler) ScoreAll(w http.ResponseWriter, r *http.Request) {
	var req batchScoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, err := h.resolveReference(r, req.referenceInput)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to resolve reference")
		return
	}

	scores, err := h.entities.ScoreAll(r.Context(), req.EntityIDs, ref)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to score entities")
		return
	}
	if scores == nil {
		scores = []domain.EntityScore{}
	}
	writeJSON(w, http.StatusOK, batchScoreResponse{Policy: h.entities.Policy(), Scores: scores})
}
