package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/epistate/internal/service"
	"github.com/Harshitk-cp/epistate/internal/triples"
	"go.uber.org/zap"
)

type TriplesHandler struct {
	entities *service.EntityService
	logger   *zap.Logger
}

func NewTriplesHandler(entities *service.EntityService, logger *zap.Logger) *TriplesHandler {
	return &TriplesHandler{entities: entities, logger: logger}
}

// Ingest parses a text body of triples and ingests every subject as an entity.
func (h *TriplesHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	groups, err := triples.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	states, err := h.entities.IngestAll(r.Context(), triples.Flatten(groups))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to ingest triples")
		return
	}

	out := make([]stateResponse, len(states))
	for i, st := range states {
		out[i] = newStateResponse(st)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entities": len(out), "states": out})
}
