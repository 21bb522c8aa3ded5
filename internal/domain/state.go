package domain

import (
	"time"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/google/uuid"
)

type StateOrigin string

const (
	OriginAggregate StateOrigin = "aggregate"
	OriginUpdate    StateOrigin = "update"
)

// EntityState is one immutable version of an entity's aggregate epistemic state.
type EntityState struct {
	VersionID uuid.UUID            `json:"version_id"`
	ParentID  *uuid.UUID           `json:"parent_id,omitempty"`
	EntityID  string               `json:"entity_id"`
	Value     algebra.SplitComplex `json:"value"`
	Origin    StateOrigin          `json:"origin"`
	FactCount int                  `json:"fact_count"`
	CreatedAt time.Time            `json:"created_at"`
}

func (s EntityState) Dim() int {
	return s.Value.Dim()
}

// Concept is a persisted knowledge-base entry.
type Concept struct {
	Predicate string         `json:"predicate"`
	Object    string         `json:"object"`
	Vector    algebra.Vector `json:"vector"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (c Concept) Key() string {
	return ConceptKey(c.Predicate, c.Object)
}

// Reference is a named standard (e.g. a clinical guideline). Its dual channel is zero.
type Reference struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Value       algebra.SplitComplex `json:"value"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
