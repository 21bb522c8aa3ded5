package domain

import (
	"context"

	"github.com/google/uuid"
)

type FactStore interface {
	Append(ctx context.Context, facts []Fact) error
	ListByEntity(ctx context.Context, entityID string) ([]Fact, error)
}

type StateStore interface {
	// Commit inserts a new version and makes it the entity's current state.
	Commit(ctx context.Context, s *EntityState) error
	GetCurrent(ctx context.Context, entityID string) (*EntityState, error)
	ListVersions(ctx context.Context, entityID string, limit int) ([]EntityState, error)
	Rollback(ctx context.Context, entityID string, versionID uuid.UUID) error
	ListEntityIDs(ctx context.Context) ([]string, error)
}

type ConceptStore interface {
	Upsert(ctx context.Context, c *Concept) error
	List(ctx context.Context) ([]Concept, error)
}

type ReferenceStore interface {
	Upsert(ctx context.Context, r *Reference) error
	GetByName(ctx context.Context, name string) (*Reference, error)
	List(ctx context.Context) ([]Reference, error)
}
