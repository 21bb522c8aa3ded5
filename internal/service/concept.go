package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"go.uber.org/zap"
)

// ConceptService keeps the persisted concept table and the in-memory knowledge base in step.
type ConceptService struct {
	store  domain.ConceptStore
	kb     *knowledge.Base
	logger *zap.Logger
}

func NewConceptService(cs domain.ConceptStore, kb *knowledge.Base, logger *zap.Logger) *ConceptService {
	return &ConceptService{store: cs, kb: kb, logger: logger}
}

func (s *ConceptService) checkDim(predicate, object string, v algebra.Vector) error {
	if predicate == "" || object == "" {
		return fmt.Errorf("%w: empty predicate or object", knowledge.ErrInvalidRegistration)
	}
	if len(v) != s.kb.Dim() {
		return fmt.Errorf("%w: %s has dimension %d, knowledge base uses %d",
			knowledge.ErrInvalidRegistration, domain.ConceptKey(predicate, object), len(v), s.kb.Dim())
	}
	return nil
}

// Register persists the entry and then publishes it to the knowledge base. Later
// registrations for the same key replace the earlier vector.
func (s *ConceptService) Register(ctx context.Context, predicate, object string, v algebra.Vector) (*domain.Concept, error) {
	if err := s.checkDim(predicate, object, v); err != nil {
		return nil, err
	}

	c := &domain.Concept{
		Predicate: predicate,
		Object:    object,
		Vector:    v.Clone(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.Upsert(ctx, c); err != nil {
		return nil, fmt.Errorf("persist concept: %w", err)
	}
	if err := s.kb.Register(predicate, object, v); err != nil {
		return nil, err
	}

	s.logger.Info("concept registered",
		zap.String("key", c.Key()),
		zap.Uint64("kb_version", s.kb.Snapshot().Version()))
	return c, nil
}

// Seed registers every entry, persisting each one. Validation happens before any write.
func (s *ConceptService) Seed(ctx context.Context, entries []knowledge.Entry) error {
	for _, e := range entries {
		if err := s.checkDim(e.Predicate, e.Object, e.Vector); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	for _, e := range entries {
		c := &domain.Concept{Predicate: e.Predicate, Object: e.Object, Vector: e.Vector.Clone(), UpdatedAt: now}
		if err := s.store.Upsert(ctx, c); err != nil {
			return fmt.Errorf("persist concept %s: %w", c.Key(), err)
		}
	}
	if err := s.kb.RegisterAll(entries); err != nil {
		return err
	}
	s.logger.Info("concepts seeded", zap.Int("count", len(entries)))
	return nil
}

// Load publishes every persisted concept to the knowledge base and returns how many were loaded.
func (s *ConceptService) Load(ctx context.Context) (int, error) {
	concepts, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list concepts: %w", err)
	}
	entries := make([]knowledge.Entry, len(concepts))
	for i, c := range concepts {
		entries[i] = knowledge.Entry{Predicate: c.Predicate, Object: c.Object, Vector: c.Vector}
	}
	if err := s.kb.RegisterAll(entries); err != nil {
		return 0, err
	}
	s.logger.Info("concepts loaded", zap.Int("count", len(entries)))
	return len(entries), nil
}

func (s *ConceptService) List(ctx context.Context) ([]domain.Concept, error) {
	return s.store.List(ctx)
}
