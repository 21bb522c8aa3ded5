package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/epistate/internal/config"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"go.uber.org/zap"
)

// Stores bundles the persistence backends a Suite runs on.
type Stores struct {
	Facts      domain.FactStore
	States     domain.StateStore
	Concepts   domain.ConceptStore
	References domain.ReferenceStore
}

// Suite is the fully wired set of services over one knowledge base.
type Suite struct {
	Knowledge  *knowledge.Base
	Engine     *Engine
	Entities   *EntityService
	Concepts   *ConceptService
	References *ReferenceService
}

// Bootstrap builds the services for k. Persisted concepts and references take precedence:
// file entries are only written for keys the store does not hold yet, so registrations made
// at runtime survive a restart.
func Bootstrap(ctx context.Context, k *config.Knowledge, stores Stores, concurrency int, logger *zap.Logger) (*Suite, error) {
	kb, err := knowledge.New(k.Dimension)
	if err != nil {
		return nil, err
	}
	weights, err := k.WeightTable()
	if err != nil {
		return nil, err
	}

	engine := NewEngine(weights, k.Classifier(), kb, logger)
	s := &Suite{
		Knowledge:  kb,
		Engine:     engine,
		Entities:   NewEntityService(stores.Facts, stores.States, engine, logger),
		Concepts:   NewConceptService(stores.Concepts, kb, logger),
		References: NewReferenceService(stores.References, kb, logger),
	}
	s.Entities.SetReviewPolicy(k.ReviewPolicy())
	s.Entities.SetConcurrency(concurrency)

	if _, err := s.Concepts.Load(ctx); err != nil {
		return nil, fmt.Errorf("load persisted concepts: %w", err)
	}

	snap := kb.Snapshot()
	var missing []knowledge.Entry
	for _, e := range k.Entries() {
		if !snap.Has(e.Predicate, e.Object) {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		if err := s.Concepts.Seed(ctx, missing); err != nil {
			return nil, fmt.Errorf("seed concepts: %w", err)
		}
	}

	for _, rc := range k.References {
		_, err := s.References.Get(ctx, rc.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrReferenceNotFound) {
			return nil, err
		}
		if _, err := s.References.Define(ctx, rc.Name, rc.Description, rc.Real, rc.Concepts); err != nil {
			return nil, fmt.Errorf("define reference %s: %w", rc.Name, err)
		}
	}

	logger.Info("knowledge base ready",
		zap.Int("dimension", kb.Dim()),
		zap.Int("concepts", kb.Snapshot().Len()),
		zap.Int("file_references", len(k.References)))

	return s, nil
}
