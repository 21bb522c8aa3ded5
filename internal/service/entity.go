package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownEntity   = errors.New("unknown entity: no aggregated state")
	ErrEntityIDMissing = errors.New("entity_id is required")
	ErrEmptyPredicate  = errors.New("predicate is required")
	ErrEmptyObject     = errors.New("object is required")
	ErrVersionNotFound = errors.New("state version not found")
)

const DefaultHistoryLimit = 20

type EntityService struct {
	facts       domain.FactStore
	states      domain.StateStore
	engine      *Engine
	policy      domain.ReviewPolicy
	concurrency int
	logger      *zap.Logger
}

func NewEntityService(fs domain.FactStore, ss domain.StateStore, engine *Engine, logger *zap.Logger) *EntityService {
	return &EntityService{
		facts:       fs,
		states:      ss,
		engine:      engine,
		policy:      domain.DefaultReviewPolicy(),
		concurrency: DefaultBatchConcurrency,
		logger:      logger,
	}
}

func (s *EntityService) SetReviewPolicy(p domain.ReviewPolicy) {
	s.policy = p
}

func (s *EntityService) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

func (s *EntityService) Policy() domain.ReviewPolicy {
	return s.policy
}

func validateFact(f *domain.Fact, entityID string) error {
	f.Predicate = strings.TrimSpace(f.Predicate)
	f.Object = strings.TrimSpace(f.Object)
	if f.Predicate == "" {
		return ErrEmptyPredicate
	}
	if f.Object == "" {
		return ErrEmptyObject
	}
	f.EntityID = entityID
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.ObservedAt.IsZero() {
		f.ObservedAt = time.Now().UTC()
	}
	return nil
}

func (s *EntityService) current(ctx context.Context, entityID string) (*domain.EntityState, error) {
	cur, err := s.states.GetCurrent(ctx, entityID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
		}
		return nil, err
	}
	return cur, nil
}

// Ingest appends facts to the entity's fact log and commits a fresh aggregate of the whole log.
func (s *EntityService) Ingest(ctx context.Context, entityID string, facts []domain.Fact) (*domain.EntityState, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	prepared := make([]domain.Fact, len(facts))
	for i := range facts {
		prepared[i] = facts[i]
		if err := validateFact(&prepared[i], entityID); err != nil {
			return nil, fmt.Errorf("fact %d: %w", i, err)
		}
	}

	if len(prepared) > 0 {
		if err := s.facts.Append(ctx, prepared); err != nil {
			return nil, fmt.Errorf("append facts: %w", err)
		}
	}
	return s.rebuild(ctx, entityID, true)
}

// Rebuild re-aggregates the stored fact log of an already known entity.
func (s *EntityService) Rebuild(ctx context.Context, entityID string) (*domain.EntityState, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	return s.rebuild(ctx, entityID, false)
}

func (s *EntityService) rebuild(ctx context.Context, entityID string, allowNew bool) (*domain.EntityState, error) {
	var parent *uuid.UUID
	cur, err := s.current(ctx, entityID)
	switch {
	case err == nil:
		parent = &cur.VersionID
	case errors.Is(err, ErrUnknownEntity) && allowNew:
	default:
		return nil, err
	}

	all, err := s.facts.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	value, err := s.engine.Aggregate(all)
	if err != nil {
		return nil, err
	}

	next := &domain.EntityState{
		VersionID: uuid.New(),
		ParentID:  parent,
		EntityID:  entityID,
		Value:     value,
		Origin:    domain.OriginAggregate,
		FactCount: len(all),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.states.Commit(ctx, next); err != nil {
		return nil, fmt.Errorf("commit state: %w", err)
	}

	s.logger.Debug("entity aggregated",
		zap.String("entity_id", entityID),
		zap.Int("facts", len(all)),
		zap.Int("dim", value.Dim()),
		zap.Float64("real_norm", algebra.Magnitude(value.Real)),
		zap.Float64("dual_norm", algebra.Magnitude(value.Dual)))

	return next, nil
}

// IngestAll ingests facts for several entities, grouped by Fact.EntityID. Aggregation of all
// touched entities runs in parallel against one knowledge-base snapshot.
func (s *EntityService) IngestAll(ctx context.Context, facts []domain.Fact) ([]*domain.EntityState, error) {
	var order []string
	seen := make(map[string]bool)
	prepared := make([]domain.Fact, len(facts))
	for i := range facts {
		prepared[i] = facts[i]
		id := prepared[i].EntityID
		if id == "" {
			return nil, fmt.Errorf("fact %d: %w", i, ErrEntityIDMissing)
		}
		if err := validateFact(&prepared[i], id); err != nil {
			return nil, fmt.Errorf("fact %d: %w", i, err)
		}
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}

	if len(prepared) > 0 {
		if err := s.facts.Append(ctx, prepared); err != nil {
			return nil, fmt.Errorf("append facts: %w", err)
		}
	}

	logs := make(map[string][]domain.Fact, len(order))
	parents := make(map[string]*uuid.UUID, len(order))
	for _, id := range order {
		all, err := s.facts.ListByEntity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list facts for %s: %w", id, err)
		}
		logs[id] = all

		cur, err := s.current(ctx, id)
		switch {
		case err == nil:
			parents[id] = &cur.VersionID
		case errors.Is(err, ErrUnknownEntity):
		default:
			return nil, err
		}
	}

	values, err := s.engine.AggregateBatch(ctx, logs, s.concurrency)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.EntityState, 0, len(order))
	now := time.Now().UTC()
	for _, id := range order {
		next := &domain.EntityState{
			VersionID: uuid.New(),
			ParentID:  parents[id],
			EntityID:  id,
			Value:     values[id],
			Origin:    domain.OriginAggregate,
			FactCount: len(logs[id]),
			CreatedAt: now,
		}
		if err := s.states.Commit(ctx, next); err != nil {
			return nil, fmt.Errorf("commit state for %s: %w", id, err)
		}
		out = append(out, next)
	}

	s.logger.Info("batch ingested",
		zap.Int("facts", len(prepared)),
		zap.Int("entities", len(out)))

	return out, nil
}

func (s *EntityService) Get(ctx context.Context, entityID string) (*domain.EntityState, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	return s.current(ctx, entityID)
}

// Facts returns the entity's fact log in ingestion order.
func (s *EntityService) Facts(ctx context.Context, entityID string) ([]domain.Fact, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	return s.facts.ListByEntity(ctx, entityID)
}

// Update folds one new fact into the entity's current state via the inner product.
// An entity without a prior state is reported as ErrUnknownEntity; no zero state is assumed.
func (s *EntityService) Update(ctx context.Context, entityID string, f domain.Fact) (*domain.EntityState, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	if err := validateFact(&f, entityID); err != nil {
		return nil, err
	}

	cur, err := s.current(ctx, entityID)
	if err != nil {
		s.logger.Warn("update rejected",
			zap.String("entity_id", entityID),
			zap.String("key", f.Key()),
			zap.Error(err))
		return nil, err
	}

	value, err := s.engine.Update(cur.Value, f)
	if err != nil {
		return nil, err
	}

	parent := cur.VersionID
	next := &domain.EntityState{
		VersionID: uuid.New(),
		ParentID:  &parent,
		EntityID:  entityID,
		Value:     value,
		Origin:    domain.OriginUpdate,
		FactCount: cur.FactCount + 1,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.states.Commit(ctx, next); err != nil {
		return nil, fmt.Errorf("commit state: %w", err)
	}
	// The fact is logged only once its state is committed; if the append fails the head
	// moves back so the log and the current state never disagree.
	if err := s.facts.Append(ctx, []domain.Fact{f}); err != nil {
		if rbErr := s.states.Rollback(ctx, entityID, parent); rbErr != nil {
			s.logger.Error("failed to restore state after fact append error",
				zap.String("entity_id", entityID),
				zap.String("version_id", parent.String()),
				zap.Error(rbErr))
		}
		return nil, fmt.Errorf("append fact: %w", err)
	}

	s.logger.Info("entity updated",
		zap.String("entity_id", entityID),
		zap.String("key", f.Key()),
		zap.String("version_id", next.VersionID.String()))

	return next, nil
}

// Score compares the entity's current state with reference and attaches the review assessment.
func (s *EntityService) Score(ctx context.Context, entityID string, reference algebra.SplitComplex) (*domain.EntityScore, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	cur, err := s.current(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return s.scoreState(cur, reference)
}

func (s *EntityService) scoreState(cur *domain.EntityState, reference algebra.SplitComplex) (*domain.EntityScore, error) {
	score, err := Score(cur.Value, reference)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", cur.EntityID, err)
	}
	return &domain.EntityScore{
		EntityID:   cur.EntityID,
		VersionID:  cur.VersionID.String(),
		Score:      score,
		Assessment: s.policy.Assess(score),
	}, nil
}

// ScoreAll scores many entities in parallel. Results follow the order of entityIDs.
// An empty entityIDs scores every known entity.
func (s *EntityService) ScoreAll(ctx context.Context, entityIDs []string, reference algebra.SplitComplex) ([]domain.EntityScore, error) {
	if len(entityIDs) == 0 {
		ids, err := s.states.ListEntityIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list entities: %w", err)
		}
		entityIDs = ids
	}

	results := make([]domain.EntityScore, len(entityIDs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)
	for i, id := range entityIDs {
		eg.Go(func() error {
			if id == "" {
				return ErrEntityIDMissing
			}
			cur, err := s.current(egCtx, id)
			if err != nil {
				return err
			}
			res, err := s.scoreState(cur, reference)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *EntityService) History(ctx context.Context, entityID string, limit int) ([]domain.EntityState, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	versions, err := s.states.ListVersions(ctx, entityID, limit)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
	}
	return versions, nil
}

// Rollback makes an earlier version of the entity current again.
func (s *EntityService) Rollback(ctx context.Context, entityID string, versionID uuid.UUID) (*domain.EntityState, error) {
	if entityID == "" {
		return nil, ErrEntityIDMissing
	}
	if err := s.states.Rollback(ctx, entityID, versionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
		}
		return nil, err
	}
	s.logger.Info("entity rolled back",
		zap.String("entity_id", entityID),
		zap.String("version_id", versionID.String()))
	return s.current(ctx, entityID)
}
