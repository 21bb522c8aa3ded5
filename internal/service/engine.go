package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchConcurrency = 8

// Engine encodes facts into split-complex values, aggregates them into entity states,
// scores states against references and folds new evidence into existing states.
// It holds no entity state of its own.
type Engine struct {
	weights    domain.Weighter
	classifier domain.Classifier
	concepts   knowledge.Lookup
	logger     *zap.Logger
}

func NewEngine(weights domain.Weighter, classifier domain.Classifier, concepts knowledge.Lookup, logger *zap.Logger) *Engine {
	return &Engine{
		weights:    weights,
		classifier: classifier,
		concepts:   concepts,
		logger:     logger,
	}
}

// Dim is the dimension of every value the engine produces from facts.
func (e *Engine) Dim() int {
	return e.concepts.Dim()
}

// WithConcepts returns a copy of the engine reading concept vectors from l.
func (e *Engine) WithConcepts(l knowledge.Lookup) *Engine {
	cp := *e
	cp.concepts = l
	return &cp
}

// pinned returns an engine bound to one knowledge-base snapshot.
func (e *Engine) pinned() *Engine {
	if b, ok := e.concepts.(*knowledge.Base); ok {
		return e.WithConcepts(b.Snapshot())
	}
	return e
}

// Encode maps one fact to a split-complex value. Confirmed evidence lands only in the
// real channel and uncertain evidence only in the dual channel; the other channel is zero.
func (e *Engine) Encode(f domain.Fact) algebra.SplitComplex {
	w := e.weights.Weight(f.Predicate)
	base := e.concepts.Lookup(f.Predicate, f.Object)
	vec := base.Scale(w)

	if known, ok := e.weights.(interface{ Known(string) bool }); ok && !known.Known(f.Predicate) {
		e.logger.Warn("predicate has no configured weight, using fallback",
			zap.String("predicate", f.Predicate),
			zap.Float64("weight", w))
	}
	if base.IsZero() {
		e.logger.Warn("concept vector missing or zero",
			zap.String("key", f.Key()))
	}

	if e.classifier.Classify(f.Predicate) == domain.EvidenceUncertain {
		return algebra.FromDual(vec)
	}
	return algebra.FromReal(vec)
}

// Aggregate encodes each fact and sums the results channel-wise. No facts yields the zero value.
func (e *Engine) Aggregate(facts []domain.Fact) (algebra.SplitComplex, error) {
	e = e.pinned()
	encoded := make([]algebra.SplitComplex, len(facts))
	for i, f := range facts {
		encoded[i] = e.Encode(f)
	}
	state, err := algebra.Sum(e.Dim(), encoded...)
	if err != nil {
		return algebra.SplitComplex{}, fmt.Errorf("aggregate: %w", err)
	}
	return state, nil
}

// AggregateBatch aggregates several entities in parallel against a single knowledge-base
// snapshot. The first failure cancels the remaining work.
func (e *Engine) AggregateBatch(ctx context.Context, batch map[string][]domain.Fact, concurrency int) (map[string]algebra.SplitComplex, error) {
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	pinned := e.pinned()

	var mu sync.Mutex
	out := make(map[string]algebra.SplitComplex, len(batch))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for entityID, facts := range batch {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			state, err := pinned.Aggregate(facts)
			if err != nil {
				return fmt.Errorf("entity %s: %w", entityID, err)
			}
			mu.Lock()
			out[entityID] = state
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Score compares an entity state with a reference. The match score is the magnitude of
// the real channel of their inner product, the contradiction score that of the dual channel.
// Interpreting the scores is left to the caller.
func Score(state, reference algebra.SplitComplex) (domain.Score, error) {
	r, err := algebra.InnerProduct(state, reference)
	if err != nil {
		return domain.Score{}, fmt.Errorf("score: %w", err)
	}
	return domain.Score{
		Match:         algebra.Magnitude(r.Real),
		Contradiction: algebra.Magnitude(r.Dual),
		Raw:           r,
	}, nil
}

// Update folds a new fact into an existing state through the inner product, not addition:
// the result describes how the new evidence interacts with everything already known,
// including the real-with-dual cross terms.
func (e *Engine) Update(state algebra.SplitComplex, f domain.Fact) (algebra.SplitComplex, error) {
	delta := e.Encode(f)
	next, err := algebra.InnerProduct(state, delta)
	if err != nil {
		return algebra.SplitComplex{}, fmt.Errorf("update: %w", err)
	}
	e.logger.Debug("state updated",
		zap.String("key", f.Key()),
		zap.Float64("real", algebra.Magnitude(next.Real)),
		zap.Float64("dual", algebra.Magnitude(next.Dual)))
	return next, nil
}
