package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidWeight = errors.New("evidence weight must be in (0, 1]")

type EvidenceKind string

const (
	EvidenceConfirmed EvidenceKind = "confirmed"
	EvidenceUncertain EvidenceKind = "uncertain"
)

func ValidEvidenceKind(k string) bool {
	switch EvidenceKind(k) {
	case EvidenceConfirmed, EvidenceUncertain:
		return true
	}
	return false
}

// Predicates observed in clinical fact sources.
const (
	PredicateHasDiagnosis         = "hasDiagnosis"
	PredicateHasLabResult         = "hasLabResult"
	PredicateHasSymptom           = "hasSymptom"
	PredicatePossibleDiagnosis    = "possibleDiagnosis"
	PredicateConflictingDiagnosis = "conflictingDiagnosis"
)

// Fact is one (predicate, object) statement about an entity.
type Fact struct {
	ID         uuid.UUID `json:"id"`
	EntityID   string    `json:"entity_id"`
	Predicate  string    `json:"predicate"`
	Object     string    `json:"object"`
	ObservedAt time.Time `json:"observed_at"`
}

// Key is the knowledge-base identity of the fact.
func (f Fact) Key() string {
	return ConceptKey(f.Predicate, f.Object)
}

func ConceptKey(predicate, object string) string {
	return predicate + ":" + object
}

// Weighter maps a predicate to an evidence weight in (0, 1].
type Weighter interface {
	Weight(predicate string) float64
}

// Classifier decides which channel a predicate's evidence belongs to.
type Classifier interface {
	Classify(predicate string) EvidenceKind
}

const DefaultFallbackWeight = 0.5

// DefaultPredicateWeights grades evidence strength: confirmed diagnoses weigh most,
// conflicting diagnoses least.
var DefaultPredicateWeights = map[string]float64{
	PredicateHasDiagnosis:         1.0,
	PredicateHasLabResult:         0.8,
	PredicateHasSymptom:           0.6,
	PredicatePossibleDiagnosis:    0.4,
	PredicateConflictingDiagnosis: 0.3,
}

// WeightTable is an immutable predicate → weight mapping with a non-zero fallback.
type WeightTable struct {
	weights  map[string]float64
	fallback float64
}

func NewWeightTable(weights map[string]float64, fallback float64) (*WeightTable, error) {
	if !validWeight(fallback) {
		return nil, fmt.Errorf("%w: fallback %v", ErrInvalidWeight, fallback)
	}
	copied := make(map[string]float64, len(weights))
	for p, w := range weights {
		if !validWeight(w) {
			return nil, fmt.Errorf("%w: %s=%v", ErrInvalidWeight, p, w)
		}
		copied[p] = w
	}
	return &WeightTable{weights: copied, fallback: fallback}, nil
}

func DefaultWeightTable() *WeightTable {
	t, _ := NewWeightTable(DefaultPredicateWeights, DefaultFallbackWeight)
	return t
}

func (t *WeightTable) Weight(predicate string) float64 {
	if w, ok := t.weights[predicate]; ok {
		return w
	}
	return t.fallback
}

// Known reports whether predicate has an explicit entry.
func (t *WeightTable) Known(predicate string) bool {
	_, ok := t.weights[predicate]
	return ok
}

func (t *WeightTable) Fallback() float64 {
	return t.fallback
}

// With returns a copy of t with predicate set to w.
func (t *WeightTable) With(predicate string, w float64) (*WeightTable, error) {
	next := make(map[string]float64, len(t.weights)+1)
	for p, v := range t.weights {
		next[p] = v
	}
	next[predicate] = w
	return NewWeightTable(next, t.fallback)
}

func validWeight(w float64) bool {
	return w > 0 && w <= 1
}

// DefaultUncertainPredicates populate the dual channel; everything else is confirmed.
var DefaultUncertainPredicates = []string{
	PredicatePossibleDiagnosis,
	PredicateConflictingDiagnosis,
}

// PredicateClassifier classifies by set membership with a configurable default kind.
type PredicateClassifier struct {
	kinds    map[string]EvidenceKind
	fallback EvidenceKind
}

// NewPredicateClassifier marks the given predicates uncertain; all others are confirmed.
func NewPredicateClassifier(uncertain []string) *PredicateClassifier {
	kinds := make(map[string]EvidenceKind, len(uncertain))
	for _, p := range uncertain {
		kinds[p] = EvidenceUncertain
	}
	return &PredicateClassifier{kinds: kinds, fallback: EvidenceConfirmed}
}

func DefaultClassifier() *PredicateClassifier {
	return NewPredicateClassifier(DefaultUncertainPredicates)
}

func (c *PredicateClassifier) Classify(predicate string) EvidenceKind {
	if k, ok := c.kinds[predicate]; ok {
		return k
	}
	return c.fallback
}

// With returns a copy of c with predicate assigned to kind.
func (c *PredicateClassifier) With(predicate string, kind EvidenceKind) *PredicateClassifier {
	kinds := make(map[string]EvidenceKind, len(c.kinds)+1)
	for p, k := range c.kinds {
		kinds[p] = k
	}
	kinds[predicate] = kind
	return &PredicateClassifier{kinds: kinds, fallback: c.fallback}
}

// Uncertain lists the predicates explicitly classified as uncertain, sorted.
func (c *PredicateClassifier) Uncertain() []string {
	var out []string
	for p, k := range c.kinds {
		if k == EvidenceUncertain {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(predicate string) EvidenceKind

func (f ClassifierFunc) Classify(predicate string) EvidenceKind {
	return f(predicate)
}
