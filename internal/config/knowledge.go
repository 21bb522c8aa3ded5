package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"gopkg.in/yaml.v3"
)

var ErrInvalidKnowledgeFile = errors.New("invalid knowledge file")

// Knowledge is the YAML knowledge file: concept vectors, weighting policy,
// reference vectors and review thresholds. Every section is optional.
type Knowledge struct {
	Dimension           int               `yaml:"dimension"`
	Weights             WeightsConfig     `yaml:"weights"`
	UncertainPredicates []string          `yaml:"uncertain_predicates"`
	Concepts            []ConceptConfig   `yaml:"concepts"`
	References          []ReferenceConfig `yaml:"references"`
	Review              *ReviewConfig     `yaml:"review"`
}

type WeightsConfig struct {
	Default    float64            `yaml:"default"`
	Predicates map[string]float64 `yaml:"predicates"`
}

type ConceptConfig struct {
	Predicate string    `yaml:"predicate"`
	Object    string    `yaml:"object"`
	Vector    []float64 `yaml:"vector"`
}

// ReferenceConfig defines a reference either by an explicit real vector or by concept keys.
type ReferenceConfig struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Real        []float64 `yaml:"real"`
	Concepts    []string  `yaml:"concepts"`
}

type ReviewConfig struct {
	MinMatch         *float64 `yaml:"min_match"`
	MaxContradiction *float64 `yaml:"max_contradiction"`
}

// LoadKnowledge reads and validates a knowledge file. An empty path yields the defaults.
func LoadKnowledge(path string) (*Knowledge, error) {
	k := &Knowledge{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge file: %w", err)
		}
		if err := yaml.Unmarshal(data, k); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKnowledgeFile, path, err)
		}
	}
	if k.Dimension == 0 {
		k.Dimension = VectorDim()
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	return k, nil
}

// ParseKnowledge decodes a knowledge document held in memory.
func ParseKnowledge(data []byte) (*Knowledge, error) {
	k := &Knowledge{}
	if err := yaml.Unmarshal(data, k); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKnowledgeFile, err)
	}
	if k.Dimension == 0 {
		k.Dimension = VectorDim()
	}
	if err := k.validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Knowledge) validate() error {
	if k.Dimension < 0 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidKnowledgeFile, k.Dimension)
	}
	for _, c := range k.Concepts {
		if c.Predicate == "" || c.Object == "" {
			return fmt.Errorf("%w: concept without predicate or object", ErrInvalidKnowledgeFile)
		}
		if len(c.Vector) != k.Dimension {
			return fmt.Errorf("%w: concept %s has dimension %d, want %d",
				ErrInvalidKnowledgeFile, domain.ConceptKey(c.Predicate, c.Object), len(c.Vector), k.Dimension)
		}
	}
	for _, r := range k.References {
		if r.Name == "" {
			return fmt.Errorf("%w: reference without name", ErrInvalidKnowledgeFile)
		}
		if len(r.Real) == 0 && len(r.Concepts) == 0 {
			return fmt.Errorf("%w: reference %s needs real or concepts", ErrInvalidKnowledgeFile, r.Name)
		}
		if len(r.Real) > 0 && len(r.Real) != k.Dimension {
			return fmt.Errorf("%w: reference %s has dimension %d, want %d",
				ErrInvalidKnowledgeFile, r.Name, len(r.Real), k.Dimension)
		}
	}
	return nil
}

// WeightTable builds the weighting policy. Predicates not listed keep their default weight.
func (k *Knowledge) WeightTable() (*domain.WeightTable, error) {
	weights := make(map[string]float64, len(domain.DefaultPredicateWeights)+len(k.Weights.Predicates))
	for p, w := range domain.DefaultPredicateWeights {
		weights[p] = w
	}
	for p, w := range k.Weights.Predicates {
		weights[p] = w
	}
	fallback := k.Weights.Default
	if fallback == 0 {
		fallback = domain.DefaultFallbackWeight
	}
	return domain.NewWeightTable(weights, fallback)
}

// Classifier returns the default uncertain predicates plus any listed in the file.
func (k *Knowledge) Classifier() *domain.PredicateClassifier {
	uncertain := append([]string(nil), domain.DefaultUncertainPredicates...)
	uncertain = append(uncertain, k.UncertainPredicates...)
	return domain.NewPredicateClassifier(uncertain)
}

func (k *Knowledge) Entries() []knowledge.Entry {
	out := make([]knowledge.Entry, len(k.Concepts))
	for i, c := range k.Concepts {
		out[i] = knowledge.Entry{Predicate: c.Predicate, Object: c.Object, Vector: algebra.Vector(c.Vector)}
	}
	return out
}

// ReviewPolicy applies configured thresholds over the defaults.
func (k *Knowledge) ReviewPolicy() domain.ReviewPolicy {
	p := domain.DefaultReviewPolicy()
	if k.Review == nil {
		return p
	}
	if k.Review.MinMatch != nil {
		p.MinMatch = *k.Review.MinMatch
	}
	if k.Review.MaxContradiction != nil {
		p.MaxContradiction = *k.Review.MaxContradiction
	}
	return p
}

// NewBase builds a knowledge base holding the file's concepts.
func (k *Knowledge) NewBase() (*knowledge.Base, error) {
	kb, err := knowledge.New(k.Dimension)
	if err != nil {
		return nil, err
	}
	if err := kb.RegisterAll(k.Entries()); err != nil {
		return nil, err
	}
	return kb, nil
}
