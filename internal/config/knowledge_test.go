package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleKnowledge = `
dimension: 3
weights:
  default: 0.25
  predicates:
    hasSymptom: 0.7
uncertain_predicates: [suspectedDiagnosis]
concepts:
  - {predicate: hasDiagnosis, object: Hypertension, vector: [1, 0, 0]}
  - {predicate: hasSymptom, object: Fatigue, vector: [0, 1, 0]}
references:
  - name: guideline
    concepts: ["hasDiagnosis:Hypertension", "hasSymptom:Fatigue"]
  - name: explicit
    real: [0, 0, 1]
review:
  max_contradiction: 0.2
`

func TestLoadKnowledge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleKnowledge), 0o600))

	k, err := LoadKnowledge(path)
	require.NoError(t, err)
	assert.Equal(t, 3, k.Dimension)
	assert.Len(t, k.References, 2)

	weights, err := k.WeightTable()
	require.NoError(t, err)
	assert.Equal(t, 0.7, weights.Weight("hasSymptom"))
	assert.Equal(t, 1.0, weights.Weight("hasDiagnosis"), "unlisted predicates keep their default")
	assert.Equal(t, 0.25, weights.Weight("hasFamilyHistory"))

	c := k.Classifier()
	assert.Equal(t, domain.EvidenceUncertain, c.Classify("suspectedDiagnosis"))
	assert.Equal(t, domain.EvidenceUncertain, c.Classify("possibleDiagnosis"))
	assert.Equal(t, domain.EvidenceConfirmed, c.Classify("hasDiagnosis"))

	p := k.ReviewPolicy()
	assert.Equal(t, domain.DefaultMinMatch, p.MinMatch)
	assert.Equal(t, 0.2, p.MaxContradiction)

	kb, err := k.NewBase()
	require.NoError(t, err)
	assert.Equal(t, 3, kb.Dim())
	assert.Equal(t, algebra.Vector{0, 1, 0}, kb.Lookup("hasSymptom", "Fatigue"))
}

func TestLoadKnowledge_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("VECTOR_DIM", "")

	k, err := LoadKnowledge("")
	require.NoError(t, err)
	assert.Equal(t, 6, k.Dimension)
	assert.Equal(t, domain.DefaultReviewPolicy(), k.ReviewPolicy())

	weights, err := k.WeightTable()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFallbackWeight, weights.Fallback())
}

func TestParseKnowledge_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "dimension: [1"},
		{"concept dimension", "dimension: 2\nconcepts:\n  - {predicate: p, object: o, vector: [1]}"},
		{"concept missing object", "dimension: 1\nconcepts:\n  - {predicate: p, vector: [1]}"},
		{"reference without body", "dimension: 2\nreferences:\n  - {name: r}"},
		{"reference dimension", "dimension: 2\nreferences:\n  - {name: r, real: [1, 2, 3]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKnowledge([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidKnowledgeFile)
		})
	}
}

func TestKnowledge_InvalidWeight(t *testing.T) {
	k, err := ParseKnowledge([]byte("dimension: 1\nweights:\n  predicates:\n    hasSymptom: 1.5\n"))
	require.NoError(t, err)

	_, err = k.WeightTable()
	assert.ErrorIs(t, err, domain.ErrInvalidWeight)
}

func TestExampleKnowledgeFile(t *testing.T) {
	k, err := LoadKnowledge(filepath.Join("..", "..", "knowledge.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 6, k.Dimension)
	_, err = k.NewBase()
	require.NoError(t, err)
}
