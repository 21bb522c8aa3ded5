package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockConceptStore mocks the ConceptStore interface.
type MockConceptStore struct {
	mock.Mock
}

func (m *MockConceptStore) Upsert(ctx context.Context, c *domain.Concept) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockConceptStore) List(ctx context.Context) ([]domain.Concept, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Concept), args.Error(1)
}

func TestConceptService_Register(t *testing.T) {
	kb, err := knowledge.New(3)
	require.NoError(t, err)
	cs := new(MockConceptStore)
	cs.On("Upsert", mock.Anything, mock.MatchedBy(func(c *domain.Concept) bool {
		return c.Key() == "hasSymptom:Fatigue"
	})).Return(nil)

	svc := NewConceptService(cs, kb, zap.NewNop())
	c, err := svc.Register(context.Background(), "hasSymptom", "Fatigue", algebra.Vector{0, 1, 0})
	require.NoError(t, err)

	assert.Equal(t, "hasSymptom", c.Predicate)
	assert.False(t, c.UpdatedAt.IsZero())
	assert.Equal(t, algebra.Vector{0, 1, 0}, kb.Lookup("hasSymptom", "Fatigue"))
	assert.Equal(t, uint64(1), kb.Snapshot().Version())
	cs.AssertExpectations(t)
}

func TestConceptService_RegisterRejectsBadInput(t *testing.T) {
	kb, err := knowledge.New(3)
	require.NoError(t, err)
	cs := new(MockConceptStore)
	svc := NewConceptService(cs, kb, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name      string
		predicate string
		object    string
		vector    algebra.Vector
	}{
		{"wrong dimension", "hasSymptom", "Fatigue", algebra.Vector{1, 0}},
		{"empty predicate", "", "Fatigue", algebra.Vector{1, 0, 0}},
		{"empty object", "hasSymptom", "", algebra.Vector{1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.predicate, tt.object, tt.vector)
			assert.ErrorIs(t, err, knowledge.ErrInvalidRegistration)
		})
	}

	cs.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	assert.Equal(t, 0, kb.Snapshot().Len())
}

func TestConceptService_RegisterStoreFailureLeavesBaseUntouched(t *testing.T) {
	kb, err := knowledge.New(2)
	require.NoError(t, err)
	cs := new(MockConceptStore)
	cs.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := NewConceptService(cs, kb, zap.NewNop())
	_, err = svc.Register(context.Background(), "hasSymptom", "Fatigue", algebra.Vector{1, 1})
	require.Error(t, err)

	assert.False(t, kb.Snapshot().Has("hasSymptom", "Fatigue"))
}

func TestConceptService_Load(t *testing.T) {
	kb, err := knowledge.New(2)
	require.NoError(t, err)
	cs := new(MockConceptStore)
	cs.On("List", mock.Anything).Return([]domain.Concept{
		{Predicate: "hasDiagnosis", Object: "Hypertension", Vector: algebra.Vector{1, 0}},
		{Predicate: "hasSymptom", Object: "Fatigue", Vector: algebra.Vector{0, 1}},
	}, nil)

	svc := NewConceptService(cs, kb, zap.NewNop())
	n, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"hasDiagnosis:Hypertension", "hasSymptom:Fatigue"}, kb.Snapshot().Keys())
}

func TestConceptService_Seed(t *testing.T) {
	kb, err := knowledge.New(2)
	require.NoError(t, err)
	cs := new(MockConceptStore)
	cs.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	svc := NewConceptService(cs, kb, zap.NewNop())

	err = svc.Seed(context.Background(), []knowledge.Entry{
		{Predicate: "hasDiagnosis", Object: "Hypertension", Vector: algebra.Vector{1, 0}},
		{Predicate: "hasSymptom", Object: "Fatigue", Vector: algebra.Vector{0, 1, 0}},
	})
	assert.ErrorIs(t, err, knowledge.ErrInvalidRegistration)
	cs.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	err = svc.Seed(context.Background(), []knowledge.Entry{
		{Predicate: "hasDiagnosis", Object: "Hypertension", Vector: algebra.Vector{1, 0}},
	})
	require.NoError(t, err)
	cs.AssertNumberOfCalls(t, "Upsert", 1)
	assert.Equal(t, 1, kb.Snapshot().Len())
}
