package knowledge

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNew_RejectsNonPositiveDimension(t *testing.T) {
	for _, dim := range []int{0, -1} {
		_, err := New(dim)
		assert.True(t, errors.Is(err, ErrInvalidDimension), "dim %d", dim)
	}
}

func TestLookup_MissingKeyIsZeroVector(t *testing.T) {
	kb, err := New(6)
	require.NoError(t, err)

	v := kb.Lookup("hasDiagnosis", "Unknown")
	assert.Equal(t, 6, v.Dim())
	assert.True(t, v.IsZero())
}

func TestRegister_LastWriteWins(t *testing.T) {
	kb, err := New(3)
	require.NoError(t, err)

	require.NoError(t, kb.Register("hasDiagnosis", "Diabetes", algebra.Vector{1, 0, 0}))
	require.NoError(t, kb.Register("hasDiagnosis", "Diabetes", algebra.Vector{0, 0, 1}))

	assert.Equal(t, algebra.Vector{0, 0, 1}, kb.Lookup("hasDiagnosis", "Diabetes"))
	assert.Equal(t, 1, kb.Snapshot().Len())
}

func TestRegister_DimensionMismatch(t *testing.T) {
	kb, err := New(6)
	require.NoError(t, err)

	err = kb.Register("hasSymptom", "Fatigue", algebra.Vector{0, 1, 0, 0})
	assert.True(t, errors.Is(err, ErrInvalidRegistration))
	assert.False(t, kb.Snapshot().Has("hasSymptom", "Fatigue"))
}

func TestRegister_EmptyKeyRejected(t *testing.T) {
	kb, err := New(2)
	require.NoError(t, err)

	assert.True(t, errors.Is(kb.Register("", "x", algebra.Vector{1, 0}), ErrInvalidRegistration))
	assert.True(t, errors.Is(kb.Register("p", "", algebra.Vector{1, 0}), ErrInvalidRegistration))
}

func TestRegister_CopiesVector(t *testing.T) {
	kb, err := New(2)
	require.NoError(t, err)

	v := algebra.Vector{1, 2}
	require.NoError(t, kb.Register("p", "o", v))
	v[0] = 42

	got := kb.Lookup("p", "o")
	assert.Equal(t, algebra.Vector{1, 2}, got)

	got[1] = 42
	assert.Equal(t, algebra.Vector{1, 2}, kb.Lookup("p", "o"))
}

func TestRegisterAll_IsAtomic(t *testing.T) {
	kb, err := New(2)
	require.NoError(t, err)

	err = kb.RegisterAll([]Entry{
		{Predicate: "p", Object: "a", Vector: algebra.Vector{1, 0}},
		{Predicate: "p", Object: "b", Vector: algebra.Vector{1}},
	})
	require.Error(t, err)
	assert.Equal(t, 0, kb.Snapshot().Len())
	assert.Equal(t, uint64(0), kb.Snapshot().Version())
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	kb, err := New(2)
	require.NoError(t, err)
	require.NoError(t, kb.Register("p", "o", algebra.Vector{1, 0}))

	snap := kb.Snapshot()
	require.NoError(t, kb.Register("p", "o", algebra.Vector{0, 1}))
	require.NoError(t, kb.Register("p", "new", algebra.Vector{1, 1}))

	assert.Equal(t, algebra.Vector{1, 0}, snap.Lookup("p", "o"))
	assert.False(t, snap.Has("p", "new"))
	assert.Equal(t, uint64(1), snap.Version())

	latest := kb.Snapshot()
	assert.Equal(t, algebra.Vector{0, 1}, latest.Lookup("p", "o"))
	assert.Equal(t, []string{"p:new", "p:o"}, latest.Keys())
	assert.Equal(t, uint64(3), latest.Version())
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	defer goleak.VerifyNone(t)

	kb, err := New(4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				v := algebra.Vector{float64(w), float64(i), 0, 1}
				if err := kb.Register("p", fmt.Sprintf("o%d", i%10), v); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := kb.Lookup("p", fmt.Sprintf("o%d", i%10))
				if v.Dim() != 4 {
					t.Errorf("torn read: dimension %d", v.Dim())
					return
				}
				// registered entries always carry 1 in the last slot
				if !v.IsZero() && v[3] != 1 {
					t.Errorf("torn read: %v", v)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, kb.Snapshot().Len())
	assert.Equal(t, uint64(400), kb.Snapshot().Version())
}
