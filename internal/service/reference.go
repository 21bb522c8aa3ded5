package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/knowledge"
	"github.com/Harshitk-cp/epistate/internal/store"
	"go.uber.org/zap"
)

var (
	ErrReferenceNotFound    = errors.New("reference not found")
	ErrReferenceNameMissing = errors.New("reference name is required")
	ErrReferenceEmpty       = errors.New("reference needs a real vector or concept keys")
)

type ReferenceService struct {
	store  domain.ReferenceStore
	kb     *knowledge.Base
	logger *zap.Logger
}

func NewReferenceService(rs domain.ReferenceStore, kb *knowledge.Base, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{store: rs, kb: kb, logger: logger}
}

// BuildReference sums the base vectors of conceptKeys ("predicate:object") into the real
// channel. Keys absent from the snapshot contribute nothing and are returned as missing.
func BuildReference(snap *knowledge.Snapshot, conceptKeys []string) (algebra.SplitComplex, []string, error) {
	terms := make([]algebra.SplitComplex, 0, len(conceptKeys))
	var missing []string
	for _, key := range conceptKeys {
		v, ok := snap.LookupKey(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		terms = append(terms, algebra.FromReal(v))
	}
	value, err := algebra.Sum(snap.Dim(), terms...)
	if err != nil {
		return algebra.SplitComplex{}, missing, fmt.Errorf("build reference: %w", err)
	}
	return value, missing, nil
}

// Define creates or replaces a named reference from either an explicit real vector or
// concept keys. The dual channel is always zero.
func (s *ReferenceService) Define(ctx context.Context, name, description string, real algebra.Vector, conceptKeys []string) (*domain.Reference, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrReferenceNameMissing
	}

	var value algebra.SplitComplex
	switch {
	case len(real) > 0:
		if len(real) != s.kb.Dim() {
			return nil, fmt.Errorf("%w: reference %s has dimension %d, knowledge base uses %d",
				algebra.ErrDimensionMismatch, name, len(real), s.kb.Dim())
		}
		value = algebra.FromReal(real)
	case len(conceptKeys) > 0:
		var (
			missing []string
			err     error
		)
		value, missing, err = BuildReference(s.kb.Snapshot(), conceptKeys)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			s.logger.Warn("reference built with unknown concept keys",
				zap.String("reference", name),
				zap.Strings("missing", missing))
		}
	default:
		return nil, ErrReferenceEmpty
	}

	now := time.Now().UTC()
	ref := &domain.Reference{
		Name:        name,
		Description: description,
		Value:       value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Upsert(ctx, ref); err != nil {
		return nil, fmt.Errorf("persist reference: %w", err)
	}

	s.logger.Info("reference defined", zap.String("reference", name))
	return ref, nil
}

func (s *ReferenceService) Get(ctx context.Context, name string) (*domain.Reference, error) {
	if name == "" {
		return nil, ErrReferenceNameMissing
	}
	ref, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrReferenceNotFound, name)
		}
		return nil, err
	}
	return ref, nil
}

func (s *ReferenceService) List(ctx context.Context) ([]domain.Reference, error) {
	return s.store.List(ctx)
}
