// Package algebra implements vector-valued split-complex numbers, a + b·h with h² = +1.
//
// A SplitComplex carries two channels of equal dimension: Real holds confirmed
// evidence and Dual holds uncertain or contradictory evidence. Every operation
// returns a new value; inputs are never modified.
package algebra

import (
	"errors"
	"fmt"
	"math"
)

var ErrDimensionMismatch = errors.New("dimension mismatch")

// Vector is a fixed-length slice of semantic axis weights.
type Vector []float64

// NewVector returns a zero vector of the given dimension.
func NewVector(dim int) Vector {
	return make(Vector, dim)
}

func (v Vector) Dim() int {
	return len(v)
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Scale returns s·v.
func (v Vector) Scale(s float64) Vector {
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = s * x
	}
	return out
}

// IsZero reports whether every component is exactly zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Dot returns the Euclidean dot product of a and b.
func Dot(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dot %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v Vector) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	return math.Sqrt(sumSq)
}

func addVectors(a, b Vector) Vector {
	out := make(Vector, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// SplitComplex is the pair (Real, Dual). Both channels always share one dimension.
type SplitComplex struct {
	Real Vector `json:"real"`
	Dual Vector `json:"dual"`
}

// New copies real and dual into a SplitComplex.
func New(real, dual Vector) (SplitComplex, error) {
	if len(real) != len(dual) {
		return SplitComplex{}, fmt.Errorf("%w: real %d vs dual %d", ErrDimensionMismatch, len(real), len(dual))
	}
	return SplitComplex{Real: real.Clone(), Dual: dual.Clone()}, nil
}

// Zero returns the additive identity of dimension dim.
func Zero(dim int) SplitComplex {
	return SplitComplex{Real: NewVector(dim), Dual: NewVector(dim)}
}

// FromReal places v in the real channel and zero-fills the dual channel.
func FromReal(v Vector) SplitComplex {
	return SplitComplex{Real: v.Clone(), Dual: NewVector(len(v))}
}

// FromDual places v in the dual channel and zero-fills the real channel.
func FromDual(v Vector) SplitComplex {
	return SplitComplex{Real: NewVector(len(v)), Dual: v.Clone()}
}

func (z SplitComplex) Dim() int {
	return len(z.Real)
}

// IsZero reports whether both channels are zero.
func (z SplitComplex) IsZero() bool {
	return z.Real.IsZero() && z.Dual.IsZero()
}

// Validate checks the channel-length invariant.
func (z SplitComplex) Validate() error {
	if len(z.Real) != len(z.Dual) {
		return fmt.Errorf("%w: real %d vs dual %d", ErrDimensionMismatch, len(z.Real), len(z.Dual))
	}
	return nil
}

func (z SplitComplex) String() string {
	return fmt.Sprintf("SplitComplex(real=%v, dual=%v)", []float64(z.Real), []float64(z.Dual))
}

func conformant(op string, a, b SplitComplex) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%s: left operand: %w", op, err)
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%s: right operand: %w", op, err)
	}
	if a.Dim() != b.Dim() {
		return fmt.Errorf("%w: %s %d vs %d", ErrDimensionMismatch, op, a.Dim(), b.Dim())
	}
	return nil
}

// Add returns (a.Real+b.Real, a.Dual+b.Dual).
func Add(a, b SplitComplex) (SplitComplex, error) {
	if err := conformant("add", a, b); err != nil {
		return SplitComplex{}, err
	}
	return SplitComplex{
		Real: addVectors(a.Real, b.Real),
		Dual: addVectors(a.Dual, b.Dual),
	}, nil
}

// Sum folds values with Add starting from Zero(dim). An empty input yields Zero(dim).
func Sum(dim int, values ...SplitComplex) (SplitComplex, error) {
	acc := Zero(dim)
	for i, v := range values {
		next, err := Add(acc, v)
		if err != nil {
			return SplitComplex{}, fmt.Errorf("sum term %d: %w", i, err)
		}
		acc = next
	}
	return acc, nil
}

// InnerProduct computes the Dirac-style product of a and b:
//
//	real = a.Real·b.Real + a.Dual·b.Dual
//	dual = a.Real·b.Dual + a.Dual·b.Real
//
// Each channel collapses to a scalar, returned as a dimension-1 SplitComplex.
func InnerProduct(a, b SplitComplex) (SplitComplex, error) {
	if err := conformant("inner product", a, b); err != nil {
		return SplitComplex{}, err
	}
	rr, _ := Dot(a.Real, b.Real)
	dd, _ := Dot(a.Dual, b.Dual)
	rd, _ := Dot(a.Real, b.Dual)
	dr, _ := Dot(a.Dual, b.Real)
	return SplitComplex{
		Real: Vector{rr + dd},
		Dual: Vector{rd + dr},
	}, nil
}

// ApproxEqual reports whether a and b share a dimension and differ by at most tol per component.
func ApproxEqual(a, b SplitComplex, tol float64) bool {
	if len(a.Real) != len(b.Real) || len(a.Dual) != len(b.Dual) {
		return false
	}
	for i := range a.Real {
		if math.Abs(a.Real[i]-b.Real[i]) > tol {
			return false
		}
	}
	for i := range a.Dual {
		if math.Abs(a.Dual[i]-b.Dual[i]) > tol {
			return false
		}
	}
	return true
}
