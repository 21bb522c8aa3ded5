package store

import (
	"github.com/Harshitk-cp/epistate/internal/algebra"
	pgvector "github.com/pgvector/pgvector-go"
)

// pgvector stores single precision; values are widened back to float64 on read.
func toPGVector(v algebra.Vector) pgvector.Vector {
	f := make([]float32, len(v))
	for i, x := range v {
		f[i] = float32(x)
	}
	return pgvector.NewVector(f)
}

func fromPGVector(v pgvector.Vector) algebra.Vector {
	s := v.Slice()
	out := make(algebra.Vector, len(s))
	for i, x := range s {
		out[i] = float64(x)
	}
	return out
}

func splitFromPG(real, dual pgvector.Vector) (algebra.SplitComplex, error) {
	return algebra.New(fromPGVector(real), fromPGVector(dual))
}
