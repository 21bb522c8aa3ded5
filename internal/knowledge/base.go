// Package knowledge holds the concept knowledge base: predicate:object keys mapped to
// base semantic vectors of one fixed dimension.
//
// Readers work on immutable snapshots. Register copies the current entry map, applies
// the write and publishes a new snapshot, so a reader holding a snapshot never sees a
// partially applied registration.
package knowledge

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
)

var (
	ErrInvalidRegistration = errors.New("invalid knowledge base registration")
	ErrInvalidDimension    = errors.New("knowledge base dimension must be positive")
)

// Lookup is the read side shared by Base and Snapshot.
type Lookup interface {
	Dim() int
	Lookup(predicate, object string) algebra.Vector
}

// Entry is a single registration.
type Entry struct {
	Predicate string
	Object    string
	Vector    algebra.Vector
}

// Base is the shared knowledge base. The zero value is not usable; call New.
type Base struct {
	dim     int
	writeMu sync.Mutex
	current atomic.Pointer[Snapshot]
}

func New(dim int) (*Base, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	b := &Base{dim: dim}
	b.current.Store(&Snapshot{dim: dim, entries: map[string]algebra.Vector{}})
	return b, nil
}

func (b *Base) Dim() int {
	return b.dim
}

// Snapshot returns the current immutable view.
func (b *Base) Snapshot() *Snapshot {
	return b.current.Load()
}

// Lookup returns the base vector for predicate:object, or the zero vector when absent.
func (b *Base) Lookup(predicate, object string) algebra.Vector {
	return b.Snapshot().Lookup(predicate, object)
}

// Register inserts or fully replaces the entry for predicate:object.
func (b *Base) Register(predicate, object string, v algebra.Vector) error {
	return b.RegisterAll([]Entry{{Predicate: predicate, Object: object, Vector: v}})
}

// RegisterAll applies every entry in one published snapshot, or none if any entry is invalid.
// Later entries for the same key win.
func (b *Base) RegisterAll(entries []Entry) error {
	for _, e := range entries {
		if err := b.validate(e); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	prev := b.current.Load()
	next := make(map[string]algebra.Vector, len(prev.entries)+len(entries))
	for k, v := range prev.entries {
		next[k] = v
	}
	for _, e := range entries {
		next[domain.ConceptKey(e.Predicate, e.Object)] = e.Vector.Clone()
	}
	b.current.Store(&Snapshot{dim: b.dim, entries: next, version: prev.version + 1})
	return nil
}

func (b *Base) validate(e Entry) error {
	if e.Predicate == "" || e.Object == "" {
		return fmt.Errorf("%w: empty predicate or object", ErrInvalidRegistration)
	}
	if len(e.Vector) != b.dim {
		return fmt.Errorf("%w: %s has dimension %d, knowledge base uses %d",
			ErrInvalidRegistration, domain.ConceptKey(e.Predicate, e.Object), len(e.Vector), b.dim)
	}
	return nil
}

// Snapshot is an immutable view of the knowledge base at one version.
type Snapshot struct {
	dim     int
	entries map[string]algebra.Vector
	version uint64
}

func (s *Snapshot) Dim() int {
	return s.dim
}

// Version counts the registrations published before this snapshot.
func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) Len() int {
	return len(s.entries)
}

func (s *Snapshot) Lookup(predicate, object string) algebra.Vector {
	v, _ := s.Get(predicate, object)
	return v
}

// Get is Lookup that also reports whether the key was registered.
func (s *Snapshot) Get(predicate, object string) (algebra.Vector, bool) {
	v, ok := s.entries[domain.ConceptKey(predicate, object)]
	if !ok {
		return algebra.NewVector(s.dim), false
	}
	return v.Clone(), true
}

// Has reports whether predicate:object is registered.
func (s *Snapshot) Has(predicate, object string) bool {
	_, ok := s.entries[domain.ConceptKey(predicate, object)]
	return ok
}

// Keys returns the registered keys, sorted.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LookupKey resolves a combined "predicate:object" key.
func (s *Snapshot) LookupKey(key string) (algebra.Vector, bool) {
	v, ok := s.entries[key]
	if !ok {
		return algebra.NewVector(s.dim), false
	}
	return v.Clone(), true
}
