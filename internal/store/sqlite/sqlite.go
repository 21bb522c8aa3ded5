// Package sqlite is a single-file persistence backend with the same semantics as the
// PostgreSQL stores. Vectors are kept as little-endian float64 blobs, so values round-trip exactly.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	_ "modernc.org/sqlite"
)

// InMemory opens a private database that disappears when closed.
const InMemory = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	entity_id    TEXT NOT NULL,
	predicate    TEXT NOT NULL,
	object       TEXT NOT NULL,
	observed_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facts_entity ON facts (entity_id, seq);

CREATE TABLE IF NOT EXISTS entity_state_versions (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id   TEXT NOT NULL UNIQUE,
	parent_id    TEXT,
	entity_id    TEXT NOT NULL,
	real_part    BLOB NOT NULL,
	dual_part    BLOB NOT NULL,
	origin       TEXT NOT NULL,
	fact_count   INTEGER NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES entity_state_versions(version_id)
);

CREATE INDEX IF NOT EXISTS idx_state_versions_entity ON entity_state_versions (entity_id, seq);

CREATE TABLE IF NOT EXISTS entity_heads (
	entity_id    TEXT PRIMARY KEY,
	version_id   TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES entity_state_versions(version_id)
);

CREATE TABLE IF NOT EXISTS concepts (
	predicate    TEXT NOT NULL,
	object       TEXT NOT NULL,
	vector       BLOB NOT NULL,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (predicate, object)
);

CREATE TABLE IF NOT EXISTS reference_vectors (
	name         TEXT PRIMARY KEY,
	description  TEXT NOT NULL DEFAULT '',
	real_part    BLOB NOT NULL,
	dual_part    BLOB NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
`

// DB owns the connection shared by the four stores.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	if path == "" {
		path = InMemory
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// every pooled connection to :memory: would get its own empty database
	if path == InMemory {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) Facts() *FactStore {
	return &FactStore{db: d.db}
}

func (d *DB) States() *StateStore {
	return &StateStore{db: d.db}
}

func (d *DB) Concepts() *ConceptStore {
	return &ConceptStore{db: d.db}
}

func (d *DB) References() *ReferenceStore {
	return &ReferenceStore{db: d.db}
}

func encodeVector(v algebra.Vector) []byte {
	buf := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
	}
	return buf
}

func decodeVector(b []byte) (algebra.Vector, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes is not a multiple of 8", len(b))
	}
	v := make(algebra.Vector, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}

func decodeSplit(real, dual []byte) (algebra.SplitComplex, error) {
	r, err := decodeVector(real)
	if err != nil {
		return algebra.SplitComplex{}, err
	}
	d, err := decodeVector(dual)
	if err != nil {
		return algebra.SplitComplex{}, err
	}
	return algebra.New(r, d)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

var (
	_ domain.FactStore      = (*FactStore)(nil)
	_ domain.StateStore     = (*StateStore)(nil)
	_ domain.ConceptStore   = (*ConceptStore)(nil)
	_ domain.ReferenceStore = (*ReferenceStore)(nil)
)
