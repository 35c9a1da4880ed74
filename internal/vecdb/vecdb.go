// Package vecdb defines the vector storage port: a single named collection
// of chunk records with a fixed-dimension vector column, supporting lazy
// creation, append, full scan, drop, and nearest-neighbor search. Engines
// behind the port are interchangeable.
package vecdb

import (
	"context"
	"errors"
)

var (
	// ErrAbsent indicates the collection has not been created yet.
	ErrAbsent = errors.New("collection does not exist")

	// ErrDimensionMismatch indicates a vector's dimension disagrees with the
	// collection's. Fatal configuration error; vectors are never truncated or
	// padded to fit.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Record is the persisted schema per chunk.
type Record struct {
	Vector    []float32
	Content   string
	Source    string
	FilePath  string
	ChunkHash string
	Timestamp string
	StartLine int
	EndLine   int
}

// Scored is a record with its distance to a query vector. Lower means more
// similar.
type Scored struct {
	Record
	Distance float64
}

// Collection is the storage port. Mutating calls must be serialized by the
// caller; engines do not guard against concurrent rebuilds.
type Collection interface {
	// Exists reports whether the collection has been created.
	Exists(ctx context.Context) (bool, error)
	// Create creates the collection from an initial batch. All vectors must
	// share one dimension, which becomes the collection's.
	Create(ctx context.Context, records []Record) error
	// Append adds records to an existing collection.
	Append(ctx context.Context, records []Record) error
	// Scan returns every stored record.
	Scan(ctx context.Context) ([]Record, error)
	// Drop removes the collection entirely. Idempotent.
	Drop(ctx context.Context) error
	// NearestNeighbors returns up to limit records ranked by ascending
	// distance to the query vector. A non-positive limit returns no
	// records.
	NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]Scored, error)
	// Dimension returns the collection's vector dimension, 0 when absent.
	Dimension(ctx context.Context) (int, error)
	// GetMeta returns a metadata value by key, or "" if not set. Metadata
	// survives Drop.
	GetMeta(ctx context.Context, key string) (string, error)
	// SetMeta sets a metadata key-value pair.
	SetMeta(ctx context.Context, key, value string) error
	// Location describes where the collection lives, for diagnostics.
	Location() string
}

// RecordDeleter is an optional upgrade for engines with native row deletes.
// Engines without it are handled by scan + drop + recreate.
type RecordDeleter interface {
	// DeleteByFile removes all records whose FilePath equals path and
	// returns the number removed.
	DeleteByFile(ctx context.Context, path string) (int, error)
}
