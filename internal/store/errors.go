package store

import "errors"

var (
	// ErrNotIndexed indicates no collection exists yet. Callers should run
	// indexing before searching.
	ErrNotIndexed = errors.New("no data indexed yet")

	// ErrEmptyQuery indicates the search query trimmed to nothing.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrModelChanged indicates the configured embedding model differs from
	// the one the collection was built with. Mixing vector spaces is a fatal
	// configuration error; clear the index or restore the original model.
	ErrModelChanged = errors.New("embedding model changed since last indexing")
)
