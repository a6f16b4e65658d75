package retriever

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryEmbedding marks a failure to embed the query text.
	ErrQueryEmbedding = errors.New("query embedding failed")
	// ErrSearch marks a failure of the vector index during a query.
	ErrSearch = errors.New("index search failed")
	// ErrInvalidTopK is returned when top_k is less than 1.
	ErrInvalidTopK = errors.New("top_k must be at least 1")
	// ErrMisaligned is returned when the index does not hold exactly one vector per passage.
	ErrMisaligned = errors.New("index and catalog are misaligned")
)

// QueryError reports a failed retrieval for a specific query. It is distinct from an
// empty result: errors.Is matches both the kind (ErrQueryEmbedding or ErrSearch) and
// the underlying cause.
type QueryError struct {
	Query string
	Kind  error
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("retrieve %q: %v: %v", e.Query, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
