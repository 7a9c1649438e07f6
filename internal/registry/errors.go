package registry

import "errors"

// ErrNotFound is returned by single-match queries when zero entries satisfy
// the query's predicates.
var ErrNotFound = errors.New("registry: no match for query")

// ErrAmbiguous is returned by single-match queries when more than one entry
// satisfies the query's predicates.
var ErrAmbiguous = errors.New("registry: multiple matches for query")
