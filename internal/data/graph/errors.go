// Package graph defines the knowledge-graph store boundary and its
// implementations. Anything satisfying Store can back ingestion and
// analytics; the Neo4j store additionally satisfies Algorithms.
package graph

import "errors"

// Recovered ingestion conditions. These are counted in the ingestion report
// rather than surfaced to callers; they exist as sentinels so per-edge
// failures can be classified.
var (
	// ErrMalformedInput indicates a source line with too few fields.
	ErrMalformedInput = errors.New("malformed input line")

	// ErrSelfLoop indicates a candidate whose source and target CUIs match.
	ErrSelfLoop = errors.New("self-loop relationship")

	// ErrUnknownEntity indicates an endpoint CUI absent from the graph.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrDuplicateRelationship indicates the (source, kind, target) triple
	// already exists.
	ErrDuplicateRelationship = errors.New("duplicate relationship")
)

// Store failures.
var (
	// ErrStoreRead indicates an index or cache load failed. Fatal for an
	// ingestion run: filtering correctness depends on a complete index.
	ErrStoreRead = errors.New("graph store read failed")

	// ErrStoreWrite indicates an edge or batch commit failed. Recovered
	// per edge within a batch.
	ErrStoreWrite = errors.New("graph store write failed")

	// ErrAlgorithmUnavailable indicates the primary community/centrality
	// algorithm is absent or failed; callers fall back.
	ErrAlgorithmUnavailable = errors.New("graph algorithm unavailable")
)
