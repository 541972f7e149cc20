package graph

import (
	"context"

	"github.com/yungbote/medgraph-backend/internal/domain/medical"
)

// Direction selects which incident edges Neighbors returns.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Both
)

// NeighborEdge is one incident edge plus the kind of the node at its far end.
type NeighborEdge struct {
	FromCUI      string
	ToCUI        string
	Kind         medical.RelationshipKind
	Weight       float64
	NeighborKind medical.ConceptKind
}

// EdgeFailure pairs a rejected edge with its classified cause.
type EdgeFailure struct {
	Edge medical.Relationship
	Err  error
}

// BatchResult reports the outcome of one batched relationship write.
type BatchResult struct {
	Created int
	Failed  []EdgeFailure
}

// Store is the property-graph boundary the ingestion pipeline and analytics
// engines depend on. Implementations: Neo4jStore, MemStore.
type Store interface {
	// LoadConceptCUIs returns every known concept identifier of one kind,
	// for the ingestion existence index.
	LoadConceptCUIs(ctx context.Context, kind medical.ConceptKind) (map[string]struct{}, error)

	// LoadRelationshipKeys returns up to max existing (source, kind, target)
	// triples for the deduplication cache. max <= 0 means no cap.
	LoadRelationshipKeys(ctx context.Context, max int) (map[medical.RelationshipKey]struct{}, error)

	// UpsertConcepts creates concepts on first reference and refreshes the
	// display name on re-ingestion.
	UpsertConcepts(ctx context.Context, concepts []medical.Concept) error

	// CreateRelationships commits a batch in one transaction. A non-nil
	// error means the whole batch commit failed; otherwise per-edge
	// rejections are isolated in BatchResult.Failed.
	CreateRelationships(ctx context.Context, edges []medical.Relationship) (BatchResult, error)

	// ConceptKind resolves the kind of a single concept, or "" if unknown.
	ConceptKind(ctx context.Context, cui string) (medical.ConceptKind, error)

	// Neighbors returns edges incident to cui. An empty kinds slice means
	// no kind filtering.
	Neighbors(ctx context.Context, cui string, dir Direction, kinds []medical.RelationshipKind) ([]NeighborEdge, error)

	// HasAnyRelationships reports whether any edge exists, used as the
	// run-once ingestion guard.
	HasAnyRelationships(ctx context.Context) (bool, error)

	// UpsertRiskFactorEdge writes one weighted INCREASES_RISK_OF edge from a
	// global risk-factor node to a disease, replacing any previous weight.
	UpsertRiskFactorEdge(ctx context.Context, rfType string, value float64, diseaseCUI string, weight float64) error

	// DeleteUserRiskFactor removes the personal HAS_RISK_FACTOR edge of one
	// type for one user, if present.
	DeleteUserRiskFactor(ctx context.Context, userID, rfType string) error

	// CreateUserRiskFactor records a user's personal value for one
	// risk-factor type.
	CreateUserRiskFactor(ctx context.Context, userID, rfType string, value float64) error
}

// Algorithms is the optional aggregate-algorithm capability. The analytics
// engines probe for it at construction and fall back to hand-rolled
// strategies when the store does not provide it.
type Algorithms interface {
	// Probe reports whether the algorithm engine is actually reachable.
	// Selection between primary and fallback strategies happens here, not
	// via error handling on each call.
	Probe(ctx context.Context) error

	// ProjectSubgraph materializes a named induced subgraph over the given
	// concept set. Callers must DropProjection on every exit path.
	ProjectSubgraph(ctx context.Context, name string, cuis []string) error

	// DropProjection tears down a named projection. Dropping a projection
	// that does not exist is not an error.
	DropProjection(ctx context.Context, name string) error

	// Louvain runs modularity clustering over a projection and returns
	// community id -> member CUIs.
	Louvain(ctx context.Context, name string, maxLevels int, tolerance float64) (map[int64][]string, error)

	// Betweenness returns weighted betweenness centrality per CUI over a
	// projection.
	Betweenness(ctx context.Context, name string) (map[string]float64, error)
}
