package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

// session holds the per-run in-memory state: the entity existence index, the
// deduplication cache and the growing batch. It is constructed at the start
// of Run and dropped at its end; nothing here outlives a run or is shared
// across concurrent runs.
type session struct {
	existing map[medical.ConceptKind]map[string]struct{}
	seen     map[medical.RelationshipKey]struct{}
	batch    []medical.Relationship
}

// newSession loads the existence index (all kinds in parallel) and the dedup
// cache. Any load failure is fatal for the run: filtering is only correct
// against a complete index.
func newSession(ctx context.Context, store graph.Store, dedupCap int, log *logger.Logger) (*session, error) {
	s := &session{
		existing: make(map[medical.ConceptKind]map[string]struct{}, len(medical.AllConceptKinds)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range medical.AllConceptKinds {
		kind := kind
		g.Go(func() error {
			set, err := store.LoadConceptCUIs(gctx, kind)
			if err != nil {
				return fmt.Errorf("existence index for %s: %w", kind, err)
			}
			mu.Lock()
			s.existing[kind] = set
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen, err := store.LoadRelationshipKeys(ctx, dedupCap)
	if err != nil {
		return nil, fmt.Errorf("dedup cache: %w", err)
	}
	s.seen = seen

	total := 0
	for _, set := range s.existing {
		total += len(set)
	}
	log.Info("ingestion session ready",
		"known_concepts", total,
		"known_relationships", len(s.seen),
	)
	return s, nil
}

// exists reports whether the CUI is a known concept of any kind.
func (s *session) exists(cui string) bool {
	for _, set := range s.existing {
		if _, ok := set[cui]; ok {
			return true
		}
	}
	return false
}
