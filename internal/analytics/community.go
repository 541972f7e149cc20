package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

const (
	louvainMaxLevels    = 10
	louvainTolerance    = 0.0001
	minCommunitySize    = 2
	maxFallbackClusters = 5

	// synthCohesion is the fixed score of the whole-set community
	// synthesized when both strategies come up empty.
	synthCohesion = 0.5
)

// Communities clusters a patient-specific concept set into cohesive
// subgroups. Primary strategy is modularity clustering on the store's
// algorithm engine; fallback is in-set neighbor counting.
type Communities struct {
	store graph.Store
	algo  graph.Algorithms
	log   *logger.Logger
}

func NewCommunities(store graph.Store, algo graph.Algorithms, baseLog *logger.Logger) *Communities {
	return &Communities{
		store: store,
		algo:  algo,
		log:   baseLog.With("engine", "CommunityDetection"),
	}
}

// Detect clusters conceptCUIs. Communities smaller than two members are
// dropped. When neither strategy yields anything and the input has at least
// two members, the whole set becomes one community at a fixed cohesion score.
func (c *Communities) Detect(ctx context.Context, conceptCUIs []string) ([]medical.Community, error) {
	if len(conceptCUIs) == 0 {
		return nil, nil
	}

	var primary func() ([]medical.Community, error)
	if c.algo != nil {
		primary = func() ([]medical.Community, error) { return c.detectLouvain(ctx, conceptCUIs) }
	}
	result, err := withFallback(c.log, "louvain", primary, func() ([]medical.Community, error) {
		return c.detectByNeighbors(ctx, conceptCUIs)
	})
	if err != nil {
		return nil, err
	}

	if len(result) == 0 && len(conceptCUIs) >= minCommunitySize {
		whole, err := c.buildCommunity(ctx, conceptCUIs)
		if err != nil {
			return nil, err
		}
		whole.CohesionScore = synthCohesion
		result = []medical.Community{whole}
	}
	return result, nil
}

// detectLouvain projects the induced subgraph and runs modularity
// clustering. The projection is torn down on every exit path.
func (c *Communities) detectLouvain(ctx context.Context, cuis []string) ([]medical.Community, error) {
	name := "patient_comm_" + uuid.NewString()
	if err := c.algo.ProjectSubgraph(ctx, name, cuis); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.algo.DropProjection(ctx, name); err != nil {
			c.log.Warn("projection teardown failed", "projection", name, "error", err)
		}
	}()

	groups, err := c.algo.Louvain(ctx, name, louvainMaxLevels, louvainTolerance)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var result []medical.Community
	for _, id := range ids {
		members := groups[id]
		if len(members) < minCommunitySize {
			continue
		}
		community, err := c.buildCommunity(ctx, members)
		if err != nil {
			return nil, err
		}
		result = append(result, community)
	}
	return result, nil
}

// detectByNeighbors anchors a community on every concept with at least two
// in-set neighbors, keeping the five best-connected anchors.
func (c *Communities) detectByNeighbors(ctx context.Context, cuis []string) ([]medical.Community, error) {
	inSet := make(map[string]struct{}, len(cuis))
	for _, cui := range cuis {
		inSet[cui] = struct{}{}
	}

	type anchor struct {
		cui       string
		neighbors []string
	}
	var anchors []anchor
	for _, cui := range cuis {
		edges, err := c.store.Neighbors(ctx, cui, graph.Both, nil)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		var neighbors []string
		for _, e := range edges {
			other := e.ToCUI
			if other == cui {
				other = e.FromCUI
			}
			if other == cui {
				continue
			}
			if _, ok := inSet[other]; !ok {
				continue
			}
			if _, dup := seen[other]; dup {
				continue
			}
			seen[other] = struct{}{}
			neighbors = append(neighbors, other)
		}
		if len(neighbors) >= 2 {
			anchors = append(anchors, anchor{cui: cui, neighbors: neighbors})
		}
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		return len(anchors[i].neighbors) > len(anchors[j].neighbors)
	})
	if len(anchors) > maxFallbackClusters {
		anchors = anchors[:maxFallbackClusters]
	}

	var result []medical.Community
	for _, a := range anchors {
		community, err := c.buildCommunity(ctx, append([]string{a.cui}, a.neighbors...))
		if err != nil {
			return nil, err
		}
		result = append(result, community)
	}
	return result, nil
}

// buildCommunity computes dominant kind and cohesion for a member list.
// Dominant-kind ties break toward the first-seen kind.
func (c *Communities) buildCommunity(ctx context.Context, members []string) (medical.Community, error) {
	counts := make(map[medical.ConceptKind]int)
	var kindOrder []medical.ConceptKind
	for _, cui := range members {
		kind, err := c.store.ConceptKind(ctx, cui)
		if err != nil {
			return medical.Community{}, fmt.Errorf("community member kind: %w", err)
		}
		if kind == "" {
			continue
		}
		if counts[kind] == 0 {
			kindOrder = append(kindOrder, kind)
		}
		counts[kind]++
	}

	var dominant medical.ConceptKind
	best := 0
	for _, kind := range kindOrder {
		if counts[kind] > best {
			best = counts[kind]
			dominant = kind
		}
	}

	size := len(members)
	cohesion := float64(size) / 10
	if cohesion > 1 {
		cohesion = 1
	}
	if len(kindOrder) > 1 {
		cohesion += 0.2
	}
	if cohesion > 1 {
		cohesion = 1
	}

	copied := make([]string, size)
	copy(copied, members)
	return medical.Community{
		ID:            uuid.NewString(),
		Members:       copied,
		Size:          size,
		DominantKind:  dominant,
		CohesionScore: cohesion,
	}, nil
}
