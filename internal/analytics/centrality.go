package analytics

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

const maxFallbackHubs = 5

// Hubs surfaces structurally influential concepts within a patient-specific
// induced subgraph. Primary strategy is weighted betweenness centrality on
// the store's algorithm engine; fallback is in-set degree counting.
type Hubs struct {
	store graph.Store
	algo  graph.Algorithms
	log   *logger.Logger
}

func NewHubs(store graph.Store, algo graph.Algorithms, baseLog *logger.Logger) *Hubs {
	return &Hubs{
		store: store,
		algo:  algo,
		log:   baseLog.With("engine", "HubDiscovery"),
	}
}

// Find returns hubs ranked by descending centrality score.
func (h *Hubs) Find(ctx context.Context, conceptCUIs []string) ([]medical.Hub, error) {
	if len(conceptCUIs) == 0 {
		return nil, nil
	}

	var primary func() ([]medical.Hub, error)
	if h.algo != nil {
		primary = func() ([]medical.Hub, error) { return h.findBetweenness(ctx, conceptCUIs) }
	}
	return withFallback(h.log, "betweenness", primary, func() ([]medical.Hub, error) {
		return h.findByDegree(ctx, conceptCUIs)
	})
}

func (h *Hubs) findBetweenness(ctx context.Context, cuis []string) ([]medical.Hub, error) {
	name := "patient_hub_" + uuid.NewString()
	if err := h.algo.ProjectSubgraph(ctx, name, cuis); err != nil {
		return nil, err
	}
	defer func() {
		if err := h.algo.DropProjection(ctx, name); err != nil {
			h.log.Warn("projection teardown failed", "projection", name, "error", err)
		}
	}()

	scores, err := h.algo.Betweenness(ctx, name)
	if err != nil {
		return nil, err
	}

	hubs := make([]medical.Hub, 0, len(scores))
	for cui, score := range scores {
		if score <= 0 {
			continue
		}
		hubs = append(hubs, medical.Hub{
			CUI:            cui,
			Score:          score,
			InfluenceLevel: medical.InfluenceLevel(score),
		})
	}
	sortHubs(hubs)
	return hubs, nil
}

// findByDegree scores each concept by its count of distinct in-set
// neighbors, keeping concepts with more than one and capping to the top 5.
func (h *Hubs) findByDegree(ctx context.Context, cuis []string) ([]medical.Hub, error) {
	inSet := make(map[string]struct{}, len(cuis))
	for _, cui := range cuis {
		inSet[cui] = struct{}{}
	}

	var hubs []medical.Hub
	for _, cui := range cuis {
		edges, err := h.store.Neighbors(ctx, cui, graph.Both, nil)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, e := range edges {
			other := e.ToCUI
			if other == cui {
				other = e.FromCUI
			}
			if other == cui {
				continue
			}
			if _, ok := inSet[other]; ok {
				seen[other] = struct{}{}
			}
		}
		if len(seen) > 1 {
			score := float64(len(seen))
			hubs = append(hubs, medical.Hub{
				CUI:            cui,
				Score:          score,
				InfluenceLevel: medical.InfluenceLevel(score),
			})
		}
	}

	sortHubs(hubs)
	if len(hubs) > maxFallbackHubs {
		hubs = hubs[:maxFallbackHubs]
	}
	return hubs, nil
}

func sortHubs(hubs []medical.Hub) {
	sort.SliceStable(hubs, func(i, j int) bool {
		if hubs[i].Score != hubs[j].Score {
			return hubs[i].Score > hubs[j].Score
		}
		return hubs[i].CUI < hubs[j].CUI
	})
}
