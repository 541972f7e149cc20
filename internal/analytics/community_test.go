package analytics

import (
	"context"
	"testing"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
)

// clusterGraph is a connected triangle of two diseases and a symptom. The
// in-memory store carries no algorithm engine, so detection lands on the
// neighbor-counting fallback.
func clusterGraph(t *testing.T) *graph.MemStore {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemStore()
	err := store.UpsertConcepts(ctx, []medical.Concept{
		{CUI: "DIS1", Name: "Hypertension", Kind: medical.KindDisease},
		{CUI: "DIS2", Name: "Heart Failure", Kind: medical.KindDisease},
		{CUI: "SYM1", Name: "Dyspnea", Kind: medical.KindSymptom},
	})
	if err != nil {
		t.Fatalf("seed concepts: %v", err)
	}
	res, err := store.CreateRelationships(ctx, []medical.Relationship{
		{SourceCUI: "DIS1", TargetCUI: "DIS2", Kind: medical.RelIncreasesRiskOf, Weight: 0.8},
		{SourceCUI: "DIS2", TargetCUI: "SYM1", Kind: medical.RelHasSymptom, Weight: 0.8},
		{SourceCUI: "DIS1", TargetCUI: "SYM1", Kind: medical.RelHasSymptom, Weight: 0.7},
	})
	if err != nil || len(res.Failed) > 0 {
		t.Fatalf("seed edges: %v / %+v", err, res.Failed)
	}
	return store
}

func TestDetect_NeighborFallbackFindsConnectedCluster(t *testing.T) {
	c := NewCommunities(clusterGraph(t), nil, testLogger())
	communities, err := c.Detect(context.Background(), []string{"DIS1", "DIS2", "SYM1"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(communities) == 0 {
		t.Fatalf("expected at least one community")
	}

	first := communities[0]
	if first.Size != 3 || len(first.Members) != 3 {
		t.Fatalf("community = %+v, want all three members", first)
	}
	if first.DominantKind != medical.KindDisease {
		t.Fatalf("dominant kind = %q, want Disease", first.DominantKind)
	}
	// Size 3 of 10 plus the mixed-kind bonus.
	approx(t, first.CohesionScore, 0.5, "cohesion")
	if first.ID == "" {
		t.Fatalf("community missing id")
	}
}

func TestDetect_DisconnectedSetSynthesizesWholeCommunity(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	err := store.UpsertConcepts(ctx, []medical.Concept{
		{CUI: "DIS1", Name: "A", Kind: medical.KindDisease},
		{CUI: "SYM1", Name: "B", Kind: medical.KindSymptom},
	})
	if err != nil {
		t.Fatalf("seed concepts: %v", err)
	}

	c := NewCommunities(store, nil, testLogger())
	communities, err := c.Detect(ctx, []string{"DIS1", "SYM1"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(communities) != 1 {
		t.Fatalf("community count = %d, want one synthesized community", len(communities))
	}
	if communities[0].Size != 2 {
		t.Fatalf("synthesized size = %d, want 2", communities[0].Size)
	}
	approx(t, communities[0].CohesionScore, synthCohesion, "synthesized cohesion")
}

func TestDetect_SingleConceptYieldsNothing(t *testing.T) {
	store := graph.NewMemStore()
	if err := store.UpsertConcepts(context.Background(), []medical.Concept{
		{CUI: "DIS1", Name: "A", Kind: medical.KindDisease},
	}); err != nil {
		t.Fatalf("seed concepts: %v", err)
	}

	c := NewCommunities(store, nil, testLogger())
	communities, err := c.Detect(context.Background(), []string{"DIS1"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(communities) != 0 {
		t.Fatalf("single concept produced communities: %+v", communities)
	}
}

func TestDetect_EmptyInput(t *testing.T) {
	c := NewCommunities(graph.NewMemStore(), nil, testLogger())
	communities, err := c.Detect(context.Background(), nil)
	if err != nil || communities != nil {
		t.Fatalf("Detect(nil) = %v, %v", communities, err)
	}
}

func TestBuildCommunity_CohesionCapsAtOne(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	members := make([]string, 0, 12)
	concepts := make([]medical.Concept, 0, 12)
	for _, cui := range []string{"C01", "C02", "C03", "C04", "C05", "C06", "C07", "C08", "C09", "C10", "C11", "C12"} {
		members = append(members, cui)
		concepts = append(concepts, medical.Concept{CUI: cui, Name: cui, Kind: medical.KindDisease})
	}
	if err := store.UpsertConcepts(ctx, concepts); err != nil {
		t.Fatalf("seed concepts: %v", err)
	}

	c := NewCommunities(store, nil, testLogger())
	community, err := c.buildCommunity(ctx, members)
	if err != nil {
		t.Fatalf("buildCommunity: %v", err)
	}
	approx(t, community.CohesionScore, 1, "capped cohesion")
	if community.DominantKind != medical.KindDisease {
		t.Fatalf("dominant kind = %q", community.DominantKind)
	}
}
