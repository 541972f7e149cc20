package analytics

import (
	"context"
	"testing"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
)

// riskGraph builds a disease with a direct risk edge to a symptom plus an
// indirect route through a complication.
func riskGraph(t *testing.T) *graph.MemStore {
	t.Helper()
	ctx := context.Background()
	store := graph.NewMemStore()
	err := store.UpsertConcepts(ctx, []medical.Concept{
		{CUI: "DIS1", Name: "Chronic Kidney Disease", Kind: medical.KindDisease},
		{CUI: "DIS2", Name: "Anemia", Kind: medical.KindDisease},
		{CUI: "SYM1", Name: "Fatigue", Kind: medical.KindSymptom},
	})
	if err != nil {
		t.Fatalf("seed concepts: %v", err)
	}
	res, err := store.CreateRelationships(ctx, []medical.Relationship{
		{SourceCUI: "DIS1", TargetCUI: "SYM1", Kind: medical.RelIncreasesRiskOf, Weight: 0.8},
		{SourceCUI: "DIS1", TargetCUI: "DIS2", Kind: medical.RelCausesSideEffect, Weight: 0.75},
		{SourceCUI: "DIS2", TargetCUI: "SYM1", Kind: medical.RelHasSymptom, Weight: 0.8},
	})
	if err != nil || len(res.Failed) > 0 {
		t.Fatalf("seed edges: %v / %+v", err, res.Failed)
	}
	return store
}

func TestPropagate_SumsRiskAcrossRoutes(t *testing.T) {
	p := NewPropagator(riskGraph(t), testLogger())
	sources := []medical.RiskSource{
		{CUI: "DIS1", Kind: medical.KindDisease, Severity: medical.SeveritySevere},
	}
	result, err := p.Propagate(context.Background(), sources, []string{"SYM1"}, 0.85)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	// Direct route: 0.9 * 0.8 * 0.85 = 0.612.
	// Via the complication: 0.9 * 0.75 * 0.85 * 0.8 * 0.85 = 0.39015.
	// Both routes count, so the target accumulates their sum.
	approx(t, result.TargetRisk["SYM1"], 0.612+0.39015, "accumulated target risk")
	if len(result.Paths) != 2 {
		t.Fatalf("path count = %d, want 2", len(result.Paths))
	}
}

func TestPropagate_IndependentSourcesAccumulate(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	err := store.UpsertConcepts(ctx, []medical.Concept{
		{CUI: "DIS_A", Name: "A", Kind: medical.KindDisease},
		{CUI: "DIS_B", Name: "B", Kind: medical.KindDisease},
		{CUI: "SYM1", Name: "S", Kind: medical.KindSymptom},
	})
	if err != nil {
		t.Fatalf("seed concepts: %v", err)
	}
	if _, err := store.CreateRelationships(ctx, []medical.Relationship{
		{SourceCUI: "DIS_A", TargetCUI: "SYM1", Kind: medical.RelHasSymptom, Weight: 0.8},
		{SourceCUI: "DIS_B", TargetCUI: "SYM1", Kind: medical.RelHasSymptom, Weight: 0.6},
	}); err != nil {
		t.Fatalf("seed edges: %v", err)
	}

	p := NewPropagator(store, testLogger())
	result, err := p.Propagate(ctx, []medical.RiskSource{
		{CUI: "DIS_A", Kind: medical.KindDisease, Severity: medical.SeveritySevere},
		{CUI: "DIS_B", Kind: medical.KindDisease, Severity: medical.SeverityMild},
	}, []string{"SYM1"}, 0.85)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(result.Paths) != 2 {
		t.Fatalf("path count = %d, want one per source", len(result.Paths))
	}
	// The target's total is the sum of every path's final risk, never the max.
	sum := 0.0
	for _, path := range result.Paths {
		sum += path.Risk
	}
	approx(t, result.TargetRisk["SYM1"], sum, "sum of path risks")
	if max := maxPathRiskOf(result.Paths); result.TargetRisk["SYM1"] <= max {
		t.Fatalf("accumulated risk %v not above best single path %v", result.TargetRisk["SYM1"], max)
	}
}

func maxPathRiskOf(paths []medical.PropagationPath) float64 {
	best := 0.0
	for _, p := range paths {
		if p.Risk > best {
			best = p.Risk
		}
	}
	return best
}

func TestPropagate_SeverityChangesSeedRisk(t *testing.T) {
	p := NewPropagator(riskGraph(t), testLogger())
	mild, err := p.Propagate(context.Background(), []medical.RiskSource{
		{CUI: "DIS1", Kind: medical.KindDisease, Severity: medical.SeverityMild},
	}, []string{"SYM1"}, 0.85)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	// Mild seeds at 0.3 instead of 0.9, scaling every route by a third:
	// 0.3*0.8*0.85 + 0.3*0.75*0.85*0.8*0.85 = 0.204 + 0.13005.
	approx(t, mild.TargetRisk["SYM1"], 0.204+0.13005, "mild target risk")
	if len(mild.Paths) != 2 {
		t.Fatalf("mild path count = %d, want 2", len(mild.Paths))
	}
}

func TestPropagate_PrunesBelowMinimumRisk(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	err := store.UpsertConcepts(ctx, []medical.Concept{
		{CUI: "DIS1", Name: "A", Kind: medical.KindDisease},
		{CUI: "SYM1", Name: "B", Kind: medical.KindSymptom},
	})
	if err != nil {
		t.Fatalf("seed concepts: %v", err)
	}
	if _, err := store.CreateRelationships(ctx, []medical.Relationship{
		{SourceCUI: "DIS1", TargetCUI: "SYM1", Kind: medical.RelIncreasesRiskOf, Weight: 0.1},
	}); err != nil {
		t.Fatalf("seed edges: %v", err)
	}

	p := NewPropagator(store, testLogger())
	result, err := p.Propagate(ctx, []medical.RiskSource{
		{CUI: "DIS1", Kind: medical.KindDisease, Severity: medical.SeverityMild},
	}, []string{"SYM1"}, 0.85)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(result.TargetRisk) != 0 || len(result.Paths) != 0 {
		t.Fatalf("sub-threshold risk survived: %+v", result)
	}
}

func TestPropagate_InvalidDecayFallsBackToDefault(t *testing.T) {
	p := NewPropagator(riskGraph(t), testLogger())
	sources := []medical.RiskSource{
		{CUI: "DIS1", Kind: medical.KindDisease, Severity: medical.SeveritySevere},
	}
	bad, err := p.Propagate(context.Background(), sources, []string{"SYM1"}, 0)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	good, err := p.Propagate(context.Background(), sources, []string{"SYM1"}, 0.85)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	approx(t, bad.TargetRisk["SYM1"], good.TargetRisk["SYM1"], "default decay result")
}

func TestPropagate_EmptyInputs(t *testing.T) {
	p := NewPropagator(graph.NewMemStore(), testLogger())
	result, err := p.Propagate(context.Background(), nil, []string{"X"}, 0.85)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if len(result.TargetRisk) != 0 || result.Paths != nil {
		t.Fatalf("empty sources produced %+v", result)
	}
}
