package riskupdate

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/riskfactor"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func TestHandler_AppliesGlobalAndPersonalEdges(t *testing.T) {
	ctx := context.Background()
	store := graph.NewMemStore()
	tc := riskfactor.DefaultConfig()[riskfactor.TypeBMI]
	concepts := make([]medical.Concept, 0, len(tc.Diseases))
	for _, cui := range tc.SortedDiseases() {
		concepts = append(concepts, medical.Concept{CUI: cui, Name: cui, Kind: medical.KindDisease})
	}
	if err := store.UpsertConcepts(ctx, concepts); err != nil {
		t.Fatalf("seed concepts: %v", err)
	}

	svc := riskfactor.NewService(store, riskfactor.DefaultConfig(), testLogger())
	h := NewHandler(svc, testLogger())

	job := NewJob("user-1", map[string]float64{riskfactor.TypeBMI: 31})
	if err := h.Run(ctx, job); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, cui := range tc.SortedDiseases() {
		if _, ok := store.RiskFactorEdgeWeight(riskfactor.TypeBMI, cui); !ok {
			t.Fatalf("missing global edge for %s", cui)
		}
	}
	if v, ok := store.UserRiskFactor("user-1", riskfactor.TypeBMI); !ok || v != 31 {
		t.Fatalf("personal value = %v ok=%v, want 31", v, ok)
	}
}

func TestHandler_RejectsMissingUser(t *testing.T) {
	svc := riskfactor.NewService(graph.NewMemStore(), riskfactor.DefaultConfig(), testLogger())
	h := NewHandler(svc, testLogger())
	if err := h.Run(context.Background(), NewJob("", nil)); err == nil {
		t.Fatalf("expected error for missing user_id")
	}
}

func TestHandler_SkipsUnparseableValues(t *testing.T) {
	svc := riskfactor.NewService(graph.NewMemStore(), riskfactor.DefaultConfig(), testLogger())
	h := NewHandler(svc, testLogger())

	job := NewJob("user-1", nil)
	job.Payload[valueKeyPrefix+riskfactor.TypeBMI] = "not-a-number"
	if err := h.Run(context.Background(), job); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
