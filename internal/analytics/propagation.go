package analytics

import (
	"context"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

const (
	// maxPropagationDepth bounds risk traversal hops.
	maxPropagationDepth = 4
	// minPropagatedRisk prunes paths whose remaining risk cannot matter.
	minPropagatedRisk = 0.05

	defaultDecayFactor = 0.85
)

// riskKinds mirrors RelationshipKind.RiskPropagating.
var riskKinds = []medical.RelationshipKind{
	medical.RelRiskFactorFor,
	medical.RelIncreasesRiskOf,
	medical.RelCausesSideEffect,
	medical.RelAggravates,
	medical.RelComplicationOf,
	medical.RelHasSymptom,
	medical.RelPrecedes,
}

// Propagator spreads risk from weighted sources toward symptom targets with
// multiplicative per-hop decay.
type Propagator struct {
	store graph.Store
	log   *logger.Logger
}

func NewPropagator(store graph.Store, baseLog *logger.Logger) *Propagator {
	return &Propagator{
		store: store,
		log:   baseLog.With("engine", "RiskPropagator"),
	}
}

// Propagate walks risk-relevant edges from each source up to four hops. Risk
// at hop L is initial x product(edge weights) x decay^L. Every surviving
// path into the same target adds to that target's total: more routes to harm
// mean higher concern, so accumulation sums rather than taking the maximum.
func (p *Propagator) Propagate(ctx context.Context, sources []medical.RiskSource, targetCUIs []string, decayFactor float64) (*medical.PropagationResult, error) {
	result := &medical.PropagationResult{TargetRisk: make(map[string]float64)}
	if len(sources) == 0 || len(targetCUIs) == 0 {
		return result, nil
	}
	if decayFactor <= 0 || decayFactor > 1 {
		decayFactor = defaultDecayFactor
	}

	targets := make(map[string]struct{}, len(targetCUIs))
	for _, t := range targetCUIs {
		targets[t] = struct{}{}
	}

	for _, src := range sources {
		if src.CUI == "" {
			continue
		}
		walk := &riskWalk{
			p:       p,
			targets: targets,
			decay:   decayFactor,
			source:  src.CUI,
			onPath:  map[string]struct{}{src.CUI: {}},
			result:  result,
		}
		if err := walk.spread(ctx, src.CUI, src.InitialRisk(), nil, maxPropagationDepth); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type riskWalk struct {
	p       *Propagator
	targets map[string]struct{}
	decay   float64
	source  string
	onPath  map[string]struct{}
	result  *medical.PropagationResult
}

// spread carries the running risk product (already decayed for the hops
// taken so far) into each neighbor.
func (w *riskWalk) spread(ctx context.Context, cui string, risk float64, steps []medical.PathStep, remaining int) error {
	if remaining <= 0 {
		return nil
	}

	edges, err := w.p.store.Neighbors(ctx, cui, graph.Outgoing, riskKinds)
	if err != nil {
		return err
	}

	for _, e := range edges {
		next := e.ToCUI
		if _, seen := w.onPath[next]; seen {
			continue
		}

		hopRisk := risk * e.Weight * w.decay
		if hopRisk < minPropagatedRisk {
			continue
		}

		step := medical.PathStep{FromCUI: e.FromCUI, ToCUI: next, Kind: e.Kind, Weight: e.Weight}
		path := append(steps, step)

		if _, isTarget := w.targets[next]; isTarget {
			copied := make([]medical.PathStep, len(path))
			copy(copied, path)
			w.result.TargetRisk[next] += hopRisk
			w.result.Paths = append(w.result.Paths, medical.PropagationPath{
				SourceCUI: w.source,
				TargetCUI: next,
				Steps:     copied,
				Risk:      hopRisk,
			})
		}

		w.onPath[next] = struct{}{}
		err := w.spread(ctx, next, hopRisk, path, remaining-1)
		delete(w.onPath, next)
		if err != nil {
			return err
		}
	}
	return nil
}
