package analytics

import (
	"context"
	"sort"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

const (
	// minPathRisk discards pathways too weak to explain anything.
	minPathRisk = 0.1
	// maxPathwaysPerTarget bounds output size per target concept.
	maxPathwaysPerTarget = 10
	// defaultMaxExpansions bounds total node expansions per call so highly
	// connected concepts cannot blow up traversal cost.
	defaultMaxExpansions = 10000

	confidenceDecay = 0.9
)

// pathDecay is the per-length risk decay, precomputed so traversal never
// calls a power function and large fan-outs stay deterministic. Lengths of 5
// or more share the floor value.
var pathDecay = []float64{1, 0.85, 0.7225, 0.614125, 0.52200625, 0.4437053125}

func decayFor(length int) float64 {
	if length >= len(pathDecay) {
		return pathDecay[len(pathDecay)-1]
	}
	return pathDecay[length]
}

// Pathfinder discovers bounded-depth causal/therapeutic chains between a
// source concept and a set of target concepts.
type Pathfinder struct {
	store         graph.Store
	log           *logger.Logger
	maxExpansions int
}

func NewPathfinder(store graph.Store, baseLog *logger.Logger) *Pathfinder {
	return &Pathfinder{
		store:         store,
		log:           baseLog.With("engine", "Pathfinder"),
		maxExpansions: defaultMaxExpansions,
	}
}

// pathwayKinds is the clinically meaningful edge allowlist for traversal,
// mirroring RelationshipKind.PathwayRelevant.
var pathwayKinds = []medical.RelationshipKind{
	medical.RelTreats,
	medical.RelCausesSideEffect,
	medical.RelIndicates,
	medical.RelHasSymptom,
	medical.RelRiskFactorFor,
	medical.RelIncreasesRiskOf,
	medical.RelAggravates,
}

// FindPathways returns pathways from sourceCUI to any of targetCUIs within
// maxDepth edges, ranked by descending risk then ascending length. Results
// under the minimum risk threshold are dropped; each target keeps at most
// ten pathways. Store failures propagate as a single error for the call.
func (p *Pathfinder) FindPathways(ctx context.Context, sourceCUI string, targetCUIs []string, maxDepth int) ([]medical.Pathway, error) {
	if sourceCUI == "" || len(targetCUIs) == 0 || maxDepth <= 0 {
		return nil, nil
	}

	targets := make(map[string]struct{}, len(targetCUIs))
	for _, t := range targetCUIs {
		targets[t] = struct{}{}
	}

	walk := &pathwayWalk{
		pf:      p,
		targets: targets,
		onPath:  map[string]struct{}{sourceCUI: {}},
		budget:  p.maxExpansions,
	}
	if err := walk.expand(ctx, sourceCUI, nil, maxDepth); err != nil {
		return nil, err
	}

	sort.SliceStable(walk.found, func(i, j int) bool {
		if walk.found[i].RiskScore != walk.found[j].RiskScore {
			return walk.found[i].RiskScore > walk.found[j].RiskScore
		}
		return walk.found[i].Length < walk.found[j].Length
	})

	perTarget := make(map[string]int, len(targets))
	result := make([]medical.Pathway, 0, len(walk.found))
	for _, pw := range walk.found {
		if perTarget[pw.TargetCUI] >= maxPathwaysPerTarget {
			continue
		}
		perTarget[pw.TargetCUI]++
		result = append(result, pw)
	}

	if walk.budget <= 0 {
		p.log.Warn("pathway traversal hit expansion cap",
			"source_cui", sourceCUI, "cap", p.maxExpansions)
	}
	return result, nil
}

type pathwayWalk struct {
	pf      *Pathfinder
	targets map[string]struct{}
	onPath  map[string]struct{}
	found   []medical.Pathway
	budget  int
}

func (w *pathwayWalk) expand(ctx context.Context, cui string, steps []medical.PathStep, remaining int) error {
	if remaining <= 0 || w.budget <= 0 {
		return nil
	}
	w.budget--

	edges, err := w.pf.store.Neighbors(ctx, cui, graph.Outgoing, pathwayKinds)
	if err != nil {
		return err
	}

	for _, e := range edges {
		next := e.ToCUI
		if _, seen := w.onPath[next]; seen {
			continue
		}
		if e.NeighborKind != "" && !medical.PathwayNodeKind(e.NeighborKind) {
			continue
		}

		step := medical.PathStep{FromCUI: e.FromCUI, ToCUI: next, Kind: e.Kind, Weight: e.Weight}
		path := append(steps, step)

		if _, isTarget := w.targets[next]; isTarget {
			w.record(path, next)
		}

		w.onPath[next] = struct{}{}
		err := w.expand(ctx, next, path, remaining-1)
		delete(w.onPath, next)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *pathwayWalk) record(steps []medical.PathStep, target string) {
	length := len(steps)
	sum := 0.0
	for _, s := range steps {
		sum += s.Weight
	}
	risk := (sum / float64(length)) * decayFor(length)
	if risk < minPathRisk {
		return
	}

	confidence := risk
	for i := 1; i < length; i++ {
		confidence *= confidenceDecay
	}

	copied := make([]medical.PathStep, length)
	copy(copied, steps)
	w.found = append(w.found, medical.Pathway{
		SourceCUI:  copied[0].FromCUI,
		TargetCUI:  target,
		Steps:      copied,
		Length:     length,
		RiskScore:  risk,
		Confidence: confidence,
	})
}
