// Package analytics runs read-only graph analysis over patient-specific
// concept sets: pathway discovery, risk propagation, community detection and
// hub discovery. Every traversal is bounded by depth, result count or
// expansion count; there is no cancellation API beyond those caps and the
// caller's context.
package analytics

import (
	"context"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

// ProbeAlgorithms returns the store's aggregate-algorithm capability when it
// exists and answers, nil otherwise. Engines decide primary vs fallback here
// once, instead of catching errors per call.
func ProbeAlgorithms(ctx context.Context, store graph.Store, log *logger.Logger) graph.Algorithms {
	algo, ok := store.(graph.Algorithms)
	if !ok {
		log.Info("graph store has no algorithm engine, using fallback strategies")
		return nil
	}
	if err := algo.Probe(ctx); err != nil {
		log.Warn("graph algorithm engine unavailable, using fallback strategies", "error", err)
		return nil
	}
	return algo
}

// withFallback runs primary when present, falling back when it is absent,
// errors, or yields nothing.
func withFallback[T any](log *logger.Logger, name string, primary func() ([]T, error), fallback func() ([]T, error)) ([]T, error) {
	if primary != nil {
		out, err := primary()
		if err == nil && len(out) > 0 {
			return out, nil
		}
		if err != nil {
			log.Warn("primary strategy failed, falling back", "strategy", name, "error", err)
		}
	}
	return fallback()
}
