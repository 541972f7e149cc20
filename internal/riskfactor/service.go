package riskfactor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

const (
	maxEdgeWeight = 0.99

	userEdgeRetries = 3
	userEdgeBackoff = 500 * time.Millisecond
)

// Service maintains risk-factor nodes and their weighted edges in the graph.
type Service struct {
	store graph.Store
	cfg   Config
	log   *logger.Logger

	retries int
	backoff time.Duration
}

func NewService(store graph.Store, cfg Config, baseLog *logger.Logger) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		log:     baseLog.With("service", "RiskFactor"),
		retries: userEdgeRetries,
		backoff: userEdgeBackoff,
	}
}

// UpsertRiskFactor refreshes the global INCREASES_RISK_OF edges for one
// risk-factor type at the given value. Out-of-range values are logged and
// ignored rather than failed: a bad vitals reading must not break profile
// updates.
func (s *Service) UpsertRiskFactor(ctx context.Context, rfType string, value float64) error {
	tc, ok := s.cfg[rfType]
	if !ok {
		s.log.Warn("unknown risk factor type, skipping", "rf_type", rfType)
		return nil
	}
	if value < tc.Min || value > tc.Max {
		s.log.Warn("risk factor value out of configured range, skipping",
			"rf_type", rfType, "value", value, "min", tc.Min, "max", tc.Max)
		return nil
	}

	thresholdWeight := tc.ThresholdWeight(value)
	for _, diseaseCUI := range tc.SortedDiseases() {
		weight := tc.Diseases[diseaseCUI] * thresholdWeight
		if weight > maxEdgeWeight {
			weight = maxEdgeWeight
		}
		if err := s.store.UpsertRiskFactorEdge(ctx, rfType, value, diseaseCUI, weight); err != nil {
			return fmt.Errorf("risk factor %s: %w", rfType, err)
		}
	}
	return nil
}

// CreateUserRiskFactorRelationships replaces a user's personal
// HAS_RISK_FACTOR edges so exactly one current value exists per (user, type).
// Each type is retried independently with backoff; exhausted retries are
// logged and skipped, never fatal.
func (s *Service) CreateUserRiskFactorRelationships(ctx context.Context, userID string, values map[string]float64) {
	for _, rfType := range sortedKeys(values) {
		value := values[rfType]
		tc, ok := s.cfg[rfType]
		if !ok {
			s.log.Warn("unknown risk factor type, skipping", "rf_type", rfType, "user_id", userID)
			continue
		}
		if value < tc.Min || value > tc.Max {
			s.log.Warn("user risk factor value out of range, skipping",
				"rf_type", rfType, "value", value, "user_id", userID)
			continue
		}

		if err := s.replaceUserEdge(ctx, userID, rfType, value); err != nil {
			s.log.Error("user risk factor update failed after retries",
				"rf_type", rfType, "user_id", userID, "error", err)
		}
	}
}

// replaceUserEdge deletes then recreates the personal edge, retrying the
// whole replace on failure.
func (s *Service) replaceUserEdge(ctx context.Context, userID, rfType string, value float64) error {
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff):
			}
		}
		if err := s.store.DeleteUserRiskFactor(ctx, userID, rfType); err != nil {
			lastErr = err
			continue
		}
		if err := s.store.CreateUserRiskFactor(ctx, userID, rfType, value); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// sortedKeys keeps update order deterministic for logs and retries.
func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
