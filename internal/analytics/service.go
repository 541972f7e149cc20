package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	redisclient "github.com/yungbote/medgraph-backend/internal/clients/redis"
	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

// Service bundles the four analytics engines behind one facade and layers
// the optional response cache over the expensive traversal calls.
type Service struct {
	pathfinder  *Pathfinder
	propagator  *Propagator
	communities *Communities
	hubs        *Hubs
	cache       redisclient.AnalyticsCache
	log         *logger.Logger
}

// NewService probes the store's algorithm capability once and wires the
// engines accordingly. cache may be nil.
func NewService(ctx context.Context, store graph.Store, cache redisclient.AnalyticsCache, baseLog *logger.Logger) *Service {
	log := baseLog.With("service", "GraphAnalytics")
	algo := ProbeAlgorithms(ctx, store, log)
	return &Service{
		pathfinder:  NewPathfinder(store, baseLog),
		propagator:  NewPropagator(store, baseLog),
		communities: NewCommunities(store, algo, baseLog),
		hubs:        NewHubs(store, algo, baseLog),
		cache:       cache,
		log:         log,
	}
}

func (s *Service) FindPathways(ctx context.Context, sourceCUI string, targetCUIs []string, maxDepth int) ([]medical.Pathway, error) {
	key := requestDigest("pathways", sourceCUI, strings.Join(targetCUIs, ","), fmt.Sprint(maxDepth))
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached []medical.Pathway
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err := s.pathfinder.FindPathways(ctx, sourceCUI, targetCUIs, maxDepth)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, result)
	return result, nil
}

func (s *Service) Propagate(ctx context.Context, sources []medical.RiskSource, targetCUIs []string, decayFactor float64) (*medical.PropagationResult, error) {
	srcKey, _ := json.Marshal(sources)
	key := requestDigest("propagate", string(srcKey), strings.Join(targetCUIs, ","), fmt.Sprint(decayFactor))
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, key); ok {
			var cached medical.PropagationResult
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	result, err := s.propagator.Propagate(ctx, sources, targetCUIs, decayFactor)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, result)
	return result, nil
}

func (s *Service) DetectCommunities(ctx context.Context, conceptCUIs []string) ([]medical.Community, error) {
	return s.communities.Detect(ctx, conceptCUIs)
}

func (s *Service) FindHubs(ctx context.Context, conceptCUIs []string) ([]medical.Hub, error) {
	return s.hubs.Find(ctx, conceptCUIs)
}

func (s *Service) cachePut(ctx context.Context, key string, val any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, raw)
}

func requestDigest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
