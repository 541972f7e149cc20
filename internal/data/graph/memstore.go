package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/medgraph-backend/internal/domain/medical"
)

// MemStore is an in-memory adjacency-map implementation of Store. It backs
// tests and small single-process deployments. It deliberately does not
// implement Algorithms, so analytics engines exercise their fallback
// strategies against it.
type MemStore struct {
	mu       sync.RWMutex
	concepts map[string]medical.Concept
	out      map[string][]medical.Relationship
	in       map[string][]medical.Relationship
	keys     map[medical.RelationshipKey]struct{}

	// rfEdges holds global risk-factor edges keyed by (type, disease).
	rfEdges map[string]float64
	// userRF holds personal HAS_RISK_FACTOR values keyed by user then type.
	userRF map[string]map[string]float64
}

func NewMemStore() *MemStore {
	return &MemStore{
		concepts: make(map[string]medical.Concept),
		out:      make(map[string][]medical.Relationship),
		in:       make(map[string][]medical.Relationship),
		keys:     make(map[medical.RelationshipKey]struct{}),
		rfEdges:  make(map[string]float64),
		userRF:   make(map[string]map[string]float64),
	}
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) LoadConceptCUIs(ctx context.Context, kind medical.ConceptKind) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]struct{})
	for cui, c := range s.concepts {
		if c.Kind == kind {
			set[cui] = struct{}{}
		}
	}
	return set, nil
}

func (s *MemStore) LoadRelationshipKeys(ctx context.Context, max int) (map[medical.RelationshipKey]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[medical.RelationshipKey]struct{}, len(s.keys))
	for k := range s.keys {
		if max > 0 && len(set) >= max {
			break
		}
		set[k] = struct{}{}
	}
	return set, nil
}

func (s *MemStore) UpsertConcepts(ctx context.Context, concepts []medical.Concept) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, c := range concepts {
		if c.CUI == "" {
			continue
		}
		existing, ok := s.concepts[c.CUI]
		if ok {
			// Name-only refresh on re-ingestion; kind is sticky.
			existing.Name = c.Name
			existing.UpdatedAt = now
			s.concepts[c.CUI] = existing
			continue
		}
		c.UpdatedAt = now
		s.concepts[c.CUI] = c
	}
	return nil
}

func (s *MemStore) CreateRelationships(ctx context.Context, edges []medical.Relationship) (BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res BatchResult
	for _, e := range edges {
		if err := s.checkEdgeLocked(e); err != nil {
			res.Failed = append(res.Failed, EdgeFailure{Edge: e, Err: err})
			continue
		}
		s.keys[e.Key()] = struct{}{}
		s.out[e.SourceCUI] = append(s.out[e.SourceCUI], e)
		s.in[e.TargetCUI] = append(s.in[e.TargetCUI], e)
		res.Created++
	}
	return res, nil
}

func (s *MemStore) checkEdgeLocked(e medical.Relationship) error {
	if e.SourceCUI == e.TargetCUI {
		return ErrSelfLoop
	}
	if _, ok := s.concepts[e.SourceCUI]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, e.SourceCUI)
	}
	if _, ok := s.concepts[e.TargetCUI]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, e.TargetCUI)
	}
	if _, ok := s.keys[e.Key()]; ok {
		return ErrDuplicateRelationship
	}
	return nil
}

func (s *MemStore) ConceptKind(ctx context.Context, cui string) (medical.ConceptKind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.concepts[cui]
	if !ok {
		return "", nil
	}
	return c.Kind, nil
}

func (s *MemStore) Neighbors(ctx context.Context, cui string, dir Direction, kinds []medical.RelationshipKind) ([]NeighborEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed := make(map[medical.RelationshipKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	match := func(k medical.RelationshipKind) bool {
		if len(allowed) == 0 {
			return true
		}
		_, ok := allowed[k]
		return ok
	}

	var result []NeighborEdge
	if dir == Outgoing || dir == Both {
		for _, e := range s.out[cui] {
			if !match(e.Kind) {
				continue
			}
			result = append(result, NeighborEdge{
				FromCUI:      e.SourceCUI,
				ToCUI:        e.TargetCUI,
				Kind:         e.Kind,
				Weight:       e.Weight,
				NeighborKind: s.concepts[e.TargetCUI].Kind,
			})
		}
	}
	if dir == Incoming || dir == Both {
		for _, e := range s.in[cui] {
			if !match(e.Kind) {
				continue
			}
			result = append(result, NeighborEdge{
				FromCUI:      e.SourceCUI,
				ToCUI:        e.TargetCUI,
				Kind:         e.Kind,
				Weight:       e.Weight,
				NeighborKind: s.concepts[e.SourceCUI].Kind,
			})
		}
	}
	return result, nil
}

func (s *MemStore) HasAnyRelationships(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys) > 0, nil
}

func (s *MemStore) UpsertRiskFactorEdge(ctx context.Context, rfType string, value float64, diseaseCUI string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.concepts[diseaseCUI]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, diseaseCUI)
	}
	s.rfEdges[rfType+"|"+diseaseCUI] = weight
	return nil
}

// RiskFactorEdgeWeight exposes the current global risk-factor edge weight for
// assertions; returns 0, false when absent.
func (s *MemStore) RiskFactorEdgeWeight(rfType, diseaseCUI string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.rfEdges[rfType+"|"+diseaseCUI]
	return w, ok
}

func (s *MemStore) DeleteUserRiskFactor(ctx context.Context, userID, rfType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.userRF[userID]; ok {
		delete(m, rfType)
	}
	return nil
}

func (s *MemStore) CreateUserRiskFactor(ctx context.Context, userID, rfType string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.userRF[userID]
	if !ok {
		m = make(map[string]float64)
		s.userRF[userID] = m
	}
	m[rfType] = value
	return nil
}

// UserRiskFactor exposes a user's current personal value for assertions.
func (s *MemStore) UserRiskFactor(userID, rfType string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.userRF[userID][rfType]
	return v, ok
}
