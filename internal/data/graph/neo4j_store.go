package graph

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/platform/neo4jdb"
)

// Neo4jStore backs the knowledge graph with Neo4j. Concept kinds map to node
// labels, relationship kinds to relationship types, so traversals never
// filter on properties.
type Neo4jStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewNeo4jStore(client *neo4jdb.Client, baseLog *logger.Logger) (*Neo4jStore, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("neo4j store: %w: client not initialized", ErrStoreRead)
	}
	if baseLog == nil {
		return nil, fmt.Errorf("neo4j store: logger required")
	}
	return &Neo4jStore{
		client: client,
		log:    baseLog.With("store", "Neo4jGraph"),
	}, nil
}

var _ Store = (*Neo4jStore)(nil)

// identPattern guards label/type interpolation: Cypher cannot parameterize
// labels or relationship types.
var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func safeIdent(s string) (string, error) {
	if !identPattern.MatchString(s) {
		return "", fmt.Errorf("unsafe graph identifier %q", s)
	}
	return s, nil
}

// EnsureSchema creates uniqueness constraints per concept label. Best-effort;
// restricted users may lack schema privileges.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)
	for _, kind := range medical.AllConceptKinds {
		stmt := fmt.Sprintf(
			`CREATE CONSTRAINT %s_cui_unique IF NOT EXISTS FOR (c:%s) REQUIRE c.cui IS UNIQUE`,
			kind, kind,
		)
		if res, err := session.Run(ctx, stmt, nil); err != nil {
			s.log.Warn("schema init failed (continuing)", "kind", kind, "error", err)
		} else {
			_, _ = res.Consume(ctx)
		}
	}
}

func (s *Neo4jStore) LoadConceptCUIs(ctx context.Context, kind medical.ConceptKind) (map[string]struct{}, error) {
	label, err := safeIdent(string(kind))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreRead, err)
	}

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`MATCH (c:%s) RETURN c.cui AS cui`, label), nil)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{})
		for res.Next(ctx) {
			if cui, ok := res.Record().Get("cui"); ok {
				if str, ok := cui.(string); ok && str != "" {
					set[str] = struct{}{}
				}
			}
		}
		return set, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load concept index for %s: %w: %v", kind, ErrStoreRead, err)
	}
	return result.(map[string]struct{}), nil
}

func (s *Neo4jStore) LoadRelationshipKeys(ctx context.Context, max int) (map[medical.RelationshipKey]struct{}, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	query := `MATCH (a)-[r]->(b) WHERE a.cui IS NOT NULL AND b.cui IS NOT NULL
RETURN a.cui AS src, type(r) AS kind, b.cui AS dst`
	params := map[string]any{}
	if max > 0 {
		query += ` LIMIT $max`
		params["max"] = int64(max)
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		set := make(map[medical.RelationshipKey]struct{})
		for res.Next(ctx) {
			rec := res.Record()
			src, _ := rec.Get("src")
			kind, _ := rec.Get("kind")
			dst, _ := rec.Get("dst")
			srcS, ok1 := src.(string)
			kindS, ok2 := kind.(string)
			dstS, ok3 := dst.(string)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			set[medical.RelationshipKey{
				SourceCUI: srcS,
				Kind:      medical.RelationshipKind(kindS),
				TargetCUI: dstS,
			}] = struct{}{}
		}
		return set, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load relationship keys: %w: %v", ErrStoreRead, err)
	}
	return result.(map[medical.RelationshipKey]struct{}), nil
}

func (s *Neo4jStore) UpsertConcepts(ctx context.Context, concepts []medical.Concept) error {
	if len(concepts) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	byKind := make(map[medical.ConceptKind][]map[string]any)
	for _, c := range concepts {
		if c.CUI == "" {
			continue
		}
		byKind[c.Kind] = append(byKind[c.Kind], map[string]any{
			"cui":        c.CUI,
			"name":       c.Name,
			"updated_at": now,
		})
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for kind, nodes := range byKind {
			label, err := safeIdent(string(kind))
			if err != nil {
				return nil, err
			}
			res, err := tx.Run(ctx, fmt.Sprintf(`
UNWIND $nodes AS n
MERGE (c:%s {cui: n.cui})
SET c.name = n.name, c.updated_at = n.updated_at
`, label), map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("upsert concepts: %w: %v", ErrStoreWrite, err)
	}
	return nil
}

func (s *Neo4jStore) CreateRelationships(ctx context.Context, edges []medical.Relationship) (BatchResult, error) {
	var result BatchResult
	if len(edges) == 0 {
		return result, nil
	}

	byKind := make(map[medical.RelationshipKind][]map[string]any)
	for _, e := range edges {
		byKind[e.Kind] = append(byKind[e.Kind], map[string]any{
			"src":        e.SourceCUI,
			"dst":        e.TargetCUI,
			"weight":     e.Weight,
			"source_tag": e.SourceTag,
			"raw_rel":    e.RawRel,
			"raw_rela":   e.RawRela,
		})
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		total := 0
		for kind, rels := range byKind {
			relType, err := safeIdent(string(kind))
			if err != nil {
				return nil, err
			}
			// MERGE enforces the at-most-one-edge-per-kind invariant even if
			// the dedup cache missed an entry; ON CREATE keeps existing
			// weights untouched.
			res, err := tx.Run(ctx, fmt.Sprintf(`
UNWIND $rels AS r
MATCH (a {cui: r.src})
MATCH (b {cui: r.dst})
MERGE (a)-[e:%s]->(b)
ON CREATE SET e.weight = r.weight,
              e.source_tag = r.source_tag,
              e.raw_rel = r.raw_rel,
              e.raw_rela = r.raw_rela
`, relType), map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return nil, err
			}
			total += summary.Counters().RelationshipsCreated()
		}
		return total, nil
	})
	if err != nil {
		return result, fmt.Errorf("create relationships: %w: %v", ErrStoreWrite, err)
	}

	result.Created = created.(int)
	if result.Created < len(edges) {
		// Rows with missing endpoints or pre-existing edges drop out of the
		// UNWIND silently; the pipeline's filters make this rare.
		s.log.Debug("batch created fewer edges than submitted",
			"submitted", len(edges), "created", result.Created)
	}
	return result, nil
}

func (s *Neo4jStore) ConceptKind(ctx context.Context, cui string) (medical.ConceptKind, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (c {cui: $cui}) RETURN labels(c)[0] AS kind LIMIT 1`,
			map[string]any{"cui": cui})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			if v, ok := res.Record().Get("kind"); ok {
				if str, ok := v.(string); ok {
					return str, nil
				}
			}
		}
		return "", res.Err()
	})
	if err != nil {
		return "", fmt.Errorf("concept kind lookup: %w: %v", ErrStoreRead, err)
	}
	return medical.ConceptKind(result.(string)), nil
}

func (s *Neo4jStore) Neighbors(ctx context.Context, cui string, dir Direction, kinds []medical.RelationshipKind) ([]NeighborEdge, error) {
	kindNames := make([]string, 0, len(kinds))
	for _, k := range kinds {
		kindNames = append(kindNames, string(k))
	}
	params := map[string]any{"cui": cui, "kinds": kindNames}

	var pattern string
	switch dir {
	case Outgoing:
		pattern = `MATCH (a {cui: $cui})-[r]->(b)`
	case Incoming:
		pattern = `MATCH (b)-[r]->(a {cui: $cui})`
	default:
		pattern = `MATCH (a {cui: $cui})-[r]-(b)`
	}
	query := pattern + `
WHERE b.cui IS NOT NULL AND (size($kinds) = 0 OR type(r) IN $kinds)
RETURN startNode(r).cui AS src, endNode(r).cui AS dst, type(r) AS kind,
       coalesce(r.weight, 0.5) AS weight, labels(b)[0] AS neighbor_kind`

	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var out []NeighborEdge
		for res.Next(ctx) {
			rec := res.Record()
			src, _ := rec.Get("src")
			dst, _ := rec.Get("dst")
			kind, _ := rec.Get("kind")
			weight, _ := rec.Get("weight")
			nk, _ := rec.Get("neighbor_kind")
			srcS, ok1 := src.(string)
			dstS, ok2 := dst.(string)
			kindS, ok3 := kind.(string)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			w, _ := weight.(float64)
			nkS, _ := nk.(string)
			out = append(out, NeighborEdge{
				FromCUI:      srcS,
				ToCUI:        dstS,
				Kind:         medical.RelationshipKind(kindS),
				Weight:       w,
				NeighborKind: medical.ConceptKind(nkS),
			})
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("neighbors of %s: %w: %v", cui, ErrStoreRead, err)
	}
	return result.([]NeighborEdge), nil
}

func (s *Neo4jStore) HasAnyRelationships(ctx context.Context) (bool, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH ()-[r]->() RETURN r LIMIT 1`, nil)
		if err != nil {
			return nil, err
		}
		return res.Next(ctx), res.Err()
	})
	if err != nil {
		return false, fmt.Errorf("relationship existence check: %w: %v", ErrStoreRead, err)
	}
	return result.(bool), nil
}

func (s *Neo4jStore) UpsertRiskFactorEdge(ctx context.Context, rfType string, value float64, diseaseCUI string, weight float64) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (rf:RiskFactor {cui: $rf_cui})
SET rf.rf_type = $rf_type, rf.value = $value, rf.name = $rf_type
WITH rf
MATCH (d:Disease {cui: $disease})
MERGE (rf)-[e:INCREASES_RISK_OF]->(d)
SET e.weight = $weight, e.source_tag = 'RISK_CONFIG'
`, map[string]any{
			"rf_cui":  RiskFactorCUI(rfType),
			"rf_type": rfType,
			"value":   value,
			"disease": diseaseCUI,
			"weight":  weight,
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("upsert risk factor edge %s -> %s: %w: %v", rfType, diseaseCUI, ErrStoreWrite, err)
	}
	return nil
}

func (s *Neo4jStore) DeleteUserRiskFactor(ctx context.Context, userID, rfType string) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User {user_id: $user_id})-[e:HAS_RISK_FACTOR {rf_type: $rf_type}]->()
DELETE e
`, map[string]any{"user_id": userID, "rf_type": rfType})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("delete user risk factor %s: %w: %v", rfType, ErrStoreWrite, err)
	}
	return nil
}

func (s *Neo4jStore) CreateUserRiskFactor(ctx context.Context, userID, rfType string, value float64) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (u:User {user_id: $user_id})
MERGE (rf:RiskFactor {cui: $rf_cui})
ON CREATE SET rf.rf_type = $rf_type, rf.name = $rf_type
MERGE (u)-[e:HAS_RISK_FACTOR {rf_type: $rf_type}]->(rf)
SET e.value = $value, e.updated_at = $updated_at
`, map[string]any{
			"user_id":    userID,
			"rf_cui":     RiskFactorCUI(rfType),
			"rf_type":    rfType,
			"value":      value,
			"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("create user risk factor %s: %w: %v", rfType, ErrStoreWrite, err)
	}
	return nil
}

// RiskFactorCUI derives the singleton node id for a risk-factor type.
func RiskFactorCUI(rfType string) string {
	return "RF_" + rfType
}
