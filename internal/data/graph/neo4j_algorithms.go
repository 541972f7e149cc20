package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jStore satisfies Algorithms through the Graph Data Science library.
// Projections are patient-scoped and short-lived; every caller is responsible
// for DropProjection on all exit paths.
var _ Algorithms = (*Neo4jStore)(nil)

func (s *Neo4jStore) Probe(ctx context.Context) error {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	_, err := session.Run(ctx, `RETURN gds.version() AS version`, nil)
	if err != nil {
		return fmt.Errorf("%w: gds probe: %v", ErrAlgorithmUnavailable, err)
	}
	return nil
}

func (s *Neo4jStore) ProjectSubgraph(ctx context.Context, name string, cuis []string) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	res, err := session.Run(ctx, `
CALL gds.graph.project.cypher(
  $name,
  'MATCH (n) WHERE n.cui IN $cuis RETURN id(n) AS id',
  'MATCH (a)-[r]->(b) WHERE a.cui IN $cuis AND b.cui IN $cuis
   RETURN id(a) AS source, id(b) AS target, coalesce(r.weight, 0.5) AS weight',
  {parameters: {cuis: $cuis}}
)
`, map[string]any{"name": name, "cuis": cuis})
	if err != nil {
		return fmt.Errorf("%w: project %s: %v", ErrAlgorithmUnavailable, name, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("%w: project %s: %v", ErrAlgorithmUnavailable, name, err)
	}
	return nil
}

func (s *Neo4jStore) DropProjection(ctx context.Context, name string) error {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	res, err := session.Run(ctx, `CALL gds.graph.drop($name, false)`, map[string]any{"name": name})
	if err != nil {
		// Teardown is best-effort; a missing projection is fine.
		s.log.Warn("projection drop failed", "projection", name, "error", err)
		return nil
	}
	_, _ = res.Consume(ctx)
	return nil
}

func (s *Neo4jStore) Louvain(ctx context.Context, name string, maxLevels int, tolerance float64) (map[int64][]string, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CALL gds.louvain.stream($name, {
  maxLevels: $maxLevels,
  tolerance: $tolerance,
  relationshipWeightProperty: 'weight'
})
YIELD nodeId, communityId
RETURN communityId, gds.util.asNode(nodeId).cui AS cui
`, map[string]any{"name": name, "maxLevels": maxLevels, "tolerance": tolerance})
		if err != nil {
			return nil, err
		}
		communities := make(map[int64][]string)
		for res.Next(ctx) {
			rec := res.Record()
			id, _ := rec.Get("communityId")
			cui, _ := rec.Get("cui")
			idI, ok1 := id.(int64)
			cuiS, ok2 := cui.(string)
			if !ok1 || !ok2 || cuiS == "" {
				continue
			}
			communities[idI] = append(communities[idI], cuiS)
		}
		return communities, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: louvain on %s: %v", ErrAlgorithmUnavailable, name, err)
	}
	return result.(map[int64][]string), nil
}

func (s *Neo4jStore) Betweenness(ctx context.Context, name string) (map[string]float64, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CALL gds.betweenness.stream($name, {relationshipWeightProperty: 'weight'})
YIELD nodeId, score
RETURN gds.util.asNode(nodeId).cui AS cui, score
`, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		scores := make(map[string]float64)
		for res.Next(ctx) {
			rec := res.Record()
			cui, _ := rec.Get("cui")
			score, _ := rec.Get("score")
			cuiS, ok1 := cui.(string)
			scoreF, ok2 := score.(float64)
			if !ok1 || !ok2 || cuiS == "" {
				continue
			}
			scores[cuiS] = scoreF
		}
		return scores, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: betweenness on %s: %v", ErrAlgorithmUnavailable, name, err)
	}
	return result.(map[string]float64), nil
}
