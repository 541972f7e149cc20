package medical

import "time"

// Concept is a clinical entity keyed by a stable vocabulary code (CUI).
type Concept struct {
	CUI       string      `json:"cui"`
	Name      string      `json:"name"`
	Kind      ConceptKind `json:"kind"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Relationship is a directed weighted typed edge between two concepts.
// Immutable after creation except HAS_RISK_FACTOR edges, which are replaced
// wholesale on every user risk-factor update.
type Relationship struct {
	SourceCUI string           `json:"source_cui"`
	TargetCUI string           `json:"target_cui"`
	Kind      RelationshipKind `json:"kind"`
	Weight    float64          `json:"weight"`
	SourceTag string           `json:"source_tag"`
	RawRel    string           `json:"raw_rel,omitempty"`
	RawRela   string           `json:"raw_rela,omitempty"`
}

// Key returns the dedup identity of the edge: at most one edge of a given
// kind may exist between an ordered concept pair.
func (r Relationship) Key() RelationshipKey {
	return RelationshipKey{SourceCUI: r.SourceCUI, Kind: r.Kind, TargetCUI: r.TargetCUI}
}

type RelationshipKey struct {
	SourceCUI string
	Kind      RelationshipKind
	TargetCUI string
}

// Severity grades a reported condition for risk seeding.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityMild     Severity = "mild"
	SeverityUnknown  Severity = "unknown"
)

// RiskSource seeds risk propagation with an entity and its starting risk.
type RiskSource struct {
	CUI      string      `json:"cui"`
	Kind     ConceptKind `json:"kind"`
	Severity Severity    `json:"severity,omitempty"`
	// Weight overrides the severity-derived initial risk for risk factors
	// carrying an explicit personalized weight.
	Weight float64 `json:"weight,omitempty"`
}

// InitialRisk derives the propagation seed value from entity kind and severity.
func (s RiskSource) InitialRisk() float64 {
	switch s.Kind {
	case KindDisease:
		switch s.Severity {
		case SeveritySevere:
			return 0.9
		case SeverityModerate:
			return 0.6
		case SeverityMild:
			return 0.3
		default:
			return 0.5
		}
	case KindRiskFactor:
		if s.Weight > 0 {
			return s.Weight
		}
		return 0.4
	default:
		return 0.3
	}
}

// PathStep is one traversed edge inside a pathway or propagation path.
type PathStep struct {
	FromCUI string           `json:"from_cui"`
	ToCUI   string           `json:"to_cui"`
	Kind    RelationshipKind `json:"kind"`
	Weight  float64          `json:"weight"`
}

// Pathway is a ranked causal/therapeutic chain from a source concept to a
// target concept.
type Pathway struct {
	SourceCUI  string     `json:"source_cui"`
	TargetCUI  string     `json:"target_cui"`
	Steps      []PathStep `json:"steps"`
	Length     int        `json:"length"`
	RiskScore  float64    `json:"risk_score"`
	Confidence float64    `json:"confidence"`
}

// PropagationPath records one route risk took to reach a target.
type PropagationPath struct {
	SourceCUI string     `json:"source_cui"`
	TargetCUI string     `json:"target_cui"`
	Steps     []PathStep `json:"steps"`
	Risk      float64    `json:"risk"`
}

// PropagationResult accumulates risk per target over every surviving path.
type PropagationResult struct {
	TargetRisk map[string]float64 `json:"target_risk"`
	Paths      []PropagationPath  `json:"paths"`
}

// Community is a cohesive subgroup of a patient-specific concept set.
type Community struct {
	ID            string      `json:"id"`
	Members       []string    `json:"members"`
	Size          int         `json:"size"`
	DominantKind  ConceptKind `json:"dominant_kind"`
	CohesionScore float64     `json:"cohesion_score"`
}

// Hub is a structurally influential concept within a patient subgraph.
type Hub struct {
	CUI            string  `json:"cui"`
	Score          float64 `json:"score"`
	InfluenceLevel string  `json:"influence_level"`
}

// InfluenceLevel buckets a centrality score for presentation.
func InfluenceLevel(score float64) string {
	switch {
	case score > 50:
		return "Very High"
	case score > 20:
		return "High"
	case score > 5:
		return "Medium"
	default:
		return "Low"
	}
}
