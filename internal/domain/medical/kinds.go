package medical

import "strings"

// ConceptKind is the closed set of clinical node labels in the knowledge graph.
type ConceptKind string

const (
	KindDisease             ConceptKind = "Disease"
	KindMedication          ConceptKind = "Medication"
	KindSymptom             ConceptKind = "Symptom"
	KindRiskFactor          ConceptKind = "RiskFactor"
	KindProcedure           ConceptKind = "Procedure"
	KindAnatomicalStructure ConceptKind = "AnatomicalStructure"
	KindLabTest             ConceptKind = "LabTest"
	KindBiologicalFunction  ConceptKind = "BiologicalFunction"
)

// AllConceptKinds lists every node label, in the order existence indexes are loaded.
var AllConceptKinds = []ConceptKind{
	KindDisease,
	KindMedication,
	KindSymptom,
	KindRiskFactor,
	KindProcedure,
	KindAnatomicalStructure,
	KindLabTest,
	KindBiologicalFunction,
}

// RelationshipKind is a directed semantic edge type between concepts. The
// named constants form the closed vocabulary; ingestion may additionally mint
// derived kinds from unmapped source codes via DeriveKind.
type RelationshipKind string

const (
	RelIndicates          RelationshipKind = "INDICATES"
	RelHasSymptom         RelationshipKind = "HAS_SYMPTOM"
	RelTreats             RelationshipKind = "TREATS"
	RelTreatedBy          RelationshipKind = "TREATED_BY"
	RelContraindicatedFor RelationshipKind = "CONTRAINDICATED_FOR"
	RelInteractsWith      RelationshipKind = "INTERACTS_WITH"
	RelSideEffectOf       RelationshipKind = "SIDE_EFFECT_OF"
	RelCausesSideEffect   RelationshipKind = "CAUSES_SIDE_EFFECT"
	RelMayPrevent         RelationshipKind = "MAY_PREVENT"
	RelComplicationOf     RelationshipKind = "COMPLICATION_OF"
	RelAggravates         RelationshipKind = "AGGRAVATES"
	RelRiskFactorFor      RelationshipKind = "RISK_FACTOR_FOR"
	RelIncreasesRiskOf    RelationshipKind = "INCREASES_RISK_OF"
	RelDiagnosedBy        RelationshipKind = "DIAGNOSED_BY"
	RelDiagnoses          RelationshipKind = "DIAGNOSES"
	RelPrecedes           RelationshipKind = "PRECEDES"
	RelLocatedIn          RelationshipKind = "LOCATED_IN"
	RelInhibits           RelationshipKind = "INHIBITS"
	RelStimulates         RelationshipKind = "STIMULATES"
	RelRelatedTo          RelationshipKind = "RELATED_TO"

	// RelHasRiskFactor links a user profile to its personalized risk-factor
	// value. Created only by the risk-factor subsystem, never by ingestion.
	RelHasRiskFactor RelationshipKind = "HAS_RISK_FACTOR"
)

// BaseWeight returns the trust-independent strength for a relationship kind.
// Derived kinds fall through to the generic weight.
func (k RelationshipKind) BaseWeight() float64 {
	switch k {
	case RelContraindicatedFor:
		return 0.95
	case RelTreats, RelTreatedBy:
		return 0.9
	case RelIndicates, RelInteractsWith, RelDiagnosedBy, RelDiagnoses:
		return 0.85
	case RelHasSymptom, RelComplicationOf, RelRiskFactorFor, RelIncreasesRiskOf:
		return 0.8
	case RelSideEffectOf, RelCausesSideEffect, RelAggravates:
		return 0.75
	case RelMayPrevent, RelInhibits, RelStimulates:
		return 0.7
	case RelPrecedes, RelLocatedIn:
		return 0.6
	default:
		return 0.5
	}
}

// PathwayRelevant reports whether an edge kind participates in
// causal/therapeutic pathway traversal.
func (k RelationshipKind) PathwayRelevant() bool {
	switch k {
	case RelTreats, RelCausesSideEffect, RelIndicates, RelHasSymptom,
		RelRiskFactorFor, RelIncreasesRiskOf, RelAggravates:
		return true
	default:
		return false
	}
}

// RiskPropagating reports whether risk flows along an edge kind during
// propagation analysis.
func (k RelationshipKind) RiskPropagating() bool {
	switch k {
	case RelRiskFactorFor, RelIncreasesRiskOf, RelCausesSideEffect,
		RelAggravates, RelComplicationOf, RelHasSymptom, RelPrecedes:
		return true
	default:
		return false
	}
}

// PathwayNodeKind reports whether a concept kind may appear on a pathway.
func PathwayNodeKind(k ConceptKind) bool {
	switch k {
	case KindDisease, KindMedication, KindSymptom, KindRiskFactor:
		return true
	default:
		return false
	}
}

// DeriveKind mechanically normalizes an unmapped source relation code into a
// usable relationship kind: uppercased, every non-alphanumeric run replaced
// with a single underscore.
func DeriveKind(raw string) RelationshipKind {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return RelationshipKind(strings.TrimSuffix(b.String(), "_"))
}
