// Package classifier maps raw source-vocabulary relation codes onto the
// domain relationship vocabulary and assigns trust-weighted strengths.
package classifier

import (
	"strings"

	"github.com/yungbote/medgraph-backend/internal/domain/medical"
)

// relaTable maps specific (RELA) relation codes to domain kinds.
var relaTable = map[string]medical.RelationshipKind{
	"may_treat":                    medical.RelTreats,
	"treats":                       medical.RelTreats,
	"may_be_treated_by":            medical.RelTreatedBy,
	"treated_by":                   medical.RelTreatedBy,
	"may_prevent":                  medical.RelMayPrevent,
	"has_contraindicated_drug":     medical.RelContraindicatedFor,
	"contraindicated_with_disease": medical.RelContraindicatedFor,
	"contraindicated_mechanism_of_action": medical.RelContraindicatedFor,
	"induces":                      medical.RelCausesSideEffect,
	"causes":                       medical.RelCausesSideEffect,
	"side_effect_of":               medical.RelSideEffectOf,
	"has_manifestation":            medical.RelHasSymptom,
	"disease_has_finding":          medical.RelHasSymptom,
	"manifestation_of":             medical.RelIndicates,
	"finding_of_disease":           medical.RelIndicates,
	"indicates":                    medical.RelIndicates,
	"risk_factor_of":               medical.RelRiskFactorFor,
	"has_risk_factor":              medical.RelIncreasesRiskOf,
	"cause_of":                     medical.RelIncreasesRiskOf,
	"has_complication":             medical.RelComplicationOf,
	"exacerbates":                  medical.RelAggravates,
	"interacts_with":               medical.RelInteractsWith,
	"drug_drug_interaction":        medical.RelInteractsWith,
	"may_diagnose":                 medical.RelDiagnoses,
	"diagnoses":                    medical.RelDiagnoses,
	"diagnosed_by":                 medical.RelDiagnosedBy,
	"occurs_before":                medical.RelPrecedes,
	"occurs_after":                 medical.RelPrecedes,
	"has_location":                 medical.RelLocatedIn,
	"location_of":                  medical.RelLocatedIn,
	"inhibits":                     medical.RelInhibits,
	"mechanism_of_action_of":       medical.RelInhibits,
	"stimulates":                   medical.RelStimulates,
	"associated_with":              medical.RelRelatedTo,
	"clinically_associated_with":   medical.RelRelatedTo,
}

// relTable maps general (REL) relation codes, consulted when the specific
// code is empty or unknown.
var relTable = map[string]medical.RelationshipKind{
	"RO":  medical.RelRelatedTo,
	"CO":  medical.RelRelatedTo,
	"RQ":  medical.RelRelatedTo,
	"PAR": medical.RelRelatedTo,
	"CHD": medical.RelRelatedTo,
}

// excluded codes never produce an edge: translations, lexical variants and
// abbreviations are naming relations, not clinical ones.
var excluded = map[string]struct{}{
	"translation_of":      {},
	"has_translation":     {},
	"lexical_variant_of":  {},
	"has_lexical_variant": {},
	"abbreviation_of":     {},
	"has_abbreviation":    {},
	"expanded_form_of":    {},
	"has_expanded_form":   {},
	"same_as":             {},
	"SY":                  {},
	"LA":                  {},
	"AQ":                  {},
	"QB":                  {},
}

// Classify resolves a raw relation pair to a domain kind. The specific code
// wins when known; unknown codes are mechanically derived rather than
// rejected, so novel but legitimate source vocabulary still lands in the
// graph. Returns false for excluded or empty codes.
func Classify(rawRel, rawSpecific string) (medical.RelationshipKind, bool) {
	rel := strings.TrimSpace(rawRel)
	rela := strings.TrimSpace(rawSpecific)

	if isExcluded(rel) || isExcluded(rela) {
		return "", false
	}

	if rela != "" {
		if kind, ok := relaTable[strings.ToLower(rela)]; ok {
			return kind, true
		}
	}
	if rel != "" {
		if kind, ok := relTable[strings.ToUpper(rel)]; ok {
			return kind, true
		}
	}

	// Derive from whichever code carries more signal.
	raw := rela
	if raw == "" {
		raw = rel
	}
	derived := medical.DeriveKind(raw)
	if derived == "" {
		return "", false
	}
	return derived, true
}

func isExcluded(code string) bool {
	if code == "" {
		return false
	}
	if _, ok := excluded[code]; ok {
		return true
	}
	_, ok := excluded[strings.ToLower(code)]
	return ok
}

// sourceTrust scales confidence by provenance. Curated clinical
// vocabularies earn up to a 20% bonus.
var sourceTrust = map[string]float64{
	"SNOMEDCT_US": 1.2,
	"MED-RT":      1.15,
	"NDFRT":       1.15,
	"RXNORM":      1.15,
	"MSH":         1.1,
	"ICD10CM":     1.1,
	"ICD10":       1.1,
	"CSP":         1.05,
}

const maxWeight = 0.99

// Weight computes the edge strength: the kind's base weight scaled by the
// source trust bonus, clamped below 1. Always in (0, 0.99].
func Weight(kind medical.RelationshipKind, sourceTag string) float64 {
	w := kind.BaseWeight()
	if bonus, ok := sourceTrust[strings.ToUpper(strings.TrimSpace(sourceTag))]; ok {
		w *= bonus
	}
	if w > maxWeight {
		w = maxWeight
	}
	return w
}
