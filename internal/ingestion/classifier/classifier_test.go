package classifier

import (
	"testing"

	"github.com/yungbote/medgraph-backend/internal/domain/medical"
)

func TestClassify_SpecificCodeWins(t *testing.T) {
	kind, ok := Classify("RO", "may_treat")
	if !ok || kind != medical.RelTreats {
		t.Fatalf("got %q ok=%v, want TREATS", kind, ok)
	}
	kind, ok = Classify("RO", "induces")
	if !ok || kind != medical.RelCausesSideEffect {
		t.Fatalf("got %q ok=%v, want CAUSES_SIDE_EFFECT", kind, ok)
	}
}

func TestClassify_GeneralCodeFallback(t *testing.T) {
	kind, ok := Classify("RO", "")
	if !ok || kind != medical.RelRelatedTo {
		t.Fatalf("got %q ok=%v, want RELATED_TO", kind, ok)
	}
	// General codes are matched case-insensitively.
	kind, ok = Classify("par", "")
	if !ok || kind != medical.RelRelatedTo {
		t.Fatalf("got %q ok=%v, want RELATED_TO", kind, ok)
	}
}

func TestClassify_DerivesUnknownCodes(t *testing.T) {
	kind, ok := Classify("RO", "gene_plays_role_in_process")
	if !ok || kind != medical.RelationshipKind("GENE_PLAYS_ROLE_IN_PROCESS") {
		t.Fatalf("got %q ok=%v", kind, ok)
	}
}

func TestClassify_ExcludedCodesProduceNoEdge(t *testing.T) {
	for _, rela := range []string{"translation_of", "SY", "lexical_variant_of", "has_abbreviation"} {
		if kind, ok := Classify("RO", rela); ok {
			t.Fatalf("excluded code %q classified as %q", rela, kind)
		}
	}
	if _, ok := Classify("SY", ""); ok {
		t.Fatalf("excluded general code SY classified")
	}
}

func TestClassify_EmptyCodes(t *testing.T) {
	if kind, ok := Classify("", ""); ok {
		t.Fatalf("empty codes classified as %q", kind)
	}
}

func TestWeight_TrustBonusAndClamp(t *testing.T) {
	base := medical.RelTreats.BaseWeight()
	if got := Weight(medical.RelTreats, "UNKNOWN_SOURCE"); got != base {
		t.Fatalf("unknown source weight = %v, want base %v", got, base)
	}
	if got := Weight(medical.RelTreats, "MSH"); got != base*1.1 {
		t.Fatalf("MSH weight = %v, want %v", got, base*1.1)
	}
	// 0.95 * 1.2 would exceed 1; clamps to the max.
	if got := Weight(medical.RelContraindicatedFor, "SNOMEDCT_US"); got != maxWeight {
		t.Fatalf("clamped weight = %v, want %v", got, maxWeight)
	}
}

func TestWeight_AlwaysInRange(t *testing.T) {
	kinds := []medical.RelationshipKind{
		medical.RelTreats, medical.RelContraindicatedFor, medical.RelRelatedTo,
		medical.RelPrecedes, medical.DeriveKind("something_new"),
	}
	sources := []string{"", "SNOMEDCT_US", "MED-RT", "RXNORM", "ICD10", "CSP", "bogus"}
	for _, k := range kinds {
		for _, s := range sources {
			w := Weight(k, s)
			if w <= 0 || w > maxWeight {
				t.Fatalf("Weight(%q, %q) = %v out of (0, %v]", k, s, w, maxWeight)
			}
		}
	}
}
