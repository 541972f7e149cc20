package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// makeLine builds a pipe-delimited source line with the clinical fields in
// their standard positions.
func makeLine(srcCUI, rel, dstCUI, rela, sab string) string {
	fields := make([]string, minFields)
	fields[fieldSourceCUI] = srcCUI
	fields[fieldRel] = rel
	fields[fieldTargetCUI] = dstCUI
	fields[fieldRela] = rela
	fields[fieldSourceTag] = sab
	return strings.Join(fields, fieldDelimiter)
}

func writeSource(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relations.psv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}
	return path
}

func seededStore(t *testing.T) *graph.MemStore {
	t.Helper()
	store := graph.NewMemStore()
	err := store.UpsertConcepts(context.Background(), []medical.Concept{
		{CUI: "C0020538", Name: "Hypertension", Kind: medical.KindDisease},
		{CUI: "C0065374", Name: "Lisinopril", Kind: medical.KindMedication},
		{CUI: "C0018681", Name: "Headache", Kind: medical.KindSymptom},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestRun_FilterChainCountsEachRejectionOnce(t *testing.T) {
	store := seededStore(t)
	source := writeSource(t, []string{
		makeLine("C0065374", "RO", "C0020538", "may_treat", "MSH"),     // accepted
		"too|short",                                                    // malformed
		makeLine("C0020538", "RO", "C0020538", "may_treat", "MSH"),     // self loop
		makeLine("C0065374", "RO", "C9999999", "may_treat", "MSH"),     // unknown entity
		makeLine("C0065374", "RO", "C0020538", "translation_of", ""),   // excluded code
		makeLine("C0065374", "RO", "C0020538", "may_treat", "SNOMED"), // duplicate key
	})

	p := NewPipeline(store, Config{BatchSize: 2}, testLogger())
	report, err := p.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.LinesRead != 6 {
		t.Fatalf("lines read = %d, want 6", report.LinesRead)
	}
	if report.Malformed != 1 || report.SelfLoops != 1 || report.UnknownEntity != 1 ||
		report.Unclassified != 1 || report.Duplicates != 1 {
		t.Fatalf("rejection counters = %+v", report)
	}
	if report.Accepted != 1 || report.Created != 1 || report.WriteFailures != 0 {
		t.Fatalf("accept counters = %+v", report)
	}
	if report.Rejected() != 5 {
		t.Fatalf("rejected = %d, want 5", report.Rejected())
	}
}

func TestRun_SecondPassCreatesNothing(t *testing.T) {
	store := seededStore(t)
	source := writeSource(t, []string{
		makeLine("C0065374", "RO", "C0020538", "may_treat", "MSH"),
		makeLine("C0020538", "RO", "C0018681", "has_manifestation", "SNOMEDCT_US"),
	})

	p := NewPipeline(store, Config{BatchSize: 100}, testLogger())
	first, err := p.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Created != 2 {
		t.Fatalf("first run created = %d, want 2", first.Created)
	}

	second, err := p.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Created != 0 || second.Accepted != 0 {
		t.Fatalf("second run created = %d accepted = %d, want 0/0", second.Created, second.Accepted)
	}
	if second.Duplicates != 2 {
		t.Fatalf("second run duplicates = %d, want 2", second.Duplicates)
	}
}

func TestRun_WhitelistRestrictsBothEndpoints(t *testing.T) {
	store := seededStore(t)
	source := writeSource(t, []string{
		makeLine("C0065374", "RO", "C0020538", "may_treat", "MSH"),
		makeLine("C0020538", "RO", "C0018681", "has_manifestation", "MSH"),
	})

	p := NewPipeline(store, Config{
		BatchSize: 100,
		Whitelist: map[string]struct{}{"C0065374": {}, "C0020538": {}},
	}, testLogger())
	report, err := p.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Accepted != 1 || report.NotRelevant != 1 {
		t.Fatalf("accepted = %d not relevant = %d, want 1/1", report.Accepted, report.NotRelevant)
	}
}

func TestLoadWhitelist_SkipsBlanksAndComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.txt")
	raw := "# demo concepts\nC0020538\n\n  C0065374  \n#C0000000\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write whitelist: %v", err)
	}

	set, err := LoadWhitelist(path)
	if err != nil {
		t.Fatalf("LoadWhitelist: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("whitelist size = %d, want 2: %v", len(set), set)
	}
	for _, cui := range []string{"C0020538", "C0065374"} {
		if _, ok := set[cui]; !ok {
			t.Fatalf("missing %s", cui)
		}
	}
}

func TestRun_RepeatedLineInSameFileIsDuplicate(t *testing.T) {
	store := seededStore(t)
	line := makeLine("C0065374", "RO", "C0020538", "may_treat", "MSH")
	// BatchSize 1 commits after the first acceptance, so the repeat must be
	// caught by the session cache, not the batch.
	source := writeSource(t, []string{line, line, line})

	p := NewPipeline(store, Config{BatchSize: 1}, testLogger())
	report, err := p.Run(context.Background(), source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Accepted != 1 || report.Created != 1 || report.Duplicates != 2 {
		t.Fatalf("report = %+v", report)
	}
}

func TestRun_WeightsCarrySourceTrust(t *testing.T) {
	store := seededStore(t)
	source := writeSource(t, []string{
		makeLine("C0020538", "RO", "C0018681", "has_manifestation", "SNOMEDCT_US"),
	})

	p := NewPipeline(store, Config{BatchSize: 100}, testLogger())
	if _, err := p.Run(context.Background(), source); err != nil {
		t.Fatalf("Run: %v", err)
	}

	edges, err := store.Neighbors(context.Background(), "C0020538", graph.Outgoing, nil)
	if err != nil {
		t.Fatalf("Neighbors: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(edges))
	}
	want := medical.RelHasSymptom.BaseWeight() * 1.2
	if diff := edges[0].Weight - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("weight = %v, want %v", edges[0].Weight, want)
	}
}

func TestRun_MissingSourceFileFailsRun(t *testing.T) {
	p := NewPipeline(graph.NewMemStore(), Config{}, testLogger())
	if _, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.psv")); err == nil {
		t.Fatalf("expected error for missing source file")
	}
}
