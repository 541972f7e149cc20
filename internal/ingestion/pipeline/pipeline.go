// Package pipeline streams a raw relationship source file into the knowledge
// graph: classify, filter, weight, batch, commit.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/domain/medical"
	"github.com/yungbote/medgraph-backend/internal/ingestion/classifier"
	"github.com/yungbote/medgraph-backend/internal/platform/envutil"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

const (
	fieldDelimiter = "|"
	minFields      = 15

	fieldSourceCUI = 0
	fieldRel       = 3
	fieldTargetCUI = 4
	fieldRela      = 7
	fieldSourceTag = 10

	// Source lines are short, but a corrupt line must not kill the scanner.
	maxLineBytes = 1 << 20
)

// Config tunes one ingestion run.
type Config struct {
	// BatchSize is the commit threshold for the in-memory batch.
	BatchSize int
	// DedupCacheCap bounds the preloaded dedup cache; <= 0 means unbounded.
	DedupCacheCap int
	// Whitelist, when non-empty, restricts ingestion to candidates whose
	// endpoints are both in the set (demo mode).
	Whitelist map[string]struct{}
}

// ConfigFromEnv reads tunables with production defaults. The whitelist, when
// INGEST_WHITELIST_PATH is set, is loaded separately via LoadWhitelist so the
// caller decides whether a missing file is fatal.
func ConfigFromEnv() Config {
	return Config{
		BatchSize:     envutil.Int("INGEST_BATCH_SIZE", 5000),
		DedupCacheCap: envutil.Int("INGEST_DEDUP_CACHE_CAP", 5_000_000),
	}
}

// LoadWhitelist reads one concept identifier per line; blank lines and
// #-comments are skipped.
func LoadWhitelist(path string) (map[string]struct{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	set := make(map[string]struct{})
	for _, line := range strings.Split(string(raw), "\n") {
		cui := strings.TrimSpace(line)
		if cui == "" || strings.HasPrefix(cui, "#") {
			continue
		}
		set[cui] = struct{}{}
	}
	return set, nil
}

// Pipeline ingests relationship candidates into the graph store. One Run is
// single-threaded over one stream; concurrent runs against the same store
// must be serialized by the caller (see repos.IngestionRunRepo).
type Pipeline struct {
	store graph.Store
	cfg   Config
	log   *logger.Logger
}

func NewPipeline(store graph.Store, cfg Config, baseLog *logger.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5000
	}
	return &Pipeline{
		store: store,
		cfg:   cfg,
		log:   baseLog.With("component", "IngestionPipeline"),
	}
}

// Run streams sourcePath line by line and commits accepted relationships in
// batches. Re-running against the same file and a populated graph creates
// zero new edges. Only source I/O and index/cache loading abort the run.
func (p *Pipeline) Run(ctx context.Context, sourcePath string) (*Report, error) {
	report := &Report{
		SourcePath: sourcePath,
		StartedAt:  time.Now().UTC(),
	}

	sess, err := newSession(ctx, p.store, p.cfg.DedupCacheCap, p.log)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		report.LinesRead++
		p.processLine(ctx, sess, scanner.Text(), report)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source file after %d lines: %w", report.LinesRead, err)
	}

	if len(sess.batch) > 0 {
		p.commitBatch(ctx, sess, report)
	}

	report.FinishedAt = time.Now().UTC()
	p.log.Info("ingestion run finished",
		"lines", report.LinesRead,
		"accepted", report.Accepted,
		"created", report.Created,
		"rejected", report.Rejected(),
		"duplicates", report.Duplicates,
		"batches", report.Batches,
		"duration", report.Duration().String(),
	)
	return report, nil
}

// processLine applies the filter chain in fixed order, short-circuiting on
// the first failure and incrementing exactly one counter per rejection.
func (p *Pipeline) processLine(ctx context.Context, sess *session, line string, report *Report) {
	fields := strings.Split(line, fieldDelimiter)
	if len(fields) < minFields {
		report.Malformed++
		return
	}

	src := strings.TrimSpace(fields[fieldSourceCUI])
	dst := strings.TrimSpace(fields[fieldTargetCUI])
	rawRel := fields[fieldRel]
	rawRela := fields[fieldRela]
	sourceTag := strings.TrimSpace(fields[fieldSourceTag])

	if src == "" || dst == "" {
		report.Malformed++
		return
	}
	if src == dst {
		report.SelfLoops++
		return
	}
	if len(p.cfg.Whitelist) > 0 {
		if _, ok := p.cfg.Whitelist[src]; !ok {
			report.NotRelevant++
			return
		}
		if _, ok := p.cfg.Whitelist[dst]; !ok {
			report.NotRelevant++
			return
		}
	}

	kind, ok := classifier.Classify(rawRel, rawRela)
	if !ok {
		report.Unclassified++
		return
	}
	if !sess.exists(src) || !sess.exists(dst) {
		report.UnknownEntity++
		return
	}

	edge := medical.Relationship{
		SourceCUI: src,
		TargetCUI: dst,
		Kind:      kind,
		Weight:    classifier.Weight(kind, sourceTag),
		SourceTag: sourceTag,
		RawRel:    strings.TrimSpace(rawRel),
		RawRela:   strings.TrimSpace(rawRela),
	}
	if _, dup := sess.seen[edge.Key()]; dup {
		report.Duplicates++
		return
	}

	// Reserve the key immediately so a repeated line later in the same file
	// is caught as a duplicate before commit.
	sess.seen[edge.Key()] = struct{}{}
	sess.batch = append(sess.batch, edge)
	report.Accepted++

	if len(sess.batch) >= p.cfg.BatchSize {
		p.commitBatch(ctx, sess, report)
	}
}

// commitBatch writes the pending batch. A whole-batch failure is retried
// once at half sub-batch size, then edge by edge; edges that still fail are
// logged and dropped for this run, never retried.
func (p *Pipeline) commitBatch(ctx context.Context, sess *session, report *Report) {
	batch := sess.batch
	sess.batch = nil
	report.Batches++

	res, err := p.store.CreateRelationships(ctx, batch)
	if err == nil {
		p.recordBatch(res, report)
		return
	}

	p.log.Warn("batch commit failed, retrying in halves",
		"batch_size", len(batch), "error", err)

	half := len(batch) / 2
	if half == 0 {
		half = 1
	}
	for start := 0; start < len(batch); start += half {
		end := start + half
		if end > len(batch) {
			end = len(batch)
		}
		sub := batch[start:end]
		res, err := p.store.CreateRelationships(ctx, sub)
		if err == nil {
			p.recordBatch(res, report)
			continue
		}
		// Last resort: individual edges, isolating the poisonous ones.
		for _, edge := range sub {
			res, err := p.store.CreateRelationships(ctx, []medical.Relationship{edge})
			if err != nil {
				report.WriteFailures++
				p.log.Error("edge commit failed",
					"source_cui", edge.SourceCUI,
					"target_cui", edge.TargetCUI,
					"kind", edge.Kind,
					"error", err,
				)
				continue
			}
			p.recordBatch(res, report)
		}
	}
}

func (p *Pipeline) recordBatch(res graph.BatchResult, report *Report) {
	report.Created += int64(res.Created)
	report.WriteFailures += int64(len(res.Failed))
	for _, f := range res.Failed {
		p.log.Warn("edge rejected by store",
			"source_cui", f.Edge.SourceCUI,
			"target_cui", f.Edge.TargetCUI,
			"kind", f.Edge.Kind,
			"error", f.Err,
		)
	}
}
