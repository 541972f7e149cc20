// Package ingest is the background job wrapper around the ingestion
// pipeline: run-once guarding, run bookkeeping, fire-and-forget semantics.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yungbote/medgraph-backend/internal/data/graph"
	"github.com/yungbote/medgraph-backend/internal/ingestion/pipeline"
	"github.com/yungbote/medgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
	"github.com/yungbote/medgraph-backend/internal/repos"
	"github.com/yungbote/medgraph-backend/internal/types"
)

const JobType = "knowledge_graph_ingest"

// NewJob builds the submission payload for one ingestion run.
func NewJob(sourcePath string) runtime.Job {
	return runtime.NewJob(JobType, map[string]string{"source_path": sourcePath})
}

// Handler guards, records and runs ingestion. runRepo may be nil when no
// relational store is configured; guarding then degrades to an any-edges
// check against the graph itself, and the run goes unrecorded.
type Handler struct {
	pipeline *pipeline.Pipeline
	store    graph.Store
	runRepo  repos.IngestionRunRepo
	log      *logger.Logger
}

func NewHandler(p *pipeline.Pipeline, store graph.Store, runRepo repos.IngestionRunRepo, baseLog *logger.Logger) *Handler {
	return &Handler{
		pipeline: p,
		store:    store,
		runRepo:  runRepo,
		log:      baseLog.With("job", JobType),
	}
}

func (h *Handler) Type() string { return JobType }

func (h *Handler) Run(ctx context.Context, job runtime.Job) error {
	sourcePath := job.Payload["source_path"]
	if sourcePath == "" {
		return fmt.Errorf("ingest job missing source_path")
	}

	var run *types.IngestionRun
	if h.runRepo != nil {
		done, err := h.runRepo.HasActiveOrCompleted(ctx, nil, sourcePath)
		if err != nil {
			return fmt.Errorf("ingestion guard check: %w", err)
		}
		if done {
			h.log.Info("ingestion already ran for source, skipping", "source_path", sourcePath)
			return nil
		}
		run, err = h.runRepo.Create(ctx, nil, sourcePath)
		if err != nil {
			return fmt.Errorf("record ingestion run: %w", err)
		}
	} else {
		// Without run bookkeeping the only serialization guard left is
		// whether the graph already holds edges.
		populated, err := h.store.HasAnyRelationships(ctx)
		if err != nil {
			return fmt.Errorf("ingestion guard check: %w", err)
		}
		if populated {
			h.log.Info("graph already populated and no run records available, skipping",
				"source_path", sourcePath)
			return nil
		}
	}

	report, err := h.pipeline.Run(ctx, sourcePath)
	if err != nil {
		h.log.Error("ingestion run failed", "source_path", sourcePath, "error", err)
		if run != nil {
			if ferr := h.runRepo.Finish(ctx, nil, run.ID, types.IngestionFailed, "", err.Error()); ferr != nil {
				h.log.Warn("failed to record ingestion failure", "error", ferr)
			}
		}
		return err
	}

	if run != nil {
		raw, merr := json.Marshal(report)
		if merr != nil {
			raw = []byte("{}")
		}
		if ferr := h.runRepo.Finish(ctx, nil, run.ID, types.IngestionCompleted, string(raw), ""); ferr != nil {
			h.log.Warn("failed to record ingestion report", "error", ferr)
		}
	}
	return nil
}
