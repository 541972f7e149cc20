package worker

import (
	"context"
	"fmt"

	"github.com/yungbote/medgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/medgraph-backend/internal/platform/envutil"
	"github.com/yungbote/medgraph-backend/internal/platform/logger"
)

// Worker executes submitted jobs on an in-process pool so long-running work
// (ingestion, bulk risk updates) never blocks request-serving paths.
type Worker struct {
	log      *logger.Logger
	registry *runtime.Registry
	queue    chan runtime.Job
}

func NewWorker(baseLog *logger.Logger, registry *runtime.Registry) *Worker {
	queueSize := envutil.Int("WORKER_QUEUE_SIZE", 64)
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		log:      baseLog.With("component", "JobWorker"),
		registry: registry,
		queue:    make(chan runtime.Job, queueSize),
	}
}

func (w *Worker) Start(ctx context.Context) {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 2)
	if concurrency < 1 {
		concurrency = 1
	}
	w.log.Info("Starting job worker pool", "concurrency", concurrency)

	for i := 0; i < concurrency; i++ {
		workerID := i + 1
		go w.runLoop(ctx, workerID)
	}
}

// Submit enqueues a job and returns immediately. A full queue is an error so
// callers can surface backpressure instead of blocking.
func (w *Worker) Submit(job runtime.Job) error {
	select {
	case w.queue <- job:
		return nil
	default:
		return fmt.Errorf("job queue full, rejecting job_type=%s", job.Type)
	}
}

func (w *Worker) runLoop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case job := <-w.queue:
			w.dispatch(ctx, workerID, job)
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, workerID int, job runtime.Job) {
	h, ok := w.registry.Get(job.Type)
	if !ok {
		w.log.Warn("No handler registered for job_type",
			"worker_id", workerID,
			"job_type", job.Type,
			"job_id", job.ID,
		)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic",
				"worker_id", workerID,
				"job_id", job.ID,
				"job_type", job.Type,
				"panic", r,
			)
		}
	}()

	if err := h.Run(ctx, job); err != nil {
		// Handlers log their own failures with context; this is a safety net.
		w.log.Error("Job handler returned error",
			"worker_id", workerID,
			"job_id", job.ID,
			"job_type", job.Type,
			"error", err,
		)
	}
}
