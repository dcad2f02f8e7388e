package workers

import (
	"context"
	"log/slog"
	"time"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/infrastructure/storage"
	"mediscribe/observability"
)

var _ contract.Worker = (*DispatchWorker)(nil)

// DispatchWorker drains queued transcription jobs towards the external
// worker pool in small batches. A job is marked in-flight before it leaves,
// so two dispatchers never send the same job; a dispatch failure requeues
// it with a bumped retry count.
type DispatchWorker struct {
	jobs        storage.IJobRepository
	transcriber contract.Transcriber
	monitoring  *observability.MonitoringManager
	interval    time.Duration
	batchSize   int
	log         *slog.Logger
}

func NewDispatchWorker(
	jobs storage.IJobRepository,
	transcriber contract.Transcriber,
	monitoring *observability.MonitoringManager,
	interval time.Duration,
	batchSize int,
	log *slog.Logger,
) *DispatchWorker {
	return &DispatchWorker{
		jobs:        jobs,
		transcriber: transcriber,
		monitoring:  monitoring,
		interval:    interval,
		batchSize:   batchSize,
		log:         log,
	}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping dispatch worker")
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *DispatchWorker) drain(ctx context.Context) error {
	batch, err := w.jobs.NextBatch(w.batchSize)
	if err != nil {
		return err
	}

	for _, job := range batch {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err := w.jobs.MarkInflight(job); err != nil {
			// Another dispatcher took it first.
			w.log.Debug("Job no longer queued, skipping", "job", job.ID)
			continue
		}

		if err := w.transcriber.Transcribe(ctx, domain.JobRequest{
			JobID:          job.ID,
			ConsultationID: job.ConsultationID,
			AudioRef:       job.AudioRef,
		}); err != nil {
			w.log.Warn("Dispatch to worker pool failed, requeueing",
				"job", job.ID, "retries", job.RetryCount, "error", err)
			if err := w.jobs.Requeue(job); err != nil {
				return err
			}
			continue
		}

		w.monitoring.JobDispatched()
		w.log.Debug("Job handed to worker pool", "job", job.ID, "audio", job.AudioRef)
	}
	return nil
}
