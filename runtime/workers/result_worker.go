package workers

import (
	"context"
	"log/slog"
	"time"

	"mediscribe/contract"
	"mediscribe/observability"
)

var _ contract.Worker = (*ResultWorker)(nil)

// ResultWorker polls the external worker pool for transcription outcomes
// and funnels them into the gateway. The gateway's idempotency makes the
// at-least-once polling safe: a result seen twice is dropped there.
type ResultWorker struct {
	transcriber contract.Transcriber
	gateway     contract.DispatchGateway
	monitoring  *observability.MonitoringManager
	interval    time.Duration
	log         *slog.Logger
}

func NewResultWorker(
	transcriber contract.Transcriber,
	gateway contract.DispatchGateway,
	monitoring *observability.MonitoringManager,
	interval time.Duration,
	log *slog.Logger,
) *ResultWorker {
	return &ResultWorker{
		transcriber: transcriber,
		gateway:     gateway,
		monitoring:  monitoring,
		interval:    interval,
		log:         log,
	}
}

func (w *ResultWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping result worker")
			return ctx.Err()
		case <-ticker.C:
			results, err := w.transcriber.Poll(ctx)
			if err != nil {
				w.log.Warn("Polling worker pool failed", "error", err)
				continue
			}

			for _, result := range results {
				if err := w.gateway.OnResult(ctx, result.JobID, result.Outcome); err != nil {
					// The pool redelivers until acknowledged, so an
					// ingestion error here is retried on a later poll.
					w.log.Error("Result ingestion failed",
						"job", result.JobID, "error", err)
					continue
				}
				w.monitoring.ResultIngested()
			}
		}
	}
}
