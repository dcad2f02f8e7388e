package workers

import (
	"context"
	"fmt"
	"time"

	"mediscribe/contract"
	"mediscribe/observability"
)

var _ contract.Worker = (*ReporterWorker)(nil)

type ReporterWorker struct {
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewReporterWorker(monitoring *observability.MonitoringManager, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{monitoring: monitoring, interval: interval}
}

// Run starts the reporting loop to display real-time metrics until context
// cancellation.
func (w *ReporterWorker) Run(ctx context.Context) error {
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.printStats(ctx, startTime)
			fmt.Println("\n🏁 Reporter stopped.")
			return ctx.Err()
		case <-ticker.C:
			w.printStats(ctx, startTime)
		}
	}
}

// printStats formats and prints the latest metrics snapshot to the console.
func (w *ReporterWorker) printStats(ctx context.Context, startTime time.Time) {
	stats := w.monitoring.Sample(ctx)
	duration := time.Since(startTime).Round(time.Second).String()

	fmt.Printf("\r📊 [%s] Events: %d | Jobs out: %d | Results in: %d | Queue: %d | RAM: %dMB",
		duration,
		stats.EventsAppended,
		stats.JobsDispatched,
		stats.ResultsIngested,
		stats.QueueDepth,
		stats.AllocMemMb,
	)
}
