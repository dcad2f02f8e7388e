// Package observability aggregates runtime telemetry for the reporter
// worker and the debug endpoint. Everything here is informational; nothing
// reads it on the append path.
package observability

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// MonitoringStats is one snapshot of the pipeline's health.
type MonitoringStats struct {
	EventsAppended  uint64  `json:"events_appended"`
	JobsDispatched  uint64  `json:"jobs_dispatched"`
	ResultsIngested uint64  `json:"results_ingested"`
	QueueDepth      int     `json:"queue_depth"`
	AllocMemMb      uint64  `json:"alloc_mem_mb"`
	NumGC           uint32  `json:"num_gc"`
	CPUPercent      float64 `json:"cpu_percent"`
	RSSMb           uint64  `json:"rss_mb"`
}

// MonitoringManager collects counters from the workers and samples process
// stats on demand.
type MonitoringManager struct {
	log  *slog.Logger
	proc *process.Process

	mu     sync.RWMutex
	latest MonitoringStats

	eventsAppended  atomic.Uint64
	jobsDispatched  atomic.Uint64
	resultsIngested atomic.Uint64
	queueDepth      func() int
}

// NewMonitoringManager builds a manager; queueDepth reports the
// transcription queue backlog.
func NewMonitoringManager(log *slog.Logger, queueDepth func() int) *MonitoringManager {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process stats unavailable", "error", err)
	}
	return &MonitoringManager{log: log, proc: proc, queueDepth: queueDepth}
}

func (m *MonitoringManager) EventAppended()  { m.eventsAppended.Add(1) }
func (m *MonitoringManager) JobDispatched()  { m.jobsDispatched.Add(1) }
func (m *MonitoringManager) ResultIngested() { m.resultsIngested.Add(1) }

// Sample refreshes and returns the latest snapshot.
func (m *MonitoringManager) Sample(ctx context.Context) MonitoringStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := MonitoringStats{
		EventsAppended:  m.eventsAppended.Load(),
		JobsDispatched:  m.jobsDispatched.Load(),
		ResultsIngested: m.resultsIngested.Load(),
		AllocMemMb:      mem.Alloc / 1024 / 1024,
		NumGC:           mem.NumGC,
	}
	if m.queueDepth != nil {
		stats.QueueDepth = m.queueDepth()
	}
	if m.proc != nil {
		if cpu, err := m.proc.CPUPercentWithContext(ctx); err == nil {
			stats.CPUPercent = cpu
		}
		if info, err := m.proc.MemoryInfoWithContext(ctx); err == nil {
			stats.RSSMb = info.RSS / 1024 / 1024
		}
	}

	m.mu.Lock()
	m.latest = stats
	m.mu.Unlock()
	return stats
}

// GetLatest returns the last sampled snapshot without refreshing.
func (m *MonitoringManager) GetLatest() MonitoringStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// AsStatsProvider adapts the manager for the debug endpoint.
func (m *MonitoringManager) AsStatsProvider() func() map[string]any {
	return func() map[string]any {
		stats := m.GetLatest()
		return map[string]any{
			"EventsAppended":  stats.EventsAppended,
			"JobsDispatched":  stats.JobsDispatched,
			"ResultsIngested": stats.ResultsIngested,
			"QueueDepth":      stats.QueueDepth,
			"AllocMemMb":      stats.AllocMemMb,
			"CPUPercent":      stats.CPUPercent,
			"Time":            time.Now().UTC().Format(time.RFC822),
		}
	}
}
