package sink

import (
	"context"

	"mediscribe/contract"
	"mediscribe/domain/event"
	"mediscribe/observability"
)

// TelemetrySink counts appended events for the monitoring snapshot.
type TelemetrySink struct {
	monitoring *observability.MonitoringManager
}

func NewTelemetrySink(monitoring *observability.MonitoringManager) *TelemetrySink {
	return &TelemetrySink{monitoring: monitoring}
}

var _ contract.EventSink = (*TelemetrySink)(nil)

func (s *TelemetrySink) Consume(_ context.Context, _ event.Event) error {
	s.monitoring.EventAppended()
	return nil
}
