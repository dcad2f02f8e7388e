package workers

import (
	"context"
	"log/slog"

	"mediscribe/contract"
	"mediscribe/domain/event"
)

// EventFanout broadcasts appended events to in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker:
// every sink is a rebuildable read model (projection cache, search index)
// that can catch up from the event store on its own.
type EventFanout struct {
	log    *slog.Logger
	events chan event.Event
	sinks  []contract.EventSink
}

func NewEventFanout(log *slog.Logger, events chan event.Event) *EventFanout {
	return &EventFanout{log: log, events: events}
}

func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fan-out")
			return nil
		case e := <-w.events:
			w.fanout(ctx, e)
		}
	}
}

// fanout delivers one event to every sink. A failing sink is logged and
// skipped; it must never stall the others.
func (w *EventFanout) fanout(ctx context.Context, e event.Event) {
	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, e); err != nil {
			w.log.Warn("Sink rejected event",
				"consultation", e.ConsultationID,
				"sequence", e.Sequence,
				"error", err)
		}
	}
}
