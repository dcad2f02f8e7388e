// Package sink holds the fan-out consumers that feed derived read models.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"mediscribe/contract"
	"mediscribe/domain/event"
	"mediscribe/infrastructure/storage"
)

// SearchSink feeds transcript text and note sections into the full-text
// index. Indexing lags appends by design; a missed event only means a
// stale search result until the index is rebuilt.
type SearchSink struct {
	search storage.ISearchRepository
	log    *slog.Logger
}

func NewSearchSink(search storage.ISearchRepository, log *slog.Logger) *SearchSink {
	return &SearchSink{search: search, log: log}
}

var _ contract.EventSink = (*SearchSink)(nil)

func (s *SearchSink) Consume(_ context.Context, e event.Event) error {
	payload, err := event.DecodePayload(e)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case *event.TranscriptReceived:
		return s.search.IndexTranscript(e.ConsultationID, p.AudioRef, e.Sequence, p.Text)
	case *event.NoteSectionUpdated:
		return s.search.IndexSection(e.ConsultationID, p.Section, e.Sequence, p.Content)
	default:
		s.log.Debug(fmt.Sprintf("Not indexed event : %v", e.Type))
		return nil
	}
}
