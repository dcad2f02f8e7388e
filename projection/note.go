// Package projection folds consultation event streams into clinical note
// views. It owns the only cached state in the system, and that cache is
// purely an accelerator: replaying from genesis must always produce a
// bit-identical view.
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"

	"github.com/samber/lo"
)

// NoteProjector serves clinical note views. Project reads through a
// per-consultation cache that is advanced incrementally by Consume (as an
// event sink on the fan-out) or by catching up from the store.
type NoteProjector struct {
	store contract.EventStore
	log   *slog.Logger

	mu    sync.RWMutex
	cache map[domain.ConsultationID]domain.ClinicalNote
}

func NewNoteProjector(store contract.EventStore, log *slog.Logger) *NoteProjector {
	return &NoteProjector{
		store: store,
		log:   log,
		cache: make(map[domain.ConsultationID]domain.ClinicalNote),
	}
}

var _ contract.Projector = (*NoteProjector)(nil)
var _ contract.EventSink = (*NoteProjector)(nil)

// Project returns the current view of a consultation. The cached view is
// used when it already covers the store's tail; otherwise the projector
// catches up from the cached sequence, or rebuilds from genesis.
func (p *NoteProjector) Project(ctx context.Context, cid domain.ConsultationID) (domain.ClinicalNote, error) {
	tail, ok, err := p.store.Tail(ctx, cid)
	if err != nil {
		return domain.ClinicalNote{}, err
	}
	if !ok {
		return domain.ClinicalNote{}, fmt.Errorf("%w: %s", apperrors.ErrConsultationNotFound, cid)
	}

	p.mu.RLock()
	cached, hit := p.cache[cid]
	p.mu.RUnlock()

	if hit && cached.AppliedThrough == tail {
		return cloneNote(cached), nil
	}

	var (
		note domain.ClinicalNote
		from uint64
	)
	if hit && cached.AppliedThrough < tail {
		note = cloneNote(cached)
		from = cached.AppliedThrough + 1
	}

	events, err := p.store.ReadFrom(ctx, cid, from, 0)
	if err != nil {
		return domain.ClinicalNote{}, err
	}
	for _, e := range events {
		if err := Apply(&note, e); err != nil {
			return domain.ClinicalNote{}, err
		}
	}

	p.mu.Lock()
	p.cache[cid] = cloneNote(note)
	p.mu.Unlock()

	return note, nil
}

// Consume advances the cache with a freshly appended event. A gap means
// this sink missed something; the stale entry is dropped and the next
// Project rebuilds from the store.
func (p *NoteProjector) Consume(_ context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cached, hit := p.cache[e.ConsultationID]

	switch {
	case e.Sequence == 0:
		var note domain.ClinicalNote
		if err := Apply(&note, e); err != nil {
			return err
		}
		p.cache[e.ConsultationID] = note
	case hit && cached.AppliedThrough+1 == e.Sequence:
		if err := Apply(&cached, e); err != nil {
			delete(p.cache, e.ConsultationID)
			return err
		}
		p.cache[e.ConsultationID] = cached
	case hit:
		p.log.Debug("Projection cache gap, dropping entry",
			"consultation", e.ConsultationID,
			"cached", cached.AppliedThrough,
			"incoming", e.Sequence)
		delete(p.cache, e.ConsultationID)
	}
	return nil
}

// Fold computes a view from scratch. It is the reference semantics that the
// cached path must agree with.
func Fold(events []event.Event) (domain.ClinicalNote, error) {
	var note domain.ClinicalNote
	for _, e := range events {
		if err := Apply(&note, e); err != nil {
			return domain.ClinicalNote{}, err
		}
	}
	return note, nil
}

// Apply folds one event into the view, in sequence order. The rules here
// are the whole meaning of the event stream; everything else in the system
// is plumbing around them.
func Apply(note *domain.ClinicalNote, e event.Event) error {
	payload, err := event.DecodePayload(e)
	if err != nil {
		return err
	}

	if note.Sections == nil {
		note.Sections = make(map[domain.Section]domain.SectionContent)
	}
	if note.Transcripts == nil {
		note.Transcripts = make(map[domain.AudioRef]domain.Transcript)
	}
	if note.ConsultationID == "" {
		note.ConsultationID = e.ConsultationID
	}

	switch p := payload.(type) {
	case *event.ConsultationStarted:
		// Only the genesis event opens a consultation.
		if e.Sequence != 0 {
			break
		}
		*note = domain.ClinicalNote{
			ConsultationID: e.ConsultationID,
			Status:         domain.StatusOpen,
			PatientRef:     p.PatientRef,
			ClinicianID:    p.ClinicianID,
			Sections:       make(map[domain.Section]domain.SectionContent),
			Transcripts:    make(map[domain.AudioRef]domain.Transcript),
			StartedAt:      e.At,
		}

	case *event.AudioAttached:
		note.Transcripts[p.AudioRef] = domain.Transcript{
			AudioRef: p.AudioRef,
			Status:   domain.TranscriptPending,
		}

	case *event.TranscriptReceived:
		t := note.Transcripts[p.AudioRef]
		t.AudioRef = p.AudioRef
		t.Status = domain.TranscriptReceived
		// Working buffer: repeated transcript events for the same audio
		// accumulate rather than overwrite.
		if t.Text == "" {
			t.Text = p.Text
		} else {
			t.Text += "\n" + p.Text
		}
		t.Language = p.Language
		t.Flags = append(t.Flags, p.Flags...)
		note.Transcripts[p.AudioRef] = t

	case *event.NoteSectionUpdated:
		if note.Closed() {
			// A frozen note is never rewritten; corrections pile up as
			// amendments next to it.
			note.Amendments = append(note.Amendments, domain.Amendment{
				Section:  p.Section,
				Content:  p.Content,
				ActorID:  e.ActorID,
				Sequence: e.Sequence,
				At:       e.At,
			})
			break
		}
		note.Sections[p.Section] = domain.SectionContent{
			Text:      p.Content,
			Sequence:  e.Sequence,
			ActorID:   e.ActorID,
			UpdatedAt: e.At,
		}

	case *event.TranscriptionFailed:
		t := note.Transcripts[p.AudioRef]
		t.AudioRef = p.AudioRef
		if t.Status != domain.TranscriptReceived {
			t.Status = domain.TranscriptFailed
			t.Failure = p.Reason
		}
		note.Transcripts[p.AudioRef] = t

	case *event.ConsultationFinalized:
		note.Status = domain.StatusClosed
		note.FinalizedAt = lo.ToPtr(e.At)
	}

	note.AppliedThrough = e.Sequence
	return nil
}

func cloneNote(n domain.ClinicalNote) domain.ClinicalNote {
	out := n
	out.Sections = maps.Clone(n.Sections)
	out.Transcripts = maps.Clone(n.Transcripts)
	for ref, t := range out.Transcripts {
		t.Flags = slices.Clone(t.Flags)
		out.Transcripts[ref] = t
	}
	out.Amendments = slices.Clone(n.Amendments)
	if n.FinalizedAt != nil {
		out.FinalizedAt = lo.ToPtr(*n.FinalizedAt)
	}
	return out
}
