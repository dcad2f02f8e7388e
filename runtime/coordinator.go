// Package runtime wires intents, the event store, the projection and the
// transcription gateway into the consultation state machine.
package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"
	"mediscribe/integrity"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// maxConflictRetries bounds how often an intent is replayed after losing an
// optimistic-concurrency race before the conflict is surfaced to the caller.
const maxConflictRetries = 3

// Coordinator is the façade that turns valid intents into appended events.
// Every intent reads the current projection first; a rejected intent never
// appends anything. Successful appends are published to the fan-out channel
// for the derived read models.
type Coordinator struct {
	store      contract.EventStore
	projector  contract.Projector
	gateway    contract.DispatchGateway
	quarantine *integrity.Quarantine
	events     chan<- event.Event
	validate   *validator.Validate
	log        *slog.Logger
}

func NewCoordinator(
	store contract.EventStore,
	projector contract.Projector,
	gateway contract.DispatchGateway,
	quarantine *integrity.Quarantine,
	events chan<- event.Event,
	log *slog.Logger,
) *Coordinator {
	return &Coordinator{
		store:      store,
		projector:  projector,
		gateway:    gateway,
		quarantine: quarantine,
		events:     events,
		validate:   validator.New(),
		log:        log,
	}
}

// Start opens a new consultation. The first event of a chain has sequence 0,
// so a conflict here means somebody else already started it.
func (c *Coordinator) Start(ctx context.Context, intent domain.StartConsultation) (event.Event, error) {
	if err := c.validate.Struct(intent); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if c.quarantine.Has(intent.ConsultationID) {
		return event.Event{}, fmt.Errorf("%w: %s is quarantined", apperrors.ErrChainBroken, intent.ConsultationID)
	}

	if _, ok, err := c.store.Tail(ctx, intent.ConsultationID); err != nil {
		return event.Event{}, err
	} else if ok {
		return event.Event{}, fmt.Errorf("%w: %s", apperrors.ErrAlreadyStarted, intent.ConsultationID)
	}

	draft, err := event.NewDraft(intent.ConsultationID, intent.ActorID, event.ConsultationStarted{
		PatientRef:  intent.PatientRef,
		ClinicianID: intent.ClinicianID,
	})
	if err != nil {
		return event.Event{}, err
	}

	stored, err := c.store.Append(ctx, 0, draft)
	if stderrors.Is(err, apperrors.ErrSequenceConflict) {
		return event.Event{}, fmt.Errorf("%w: %s", apperrors.ErrAlreadyStarted, intent.ConsultationID)
	}
	if err != nil {
		return event.Event{}, err
	}

	c.publish(stored)
	return stored, nil
}

// AttachAudio records an audio reference on an open consultation and hands
// it to the transcription pipeline. When the reference resolves to a local
// file its content type is sniffed and must be audio.
func (c *Coordinator) AttachAudio(ctx context.Context, intent domain.AttachAudio) (event.Event, error) {
	if err := c.validate.Struct(intent); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	payload := event.AudioAttached{AudioRef: intent.AudioRef}
	if info, err := os.Stat(string(intent.AudioRef)); err == nil && !info.IsDir() {
		mime, err := mimetype.DetectFile(string(intent.AudioRef))
		if err != nil {
			return event.Event{}, fmt.Errorf("sniff %s: %w", intent.AudioRef, err)
		}
		if !strings.HasPrefix(mime.String(), "audio/") {
			return event.Event{}, fmt.Errorf("%w: %s detected as %s",
				apperrors.ErrUnsupportedAudio, intent.AudioRef, mime.String())
		}
		payload.MimeType = mime.String()
		payload.SizeBytes = info.Size()
	}

	stored, err := c.appendWithRetry(ctx, intent.ConsultationID, intent.ActorID, payload,
		func(note domain.ClinicalNote) error {
			if note.Closed() {
				return fmt.Errorf("%w: %s", apperrors.ErrConsultationClosed, intent.ConsultationID)
			}
			return nil
		})
	if err != nil {
		return event.Event{}, err
	}

	// The event is durable first; only then does the job enter the
	// dispatch pipeline. If the submit fails here the caller re-attaches
	// the same reference: the gateway dedupes open jobs per audio ref, so
	// the retry queues exactly one transcription.
	if _, err := c.gateway.Submit(ctx, intent.ConsultationID, intent.AudioRef); err != nil {
		return stored, fmt.Errorf("audio attached but transcription submit failed: %w", err)
	}
	return stored, nil
}

// UpdateSection overwrites one SOAP section of an open consultation.
func (c *Coordinator) UpdateSection(ctx context.Context, intent domain.UpdateSection) (event.Event, error) {
	if err := c.validate.Struct(intent); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !intent.Section.Valid() {
		return event.Event{}, fmt.Errorf("%w: unknown section %q", apperrors.ErrValidation, intent.Section)
	}

	payload := event.NoteSectionUpdated{Section: intent.Section, Content: intent.Content}
	return c.appendWithRetry(ctx, intent.ConsultationID, intent.ActorID, payload,
		func(note domain.ClinicalNote) error {
			if note.Closed() {
				return fmt.Errorf("%w: section %s is frozen", apperrors.ErrConsultationClosed, intent.Section)
			}
			return nil
		})
}

// AmendSection appends a post-finalization correction. The projection
// surfaces it as an amendment; the frozen section text stays untouched.
func (c *Coordinator) AmendSection(ctx context.Context, intent domain.AmendSection) (event.Event, error) {
	if err := c.validate.Struct(intent); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if !intent.Section.Valid() {
		return event.Event{}, fmt.Errorf("%w: unknown section %q", apperrors.ErrValidation, intent.Section)
	}

	payload := event.NoteSectionUpdated{
		Section: intent.Section,
		Content: intent.Content,
		Reason:  intent.Reason,
	}
	return c.appendWithRetry(ctx, intent.ConsultationID, intent.ActorID, payload,
		func(note domain.ClinicalNote) error {
			if !note.Closed() {
				return fmt.Errorf("%w: amendments require a finalized note", apperrors.ErrNotFinalized)
			}
			return nil
		})
}

// Finalize closes a consultation. Every attached audio must have an
// observed outcome first, so no finalized note silently omits outstanding
// dictation.
func (c *Coordinator) Finalize(ctx context.Context, intent domain.Finalize) (event.Event, error) {
	if err := c.validate.Struct(intent); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	return c.appendWithRetry(ctx, intent.ConsultationID, intent.ActorID, event.ConsultationFinalized{},
		func(note domain.ClinicalNote) error {
			if note.Closed() {
				return fmt.Errorf("%w: %s", apperrors.ErrConsultationClosed, intent.ConsultationID)
			}
			if pending := note.PendingAudio(); len(pending) > 0 {
				return fmt.Errorf("%w: %v", apperrors.ErrPendingAudio, pending)
			}
			return nil
		})
}

// appendWithRetry projects the current state, runs the business-rule guard,
// and appends at the projected tail. Losing an append race re-reads and
// retries; the guard runs again on every attempt so a rule that became
// false in the meantime still rejects the intent. A quarantined chain
// rejects every write without touching the projection.
func (c *Coordinator) appendWithRetry(
	ctx context.Context,
	cid domain.ConsultationID,
	actorID string,
	payload event.Payload,
	guard func(domain.ClinicalNote) error,
) (event.Event, error) {
	if c.quarantine.Has(cid) {
		return event.Event{}, fmt.Errorf("%w: %s is quarantined", apperrors.ErrChainBroken, cid)
	}

	draft, err := event.NewDraft(cid, actorID, payload)
	if err != nil {
		return event.Event{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		note, err := c.projector.Project(ctx, cid)
		if err != nil {
			return event.Event{}, err
		}
		if err := guard(note); err != nil {
			return event.Event{}, err
		}

		stored, err := c.store.Append(ctx, note.AppliedThrough+1, draft)
		if stderrors.Is(err, apperrors.ErrSequenceConflict) {
			c.log.Debug("Append race lost, re-reading projection",
				"consultation", cid, "attempt", attempt)
			lastErr = err
			continue
		}
		if err != nil {
			return event.Event{}, err
		}

		c.publish(stored)
		return stored, nil
	}
	return event.Event{}, lastErr
}

// publish hands the event to the fan-out channel. Sinks are rebuildable
// read models, so a full channel drops rather than blocks the append path.
func (c *Coordinator) publish(e event.Event) {
	select {
	case c.events <- e:
	default:
		c.log.Warn("Event fan-out channel full, sinks will catch up from the store",
			"consultation", e.ConsultationID, "sequence", e.Sequence)
	}
}
