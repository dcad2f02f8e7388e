package runtime

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"
	"mediscribe/infrastructure/storage"
	"mediscribe/moderation"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Gateway bridges the core and the external transcription worker pool.
// Submit persists a queued job and returns immediately; the supervised
// dispatch worker drains the queue towards the pool. OnResult is the single
// path by which outcomes re-enter the system, and is idempotent per job id
// because the pool delivers at-least-once and out of order.
type Gateway struct {
	jobs    storage.IJobRepository
	store   contract.EventStore
	events  chan<- event.Event
	flagger *moderation.Flagger
	log     *slog.Logger
	clock   func() time.Time

	// resultMu serializes result ingestion so two deliveries of the same
	// job cannot both pass the terminal check before either appends.
	resultMu sync.Mutex
}

func NewGateway(
	jobs storage.IJobRepository,
	store contract.EventStore,
	events chan<- event.Event,
	flagger *moderation.Flagger,
	log *slog.Logger,
) *Gateway {
	return &Gateway{
		jobs:    jobs,
		store:   store,
		events:  events,
		flagger: flagger,
		log:     log,
		clock:   time.Now,
	}
}

var _ contract.DispatchGateway = (*Gateway)(nil)

// Submit records a transcription job and returns without waiting for the
// worker pool. The job is durable before this returns, so a crash between
// submit and dispatch loses nothing. Resubmitting an audio reference whose
// job is still open hands back that job instead of queueing a second one,
// so a caller retrying after a partial failure cannot double-transcribe.
func (g *Gateway) Submit(_ context.Context, cid domain.ConsultationID, ref domain.AudioRef) (uuid.UUID, error) {
	job := storage.TranscriptionJob{
		ID:             uuid.New(),
		ConsultationID: cid,
		AudioRef:       ref,
		Status:         storage.JobQueued,
		SubmittedAt:    g.clock().UTC(),
	}
	active, err := g.jobs.Enqueue(job)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue transcription job for %s: %w", cid, err)
	}
	if active.ID != job.ID {
		g.log.Info("Transcription already queued for this audio",
			"job", active.ID, "consultation", cid, "audio", ref)
		return active.ID, nil
	}

	g.log.Info("Transcription job queued",
		"job", job.ID, "consultation", cid, "audio", ref)
	return job.ID, nil
}

// OnResult ingests one outcome from the pool. Unknown and already-resolved
// job ids are duplicate deliveries and are dropped without error; a fresh
// outcome becomes a TranscriptReceived or TranscriptionFailed event. The
// job turns terminal only after that event is durable, so a failed append
// leaves it open and the pool's next redelivery gets another chance.
func (g *Gateway) OnResult(ctx context.Context, jobID uuid.UUID, outcome domain.JobOutcome) error {
	g.resultMu.Lock()
	defer g.resultMu.Unlock()

	job, known, err := g.jobs.Get(jobID)
	if err != nil {
		return fmt.Errorf("look up job %s: %w", jobID, err)
	}
	if !known || job.Status.Terminal() {
		g.log.Debug("Duplicate or unknown transcription result dropped", "job", jobID)
		return nil
	}

	var payload event.Payload
	if outcome.Failed {
		payload = event.TranscriptionFailed{
			AudioRef: job.AudioRef,
			JobID:    job.ID,
			Reason:   outcome.Failure,
		}
	} else {
		flags := g.flagger.Scan(outcome.Transcript)
		if len(flags) > 0 {
			g.log.Warn("Red-flag terms in transcript",
				"consultation", job.ConsultationID, "job", job.ID, "terms", flags)
		}
		payload = event.TranscriptReceived{
			AudioRef: job.AudioRef,
			JobID:    job.ID,
			Text:     outcome.Transcript,
			Language: detectLanguage(outcome.Transcript),
			Flags:    flags,
		}
	}

	stored, err := g.appendWithRetry(ctx, job.ConsultationID, payload)
	if err != nil {
		return err
	}

	final := storage.JobCompleted
	if outcome.Failed {
		final = storage.JobFailed
	}
	if _, _, err := g.jobs.Resolve(jobID, final); err != nil {
		// The outcome is already on the chain; a missing terminal mark only
		// weakens duplicate detection, never the record itself.
		g.log.Error("Outcome recorded but job not marked terminal",
			"job", jobID, "error", err)
	}

	g.log.Info("Transcription outcome recorded",
		"job", job.ID,
		"consultation", job.ConsultationID,
		"type", stored.Type,
		"sequence", stored.Sequence)
	return nil
}

// appendWithRetry appends the outcome event at the current tail, retrying
// when an intent from the coordinator wins the race. Outcome events carry
// the worker pool as actor.
func (g *Gateway) appendWithRetry(ctx context.Context, cid domain.ConsultationID, payload event.Payload) (event.Event, error) {
	draft, err := event.NewDraft(cid, "transcription-worker-pool", payload)
	if err != nil {
		return event.Event{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		tail, ok, err := g.store.Tail(ctx, cid)
		if err != nil {
			return event.Event{}, err
		}
		if !ok {
			return event.Event{}, fmt.Errorf("%w: %s", apperrors.ErrConsultationNotFound, cid)
		}

		stored, err := g.store.Append(ctx, tail+1, draft)
		if stderrors.Is(err, apperrors.ErrSequenceConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return event.Event{}, err
		}

		select {
		case g.events <- stored:
		default:
			g.log.Warn("Event fan-out channel full, sinks will catch up from the store",
				"consultation", stored.ConsultationID, "sequence", stored.Sequence)
		}
		return stored, nil
	}
	return event.Event{}, lastErr
}

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToString(info.Lang)
}
