package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func mkEvent(t *testing.T, cid domain.ConsultationID, seq uint64, actor string, p event.Payload) event.Event {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return event.Event{
		ID:             uuid.New(),
		ConsultationID: cid,
		Sequence:       seq,
		Type:           p.EventType(),
		Payload:        raw,
		ActorID:        actor,
		At:             testBase.Add(time.Duration(seq) * time.Minute),
	}
}

// sliceStore is a read-only in-memory EventStore over a fixed chain.
type sliceStore struct {
	cid    domain.ConsultationID
	events []event.Event
}

func (s *sliceStore) Append(context.Context, uint64, event.Draft) (event.Event, error) {
	return event.Event{}, fmt.Errorf("sliceStore is read-only")
}

func (s *sliceStore) Read(ctx context.Context, cid domain.ConsultationID) ([]event.Event, error) {
	return s.ReadFrom(ctx, cid, 0, 0)
}

func (s *sliceStore) ReadFrom(_ context.Context, cid domain.ConsultationID, from uint64, limit int) ([]event.Event, error) {
	if cid != s.cid {
		return nil, nil
	}
	var out []event.Event
	for _, e := range s.events {
		if e.Sequence >= from {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *sliceStore) Tail(_ context.Context, cid domain.ConsultationID) (uint64, bool, error) {
	if cid != s.cid || len(s.events) == 0 {
		return 0, false, nil
	}
	return s.events[len(s.events)-1].Sequence, true, nil
}

func (s *sliceStore) Consultations(context.Context) ([]domain.ConsultationID, error) {
	if len(s.events) == 0 {
		return nil, nil
	}
	return []domain.ConsultationID{s.cid}, nil
}

var _ contract.EventStore = (*sliceStore)(nil)

func consultationScenario(t *testing.T, cid domain.ConsultationID) []event.Event {
	t.Helper()
	jobID := uuid.New()
	return []event.Event{
		mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "patient-42", ClinicianID: "dr-house"}),
		mkEvent(t, cid, 1, "dr-house", event.AudioAttached{AudioRef: "audio-1.wav"}),
		mkEvent(t, cid, 2, "transcription-worker-pool", event.TranscriptReceived{
			AudioRef: "audio-1.wav", JobID: jobID, Text: "patient reports headache",
		}),
		mkEvent(t, cid, 3, "dr-house", event.NoteSectionUpdated{
			Section: domain.SectionSubjective, Content: "Headache since monday, transcribed from dictation.",
		}),
		mkEvent(t, cid, 4, "dr-house", event.ConsultationFinalized{}),
	}
}

func Test_Fold_Full_Consultation(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-1")

	note, err := Fold(consultationScenario(t, cid))
	req.NoError(err)

	req.Equal(cid, note.ConsultationID)
	req.Equal(domain.StatusClosed, note.Status)
	req.Equal("patient-42", note.PatientRef)
	req.Equal(uint64(4), note.AppliedThrough)
	req.NotNil(note.FinalizedAt)

	transcript := note.Transcripts["audio-1.wav"]
	req.Equal(domain.TranscriptReceived, transcript.Status)
	req.Equal("patient reports headache", transcript.Text)
	req.Empty(note.PendingAudio())

	subjective := note.Sections[domain.SectionSubjective]
	req.Equal("Headache since monday, transcribed from dictation.", subjective.Text)
	req.Equal(uint64(3), subjective.Sequence)
}

func Test_Fold_Attached_Audio_Is_Pending_Until_Outcome(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-pending")

	note, err := Fold([]event.Event{
		mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "p", ClinicianID: "c"}),
		mkEvent(t, cid, 1, "dr-house", event.AudioAttached{AudioRef: "audio-1.wav"}),
	})
	req.NoError(err)
	req.Equal([]domain.AudioRef{"audio-1.wav"}, note.PendingAudio())
	req.Equal(domain.TranscriptPending, note.Transcripts["audio-1.wav"].Status)
}

func Test_Fold_Repeated_Transcripts_Accumulate(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-chunks")
	jobID := uuid.New()

	note, err := Fold([]event.Event{
		mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "p", ClinicianID: "c"}),
		mkEvent(t, cid, 1, "dr-house", event.AudioAttached{AudioRef: "audio-1.wav"}),
		mkEvent(t, cid, 2, "transcription-worker-pool", event.TranscriptReceived{AudioRef: "audio-1.wav", JobID: jobID, Text: "first chunk"}),
		mkEvent(t, cid, 3, "transcription-worker-pool", event.TranscriptReceived{AudioRef: "audio-1.wav", JobID: jobID, Text: "second chunk"}),
	})
	req.NoError(err)
	req.Equal("first chunk\nsecond chunk", note.Transcripts["audio-1.wav"].Text)
}

func Test_Fold_Sections_Are_Last_Write_Wins(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-lww")

	note, err := Fold([]event.Event{
		mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "p", ClinicianID: "c"}),
		mkEvent(t, cid, 1, "dr-house", event.NoteSectionUpdated{Section: domain.SectionPlan, Content: "rest"}),
		mkEvent(t, cid, 2, "dr-wilson", event.NoteSectionUpdated{Section: domain.SectionPlan, Content: "rest and hydration"}),
	})
	req.NoError(err)

	plan := note.Sections[domain.SectionPlan]
	req.Equal("rest and hydration", plan.Text)
	req.Equal("dr-wilson", plan.ActorID)
	req.Equal(uint64(2), plan.Sequence)
}

func Test_Fold_Post_Finalize_Update_Becomes_Amendment(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-amend")

	note, err := Fold([]event.Event{
		mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "p", ClinicianID: "c"}),
		mkEvent(t, cid, 1, "dr-house", event.NoteSectionUpdated{Section: domain.SectionAssessment, Content: "original assessment"}),
		mkEvent(t, cid, 2, "dr-house", event.ConsultationFinalized{}),
		mkEvent(t, cid, 3, "dr-house", event.NoteSectionUpdated{
			Section: domain.SectionAssessment, Content: "corrected assessment", Reason: "lab results arrived late",
		}),
	})
	req.NoError(err)

	// The frozen section text is untouched; the correction sits next to it.
	req.Equal("original assessment", note.Sections[domain.SectionAssessment].Text)
	req.Len(note.Amendments, 1)
	req.Equal("corrected assessment", note.Amendments[0].Content)
	req.Equal(uint64(3), note.Amendments[0].Sequence)
}

func Test_Fold_Failure_Never_Downgrades_A_Received_Transcript(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-dup")
	jobID := uuid.New()

	note, err := Fold([]event.Event{
		mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "p", ClinicianID: "c"}),
		mkEvent(t, cid, 1, "dr-house", event.AudioAttached{AudioRef: "audio-1.wav"}),
		mkEvent(t, cid, 2, "transcription-worker-pool", event.TranscriptReceived{AudioRef: "audio-1.wav", JobID: jobID, Text: "done"}),
		mkEvent(t, cid, 3, "transcription-worker-pool", event.TranscriptionFailed{AudioRef: "audio-1.wav", JobID: jobID, Reason: "timeout"}),
	})
	req.NoError(err)
	req.Equal(domain.TranscriptReceived, note.Transcripts["audio-1.wav"].Status)
	req.Equal("done", note.Transcripts["audio-1.wav"].Text)
}

func Test_Project_Unknown_Consultation(t *testing.T) {
	req := require.New(t)
	projector := NewNoteProjector(&sliceStore{cid: "consult-x"}, slog.Default())

	_, err := projector.Project(context.Background(), "consult-x")
	req.ErrorIs(err, apperrors.ErrConsultationNotFound)
}

func Test_Project_Rebuild_And_Catch_Up(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-cache")
	chain := consultationScenario(t, cid)
	store := &sliceStore{cid: cid, events: chain[:3]}
	projector := NewNoteProjector(store, slog.Default())
	ctx := context.Background()

	// Cold cache: full rebuild.
	note, err := projector.Project(ctx, cid)
	req.NoError(err)
	req.Equal(uint64(2), note.AppliedThrough)

	// Store advances behind the projector's back; Project catches up.
	store.events = chain
	note, err = projector.Project(ctx, cid)
	req.NoError(err)
	req.Equal(uint64(4), note.AppliedThrough)
	req.Equal(domain.StatusClosed, note.Status)

	// The cached path must agree with a full replay.
	replayed, err := Fold(chain)
	req.NoError(err)
	req.Equal(replayed, note)
}

func Test_Project_Returns_A_Copy(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-copy")
	store := &sliceStore{cid: cid, events: consultationScenario(t, cid)}
	projector := NewNoteProjector(store, slog.Default())
	ctx := context.Background()

	first, err := projector.Project(ctx, cid)
	req.NoError(err)
	first.Sections[domain.SectionSubjective] = domain.SectionContent{Text: "caller scribbles"}

	second, err := projector.Project(ctx, cid)
	req.NoError(err)
	req.NotEqual("caller scribbles", second.Sections[domain.SectionSubjective].Text)
}

func Test_Consume_Gap_Drops_Cache_Entry(t *testing.T) {
	req := require.New(t)
	cid := domain.ConsultationID("consult-gap")
	chain := consultationScenario(t, cid)
	store := &sliceStore{cid: cid, events: chain}
	projector := NewNoteProjector(store, slog.Default())
	ctx := context.Background()

	req.NoError(projector.Consume(ctx, chain[0]))
	req.NoError(projector.Consume(ctx, chain[1]))

	// Sequence 3 arrives without 2: the stale entry must go.
	req.NoError(projector.Consume(ctx, chain[3]))

	projector.mu.RLock()
	_, hit := projector.cache[cid]
	projector.mu.RUnlock()
	req.False(hit)

	// Next Project rebuilds from the store and is correct again.
	note, err := projector.Project(ctx, cid)
	req.NoError(err)
	replayed, err := Fold(chain)
	req.NoError(err)
	req.Equal(replayed, note)
}

// Incremental consumption through the sink must agree with a full replay for
// any stream, whatever the split point.
func Test_Incremental_View_Equals_Replay(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	properties.Property("consume-then-project equals fold", prop.ForAll(
		func(contents []string, split int) bool {
			cid := domain.ConsultationID("consult-prop")
			sections := []domain.Section{
				domain.SectionSubjective, domain.SectionObjective,
				domain.SectionAssessment, domain.SectionPlan,
			}

			chain := []event.Event{
				mkEvent(t, cid, 0, "dr-house", event.ConsultationStarted{PatientRef: "p", ClinicianID: "c"}),
			}
			for i, content := range contents {
				chain = append(chain, mkEvent(t, cid, uint64(i+1), "dr-house", event.NoteSectionUpdated{
					Section: sections[i%len(sections)],
					Content: content,
				}))
			}

			store := &sliceStore{cid: cid, events: chain}
			projector := NewNoteProjector(store, slog.Default())
			ctx := context.Background()

			k := split % len(chain)
			for _, e := range chain[:k] {
				if err := projector.Consume(ctx, e); err != nil {
					return false
				}
			}

			projected, err := projector.Project(ctx, cid)
			if err != nil {
				return false
			}
			replayed, err := Fold(chain)
			if err != nil {
				return false
			}
			return projected.AppliedThrough == replayed.AppliedThrough &&
				fmt.Sprint(projected.Sections) == fmt.Sprint(replayed.Sections)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 64),
	))
	properties.TestingRun(t)
}
