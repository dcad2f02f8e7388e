package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"
	"mediscribe/integrity"
	"mediscribe/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type coordinatorFixture struct {
	store      *mocks.MockEventStore
	projector  *mocks.MockProjector
	gateway    *mocks.MockDispatchGateway
	quarantine *integrity.Quarantine
	events     chan event.Event
	sut        *Coordinator
}

func newCoordinatorFixture(t *testing.T) coordinatorFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := coordinatorFixture{
		store:      mocks.NewMockEventStore(ctrl),
		projector:  mocks.NewMockProjector(ctrl),
		gateway:    mocks.NewMockDispatchGateway(ctrl),
		quarantine: integrity.NewQuarantine(),
		events:     make(chan event.Event, 8),
	}
	f.sut = NewCoordinator(f.store, f.projector, f.gateway, f.quarantine, f.events, slog.Default())
	return f
}

func openNote(cid domain.ConsultationID, tail uint64) domain.ClinicalNote {
	return domain.ClinicalNote{
		ConsultationID: cid,
		Status:         domain.StatusOpen,
		Sections:       map[domain.Section]domain.SectionContent{},
		Transcripts:    map[domain.AudioRef]domain.Transcript{},
		AppliedThrough: tail,
	}
}

func closedNote(cid domain.ConsultationID, tail uint64) domain.ClinicalNote {
	note := openNote(cid, tail)
	note.Status = domain.StatusClosed
	return note
}

func Test_Start_Appends_Genesis_And_Publishes(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.store.EXPECT().Tail(ctx, cid).Return(uint64(0), false, nil)
	f.store.EXPECT().
		Append(ctx, uint64(0), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uint64, draft event.Draft) (event.Event, error) {
			req.Equal(event.TypeConsultationStarted, draft.Type)
			req.Equal("dr-house", draft.ActorID)
			return event.Event{ConsultationID: cid, Sequence: 0, Type: draft.Type}, nil
		})

	stored, err := f.sut.Start(ctx, domain.StartConsultation{
		ConsultationID: cid,
		ActorID:        "dr-house",
		PatientRef:     "patient-42",
		ClinicianID:    "dr-house",
	})
	req.NoError(err)
	req.Equal(uint64(0), stored.Sequence)

	// The appended event reaches the fan-out channel.
	published := <-f.events
	req.Equal(stored, published)
}

func Test_Start_Twice_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.store.EXPECT().Tail(ctx, cid).Return(uint64(3), true, nil)

	_, err := f.sut.Start(ctx, domain.StartConsultation{
		ConsultationID: cid, ActorID: "dr-house", PatientRef: "p", ClinicianID: "c",
	})
	req.ErrorIs(err, apperrors.ErrAlreadyStarted)
}

func Test_Start_Race_Loser_Gets_AlreadyStarted(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.store.EXPECT().Tail(ctx, cid).Return(uint64(0), false, nil)
	f.store.EXPECT().
		Append(ctx, uint64(0), gomock.Any()).
		Return(event.Event{}, apperrors.ErrSequenceConflict)

	_, err := f.sut.Start(ctx, domain.StartConsultation{
		ConsultationID: cid, ActorID: "dr-house", PatientRef: "p", ClinicianID: "c",
	})
	req.ErrorIs(err, apperrors.ErrAlreadyStarted)
}

func Test_Start_Validates_Intent(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	_, err := f.sut.Start(context.Background(), domain.StartConsultation{
		ConsultationID: "consult-1",
	})
	req.ErrorIs(err, apperrors.ErrValidation)
}

func Test_UpdateSection_On_Closed_Consultation(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.projector.EXPECT().Project(ctx, cid).Return(closedNote(cid, 5), nil)

	_, err := f.sut.UpdateSection(ctx, domain.UpdateSection{
		ConsultationID: cid, ActorID: "dr-house",
		Section: domain.SectionPlan, Content: "rest",
	})
	req.ErrorIs(err, apperrors.ErrConsultationClosed)
}

func Test_UpdateSection_Rejects_Unknown_Section(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	_, err := f.sut.UpdateSection(context.Background(), domain.UpdateSection{
		ConsultationID: "consult-1", ActorID: "dr-house",
		Section: "biography", Content: "text",
	})
	req.ErrorIs(err, apperrors.ErrValidation)
}

func Test_UpdateSection_Retries_After_Losing_The_Race(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	// First attempt loses to a concurrent append, second sees the new tail.
	f.projector.EXPECT().Project(ctx, cid).Return(openNote(cid, 2), nil)
	f.store.EXPECT().Append(ctx, uint64(3), gomock.Any()).
		Return(event.Event{}, apperrors.ErrSequenceConflict)
	f.projector.EXPECT().Project(ctx, cid).Return(openNote(cid, 3), nil)
	f.store.EXPECT().Append(ctx, uint64(4), gomock.Any()).
		Return(event.Event{ConsultationID: cid, Sequence: 4}, nil)

	stored, err := f.sut.UpdateSection(ctx, domain.UpdateSection{
		ConsultationID: cid, ActorID: "dr-house",
		Section: domain.SectionPlan, Content: "rest",
	})
	req.NoError(err)
	req.Equal(uint64(4), stored.Sequence)
}

func Test_AmendSection_Requires_Finalized_Note(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.projector.EXPECT().Project(ctx, cid).Return(openNote(cid, 2), nil)

	_, err := f.sut.AmendSection(ctx, domain.AmendSection{
		ConsultationID: cid, ActorID: "dr-house",
		Section: domain.SectionAssessment, Content: "corrected", Reason: "late labs",
	})
	req.ErrorIs(err, apperrors.ErrNotFinalized)
}

func Test_AmendSection_On_Finalized_Note_Appends(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.projector.EXPECT().Project(ctx, cid).Return(closedNote(cid, 4), nil)
	f.store.EXPECT().
		Append(ctx, uint64(5), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uint64, draft event.Draft) (event.Event, error) {
			req.Equal(event.TypeNoteSectionUpdated, draft.Type)
			req.Contains(string(draft.Payload), "late labs")
			return event.Event{ConsultationID: cid, Sequence: 5, Type: draft.Type}, nil
		})

	_, err := f.sut.AmendSection(ctx, domain.AmendSection{
		ConsultationID: cid, ActorID: "dr-house",
		Section: domain.SectionAssessment, Content: "corrected", Reason: "late labs",
	})
	req.NoError(err)
}

func Test_Finalize_Blocked_By_Pending_Audio(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	note := openNote(cid, 2)
	note.Transcripts["audio-1.wav"] = domain.Transcript{
		AudioRef: "audio-1.wav",
		Status:   domain.TranscriptPending,
	}
	f.projector.EXPECT().Project(ctx, cid).Return(note, nil)

	_, err := f.sut.Finalize(ctx, domain.Finalize{ConsultationID: cid, ActorID: "dr-house"})
	req.ErrorIs(err, apperrors.ErrPendingAudio)
}

func Test_Finalize_Twice_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.projector.EXPECT().Project(ctx, cid).Return(closedNote(cid, 6), nil)

	_, err := f.sut.Finalize(ctx, domain.Finalize{ConsultationID: cid, ActorID: "dr-house"})
	req.ErrorIs(err, apperrors.ErrConsultationClosed)
}

func Test_AttachAudio_Submits_After_Durable_Append(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")
	ref := domain.AudioRef("s3://bucket/consult-1/take-1.wav")

	f.projector.EXPECT().Project(ctx, cid).Return(openNote(cid, 0), nil)
	appended := f.store.EXPECT().
		Append(ctx, uint64(1), gomock.Any()).
		Return(event.Event{ConsultationID: cid, Sequence: 1, Type: event.TypeAudioAttached}, nil)
	f.gateway.EXPECT().Submit(ctx, cid, ref).Return(uuid.New(), nil).After(appended)

	_, err := f.sut.AttachAudio(ctx, domain.AttachAudio{
		ConsultationID: cid, ActorID: "dr-house", AudioRef: ref,
	})
	req.NoError(err)
}

func Test_AttachAudio_Rejects_Non_Audio_File(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	req.NoError(os.WriteFile(path, []byte("just some prose, definitely not audio"), 0o600))

	_, err := f.sut.AttachAudio(context.Background(), domain.AttachAudio{
		ConsultationID: "consult-1", ActorID: "dr-house", AudioRef: domain.AudioRef(path),
	})
	req.ErrorIs(err, apperrors.ErrUnsupportedAudio)
}

func Test_AttachAudio_On_Closed_Consultation(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	f.projector.EXPECT().Project(ctx, cid).Return(closedNote(cid, 7), nil)

	_, err := f.sut.AttachAudio(ctx, domain.AttachAudio{
		ConsultationID: cid, ActorID: "dr-house", AudioRef: "s3://bucket/audio.wav",
	})
	req.ErrorIs(err, apperrors.ErrConsultationClosed)
}

func Test_AttachAudio_Can_Be_Reattached_After_Submit_Failure(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")
	ref := domain.AudioRef("s3://bucket/consult-1/take-1.wav")
	intent := domain.AttachAudio{ConsultationID: cid, ActorID: "dr-house", AudioRef: ref}

	// First attempt: the event is durable but the job never gets queued.
	f.projector.EXPECT().Project(ctx, cid).Return(openNote(cid, 0), nil)
	f.store.EXPECT().
		Append(ctx, uint64(1), gomock.Any()).
		Return(event.Event{ConsultationID: cid, Sequence: 1, Type: event.TypeAudioAttached}, nil)
	f.gateway.EXPECT().Submit(ctx, cid, ref).
		Return(uuid.Nil, fmt.Errorf("badger: disk full"))

	stored, err := f.sut.AttachAudio(ctx, intent)
	req.ErrorContains(err, "transcription submit failed")
	req.Equal(uint64(1), stored.Sequence)

	// Re-attaching the same ref recovers: another event, and this time the
	// submit lands. The gateway dedupes open jobs per ref, so even if the
	// first enqueue had partially survived this queues one transcription.
	f.projector.EXPECT().Project(ctx, cid).Return(openNote(cid, 1), nil)
	f.store.EXPECT().
		Append(ctx, uint64(2), gomock.Any()).
		Return(event.Event{ConsultationID: cid, Sequence: 2, Type: event.TypeAudioAttached}, nil)
	f.gateway.EXPECT().Submit(ctx, cid, ref).Return(uuid.New(), nil)

	stored, err = f.sut.AttachAudio(ctx, intent)
	req.NoError(err)
	req.Equal(uint64(2), stored.Sequence)
}

func Test_Write_Intents_Rejected_On_Quarantined_Chain(t *testing.T) {
	req := require.New(t)
	f := newCoordinatorFixture(t)
	ctx := context.Background()
	cid := domain.ConsultationID("consult-tampered")
	f.quarantine.Add(cid)

	// No store or projector expectations: a quarantined chain is rejected
	// before anything is read.
	_, err := f.sut.UpdateSection(ctx, domain.UpdateSection{
		ConsultationID: cid, ActorID: "dr-house",
		Section: domain.SectionSubjective, Content: "unreachable",
	})
	req.ErrorIs(err, apperrors.ErrChainBroken)

	_, err = f.sut.Start(ctx, domain.StartConsultation{
		ConsultationID: cid, ActorID: "dr-house",
		PatientRef: "patient-42", ClinicianID: "dr-house",
	})
	req.ErrorIs(err, apperrors.ErrChainBroken)
	req.Empty(f.events)
}
