package storage

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func startDraft(t *testing.T, cid domain.ConsultationID) event.Draft {
	t.Helper()
	draft, err := event.NewDraft(cid, "dr-house", event.ConsultationStarted{
		PatientRef:  "patient-42",
		ClinicianID: "dr-house",
	})
	require.NoError(t, err)
	return draft
}

func sectionDraft(t *testing.T, cid domain.ConsultationID, content string) event.Draft {
	t.Helper()
	draft, err := event.NewDraft(cid, "dr-house", event.NoteSectionUpdated{
		Section: domain.SectionSubjective,
		Content: content,
	})
	require.NoError(t, err)
	return draft
}

func Test_Append_And_Read_Chain(t *testing.T) {
	req := require.New(t)
	repo := NewEventRepository(newTestDB(t), slog.Default())
	ctx := context.Background()
	cid := domain.ConsultationID("consult-1")

	first, err := repo.Append(ctx, 0, startDraft(t, cid))
	req.NoError(err)
	second, err := repo.Append(ctx, 1, sectionDraft(t, cid, "patient reports headache"))
	req.NoError(err)
	third, err := repo.Append(ctx, 2, sectionDraft(t, cid, "worsening since monday"))
	req.NoError(err)

	// The chain links each event to its predecessor's hash.
	req.Equal(uint64(0), first.Sequence)
	req.Equal(event.GenesisHash, first.PrevHash)
	req.Equal(first.Hash, second.PrevHash)
	req.Equal(second.Hash, third.PrevHash)
	req.NotEmpty(third.Hash)

	chain, err := repo.Read(ctx, cid)
	req.NoError(err)
	req.Len(chain, 3)
	req.Equal([]event.Event{first, second, third}, chain)
}

func Test_ReadFrom_Pages_Through_The_Chain(t *testing.T) {
	req := require.New(t)
	repo := NewEventRepository(newTestDB(t), slog.Default())
	ctx := context.Background()
	cid := domain.ConsultationID("consult-paged")

	_, err := repo.Append(ctx, 0, startDraft(t, cid))
	req.NoError(err)
	for i := uint64(1); i <= 5; i++ {
		_, err := repo.Append(ctx, i, sectionDraft(t, cid, "entry"))
		req.NoError(err)
	}

	page, err := repo.ReadFrom(ctx, cid, 2, 2)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal(uint64(2), page[0].Sequence)
	req.Equal(uint64(3), page[1].Sequence)
}

func Test_Append_Wrong_Sequence_Is_Rejected(t *testing.T) {
	req := require.New(t)
	repo := NewEventRepository(newTestDB(t), slog.Default())
	ctx := context.Background()
	cid := domain.ConsultationID("consult-seq")

	// Empty chain only accepts sequence 0.
	_, err := repo.Append(ctx, 3, startDraft(t, cid))
	req.ErrorIs(err, apperrors.ErrSequenceConflict)

	_, err = repo.Append(ctx, 0, startDraft(t, cid))
	req.NoError(err)

	// Stale expectation after the tail moved.
	_, err = repo.Append(ctx, 0, sectionDraft(t, cid, "late"))
	req.ErrorIs(err, apperrors.ErrSequenceConflict)
	_, err = repo.Append(ctx, 2, sectionDraft(t, cid, "too far"))
	req.ErrorIs(err, apperrors.ErrSequenceConflict)

	// Nothing was written by the losers.
	chain, err := repo.Read(ctx, cid)
	req.NoError(err)
	req.Len(chain, 1)
}

func Test_Concurrent_Append_Has_Exactly_One_Winner(t *testing.T) {
	req := require.New(t)
	repo := NewEventRepository(newTestDB(t), slog.Default())
	ctx := context.Background()
	cid := domain.ConsultationID("consult-race")

	_, err := repo.Append(ctx, 0, startDraft(t, cid))
	req.NoError(err)

	// Two writers race on the same expected sequence.
	var wg sync.WaitGroup
	results := make(chan error, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := repo.Append(ctx, 1, sectionDraft(t, cid, "racing"))
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		default:
			req.ErrorIs(err, apperrors.ErrSequenceConflict)
			conflicts++
		}
	}
	req.Equal(1, wins)
	req.Equal(1, conflicts)

	chain, err := repo.Read(ctx, cid)
	req.NoError(err)
	req.Len(chain, 2)
}

func Test_Timestamps_Never_Go_Backwards_Within_A_Chain(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	clockValues := []time.Time{now, now.Add(-1 * time.Hour)}
	calls := 0
	repo := NewEventRepository(newTestDB(t), slog.Default()).
		WithClock(func() time.Time {
			at := clockValues[calls%len(clockValues)]
			calls++
			return at
		})
	ctx := context.Background()
	cid := domain.ConsultationID("consult-clock")

	first, err := repo.Append(ctx, 0, startDraft(t, cid))
	req.NoError(err)

	// Wall clock stepped back one hour; the stored timestamp must not.
	second, err := repo.Append(ctx, 1, sectionDraft(t, cid, "after clock step"))
	req.NoError(err)
	req.False(second.At.Before(first.At))
	req.Equal(first.At, second.At)
}

func Test_Tail_And_Consultations(t *testing.T) {
	req := require.New(t)
	repo := NewEventRepository(newTestDB(t), slog.Default())
	ctx := context.Background()

	_, ok, err := repo.Tail(ctx, "unknown")
	req.NoError(err)
	req.False(ok)

	for _, cid := range []domain.ConsultationID{"consult-a", "consult-b"} {
		_, err := repo.Append(ctx, 0, startDraft(t, cid))
		req.NoError(err)
	}
	_, err = repo.Append(ctx, 1, sectionDraft(t, "consult-a", "more"))
	req.NoError(err)

	tail, ok, err := repo.Tail(ctx, "consult-a")
	req.NoError(err)
	req.True(ok)
	req.Equal(uint64(1), tail)

	cids, err := repo.Consultations(ctx)
	req.NoError(err)
	req.ElementsMatch([]domain.ConsultationID{"consult-a", "consult-b"}, cids)
}

func Test_Append_Rejects_Invalid_Drafts(t *testing.T) {
	req := require.New(t)
	repo := NewEventRepository(newTestDB(t), slog.Default())
	ctx := context.Background()

	invalid := []event.Draft{
		{Type: event.TypeConsultationStarted, Payload: []byte("{}"), ActorID: "dr"},
		{ConsultationID: "c", Payload: []byte("{}"), ActorID: "dr"},
		{ConsultationID: "c", Type: event.TypeConsultationStarted, Payload: []byte("{}")},
		{ConsultationID: "c", Type: event.TypeConsultationStarted, ActorID: "dr"},
		{ConsultationID: "c", Type: event.TypeConsultationStarted, Payload: []byte("{not json"), ActorID: "dr"},
	}
	for _, draft := range invalid {
		_, err := repo.Append(ctx, 0, draft)
		req.ErrorIs(err, apperrors.ErrValidation)
	}
}
