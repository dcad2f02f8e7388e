//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"mediscribe/domain"
	"mediscribe/domain/event"

	"github.com/google/uuid"
)

// EventStore is the append-only, hash-chained log of consultation events.
// Appends are serialized per consultation through optimistic concurrency:
// nextSequence is the sequence number the new event must receive (0 for the
// first event of a chain); a mismatch with the stored tail yields
// errors.ErrSequenceConflict and nothing is written.
type EventStore interface {
	Append(ctx context.Context, nextSequence uint64, draft event.Draft) (event.Event, error)
	// Read returns the full ordered chain of a consultation.
	Read(ctx context.Context, cid domain.ConsultationID) ([]event.Event, error)
	// ReadFrom pages through a chain starting at fromSequence, so long
	// chains can be walked without loading everything at once.
	ReadFrom(ctx context.Context, cid domain.ConsultationID, fromSequence uint64, limit int) ([]event.Event, error)
	// Tail reports the last assigned sequence number; ok is false for an
	// unknown consultation.
	Tail(ctx context.Context, cid domain.ConsultationID) (seq uint64, ok bool, err error)
	// Consultations lists every consultation id with at least one event.
	Consultations(ctx context.Context) ([]domain.ConsultationID, error)
}

// Projector folds event chains into clinical note views.
type Projector interface {
	Project(ctx context.Context, cid domain.ConsultationID) (domain.ClinicalNote, error)
}

// ChainVerifier walks a stored chain and recomputes every hash. It is
// read-only: a broken chain is reported, never repaired.
type ChainVerifier interface {
	Verify(ctx context.Context, cid domain.ConsultationID) error
}

// DispatchGateway coordinates with the external transcription worker pool.
// Submit is fire-and-forget; OnResult is the single path by which outcomes
// re-enter the system and must be idempotent per job id.
type DispatchGateway interface {
	Submit(ctx context.Context, cid domain.ConsultationID, ref domain.AudioRef) (uuid.UUID, error)
	OnResult(ctx context.Context, jobID uuid.UUID, outcome domain.JobOutcome) error
}

// Transcriber is the client side of the external worker pool.
type Transcriber interface {
	Transcribe(ctx context.Context, job domain.JobRequest) error
	Poll(ctx context.Context) ([]domain.JobResult, error)
}

// EventSink consumes appended events for derived read models (projection
// cache, search index). Sinks are best-effort; the store stays the source
// of truth.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
