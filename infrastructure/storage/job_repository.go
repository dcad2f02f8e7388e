//go:generate go run go.uber.org/mock/mockgen -source=job_repository.go -destination=../../mocks/mock_job_repository.go -package=mocks
package storage

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"mediscribe/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobInflight  JobStatus = "inflight"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// TranscriptionJob is the ephemeral correlation record between an audio
// submission and its asynchronous outcome. It is stored in BadgerDB so a
// restart does not lose in-flight work; once the outcome is appended as a
// durable event the job only matters for duplicate-delivery detection.
type TranscriptionJob struct {
	ID             uuid.UUID             `json:"job_id"`
	ConsultationID domain.ConsultationID `json:"consultation_id"`
	AudioRef       domain.AudioRef       `json:"audio_ref"`
	Status         JobStatus             `json:"status"`
	SubmittedAt    time.Time             `json:"submitted_at"`
	RetryCount     int                   `json:"retry_count"`
}

type IJobRepository interface {
	// Enqueue persists the job unless an open job for the same consultation
	// and audio reference already exists; the returned job is the one that
	// is actually active.
	Enqueue(job TranscriptionJob) (TranscriptionJob, error)
	NextBatch(limit int) ([]TranscriptionJob, error)
	MarkInflight(job TranscriptionJob) error
	Requeue(job TranscriptionJob) error
	Get(id uuid.UUID) (TranscriptionJob, bool, error)
	Resolve(id uuid.UUID, final JobStatus) (TranscriptionJob, bool, error)
	PendingCount() int
}

// JobRepository keeps one id-keyed record per job plus a queue key ordered
// by submission time, so the dispatch worker drains jobs oldest-first while
// result ingestion looks jobs up by id alone.
type JobRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewJobRepository(db *badger.DB, log *slog.Logger) *JobRepository {
	return &JobRepository{db: db, log: log}
}

var _ IJobRepository = (*JobRepository)(nil)

func jobItemKey(id uuid.UUID) []byte {
	return []byte("job:item:" + id.String())
}

func jobQueueKey(job TranscriptionJob) []byte {
	return []byte(fmt.Sprintf("job:queue:%020d:%s", job.SubmittedAt.UnixNano(), job.ID))
}

func jobRefKey(cid domain.ConsultationID, ref domain.AudioRef) []byte {
	return []byte(fmt.Sprintf("job:ref:%s:%s", cid, ref))
}

// Enqueue persists a freshly submitted job with a queue key for the
// dispatch worker. One open job per (consultation, audio ref): while an
// earlier job for the same reference is not yet terminal that job is
// returned unchanged, so a resubmission of the same audio can never put a
// second transcription in flight.
func (r *JobRepository) Enqueue(job TranscriptionJob) (TranscriptionJob, error) {
	job.Status = JobQueued
	data, err := json.Marshal(job)
	if err != nil {
		return TranscriptionJob{}, fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	active := job
	err = r.db.Update(func(txn *badger.Txn) error {
		existing, ok, err := getJobByRef(txn, job.ConsultationID, job.AudioRef)
		if err != nil {
			return err
		}
		if ok && !existing.Status.Terminal() {
			active = existing
			return nil
		}

		if err := txn.Set(jobItemKey(job.ID), data); err != nil {
			return err
		}
		if err := txn.Set(jobQueueKey(job), []byte(job.ID.String())); err != nil {
			return err
		}
		return txn.Set(jobRefKey(job.ConsultationID, job.AudioRef), []byte(job.ID.String()))
	})
	if err != nil {
		return TranscriptionJob{}, err
	}
	return active, nil
}

func getJobByRef(txn *badger.Txn, cid domain.ConsultationID, ref domain.AudioRef) (TranscriptionJob, bool, error) {
	item, err := txn.Get(jobRefKey(cid, ref))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return TranscriptionJob{}, false, nil
	}
	if err != nil {
		return TranscriptionJob{}, false, err
	}

	var id uuid.UUID
	if err := item.Value(func(v []byte) error {
		parsed, err := uuid.Parse(string(v))
		id = parsed
		return err
	}); err != nil {
		return TranscriptionJob{}, false, err
	}
	return getJob(txn, id)
}

// NextBatch retrieves up to limit queued jobs, oldest submission first.
func (r *JobRepository) NextBatch(limit int) ([]TranscriptionJob, error) {
	var jobs []TranscriptionJob
	prefix := []byte("job:queue:")

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.PrefetchSize = limit

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(jobs) < limit; it.Next() {
			var id uuid.UUID
			err := it.Item().Value(func(v []byte) error {
				var err error
				id, err = uuid.Parse(string(v))
				return err
			})
			if err != nil {
				return err
			}

			job, ok, err := getJob(txn, id)
			if err != nil {
				return err
			}
			if ok {
				jobs = append(jobs, job)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error during batch fetch: %w", err)
	}
	return jobs, nil
}

// PendingCount reports how many jobs are waiting in the queue. It is a
// monitoring figure and scans keys only, never values.
func (r *JobRepository) PendingCount() int {
	count := 0
	prefix := []byte("job:queue:")

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		r.log.Warn("Failed to count pending jobs", "error", err)
		return 0
	}
	return count
}

// MarkInflight moves a job out of the queue atomically before it is handed
// to the worker pool. A job that is no longer queued was taken by another
// dispatcher and must not be sent twice.
func (r *JobRepository) MarkInflight(job TranscriptionJob) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(jobQueueKey(job)); stderrors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("job %s is no longer queued", job.ID)
		} else if err != nil {
			return err
		}

		if err := txn.Delete(jobQueueKey(job)); err != nil {
			return err
		}

		job.Status = JobInflight
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return txn.Set(jobItemKey(job.ID), data)
	})
}

// Requeue puts an in-flight job back into the queue after a dispatch
// failure, bumping its retry count.
func (r *JobRepository) Requeue(job TranscriptionJob) error {
	job.Status = JobQueued
	job.RetryCount++
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(jobItemKey(job.ID), data); err != nil {
			return err
		}
		return txn.Set(jobQueueKey(job), []byte(job.ID.String()))
	})
}

// Get looks a job up by id; ok is false for unknown jobs.
func (r *JobRepository) Get(id uuid.UUID) (TranscriptionJob, bool, error) {
	var (
		job TranscriptionJob
		ok  bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		job, ok, err = getJob(txn, id)
		return err
	})
	return job, ok, err
}

// Resolve transitions a job to its terminal status. It returns ok=false
// without touching anything when the job is unknown or already terminal,
// which is how duplicate at-least-once deliveries become no-ops.
func (r *JobRepository) Resolve(id uuid.UUID, final JobStatus) (TranscriptionJob, bool, error) {
	if !final.Terminal() {
		return TranscriptionJob{}, false, fmt.Errorf("status %q is not terminal", final)
	}

	var (
		job      TranscriptionJob
		resolved bool
	)
	err := r.db.Update(func(txn *badger.Txn) error {
		var ok bool
		var err error
		job, ok, err = getJob(txn, id)
		if err != nil {
			return err
		}
		if !ok || job.Status.Terminal() {
			return nil
		}

		// Drop the queue key if the result arrived before dispatch did.
		if job.Status == JobQueued {
			if err := txn.Delete(jobQueueKey(job)); err != nil {
				return err
			}
		}

		// The audio ref is free again; a later resubmission starts fresh.
		if err := txn.Delete(jobRefKey(job.ConsultationID, job.AudioRef)); err != nil {
			return err
		}

		job.Status = final
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		if err := txn.Set(jobItemKey(job.ID), data); err != nil {
			return err
		}
		resolved = true
		return nil
	})
	if err != nil {
		return TranscriptionJob{}, false, err
	}
	return job, resolved, nil
}

func getJob(txn *badger.Txn, id uuid.UUID) (TranscriptionJob, bool, error) {
	item, err := txn.Get(jobItemKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return TranscriptionJob{}, false, nil
	}
	if err != nil {
		return TranscriptionJob{}, false, err
	}

	var job TranscriptionJob
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &job)
	})
	if err != nil {
		return TranscriptionJob{}, false, err
	}
	return job, true, nil
}
