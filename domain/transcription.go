package domain

import "github.com/google/uuid"

// JobRequest is what the core hands to the external worker pool. The pool
// owns the wire format; the core only requires a stable job id and an
// audio reference.
type JobRequest struct {
	JobID          uuid.UUID      `json:"job_id"`
	ConsultationID ConsultationID `json:"consultation_id"`
	AudioRef       AudioRef       `json:"audio_ref"`
}

// JobOutcome is a transcription result coming back from the pool.
// Delivery is at-least-once and possibly reordered across jobs.
type JobOutcome struct {
	Failed     bool   `json:"failed"`
	Transcript string `json:"transcript,omitempty"`
	Failure    string `json:"failure,omitempty"`
}

type JobResult struct {
	JobID   uuid.UUID  `json:"job_id"`
	Outcome JobOutcome `json:"outcome"`
}
