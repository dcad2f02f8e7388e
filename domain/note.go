package domain

import "time"

// SectionContent is the current text of one note section plus the sequence
// number of the event that last wrote it (last-write-wins by sequence).
type SectionContent struct {
	Text      string    `json:"text"`
	Sequence  uint64    `json:"sequence_number"`
	ActorID   string    `json:"actor_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClinicalNote is the projection of one consultation's event stream.
// It is a rebuildable cache: replaying from genesis must produce a
// bit-identical value.
type ClinicalNote struct {
	ConsultationID ConsultationID             `json:"consultation_id"`
	Status         Status                     `json:"status"`
	PatientRef     string                     `json:"patient_ref,omitempty"`
	ClinicianID    string                     `json:"clinician_id,omitempty"`
	Sections       map[Section]SectionContent `json:"sections"`
	Transcripts    map[AudioRef]Transcript    `json:"transcripts"`
	Amendments     []Amendment                `json:"amendments,omitempty"`
	StartedAt      time.Time                  `json:"started_at"`
	FinalizedAt    *time.Time                 `json:"finalized_at,omitempty"`

	// AppliedThrough is the sequence number of the last folded event.
	AppliedThrough uint64 `json:"applied_through"`
}

// PendingAudio lists attached audio references with no transcription outcome
// yet. Finalization is blocked while this is non-empty.
func (n ClinicalNote) PendingAudio() []AudioRef {
	var pending []AudioRef
	for ref, t := range n.Transcripts {
		if !t.Resolved() {
			pending = append(pending, ref)
		}
	}
	return pending
}

func (n ClinicalNote) Closed() bool {
	return n.Status == StatusClosed
}
