// Package domain holds the consultation aggregate vocabulary.
// A consultation has no stored state of its own: everything here is either
// an identifier, an enumeration, or a view derived by folding events.
package domain

import "time"

type ConsultationID string

// AudioRef identifies a recorded audio artifact attached to a consultation.
// The core treats it as an opaque reference (usually a local file path).
type AudioRef string

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Section names follow the SOAP note structure.
type Section string

const (
	SectionSubjective Section = "subjective"
	SectionObjective  Section = "objective"
	SectionAssessment Section = "assessment"
	SectionPlan       Section = "plan"
)

func (s Section) Valid() bool {
	switch s {
	case SectionSubjective, SectionObjective, SectionAssessment, SectionPlan:
		return true
	}
	return false
}

type TranscriptStatus string

const (
	TranscriptPending  TranscriptStatus = "pending"
	TranscriptReceived TranscriptStatus = "received"
	TranscriptFailed   TranscriptStatus = "failed"
)

// Transcript is the working buffer associated with one attached audio.
// Text accumulates from TranscriptReceived events; it never flows into a
// note section by itself, a clinician-driven NoteSectionUpdated does that.
type Transcript struct {
	AudioRef AudioRef         `json:"audio_ref"`
	Status   TranscriptStatus `json:"status"`
	Text     string           `json:"text,omitempty"`
	Language string           `json:"language,omitempty"`
	Flags    []string         `json:"flags,omitempty"`
	Failure  string           `json:"failure,omitempty"`
}

func (t Transcript) Resolved() bool {
	return t.Status == TranscriptReceived || t.Status == TranscriptFailed
}

// Amendment is a post-finalization correction. It never replaces the frozen
// section text; it is surfaced next to it for audit review.
type Amendment struct {
	Section  Section   `json:"section"`
	Content  string    `json:"content"`
	ActorID  string    `json:"actor_id"`
	Sequence uint64    `json:"sequence_number"`
	At       time.Time `json:"timestamp"`
}
