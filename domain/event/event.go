// Package event defines the immutable domain events of a consultation and
// their stored envelope. Events are append-only facts: corrections are new
// events, never edits in place.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"mediscribe/domain"

	"github.com/google/uuid"
)

type Type string

const (
	TypeConsultationStarted   Type = "CONSULTATION_STARTED"
	TypeAudioAttached         Type = "AUDIO_ATTACHED"
	TypeTranscriptReceived    Type = "TRANSCRIPT_RECEIVED"
	TypeNoteSectionUpdated    Type = "NOTE_SECTION_UPDATED"
	TypeTranscriptionFailed   Type = "TRANSCRIPTION_FAILED"
	TypeConsultationFinalized Type = "CONSULTATION_FINALIZED"
)

// GenesisHash is the prev_hash of the first event in every chain.
const GenesisHash = "genesis"

// Event is the stored, hash-chained envelope. The store alone assigns
// Sequence, At, PrevHash and Hash; callers never submit them.
type Event struct {
	ID             uuid.UUID             `json:"event_id"`
	ConsultationID domain.ConsultationID `json:"consultation_id"`
	Sequence       uint64                `json:"sequence_number"`
	Type           Type                  `json:"event_type"`
	Payload        json.RawMessage       `json:"payload"`
	ActorID        string                `json:"actor_id"`
	At             time.Time             `json:"timestamp"`
	PrevHash       string                `json:"prev_hash"`
	Hash           string                `json:"event_hash"`
}

func (e Event) Consultation() domain.ConsultationID { return e.ConsultationID }

// Draft is what a caller submits for appending: the fact and its author.
// Everything chain-related is the store's responsibility.
type Draft struct {
	ConsultationID domain.ConsultationID
	Type           Type
	Payload        json.RawMessage
	ActorID        string
}

// NewDraft marshals a typed payload into a draft ready for appending.
func NewDraft(cid domain.ConsultationID, actorID string, p Payload) (Draft, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return Draft{}, fmt.Errorf("marshal %s payload: %w", p.EventType(), err)
	}
	return Draft{
		ConsultationID: cid,
		Type:           p.EventType(),
		Payload:        raw,
		ActorID:        actorID,
	}, nil
}

// Payload is implemented by every variant-specific payload struct.
type Payload interface {
	EventType() Type
}

type ConsultationStarted struct {
	PatientRef  string `json:"patient_ref"`
	ClinicianID string `json:"clinician_id"`
}

func (ConsultationStarted) EventType() Type { return TypeConsultationStarted }

type AudioAttached struct {
	AudioRef  domain.AudioRef `json:"audio_ref"`
	MimeType  string          `json:"mime_type,omitempty"`
	SizeBytes int64           `json:"size_bytes,omitempty"`
}

func (AudioAttached) EventType() Type { return TypeAudioAttached }

type TranscriptReceived struct {
	AudioRef domain.AudioRef `json:"audio_ref"`
	JobID    uuid.UUID       `json:"job_id"`
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Flags    []string        `json:"flags,omitempty"`
}

func (TranscriptReceived) EventType() Type { return TypeTranscriptReceived }

type NoteSectionUpdated struct {
	Section domain.Section `json:"section"`
	Content string         `json:"content"`
	// Reason is set on post-finalization corrective updates.
	Reason string `json:"reason,omitempty"`
}

func (NoteSectionUpdated) EventType() Type { return TypeNoteSectionUpdated }

type TranscriptionFailed struct {
	AudioRef domain.AudioRef `json:"audio_ref"`
	JobID    uuid.UUID       `json:"job_id"`
	Reason   string          `json:"reason"`
}

func (TranscriptionFailed) EventType() Type { return TypeTranscriptionFailed }

type ConsultationFinalized struct{}

func (ConsultationFinalized) EventType() Type { return TypeConsultationFinalized }

// DecodePayload unmarshals the envelope's payload into its typed variant.
func DecodePayload(e Event) (Payload, error) {
	var p Payload
	switch e.Type {
	case TypeConsultationStarted:
		p = &ConsultationStarted{}
	case TypeAudioAttached:
		p = &AudioAttached{}
	case TypeTranscriptReceived:
		p = &TranscriptReceived{}
	case TypeNoteSectionUpdated:
		p = &NoteSectionUpdated{}
	case TypeTranscriptionFailed:
		p = &TranscriptionFailed{}
	case TypeConsultationFinalized:
		p = &ConsultationFinalized{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return p, nil
}
