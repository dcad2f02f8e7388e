package integrity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mediscribe/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sampleEvent(t *testing.T) event.Event {
	t.Helper()
	payload, err := json.Marshal(event.ConsultationStarted{
		PatientRef:  "patient-42",
		ClinicianID: "dr-house",
	})
	require.NoError(t, err)

	return event.Event{
		ID:             uuid.MustParse("f8a5b1e0-0000-0000-0000-000000000001"),
		ConsultationID: "consult-1",
		Sequence:       0,
		Type:           event.TypeConsultationStarted,
		Payload:        payload,
		ActorID:        "dr-house",
		At:             time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		PrevHash:       event.GenesisHash,
	}
}

func Test_EventHash_Is_Deterministic(t *testing.T) {
	req := require.New(t)
	e := sampleEvent(t)

	first, err := EventHash(e)
	req.NoError(err)
	second, err := EventHash(e)
	req.NoError(err)

	req.Equal(first, second)
	req.True(strings.HasPrefix(first, "sha256:"))
}

func Test_EventHash_Ignores_Stored_Hash_Field(t *testing.T) {
	req := require.New(t)
	e := sampleEvent(t)

	bare, err := EventHash(e)
	req.NoError(err)

	e.Hash = bare
	withHash, err := EventHash(e)
	req.NoError(err)

	req.Equal(bare, withHash)
}

func Test_EventHash_Changes_With_Any_Field(t *testing.T) {
	req := require.New(t)
	base := sampleEvent(t)
	baseHash, err := EventHash(base)
	req.NoError(err)

	mutations := map[string]func(e *event.Event){
		"payload":  func(e *event.Event) { e.Payload = []byte(`{"patient_ref":"patient-43"}`) },
		"actor":    func(e *event.Event) { e.ActorID = "intruder" },
		"sequence": func(e *event.Event) { e.Sequence = 7 },
		"time":     func(e *event.Event) { e.At = e.At.Add(time.Second) },
		"prev":     func(e *event.Event) { e.PrevHash = "sha256:deadbeef" },
		"type":     func(e *event.Event) { e.Type = event.TypeNoteSectionUpdated },
	}
	for name, mutate := range mutations {
		mutated := sampleEvent(t)
		mutate(&mutated)
		hash, err := EventHash(mutated)
		req.NoError(err)
		req.NotEqual(baseHash, hash, "mutating %s must change the hash", name)
	}
}

func Test_EventHash_Is_Independent_Of_Key_Order(t *testing.T) {
	req := require.New(t)
	e := sampleEvent(t)

	// Same payload fields, different member order in the raw JSON.
	e.Payload = []byte(`{"patient_ref":"p","clinician_id":"c"}`)
	first, err := EventHash(e)
	req.NoError(err)

	e.Payload = []byte(`{"clinician_id":"c","patient_ref":"p"}`)
	second, err := EventHash(e)
	req.NoError(err)

	req.Equal(first, second)
}

func Test_Checksum_Prefix(t *testing.T) {
	req := require.New(t)
	sum := Checksum([]byte("audit bundle"))
	req.True(strings.HasPrefix(sum, "sha256:"))
	req.Equal(sum, Checksum([]byte("audit bundle")))
	req.NotEqual(sum, Checksum([]byte("tampered bundle")))
}
