package workers

import (
	"log/slog"
	"testing"
	"time"

	"mediscribe/domain"
	"mediscribe/domain/event"
	"mediscribe/integrity"
	"mediscribe/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Integrity_Sweep_Quarantines_Broken_Chains(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockEventStore(ctrl)
	cid := domain.ConsultationID("consult-tampered")

	store.EXPECT().
		Consultations(gomock.Any()).
		Return([]domain.ConsultationID{cid}, nil).
		AnyTimes()
	store.EXPECT().
		ReadFrom(gomock.Any(), cid, uint64(0), 256).
		Return([]event.Event{{
			ConsultationID: cid,
			Sequence:       0,
			Type:           event.TypeConsultationStarted,
			Payload:        []byte(`{"patient_ref":"patient-42"}`),
			PrevHash:       "sha256:not-genesis",
		}}, nil).
		AnyTimes()

	quarantine := integrity.NewQuarantine()
	verifier := integrity.NewVerifier(store, slog.Default())
	sut := NewIntegritySweepWorker(verifier, quarantine, 20*time.Millisecond, slog.Default())

	runWorkerBriefly(t, sut, 200*time.Millisecond)
	req.True(quarantine.Has(cid))
}
