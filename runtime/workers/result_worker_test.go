package workers

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"mediscribe/domain"
	"mediscribe/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func Test_Result_Worker_Funnels_Outcomes_Into_The_Gateway(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transcriber := mocks.NewMockTranscriber(ctrl)
	gateway := mocks.NewMockDispatchGateway(ctrl)

	jobID := uuid.New()
	result := domain.JobResult{
		JobID:   jobID,
		Outcome: domain.JobOutcome{Transcript: "patient reports headache"},
	}

	ingested := make(chan uuid.UUID, 1)
	transcriber.EXPECT().Poll(gomock.Any()).Return([]domain.JobResult{result}, nil)
	transcriber.EXPECT().Poll(gomock.Any()).Return(nil, nil).AnyTimes()
	gateway.EXPECT().
		OnResult(gomock.Any(), jobID, result.Outcome).
		DoAndReturn(func(context.Context, uuid.UUID, domain.JobOutcome) error {
			ingested <- jobID
			return nil
		})

	worker := NewResultWorker(transcriber, gateway, testMonitoring(), 10*time.Millisecond, slog.Default())
	go runWorkerBriefly(t, worker, 500*time.Millisecond)

	select {
	case got := <-ingested:
		req.Equal(jobID, got)
	case <-time.After(2 * time.Second):
		req.Fail("outcome never reached the gateway")
	}
}

func Test_Result_Worker_Survives_Poll_Failures(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	transcriber := mocks.NewMockTranscriber(ctrl)
	gateway := mocks.NewMockDispatchGateway(ctrl)

	jobID := uuid.New()
	ingested := make(chan struct{}, 1)

	// A failed poll is logged and the next tick tries again.
	transcriber.EXPECT().Poll(gomock.Any()).Return(nil, fmt.Errorf("pool unreachable"))
	transcriber.EXPECT().Poll(gomock.Any()).Return([]domain.JobResult{{
		JobID:   jobID,
		Outcome: domain.JobOutcome{Failed: true, Failure: "decode error"},
	}}, nil)
	transcriber.EXPECT().Poll(gomock.Any()).Return(nil, nil).AnyTimes()
	gateway.EXPECT().
		OnResult(gomock.Any(), jobID, gomock.Any()).
		DoAndReturn(func(context.Context, uuid.UUID, domain.JobOutcome) error {
			ingested <- struct{}{}
			return nil
		})

	worker := NewResultWorker(transcriber, gateway, testMonitoring(), 10*time.Millisecond, slog.Default())
	go runWorkerBriefly(t, worker, 500*time.Millisecond)

	select {
	case <-ingested:
	case <-time.After(2 * time.Second):
		req.Fail("worker gave up after a poll failure")
	}
}
