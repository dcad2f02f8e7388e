package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"mediscribe/contract"
	"mediscribe/integrity"
)

var _ contract.Worker = (*IntegritySweepWorker)(nil)

// IntegritySweepWorker periodically re-verifies every stored chain in the
// background. A chain that fails is quarantined so it stops taking writes;
// repairing the stored data is an operator problem, never something to
// patch automatically.
type IntegritySweepWorker struct {
	verifier   *integrity.Verifier
	quarantine *integrity.Quarantine
	interval   time.Duration
	log        *slog.Logger
}

func NewIntegritySweepWorker(
	verifier *integrity.Verifier,
	quarantine *integrity.Quarantine,
	interval time.Duration,
	log *slog.Logger,
) *IntegritySweepWorker {
	return &IntegritySweepWorker{
		verifier:   verifier,
		quarantine: quarantine,
		interval:   interval,
		log:        log,
	}
}

func (w *IntegritySweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping integrity sweep")
			return ctx.Err()
		case <-ticker.C:
			failures := w.verifier.VerifyAll(ctx)
			if len(failures) == 0 {
				w.log.Debug("Integrity sweep clean")
				continue
			}
			for _, failure := range failures {
				var chainErr *integrity.ChainError
				if stderrors.As(failure, &chainErr) {
					w.quarantine.Add(chainErr.ConsultationID)
					w.log.Error("Broken chain quarantined",
						"consultation", chainErr.ConsultationID, "error", failure)
					continue
				}
				w.log.Error("Integrity sweep failed", "error", failure)
			}
		}
	}
}
