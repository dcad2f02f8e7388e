package integrity

import (
	"context"
	"fmt"
	"log/slog"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"
)

// ChainError reports the first integrity failure found in a chain.
// It wraps one of the errors package's integrity sentinels so callers can
// branch with errors.Is while still seeing the failing position.
type ChainError struct {
	ConsultationID domain.ConsultationID
	Sequence       uint64
	Reason         error
	Detail         string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("consultation %s: %v at sequence %d: %s",
		e.ConsultationID, e.Reason, e.Sequence, e.Detail)
}

func (e *ChainError) Unwrap() error { return e.Reason }

const verifyPageSize = 256

// Verifier recomputes hash chains from stored events. It never writes.
type Verifier struct {
	store contract.EventStore
	log   *slog.Logger
}

func NewVerifier(store contract.EventStore, log *slog.Logger) *Verifier {
	return &Verifier{store: store, log: log}
}

var _ contract.ChainVerifier = (*Verifier)(nil)

// Verify walks the chain of one consultation in sequence order, recomputing
// each event's hash from its fields and the previous event's stored hash.
// It stops at the first mismatch.
func (v *Verifier) Verify(ctx context.Context, cid domain.ConsultationID) error {
	prevHash := event.GenesisHash
	next := uint64(0)

	for {
		events, err := v.store.ReadFrom(ctx, cid, next, verifyPageSize)
		if err != nil {
			return fmt.Errorf("read chain %s: %w", cid, err)
		}
		if len(events) == 0 {
			if next == 0 {
				return fmt.Errorf("%w: %s", apperrors.ErrConsultationNotFound, cid)
			}
			return nil
		}

		for _, e := range events {
			if next == 0 && e.Sequence == 0 && e.PrevHash != event.GenesisHash {
				return &ChainError{
					ConsultationID: cid,
					Sequence:       0,
					Reason:         apperrors.ErrMissingGenesis,
					Detail:         fmt.Sprintf("prev_hash is %q", e.PrevHash),
				}
			}
			if e.Sequence != next {
				return &ChainError{
					ConsultationID: cid,
					Sequence:       e.Sequence,
					Reason:         apperrors.ErrSequenceGap,
					Detail:         fmt.Sprintf("expected sequence %d", next),
				}
			}
			if e.PrevHash != prevHash {
				return &ChainError{
					ConsultationID: cid,
					Sequence:       e.Sequence,
					Reason:         apperrors.ErrChainBroken,
					Detail:         "prev_hash does not match the previous event's hash",
				}
			}
			computed, err := EventHash(e)
			if err != nil {
				return fmt.Errorf("recompute hash for %s/%d: %w", cid, e.Sequence, err)
			}
			if computed != e.Hash {
				return &ChainError{
					ConsultationID: cid,
					Sequence:       e.Sequence,
					Reason:         apperrors.ErrChainBroken,
					Detail:         "stored event_hash does not match its recomputed value",
				}
			}
			prevHash = e.Hash
			next++
		}

		if len(events) < verifyPageSize {
			return nil
		}
	}
}

// VerifyAll checks every known consultation and returns the failures.
// Healthy chains are skipped silently; broken ones are logged and collected
// so the operator can quarantine them. A broken chain never taints others.
func (v *Verifier) VerifyAll(ctx context.Context) []error {
	cids, err := v.store.Consultations(ctx)
	if err != nil {
		return []error{fmt.Errorf("list consultations: %w", err)}
	}

	var failures []error
	for _, cid := range cids {
		if err := ctx.Err(); err != nil {
			return append(failures, err)
		}
		if err := v.Verify(ctx, cid); err != nil {
			v.log.Error("Chain verification failed", "consultation", cid, "error", err)
			failures = append(failures, err)
		}
	}
	return failures
}
