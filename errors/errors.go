package errors

import "fmt"

var (
	// Intent rejections. Reported to the caller as a normal rejected-intent
	// response, never as a system fault.
	ErrValidation           = fmt.Errorf("invalid intent")
	ErrAlreadyStarted       = fmt.Errorf("consultation already started")
	ErrConsultationNotFound = fmt.Errorf("consultation not found")
	ErrConsultationClosed   = fmt.Errorf("consultation is closed")
	ErrPendingAudio         = fmt.Errorf("attached audio has no transcription outcome yet")
	ErrNotFinalized         = fmt.Errorf("consultation is not finalized")
	ErrUnsupportedAudio     = fmt.Errorf("audio reference is not an audio file")

	// Append races. The caller re-reads the projection and retries.
	ErrSequenceConflict = fmt.Errorf("expected tail sequence does not match the stored tail")

	// Chain integrity failures. Surfaced to the operator, never auto-repaired.
	ErrChainBroken    = fmt.Errorf("event hash chain is broken")
	ErrSequenceGap    = fmt.Errorf("event sequence numbers are not contiguous")
	ErrMissingGenesis = fmt.Errorf("first event does not carry the genesis prev hash")

	// Gateway.
	ErrUnknownJob = fmt.Errorf("unknown transcription job")

	// Actor attribution.
	ErrInvalidActorToken = fmt.Errorf("invalid actor token")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
