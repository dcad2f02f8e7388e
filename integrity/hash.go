// Package integrity computes and verifies the per-consultation hash chain.
// Hashes cover an RFC 8785 canonical serialization, so the digest does not
// depend on marshaling quirks of whoever stored the event.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"mediscribe/domain/event"

	"github.com/gowebpki/jcs"
)

const hashPrefix = "sha256:"

// EventHash returns the digest of an event envelope, ignoring any value
// already present in its Hash field. PrevHash is part of the digest, which
// is what chains an event to its predecessor.
func EventHash(e event.Event) (string, error) {
	e.Hash = ""
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event %d: %w", e.Sequence, err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize event %d: %w", e.Sequence, err)
	}
	sum := sha256.Sum256(canonical)
	return hashPrefix + hex.EncodeToString(sum[:]), nil
}

// Checksum digests arbitrary bytes, used for audit bundle checksums.
func Checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hashPrefix + hex.EncodeToString(sum[:])
}
