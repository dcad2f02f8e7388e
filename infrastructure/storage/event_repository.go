package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mediscribe/contract"
	"mediscribe/domain"
	"mediscribe/domain/event"
	apperrors "mediscribe/errors"
	"mediscribe/integrity"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	eventKeyPrefix = "event:"
	tailKeyPrefix  = "tail:"
)

// EventRepository persists consultation events in BadgerDB as an append-only
// log. Keys are "event:<consultation>:<sequence>" with a zero-padded
// sequence so Badger's lexicographic iteration yields chain order, plus a
// "tail:<consultation>" counter that is the only serialization point.
//
// The repository alone computes sequence numbers, timestamps and the
// prev_hash/event_hash pair; callers submit drafts and an expected next
// sequence for optimistic concurrency.
type EventRepository struct {
	db    *badger.DB
	log   *slog.Logger
	clock func() time.Time
}

func NewEventRepository(db *badger.DB, log *slog.Logger) *EventRepository {
	return &EventRepository{db: db, log: log, clock: time.Now}
}

// WithClock overrides the timestamp source for testing.
func (r *EventRepository) WithClock(clock func() time.Time) *EventRepository {
	r.clock = clock
	return r
}

var _ contract.EventStore = (*EventRepository)(nil)

func eventKey(cid domain.ConsultationID, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", eventKeyPrefix, cid, seq))
}

func tailKey(cid domain.ConsultationID) []byte {
	return []byte(tailKeyPrefix + string(cid))
}

// Append atomically stores one event at nextSequence. Exactly one of two
// racing appends with the same expected sequence succeeds; the loser gets
// ErrSequenceConflict and must re-read before retrying.
func (r *EventRepository) Append(ctx context.Context, nextSequence uint64, draft event.Draft) (event.Event, error) {
	if err := validateDraft(draft); err != nil {
		return event.Event{}, err
	}
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}

	var stored event.Event
	err := r.db.Update(func(txn *badger.Txn) error {
		tail, hasTail, err := readTail(txn, draft.ConsultationID)
		if err != nil {
			return err
		}

		switch {
		case !hasTail && nextSequence != 0:
			return fmt.Errorf("%w: chain %s is empty, expected sequence %d",
				apperrors.ErrSequenceConflict, draft.ConsultationID, nextSequence)
		case hasTail && nextSequence != tail+1:
			return fmt.Errorf("%w: chain %s tail is %d, expected sequence %d",
				apperrors.ErrSequenceConflict, draft.ConsultationID, tail, nextSequence)
		}

		prevHash := event.GenesisHash
		at := r.clock().UTC()
		if hasTail {
			prev, err := readEvent(txn, draft.ConsultationID, tail)
			if err != nil {
				return err
			}
			prevHash = prev.Hash
			// Wall clocks can step backwards; timestamps within a
			// chain must not.
			if at.Before(prev.At) {
				at = prev.At
			}
		}

		stored = event.Event{
			ID:             uuid.New(),
			ConsultationID: draft.ConsultationID,
			Sequence:       nextSequence,
			Type:           draft.Type,
			Payload:        draft.Payload,
			ActorID:        draft.ActorID,
			At:             at,
			PrevHash:       prevHash,
		}
		hash, err := integrity.EventHash(stored)
		if err != nil {
			return err
		}
		stored.Hash = hash

		raw, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal event %s/%d: %w", stored.ConsultationID, stored.Sequence, err)
		}
		if err := txn.Set(eventKey(stored.ConsultationID, stored.Sequence), raw); err != nil {
			return err
		}

		var tailBuf [8]byte
		binary.BigEndian.PutUint64(tailBuf[:], stored.Sequence)
		return txn.Set(tailKey(stored.ConsultationID), tailBuf[:])
	})

	if stderrors.Is(err, badger.ErrConflict) {
		// Two transactions raced on the same tail; only one committed.
		return event.Event{}, fmt.Errorf("%w: concurrent append on %s",
			apperrors.ErrSequenceConflict, draft.ConsultationID)
	}
	if err != nil {
		return event.Event{}, err
	}

	r.log.Debug("Event appended",
		"consultation", stored.ConsultationID,
		"sequence", stored.Sequence,
		"type", stored.Type)
	return stored, nil
}

// Read returns the full chain in sequence order.
func (r *EventRepository) Read(ctx context.Context, cid domain.ConsultationID) ([]event.Event, error) {
	return r.ReadFrom(ctx, cid, 0, 0)
}

// ReadFrom pages through a chain starting at fromSequence. A limit of 0
// means no limit.
func (r *EventRepository) ReadFrom(ctx context.Context, cid domain.ConsultationID, fromSequence uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var events []event.Event
	prefix := []byte(fmt.Sprintf("%s%s:", eventKeyPrefix, cid))
	start := eventKey(cid, fromSequence)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		if limit > 0 {
			opts.PrefetchSize = limit
		}

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(events) >= limit {
				return nil
			}
			err := it.Item().Value(func(v []byte) error {
				var e event.Event
				if err := json.Unmarshal(v, &e); err != nil {
					return fmt.Errorf("unmarshal event at %s: %w", it.Item().Key(), err)
				}
				events = append(events, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read chain %s: %w", cid, err)
	}
	return events, nil
}

// Tail reports the last assigned sequence number.
func (r *EventRepository) Tail(ctx context.Context, cid domain.ConsultationID) (uint64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	var (
		tail uint64
		ok   bool
	)
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		tail, ok, err = readTail(txn, cid)
		return err
	})
	return tail, ok, err
}

// Consultations lists every consultation that has at least one event, by
// scanning the tail counters (one key per consultation, values skipped).
func (r *EventRepository) Consultations(ctx context.Context) ([]domain.ConsultationID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cids []domain.ConsultationID
	prefix := []byte(tailKeyPrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			cids = append(cids, domain.ConsultationID(strings.TrimPrefix(key, tailKeyPrefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cids, nil
}

func readTail(txn *badger.Txn, cid domain.ConsultationID) (uint64, bool, error) {
	item, err := txn.Get(tailKey(cid))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var tail uint64
	err = item.Value(func(v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("corrupt tail counter for %s", cid)
		}
		tail = binary.BigEndian.Uint64(v)
		return nil
	})
	return tail, true, err
}

func readEvent(txn *badger.Txn, cid domain.ConsultationID, seq uint64) (event.Event, error) {
	item, err := txn.Get(eventKey(cid, seq))
	if err != nil {
		return event.Event{}, fmt.Errorf("read event %s/%d: %w", cid, seq, err)
	}

	var e event.Event
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &e)
	})
	return e, err
}

func validateDraft(d event.Draft) error {
	switch {
	case d.ConsultationID == "":
		return fmt.Errorf("%w: missing consultation id", apperrors.ErrValidation)
	case d.Type == "":
		return fmt.Errorf("%w: missing event type", apperrors.ErrValidation)
	case d.ActorID == "":
		return fmt.Errorf("%w: missing actor id", apperrors.ErrValidation)
	case len(d.Payload) == 0 || !json.Valid(d.Payload):
		return fmt.Errorf("%w: payload is not valid JSON", apperrors.ErrValidation)
	}
	return nil
}
