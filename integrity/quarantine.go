package integrity

import (
	"sync"

	"mediscribe/domain"
)

// Quarantine tracks consultations whose hash chain failed verification.
// A quarantined consultation stops accepting write intents; reads and
// exports keep working so the damage can be inspected. Nothing ever leaves
// the set at runtime: un-quarantining is an operator decision, made after
// the stored chain has been repaired and re-verified.
type Quarantine struct {
	mu  sync.RWMutex
	ids map[domain.ConsultationID]struct{}
}

func NewQuarantine() *Quarantine {
	return &Quarantine{ids: make(map[domain.ConsultationID]struct{})}
}

func (q *Quarantine) Add(cid domain.ConsultationID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids[cid] = struct{}{}
}

func (q *Quarantine) Has(cid domain.ConsultationID) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, ok := q.ids[cid]
	return ok
}

func (q *Quarantine) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.ids)
}
