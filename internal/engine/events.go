package engine

import (
	"sync"

	"github.com/dmitrijs2005/inspectsync/internal/models"
)

// EventKind tells an update apart from a deletion.
type EventKind string

const (
	// EventUpdated carries the record as it was just persisted.
	EventUpdated EventKind = "updated"
	// EventDeleted carries only the ID of the removed record.
	EventDeleted EventKind = "deleted"
)

// Event describes one change to the stored records.
type Event struct {
	Kind   EventKind
	ID     string
	Record models.RepairRecord
}

const subscriberBuffer = 32

// hub fans events out to subscribers. Publishing never blocks: a subscriber
// that falls behind misses events and is expected to re-list.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
