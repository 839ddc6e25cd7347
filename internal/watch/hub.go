package watch

import (
	"context"
	"sync"
	"time"
)

// DeckEvent is the committed deck snapshot published after every mutation.
// Observers derive their view from the latest event; intermediate states that
// never committed are not represented.
type DeckEvent struct {
	Sequence        uint64    `json:"seq"`
	DeckID          int64     `json:"deckId"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	TotalSlides     int       `json:"totalSlides"`
	TranscriptReady bool      `json:"transcriptReady"`
	Deleted         bool      `json:"deleted,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Hub stores recent deck events and wakes waiters when new events arrive.
// Any number of observers can follow one deck's status without polling the
// store.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []DeckEvent
	nextSeq  uint64
}

// NewHub constructs a bounded in-memory deck event fan-out buffer.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 256
	}
	h := &Hub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends a new deck event to the hub and wakes all waiters.
func (h *Hub) Publish(evt DeckEvent) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.UpdatedAt.IsZero() {
		evt.UpdatedAt = time.Now().UTC()
	}

	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns buffered events for deckID with sequence greater than since.
// A deckID of zero matches every deck. When wait is true, Fetch blocks until
// at least one matching event is available or the context ends.
func (h *Hub) Fetch(ctx context.Context, deckID int64, since uint64, wait bool) ([]DeckEvent, uint64, error) {
	if h == nil {
		return nil, since, nil
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		events, next := h.snapshotLocked(deckID, since)
		if len(events) > 0 || !wait {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Latest returns the most recent buffered event for deckID without blocking.
func (h *Hub) Latest(deckID int64) (DeckEvent, bool) {
	if h == nil {
		return DeckEvent{}, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.buffer) - 1; i >= 0; i-- {
		if h.buffer[i].DeckID == deckID {
			return h.buffer[i], true
		}
	}
	return DeckEvent{}, false
}

func (h *Hub) snapshotLocked(deckID int64, since uint64) ([]DeckEvent, uint64) {
	if len(h.buffer) == 0 {
		return nil, h.nextSeq
	}
	var out []DeckEvent
	for _, evt := range h.buffer {
		if evt.Sequence <= since {
			continue
		}
		if deckID != 0 && evt.DeckID != deckID {
			continue
		}
		out = append(out, evt)
	}
	return out, h.nextSeq
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
