package logging

import "sync"

const defaultSubscriberBuffer = 100

// LogHub fans entries out to live followers of the log stream endpoints.
// Delivery is best effort: a follower whose channel is full misses the entry
// rather than stalling the logger. A nil hub accepts every call as a no-op.
type LogHub struct {
	mu        sync.Mutex
	lastID    uint64
	followers map[uint64]chan LogEntry
	closed    bool
}

func NewLogHub() *LogHub {
	return &LogHub{
		followers: make(map[uint64]chan LogEntry),
	}
}

// Subscribe registers a follower and returns its channel plus an unsubscribe
// func. Subscribing to a closed hub yields an already-closed channel so
// callers can range over it without a nil check.
func (h *LogHub) Subscribe(buffer int) (<-chan LogEntry, func()) {
	if h == nil {
		return nil, func() {}
	}
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		drained := make(chan LogEntry)
		close(drained)
		return drained, func() {}
	}

	h.lastID++
	id := h.lastID
	entries := make(chan LogEntry, buffer)
	h.followers[id] = entries
	return entries, func() { h.unsubscribe(id) }
}

func (h *LogHub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entries, ok := h.followers[id]
	if !ok {
		return
	}
	delete(h.followers, id)
	close(entries)
}

// FollowerCount reports the number of live subscriptions.
func (h *LogHub) FollowerCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.followers)
}

func (h *LogHub) Broadcast(entry LogEntry) {
	if h == nil {
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	targets := make([]chan LogEntry, 0, len(h.followers))
	for _, entries := range h.followers {
		targets = append(targets, entries)
	}
	h.mu.Unlock()

	for _, entries := range targets {
		select {
		case entries <- entry:
		default:
		}
	}
}

// Close drops every follower and closes their channels. Further Broadcast
// and Subscribe calls are safe.
func (h *LogHub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, entries := range h.followers {
		delete(h.followers, id)
		close(entries)
	}
}
