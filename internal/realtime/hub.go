// Package realtime fans product events out to the viewers of a product page.
package realtime

import (
	"sync"
	"time"
)

const (
	EventNewReview     = "new-review"
	EventRatingUpdated = "rating-updated"
)

// Event is delivered to every subscriber of a room.
type Event struct {
	Name    string      `json:"event"`
	Room    string      `json:"room"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}

// Hub is a broadcast-to-room primitive. Slow subscribers lose events rather
// than blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[chan Event]struct{}
	bufSize int
}

func NewHub(bufSize int) *Hub {
	return &Hub{rooms: make(map[string]map[chan Event]struct{}), bufSize: bufSize}
}

// Subscribe joins room. The returned cancel func leaves the room and closes the channel.
func (h *Hub) Subscribe(room string) (<-chan Event, func()) {
	ch := make(chan Event, h.bufSize)

	h.mu.Lock()
	subs, ok := h.rooms[room]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.rooms[room] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.rooms[room], ch)
			if len(h.rooms[room]) == 0 {
				delete(h.rooms, room)
			}
			close(ch)
		})
	}
}

// Broadcast sends the event to the room and reports how many subscribers got it.
func (h *Hub) Broadcast(room, name string, payload interface{}) int {
	ev := Event{Name: name, Room: room, Payload: payload, SentAt: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for ch := range h.rooms[room] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
