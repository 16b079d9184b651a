package services

import (
	"sync"

	"github.com/pawmate/backend/internal/models"
)

// MessageEvent is delivered to subscribers when a pet's inbox changes.
type MessageEvent struct {
	PetID   string         `json:"petId"`
	Message models.Message `json:"message"`
}

// Notifier is an in-process pub/sub hub keyed by pet ID. Slow subscribers
// drop events rather than block the publisher.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]map[chan MessageEvent]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan MessageEvent]struct{})}
}

// Subscribe registers interest in a pet's messages. The returned cancel
// function must be called to release the channel.
func (n *Notifier) Subscribe(petID string) (<-chan MessageEvent, func()) {
	ch := make(chan MessageEvent, 16)

	n.mu.Lock()
	if n.subs[petID] == nil {
		n.subs[petID] = make(map[chan MessageEvent]struct{})
	}
	n.subs[petID][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if set, ok := n.subs[petID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(n.subs, petID)
			}
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans an event out to every subscriber of the pet. Non-blocking.
func (n *Notifier) Publish(petID string, msg models.Message) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for ch := range n.subs[petID] {
		select {
		case ch <- MessageEvent{PetID: petID, Message: msg}:
		default:
		}
	}
}
