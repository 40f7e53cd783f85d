// Package notify fans configuration-field updates out to the rest of
// the firmware. It keeps the devicecode bus delivery policy (bounded
// per-subscriber queues, drop-oldest when full) but replaces the topic
// trie with a flat table keyed by the 16-bit field key, which is the
// only topic space this subsystem has.
package notify

import "sync"

// KeyAny subscribes to updates for every field. 0 is the reserved field
// key, so it is free to use as the wildcard.
const KeyAny uint16 = 0x0000

// Update announces one externally-driven field write.
type Update struct {
	Key  uint16
	Size uint16
}

type Subscription struct {
	key uint16
	ch  chan Update
	hub *Hub
}

func (s *Subscription) Key() uint16            { return s.key }
func (s *Subscription) Channel() <-chan Update { return s.ch }
func (s *Subscription) Unsubscribe()           { s.hub.unsubscribe(s) }

// Hub routes updates to subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[uint16][]*Subscription
	qLen int
}

// NewHub creates a hub with the given subscriber queue length.
func NewHub(queueLen int) *Hub {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Hub{subs: map[uint16][]*Subscription{}, qLen: queueLen}
}

// Subscribe registers interest in one field key, or all with KeyAny.
func (h *Hub) Subscribe(key uint16) *Subscription {
	sub := &Subscription{key: key, ch: make(chan Update, h.qLen), hub: h}
	h.mu.Lock()
	h.subs[key] = append(h.subs[key], sub)
	h.mu.Unlock()
	return sub
}

// Publish delivers u to key subscribers and wildcard subscribers.
func (h *Hub) Publish(u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs[u.Key] {
		deliver(sub.ch, u)
	}
	if u.Key != KeyAny {
		for _, sub := range h.subs[KeyAny] {
			deliver(sub.ch, u)
		}
	}
}

func deliver(ch chan Update, u Update) {
	select {
	case ch <- u:
	default:
		// drop oldest if queue full
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	list := h.subs[sub.key]
	for i, s := range list {
		if s == sub {
			h.subs[sub.key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	close(sub.ch)
}
