package activity

import (
	"sync"

	"leadcompass/internal/pkg/metrics"
)

const subscriptionBuffer = 64

// Subscription receives activities as they are recorded. Close releases it.
type Subscription struct {
	C <-chan Activity

	hub  *Hub
	ch   chan Activity
	once sync.Once
}

// Close unregisters the subscription and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.remove(s) })
}

// Hub fans recorded activities out to live subscribers
type Hub struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	dropped uint64
	metrics *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		subs:    make(map[*Subscription]struct{}),
		metrics: m,
	}
}

func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Activity, subscriptionBuffer)
	s := &Subscription{C: ch, hub: h, ch: ch}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
}

// Publish delivers a to every subscriber in call order.
// A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(a Activity) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		select {
		case s.ch <- a:
		default:
			h.dropped++
		}
	}
}

// Subscribers returns the number of open subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped for slow subscribers
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
