package events

import "sync"

const defaultBuffer = 64

// Hub is an in-memory publish/subscribe fan-out keyed by topic.
// Slow subscribers miss events rather than block publishers.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[int]chan Event
	nextID int
	buffer int
	closed bool
}

// NewHub constructs a Hub. A non-positive buffer uses the default.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		topics: make(map[string]map[int]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers for events on topic. The returned cancel func
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.nextID++
	id := h.nextID
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[int]chan Event)
	}
	h.topics[topic][id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			subs := h.topics[topic]
			if c, ok := subs[id]; ok {
				delete(subs, id)
				close(c)
			}
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of topic and returns how many
// received it.
func (h *Hub) Publish(topic string, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, ch := range h.topics[topic] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the subscriber count for topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// CloseTopic closes and removes every subscription on topic.
func (h *Hub) CloseTopic(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.topics[topic] {
		close(ch)
		delete(h.topics[topic], id)
	}
	delete(h.topics, topic)
}

// Close closes all subscriptions; later subscriptions get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for topic, subs := range h.topics {
		for _, ch := range subs {
			close(ch)
		}
		delete(h.topics, topic)
	}
}
