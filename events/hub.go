package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrHubClosed is returned by Publish and Subscribe after Close.
var ErrHubClosed = errors.New("events: hub closed")

// Frame is one encoded event as delivered to a subscriber.
type Frame struct {
	Topic string
	Name  string
	Data  []byte
}

// DropFunc is called for every frame a slow subscriber misses.
type DropFunc func(topic, name string)

// Hub is an in-process, push-only topic router. Delivery is at most once
// per subscriber per publish and never blocks the publisher: a subscriber
// whose buffer is full misses the frame.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	onDrop DropFunc
}

// NewHub creates a hub whose subscriptions buffer up to buffer frames.
func NewHub(buffer int, onDrop DropFunc) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		onDrop: onDrop,
	}
}

// Subscription receives frames for its topics until Close.
type Subscription struct {
	hub    *Hub
	topics []string
	ch     chan Frame
	once   sync.Once
}

// C is the frame channel; it is closed when the subscription ends.
func (s *Subscription) C() <-chan Frame { return s.ch }

// Topics returns the subscribed topics.
func (s *Subscription) Topics() []string { return append([]string(nil), s.topics...) }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Subscribe registers a subscription on every given topic.
func (h *Hub) Subscribe(topics ...string) (*Subscription, error) {
	if len(topics) == 0 {
		return nil, errors.New("events: subscribe needs at least one topic")
	}
	for _, t := range topics {
		if _, _, err := ParseTopic(t); err != nil {
			return nil, err
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	sub := &Subscription{hub: h, topics: dedupe(topics), ch: make(chan Frame, h.buffer)}
	for _, t := range sub.topics {
		set, ok := h.subs[t]
		if !ok {
			set = make(map[*Subscription]struct{})
			h.subs[t] = set
		}
		set[sub] = struct{}{}
	}
	return sub, nil
}

// Publish encodes ev once and offers it to every subscriber of topic.
func (h *Hub) Publish(topic string, ev Event) error {
	if ev == nil {
		return errors.New("events: nil event")
	}
	if _, _, err := ParseTopic(topic); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.EventName(), err)
	}
	frame := Frame{Topic: topic, Name: ev.EventName(), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for sub := range h.subs[topic] {
		select {
		case sub.ch <- frame:
		default:
			if h.onDrop != nil {
				h.onDrop(topic, frame.Name)
			}
		}
	}
	return nil
}

// Subscribers counts live subscriptions on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Close ends every subscription and rejects further use.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	seen := make(map[*Subscription]struct{})
	for _, set := range h.subs {
		for sub := range set {
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			sub.once.Do(func() { close(sub.ch) })
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range sub.topics {
		if set, ok := h.subs[t]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, t)
			}
		}
	}
	close(sub.ch)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
