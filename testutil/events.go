package testutil

import (
	"sync"

	"reflection-garden/events"
)

// Published is one recorded Publish call.
type Published struct {
	Topic string
	Event events.Event
}

// Recorder is an events.Publisher that keeps every call.
type Recorder struct {
	mu    sync.Mutex
	calls []Published
	Err   error
}

func (r *Recorder) Publish(topic string, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Published{Topic: topic, Event: ev})
	return r.Err
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.calls...)
}

// Names returns "topic name" pairs in publish order.
func (r *Recorder) Names() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, c.Topic+" "+c.Event.EventName())
	}
	return out
}

// Count returns how many events named name went to topic.
func (r *Recorder) Count(topic, name string) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Topic == topic && c.Event.EventName() == name {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
