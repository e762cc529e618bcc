package services

import (
	"log"

	"reflection-garden/events"
	"reflection-garden/metrics"
)

// Notifier routes state changes to topics. Publishing is fire-and-forget:
// failures are logged and counted, never returned to the action.
type Notifier struct {
	pub     events.Publisher
	metrics metrics.Recorder
}

func NewNotifier(pub events.Publisher, m metrics.Recorder) *Notifier {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Notifier{pub: pub, metrics: m}
}

// Publish sends one event to one topic.
func (n *Notifier) Publish(topic string, ev events.Event) {
	if n == nil || n.pub == nil {
		return
	}
	if err := n.pub.Publish(topic, ev); err != nil {
		n.metrics.EventFailed(ev.EventName())
		log.Printf("❌ [Notifier] publish %s → %s failed: %v", ev.EventName(), topic, err)
		return
	}
	n.metrics.EventPublished(ev.EventName())
}

// outbox queues events while a transaction is open so nothing leaves
// before commit.
type outbox struct {
	items []outboxItem
}

type outboxItem struct {
	topic string
	ev    events.Event
}

func (o *outbox) add(topic string, ev events.Event) {
	o.items = append(o.items, outboxItem{topic: topic, ev: ev})
}

// flush publishes the queued events in order.
func (o *outbox) flush(n *Notifier) {
	for _, it := range o.items {
		n.Publish(it.topic, it.ev)
	}
	o.items = nil
}
