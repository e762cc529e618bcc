// Package metrics collects Prometheus metrics for the engagement engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and the notifier report into.
type Recorder interface {
	ReflectionSubmitted()
	PlantWatered()
	BadgeGranted(code string)
	EventPublished(name string)
	EventDropped(name string)
	EventFailed(name string)
	StreamOpened()
	StreamClosed()
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	reflections   prometheus.Counter
	watered       prometheus.Counter
	badges        *prometheus.CounterVec
	published     *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	failed        *prometheus.CounterVec
	streamClients prometheus.Gauge
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		reflections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflection_garden_reflections_submitted_total",
			Help: "Reflections committed.",
		}),
		watered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reflection_garden_plants_watered_total",
			Help: "Watering actions committed.",
		}),
		badges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflection_garden_badges_granted_total",
			Help: "Badge grants by badge code.",
		}, []string{"badge"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflection_garden_events_published_total",
			Help: "Events handed to the transport.",
		}, []string{"event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflection_garden_events_dropped_total",
			Help: "Frames missed by slow subscribers.",
		}, []string{"event"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reflection_garden_events_failed_total",
			Help: "Publish calls that returned an error.",
		}, []string{"event"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reflection_garden_stream_subscribers",
			Help: "Open event streams.",
		}),
	}
	reg.MustRegister(c.reflections, c.watered, c.badges, c.published, c.dropped, c.failed, c.streamClients)
	return c
}

func (c *Collector) ReflectionSubmitted()       { c.reflections.Inc() }
func (c *Collector) PlantWatered()              { c.watered.Inc() }
func (c *Collector) BadgeGranted(code string)   { c.badges.WithLabelValues(code).Inc() }
func (c *Collector) EventPublished(name string) { c.published.WithLabelValues(name).Inc() }
func (c *Collector) EventDropped(name string)   { c.dropped.WithLabelValues(name).Inc() }
func (c *Collector) EventFailed(name string)    { c.failed.WithLabelValues(name).Inc() }
func (c *Collector) StreamOpened()              { c.streamClients.Inc() }
func (c *Collector) StreamClosed()              { c.streamClients.Dec() }

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Noop discards everything.
type Noop struct{}

func (Noop) ReflectionSubmitted()  {}
func (Noop) PlantWatered()         {}
func (Noop) BadgeGranted(string)   {}
func (Noop) EventPublished(string) {}
func (Noop) EventDropped(string)   {}
func (Noop) EventFailed(string)    {}
func (Noop) StreamOpened()         {}
func (Noop) StreamClosed()         {}
