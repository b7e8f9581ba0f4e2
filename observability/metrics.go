package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"channeld/core/events"
)

type registryMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	registryMetricsOnce sync.Once
	registryRegistry    *registryMetrics
)

// RegistryMetrics returns the lazily-initialised metrics registry used to
// record channel registry activity.
func RegistryMetrics() *registryMetrics {
	registryMetricsOnce.Do(func() {
		registryRegistry = &registryMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "channeld",
				Subsystem: "registry",
				Name:      "events_total",
				Help:      "Total domain events emitted segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(registryRegistry.emitted)
	})
	return registryRegistry
}

// Emitter wraps another emitter and counts every event by type. It satisfies
// events.Emitter so it can sit in front of any downstream subscriber. Every
// mutation the engine performs emits exactly one event, so the counter doubles
// as an operation counter.
type Emitter struct {
	next events.Emitter
}

// NewEmitter builds a counting emitter that forwards to next. A nil next
// discards events after counting.
func NewEmitter(next events.Emitter) *Emitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &Emitter{next: next}
}

// Emit implements the events.Emitter interface.
func (e *Emitter) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	RegistryMetrics().emitted.WithLabelValues(evt.EventType()).Inc()
	e.next.Emit(evt)
}
