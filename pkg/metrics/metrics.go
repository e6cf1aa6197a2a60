// Package metrics exposes Prometheus collectors for cordyceps containers.
// All methods are safe on a nil *Collectors, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Update modes.
const (
	ModeMerge   = "merge"
	ModeReplace = "replace"
)

// Collectors groups the container metrics.
type Collectors struct {
	updates        *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec
	bindings       *prometheus.CounterVec
	replacements   *prometheus.CounterVec
	callbackPanics *prometheus.CounterVec
}

// New creates unregistered collectors under namespace.
func New(namespace string) *Collectors {
	if namespace == "" {
		namespace = "cordyceps"
	}
	return &Collectors{
		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "state",
				Name:      "updates_total",
				Help:      "Applied state updates.",
			},
			[]string{"mode"},
		),
		updateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "state",
				Name:      "update_duration_seconds",
				Help:      "Time spent merging and broadcasting one update.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		bindings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "bindings_total",
				Help:      "Elements infected per fungus.",
			},
			[]string{"fungus"},
		),
		replacements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "element_replacements_total",
				Help:      "Element handles swapped by fungus callbacks.",
			},
			[]string{"fungus"},
		),
		callbackPanics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "callback_panics_total",
				Help:      "Recovered panics in fungus callbacks.",
			},
			[]string{"fungus", "callback"},
		),
	}
}

// Register adds the collectors to r.
func (c *Collectors) Register(r prometheus.Registerer) error {
	if c == nil {
		return nil
	}
	for _, col := range []prometheus.Collector{
		c.updates, c.updateDuration, c.bindings, c.replacements, c.callbackPanics,
	} {
		if err := r.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// ObserveUpdate records one applied update.
func (c *Collectors) ObserveUpdate(mode string, d time.Duration) {
	if c == nil {
		return
	}
	c.updates.WithLabelValues(mode).Inc()
	c.updateDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// AddBindings records n new bindings for fungus.
func (c *Collectors) AddBindings(fungus string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.bindings.WithLabelValues(fungus).Add(float64(n))
}

// IncReplacement records an element swap.
func (c *Collectors) IncReplacement(fungus string) {
	if c == nil {
		return
	}
	c.replacements.WithLabelValues(fungus).Inc()
}

// IncCallbackPanic records a recovered callback panic.
func (c *Collectors) IncCallbackPanic(fungus, callback string) {
	if c == nil {
		return
	}
	c.callbackPanics.WithLabelValues(fungus, callback).Inc()
}

// detached returns an unregistered counter for reads on a nil *Collectors.
func detached() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "detached"})
}

// Updates returns the update counter for mode.
func (c *Collectors) Updates(mode string) prometheus.Counter {
	if c == nil {
		return detached()
	}
	return c.updates.WithLabelValues(mode)
}

// Bindings returns the binding counter for fungus.
func (c *Collectors) Bindings(fungus string) prometheus.Counter {
	if c == nil {
		return detached()
	}
	return c.bindings.WithLabelValues(fungus)
}

// Replacements returns the replacement counter for fungus.
func (c *Collectors) Replacements(fungus string) prometheus.Counter {
	if c == nil {
		return detached()
	}
	return c.replacements.WithLabelValues(fungus)
}

// CallbackPanics returns the panic counter for fungus and callback.
func (c *Collectors) CallbackPanics(fungus, callback string) prometheus.Counter {
	if c == nil {
		return detached()
	}
	return c.callbackPanics.WithLabelValues(fungus, callback)
}
