// Package metrics exposes prometheus counters for the cross-model
// reference cache and the model registry.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xsdmodel"

// Lookup results recorded by the reference cache.
const (
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultNegative = "negative"
	ResultStale    = "stale"
	ResultFailed   = "failed"
)

// Cache records cross-model reference cache activity. A nil *Cache is valid
// and records nothing.
type Cache struct {
	lookups   *prometheus.CounterVec
	evictions *prometheus.CounterVec
}

// NewCache creates cache counters and registers them on reg when reg is
// not nil.
func NewCache(reg prometheus.Registerer) (*Cache, error) {
	c := &Cache{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refcache",
			Name:      "lookups_total",
			Help:      "Directive resolutions by cache result.",
		}, []string{"result"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refcache",
			Name:      "evictions_total",
			Help:      "Cache entries dropped, by reason.",
		}, []string{"reason"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{c.lookups, c.evictions} {
		if err := register(reg, col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Lookup records one directive resolution outcome.
func (c *Cache) Lookup(result string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(result).Inc()
}

// Evict records one cache eviction.
func (c *Cache) Evict(reason string) {
	if c == nil {
		return
	}
	c.evictions.WithLabelValues(reason).Inc()
}

// Registry records model loading. A nil *Registry records nothing.
type Registry struct {
	loads  *prometheus.CounterVec
	models prometheus.Gauge
}

// NewRegistry creates registry metrics and registers them on reg when reg
// is not nil.
func NewRegistry(reg prometheus.Registerer) (*Registry, error) {
	r := &Registry{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "loads_total",
			Help:      "Schema document loads by outcome.",
		}, []string{"outcome"}),
		models: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "models",
			Help:      "Models currently held by the registry.",
		}),
	}
	if reg == nil {
		return r, nil
	}
	for _, col := range []prometheus.Collector{r.loads, r.models} {
		if err := register(reg, col); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Load records a document load outcome ("ok", "error", "reload").
func (r *Registry) Load(outcome string) {
	if r == nil {
		return
	}
	r.loads.WithLabelValues(outcome).Inc()
}

// SetModels sets the number of live models.
func (r *Registry) SetModels(n int) {
	if r == nil {
		return
	}
	r.models.Set(float64(n))
}

func register(reg prometheus.Registerer, col prometheus.Collector) error {
	if err := reg.Register(col); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return err
	}
	return nil
}
