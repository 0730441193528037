package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheCollector exposes cache metrics through prometheus.
type CacheCollector struct {
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheEntries       *prometheus.GaugeVec
	modulesVerified    prometheus.Counter
	verificationFailed prometheus.Counter
}

var _ CacheMetrics = (*CacheCollector)(nil)

func NewCacheCollector(registerer prometheus.Registerer) *CacheCollector {

	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceExecution,
		Subsystem: subsystemModules,
		Name:      "cache_hit_total",
		Help:      "number of lookups served by a cache tier",
	}, []string{"resource"})

	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespaceExecution,
		Subsystem: subsystemModules,
		Name:      "cache_miss_total",
		Help:      "number of lookups that fell through a cache tier",
	}, []string{"resource"})

	cacheEntries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespaceExecution,
		Subsystem: subsystemModules,
		Name:      "cache_entries",
		Help:      "current number of entries in a cache tier",
	}, []string{"resource"})

	modulesVerified := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceExecution,
		Subsystem: subsystemModules,
		Name:      "modules_verified_total",
		Help:      "number of completed verification pipeline runs",
	})

	verificationFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceExecution,
		Subsystem: subsystemModules,
		Name:      "verification_failed_total",
		Help:      "number of verification pipeline runs that failed",
	})

	registerer.MustRegister(
		cacheHits,
		cacheMisses,
		cacheEntries,
		modulesVerified,
		verificationFailed)

	return &CacheCollector{
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		cacheEntries:       cacheEntries,
		modulesVerified:    modulesVerified,
		verificationFailed: verificationFailed,
	}
}

func (c *CacheCollector) CacheHit(resource string) {
	c.cacheHits.WithLabelValues(resource).Inc()
}

func (c *CacheCollector) CacheMiss(resource string) {
	c.cacheMisses.WithLabelValues(resource).Inc()
}

func (c *CacheCollector) CacheEntries(resource string, entries uint) {
	c.cacheEntries.WithLabelValues(resource).Set(float64(entries))
}

func (c *CacheCollector) ModuleVerified() {
	c.modulesVerified.Inc()
}

func (c *CacheCollector) VerificationFailed() {
	c.verificationFailed.Inc()
}
