package metrics

// NoopCollector discards all metrics.  Used in tests and wherever a caller
// does not care about instrumentation.
type NoopCollector struct{}

var _ CacheMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) CacheHit(resource string)                 {}
func (nc *NoopCollector) CacheMiss(resource string)                {}
func (nc *NoopCollector) CacheEntries(resource string, entries uint) {}
func (nc *NoopCollector) ModuleVerified()                          {}
func (nc *NoopCollector) VerificationFailed()                      {}
