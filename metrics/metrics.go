package metrics

// CacheMetrics tracks cache tier effectiveness and verification activity.
type CacheMetrics interface {
	// CacheHit records a lookup served by the named cache resource.
	CacheHit(resource string)

	// CacheMiss records a lookup that fell through the named cache resource.
	CacheMiss(resource string)

	// CacheEntries reports the current entry count of the named cache
	// resource.
	CacheEntries(resource string, entries uint)

	// ModuleVerified records a completed verification pipeline run.
	ModuleVerified()

	// VerificationFailed records a verification pipeline run that ended in
	// a deterministic error.
	VerificationFailed()
}
