package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/atomic"

	"github.com/aptos-labs/modcache/metrics"
	"github.com/aptos-labs/modcache/model/bytecode"
)

const defaultCrossBlockLimit = 10_000

// CrossBlockCache is the process-wide cache of modules and scripts that were
// published in blocks strictly prior to the one currently executing.  Such
// entries cannot be modified by in-flight transactions, so lookups served
// here are exempt from captured-reads conflict tracking.
//
// The cache is populated out-of-band (by promoting per-block entries once a
// block is final) and is only ever cleared wholesale, on structural events
// such as an epoch change.
type CrossBlockCache struct {
	metrics metrics.CacheMetrics

	moduleLimit int
	scriptLimit int

	modules *lru.Cache[bytecode.ModuleKey, *ModuleEntry]
	scripts *lru.Cache[bytecode.ScriptKey, *ScriptEntry]

	generation atomic.Uint64
}

func WithModuleLimit(limit int) func(*CrossBlockCache) {
	return func(c *CrossBlockCache) {
		c.moduleLimit = limit
	}
}

func WithScriptLimit(limit int) func(*CrossBlockCache) {
	return func(c *CrossBlockCache) {
		c.scriptLimit = limit
	}
}

func NewCrossBlockCache(
	collector metrics.CacheMetrics,
	options ...func(*CrossBlockCache),
) *CrossBlockCache {
	c := &CrossBlockCache{
		metrics:     collector,
		moduleLimit: defaultCrossBlockLimit,
		scriptLimit: defaultCrossBlockLimit,
	}
	for _, option := range options {
		option(c)
	}

	c.modules, _ = lru.New[bytecode.ModuleKey, *ModuleEntry](c.moduleLimit)
	c.scripts, _ = lru.New[bytecode.ScriptKey, *ScriptEntry](c.scriptLimit)
	return c
}

// GetModule is a pure lookup: it never blocks and never triggers loading.
// A miss simply means "fall through to the next tier".
func (c *CrossBlockCache) GetModule(
	key bytecode.ModuleKey,
) (
	*ModuleEntry,
	bool,
) {
	entry, ok := c.modules.Get(key)
	if ok {
		c.metrics.CacheHit(metrics.ResourceCrossBlockModule)
		return entry, true
	}
	c.metrics.CacheMiss(metrics.ResourceCrossBlockModule)
	return nil, false
}

func (c *CrossBlockCache) GetScript(
	key bytecode.ScriptKey,
) (
	*ScriptEntry,
	bool,
) {
	entry, ok := c.scripts.Get(key)
	if ok {
		c.metrics.CacheHit(metrics.ResourceCrossBlockScript)
		return entry, true
	}
	c.metrics.CacheMiss(metrics.ResourceCrossBlockScript)
	return nil, false
}

func (c *CrossBlockCache) ContainsModule(key bytecode.ModuleKey) bool {
	return c.modules.Contains(key)
}

// AddModule installs an entry known to be final.  Existing entries are never
// mutated in place; re-adding the same key replaces the stored pointer with
// an entry of identical content.
func (c *CrossBlockCache) AddModule(
	key bytecode.ModuleKey,
	entry *ModuleEntry,
) {
	c.modules.Add(key, entry)
	c.metrics.CacheEntries(
		metrics.ResourceCrossBlockModule,
		uint(c.modules.Len()))
}

func (c *CrossBlockCache) AddScript(
	key bytecode.ScriptKey,
	entry *ScriptEntry,
) {
	c.scripts.Add(key, entry)
	c.metrics.CacheEntries(
		metrics.ResourceCrossBlockScript,
		uint(c.scripts.Len()))
}

// Clear drops all entries and advances the cache generation.  Called on
// epoch rotation, when verification rules may have changed and cached
// verified forms are no longer valid.
func (c *CrossBlockCache) Clear() {
	c.modules.Purge()
	c.scripts.Purge()
	c.generation.Inc()
	c.metrics.CacheEntries(metrics.ResourceCrossBlockModule, 0)
	c.metrics.CacheEntries(metrics.ResourceCrossBlockScript, 0)
}

// Generation returns the number of wholesale invalidations this cache has
// gone through.  Entry pointers are only comparable within one generation.
func (c *CrossBlockCache) Generation() uint64 {
	return c.generation.Load()
}
