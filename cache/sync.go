package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/aptos-labs/modcache/metrics"
	"github.com/aptos-labs/modcache/model/bytecode"
)

// SyncCache is the per-block concurrent cache used when a block is executed
// by multiple worker threads in parallel.  It is created at block-execution
// start and discarded (or flushed into the cross-block cache) at
// block-execution end.
//
// GetOrInit computes a missing value exactly once per key across concurrent
// callers: losers of the race block on the winner's singleflight and receive
// the same published entry.  Producer errors propagate to all waiters of the
// same flight but are not cached; the next caller recomputes.
type SyncCache struct {
	metrics metrics.CacheMetrics

	mu      sync.RWMutex
	modules map[bytecode.ModuleKey]*ModuleEntry
	scripts map[bytecode.ScriptKey]*ScriptEntry

	moduleGroup singleflight.Group
	scriptGroup singleflight.Group
}

var _ ActiveCache = (*SyncCache)(nil)

func NewSyncCache(collector metrics.CacheMetrics) *SyncCache {
	return &SyncCache{
		metrics: collector,
		modules: make(map[bytecode.ModuleKey]*ModuleEntry),
		scripts: make(map[bytecode.ScriptKey]*ScriptEntry),
	}
}

func (c *SyncCache) GetModule(
	key bytecode.ModuleKey,
) (
	*ModuleEntry,
	bool,
) {
	c.mu.RLock()
	entry, ok := c.modules[key]
	c.mu.RUnlock()

	if ok {
		c.metrics.CacheHit(metrics.ResourceBlockModule)
		return entry, true
	}
	c.metrics.CacheMiss(metrics.ResourceBlockModule)
	return nil, false
}

func (c *SyncCache) GetOrInitModule(
	key bytecode.ModuleKey,
	producer func() (*ModuleEntry, error),
) (
	*ModuleEntry,
	error,
) {
	if entry, ok := c.GetModule(key); ok {
		return entry, nil
	}

	result, err, _ := c.moduleGroup.Do(
		key.String(),
		func() (interface{}, error) {
			// Another flight may have published between our miss and
			// this call.
			c.mu.RLock()
			entry, ok := c.modules[key]
			c.mu.RUnlock()
			if ok {
				return entry, nil
			}

			entry, err := producer()
			if err != nil {
				return nil, err
			}
			if entry == nil {
				// "no such unit" is returned but never stored.
				return (*ModuleEntry)(nil), nil
			}

			c.mu.Lock()
			defer c.mu.Unlock()
			if existing, ok := c.modules[key]; ok {
				return existing, nil
			}
			c.modules[key] = entry
			return entry, nil
		})
	if err != nil {
		return nil, err
	}

	entry, _ := result.(*ModuleEntry)
	return entry, nil
}

// PublishModule unconditionally installs an entry, except that a verified
// entry is never replaced by an unverified one: promotion is the only legal
// transition.
func (c *SyncCache) PublishModule(
	key bytecode.ModuleKey,
	entry *ModuleEntry,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.modules[key]
	if ok && existing.IsVerified() && !entry.IsVerified() {
		return
	}
	c.modules[key] = entry
}

func (c *SyncCache) GetScript(
	key bytecode.ScriptKey,
) (
	*ScriptEntry,
	bool,
) {
	c.mu.RLock()
	entry, ok := c.scripts[key]
	c.mu.RUnlock()

	if ok {
		c.metrics.CacheHit(metrics.ResourceBlockScript)
		return entry, true
	}
	c.metrics.CacheMiss(metrics.ResourceBlockScript)
	return nil, false
}

func (c *SyncCache) GetOrInitScript(
	key bytecode.ScriptKey,
	producer func() (*ScriptEntry, error),
) (
	*ScriptEntry,
	error,
) {
	if entry, ok := c.GetScript(key); ok {
		return entry, nil
	}

	result, err, _ := c.scriptGroup.Do(
		key.String(),
		func() (interface{}, error) {
			c.mu.RLock()
			entry, ok := c.scripts[key]
			c.mu.RUnlock()
			if ok {
				return entry, nil
			}

			entry, err := producer()
			if err != nil {
				return nil, err
			}
			if entry == nil {
				return (*ScriptEntry)(nil), nil
			}

			c.mu.Lock()
			defer c.mu.Unlock()
			if existing, ok := c.scripts[key]; ok {
				return existing, nil
			}
			c.scripts[key] = entry
			return entry, nil
		})
	if err != nil {
		return nil, err
	}

	entry, _ := result.(*ScriptEntry)
	return entry, nil
}

func (c *SyncCache) PublishScript(
	key bytecode.ScriptKey,
	entry *ScriptEntry,
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.scripts[key]
	if ok && existing.IsVerified() && !entry.IsVerified() {
		return
	}
	c.scripts[key] = entry
}

// ModuleCount returns the number of cached module entries.
func (c *SyncCache) ModuleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.modules)
}

// FlushTo promotes all verified entries into the cross-block cache.  Called
// once the block is final and its modules are known-immutable going forward.
func (c *SyncCache) FlushTo(cross *CrossBlockCache) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for key, entry := range c.modules {
		if entry.IsVerified() {
			cross.AddModule(key, entry)
		}
	}
	for key, entry := range c.scripts {
		if entry.IsVerified() {
			cross.AddScript(key, entry)
		}
	}
}
