package cache

import (
	"github.com/aptos-labs/modcache/model/bytecode"
)

// UnsyncCache is the per-execution sequential cache used when a block (or a
// validation replay) is executed by a single thread.  Same contract as
// SyncCache minus the concurrency; the loader does not distinguish between
// them.
type UnsyncCache struct {
	modules map[bytecode.ModuleKey]*ModuleEntry
	scripts map[bytecode.ScriptKey]*ScriptEntry
}

var _ ActiveCache = (*UnsyncCache)(nil)

func NewUnsyncCache() *UnsyncCache {
	return &UnsyncCache{
		modules: make(map[bytecode.ModuleKey]*ModuleEntry),
		scripts: make(map[bytecode.ScriptKey]*ScriptEntry),
	}
}

func (c *UnsyncCache) GetModule(
	key bytecode.ModuleKey,
) (
	*ModuleEntry,
	bool,
) {
	entry, ok := c.modules[key]
	return entry, ok
}

func (c *UnsyncCache) GetOrInitModule(
	key bytecode.ModuleKey,
	producer func() (*ModuleEntry, error),
) (
	*ModuleEntry,
	error,
) {
	if entry, ok := c.modules[key]; ok {
		return entry, nil
	}

	entry, err := producer()
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	c.modules[key] = entry
	return entry, nil
}

func (c *UnsyncCache) PublishModule(
	key bytecode.ModuleKey,
	entry *ModuleEntry,
) {
	existing, ok := c.modules[key]
	if ok && existing.IsVerified() && !entry.IsVerified() {
		return
	}
	c.modules[key] = entry
}

func (c *UnsyncCache) GetScript(
	key bytecode.ScriptKey,
) (
	*ScriptEntry,
	bool,
) {
	entry, ok := c.scripts[key]
	return entry, ok
}

func (c *UnsyncCache) GetOrInitScript(
	key bytecode.ScriptKey,
	producer func() (*ScriptEntry, error),
) (
	*ScriptEntry,
	error,
) {
	if entry, ok := c.scripts[key]; ok {
		return entry, nil
	}

	entry, err := producer()
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	c.scripts[key] = entry
	return entry, nil
}

func (c *UnsyncCache) PublishScript(
	key bytecode.ScriptKey,
	entry *ScriptEntry,
) {
	existing, ok := c.scripts[key]
	if ok && existing.IsVerified() && !entry.IsVerified() {
		return
	}
	c.scripts[key] = entry
}

// ModuleCount returns the number of cached module entries.
func (c *UnsyncCache) ModuleCount() int {
	return len(c.modules)
}
