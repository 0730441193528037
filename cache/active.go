package cache

import (
	"github.com/aptos-labs/modcache/model/bytecode"
)

// ActiveCache is the block-scoped tier consulted after the cross-block
// cache.  SyncCache implements it for parallel execution, UnsyncCache for
// sequential execution; the loader is mode-agnostic against this contract.
//
// GetOrInit producers may return (nil, nil) to signal "no such unit"; such
// results are returned to the caller but never stored, so a later publish of
// the key is still possible.  Producer errors propagate and are not cached.
type ActiveCache interface {
	GetModule(key bytecode.ModuleKey) (*ModuleEntry, bool)
	GetOrInitModule(
		key bytecode.ModuleKey,
		producer func() (*ModuleEntry, error),
	) (*ModuleEntry, error)
	PublishModule(key bytecode.ModuleKey, entry *ModuleEntry)

	GetScript(key bytecode.ScriptKey) (*ScriptEntry, bool)
	GetOrInitScript(
		key bytecode.ScriptKey,
		producer func() (*ScriptEntry, error),
	) (*ScriptEntry, error)
	PublishScript(key bytecode.ScriptKey, entry *ScriptEntry)
}
