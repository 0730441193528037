// Package loader orchestrates module and script resolution: cache lookup,
// deserialization, local verification, recursive dependency verification
// with cycle detection, and atomic promotion of the verified form into the
// active cache.
package loader

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aptos-labs/modcache/cache"
	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
	"github.com/aptos-labs/modcache/storage/errors"
	"github.com/aptos-labs/modcache/storage/snapshot"
)

// Loader resolves modules and scripts to their verified form.  Verification
// runs at most once per key per cache generation; concurrent requesters of
// the same key share one result through the active cache's get-or-init
// contract.
//
// A Loader is scoped to one transaction attempt in Sync mode (it owns that
// attempt's captured reads) and to one execution in Unsync mode.  The DFS
// inside a single resolve call is strictly sequential.
type Loader struct {
	Params

	vm         runtime.VM
	crossBlock *cache.CrossBlockCache
	active     cache.ActiveCache
	base       snapshot.BaseView

	// reads is nil in Unsync mode; no conflict tracking happens there.
	reads *cache.CapturedReads
}

func NewLoader(
	params Params,
	vm runtime.VM,
	crossBlock *cache.CrossBlockCache,
	active cache.ActiveCache,
	base snapshot.BaseView,
	reads *cache.CapturedReads,
) *Loader {
	return &Loader{
		Params:     params,
		vm:         vm,
		crossBlock: crossBlock,
		active:     active,
		base:       base,
		reads:      reads,
	}
}

// CapturedReads returns the read set recorded so far, or nil in Unsync mode.
func (l *Loader) CapturedReads() *cache.CapturedReads {
	return l.reads
}

// ResolveModule returns the verified form of the requested module, or
// (nil, nil) when no such module exists.  Deserialize, verification, linker
// and cyclic-dependency errors are deterministic and surface as coded
// errors; base-view faults surface as coded failures.
func (l *Loader) ResolveModule(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	runtime.VerifiedModule,
	error,
) {
	_, span := l.Tracer.Start(ctx, "modcache.ResolveModule")
	span.SetAttributes(attribute.String("module", key.String()))
	defer span.End()

	visited := map[bytecode.ModuleKey]struct{}{
		key: {},
	}

	entry, err := l.ensureVerified(key, visited, key, 0)
	if err != nil {
		return nil, l.handleError(err, "module", key.String())
	}
	if entry == nil {
		return nil, nil
	}

	verified, ok := entry.AsVerified()
	if !ok {
		return nil, errors.NewCacheImplementationFailure(
			"module (%s) resolved to an unverified entry",
			key)
	}
	return verified, nil
}

// handleError splits err into its deterministic and fatal halves, logging
// only the fatal ones.
func (l *Loader) handleError(err error, kind string, name string) error {
	codedErr, failure := errors.SplitErrorTypes(err)
	if failure != nil {
		l.Logger.Err(failure).
			Str(kind, name).
			Msg("fatal error while resolving")
		return failure
	}

	l.Metrics.VerificationFailed()
	return codedErr
}

// loadDeserialized returns the cache entry for key in at least the
// Deserialized state, falling through the cross-block tier, then the active
// tier, then the base view.  Returns nil when the module does not exist.
//
// Reads served purely by the cross-block cache are exempt from captured
// reads; everything else is recorded, including "not found".
func (l *Loader) loadDeserialized(
	key bytecode.ModuleKey,
) (
	*cache.ModuleEntry,
	error,
) {
	if entry, ok := l.crossBlock.GetModule(key); ok {
		return entry, nil
	}

	entry, err := l.active.GetOrInitModule(key, func() (*cache.ModuleEntry, error) {
		raw, err := l.base.ReadRaw(key)
		if err != nil {
			return nil, errors.NewStorageUnavailableFailure(err)
		}
		if raw == nil {
			return nil, nil
		}

		compiled, err := l.vm.DeserializeModule(raw.Bytes)
		if err != nil {
			return nil, err
		}

		return cache.NewDeserializedEntry[runtime.CompiledModule, runtime.VerifiedModule](
			raw.Bytes,
			raw.Metadata,
			compiled), nil
	})
	if err != nil {
		return nil, err
	}

	l.recordRead(key, entry)
	return entry, nil
}

// ensureVerified is the recursive core: it returns a Verified entry for key,
// or nil when the module does not exist.  visited carries the keys currently
// on the DFS stack of this top-level call only; requester names the original
// top-level key for error reporting.
func (l *Loader) ensureVerified(
	key bytecode.ModuleKey,
	visited map[bytecode.ModuleKey]struct{},
	requester bytecode.ModuleKey,
	depth int,
) (
	*cache.ModuleEntry,
	error,
) {
	if depth > l.MaxResolveDepth {
		return nil, errors.NewCacheImplementationFailure(
			"max resolve depth (%d) exceeded while resolving (%s)",
			l.MaxResolveDepth,
			requester)
	}

	entry, err := l.loadDeserialized(key)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if entry.IsVerified() {
		return entry, nil
	}

	return l.verifyEntry(key, entry, visited, requester, depth)
}

// peekVerified checks whether key is already Verified in some tier, without
// loading anything.  A verified dependency has exited the recursion and can
// never be part of a cycle.
func (l *Loader) peekVerified(
	key bytecode.ModuleKey,
) (
	*cache.ModuleEntry,
	bool,
) {
	if entry, ok := l.crossBlock.GetModule(key); ok && entry.IsVerified() {
		return entry, true
	}

	if entry, ok := l.active.GetModule(key); ok && entry.IsVerified() {
		// Served by the block-scoped tier, so still subject to conflict
		// tracking even though the entry is terminal for this block.
		l.recordRead(key, entry)
		return entry, true
	}

	return nil, false
}

// verifyEntry runs steps 4-7 of the resolution pipeline on a Deserialized
// entry: local verification, recursive dependency verification, linkage, and
// promotion.
func (l *Loader) verifyEntry(
	key bytecode.ModuleKey,
	entry *cache.ModuleEntry,
	visited map[bytecode.ModuleKey]struct{},
	requester bytecode.ModuleKey,
	depth int,
) (
	*cache.ModuleEntry,
	error,
) {
	locally, err := l.vm.LocallyVerifyModule(entry.AsCompiled())
	if err != nil {
		return nil, err
	}

	depKeys := entry.AsCompiled().Dependencies()
	deps := make([]runtime.VerifiedModule, 0, len(depKeys))
	for _, depKey := range depKeys {
		if depEntry, ok := l.peekVerified(depKey); ok {
			verified, _ := depEntry.AsVerified()
			deps = append(deps, verified)
			continue
		}

		// The dependency is absent or still unverified.  Re-entering a key
		// that is already on the DFS stack means the graph has a back edge
		// to an ancestor still being processed, i.e. a true cycle.
		if _, seen := visited[depKey]; seen {
			return nil, errors.NewCyclicDependencyErrorf(
				requester,
				"back edge to (%s)",
				depKey)
		}
		visited[depKey] = struct{}{}

		resolved, err := l.ensureVerified(depKey, visited, requester, depth+1)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, errors.NewLinkerErrorf(
				depKey,
				"required by (%s)",
				key)
		}

		verified, ok := resolved.AsVerified()
		if !ok {
			return nil, errors.NewCacheImplementationFailure(
				"dependency (%s) resolved to an unverified entry",
				depKey)
		}
		deps = append(deps, verified)
	}

	verified, err := l.vm.BuildVerifiedModule(locally, deps)
	if err != nil {
		return nil, err
	}

	promoted := entry.MakeVerified(verified)
	l.active.PublishModule(key, promoted)

	// Update the captured read so later validation sees the terminal value
	// this transaction actually used.
	l.recordRead(key, promoted)

	l.Metrics.ModuleVerified()
	return promoted, nil
}

// ResolveScript deserializes, verifies and caches the given script by its
// content hash.  Unlike modules, a script always exists (the caller holds
// its bytes); resolution fails only on malformed or unverifiable content.
func (l *Loader) ResolveScript(
	ctx context.Context,
	code []byte,
) (
	runtime.VerifiedScript,
	error,
) {
	key := bytecode.ScriptKeyForBytes(code)

	_, span := l.Tracer.Start(ctx, "modcache.ResolveScript")
	span.SetAttributes(attribute.String("script", key.String()))
	defer span.End()

	if entry, ok := l.crossBlock.GetScript(key); ok {
		if verified, ok := entry.AsVerified(); ok {
			return verified, nil
		}
	}

	entry, err := l.loadDeserializedScript(key, code)
	if err != nil {
		return nil, l.handleError(err, "script", key.String())
	}

	if verified, ok := entry.AsVerified(); ok {
		return verified, nil
	}

	verified, err := l.verifyScriptEntry(key, entry)
	if err != nil {
		return nil, l.handleError(err, "script", key.String())
	}
	return verified, nil
}

// DeserializeScript returns the parsed form of the script, caching it by
// content hash so byte-identical scripts are deserialized once.
func (l *Loader) DeserializeScript(
	ctx context.Context,
	code []byte,
) (
	runtime.CompiledScript,
	error,
) {
	key := bytecode.ScriptKeyForBytes(code)

	if entry, ok := l.crossBlock.GetScript(key); ok {
		return entry.AsCompiled(), nil
	}

	entry, err := l.loadDeserializedScript(key, code)
	if err != nil {
		return nil, l.handleError(err, "script", key.String())
	}
	return entry.AsCompiled(), nil
}

func (l *Loader) loadDeserializedScript(
	key bytecode.ScriptKey,
	code []byte,
) (
	*cache.ScriptEntry,
	error,
) {
	return l.active.GetOrInitScript(key, func() (*cache.ScriptEntry, error) {
		compiled, err := l.vm.DeserializeScript(code)
		if err != nil {
			return nil, err
		}

		return cache.NewDeserializedEntry[runtime.CompiledScript, runtime.VerifiedScript](
			code,
			bytecode.Metadata{},
			compiled), nil
	})
}

func (l *Loader) verifyScriptEntry(
	key bytecode.ScriptKey,
	entry *cache.ScriptEntry,
) (
	runtime.VerifiedScript,
	error,
) {
	locally, err := l.vm.LocallyVerifyScript(entry.AsCompiled())
	if err != nil {
		return nil, err
	}

	// Scripts are not module-graph nodes, so the visited set starts empty
	// and each dependency names itself as requester.
	visited := make(map[bytecode.ModuleKey]struct{})

	depKeys := entry.AsCompiled().Dependencies()
	deps := make([]runtime.VerifiedModule, 0, len(depKeys))
	for _, depKey := range depKeys {
		if depEntry, ok := l.peekVerified(depKey); ok {
			verified, _ := depEntry.AsVerified()
			deps = append(deps, verified)
			continue
		}

		if _, seen := visited[depKey]; seen {
			return nil, errors.NewCyclicDependencyErrorf(
				depKey,
				"back edge to (%s)",
				depKey)
		}
		visited[depKey] = struct{}{}

		resolved, err := l.ensureVerified(depKey, visited, depKey, 0)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, errors.NewLinkerErrorf(
				depKey,
				"required by script (%s)",
				key)
		}

		verified, ok := resolved.AsVerified()
		if !ok {
			return nil, errors.NewCacheImplementationFailure(
				"dependency (%s) resolved to an unverified entry",
				depKey)
		}
		deps = append(deps, verified)
	}

	builtVerified, err := l.vm.BuildVerifiedScript(locally, deps)
	if err != nil {
		return nil, err
	}

	promoted := entry.MakeVerified(builtVerified)
	l.active.PublishScript(key, promoted)

	l.Metrics.ModuleVerified()
	return builtVerified, nil
}

func (l *Loader) recordRead(
	key bytecode.ModuleKey,
	entry *cache.ModuleEntry,
) {
	if l.reads == nil {
		return
	}
	l.reads.RecordModule(key, entry)
}
