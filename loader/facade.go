package loader

import (
	"context"

	"github.com/aptos-labs/modcache/cache"
	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
	"github.com/aptos-labs/modcache/storage/snapshot"
)

// Facade is the capability surface exposed to the interpreter.  Every
// accessor that escapes the cross-block cache performs captured-reads
// bookkeeping in Sync mode: existence, bytes, size, metadata, deserialized
// and verified lookups all count as reads for conflict purposes.
type Facade struct {
	loader *Loader
}

// NewSyncFacade builds the facade for parallel (speculative) block
// execution.  reads must be a fresh recorder owned by the current
// transaction attempt.
func NewSyncFacade(
	params Params,
	vm runtime.VM,
	crossBlock *cache.CrossBlockCache,
	blockCache *cache.SyncCache,
	base snapshot.BaseView,
	reads *cache.CapturedReads,
) *Facade {
	return &Facade{
		loader: NewLoader(params, vm, crossBlock, blockCache, base, reads),
	}
}

// NewUnsyncFacade builds the facade for single-threaded execution.  No
// captured-reads bookkeeping happens in this mode.
func NewUnsyncFacade(
	params Params,
	vm runtime.VM,
	crossBlock *cache.CrossBlockCache,
	executionCache *cache.UnsyncCache,
	base snapshot.BaseView,
) *Facade {
	return &Facade{
		loader: NewLoader(params, vm, crossBlock, executionCache, base, nil),
	}
}

// CapturedReads returns the transaction attempt's recorded read set, or nil
// in Unsync mode.  Consumed by the external scheduler after execution.
func (f *Facade) CapturedReads() *cache.CapturedReads {
	return f.loader.CapturedReads()
}

// Exists reports whether a module is published under the given key.
func (f *Facade) Exists(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	bool,
	error,
) {
	entry, err := f.loader.loadDeserialized(key)
	if err != nil {
		return false, f.loader.handleError(err, "module", key.String())
	}
	return entry != nil, nil
}

// FetchBytes returns the module's raw serialized bytes, or nil when the
// module does not exist.
func (f *Facade) FetchBytes(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	[]byte,
	error,
) {
	entry, err := f.loader.loadDeserialized(key)
	if err != nil {
		return nil, f.loader.handleError(err, "module", key.String())
	}
	if entry == nil {
		return nil, nil
	}
	return entry.Bytes(), nil
}

// FetchSize returns the module's serialized size in bytes.  The second
// return value is false when the module does not exist.
func (f *Facade) FetchSize(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	uint64,
	bool,
	error,
) {
	entry, err := f.loader.loadDeserialized(key)
	if err != nil {
		return 0, false, f.loader.handleError(err, "module", key.String())
	}
	if entry == nil {
		return 0, false, nil
	}
	return entry.Size(), true, nil
}

// FetchMetadata returns the module's persisted state-value metadata.  The
// second return value is false when the module does not exist.
func (f *Facade) FetchMetadata(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	bytecode.Metadata,
	bool,
	error,
) {
	entry, err := f.loader.loadDeserialized(key)
	if err != nil {
		return bytecode.Metadata{}, false, f.loader.handleError(
			err,
			"module",
			key.String())
	}
	if entry == nil {
		return bytecode.Metadata{}, false, nil
	}
	return entry.Metadata(), true, nil
}

// FetchDeserialized returns the module's parsed-but-possibly-unverified
// form, or nil when the module does not exist.
func (f *Facade) FetchDeserialized(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	runtime.CompiledModule,
	error,
) {
	entry, err := f.loader.loadDeserialized(key)
	if err != nil {
		return nil, f.loader.handleError(err, "module", key.String())
	}
	if entry == nil {
		return nil, nil
	}
	return entry.AsCompiled(), nil
}

// FetchVerified resolves the module all the way to its verified form,
// verifying it and its dependency closure as needed.  Returns nil when the
// module does not exist.
func (f *Facade) FetchVerified(
	ctx context.Context,
	key bytecode.ModuleKey,
) (
	runtime.VerifiedModule,
	error,
) {
	return f.loader.ResolveModule(ctx, key)
}

// DeserializeScript parses a script, deduplicating byte-identical content by
// hash.
func (f *Facade) DeserializeScript(
	ctx context.Context,
	code []byte,
) (
	runtime.CompiledScript,
	error,
) {
	return f.loader.DeserializeScript(ctx, code)
}

// VerifyScript resolves a script to its verified form, verifying its module
// dependency closure as needed.
func (f *Facade) VerifyScript(
	ctx context.Context,
	code []byte,
) (
	runtime.VerifiedScript,
	error,
) {
	return f.loader.ResolveScript(ctx, code)
}
