package cache

import (
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/storage/errors"
)

// ModuleRead is the state of one module key as observed by a transaction at
// read time.  A nil Entry records an observed "not found".
type ModuleRead struct {
	Entry *ModuleEntry
}

// Exists reports whether the module was present when read.
func (r ModuleRead) Exists() bool {
	return r.Entry != nil
}

// ReadObserver re-reads the current value for a key at validation time.
// SyncCache and UnsyncCache both satisfy it.
type ReadObserver interface {
	GetModule(key bytecode.ModuleKey) (*ModuleEntry, bool)
}

// CapturedReads records every module read that was served by the block-scoped
// cache tier or the base view during one transaction attempt.  Reads served
// by the cross-block cache are exempt and must not be recorded: cross-block
// entries are immutable across the whole block, so they cannot conflict.
//
// The recorder is owned by a single transaction attempt and is not safe for
// concurrent use.  The external scheduler consumes it after execution to
// decide whether the attempt's reads are still valid, then discards it.
type CapturedReads struct {
	modules map[bytecode.ModuleKey]ModuleRead
}

func NewCapturedReads() *CapturedReads {
	return &CapturedReads{
		modules: make(map[bytecode.ModuleKey]ModuleRead),
	}
}

// RecordModule records the entry observed for key, or an observed "not
// found" when entry is nil.  Re-recording a key overwrites the previous
// observation; the loader uses this to update a read after promoting the
// entry to Verified, so validation sees the terminal value the transaction
// actually used.
func (reads *CapturedReads) RecordModule(
	key bytecode.ModuleKey,
	entry *ModuleEntry,
) {
	reads.modules[key] = ModuleRead{Entry: entry}
}

// Get returns the recorded observation for key.
func (reads *CapturedReads) Get(key bytecode.ModuleKey) (ModuleRead, bool) {
	read, ok := reads.modules[key]
	return read, ok
}

func (reads *CapturedReads) Len() int {
	return len(reads.modules)
}

// Keys returns all consulted module keys in canonical order.
func (reads *CapturedReads) Keys() []bytecode.ModuleKey {
	keys := make([]bytecode.ModuleKey, 0, len(reads.modules))
	for key := range reads.modules {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Compare(keys[j]) < 0
	})
	return keys
}

// Scan visits every recorded read until yield returns false.
func (reads *CapturedReads) Scan(
	yield func(key bytecode.ModuleKey, read ModuleRead) bool,
) {
	for key, read := range reads.modules {
		if !yield(key, read) {
			return
		}
	}
}

func matches(recorded ModuleRead, current *ModuleEntry, ok bool) bool {
	if !ok {
		return recorded.Entry == nil
	}
	if recorded.Entry == nil {
		return false
	}
	if recorded.Entry == current {
		return true
	}
	// Entries are deterministic functions of on-chain bytes, so an entry
	// republished by another transaction is equivalent as long as the
	// content and verification state agree.
	return recorded.Entry.Hash() == current.Hash() &&
		recorded.Entry.IsVerified() == current.IsVerified()
}

// Validate re-reads every recorded key through observer and returns an
// aggregated error naming each key whose current state no longer matches the
// recorded observation.  A nil result means the read set is still valid.
func (reads *CapturedReads) Validate(observer ReadObserver) error {
	var result *multierror.Error

	for key, read := range reads.modules {
		current, ok := observer.GetModule(key)
		if matches(read, current, ok) {
			continue
		}

		result = multierror.Append(
			result,
			errors.NewInvalidatedReadErrorf(
				key,
				"recorded (exists: %t, verified: %t), current (exists: %t)",
				read.Exists(),
				read.Exists() && read.Entry.IsVerified(),
				ok))
	}

	return result.ErrorOrNil()
}
