// Package cache implements the module/script cache tiers: the process-wide
// cross-block cache, the per-block concurrent cache, the per-execution
// sequential cache, and the per-transaction captured-reads recorder.
package cache

import (
	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
)

// Entry is a cached bytecode unit in one of two states: deserialized (parsed
// but unverified) or verified.  Entries are immutable once published;
// promotion to Verified produces a new entry which is installed at the same
// key, so readers either see the old entry or the fully promoted one, never
// a half-promoted state.
type Entry[C any, V any] struct {
	bytes    []byte
	hash     bytecode.Hash
	metadata bytecode.Metadata

	compiled C

	verified   V
	isVerified bool
}

// NewDeserializedEntry wraps a freshly parsed unit together with its raw
// bytes and persisted metadata.
func NewDeserializedEntry[C any, V any](
	raw []byte,
	metadata bytecode.Metadata,
	compiled C,
) *Entry[C, V] {
	return &Entry[C, V]{
		bytes:    raw,
		hash:     bytecode.HashForBytes(raw),
		metadata: metadata,
		compiled: compiled,
	}
}

// MakeVerified returns a new Verified entry preserving the original bytes,
// hash and metadata.  The receiver is left untouched.
func (entry *Entry[C, V]) MakeVerified(verified V) *Entry[C, V] {
	return &Entry[C, V]{
		bytes:      entry.bytes,
		hash:       entry.hash,
		metadata:   entry.metadata,
		compiled:   entry.compiled,
		verified:   verified,
		isVerified: true,
	}
}

// AsCompiled returns the parsed unit.  Available in both states.
func (entry *Entry[C, V]) AsCompiled() C {
	return entry.compiled
}

// AsVerified returns the verified unit, or false if the entry has not been
// promoted.
func (entry *Entry[C, V]) AsVerified() (V, bool) {
	return entry.verified, entry.isVerified
}

// IsVerified reports whether the entry has been promoted.
func (entry *Entry[C, V]) IsVerified() bool {
	return entry.isVerified
}

// Bytes returns the raw serialized form.
func (entry *Entry[C, V]) Bytes() []byte {
	return entry.bytes
}

// Size returns the serialized size in bytes.
func (entry *Entry[C, V]) Size() uint64 {
	return uint64(len(entry.bytes))
}

// Hash returns the content hash of the serialized form.
func (entry *Entry[C, V]) Hash() bytecode.Hash {
	return entry.hash
}

// Metadata returns the persisted state-value metadata.
func (entry *Entry[C, V]) Metadata() bytecode.Metadata {
	return entry.metadata
}

// ModuleEntry is a cached module.
type ModuleEntry = Entry[runtime.CompiledModule, runtime.VerifiedModule]

// ScriptEntry is a cached script.
type ScriptEntry = Entry[runtime.CompiledScript, runtime.VerifiedScript]
