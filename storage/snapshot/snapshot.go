package snapshot

import (
	"github.com/aptos-labs/modcache/model/bytecode"
)

// RawModule is a module's persisted form as returned by the base view: the
// serialized bytes plus the state-value metadata stored with them.
type RawModule struct {
	Bytes    []byte
	Metadata bytecode.Metadata
}

// BaseView is a read-only window into persisted state as of a given
// transaction's position in the block.  It is owned by the surrounding
// executor; the caching layer never mutates it.
//
// ReadRaw returns nil (with a nil error) when no module exists for the key.
// A non-nil error indicates the underlying storage is unreachable.
type BaseView interface {
	ReadRaw(key bytecode.ModuleKey) (*RawModule, error)
}

// MapBaseView is a map-backed BaseView used in tests and sequential replay.
type MapBaseView map[bytecode.ModuleKey]*RawModule

var _ BaseView = MapBaseView{}

func (view MapBaseView) ReadRaw(
	key bytecode.ModuleKey,
) (
	*RawModule,
	error,
) {
	return view[key], nil
}

// ErrorBaseView is a BaseView whose reads always fail with Err.
type ErrorBaseView struct {
	Err error
}

var _ BaseView = ErrorBaseView{}

func (view ErrorBaseView) ReadRaw(
	key bytecode.ModuleKey,
) (
	*RawModule,
	error,
) {
	return nil, view.Err
}

// ReadFuncBaseView adapts a function into a BaseView.
type ReadFuncBaseView func(key bytecode.ModuleKey) (*RawModule, error)

var _ BaseView = ReadFuncBaseView(nil)

func (view ReadFuncBaseView) ReadRaw(
	key bytecode.ModuleKey,
) (
	*RawModule,
	error,
) {
	return view(key)
}
