package cache

import (
	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
)

type fakeCompiledModule struct {
	key  bytecode.ModuleKey
	deps []bytecode.ModuleKey
}

var _ runtime.CompiledModule = &fakeCompiledModule{}

func (m *fakeCompiledModule) Key() bytecode.ModuleKey {
	return m.key
}

func (m *fakeCompiledModule) Dependencies() []bytecode.ModuleKey {
	return m.deps
}

type fakeVerifiedModule struct {
	module *fakeCompiledModule
}

var _ runtime.VerifiedModule = &fakeVerifiedModule{}

func (m *fakeVerifiedModule) Compiled() runtime.CompiledModule {
	return m.module
}

func testKey(addr byte, name string) bytecode.ModuleKey {
	return bytecode.NewModuleKey(
		bytecode.BytesToAddress([]byte{addr}),
		name)
}

func deserializedEntry(
	key bytecode.ModuleKey,
	raw []byte,
) *ModuleEntry {
	return NewDeserializedEntry[runtime.CompiledModule, runtime.VerifiedModule](
		raw,
		bytecode.Metadata{},
		&fakeCompiledModule{key: key})
}

type fakeCompiledScript struct {
	deps []bytecode.ModuleKey
}

var _ runtime.CompiledScript = &fakeCompiledScript{}

func (s *fakeCompiledScript) Dependencies() []bytecode.ModuleKey {
	return s.deps
}

func scriptEntry(code []byte) *ScriptEntry {
	return NewDeserializedEntry[runtime.CompiledScript, runtime.VerifiedScript](
		code,
		bytecode.Metadata{},
		&fakeCompiledScript{})
}

func verifiedEntry(
	key bytecode.ModuleKey,
	raw []byte,
) *ModuleEntry {
	entry := deserializedEntry(key, raw)
	module, _ := entry.AsCompiled().(*fakeCompiledModule)
	return entry.MakeVerified(&fakeVerifiedModule{module: module})
}
