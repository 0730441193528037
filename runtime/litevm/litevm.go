// Package litevm is a minimal reference implementation of the runtime.VM
// collaborator surface.  Its wire format is a CBOR envelope carrying the
// module's declared key, dependency list and opaque code section.  It
// performs real structural verification but no type checking, which makes it
// suitable for tests, tooling and sequential replay.
package litevm

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
	"github.com/aptos-labs/modcache/storage/errors"
)

// FormatVersion is the only envelope version this VM accepts.
const FormatVersion = 1

type depRef struct {
	Address []byte `cbor:"address"`
	Name    string `cbor:"name"`
}

type moduleEnvelope struct {
	Version uint16   `cbor:"version"`
	Address []byte   `cbor:"address"`
	Name    string   `cbor:"name"`
	Deps    []depRef `cbor:"deps"`
	Code    []byte   `cbor:"code"`
}

type scriptEnvelope struct {
	Version uint16   `cbor:"version"`
	Deps    []depRef `cbor:"deps"`
	Code    []byte   `cbor:"code"`
}

type compiledModule struct {
	version uint16
	key     bytecode.ModuleKey
	deps    []bytecode.ModuleKey
	code    []byte
}

var _ runtime.CompiledModule = &compiledModule{}

func (m *compiledModule) Key() bytecode.ModuleKey {
	return m.key
}

func (m *compiledModule) Dependencies() []bytecode.ModuleKey {
	return m.deps
}

type compiledScript struct {
	version uint16
	deps    []bytecode.ModuleKey
	code    []byte
}

var _ runtime.CompiledScript = &compiledScript{}

func (s *compiledScript) Dependencies() []bytecode.ModuleKey {
	return s.deps
}

type locallyVerifiedModule struct {
	module *compiledModule
}

func (m *locallyVerifiedModule) Compiled() runtime.CompiledModule {
	return m.module
}

type verifiedModule struct {
	module *compiledModule
}

func (m *verifiedModule) Compiled() runtime.CompiledModule {
	return m.module
}

type locallyVerifiedScript struct {
	script *compiledScript
}

func (s *locallyVerifiedScript) Compiled() runtime.CompiledScript {
	return s.script
}

type verifiedScript struct {
	script *compiledScript
}

func (s *verifiedScript) Compiled() runtime.CompiledScript {
	return s.script
}

// VM implements runtime.VM over the CBOR envelope format.
type VM struct {
	decMode cbor.DecMode
	encMode cbor.EncMode
}

var _ runtime.VM = &VM{}

func New() *VM {
	decMode, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	return &VM{
		decMode: decMode,
		encMode: encMode,
	}
}

func decodeDeps(refs []depRef) ([]bytecode.ModuleKey, error) {
	deps := make([]bytecode.ModuleKey, 0, len(refs))
	for _, ref := range refs {
		if len(ref.Address) != bytecode.AddressLength {
			return nil, errors.NewDeserializeErrorf(
				"dependency (%s) has invalid address length %d",
				ref.Name,
				len(ref.Address))
		}
		deps = append(
			deps,
			bytecode.NewModuleKey(
				bytecode.BytesToAddress(ref.Address),
				ref.Name))
	}
	return deps, nil
}

func (vm *VM) DeserializeModule(
	code []byte,
) (
	runtime.CompiledModule,
	error,
) {
	var envelope moduleEnvelope
	err := vm.decMode.Unmarshal(code, &envelope)
	if err != nil {
		return nil, errors.WrapCodedError(
			errors.ErrCodeDeserializeError,
			err,
			"malformed module envelope")
	}

	if len(envelope.Address) != bytecode.AddressLength {
		return nil, errors.NewDeserializeErrorf(
			"module address has invalid length %d",
			len(envelope.Address))
	}

	deps, err := decodeDeps(envelope.Deps)
	if err != nil {
		return nil, err
	}

	return &compiledModule{
		version: envelope.Version,
		key: bytecode.NewModuleKey(
			bytecode.BytesToAddress(envelope.Address),
			envelope.Name),
		deps: deps,
		code: envelope.Code,
	}, nil
}

func (vm *VM) DeserializeScript(
	code []byte,
) (
	runtime.CompiledScript,
	error,
) {
	var envelope scriptEnvelope
	err := vm.decMode.Unmarshal(code, &envelope)
	if err != nil {
		return nil, errors.WrapCodedError(
			errors.ErrCodeDeserializeError,
			err,
			"malformed script envelope")
	}

	deps, err := decodeDeps(envelope.Deps)
	if err != nil {
		return nil, err
	}

	return &compiledScript{
		version: envelope.Version,
		deps:    deps,
		code:    envelope.Code,
	}, nil
}

func (vm *VM) LocallyVerifyModule(
	module runtime.CompiledModule,
) (
	runtime.LocallyVerifiedModule,
	error,
) {
	compiled, ok := module.(*compiledModule)
	if !ok {
		return nil, errors.NewVerificationErrorf(
			"module was not compiled by this VM")
	}

	if compiled.version != FormatVersion {
		return nil, errors.NewVerificationErrorf(
			"unsupported module format version %d",
			compiled.version)
	}

	if compiled.key.Name == "" {
		return nil, errors.NewVerificationErrorf("module has empty name")
	}

	seen := make(map[bytecode.ModuleKey]struct{}, len(compiled.deps))
	for _, dep := range compiled.deps {
		if dep == compiled.key {
			return nil, errors.NewVerificationErrorf(
				"module (%s) depends on itself",
				compiled.key)
		}
		if _, ok := seen[dep]; ok {
			return nil, errors.NewVerificationErrorf(
				"module (%s) declares duplicate dependency (%s)",
				compiled.key,
				dep)
		}
		seen[dep] = struct{}{}
	}

	return &locallyVerifiedModule{module: compiled}, nil
}

func (vm *VM) LocallyVerifyScript(
	script runtime.CompiledScript,
) (
	runtime.LocallyVerifiedScript,
	error,
) {
	compiled, ok := script.(*compiledScript)
	if !ok {
		return nil, errors.NewVerificationErrorf(
			"script was not compiled by this VM")
	}

	if compiled.version != FormatVersion {
		return nil, errors.NewVerificationErrorf(
			"unsupported script format version %d",
			compiled.version)
	}

	seen := make(map[bytecode.ModuleKey]struct{}, len(compiled.deps))
	for _, dep := range compiled.deps {
		if _, ok := seen[dep]; ok {
			return nil, errors.NewVerificationErrorf(
				"script declares duplicate dependency (%s)",
				dep)
		}
		seen[dep] = struct{}{}
	}

	return &locallyVerifiedScript{script: compiled}, nil
}

func verifiedDepSet(deps []runtime.VerifiedModule) map[bytecode.ModuleKey]struct{} {
	set := make(map[bytecode.ModuleKey]struct{}, len(deps))
	for _, dep := range deps {
		set[dep.Compiled().Key()] = struct{}{}
	}
	return set
}

func (vm *VM) BuildVerifiedModule(
	module runtime.LocallyVerifiedModule,
	deps []runtime.VerifiedModule,
) (
	runtime.VerifiedModule,
	error,
) {
	locally, ok := module.(*locallyVerifiedModule)
	if !ok {
		return nil, errors.NewVerificationErrorf(
			"module was not locally verified by this VM")
	}

	provided := verifiedDepSet(deps)
	for _, dep := range locally.module.deps {
		if _, ok := provided[dep]; !ok {
			return nil, errors.NewLinkerErrorf(
				dep,
				"verified dependency not provided at link time")
		}
	}

	return &verifiedModule{module: locally.module}, nil
}

func (vm *VM) BuildVerifiedScript(
	script runtime.LocallyVerifiedScript,
	deps []runtime.VerifiedModule,
) (
	runtime.VerifiedScript,
	error,
) {
	locally, ok := script.(*locallyVerifiedScript)
	if !ok {
		return nil, errors.NewVerificationErrorf(
			"script was not locally verified by this VM")
	}

	provided := verifiedDepSet(deps)
	for _, dep := range locally.script.deps {
		if _, ok := provided[dep]; !ok {
			return nil, errors.NewLinkerErrorf(
				dep,
				"verified dependency not provided at link time")
		}
	}

	return &verifiedScript{script: locally.script}, nil
}

// EncodeModule serializes a module envelope.  Used by tests and publishing
// tooling.
func (vm *VM) EncodeModule(
	key bytecode.ModuleKey,
	deps []bytecode.ModuleKey,
	code []byte,
) (
	[]byte,
	error,
) {
	refs := make([]depRef, 0, len(deps))
	for _, dep := range deps {
		refs = append(refs, depRef{
			Address: dep.Address.Bytes(),
			Name:    dep.Name,
		})
	}

	return vm.encMode.Marshal(moduleEnvelope{
		Version: FormatVersion,
		Address: key.Address.Bytes(),
		Name:    key.Name,
		Deps:    refs,
		Code:    code,
	})
}

// EncodeScript serializes a script envelope.
func (vm *VM) EncodeScript(
	deps []bytecode.ModuleKey,
	code []byte,
) (
	[]byte,
	error,
) {
	refs := make([]depRef, 0, len(deps))
	for _, dep := range deps {
		refs = append(refs, depRef{
			Address: dep.Address.Bytes(),
			Name:    dep.Name,
		})
	}

	return vm.encMode.Marshal(scriptEnvelope{
		Version: FormatVersion,
		Deps:    refs,
		Code:    code,
	})
}
