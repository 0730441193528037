// Package runtime defines the capability surface this subsystem consumes
// from the bytecode VM.  The VM's deserializer and verifier are opaque
// collaborators: the caching layer only cares about their pass/fail outcome
// and the dependency keys a compiled unit declares.
package runtime

import (
	"github.com/aptos-labs/modcache/model/bytecode"
)

// CompiledModule is a module parsed from bytes but not yet verified.
type CompiledModule interface {
	// Key returns the (address, name) pair the module declares for itself.
	Key() bytecode.ModuleKey

	// Dependencies returns the keys of the modules this module immediately
	// depends on.
	Dependencies() []bytecode.ModuleKey
}

// CompiledScript is a script parsed from bytes but not yet verified.
type CompiledScript interface {
	Dependencies() []bytecode.ModuleKey
}

// LocallyVerifiedModule has passed the structural and type checks that do
// not require resolved dependencies.
type LocallyVerifiedModule interface {
	Compiled() CompiledModule
}

// VerifiedModule has passed full verification, including linkage checks
// against its verified dependencies.  Safe to interpret.
type VerifiedModule interface {
	Compiled() CompiledModule
}

type LocallyVerifiedScript interface {
	Compiled() CompiledScript
}

type VerifiedScript interface {
	Compiled() CompiledScript
}

// VM is the opaque deserialize/verify pipeline.  All methods are pure
// functions of their inputs; errors returned are deterministic for the same
// inputs and are surfaced as coded errors.
type VM interface {
	DeserializeModule(code []byte) (CompiledModule, error)
	DeserializeScript(code []byte) (CompiledScript, error)

	LocallyVerifyModule(module CompiledModule) (LocallyVerifiedModule, error)
	LocallyVerifyScript(script CompiledScript) (LocallyVerifiedScript, error)

	BuildVerifiedModule(
		module LocallyVerifiedModule,
		deps []VerifiedModule,
	) (VerifiedModule, error)
	BuildVerifiedScript(
		script LocallyVerifiedScript,
		deps []VerifiedModule,
	) (VerifiedScript, error)
}
