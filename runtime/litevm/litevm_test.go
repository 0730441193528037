package litevm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
	"github.com/aptos-labs/modcache/storage/errors"
)

func testKey(addr byte, name string) bytecode.ModuleKey {
	return bytecode.NewModuleKey(
		bytecode.BytesToAddress([]byte{addr}),
		name)
}

func TestModuleRoundTrip(t *testing.T) {
	vm := New()

	key := testKey(1, "coin")
	dep := testKey(1, "math")

	raw, err := vm.EncodeModule(
		key,
		[]bytecode.ModuleKey{dep},
		[]byte("bytecode"))
	require.NoError(t, err)

	compiled, err := vm.DeserializeModule(raw)
	require.NoError(t, err)
	require.Equal(t, key, compiled.Key())
	require.Equal(t, []bytecode.ModuleKey{dep}, compiled.Dependencies())
}

func TestDeserializeModuleRejectsGarbage(t *testing.T) {
	vm := New()

	_, err := vm.DeserializeModule([]byte("not cbor"))
	require.Error(t, err)
	require.True(t, errors.IsDeserializeError(err))
}

func TestLocalVerifyRejectsSelfDependency(t *testing.T) {
	vm := New()

	key := testKey(1, "selfish")
	raw, err := vm.EncodeModule(
		key,
		[]bytecode.ModuleKey{key},
		nil)
	require.NoError(t, err)

	compiled, err := vm.DeserializeModule(raw)
	require.NoError(t, err)

	_, err = vm.LocallyVerifyModule(compiled)
	require.Error(t, err)
	require.True(t, errors.IsVerificationError(err))
}

func TestLocalVerifyRejectsDuplicateDependency(t *testing.T) {
	vm := New()

	dep := testKey(2, "math")
	raw, err := vm.EncodeModule(
		testKey(1, "coin"),
		[]bytecode.ModuleKey{dep, dep},
		nil)
	require.NoError(t, err)

	compiled, err := vm.DeserializeModule(raw)
	require.NoError(t, err)

	_, err = vm.LocallyVerifyModule(compiled)
	require.Error(t, err)
	require.True(t, errors.IsVerificationError(err))
}

func TestBuildVerifiedModuleChecksProvidedDeps(t *testing.T) {
	vm := New()

	dep := testKey(2, "math")
	raw, err := vm.EncodeModule(
		testKey(1, "coin"),
		[]bytecode.ModuleKey{dep},
		nil)
	require.NoError(t, err)

	compiled, err := vm.DeserializeModule(raw)
	require.NoError(t, err)

	locally, err := vm.LocallyVerifyModule(compiled)
	require.NoError(t, err)

	_, err = vm.BuildVerifiedModule(locally, nil)
	require.Error(t, err)
	require.True(t, errors.IsLinkerError(err))

	// Verify the dependency and link again.
	depRaw, err := vm.EncodeModule(dep, nil, nil)
	require.NoError(t, err)

	depCompiled, err := vm.DeserializeModule(depRaw)
	require.NoError(t, err)

	depLocally, err := vm.LocallyVerifyModule(depCompiled)
	require.NoError(t, err)

	depVerified, err := vm.BuildVerifiedModule(depLocally, nil)
	require.NoError(t, err)

	verified, err := vm.BuildVerifiedModule(
		locally,
		[]runtime.VerifiedModule{depVerified})
	require.NoError(t, err)
	require.Equal(t, compiled.Key(), verified.Compiled().Key())
}

func TestScriptRoundTrip(t *testing.T) {
	vm := New()

	dep := testKey(3, "vault")
	raw, err := vm.EncodeScript(
		[]bytecode.ModuleKey{dep},
		[]byte("script code"))
	require.NoError(t, err)

	compiled, err := vm.DeserializeScript(raw)
	require.NoError(t, err)
	require.Equal(t, []bytecode.ModuleKey{dep}, compiled.Dependencies())

	locally, err := vm.LocallyVerifyScript(compiled)
	require.NoError(t, err)

	_, err = vm.BuildVerifiedScript(locally, nil)
	require.Error(t, err)
	require.True(t, errors.IsLinkerError(err))
}
