package loader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aptos-labs/modcache/cache"
	"github.com/aptos-labs/modcache/metrics"
	"github.com/aptos-labs/modcache/model/bytecode"
	"github.com/aptos-labs/modcache/runtime"
	"github.com/aptos-labs/modcache/runtime/litevm"
	"github.com/aptos-labs/modcache/storage/snapshot"
)

func testKey(addr byte, name string) bytecode.ModuleKey {
	return bytecode.NewModuleKey(
		bytecode.BytesToAddress([]byte{addr}),
		name)
}

// countingVM wraps litevm and counts pipeline invocations per module key,
// so tests can assert how often the expensive paths actually ran.
type countingVM struct {
	inner runtime.VM

	mu                  sync.Mutex
	moduleDeserialized  map[string]int
	moduleVerified      map[string]int
	moduleBuilt         map[string]int
	scriptsDeserialized int
}

var _ runtime.VM = (*countingVM)(nil)

func newCountingVM() *countingVM {
	return &countingVM{
		inner:              litevm.New(),
		moduleDeserialized: make(map[string]int),
		moduleVerified:     make(map[string]int),
		moduleBuilt:        make(map[string]int),
	}
}

func (vm *countingVM) bump(counts map[string]int, name string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	counts[name]++
}

func (vm *countingVM) DeserializeModule(
	code []byte,
) (
	runtime.CompiledModule,
	error,
) {
	compiled, err := vm.inner.DeserializeModule(code)
	if err != nil {
		return nil, err
	}
	vm.bump(vm.moduleDeserialized, compiled.Key().String())
	return compiled, nil
}

func (vm *countingVM) DeserializeScript(
	code []byte,
) (
	runtime.CompiledScript,
	error,
) {
	vm.mu.Lock()
	vm.scriptsDeserialized++
	vm.mu.Unlock()
	return vm.inner.DeserializeScript(code)
}

func (vm *countingVM) LocallyVerifyModule(
	module runtime.CompiledModule,
) (
	runtime.LocallyVerifiedModule,
	error,
) {
	vm.bump(vm.moduleVerified, module.Key().String())
	return vm.inner.LocallyVerifyModule(module)
}

func (vm *countingVM) LocallyVerifyScript(
	script runtime.CompiledScript,
) (
	runtime.LocallyVerifiedScript,
	error,
) {
	return vm.inner.LocallyVerifyScript(script)
}

func (vm *countingVM) BuildVerifiedModule(
	module runtime.LocallyVerifiedModule,
	deps []runtime.VerifiedModule,
) (
	runtime.VerifiedModule,
	error,
) {
	vm.bump(vm.moduleBuilt, module.Compiled().Key().String())
	return vm.inner.BuildVerifiedModule(module, deps)
}

func (vm *countingVM) BuildVerifiedScript(
	script runtime.LocallyVerifiedScript,
	deps []runtime.VerifiedModule,
) (
	runtime.VerifiedScript,
	error,
) {
	return vm.inner.BuildVerifiedScript(script, deps)
}

func (vm *countingVM) deserializedCount(key bytecode.ModuleKey) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.moduleDeserialized[key.String()]
}

func (vm *countingVM) verifiedCount(key bytecode.ModuleKey) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.moduleVerified[key.String()]
}

func (vm *countingVM) scriptCount() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.scriptsDeserialized
}

// harness wires a loader against an in-memory base view in Sync mode.
type harness struct {
	t *testing.T

	vm         *countingVM
	encoder    *litevm.VM
	base       snapshot.MapBaseView
	crossBlock *cache.CrossBlockCache
	blockCache *cache.SyncCache
	reads      *cache.CapturedReads
	loader     *Loader
}

func newSyncHarness(t *testing.T) *harness {
	h := &harness{
		t:          t,
		vm:         newCountingVM(),
		encoder:    litevm.New(),
		base:       make(snapshot.MapBaseView),
		crossBlock: cache.NewCrossBlockCache(metrics.NewNoopCollector()),
		blockCache: cache.NewSyncCache(metrics.NewNoopCollector()),
		reads:      cache.NewCapturedReads(),
	}
	h.loader = NewLoader(
		DefaultParams(),
		h.vm,
		h.crossBlock,
		h.blockCache,
		h.base,
		h.reads)
	return h
}

// newAttemptLoader returns a loader for another transaction attempt sharing
// the same block-scoped caches.
func (h *harness) newAttemptLoader(reads *cache.CapturedReads) *Loader {
	return NewLoader(
		DefaultParams(),
		h.vm,
		h.crossBlock,
		h.blockCache,
		h.base,
		reads)
}

// addModule publishes an encoded module into the base view.
func (h *harness) addModule(
	key bytecode.ModuleKey,
	deps ...bytecode.ModuleKey,
) {
	raw, err := h.encoder.EncodeModule(key, deps, []byte("code of "+key.Name))
	require.NoError(h.t, err)

	h.base[key] = &snapshot.RawModule{
		Bytes: raw,
		Metadata: bytecode.Metadata{
			CreationTimeUsecs: 1000,
			SlotDeposit:       50,
		},
	}
}

func (h *harness) encodeScript(
	deps []bytecode.ModuleKey,
	body string,
) []byte {
	raw, err := h.encoder.EncodeScript(deps, []byte(body))
	require.NoError(h.t, err)
	return raw
}
