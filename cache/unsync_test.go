package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnsyncCacheGetOrInit(t *testing.T) {
	executionCache := NewUnsyncCache()

	key := testKey(1, "coin")
	expected := deserializedEntry(key, []byte("raw"))

	producerCalls := 0

	actual, err := executionCache.GetOrInitModule(
		key,
		func() (*ModuleEntry, error) {
			producerCalls++
			return expected, nil
		})
	require.NoError(t, err)
	require.Same(t, expected, actual)
	require.Equal(t, 1, producerCalls)

	actual, err = executionCache.GetOrInitModule(
		key,
		func() (*ModuleEntry, error) {
			producerCalls++
			return nil, nil
		})
	require.NoError(t, err)
	require.Same(t, expected, actual)
	require.Equal(t, 1, producerCalls)
}

func TestUnsyncCacheErrorsNotCached(t *testing.T) {
	executionCache := NewUnsyncCache()

	key := testKey(1, "coin")

	_, err := executionCache.GetOrInitModule(
		key,
		func() (*ModuleEntry, error) {
			return nil, fmt.Errorf("deserialize failed")
		})
	require.Error(t, err)
	require.Equal(t, 0, executionCache.ModuleCount())
}

func TestUnsyncCachePublishNeverDowngrades(t *testing.T) {
	executionCache := NewUnsyncCache()

	key := testKey(1, "coin")
	raw := []byte("raw")

	promoted := verifiedEntry(key, raw)
	executionCache.PublishModule(key, promoted)
	executionCache.PublishModule(key, deserializedEntry(key, raw))

	actual, ok := executionCache.GetModule(key)
	require.True(t, ok)
	require.Same(t, promoted, actual)
}
