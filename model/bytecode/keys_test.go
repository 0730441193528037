package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	addr := BytesToAddress([]byte{0xde, 0xad, 0xbe, 0xef})

	parsed, err := HexToAddress(addr.String())
	require.NoError(t, err)
	require.Equal(t, addr, parsed)

	parsed, err = HexToAddress(addr.Hex())
	require.NoError(t, err)
	require.Equal(t, addr, parsed)
}

func TestAddressHexRejectsInvalid(t *testing.T) {
	_, err := HexToAddress("0xzz")
	require.Error(t, err)

	tooLong := make([]byte, AddressLength+1)
	_, err = HexToAddress("0x" + BytesToAddress(tooLong).Hex() + "ff")
	require.Error(t, err)
}

func TestModuleKeyOrdering(t *testing.T) {
	lowAddr := BytesToAddress([]byte{1})
	highAddr := BytesToAddress([]byte{2})

	a := NewModuleKey(lowAddr, "zzz")
	b := NewModuleKey(highAddr, "aaa")

	// Address dominates name.
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))

	c := NewModuleKey(lowAddr, "aaa")
	require.Positive(t, a.Compare(c))
	require.Zero(t, a.Compare(a))
}

func TestModuleKeyString(t *testing.T) {
	key := NewModuleKey(BytesToAddress([]byte{0xab}), "coin")
	require.Contains(t, key.String(), "::coin")
	require.Contains(t, key.String(), "0x")
}

func TestScriptKeyContentAddressing(t *testing.T) {
	code := []byte("script body")

	key1 := ScriptKeyForBytes(code)
	key2 := ScriptKeyForBytes([]byte("script body"))
	require.Equal(t, key1, key2)

	key3 := ScriptKeyForBytes([]byte("different body"))
	require.NotEqual(t, key1, key3)
}
