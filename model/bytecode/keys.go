package bytecode

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashLength is the size of a content hash in bytes.
const HashLength = 32

// Hash is a sha3-256 digest of a serialized bytecode unit.
type Hash [HashLength]byte

// HashForBytes computes the content hash of the given serialized bytes.
func HashForBytes(b []byte) Hash {
	return sha3.Sum256(b)
}

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// ModuleKey identifies a published module by its address and name.  It is
// comparable and totally ordered, and is the cache key for all module tiers.
type ModuleKey struct {
	Address Address
	Name    string
}

func NewModuleKey(address Address, name string) ModuleKey {
	return ModuleKey{
		Address: address,
		Name:    name,
	}
}

// String renders the key in the canonical 0x<address>::<name> form.
func (k ModuleKey) String() string {
	return fmt.Sprintf("%s::%s", k.Address, k.Name)
}

// Compare returns an integer comparing two module keys, ordering first by
// address, then by name.
func (k ModuleKey) Compare(other ModuleKey) int {
	cmp := k.Address.Compare(other.Address)
	if cmp != 0 {
		return cmp
	}
	return strings.Compare(k.Name, other.Name)
}

// ScriptKey identifies a script purely by the content hash of its serialized
// bytes.  Byte-identical scripts submitted by different transactions share a
// key, which is what enables cross-transaction dedup of script verification.
type ScriptKey Hash

// ScriptKeyForBytes derives the script key for the given serialized script.
func ScriptKeyForBytes(code []byte) ScriptKey {
	return ScriptKey(HashForBytes(code))
}

func (k ScriptKey) String() string {
	return Hash(k).Hex()
}
