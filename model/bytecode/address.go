package bytecode

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AddressLength is the size of an account address in bytes.
const AddressLength = 32

// Address is an on-chain account address.  Modules are always published
// under an address.
type Address [AddressLength]byte

// EmptyAddress is the zero-value address.
var EmptyAddress = Address{}

// BytesToAddress returns an Address from the given byte slice.  Inputs
// shorter than AddressLength are left-padded with zeroes; longer inputs keep
// only the rightmost AddressLength bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress parses a hex string (with or without 0x prefix) into an
// Address.
func HexToAddress(h string) (Address, error) {
	if len(h) >= 2 && h[0] == '0' && (h[1] == 'x' || h[1] == 'X') {
		h = h[2:]
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return EmptyAddress, fmt.Errorf("invalid address hex: %w", err)
	}
	if len(b) > AddressLength {
		return EmptyAddress, fmt.Errorf(
			"invalid address length: got %d bytes, expected at most %d",
			len(b),
			AddressLength)
	}
	return BytesToAddress(b), nil
}

func (a Address) Bytes() []byte {
	return a[:]
}

// Hex returns the hex string representation of the address, without prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return "0x" + a.Hex()
}

// Compare returns an integer comparing two addresses lexicographically.
func (a Address) Compare(other Address) int {
	return bytes.Compare(a[:], other[:])
}
