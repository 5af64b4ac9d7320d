// Package types holds identifiers shared by every ledger package.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// AddressLength is the size of an account identifier in bytes.
const AddressLength = 20

var (
	// ErrInvalidAddress is returned when an address string cannot be decoded.
	ErrInvalidAddress = errors.New("invalid address")

	// ZeroAddress is the all-zero address. It never holds tokens.
	ZeroAddress Address
)

// Address identifies an account on the ledger.
type Address [AddressLength]byte

// ParseAddress decodes a hex address with or without the 0x prefix.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != AddressLength*2 {
		return a, fmt.Errorf("%w: %q has %d hex digits, want %d", ErrInvalidAddress, s, len(s), AddressLength*2)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromPublicKey derives the account identifier of a secp256k1 public
// key: RIPEMD-160 of the SHA-256 of the compressed key.
func AddressFromPublicKey(pubKey []byte) (Address, error) {
	var a Address
	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return a, fmt.Errorf("parse public key: %w", err)
	}
	sha := sha256.Sum256(pk.SerializeCompressed())
	h := ripemd160.New()
	h.Write(sha[:])
	copy(a[:], h.Sum(nil))
	return a, nil
}

// AddressFromName derives a stable address for a well-known system account
// (the contract holding account, a pair placeholder) from a label.
func AddressFromName(name string) Address {
	var a Address
	sum := sha256.Sum256([]byte("fst:" + name))
	copy(a[:], sum[:AddressLength])
	return a
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// String returns the 0x-prefixed lowercase hex form.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
