package testing

import (
	"crypto/sha512"

	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/btcsuite/btcd/btcec/v2"
)

// Account is a test account with a deterministic secp256k1 keypair.
type Account struct {
	// Name is a human-readable identifier for the account (used for debugging).
	Name string

	// PrivateKey is the secp256k1 private key.
	PrivateKey *btcec.PrivateKey

	// PublicKey is the compressed public key (33 bytes).
	PublicKey []byte

	// Address is derived from the public key.
	Address types.Address
}

// NewAccount creates a test account whose keypair is derived from the name.
// Using the same name will always produce the same account, making tests
// reproducible.
func NewAccount(name string) *Account {
	hash := sha512.Sum512([]byte(name))
	priv, pub := btcec.PrivKeyFromBytes(hash[:32])
	compressed := pub.SerializeCompressed()

	addr, err := types.AddressFromPublicKey(compressed)
	if err != nil {
		panic("failed to derive address for account " + name + ": " + err.Error())
	}
	return &Account{
		Name:       name,
		PrivateKey: priv,
		PublicKey:  compressed,
		Address:    addr,
	}
}

// String returns the account name and address for test output.
func (a *Account) String() string {
	return a.Name + "(" + a.Address.String() + ")"
}
