package keylet

import (
	"crypto/sha512"
	"encoding/binary"

	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/types"
)

// Space identifiers for keylet generation
const (
	spaceAccount   uint16 = 'a' // Account root
	spaceTokenInfo uint16 = 'i' // Token metadata (singleton)
	spaceLiquidity uint16 = 'l' // Liquidity accumulator (singleton)
	spaceAllowance uint16 = 'p' // Spender approval
	spaceSupply    uint16 = 's' // Supply and rate (singleton)
	spaceStake     uint16 = 'u' // Stake position
	spaceStaking   uint16 = 'S' // Staking summary (singleton)
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	var spaceBytes [2]byte
	binary.BigEndian.PutUint16(spaceBytes[:], space)

	h := sha512.New()
	h.Write(spaceBytes[:])
	for _, d := range data {
		h.Write(d)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil)[:32])
	return out
}

// Account returns the keylet for an account root entry.
func Account(addr types.Address) Keylet {
	return Keylet{
		Type: entry.TypeAccountRoot,
		Key:  indexHash(spaceAccount, addr[:]),
	}
}

// Allowance returns the keylet for owner's approval of spender.
func Allowance(owner, spender types.Address) Keylet {
	return Keylet{
		Type: entry.TypeAllowance,
		Key:  indexHash(spaceAllowance, owner[:], spender[:]),
	}
}

// Stake returns the keylet for a holder's stake position.
func Stake(owner types.Address) Keylet {
	return Keylet{
		Type: entry.TypeStakePosition,
		Key:  indexHash(spaceStake, owner[:]),
	}
}

// Supply returns the keylet for the singleton supply entry.
func Supply() Keylet {
	return Keylet{
		Type: entry.TypeSupply,
		Key:  indexHash(spaceSupply),
	}
}

// StakingSummary returns the keylet for the singleton staking summary.
func StakingSummary() Keylet {
	return Keylet{
		Type: entry.TypeStakingSummary,
		Key:  indexHash(spaceStaking),
	}
}

// Liquidity returns the keylet for the singleton liquidity accumulator.
func Liquidity() Keylet {
	return Keylet{
		Type: entry.TypeLiquidity,
		Key:  indexHash(spaceLiquidity),
	}
}

// TokenInfo returns the keylet for the singleton token metadata.
func TokenInfo() Keylet {
	return Keylet{
		Type: entry.TypeTokenInfo,
		Key:  indexHash(spaceTokenInfo),
	}
}
