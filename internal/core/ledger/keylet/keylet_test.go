package keylet

import (
	"testing"

	"github.com/LeJamon/goFST/internal/core/ledger/entry"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/stretchr/testify/assert"
)

func TestKeyletsDistinct(t *testing.T) {
	alice := types.AddressFromName("alice")
	bob := types.AddressFromName("bob")

	keys := []Keylet{
		Account(alice),
		Account(bob),
		Stake(alice),
		Allowance(alice, bob),
		Allowance(bob, alice),
		Supply(),
		StakingSummary(),
		Liquidity(),
		TokenInfo(),
	}

	seen := make(map[[32]byte]int)
	for i, k := range keys {
		if j, ok := seen[k.Key]; ok {
			t.Fatalf("keylet %d collides with %d", i, j)
		}
		seen[k.Key] = i
	}
}

func TestKeyletTypes(t *testing.T) {
	alice := types.AddressFromName("alice")
	assert.Equal(t, entry.TypeAccountRoot, Account(alice).Type)
	assert.Equal(t, entry.TypeStakePosition, Stake(alice).Type)
	assert.Equal(t, entry.TypeAllowance, Allowance(alice, alice).Type)
	assert.Equal(t, entry.TypeSupply, Supply().Type)
	assert.Equal(t, Account(alice), Account(alice), "derivation is deterministic")
}
