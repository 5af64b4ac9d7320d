package config

import (
	"fmt"
	"os"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// GenesisFile lists the balances the owner hands out right after
// deployment.
//
//	allocations:
//	  - address: 0x5e1c...
//	    amount: "10000"
//	  - address: treasury
//	    amount: "2500.5"
type GenesisFile struct {
	Allocations []AllocationYAML `yaml:"allocations"`
}

// AllocationYAML is one allocation as written in the file.
type AllocationYAML struct {
	Address string `yaml:"address"`
	Amount  string `yaml:"amount"`
}

// Allocation is a resolved allocation.
type Allocation struct {
	Address types.Address
	Amount  *uint256.Int
}

// LoadGenesisFile reads and resolves a YAML allocation file.
func LoadGenesisFile(path string) ([]Allocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file %s: %w", path, err)
	}
	return ParseGenesis(data)
}

// ParseGenesis resolves allocations from YAML.
func ParseGenesis(data []byte) ([]Allocation, error) {
	var f GenesisFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse genesis file: %w", err)
	}

	out := make([]Allocation, 0, len(f.Allocations))
	seen := make(map[types.Address]bool, len(f.Allocations))
	for i, a := range f.Allocations {
		addr, err := ResolveAddress(a.Address)
		if err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i, err)
		}
		if seen[addr] {
			return nil, fmt.Errorf("%w: allocation %d: duplicate address %s", ErrInvalidConfig, i, addr)
		}
		seen[addr] = true
		amt, err := amount.Parse(a.Amount)
		if err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i, err)
		}
		if amt.IsZero() {
			return nil, fmt.Errorf("%w: allocation %d: zero amount", ErrInvalidConfig, i)
		}
		out = append(out, Allocation{Address: addr, Amount: amt})
	}
	return out, nil
}
