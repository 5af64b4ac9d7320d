package testing

import (
	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/holiman/uint256"
)

// Tokens parses a decimal token amount ("9547.5") into base units.
// It panics on malformed input.
func Tokens(s string) *uint256.Int {
	return amount.MustParse(s)
}

// Whole returns n whole tokens in base units.
func Whole(n uint64) *uint256.Int {
	return amount.Whole(n)
}

// OneToken is the tolerance used by the scenario assertions.
func OneToken() *uint256.Int {
	return amount.Unit()
}
