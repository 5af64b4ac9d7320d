package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	TypeAccountRoot    Type = 0x0061 // Holder balances
	TypeTokenInfo      Type = 0x0069 // Token metadata (singleton)
	TypeLiquidity      Type = 0x006c // Pending liquidity accumulator (singleton)
	TypeAllowance      Type = 0x0070 // Spender approvals
	TypeSupply         Type = 0x0073 // Real/reflected supply and rate (singleton)
	TypeStakePosition  Type = 0x0075 // Locked stake per holder
	TypeStakingSummary Type = 0x0053 // Active stake count (singleton)
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeAccountRoot:
		return "AccountRoot"
	case TypeTokenInfo:
		return "TokenInfo"
	case TypeLiquidity:
		return "LiquidityAccumulator"
	case TypeAllowance:
		return "Allowance"
	case TypeSupply:
		return "Supply"
	case TypeStakePosition:
		return "StakePosition"
	case TypeStakingSummary:
		return "StakingSummary"
	default:
		return fmt.Sprintf("Unknown(0x%04x)", uint16(t))
	}
}
