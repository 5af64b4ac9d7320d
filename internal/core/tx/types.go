package tx

import "fmt"

// Type represents a transaction type code
type Type uint16

// All transaction type codes
const (
	TypeInvalid Type = 0xFFFF // Invalid/unknown type

	TypeTransfer     Type = 0
	TypeApprove      Type = 1
	TypeTransferFrom Type = 2
	TypeStake        Type = 3
	TypeRedeem       Type = 4
	TypeAddLiquidity Type = 5

	// Pseudo-transactions
	TypeGenesis        Type = 100
	TypeLiquidityFlush Type = 101
)

var typeNames = map[Type]string{
	TypeTransfer:       "Transfer",
	TypeApprove:        "Approve",
	TypeTransferFrom:   "TransferFrom",
	TypeStake:          "Stake",
	TypeRedeem:         "Redeem",
	TypeAddLiquidity:   "AddLiquidity",
	TypeGenesis:        "Genesis",
	TypeLiquidityFlush: "LiquidityFlush",
}

var typeNameMap = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the transaction type name
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// TypeFromName returns the transaction type for a given name
func TypeFromName(name string) (Type, bool) {
	t, ok := typeNameMap[name]
	return t, ok
}

// IsPseudoTransaction returns true if this is a system-generated transaction
func (t Type) IsPseudoTransaction() bool {
	return t == TypeGenesis || t == TypeLiquidityFlush
}
