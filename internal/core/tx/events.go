package tx

import (
	"time"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/types"
	"github.com/holiman/uint256"
)

// EventType names a ledger event.
type EventType string

const (
	EventTransfer               EventType = "Transfer"
	EventApproval               EventType = "Approval"
	EventStake                  EventType = "Stake"
	EventRedeem                 EventType = "Redeem"
	EventLiquidityDeposit       EventType = "LiquidityDeposit"
	EventLiquidityDepositFailed EventType = "LiquidityDepositFailed"
)

// Event is emitted by a committed transaction.
type Event struct {
	Type EventType `json:"type"`
	TxID string    `json:"tx_id"`
	Time time.Time `json:"time"`

	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount amount.Value  `json:"amount"`

	// Transfer details
	Tax            *amount.Value `json:"tax,omitempty"`
	Redistribution *amount.Value `json:"redistribution,omitempty"`
	Liquidity      *amount.Value `json:"liquidity,omitempty"`

	// Stake details
	Duration string        `json:"duration,omitempty"`
	Unlock   *time.Time    `json:"unlock,omitempty"`
	Reward   *amount.Value `json:"reward,omitempty"`

	Error string `json:"error,omitempty"`
}

func valuePtr(v *uint256.Int) *amount.Value {
	out := amount.NewValue(v)
	return &out
}

// Hooks allows external systems to subscribe to engine activity.
// Hooks run after commit, inside the engine's serialized section, and
// must not call back into the engine.
type Hooks struct {
	// OnApplied is called for every processed transaction, applied or not.
	OnApplied func(res ApplyResult)

	// OnEvent is called for each event of a committed transaction.
	OnEvent func(ev Event)
}

func (h *Hooks) applied(res ApplyResult) {
	if h == nil {
		return
	}
	if h.OnApplied != nil {
		h.OnApplied(res)
	}
	if h.OnEvent != nil && res.Applied {
		for _, ev := range res.Events {
			h.OnEvent(ev)
		}
	}
}
