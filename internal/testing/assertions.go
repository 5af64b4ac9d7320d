package testing

import (
	"testing"

	"github.com/LeJamon/goFST/internal/core/amount"
	"github.com/LeJamon/goFST/internal/core/tx"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

// RequireTxSuccess asserts that a transaction was applied.
func RequireTxSuccess(t *testing.T, res tx.ApplyResult) {
	t.Helper()
	require.True(t, res.Applied,
		"Expected transaction success, got %s: %s", res.Result, res.Message)
	require.Equal(t, tx.TesSUCCESS, res.Result)
}

// RequireTxFail asserts that a transaction was rejected with a specific code
// and that it changed nothing.
func RequireTxFail(t *testing.T, res tx.ApplyResult, expected tx.Result) {
	t.Helper()
	require.False(t, res.Applied,
		"Expected transaction failure with code %s, but transaction succeeded", expected)
	require.Equal(t, expected, res.Result,
		"Expected failure code %s, got %s: %s", expected, res.Result, res.Message)
	require.Empty(t, res.Affected, "rejected transaction touched ledger entries")
	require.Empty(t, res.Events, "rejected transaction emitted events")
}

// RequireBalance asserts that an account holds exactly expected base units.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected *uint256.Int) {
	t.Helper()
	actual := env.Balance(acc)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %s, got %s",
		acc.Name, amount.Format(expected), amount.Format(actual))
}

// RequireBalanceApprox asserts that an account balance is within tolerance
// of the expected value. Use it where redistribution rounding applies.
func RequireBalanceApprox(t *testing.T, env *TestEnv, acc *Account, expected, tolerance *uint256.Int) {
	t.Helper()
	actual := env.Balance(acc)
	require.True(t, amount.Within(actual, expected, tolerance),
		"Account %s balance mismatch: expected %s +/- %s, got %s (diff: %s)",
		acc.Name, amount.Format(expected), amount.Format(tolerance),
		amount.Format(actual), amount.Format(amount.AbsDiff(actual, expected)))
}
