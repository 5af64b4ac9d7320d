// Package testing provides test infrastructure for token transaction tests.
//
// TestEnv wraps an in-memory ledger, a fake clock, a transaction engine and
// a reference BUSD pair. Accounts are deterministic: the same name always
// yields the same keypair and address.
//
//	func TestTransfer(t *testing.T) {
//	    env := jtx.NewTestEnv(t)
//	    alice := env.Account("alice")
//	    bob := env.Account("bob")
//
//	    env.Fund(jtx.Whole(1000), alice)
//
//	    res := env.Transfer(alice, bob, jtx.Whole(100))
//	    jtx.RequireTxSuccess(t, res)
//	    jtx.RequireBalanceApprox(t, env, bob, jtx.Whole(95), jtx.OneToken())
//	}
//
// Time only moves through AdvanceTime, so stake maturity is exact.
package testing
