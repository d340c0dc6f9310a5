package lending

import (
	"errors"
	"testing"

	"openchain/core/events"
	"openchain/crypto"
)

type liquidationEnv struct {
	*testEnv
	liquidator     crypto.Address
	collateralMint crypto.Address
	collateralFeed crypto.Address
}

// newLiquidationEnv builds a position that goes under water: 1000 collateral
// and a 700 borrow at equal prices, with a second asset acting as the
// seizable collateral side. Raising the debt price sinks the health factor.
func newLiquidationEnv(t *testing.T) *liquidationEnv {
	t.Helper()
	env := &liquidationEnv{
		testEnv:        newTestEnv(t),
		liquidator:     testAccount(0xd1),
		collateralMint: testMint(0xd2),
		collateralFeed: testAccount(0xd3),
	}
	if _, err := env.engine.RegisterAsset(env.admin, env.collateralMint, AssetConfig{
		PriceFeed:            env.collateralFeed,
		Decimals:             0,
		LTV:                  testLTV,
		LiquidationThreshold: testThreshold,
		CanBeCollateral:      true,
	}); err != nil {
		t.Fatalf("register collateral asset: %v", err)
	}
	env.oracle.SetPrice(env.collateralFeed, 1)

	if _, err := env.engine.Deposit(env.user, env.mint, 1000); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	env.advance(ActionCooldown + 1)
	var receiver [32]byte
	if _, err := env.engine.BorrowCrossChain(env.user, env.mint, 700, 7, receiver); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// Fund the liquidator with debt-side tokens and the pool with
	// collateral-side tokens to seize from.
	if err := env.ledger.Mint(env.mint, env.liquidator, 1000); err != nil {
		t.Fatalf("fund liquidator: %v", err)
	}
	if err := env.ledger.Mint(env.collateralMint, env.pool, 10_000); err != nil {
		t.Fatalf("fund pool: %v", err)
	}
	return env
}

func TestLiquidateHealthyPositionRejected(t *testing.T) {
	env := newLiquidationEnv(t)
	// Equal prices: health factor 950/700 sits well above the trigger.
	_, err := env.engine.Liquidate(env.liquidator, env.user, env.mint, env.collateralMint, 100)
	if !errors.Is(err, ErrLiquidationNotAllowed) {
		t.Fatalf("err = %v, want ErrLiquidationNotAllowed", err)
	}
}

func TestLiquidateSeizesCollateral(t *testing.T) {
	env := newLiquidationEnv(t)
	// Debt doubles in price: borrow side 1400 against weighted collateral
	// 950, health factor ~0.68, below the 0.95 trigger.
	env.oracle.SetPrice(env.feed, 2)

	position, err := env.engine.Liquidate(env.liquidator, env.user, env.mint, env.collateralMint, 200)
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	// Seizure: 200 debt * price 2 * 1.05 bonus / collateral price 1 = 420.
	if position.BorrowBalance != 500 {
		t.Fatalf("borrow balance = %d, want 500", position.BorrowBalance)
	}
	if position.CollateralBalance != 580 {
		t.Fatalf("collateral balance = %d, want 580", position.CollateralBalance)
	}

	debtPaid, err := env.ledger.BalanceOf(env.mint, env.liquidator)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if debtPaid != 800 {
		t.Fatalf("liquidator debt-asset balance = %d, want 800", debtPaid)
	}
	seized, err := env.ledger.BalanceOf(env.collateralMint, env.liquidator)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if seized != 420 {
		t.Fatalf("liquidator collateral balance = %d, want 420", seized)
	}

	evt, ok := env.emitter.last().(events.LendingLiquidation)
	if !ok {
		t.Fatalf("last event = %T, want LendingLiquidation", env.emitter.last())
	}
	if evt.DebtAmount != 200 || evt.CollateralSeized != 420 {
		t.Fatalf("event mismatch: %+v", evt)
	}
	if evt.HealthFactor != position.HealthFactor {
		t.Fatalf("event health factor = %d, want %d", evt.HealthFactor, position.HealthFactor)
	}
}

func TestLiquidateSeizureExceedingCollateral(t *testing.T) {
	env := newLiquidationEnv(t)
	env.oracle.SetPrice(env.feed, 2)
	// Full 700 repay would need 1470 collateral against 1000 posted.
	_, err := env.engine.Liquidate(env.liquidator, env.user, env.mint, env.collateralMint, 700)
	if !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("err = %v, want ErrInsufficientCollateral", err)
	}
}

func TestLiquidateCapsRepayAtOutstandingDebt(t *testing.T) {
	env := newLiquidationEnv(t)
	env.oracle.SetPrice(env.feed, 2)
	// A request above the 700 outstanding is capped, not rejected as an
	// invalid amount: the capped repayment needs 1470 collateral against
	// 1000 posted, so the seizure bound is what fires.
	_, err := env.engine.Liquidate(env.liquidator, env.user, env.mint, env.collateralMint, 10_000)
	if !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("err = %v, want ErrInsufficientCollateral", err)
	}
	if errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("over-balance repay request must not be ErrInvalidAmount")
	}
	balance, lerr := env.ledger.BalanceOf(env.mint, env.liquidator)
	if lerr != nil {
		t.Fatalf("balance: %v", lerr)
	}
	if balance != 1000 {
		t.Fatalf("liquidator balance = %d, want untouched 1000", balance)
	}
}

func TestLiquidateHealthyPositionOverDebtRequest(t *testing.T) {
	env := newLiquidationEnv(t)
	// Equal prices keep the position healthy; a repay request above the
	// outstanding debt must still hit the health gate, not amount checks.
	_, err := env.engine.Liquidate(env.liquidator, env.user, env.mint, env.collateralMint, 10_000)
	if !errors.Is(err, ErrLiquidationNotAllowed) {
		t.Fatalf("err = %v, want ErrLiquidationNotAllowed", err)
	}
}

func TestLiquidateUnknownBorrower(t *testing.T) {
	env := newLiquidationEnv(t)
	env.oracle.SetPrice(env.feed, 2)
	stranger := testAccount(0xdd)
	_, err := env.engine.Liquidate(env.liquidator, stranger, env.mint, env.collateralMint, 100)
	if !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("err = %v, want ErrPositionNotFound", err)
	}
}
