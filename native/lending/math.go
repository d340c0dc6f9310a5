package lending

import (
	"math"
	"math/bits"
)

// Scale is the fixed-point representation of 1.0 used for all monetary ratios.
const Scale uint64 = 1_000_000_000_000_000_000

const (
	// MinHealthFactor is the solvency floor: positions may not mutate into a
	// state below 1.0.
	MinHealthFactor uint64 = Scale
	// MaxHealthFactor is reported for positions with no outstanding borrow.
	MaxHealthFactor uint64 = math.MaxUint64
	// DefaultLiquidationTrigger is the global health-factor trigger below
	// which a position becomes seizable. It is distinct from the per-asset
	// liquidation threshold used inside the health-factor formula.
	DefaultLiquidationTrigger uint64 = 950_000_000_000_000_000
	// DefaultLiquidationBonus over-compensates the liquidator by 5% of the
	// repaid debt value.
	DefaultLiquidationBonus uint64 = 50_000_000_000_000_000
	// MaxLTV caps the loan-to-value ratio an asset may be registered with.
	MaxLTV uint64 = 750_000_000_000_000_000
)

// ActionCooldown is the minimum separation, in seconds, between two mutating
// actions on the same position.
const ActionCooldown int64 = 900

// Amounts, prices and USD values are uint64: the wire and account layout of
// the protocol is defined in u64, so a result that does not fit is a rejection
// condition rather than a precision concern. Intermediate products are carried
// at 128 bits so that ratio math (value * 1e18-scaled factor / 1e18) only
// fails when the final quotient genuinely overflows.

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrInvalidAmount
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrInvalidAmount
	}
	return diff, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrInvalidAmount
	}
	return lo, nil
}

// mulDiv computes a*b/den with a 128-bit intermediate product, truncating the
// quotient. It fails when den is zero or the quotient exceeds 64 bits.
func mulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrInvalidAmount
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrInvalidAmount
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

func pow10(exp uint8) (uint64, error) {
	if exp > 19 {
		return 0, ErrInvalidAmount
	}
	result := uint64(1)
	for i := uint8(0); i < exp; i++ {
		result *= 10
	}
	return result, nil
}

// USDValue converts a raw token amount into its USD value using the oracle
// unit price and the asset's decimal precision.
func USDValue(amount, price uint64, decimals uint8) (uint64, error) {
	divisor, err := pow10(decimals)
	if err != nil {
		return 0, err
	}
	return mulDiv(amount, price, divisor)
}

// HealthFactor computes the fixed-point solvency ratio of a position as
// (collateral * threshold / Scale) * Scale / borrow, truncating between the
// two steps. A position with no borrow value has an unbounded safety margin
// and reports MaxHealthFactor.
func HealthFactor(collateralUSD, borrowUSD, liquidationThreshold uint64) (uint64, error) {
	if borrowUSD == 0 {
		return MaxHealthFactor, nil
	}
	weighted, err := mulDiv(collateralUSD, liquidationThreshold, Scale)
	if err != nil {
		return 0, err
	}
	return mulDiv(weighted, Scale, borrowUSD)
}

// LiquidationSeizure sizes the collateral a liquidator may seize for repaying
// debtAmount: the raw debt value plus the liquidation bonus, converted into
// collateral units at the collateral asset's price. Divisions truncate per the
// protocol's integer semantics.
func LiquidationSeizure(debtAmount, debtPrice, collateralPrice, bonus uint64) (uint64, error) {
	if collateralPrice == 0 {
		return 0, ErrInvalidPriceData
	}
	debtValue, err := checkedMul(debtAmount, debtPrice)
	if err != nil {
		return 0, err
	}
	factor, err := checkedAdd(Scale, bonus)
	if err != nil {
		return 0, err
	}
	needed, err := mulDiv(debtValue, factor, Scale)
	if err != nil {
		return 0, err
	}
	return needed / collateralPrice, nil
}
