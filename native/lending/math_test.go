package lending

import (
	"errors"
	"math"
	"testing"
)

func TestHealthFactorBasic(t *testing.T) {
	hf, err := HealthFactor(1000, 500, 950_000_000_000_000_000)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if want := uint64(1_900_000_000_000_000_000); hf != want {
		t.Fatalf("health factor = %d, want %d", hf, want)
	}
}

func TestHealthFactorNoDebt(t *testing.T) {
	hf, err := HealthFactor(12345, 0, Scale)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if hf != math.MaxUint64 {
		t.Fatalf("health factor = %d, want MaxUint64", hf)
	}
}

func TestHealthFactorTruncates(t *testing.T) {
	hf, err := HealthFactor(1000, 700, 950_000_000_000_000_000)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	// 950e18 / 700 rounds down.
	if want := uint64(1_357_142_857_142_857_142); hf != want {
		t.Fatalf("health factor = %d, want %d", hf, want)
	}
}

func TestHealthFactorOverflow(t *testing.T) {
	_, err := HealthFactor(math.MaxUint64, 1, Scale)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestHealthFactorLargeValuesSurviveIntermediates(t *testing.T) {
	// The intermediate product exceeds 64 bits; only the final quotient
	// must fit.
	hf, err := HealthFactor(1_000_000_000_000, 2_000_000_000_000, Scale)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if want := uint64(500_000_000_000_000_000); hf != want {
		t.Fatalf("health factor = %d, want %d", hf, want)
	}
}

func TestUSDValue(t *testing.T) {
	cases := []struct {
		name     string
		amount   uint64
		price    uint64
		decimals uint8
		want     uint64
	}{
		{"whole units", 1000, 2, 0, 2000},
		{"six decimals", 1_000_000, 3, 6, 3},
		{"truncates", 1_500_000, 1, 6, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := USDValue(tc.amount, tc.price, tc.decimals)
			if err != nil {
				t.Fatalf("usd value: %v", err)
			}
			if got != tc.want {
				t.Fatalf("usd value = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestUSDValueRejectsWideDecimals(t *testing.T) {
	if _, err := USDValue(1, 1, 20); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestLiquidationSeizure(t *testing.T) {
	// Repaying 100 units of debt priced at 1 with a 5% bonus seizes 52
	// units of collateral priced at 2: floor(100 * 1.05 / 2).
	seize, err := LiquidationSeizure(100, 1, 2, DefaultLiquidationBonus)
	if err != nil {
		t.Fatalf("seizure: %v", err)
	}
	if seize != 52 {
		t.Fatalf("seizure = %d, want 52", seize)
	}
}

func TestLiquidationSeizureZeroCollateralPrice(t *testing.T) {
	_, err := LiquidationSeizure(100, 1, 0, DefaultLiquidationBonus)
	if !errors.Is(err, ErrInvalidPriceData) {
		t.Fatalf("err = %v, want ErrInvalidPriceData", err)
	}
}

func TestLiquidationSeizureOverflow(t *testing.T) {
	_, err := LiquidationSeizure(10_000_000_000, 10_000_000_000, 1, DefaultLiquidationBonus)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestCheckedHelpers(t *testing.T) {
	if _, err := checkedAdd(math.MaxUint64, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("add overflow: err = %v", err)
	}
	if _, err := checkedSub(1, 2); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("sub underflow: err = %v", err)
	}
	if _, err := mulDiv(1, 1, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("div by zero: err = %v", err)
	}
	got, err := mulDiv(7, 3, 2)
	if err != nil || got != 10 {
		t.Fatalf("mulDiv(7,3,2) = %d, %v, want 10", got, err)
	}
}
