package token

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"openchain/crypto"
	"openchain/storage"
)

func addr(prefix crypto.AddressPrefix, fill byte) crypto.Address {
	return crypto.MustNewAddress(prefix, bytes.Repeat([]byte{fill}, 20))
}

func TestLedgerMintTransferBurn(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	asset := addr(crypto.MintPrefix, 0x01)
	alice := addr(crypto.AccountPrefix, 0x02)
	bob := addr(crypto.AccountPrefix, 0x03)

	if err := ledger.Mint(asset, alice, 1000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(asset, alice, bob, 400); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := ledger.Burn(asset, bob, 100); err != nil {
		t.Fatalf("burn: %v", err)
	}

	aliceBalance, err := ledger.BalanceOf(asset, alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if aliceBalance != 600 {
		t.Fatalf("alice balance = %d, want 600", aliceBalance)
	}
	bobBalance, err := ledger.BalanceOf(asset, bob)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bobBalance != 300 {
		t.Fatalf("bob balance = %d, want 300", bobBalance)
	}
}

func TestLedgerRejectsBadAmounts(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	asset := addr(crypto.MintPrefix, 0x01)
	alice := addr(crypto.AccountPrefix, 0x02)
	bob := addr(crypto.AccountPrefix, 0x03)

	if err := ledger.Transfer(asset, alice, bob, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero transfer: err = %v", err)
	}
	if err := ledger.Transfer(asset, alice, bob, 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unfunded transfer: err = %v", err)
	}
	if err := ledger.Burn(asset, alice, 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("unfunded burn: err = %v", err)
	}
	if err := ledger.Mint(asset, alice, math.MaxUint64); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint(asset, alice, 1); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("overflow mint: err = %v", err)
	}
}

func TestLedgerBalancesAreScoped(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	assetA := addr(crypto.MintPrefix, 0x01)
	assetB := addr(crypto.MintPrefix, 0x02)
	alice := addr(crypto.AccountPrefix, 0x03)

	if err := ledger.Mint(assetA, alice, 77); err != nil {
		t.Fatalf("mint: %v", err)
	}
	balance, err := ledger.BalanceOf(assetB, alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("assetB balance = %d, want 0", balance)
	}
}

func TestSyntheticAssetDerivation(t *testing.T) {
	mint := addr(crypto.MintPrefix, 0x10)
	synthetic := SyntheticAsset(mint)
	if synthetic.Prefix() != crypto.MintPrefix {
		t.Fatalf("prefix = %q, want %q", synthetic.Prefix(), crypto.MintPrefix)
	}
	if synthetic.Equal(mint) {
		t.Fatalf("synthetic must differ from the underlying mint")
	}
	if !SyntheticAsset(mint).Equal(synthetic) {
		t.Fatalf("derivation must be deterministic")
	}
	if SyntheticAsset(addr(crypto.MintPrefix, 0x11)).Equal(synthetic) {
		t.Fatalf("distinct mints must derive distinct synthetics")
	}
}
