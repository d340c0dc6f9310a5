package token

import (
	"errors"
	"fmt"
	"math/bits"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"openchain/crypto"
	"openchain/storage"
)

var (
	ErrInvalidAmount     = errors.New("token: amount must be positive")
	ErrInsufficientFunds = errors.New("token: insufficient funds")
	ErrBalanceOverflow   = errors.New("token: balance overflow")
)

var balancePrefix = []byte("token/balance/")

func balanceKey(asset, holder crypto.Address) []byte {
	buf := make([]byte, 0, len(balancePrefix)+40)
	buf = append(buf, balancePrefix...)
	buf = append(buf, asset.Bytes()...)
	buf = append(buf, holder.Bytes()...)
	return buf
}

// Ledger maintains fungible balances per (asset, holder) pair in the
// underlying key-value store. It stands in for the external custody service:
// the lending engine moves funds through it but never owns the balances.
type Ledger struct {
	db storage.Database
}

// NewLedger constructs a ledger bound to the provided storage backend.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

// BalanceOf returns the holder's balance for the asset, zero when absent.
func (l *Ledger) BalanceOf(asset, holder crypto.Address) (uint64, error) {
	raw, err := l.db.Get(balanceKey(asset, holder))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("token: load balance: %w", err)
	}
	var balance uint64
	if err := rlp.DecodeBytes(raw, &balance); err != nil {
		return 0, fmt.Errorf("token: decode balance: %w", err)
	}
	return balance, nil
}

func (l *Ledger) putBalance(asset, holder crypto.Address, balance uint64) error {
	encoded, err := rlp.EncodeToBytes(balance)
	if err != nil {
		return fmt.Errorf("token: encode balance: %w", err)
	}
	if err := l.db.Put(balanceKey(asset, holder), encoded); err != nil {
		return fmt.Errorf("token: persist balance: %w", err)
	}
	return nil
}

// Transfer moves amount of asset from one holder to another.
func (l *Ledger) Transfer(asset, from, to crypto.Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.BalanceOf(asset, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientFunds
	}
	toBalance, err := l.BalanceOf(asset, to)
	if err != nil {
		return err
	}
	newTo, carry := bits.Add64(toBalance, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	if err := l.putBalance(asset, from, fromBalance-amount); err != nil {
		return err
	}
	return l.putBalance(asset, to, newTo)
}

// Mint credits newly issued units of asset to the holder.
func (l *Ledger) Mint(asset, to crypto.Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	balance, err := l.BalanceOf(asset, to)
	if err != nil {
		return err
	}
	next, carry := bits.Add64(balance, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	return l.putBalance(asset, to, next)
}

// Burn destroys amount of asset held by the holder.
func (l *Ledger) Burn(asset, from crypto.Address, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	balance, err := l.BalanceOf(asset, from)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientFunds
	}
	return l.putBalance(asset, from, balance-amount)
}

// SyntheticAsset derives the mint identity of the synthetic claim token that
// represents cross-chain-settled borrows of the given asset. The derivation
// is deterministic so both chains agree on the identity without coordination.
func SyntheticAsset(mint crypto.Address) crypto.Address {
	digest := ethcrypto.Keccak256([]byte("openchain/synthetic/"), mint.Bytes())
	return crypto.NewAddress(crypto.MintPrefix, digest[12:])
}
