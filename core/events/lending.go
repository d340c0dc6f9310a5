package events

import (
	"strconv"
	"strings"

	"openchain/core/types"
	"openchain/crypto"
)

const (
	// TypeLendingAssetAdded is emitted when the admin registers a new asset.
	TypeLendingAssetAdded = "lending.assetAdded"
	// TypeLendingDeposit is emitted for collateral deposits into the pool.
	TypeLendingDeposit = "lending.deposit"
	// TypeLendingBorrow is emitted for successful borrows, local or cross-chain.
	TypeLendingBorrow = "lending.borrow"
	// TypeLendingRepay is emitted when outstanding debt is repaid.
	TypeLendingRepay = "lending.repay"
	// TypeLendingWithdraw is emitted when collateral leaves the pool.
	TypeLendingWithdraw = "lending.withdraw"
	// TypeLendingLiquidation is emitted when a position is liquidated.
	TypeLendingLiquidation = "lending.liquidation"
	// TypeLendingMessageReceived is emitted for every processed inbound
	// cross-chain message.
	TypeLendingMessageReceived = "lending.crossChainMessageReceived"
	// TypeLendingPaused is emitted when the admin pauses the protocol.
	TypeLendingPaused = "lending.protocolPaused"
	// TypeLendingUnpaused is emitted when the admin unpauses the protocol.
	TypeLendingUnpaused = "lending.protocolUnpaused"
)

type LendingAssetAdded struct {
	Mint                 [20]byte
	LTV                  uint64
	LiquidationThreshold uint64
}

func (LendingAssetAdded) EventType() string { return TypeLendingAssetAdded }

func (e LendingAssetAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingAssetAdded,
		Attributes: map[string]string{
			"mint":                 mintString(e.Mint),
			"ltv":                  formatUint(e.LTV),
			"liquidationThreshold": formatUint(e.LiquidationThreshold),
		},
	}
}

type LendingDeposit struct {
	User   [20]byte
	Mint   [20]byte
	Amount uint64
	Chain  uint64
}

func (LendingDeposit) EventType() string { return TypeLendingDeposit }

func (e LendingDeposit) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingDeposit,
		Attributes: map[string]string{
			"user":   accountString(e.User),
			"mint":   mintString(e.Mint),
			"amount": formatUint(e.Amount),
			"chain":  formatUint(e.Chain),
		},
	}
}

type LendingBorrow struct {
	User         [20]byte
	Mint         [20]byte
	Amount       uint64
	DestChain    uint64
	HealthFactor uint64
}

func (LendingBorrow) EventType() string { return TypeLendingBorrow }

func (e LendingBorrow) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingBorrow,
		Attributes: map[string]string{
			"user":         accountString(e.User),
			"mint":         mintString(e.Mint),
			"amount":       formatUint(e.Amount),
			"destChain":    formatUint(e.DestChain),
			"healthFactor": formatUint(e.HealthFactor),
		},
	}
}

type LendingRepay struct {
	User   [20]byte
	Mint   [20]byte
	Amount uint64
}

func (LendingRepay) EventType() string { return TypeLendingRepay }

func (e LendingRepay) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingRepay,
		Attributes: map[string]string{
			"user":   accountString(e.User),
			"mint":   mintString(e.Mint),
			"amount": formatUint(e.Amount),
		},
	}
}

type LendingWithdraw struct {
	User   [20]byte
	Mint   [20]byte
	Amount uint64
}

func (LendingWithdraw) EventType() string { return TypeLendingWithdraw }

func (e LendingWithdraw) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingWithdraw,
		Attributes: map[string]string{
			"user":   accountString(e.User),
			"mint":   mintString(e.Mint),
			"amount": formatUint(e.Amount),
		},
	}
}

type LendingLiquidation struct {
	Liquidator       [20]byte
	Borrower         [20]byte
	DebtAmount       uint64
	CollateralSeized uint64
	HealthFactor     uint64
}

func (LendingLiquidation) EventType() string { return TypeLendingLiquidation }

func (e LendingLiquidation) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingLiquidation,
		Attributes: map[string]string{
			"liquidator":       accountString(e.Liquidator),
			"borrower":         accountString(e.Borrower),
			"debtAmount":       formatUint(e.DebtAmount),
			"collateralSeized": formatUint(e.CollateralSeized),
			"healthFactor":     formatUint(e.HealthFactor),
		},
	}
}

type LendingMessageReceived struct {
	User        [20]byte
	Action      string
	Amount      uint64
	SourceChain uint64
}

func (LendingMessageReceived) EventType() string { return TypeLendingMessageReceived }

func (e LendingMessageReceived) Event() *types.Event {
	return &types.Event{
		Type: TypeLendingMessageReceived,
		Attributes: map[string]string{
			"user":        accountString(e.User),
			"action":      strings.TrimSpace(e.Action),
			"amount":      formatUint(e.Amount),
			"sourceChain": formatUint(e.SourceChain),
		},
	}
}

type LendingPaused struct {
	Admin [20]byte
}

func (LendingPaused) EventType() string { return TypeLendingPaused }

func (e LendingPaused) Event() *types.Event {
	return &types.Event{
		Type:       TypeLendingPaused,
		Attributes: map[string]string{"admin": accountString(e.Admin)},
	}
}

type LendingUnpaused struct {
	Admin [20]byte
}

func (LendingUnpaused) EventType() string { return TypeLendingUnpaused }

func (e LendingUnpaused) Event() *types.Event {
	return &types.Event{
		Type:       TypeLendingUnpaused,
		Attributes: map[string]string{"admin": accountString(e.Admin)},
	}
}

func accountString(raw [20]byte) string {
	if raw == ([20]byte{}) {
		return ""
	}
	return crypto.MustNewAddress(crypto.AccountPrefix, raw[:]).String()
}

func mintString(raw [20]byte) string {
	if raw == ([20]byte{}) {
		return ""
	}
	return crypto.MustNewAddress(crypto.MintPrefix, raw[:]).String()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
