package lending

import "openchain/crypto"

// Pool is the singleton configuration record for a lending deployment. It is
// created once and mutated only by admin actions.
type Pool struct {
	// Admin is the only identity allowed to register assets and toggle the
	// pause flag.
	Admin crypto.Address
	// Bridge identifies the cross-chain transport trusted for outbound
	// dispatch and inbound settlement.
	Bridge crypto.Address
	// Paused is the global circuit breaker gating every mutating operation.
	Paused bool
	// TotalAssets counts the assets registered since initialization.
	TotalAssets uint32
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// AssetConfig carries the admin-supplied parameters for asset registration.
type AssetConfig struct {
	PriceFeed            crypto.Address
	Decimals             uint8
	LTV                  uint64
	LiquidationThreshold uint64
	CanBeCollateral      bool
	CanBeBorrowed        bool
}

// AssetInfo is the per-asset configuration and aggregate accounting record.
// Assets are never deleted, only deactivated.
type AssetInfo struct {
	Mint                 crypto.Address
	PriceFeed            crypto.Address
	Decimals             uint8
	LTV                  uint64
	LiquidationThreshold uint64
	Active               bool
	CanBeCollateral      bool
	CanBeBorrowed        bool
	TotalDeposits        uint64
	TotalBorrows         uint64
}

// Clone returns a deep copy of the asset record.
func (a *AssetInfo) Clone() *AssetInfo {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// UserPosition tracks the balances and solvency state for one user+asset
// pair. The owner is stamped on the first successful deposit; zero balances
// are a valid terminal state, the record is never deleted.
type UserPosition struct {
	Owner               crypto.Address
	Mint                crypto.Address
	CollateralBalance   uint64
	BorrowBalance       uint64
	CollateralValueUSD  uint64
	BorrowValueUSD      uint64
	HealthFactor        uint64
	LastActionTimestamp int64
}

// Clone returns a deep copy of the position record.
func (p *UserPosition) Clone() *UserPosition {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
