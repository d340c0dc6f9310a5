package server

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"

	"openchain/crypto"
	"openchain/native/lending"
)

// Amounts travel as decimal strings so JSON consumers never lose precision on
// full-range uint64 values.

type registerAssetRequest struct {
	Caller               string `json:"caller"`
	Mint                 string `json:"mint"`
	PriceFeed            string `json:"priceFeed"`
	Decimals             uint8  `json:"decimals"`
	LTV                  string `json:"ltv"`
	LiquidationThreshold string `json:"liquidationThreshold"`
	CanBeCollateral      bool   `json:"canBeCollateral"`
	CanBeBorrowed        bool   `json:"canBeBorrowed"`
}

type setAssetActiveRequest struct {
	Caller string `json:"caller"`
	Active bool   `json:"active"`
}

type amountRequest struct {
	User   string `json:"user"`
	Mint   string `json:"mint"`
	Amount string `json:"amount"`
}

type borrowRequest struct {
	User      string `json:"user"`
	Mint      string `json:"mint"`
	Amount    string `json:"amount"`
	DestChain uint64 `json:"destChain"`
	Receiver  string `json:"receiver,omitempty"`
}

type liquidateRequest struct {
	Liquidator     string `json:"liquidator"`
	Borrower       string `json:"borrower"`
	DebtMint       string `json:"debtMint"`
	CollateralMint string `json:"collateralMint"`
	DebtAmount     string `json:"debtAmount"`
}

type messageRequest struct {
	Payload string `json:"payload"`
}

type adminRequest struct {
	Caller string `json:"caller"`
}

type poolResponse struct {
	Admin       string `json:"admin"`
	Bridge      string `json:"bridge"`
	Paused      bool   `json:"paused"`
	TotalAssets uint32 `json:"totalAssets"`
}

type assetResponse struct {
	Mint                 string `json:"mint"`
	PriceFeed            string `json:"priceFeed"`
	Decimals             uint8  `json:"decimals"`
	LTV                  string `json:"ltv"`
	LiquidationThreshold string `json:"liquidationThreshold"`
	Active               bool   `json:"active"`
	CanBeCollateral      bool   `json:"canBeCollateral"`
	CanBeBorrowed        bool   `json:"canBeBorrowed"`
	TotalDeposits        string `json:"totalDeposits"`
	TotalBorrows         string `json:"totalBorrows"`
}

type positionResponse struct {
	Owner               string `json:"owner"`
	Mint                string `json:"mint"`
	CollateralBalance   string `json:"collateralBalance"`
	BorrowBalance       string `json:"borrowBalance"`
	CollateralValueUSD  string `json:"collateralValueUsd"`
	BorrowValueUSD      string `json:"borrowValueUsd"`
	HealthFactor        string `json:"healthFactor"`
	LastActionTimestamp int64  `json:"lastActionTimestamp"`
}

type messageResponse struct {
	User        string `json:"user"`
	Action      string `json:"action"`
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	SourceChain uint64 `json:"sourceChain"`
	DestChain   uint64 `json:"destChain"`
}

func poolView(pool *lending.Pool) poolResponse {
	return poolResponse{
		Admin:       pool.Admin.String(),
		Bridge:      pool.Bridge.String(),
		Paused:      pool.Paused,
		TotalAssets: pool.TotalAssets,
	}
}

func assetView(asset *lending.AssetInfo) assetResponse {
	return assetResponse{
		Mint:                 asset.Mint.String(),
		PriceFeed:            asset.PriceFeed.String(),
		Decimals:             asset.Decimals,
		LTV:                  formatAmount(asset.LTV),
		LiquidationThreshold: formatAmount(asset.LiquidationThreshold),
		Active:               asset.Active,
		CanBeCollateral:      asset.CanBeCollateral,
		CanBeBorrowed:        asset.CanBeBorrowed,
		TotalDeposits:        formatAmount(asset.TotalDeposits),
		TotalBorrows:         formatAmount(asset.TotalBorrows),
	}
}

func positionView(position *lending.UserPosition) positionResponse {
	return positionResponse{
		Owner:               position.Owner.String(),
		Mint:                position.Mint.String(),
		CollateralBalance:   formatAmount(position.CollateralBalance),
		BorrowBalance:       formatAmount(position.BorrowBalance),
		CollateralValueUSD:  formatAmount(position.CollateralValueUSD),
		BorrowValueUSD:      formatAmount(position.BorrowValueUSD),
		HealthFactor:        formatAmount(position.HealthFactor),
		LastActionTimestamp: position.LastActionTimestamp,
	}
}

func messageView(msg *lending.CrossChainMessage) messageResponse {
	return messageResponse{
		User:        crypto.MustNewAddress(crypto.AccountPrefix, msg.User[:]).String(),
		Action:      msg.Action,
		Asset:       crypto.MustNewAddress(crypto.MintPrefix, msg.Asset[:]).String(),
		Amount:      formatAmount(msg.Amount),
		SourceChain: msg.SourceChain,
		DestChain:   msg.DestChain,
	}
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseAmount(field, value string) (uint64, error) {
	if value == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	amount, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned decimal: %w", field, err)
	}
	return amount, nil
}

func parseAccount(field, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	if addr.Prefix() != crypto.AccountPrefix {
		return crypto.Address{}, fmt.Errorf("%s: expected %q prefix, got %q", field, crypto.AccountPrefix, addr.Prefix())
	}
	return addr, nil
}

func parseMint(field, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	if addr.Prefix() != crypto.MintPrefix {
		return crypto.Address{}, fmt.Errorf("%s: expected %q prefix, got %q", field, crypto.MintPrefix, addr.Prefix())
	}
	return addr, nil
}

func parseReceiver(value string) ([32]byte, error) {
	var receiver [32]byte
	if value == "" {
		return receiver, nil
	}
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return receiver, fmt.Errorf("receiver must be hex: %w", err)
	}
	if len(decoded) != 32 {
		return receiver, fmt.Errorf("receiver must be 32 bytes, got %d", len(decoded))
	}
	copy(receiver[:], decoded)
	return receiver, nil
}

func parsePayload(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("payload is required")
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("payload must be base64: %w", err)
	}
	return decoded, nil
}
