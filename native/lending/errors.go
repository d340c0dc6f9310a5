package lending

import "errors"

var (
	// ErrInsufficientCollateral signals a violated LTV bound or a seizure that
	// exceeds the borrower's posted collateral.
	ErrInsufficientCollateral = errors.New("lending: insufficient collateral")
	// ErrAssetNotSupported covers inactive assets and assets lacking the
	// required collateral/borrow eligibility flag.
	ErrAssetNotSupported = errors.New("lending: asset not supported")
	// ErrHealthFactorTooLow rejects operations whose post-state would leave the
	// position below the minimum health factor.
	ErrHealthFactorTooLow = errors.New("lending: health factor too low")
	// ErrInvalidAmount rejects zero inputs and arithmetic overflow/underflow.
	ErrInvalidAmount = errors.New("lending: invalid amount")
	// ErrRateLimited enforces the per-position action cooldown.
	ErrRateLimited = errors.New("lending: rate limited")
	// ErrNotAuthorized covers paused-pool rejections and non-admin callers.
	ErrNotAuthorized = errors.New("lending: not authorized")
	// ErrCrossChainFailed covers undecodable payloads and unrecognized actions.
	ErrCrossChainFailed = errors.New("lending: cross-chain operation failed")
	// ErrInvalidPriceData rejects non-positive or unavailable oracle prices.
	ErrInvalidPriceData = errors.New("lending: invalid price data")
	// ErrLiquidationNotAllowed rejects liquidation of a still-healthy position.
	ErrLiquidationNotAllowed = errors.New("lending: liquidation not allowed")
	// ErrPositionNotFound signals that no position exists for the user+asset pair.
	ErrPositionNotFound = errors.New("lending: position not found")
	// ErrChainNotSupported is reserved for destination-chain allow-listing.
	// No allow-list is enforced today; the constant is an extension point.
	ErrChainNotSupported = errors.New("lending: chain not supported")
)

var (
	errNilState           = errors.New("lending: state not configured")
	errNoTokenLedger      = errors.New("lending: token ledger not configured")
	errNoOracle           = errors.New("lending: price oracle not configured")
	errPoolNotInitialised = errors.New("lending: pool not initialised")
	errPoolInitialised    = errors.New("lending: pool already initialised")
)
