package lending

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"openchain/core/events"
	"openchain/crypto"
	"openchain/native/common"
	"openchain/native/token"
)

const moduleName = "lending"

// TokenLedger is the custody surface the engine moves funds through. The pool
// account holds deposited collateral; synthetic claims are minted and burned
// when settlement happens on another chain.
type TokenLedger interface {
	BalanceOf(asset, holder crypto.Address) (uint64, error)
	Transfer(asset, from, to crypto.Address, amount uint64) error
	Mint(asset, to crypto.Address, amount uint64) error
	Burn(asset, from crypto.Address, amount uint64) error
}

// Engine executes the collateralized lending protocol: deposits, borrows
// (local or cross-chain), repayments, withdrawals and liquidations, all gated
// by per-position solvency checks. Every operation validates fully before the
// first write; once writes begin the operation runs to completion.
type Engine struct {
	state   engineState
	tokens  TokenLedger
	oracle  PriceOracle
	bridge  BridgeSender
	emitter events.Emitter
	pauses  common.PauseView
	logger  *slog.Logger

	poolAddress  crypto.Address
	localChainID uint64

	liquidationTrigger uint64
	liquidationBonus   uint64
	maxLTV             uint64

	clock func() time.Time
}

// NewEngine constructs an engine with protocol-default risk parameters.
// Collaborators are attached through the setters before first use.
func NewEngine() *Engine {
	return &Engine{
		bridge:             NoopSender{},
		emitter:            events.NoopEmitter{},
		logger:             slog.Default(),
		liquidationTrigger: DefaultLiquidationTrigger,
		liquidationBonus:   DefaultLiquidationBonus,
		maxLTV:             MaxLTV,
		clock:              time.Now,
	}
}

// SetState wires the persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokenLedger wires the custody ledger used for all fund movement.
func (e *Engine) SetTokenLedger(tokens TokenLedger) { e.tokens = tokens }

// SetOracle wires the price oracle.
func (e *Engine) SetOracle(oracle PriceOracle) { e.oracle = oracle }

// SetBridge wires the outbound cross-chain transport.
func (e *Engine) SetBridge(bridge BridgeSender) {
	if bridge == nil {
		bridge = NoopSender{}
	}
	e.bridge = bridge
}

// SetEmitter wires the event sink. A nil emitter silences events.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetPauses wires the host-level pause view consulted before the pool's own
// pause flag.
func (e *Engine) SetPauses(pauses common.PauseView) { e.pauses = pauses }

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

// SetPoolAddress names the custody account holding pooled funds.
func (e *Engine) SetPoolAddress(addr crypto.Address) { e.poolAddress = addr }

// SetLocalChainID names this deployment's chain. Borrows destined for it
// settle locally instead of dispatching a bridge message.
func (e *Engine) SetLocalChainID(id uint64) { e.localChainID = id }

// SetLiquidationParams overrides the trigger and bonus. Zero values keep the
// current setting.
func (e *Engine) SetLiquidationParams(trigger, bonus uint64) {
	if trigger != 0 {
		e.liquidationTrigger = trigger
	}
	if bonus != 0 {
		e.liquidationBonus = bonus
	}
}

// SetClock overrides the time source. Used by tests.
func (e *Engine) SetClock(clock func() time.Time) {
	if clock == nil {
		clock = time.Now
	}
	e.clock = clock
}

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) requireState() error {
	if e.state == nil {
		return errNilState
	}
	return nil
}

func (e *Engine) requireTokens() error {
	if e.tokens == nil {
		return errNoTokenLedger
	}
	return nil
}

func (e *Engine) loadPool() (*Pool, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	pool, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errPoolNotInitialised
	}
	return pool, nil
}

// guard rejects mutating operations while either the host pause switch or the
// pool's own pause flag is set.
func (e *Engine) guard(pool *Pool) error {
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}
	if pool.Paused {
		return fmt.Errorf("%w: protocol paused", ErrNotAuthorized)
	}
	return nil
}

func (e *Engine) fetchPrice(feed crypto.Address) (uint64, error) {
	if e.oracle == nil {
		return 0, errNoOracle
	}
	raw, err := e.oracle.LatestPrice(feed)
	if err != nil {
		if errors.Is(err, ErrInvalidPriceData) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidPriceData, err)
	}
	if raw <= 0 {
		return 0, fmt.Errorf("%w: non-positive answer %d", ErrInvalidPriceData, raw)
	}
	return uint64(raw), nil
}

// checkCooldown enforces the per-position action spacing. A fresh position
// carries a zero timestamp and is exempt; afterwards strictly more than
// ActionCooldown seconds must elapse between stamped actions.
func (e *Engine) checkCooldown(last int64, now time.Time) error {
	if last == 0 {
		return nil
	}
	if now.Unix()-last <= ActionCooldown {
		return ErrRateLimited
	}
	return nil
}

// refreshPosition recomputes the USD valuations and health factor from the
// position's balances at the given price. The threshold parameterizes the
// health-factor formula.
func refreshPosition(position *UserPosition, price uint64, decimals uint8, threshold uint64) error {
	collateralUSD, err := USDValue(position.CollateralBalance, price, decimals)
	if err != nil {
		return err
	}
	borrowUSD, err := USDValue(position.BorrowBalance, price, decimals)
	if err != nil {
		return err
	}
	hf, err := HealthFactor(collateralUSD, borrowUSD, threshold)
	if err != nil {
		return err
	}
	position.CollateralValueUSD = collateralUSD
	position.BorrowValueUSD = borrowUSD
	position.HealthFactor = hf
	return nil
}

// InitializePool creates the singleton pool record. It fails if the pool has
// already been initialised.
func (e *Engine) InitializePool(admin, bridge crypto.Address) (*Pool, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	if admin.IsZero() {
		return nil, fmt.Errorf("%w: zero admin", ErrNotAuthorized)
	}
	existing, err := e.state.GetPool()
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errPoolInitialised
	}
	pool := &Pool{Admin: admin, Bridge: bridge}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// RegisterAsset adds a new asset to the pool under admin authority. The LTV
// is capped, must not exceed the liquidation threshold, and the threshold
// itself must not exceed 1.0.
func (e *Engine) RegisterAsset(caller, mint crypto.Address, cfg AssetConfig) (*AssetInfo, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if !caller.Equal(pool.Admin) {
		return nil, fmt.Errorf("%w: admin only", ErrNotAuthorized)
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if mint.IsZero() {
		return nil, fmt.Errorf("%w: zero mint", ErrAssetNotSupported)
	}
	if cfg.LTV > e.maxLTV {
		return nil, fmt.Errorf("%w: ltv above cap", ErrInvalidAmount)
	}
	if cfg.LiquidationThreshold < cfg.LTV || cfg.LiquidationThreshold > Scale {
		return nil, fmt.Errorf("%w: bad liquidation threshold", ErrInvalidAmount)
	}
	if cfg.Decimals > 19 {
		return nil, fmt.Errorf("%w: decimals out of range", ErrInvalidAmount)
	}
	asset := &AssetInfo{
		Mint:                 mint,
		PriceFeed:            cfg.PriceFeed,
		Decimals:             cfg.Decimals,
		LTV:                  cfg.LTV,
		LiquidationThreshold: cfg.LiquidationThreshold,
		Active:               true,
		CanBeCollateral:      cfg.CanBeCollateral,
		CanBeBorrowed:        cfg.CanBeBorrowed,
	}
	if err := e.state.CreateAsset(asset); err != nil {
		return nil, err
	}
	pool.TotalAssets++
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	e.emit(events.LendingAssetAdded{
		Mint:                 addressPayload(mint),
		LTV:                  cfg.LTV,
		LiquidationThreshold: cfg.LiquidationThreshold,
	})
	return asset.Clone(), nil
}

// SetAssetActive toggles an asset's availability. Deactivated assets reject
// new deposits and borrows but existing positions keep unwinding.
func (e *Engine) SetAssetActive(caller, mint crypto.Address, active bool) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if !caller.Equal(pool.Admin) {
		return fmt.Errorf("%w: admin only", ErrNotAuthorized)
	}
	asset, err := e.state.GetAsset(mint)
	if err != nil {
		return err
	}
	if asset == nil {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, mint.String())
	}
	if asset.Active == active {
		return nil
	}
	asset.Active = active
	return e.state.PutAsset(asset)
}

// Deposit moves collateral from the user into the pool. A position record is
// created on first deposit.
func (e *Engine) Deposit(user, mint crypto.Address, amount uint64) (*UserPosition, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if err := e.requireTokens(); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	asset, err := e.state.GetAsset(mint)
	if err != nil {
		return nil, err
	}
	if asset == nil || !asset.Active || !asset.CanBeCollateral {
		return nil, fmt.Errorf("%w: %s not depositable", ErrAssetNotSupported, mint.String())
	}
	position, err := e.state.GetPosition(user, mint)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &UserPosition{Owner: user, Mint: mint}
	}
	now := e.clock()
	if err := e.checkCooldown(position.LastActionTimestamp, now); err != nil {
		return nil, err
	}
	price, err := e.fetchPrice(asset.PriceFeed)
	if err != nil {
		return nil, err
	}
	newCollateral, err := checkedAdd(position.CollateralBalance, amount)
	if err != nil {
		return nil, err
	}
	newTotal, err := checkedAdd(asset.TotalDeposits, amount)
	if err != nil {
		return nil, err
	}
	updated := position.Clone()
	updated.CollateralBalance = newCollateral
	if err := refreshPosition(updated, price, asset.Decimals, e.liquidationTrigger); err != nil {
		return nil, err
	}
	updated.LastActionTimestamp = now.Unix()
	if err := e.tokens.Transfer(mint, user, e.poolAddress, amount); err != nil {
		return nil, err
	}
	asset.TotalDeposits = newTotal
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(updated); err != nil {
		return nil, err
	}
	e.emit(events.LendingDeposit{
		User:   addressPayload(user),
		Mint:   addressPayload(mint),
		Amount: amount,
		Chain:  e.localChainID,
	})
	return updated.Clone(), nil
}

// BorrowCrossChain borrows against posted collateral. When destChain is this
// deployment's chain the funds pay out from the pool immediately; otherwise
// the borrow commits locally and a settlement message is dispatched to the
// bridge. Transport failure after commit is logged, never rolled back.
func (e *Engine) BorrowCrossChain(user, mint crypto.Address, amount, destChain uint64, receiver [32]byte) (*UserPosition, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if err := e.requireTokens(); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	asset, err := e.state.GetAsset(mint)
	if err != nil {
		return nil, err
	}
	if asset == nil || !asset.Active || !asset.CanBeBorrowed {
		return nil, fmt.Errorf("%w: %s not borrowable", ErrAssetNotSupported, mint.String())
	}
	position, err := e.state.GetPosition(user, mint)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: no collateral posted", ErrPositionNotFound)
	}
	now := e.clock()
	if err := e.checkCooldown(position.LastActionTimestamp, now); err != nil {
		return nil, err
	}
	price, err := e.fetchPrice(asset.PriceFeed)
	if err != nil {
		return nil, err
	}
	newBorrow, err := checkedAdd(position.BorrowBalance, amount)
	if err != nil {
		return nil, err
	}
	collateralUSD, err := USDValue(position.CollateralBalance, price, asset.Decimals)
	if err != nil {
		return nil, err
	}
	borrowUSD, err := USDValue(newBorrow, price, asset.Decimals)
	if err != nil {
		return nil, err
	}
	maxBorrowUSD, err := mulDiv(collateralUSD, asset.LTV, Scale)
	if err != nil {
		return nil, err
	}
	if borrowUSD > maxBorrowUSD {
		return nil, fmt.Errorf("%w: borrow value %d exceeds ltv limit %d", ErrInsufficientCollateral, borrowUSD, maxBorrowUSD)
	}
	hf, err := HealthFactor(collateralUSD, borrowUSD, asset.LiquidationThreshold)
	if err != nil {
		return nil, err
	}
	if hf < MinHealthFactor {
		return nil, fmt.Errorf("%w: projected health factor %d", ErrHealthFactorTooLow, hf)
	}
	newTotal, err := checkedAdd(asset.TotalBorrows, amount)
	if err != nil {
		return nil, err
	}
	local := destChain == e.localChainID
	if local {
		if err := e.tokens.Transfer(mint, e.poolAddress, user, amount); err != nil {
			return nil, err
		}
	}
	position.BorrowBalance = newBorrow
	position.CollateralValueUSD = collateralUSD
	position.BorrowValueUSD = borrowUSD
	position.HealthFactor = hf
	position.LastActionTimestamp = now.Unix()
	asset.TotalBorrows = newTotal
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if !local {
		msg := &CrossChainMessage{
			User:        addressPayload(user),
			Action:      ActionBorrow,
			Asset:       addressPayload(mint),
			Amount:      amount,
			SourceChain: e.localChainID,
			DestChain:   destChain,
		}
		if err := e.bridge.Send(msg, receiver); err != nil {
			e.logger.Warn("cross-chain borrow dispatch failed",
				"user", user.String(),
				"mint", mint.String(),
				"amount", amount,
				"destChain", destChain,
				"error", err,
			)
		}
	}
	e.emit(events.LendingBorrow{
		User:         addressPayload(user),
		Mint:         addressPayload(mint),
		Amount:       amount,
		DestChain:    destChain,
		HealthFactor: hf,
	})
	return position.Clone(), nil
}

// Repay settles outstanding debt. Amounts above the outstanding balance are
// capped; only the applied amount moves. Repay is exempt from the action
// cooldown so users can always reduce risk.
func (e *Engine) Repay(user, mint crypto.Address, amount uint64) (*UserPosition, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if err := e.requireTokens(); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	asset, err := e.state.GetAsset(mint)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotSupported, mint.String())
	}
	position, err := e.state.GetPosition(user, mint)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: nothing to repay", ErrPositionNotFound)
	}
	if position.BorrowBalance == 0 {
		return nil, fmt.Errorf("%w: no outstanding debt", ErrInvalidAmount)
	}
	applied := amount
	if applied > position.BorrowBalance {
		applied = position.BorrowBalance
	}
	price, err := e.fetchPrice(asset.PriceFeed)
	if err != nil {
		return nil, err
	}
	updated := position.Clone()
	updated.BorrowBalance -= applied
	if err := refreshPosition(updated, price, asset.Decimals, e.liquidationTrigger); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(mint, user, e.poolAddress, applied); err != nil {
		return nil, err
	}
	if asset.TotalBorrows >= applied {
		asset.TotalBorrows -= applied
	} else {
		asset.TotalBorrows = 0
	}
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(updated); err != nil {
		return nil, err
	}
	e.emit(events.LendingRepay{
		User:   addressPayload(user),
		Mint:   addressPayload(mint),
		Amount: applied,
	})
	return updated.Clone(), nil
}

// Withdraw returns collateral to the user. When debt is outstanding the
// post-withdrawal health factor must stay at or above the minimum; the check
// runs against a projection, so a rejection leaves state untouched. Withdraw
// is exempt from the action cooldown.
func (e *Engine) Withdraw(user, mint crypto.Address, amount uint64) (*UserPosition, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if err := e.requireTokens(); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	asset, err := e.state.GetAsset(mint)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotSupported, mint.String())
	}
	position, err := e.state.GetPosition(user, mint)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: nothing to withdraw", ErrPositionNotFound)
	}
	if amount > position.CollateralBalance {
		return nil, fmt.Errorf("%w: withdrawal exceeds balance", ErrInsufficientCollateral)
	}
	price, err := e.fetchPrice(asset.PriceFeed)
	if err != nil {
		return nil, err
	}
	updated := position.Clone()
	updated.CollateralBalance = position.CollateralBalance - amount
	if err := refreshPosition(updated, price, asset.Decimals, e.liquidationTrigger); err != nil {
		return nil, err
	}
	if updated.BorrowBalance > 0 && updated.HealthFactor < MinHealthFactor {
		return nil, fmt.Errorf("%w: projected health factor %d", ErrHealthFactorTooLow, updated.HealthFactor)
	}
	if err := e.tokens.Transfer(mint, e.poolAddress, user, amount); err != nil {
		return nil, err
	}
	if asset.TotalDeposits >= amount {
		asset.TotalDeposits -= amount
	} else {
		asset.TotalDeposits = 0
	}
	if err := e.state.PutAsset(asset); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(updated); err != nil {
		return nil, err
	}
	e.emit(events.LendingWithdraw{
		User:   addressPayload(user),
		Mint:   addressPayload(mint),
		Amount: amount,
	})
	return updated.Clone(), nil
}

// Liquidate lets anyone repay part of an unhealthy borrower's debt in
// exchange for a bonus-weighted slice of the posted collateral. The repaid
// amount is capped at the outstanding borrow balance. Only the borrower's
// position record mutates; the asset aggregates are untouched because the
// pool's total custody does not change shape.
func (e *Engine) Liquidate(liquidator, borrower, debtMint, collateralMint crypto.Address, debtAmount uint64) (*UserPosition, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if err := e.requireTokens(); err != nil {
		return nil, err
	}
	if debtAmount == 0 {
		return nil, ErrInvalidAmount
	}
	debtAsset, err := e.state.GetAsset(debtMint)
	if err != nil {
		return nil, err
	}
	if debtAsset == nil {
		return nil, fmt.Errorf("%w: debt asset %s", ErrAssetNotSupported, debtMint.String())
	}
	collateralAsset, err := e.state.GetAsset(collateralMint)
	if err != nil {
		return nil, err
	}
	if collateralAsset == nil {
		return nil, fmt.Errorf("%w: collateral asset %s", ErrAssetNotSupported, collateralMint.String())
	}
	position, err := e.state.GetPosition(borrower, debtMint)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, fmt.Errorf("%w: borrower has no position", ErrPositionNotFound)
	}
	debtPrice, err := e.fetchPrice(debtAsset.PriceFeed)
	if err != nil {
		return nil, err
	}
	collateralPrice, err := e.fetchPrice(collateralAsset.PriceFeed)
	if err != nil {
		return nil, err
	}
	collateralUSD, err := USDValue(position.CollateralBalance, collateralPrice, collateralAsset.Decimals)
	if err != nil {
		return nil, err
	}
	borrowUSD, err := USDValue(position.BorrowBalance, debtPrice, debtAsset.Decimals)
	if err != nil {
		return nil, err
	}
	hf, err := HealthFactor(collateralUSD, borrowUSD, e.liquidationTrigger)
	if err != nil {
		return nil, err
	}
	if hf >= e.liquidationTrigger {
		return nil, fmt.Errorf("%w: health factor %d at or above trigger", ErrLiquidationNotAllowed, hf)
	}
	applied := debtAmount
	if applied > position.BorrowBalance {
		applied = position.BorrowBalance
	}
	seize, err := LiquidationSeizure(applied, debtPrice, collateralPrice, e.liquidationBonus)
	if err != nil {
		return nil, err
	}
	if seize > position.CollateralBalance {
		return nil, fmt.Errorf("%w: seizure exceeds posted collateral", ErrInsufficientCollateral)
	}
	updated := position.Clone()
	updated.BorrowBalance -= applied
	updated.CollateralBalance -= seize
	postCollateralUSD, err := USDValue(updated.CollateralBalance, collateralPrice, collateralAsset.Decimals)
	if err != nil {
		return nil, err
	}
	postBorrowUSD, err := USDValue(updated.BorrowBalance, debtPrice, debtAsset.Decimals)
	if err != nil {
		return nil, err
	}
	postHF, err := HealthFactor(postCollateralUSD, postBorrowUSD, e.liquidationTrigger)
	if err != nil {
		return nil, err
	}
	updated.CollateralValueUSD = postCollateralUSD
	updated.BorrowValueUSD = postBorrowUSD
	updated.HealthFactor = postHF
	if err := e.tokens.Transfer(debtMint, liquidator, e.poolAddress, applied); err != nil {
		return nil, err
	}
	if err := e.tokens.Transfer(collateralMint, e.poolAddress, liquidator, seize); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(updated); err != nil {
		return nil, err
	}
	e.emit(events.LendingLiquidation{
		Liquidator:       addressPayload(liquidator),
		Borrower:         addressPayload(borrower),
		DebtAmount:       applied,
		CollateralSeized: seize,
		HealthFactor:     postHF,
	})
	return updated.Clone(), nil
}

// ReceiveMessage settles an inbound cross-chain payload. A remote borrow
// mints the synthetic claim for the asset to the user; a remote repay burns
// it. Unknown actions fail; there is no replay protection at this layer.
func (e *Engine) ReceiveMessage(payload []byte) (*CrossChainMessage, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	if err := e.guard(pool); err != nil {
		return nil, err
	}
	if err := e.requireTokens(); err != nil {
		return nil, err
	}
	msg, err := DecodeMessage(payload)
	if err != nil {
		return nil, err
	}
	if msg.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	user := crypto.NewAddress(crypto.AccountPrefix, msg.User[:])
	mint := crypto.NewAddress(crypto.MintPrefix, msg.Asset[:])
	synthetic := token.SyntheticAsset(mint)
	switch msg.Action {
	case ActionBorrow:
		if err := e.tokens.Mint(synthetic, user, msg.Amount); err != nil {
			return nil, err
		}
	case ActionRepay:
		if err := e.tokens.Burn(synthetic, user, msg.Amount); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrCrossChainFailed, msg.Action)
	}
	e.emit(events.LendingMessageReceived{
		User:        msg.User,
		Action:      msg.Action,
		Amount:      msg.Amount,
		SourceChain: msg.SourceChain,
	})
	return msg, nil
}

// Pause trips the pool circuit breaker. Admin only; pausing an already-paused
// pool is a no-op.
func (e *Engine) Pause(caller crypto.Address) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if !caller.Equal(pool.Admin) {
		return fmt.Errorf("%w: admin only", ErrNotAuthorized)
	}
	if pool.Paused {
		return nil
	}
	pool.Paused = true
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(events.LendingPaused{Admin: addressPayload(caller)})
	return nil
}

// Unpause clears the pool circuit breaker. Admin only and deliberately not
// subject to the pause guard, otherwise the pool could never recover.
func (e *Engine) Unpause(caller crypto.Address) error {
	pool, err := e.loadPool()
	if err != nil {
		return err
	}
	if !caller.Equal(pool.Admin) {
		return fmt.Errorf("%w: admin only", ErrNotAuthorized)
	}
	if !pool.Paused {
		return nil
	}
	pool.Paused = false
	if err := e.state.PutPool(pool); err != nil {
		return err
	}
	e.emit(events.LendingUnpaused{Admin: addressPayload(caller)})
	return nil
}

// PoolInfo returns a copy of the pool record.
func (e *Engine) PoolInfo() (*Pool, error) {
	pool, err := e.loadPool()
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// AssetByMint returns a copy of the asset record for the mint.
func (e *Engine) AssetByMint(mint crypto.Address) (*AssetInfo, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	asset, err := e.state.GetAsset(mint)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotSupported, mint.String())
	}
	return asset.Clone(), nil
}

// PositionFor returns a copy of the position for the user+asset pair.
func (e *Engine) PositionFor(owner, mint crypto.Address) (*UserPosition, error) {
	if err := e.requireState(); err != nil {
		return nil, err
	}
	position, err := e.state.GetPosition(owner, mint)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}
	return position.Clone(), nil
}
