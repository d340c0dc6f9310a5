// Package server exposes the lending engine over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"openchain/native/lending"
	"openchain/observability/metrics"
)

// Config tunes the HTTP surface.
type Config struct {
	// AdminTokens authorize asset registration, activation toggles, pause and
	// unpause, and inbound bridge delivery. Empty list closes those routes.
	AdminTokens []string
	// RatePerSecond and Burst bound per-client request throughput on the
	// public routes.
	RatePerSecond float64
	Burst         int
}

// Server routes HTTP requests into the lending engine.
type Server struct {
	engine  *lending.Engine
	logger  *slog.Logger
	metrics *metrics.Lending
	auth    *tokenAuthenticator
	limiter *clientLimiter
	router  chi.Router
}

// New constructs the server and its route table.
func New(engine *lending.Engine, logger *slog.Logger, m *metrics.Lending, cfg Config) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  engine,
		logger:  logger,
		metrics: m,
		auth:    newTokenAuthenticator(cfg.AdminTokens),
		limiter: newClientLimiter(cfg.RatePerSecond, cfg.Burst),
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.middleware)

	r.Route("/v1/lending", func(r chi.Router) {
		r.Get("/pool", s.handlePool)
		r.Get("/assets/{mint}", s.handleAsset)
		r.Get("/positions/{owner}/{mint}", s.handlePosition)
		r.Post("/deposit", s.handleDeposit)
		r.Post("/borrow", s.handleBorrow)
		r.Post("/repay", s.handleRepay)
		r.Post("/withdraw", s.handleWithdraw)
		r.Post("/liquidate", s.handleLiquidate)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.requireAuth)
			r.Post("/assets", s.handleRegisterAsset)
			r.Post("/assets/{mint}/active", s.handleSetAssetActive)
			r.Post("/messages", s.handleReceiveMessage)
			r.Post("/pause", s.handlePause)
			r.Post("/unpause", s.handleUnpause)
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router = r
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) observe(operation string, err error) {
	s.metrics.ObserveOperation(operation, err)
	if err != nil {
		s.logger.Warn("operation rejected", "operation", operation, "error", err)
	}
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}

func (s *Server) handlePool(w http.ResponseWriter, _ *http.Request) {
	pool, err := s.engine.PoolInfo()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, poolView(pool))
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	mint, err := parseMint("mint", chi.URLParam(r, "mint"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	asset, err := s.engine.AssetByMint(mint)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assetView(asset))
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAccount("owner", chi.URLParam(r, "owner"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseMint("mint", chi.URLParam(r, "mint"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	position, err := s.engine.PositionFor(owner, mint)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(position))
}

func (s *Server) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	var req registerAssetRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseAccount("caller", req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseMint("mint", req.Mint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	feed, err := parseAccount("priceFeed", req.PriceFeed)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	ltv, err := parseAmount("ltv", req.LTV)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	threshold, err := parseAmount("liquidationThreshold", req.LiquidationThreshold)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	asset, err := s.engine.RegisterAsset(caller, mint, lending.AssetConfig{
		PriceFeed:            feed,
		Decimals:             req.Decimals,
		LTV:                  ltv,
		LiquidationThreshold: threshold,
		CanBeCollateral:      req.CanBeCollateral,
		CanBeBorrowed:        req.CanBeBorrowed,
	})
	s.observe("register_asset", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assetView(asset))
}

func (s *Server) handleSetAssetActive(w http.ResponseWriter, r *http.Request) {
	mint, err := parseMint("mint", chi.URLParam(r, "mint"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req setAssetActiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseAccount("caller", req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.engine.SetAssetActive(caller, mint, req.Active)
	s.observe("set_asset_active", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user, err := parseAccount("user", req.User)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseMint("mint", req.Mint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	position, err := s.engine.Deposit(user, mint, amount)
	s.observe("deposit", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(position))
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user, err := parseAccount("user", req.User)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseMint("mint", req.Mint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	receiver, err := parseReceiver(req.Receiver)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	position, err := s.engine.BorrowCrossChain(user, mint, amount, req.DestChain, receiver)
	s.observe("borrow", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(position))
}

func (s *Server) handleRepay(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user, err := parseAccount("user", req.User)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseMint("mint", req.Mint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	position, err := s.engine.Repay(user, mint, amount)
	s.observe("repay", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(position))
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	user, err := parseAccount("user", req.User)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	mint, err := parseMint("mint", req.Mint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	position, err := s.engine.Withdraw(user, mint, amount)
	s.observe("withdraw", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(position))
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	liquidator, err := parseAccount("liquidator", req.Liquidator)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	borrower, err := parseAccount("borrower", req.Borrower)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	debtMint, err := parseMint("debtMint", req.DebtMint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	collateralMint, err := parseMint("collateralMint", req.CollateralMint)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	debtAmount, err := parseAmount("debtAmount", req.DebtAmount)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	position, err := s.engine.Liquidate(liquidator, borrower, debtMint, collateralMint, debtAmount)
	s.observe("liquidate", err)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.Liquidations.Inc()
	}
	writeJSON(w, http.StatusOK, positionView(position))
}

func (s *Server) handleReceiveMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	payload, err := parsePayload(req.Payload)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	msg, err := s.engine.ReceiveMessage(payload)
	s.observe("receive_message", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageView(msg))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseAccount("caller", req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.engine.Pause(caller)
	s.observe("pause", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := parseAccount("caller", req.Caller)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	err = s.engine.Unpause(caller)
	s.observe("unpause", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}
