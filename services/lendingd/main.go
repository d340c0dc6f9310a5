// Command lendingd runs the collateralized lending service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"openchain/core/events"
	"openchain/core/types"
	"openchain/crypto"
	"openchain/native/lending"
	"openchain/native/token"
	"openchain/observability/logging"
	"openchain/observability/metrics"
	"openchain/services/lending/server"
	"openchain/services/lendingd/config"
	"openchain/storage"
)

// logEmitter renders engine events into the structured log until a real
// subscriber bus is attached.
type logEmitter struct {
	logger *slog.Logger
}

func (e logEmitter) Emit(evt events.Event) {
	attrs := []any{"type", evt.EventType()}
	if rendered, ok := evt.(interface{ Event() *types.Event }); ok {
		for k, v := range rendered.Event().Attributes {
			attrs = append(attrs, k, v)
		}
	}
	e.logger.Info("lending event", attrs...)
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "path to the lendingd configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.SetupWithRotation("lendingd", cfg.Environment, cfg.LogRotation)

	if err := run(cfg, logger); err != nil {
		logger.Error("lendingd exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	var db storage.Database
	if cfg.DataDir == "" {
		logger.Warn("no data_dir configured, state is in-memory only")
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db = leveldb
	}
	defer db.Close()

	poolAddr, err := crypto.DecodeAddress(cfg.PoolAddress)
	if err != nil {
		return fmt.Errorf("pool_address: %w", err)
	}
	adminAddr, err := crypto.DecodeAddress(cfg.Admin)
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	bridgeAddr := crypto.Address{}
	if cfg.Bridge != "" {
		bridgeAddr, err = crypto.DecodeAddress(cfg.Bridge)
		if err != nil {
			return fmt.Errorf("bridge: %w", err)
		}
	}

	oracle := lending.NewStaticOracle()
	for _, seed := range cfg.OraclePrices {
		feed, err := crypto.DecodeAddress(seed.Feed)
		if err != nil {
			return fmt.Errorf("oracle_prices: %w", err)
		}
		oracle.SetPrice(feed, seed.Price)
	}

	lendingMetrics := metrics.NewLending()
	engine := lending.NewEngine()
	engine.SetState(lending.NewStore(db))
	engine.SetTokenLedger(token.NewLedger(db))
	engine.SetOracle(oracle)
	engine.SetBridge(lending.MeteredSender{
		Next:    lending.LogSender{Logger: logger},
		Metrics: lendingMetrics,
	})
	engine.SetEmitter(logEmitter{logger: logger})
	engine.SetLogger(logger)
	engine.SetPoolAddress(poolAddr)
	engine.SetLocalChainID(cfg.ChainID)

	if _, err := engine.PoolInfo(); err != nil {
		if _, err := engine.InitializePool(adminAddr, bridgeAddr); err != nil {
			return fmt.Errorf("initialize pool: %w", err)
		}
		logger.Info("pool initialized", "admin", adminAddr.String())
	}

	for _, seed := range cfg.Assets {
		if err := seedAsset(engine, adminAddr, seed); err != nil {
			return err
		}
	}

	srv := server.New(engine, logger, lendingMetrics, server.Config{
		AdminTokens:   cfg.AdminTokens,
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	})

	api := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsListen,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("lending api listening", "addr", cfg.Listen)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", "addr", cfg.MetricsListen)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(ctx); err != nil {
		logger.Warn("api shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		logger.Warn("metrics shutdown", "error", err)
	}
	return nil
}

func seedAsset(engine *lending.Engine, admin crypto.Address, seed config.AssetSeed) error {
	mint, err := crypto.DecodeAddress(seed.Mint)
	if err != nil {
		return fmt.Errorf("assets: mint %q: %w", seed.Mint, err)
	}
	feed, err := crypto.DecodeAddress(seed.PriceFeed)
	if err != nil {
		return fmt.Errorf("assets: price_feed %q: %w", seed.PriceFeed, err)
	}
	_, err = engine.RegisterAsset(admin, mint, lending.AssetConfig{
		PriceFeed:            feed,
		Decimals:             seed.Decimals,
		LTV:                  seed.LTV,
		LiquidationThreshold: seed.LiquidationThreshold,
		CanBeCollateral:      seed.CanBeCollateral,
		CanBeBorrowed:        seed.CanBeBorrowed,
	})
	if err != nil && !errors.Is(err, lending.ErrAssetNotSupported) {
		return fmt.Errorf("assets: register %q: %w", seed.Mint, err)
	}
	return nil
}
