package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tvl_engine/internal/app/service"
	cg_client "tvl_engine/internal/client"
	"tvl_engine/internal/domain/entity"
	"tvl_engine/internal/infrastructure/configloader"
	evmclient "tvl_engine/internal/infrastructure/network/client"
	networkdefinition "tvl_engine/internal/infrastructure/network/definition"
	"tvl_engine/internal/infrastructure/restapi"
	"tvl_engine/internal/pkg/logger"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultConfigPath = "config/config.yml"

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := configloader.Load(cfgPath)
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.String("path", cfgPath), zap.Error(err))
	}

	slogHandler := slogzap.Option{
		Level:  logger.ParseLevel(cfg.Logging.Level),
		Logger: zapLogger,
	}.NewZapHandler()
	slog.SetDefault(slog.New(slogHandler))
	appLogger := logger.NewSlogAdapter()
	appLogger.Info("TVL engine starting", "config", cfgPath)

	ledgerProvider := networkdefinition.NewLedgerDefinitionProvider(cfg, appLogger)

	connectTimeout := durationSeconds(cfg.Pipeline.ConnectTimeoutSeconds, 10)
	rpcTimeout := durationSeconds(cfg.Pipeline.RPCCallTimeoutSeconds, 15)
	batchCaller := evmclient.NewEVMBatchCaller(
		ledgerProvider.GetAllLedgerDefinitions(),
		appLogger,
		connectTimeout,
		rpcTimeout,
	)

	cgTimeout := time.Duration(cfg.CoinGecko.RequestTimeoutMillis) * time.Millisecond
	if cgTimeout <= 0 {
		cgTimeout = 10 * time.Second
	}
	cacheTTL := time.Duration(cfg.CoinGecko.CacheTTLMinutes) * time.Minute
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	priceClient := cg_client.NewCoinGeckoClient(
		cfg.CoinGecko.BaseURL,
		cfg.CoinGecko.APIKey,
		cgTimeout,
		zapLogger,
		cfg.CoinGecko.MaxTargetsPerRequest,
		cacheTTL,
	)
	appLogger.Info("CoinGecko client initialized", "baseURL", cfg.CoinGecko.BaseURL)

	tvlService := service.NewTVLService(
		batchCaller,
		priceClient,
		ledgerProvider,
		appLogger,
		cfg.Pipeline.MaxConcurrentTokens,
	)
	appLogger.Info("TVLService initialized")

	lockGate := entity.NopGate
	if cfg.CoinGecko.RateLimitPerSecond > 0 {
		burst := cfg.CoinGecko.RateLimitBurst
		if burst <= 0 {
			burst = cfg.CoinGecko.RateLimitPerSecond
		}
		lockGate = entity.GateFromLimiter(rate.NewLimiter(rate.Limit(cfg.CoinGecko.RateLimitPerSecond), burst))
		appLogger.Info("Price request gate enabled",
			"perSecond", cfg.CoinGecko.RateLimitPerSecond, "burst", burst)
	}

	tvlHandler := restapi.NewTVLHandler(tvlService, lockGate, appLogger)
	router := restapi.SetupRouter(tvlHandler)

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		appLogger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	appLogger.Info("Server stopped")
}

func durationSeconds(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
