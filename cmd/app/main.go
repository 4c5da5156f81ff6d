package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-activation/internal/config"
	"checkout-activation/internal/domain/ports/adapter"
	"checkout-activation/internal/domain/ports/repository"
	"checkout-activation/internal/infra/api"
	"checkout-activation/internal/infra/backend"
	pg "checkout-activation/internal/infra/db/postgres"
	gw "checkout-activation/internal/infra/gateway"
	"checkout-activation/internal/infra/logging"
	"checkout-activation/internal/infra/metrics"
	red "checkout-activation/internal/infra/redis"
	"checkout-activation/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (noop gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Redis (account state slot) ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	store := red.NewAccountStore(redisClient, cfg.Redis.Prefix, cfg.Redis.TTL)

	// ---- Postgres audit trail (optional) ----
	var events repository.CheckoutEventRepository
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		events = pg.NewCheckoutEventRepo(pool)
	} else {
		logger.Warn().Msg("database.url not set; checkout audit trail disabled")
	}

	// ---- Backend REST client ----
	bc := backend.NewClient(cfg.Backend, logger)

	// ---- Gateway loader ----
	ps := cfg.Gateway.Paystack
	loader := gw.NewLoader(func(ctx context.Context) (adapter.CheckoutGateway, error) {
		if cfg.Runtime.Dev {
			return gw.NewNoopGateway(), nil
		}
		g, err := gw.NewPaystackGateway(ps.PublicKey, ps.SecretKey, ps.CallbackURL)
		if err != nil {
			return nil, err
		}
		if err := g.Ping(ctx); err != nil {
			return nil, err
		}
		return g, nil
	}, logger)
	if err := loader.EnsureLoaded(ctx); err != nil {
		// Payment initiation stays blocked while the gateway is not ready;
		// the API reports a loading state instead of failing hard.
		logger.Warn().Err(err).Msg("gateway not ready at startup")
	}
	defer loader.Teardown()

	// ---- Use cases ----
	sessionUC := usecase.NewSessionUseCase(loader, events, ps.Channels, ps.Label, logger)
	activationUC := usecase.NewActivationUseCase(bc, store, events, cfg.Checkout.ConfirmTimeout, logger)
	checkoutUC := usecase.NewCheckoutUseCase(sessionUC, bc, activationUC, store, events,
		cfg.Checkout.SettleDelay, cfg.Checkout.RedirectURL, cfg.Checkout.PackagePickURL, logger)

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Server.SessionSecret, cfg.Server.SessionTTL)
	srv := api.NewServer(checkoutUC, sessionUC, events, auth, cfg.Server.APIKey, logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("checkout API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutting down")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := httpSrv.Shutdown(shCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
