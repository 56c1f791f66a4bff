package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/ride-booking/internal/config"
	"github.com/example/ride-booking/internal/events"
	"github.com/example/ride-booking/internal/geocode"
	"github.com/example/ride-booking/internal/httpapi"
	"github.com/example/ride-booking/internal/lifecycle"
	"github.com/example/ride-booking/internal/logging"
	"github.com/example/ride-booking/internal/payment"
	"github.com/example/ride-booking/internal/pricing"
	"github.com/example/ride-booking/internal/rideapi"
	"github.com/example/ride-booking/internal/routing"
)

func main() {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := logging.NewLogger("ride-booking", cfg.LogLevel)

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
	}

	var routeCache routing.Cache
	if cfg.RedisAddr != "" {
		routeCache = routing.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RouteCacheTTL)
		logger.Info("using redis route cache", "addr", cfg.RedisAddr)
	} else {
		routeCache = routing.NewMemoryCache(cfg.RouteCacheTTL)
	}

	geocoder := geocode.NewClient(cfg.GeoapifyBaseURL, cfg.GeoapifyAPIKey)
	routes := routing.NewEngine(routing.NewClient(cfg.GeoapifyBaseURL, cfg.GeoapifyAPIKey), routeCache, logger)
	rides := rideapi.NewClient(cfg.RideServiceURL)
	gateway := payment.NewStripeGateway(cfg.StripeAPIKey, cfg.Currency)

	srv := httpapi.NewServer(
		logger,
		geocoder,
		routes,
		pricing.DefaultCatalog(),
		rides,
		lifecycle.NewBooker(gateway, rides, producer, logger),
		lifecycle.NewTracker(rides, routes, cfg.PollInterval, cfg.AdvanceDriver, producer, logger),
		lifecycle.NewDiscovery(rides, cfg.DiscoveryInterval, logger),
	)

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("ride-booking listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", "error", err)
	}
}
