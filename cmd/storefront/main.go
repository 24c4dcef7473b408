package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/api"
	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/notify"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/backend"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/geocoding"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	serviceName     = "storefront"
	feedCapacity    = 100
	shutdownTimeout = 10 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var redisClient *redis.Client
	if cfg.Storage.Driver == config.StorageDriverRedis {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	}

	store, err := storage.Open(cfg.Storage, redisClient)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewStorefront(registry)

	sessions, err := session.NewManager(store, cfg.Storage.SessionKey, logg)
	if err != nil {
		return err
	}

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTokenSource(sessions),
		backend.WithTimeout(cfg.Backend.Timeout),
	)
	if err != nil {
		return err
	}

	geo, err := geocoding.NewClient(cfg.Geocoder.UserAgent,
		geocoding.WithBaseURL(cfg.Geocoder.BaseURL),
		geocoding.WithLanguage(cfg.Geocoder.Language),
		geocoding.WithHTTPClient(&http.Client{Timeout: cfg.Geocoder.Timeout}),
	)
	if err != nil {
		return err
	}
	resolver, err := address.NewResolver(geo, logg, recorder)
	if err != nil {
		return err
	}
	tracker, err := address.NewTracker(address.TrackerParams{
		Resolver:       resolver,
		Default:        types.GeoPoint{Lat: cfg.Geocoder.DefaultLat, Lng: cfg.Geocoder.DefaultLng},
		MinQueryLength: cfg.Geocoder.MinQueryLength,
		Debounce:       cfg.Geocoder.Debounce,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	defer tracker.Close()

	cartStore, err := cart.NewStore(cart.StoreParams{
		Backend:    backendClient,
		Storage:    store,
		CartKey:    cfg.Storage.CartKey,
		AddressKey: cfg.Storage.AddressKey,
		Logger:     logg,
		Metrics:    recorder,
	})
	if err != nil {
		return err
	}
	cartStore.Load(ctx)

	feed := notify.NewFeed(feedCapacity)

	orchestrator, err := checkout.NewOrchestrator(checkout.Params{
		Cart:          cartStore,
		Address:       tracker,
		Session:       sessions,
		Backend:       backendClient,
		Notifier:      feed,
		Logger:        logg,
		Metrics:       recorder,
		PaymentMethod: cfg.Backend.PaymentMethod,
		Country:       cfg.Checkout.Country,
		PollInterval:  cfg.Checkout.PollInterval,
		SyncTimeout:   cfg.Checkout.SyncTimeout,
	})
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	ready := map[string]controllers.Pinger{}
	if redisClient != nil {
		ready["redis"] = redisClient
	}

	server := api.NewServer(cfg, routes.NewRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Cart:          cartStore,
		Checkout:      orchestrator,
		Address:       tracker,
		Notifications: feed,
		Sessions:      sessions,
		Idempotency:   store,
		Registry:      registry,
		Ready:         ready,
	}))

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     server.Addr,
		"storage":  cfg.Storage.Driver,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting storefront api")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down storefront api")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
