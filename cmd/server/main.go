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

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tiendapos/internal/auth"
	"github.com/mmynk/tiendapos/internal/config"
	"github.com/mmynk/tiendapos/internal/events"
	"github.com/mmynk/tiendapos/internal/httpapi"
	"github.com/mmynk/tiendapos/internal/idempotency"
	"github.com/mmynk/tiendapos/internal/metrics"
	"github.com/mmynk/tiendapos/internal/middleware"
	"github.com/mmynk/tiendapos/internal/receipt"
	"github.com/mmynk/tiendapos/internal/sequence"
	"github.com/mmynk/tiendapos/internal/service"
	"github.com/mmynk/tiendapos/internal/storage"
	"github.com/mmynk/tiendapos/internal/storage/postgres"
	"github.com/mmynk/tiendapos/internal/storage/sqlite"
	"github.com/mmynk/tiendapos/pkg/logging"
	"github.com/mmynk/tiendapos/pkg/proto/protoconnect"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	logCloser := logging.SetupWithOptions(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []func(context.Context) error

	store, err := openStore(ctx, cfg, &checks)
	if err != nil {
		return err
	}
	defer store.Close()

	idem, closeIdem, err := openIdempotency(ctx, cfg, &checks)
	if err != nil {
		return err
	}
	defer closeIdem()

	publisher, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	tax, _ := cfg.TaxPolicy()
	loc, _ := cfg.Location()
	renderer, err := receipt.NewRenderer(receipt.Options{
		Locale:   cfg.Checkout.Locale,
		Currency: cfg.Checkout.Currency,
		Symbol:   cfg.Checkout.CurrencySymbol,
		Location: loc,
	})
	if err != nil {
		return fmt.Errorf("failed to configure receipts: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	allocator := sequence.NewAllocator(sequence.Options{MaxAttempts: cfg.Checkout.MaxAttempts})

	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())
	catalogSvc := service.NewCatalogService(store, allocator, m)
	saleSvc := service.NewSaleService(service.SaleConfig{
		Store:       store,
		Allocator:   allocator,
		Tax:         tax,
		StrictCash:  cfg.Checkout.StrictCash,
		Location:    loc,
		Receipts:    renderer,
		Idempotency: idem,
		Publisher:   publisher,
		Metrics:     m,
	})
	stockSvc := service.NewStockService(store, publisher, m)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager,
			protoconnect.AuthServiceRegisterProcedure,
			protoconnect.AuthServiceLoginProcedure,
		),
		middleware.LoggingInterceptor(),
	)

	var services []httpapi.Service
	for _, mount := range []func() (string, http.Handler){
		func() (string, http.Handler) { return protoconnect.NewAuthServiceHandler(authSvc, interceptors) },
		func() (string, http.Handler) { return protoconnect.NewCatalogServiceHandler(catalogSvc, interceptors) },
		func() (string, http.Handler) { return protoconnect.NewSaleServiceHandler(saleSvc, interceptors) },
		func() (string, http.Handler) { return protoconnect.NewStockServiceHandler(stockSvc, interceptors) },
	} {
		path, handler := mount()
		services = append(services, httpapi.Service{Path: path, Handler: handler})
	}

	router := httpapi.NewRouter(httpapi.Config{
		Services:  services,
		JWT:       jwtManager,
		Receipts:  saleSvc,
		Gatherer:  reg,
		Health:    healthCheck(checks),
		StaticDir: cfg.Server.StaticDir,
	})

	// h2c serves HTTP/2 without TLS for Connect clients.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h2c.NewHandler(router, &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Server.Addr, "storage", cfg.Storage.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, checks *[]func(context.Context) error) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Storage.Migrate {
			if err := postgres.RunMigrations(cfg.Storage.PostgresDSN); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		*checks = append(*checks, pool.Ping)
		slog.Info("Storage initialized", "driver", "postgres")
		return postgres.New(pool), nil
	default:
		store, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.Storage.SQLitePath)
		return store, nil
	}
}

// openIdempotency returns the key store and a func releasing its connection.
func openIdempotency(ctx context.Context, cfg config.Config, checks *[]func(context.Context) error) (idempotency.Store, func() error, error) {
	if cfg.Redis.Addr == "" {
		slog.Info("Idempotency keys kept in memory")
		return idempotency.NewMemoryStore(cfg.Redis.IdempotencyTTL), func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	*checks = append(*checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	slog.Info("Idempotency keys kept in redis", "addr", cfg.Redis.Addr)
	return idempotency.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL), rdb.Close, nil
}

func openPublisher(cfg config.Config) (events.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		slog.Info("Event publishing disabled")
		return events.NopPublisher{}, nil
	}
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	publisher, err := events.NewRabbitPublisher(conn, cfg.RabbitMQ.Exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	slog.Info("Publishing events", "exchange", cfg.RabbitMQ.Exchange)
	return &connClosingPublisher{RabbitPublisher: publisher, conn: conn}, nil
}

// connClosingPublisher closes the AMQP connection along with the channel.
type connClosingPublisher struct {
	*events.RabbitPublisher
	conn *amqp.Connection
}

func (p *connClosingPublisher) Close() error {
	return errors.Join(p.RabbitPublisher.Close(), p.conn.Close())
}

func healthCheck(checks []func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
