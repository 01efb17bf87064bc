package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/cart"
	"github.com/patelashutosh/bloom-store/internal/cart/snapshot"
	"github.com/patelashutosh/bloom-store/internal/catalog"
	"github.com/patelashutosh/bloom-store/internal/config"
	ordersgrpc "github.com/patelashutosh/bloom-store/internal/grpc"
	h "github.com/patelashutosh/bloom-store/internal/http"
	"github.com/patelashutosh/bloom-store/internal/identity"
	"github.com/patelashutosh/bloom-store/internal/notifier"
	"github.com/patelashutosh/bloom-store/internal/payment"
	"github.com/patelashutosh/bloom-store/internal/publisher"
	"github.com/patelashutosh/bloom-store/internal/repository"
	"github.com/patelashutosh/bloom-store/internal/service"
	"github.com/patelashutosh/bloom-store/pkg/logger"
	"github.com/patelashutosh/bloom-store/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	shutdownTracing, err := telemetry.Setup(context.Background(), telemetry.Config{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Insecure:     cfg.Tracing.Insecure,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	zl.Info("storefront starting...")
	var wg sync.WaitGroup

	// Orders database
	creds := &repository.Credentials{
		Host:              cfg.Postgres.Host,
		Port:              cfg.Postgres.Port,
		User:              cfg.Postgres.User,
		Password:          cfg.Postgres.Password,
		DBName:            cfg.Postgres.DBName,
		MigrationsDirPath: cfg.Postgres.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	zl.Info("database migrations completed")

	// Catalog
	catalogRepo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer catalogRepo.Close()

	if err := catalogRepo.RunMigrations(cfg.Catalog.MigrationsPath); err != nil {
		log.Fatalf("Failed to run catalog migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	catalogService := catalog.NewService(catalogRepo, catalog.NewRedisCache(rdb, cfg.Catalog.CacheTTL), zl.Named("catalog"))

	// Cart snapshots
	snapshots, closeSnapshots := openSnapshots(cfg, rdb)
	defer closeSnapshots()

	// Checkout and order queries
	gateway := payment.NewBreakerGateway(
		payment.NewSimulator(payment.RandomRoller{}, cfg.Payment.ApprovalPercent),
		cfg.Payment.Timeout,
		zl.Named("payment"),
	)
	checkout := service.NewCheckoutService(repo, gateway, catalogService)
	queries := service.NewOrderQueries(repo)
	auth := identity.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())

	// Outbox relay
	writer := publisher.NewKafkaWriter(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
	defer writer.Close()
	poller := publisher.NewOutboxPoller(repo, writer, cfg.Kafka.OutboxInterval, cfg.Kafka.OutboxBatch, zl.Named("outbox"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(backgroundCtx)
	}()

	// Confirmation notifier
	reader := notifier.NewKafkaReader(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Brokers...)
	consumer := notifier.NewConsumer(reader, notifier.LogMailer{Log: zl.Named("mailer")}, zl.Named("notifier"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer consumer.Close()
		consumer.Run(backgroundCtx)
	}()

	// gRPC server
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer, grpcHealth := ordersgrpc.NewServer(zl.Named("grpc"), auth, queries)
	go func() {
		zl.Info("gRPC server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// HTTP server
	router := h.NewRouter(h.RouterConfig{
		Logger:         zl.Named("http"),
		Auth:           auth,
		Catalog:        catalogService,
		Snapshots:      snapshots,
		Checkout:       checkout,
		Orders:         queries,
		RequestTimeout: cfg.RequestTimeout,
		Health: map[string]h.HealthCheck{
			"postgres": func(context.Context) error { return repo.Ping() },
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("HTTP server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down storefront...")
	grpcHealth.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	backgroundCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		zl.Info("background workers stopped cleanly")
	case <-ctx.Done():
		zl.Warn("background workers did not stop in time")
	}

	if err := shutdownTracing(ctx); err != nil {
		zl.Warn("failed to flush traces", zap.Error(err))
	}

	zl.Info("storefront exited")
}

func openSnapshots(cfg config.Config, rdb *redis.Client) (cart.SnapshotStore, func()) {
	if cfg.Cart.SnapshotBackend != "mongo" {
		return snapshot.NewRedisStore(rdb, cfg.Cart.SnapshotTTL), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := snapshot.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	store := snapshot.NewMongoStore(db)
	if err := store.CreateIndexes(ctx, cfg.Cart.SnapshotTTL); err != nil {
		log.Fatalf("Failed to create cart snapshot indexes: %v", err)
	}

	return store, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Client().Disconnect(ctx)
	}
}
