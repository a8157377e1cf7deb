package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	grpcAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/grpc"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/handler"
	natsAdapter "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/payment/mercadopago"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/cache"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/memory"
	mongoRepo "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/tracer"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/worker"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	defer func() { _ = appLogger.Sync() }()

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	appLogger.Info("Application starting...", zap.String("service_name", cfg.ServiceName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := tracer.InitTracer(cfg.ServiceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager("marketplace")
	clk := clock.System()

	// Store
	var (
		store domain.Store
		users domain.UserRepository
	)
	switch cfg.StoreDriver {
	case "memory":
		appLogger.Warn("Using in-memory store; data is lost on restart")
		store = memory.NewListingStore()
		users = memory.NewOpenUserStore()
	default:
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			appLogger.Info("Disconnecting from MongoDB...")
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		}()
		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		err = mongoClient.Ping(pingCtx, nil)
		cancelPing()
		if err != nil {
			appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
		}
		appLogger.Info("Successfully connected and pinged MongoDB.")
		db := mongoClient.Database(cfg.MongoDatabase)
		store = mongoRepo.NewListingRepository(db, appLogger)
		users = mongoRepo.NewUserRepository(db, appLogger)
	}

	// Optional collaborators stay nil interfaces when not configured so the
	// usecases fall back to their no-op implementations.
	var listingCache usecase.ListingCache
	if cfg.RedisAddress != "" {
		redisClient, err := cache.NewClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		lc := cache.NewListingCache(redisClient, cfg.ListingCacheTTL, appLogger)
		defer func() { _ = lc.Close() }()
		listingCache = lc
		appLogger.Info("Redis listing cache enabled", zap.String("addr", cfg.RedisAddress))
	}

	var publisher usecase.EventPublisher
	natsConn, err := connectNATS(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	if natsConn != nil {
		defer natsAdapter.Drain(natsConn, appLogger)
		publisher = natsAdapter.NewPublisher(natsConn, appLogger)
	}

	var photoStorage usecase.PhotoStorage
	if cfg.MinioEndpoint != "" {
		ps, err := s3.NewPhotoStorage(ctx, s3.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			UploadTTL: cfg.PhotoUploadURLTTL,
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize photo storage", zap.Error(err))
		}
		photoStorage = ps
	}

	var notifier usecase.BoostNotifier
	if cfg.MailEnabled {
		m, err := mailer.New(mailer.Options{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPEmail,
			Password: cfg.SMTPPassword,
		}, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize mailer", zap.Error(err))
		}
		notifier = m
	}

	gateway, err := mercadopago.NewGateway(mercadopago.Options{
		AccessToken:     cfg.MercadoPagoAccessToken,
		NotificationURL: cfg.PaymentNotificationURL,
		PublicBaseURL:   cfg.PublicBaseURL,
		Mock:            cfg.PaymentGatewayMock,
	}, appLogger)
	if err != nil {
		appLogger.Warn("Payment gateway unavailable, boost checkout disabled", zap.Error(err))
		gateway = &mercadopago.Gateway{}
	}

	// Usecases
	feedUC := usecase.NewFeedUsecase(store, clk, cfg.FeedDefaultLimit, metricsManager, appLogger)
	listingUC := usecase.NewListingUsecase(store, users, publisher, listingCache, clk, cfg.FreeTierActiveLimit, appLogger)
	boostUC := usecase.NewBoostUsecase(store, clk, usecase.BoostDeps{
		Users:     users,
		Publisher: publisher,
		Cache:     listingCache,
		Notifier:  notifier,
		Metrics:   metricsManager,
	}, appLogger)
	photoUC := usecase.NewPhotoUsecase(photoStorage, store, appLogger)
	checkoutUC := usecase.NewCheckoutUsecase(gateway, store, boostUC, appLogger)

	if natsConn != nil {
		sub := natsAdapter.NewSubscriber(natsConn, boostUC, appLogger)
		if err := sub.Start(); err != nil {
			appLogger.Fatal("Failed to subscribe to boost payments", zap.Error(err))
		}
		defer sub.Stop()
	}

	// HTTP
	var verify handler.SignatureVerifier
	if cfg.MercadoPagoWebhookSecret != "" {
		secret := cfg.MercadoPagoWebhookSecret
		verify = func(signature, requestID, dataID string) error {
			return mercadopago.VerifySignature(secret, signature, requestID, dataID, clk.Now())
		}
	}
	router := handler.NewRouter(handler.RouterDeps{
		Listings:  handler.NewListingHandler(feedUC, listingUC, photoUC, clk, appLogger),
		Boosts:    handler.NewBoostHandler(checkoutUC, boostUC, appLogger),
		Payments:  handler.NewPaymentHandler(checkoutUC, verify, appLogger),
		JWTSecret: cfg.JWTSecret,
		Metrics:   metricsManager,
		Logger:    appLogger,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcLis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}
	grpcSrv := grpcAdapter.NewServer(cfg.ServiceName, appLogger)
	metricsSrv := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, metricsManager.Registry)

	var wg sync.WaitGroup
	fail := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		appLogger.Info("HTTP server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(grpcLis); err != nil {
			fail <- err
		}
	}()
	go func() {
		if err := metrics.StartMetricsServer(metricsSrv, appLogger); err != nil {
			appLogger.Error("Prometheus metrics server failed", zap.Error(err))
		}
	}()

	sweeper := worker.NewBoostSweeper(boostUC, cfg.BoostSweepInterval, cfg.BoostSweepTimeout, appLogger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("Received shutdown signal")
	case err := <-fail:
		appLogger.Error("Server failed, shutting down", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	grpcSrv.Stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	wg.Wait()
	appLogger.Info("Application stopped.")
}

func connectNATS(cfg *config.Config, appLogger *logger.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		appLogger.Info("NATS_URL not set, events are not published")
		return nil, nil
	}
	return natsAdapter.Connect(cfg.NATSURL, cfg.ServiceName, appLogger)
}
