package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/gateway"
	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/discovery"
	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/ledger"
	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/notify"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := newLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Storefront stopped with error", zap.Error(err))
	}
	logger.Info("Storefront stopped")
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}
	return zc.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize MongoDB
	mongo, err := repository.NewMongoRepository(ctx, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongo.Close(closeCtx)
	}()
	if err := mongo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	// Initialize Redis
	redis := repository.NewRedisRepository(&cfg.Redis)
	defer redis.Close()
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("Redis unreachable, payment locks and settings cache degrade", zap.Error(err))
	}

	razorpay, err := payment.NewRazorpayClient(&cfg.Razorpay)
	if err != nil {
		return err
	}
	images, err := media.NewUploader(&cfg.Cloudinary)
	if err != nil {
		return err
	}

	var pusher service.Pusher = notify.Nop{}
	if cfg.Firebase.ProjectID != "" {
		fcm, err := notify.NewFCMPusher(ctx, &cfg.Firebase)
		if err != nil {
			logger.Warn("Push notifications disabled", zap.Error(err))
		} else {
			pusher = fcm
		}
	}

	var publisher service.EventPublisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic)
		defer kp.Close()
		publisher = kp
	}

	var payments service.Ledger = ledger.Nop{}
	if cfg.MySQL.Enabled() {
		gl, err := ledger.NewGormLedger(&cfg.MySQL)
		if err != nil {
			return fmt.Errorf("failed to open payment ledger: %w", err)
		}
		defer gl.Close()
		payments = gl
	}

	orders := repository.NewOrderRepository(mongo)
	paymentRecords := repository.NewPaymentRepository(mongo)
	admins := repository.NewAdminRepository(mongo)
	users := repository.NewMobileUserRepository(mongo)
	catalog := repository.NewCatalogRepository(mongo)
	content := repository.NewContentRepository(mongo)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	notifier := service.NewNotifier(users, admins, pusher, logger)

	svc := gateway.Services{
		Accounts: service.NewAccountService(admins, users, images, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost), cfg.Auth.MinPassword, logger),
		Catalog:  service.NewCatalogService(catalog, orders, images, cfg.Limits, mongo, logger),
		Orders:   service.NewOrderService(orders, users, notifier, publisher, mongo, logger),
		Payments: service.NewPaymentService(service.PaymentDeps{
			Users:     users,
			Payments:  paymentRecords,
			Orders:    orders,
			Gateway:   razorpay,
			Locker:    redis,
			Ledger:    payments,
			Notifier:  notifier,
			Publisher: publisher,
			Audit:     mongo,
			Currency:  cfg.Razorpay.Currency,
		}, logger),
		Customers: service.NewCustomerService(repository.NewCustomerRepository(mongo), logger),
		Content:   service.NewContentService(content, admins, redis, images, logger),
		Tokens:    tokens,
		Audit:     mongo,
		Health:    mongo.Ping,
	}
	gw := gateway.NewGateway(cfg, logger, svc)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Setup service discovery
	instance := &discovery.ServiceInstance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Server.Port}
	var sd *discovery.ServiceDiscovery
	if len(cfg.Etcd.Endpoints) > 0 {
		sd, err = discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			defer sd.Close()
			if err := sd.Register(ctx, instance); err != nil {
				logger.Warn("Failed to register service", zap.Error(err))
			}
		}
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-srvErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Warn("Failed to deregister service", zap.Error(err))
		}
	}
	return server.Shutdown(shutdownCtx)
}
