package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edudefi-go-api/internal/config"
	"github.com/noah-isme/edudefi-go-api/internal/database"
	"github.com/noah-isme/edudefi-go-api/internal/handler"
	"github.com/noah-isme/edudefi-go-api/internal/middleware"
	"github.com/noah-isme/edudefi-go-api/internal/observability"
	"github.com/noah-isme/edudefi-go-api/internal/repository"
	"github.com/noah-isme/edudefi-go-api/internal/router"
	"github.com/noah-isme/edudefi-go-api/internal/service"
	cloud "github.com/noah-isme/edudefi-go-api/pkg/cloudinary"
	"github.com/noah-isme/edudefi-go-api/pkg/sui"
	"github.com/noah-isme/edudefi-go-api/pkg/walrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("network", cfg.ActiveNetwork).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; session cache and events stay in-process")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	network := cfg.Network()
	ledger, err := sui.NewClient(sui.Config{
		RPCURL:   network.RPCURL,
		Timeout:  cfg.RPCTimeout,
		Observer: observability.ObserveLedgerCall,
	})
	if err != nil {
		log.Fatalf("failed to create ledger client: %v", err)
	}

	store, err := documentStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create document store: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	settings := service.LedgerSettings{PackageID: network.PackageID, RegistryID: network.RegistryID}

	demoRepo := repository.NewDemoSessionRepository(db)
	recordRepo := repository.NewTransactionRecordRepository(db)
	documentRepo := repository.NewContractDocumentRepository(db)

	materializer := service.NewObjectMaterializer(ledger, settings.PackageID, logger)
	walker := service.NewRegistryWalker(ledger, service.RegistryWalkerConfig{PageLimit: cfg.PageLimit, Fanout: cfg.RegistryFanout}, logger)
	resolver := service.NewProfileResolver(ledger, materializer, settings.PackageID, logger)
	executor := service.NewTransactionExecutor(ledger, service.ExecutorConfig{PollInterval: cfg.PollInterval, ConfirmTimeout: cfg.ConfirmTimeout}, logger)

	bus := service.NewTransactionEventBus(redisClient, natsConn, cfg.EventChannel, logger)
	recorder := service.NewTransactionRecorder(recordRepo, bus, logger)
	sessions := service.NewProfileSessionService(resolver, walker, materializer, settings.RegistryID, bus, redisClient, cfg.SessionCacheTTL, logger)
	marketplace := service.NewMarketplaceService(walker, materializer, settings.RegistryID, cfg.RegistryFanout, logger)
	documents := service.NewDocumentService(store, documentRepo, cfg.UploadMaxMB, logger)
	transactions := service.NewTransactionService(settings, executor, recorder, materializer, documents, validate, logger)

	var signers service.SignerProvider
	if cfg.SignerURL != "" {
		remote, err := sui.NewRemoteSigner(sui.RemoteSignerConfig{BaseURL: cfg.SignerURL, Timeout: cfg.SignerTimeout})
		if err != nil {
			log.Fatalf("failed to create remote signer: %v", err)
		}
		signers = service.NewRemoteSignerProvider(remote)
	}
	lifecycle := service.NewLifecycleService(demoRepo, settings, executor, recorder, materializer, signers, validate, logger)

	sessions.Start(ctx)
	bus.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		MarketplaceHandler: handler.NewMarketplaceHandler(marketplace, logger),
		ProfileHandler:     handler.NewProfileHandler(sessions, logger),
		TransactionHandler: handler.NewTransactionHandler(transactions, logger),
		DocumentHandler:    handler.NewDocumentHandler(documents, logger),
		DemoHandler:        handler.NewDemoHandler(lifecycle, logger),
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("package_id", network.PackageID).Msg("api listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func documentStore(cfg config.Config, logger zerolog.Logger) (service.DocumentStore, error) {
	if cfg.DocumentStore == config.DocumentStoreCloudinary {
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
	}
	return walrus.New(walrus.Config{
		PublisherURL:  cfg.WalrusPublisherURL,
		AggregatorURL: cfg.WalrusAggregatorURL,
		Epochs:        cfg.WalrusEpochs,
		Timeout:       cfg.RPCTimeout,
	}, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
