package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/komercia/storefront/internal/di"
	"github.com/komercia/storefront/internal/handlers"
	"github.com/komercia/storefront/internal/payments"
	"github.com/komercia/storefront/internal/platform/auth"
	"github.com/komercia/storefront/internal/platform/config"
	"github.com/komercia/storefront/internal/platform/idempotency"
	"github.com/komercia/storefront/internal/platform/jobs"
	"github.com/komercia/storefront/internal/platform/observability"
	"github.com/komercia/storefront/internal/platform/secrets"
	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories"
	"github.com/komercia/storefront/internal/repositories/blob"
	"github.com/komercia/storefront/internal/repositories/memory"
	rediscart "github.com/komercia/storefront/internal/repositories/redis"
	"github.com/komercia/storefront/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()
	logger := baseLogger.Named("api")

	fetcher, err := secrets.NewFetcher(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(os.Getenv("GOOGLE_CLOUD_PROJECT")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(fetcher),
		config.WithRequiredSecrets("Wompi.IntegrityKey", "Admin.SecretKey"),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	var closers []func(context.Context) error

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise blob store", zap.Error(err))
	}
	if gcs, ok := blobs.(*storage.GCSBlobStore); ok {
		closers = append(closers, func(context.Context) error { return gcs.Close() })
	} else {
		logger.Warn("storage bucket not configured; using in-memory blobs")
	}
	checks := []repositories.DependencyCheck{{Name: "storage", Check: blobs.Ping, Critical: true}}

	catalogRepo, err := blob.NewCatalogRepository(blobs, cfg.Storage.DataPrefix)
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}
	companyRepo, err := blob.NewCompanyRepository(blobs, cfg.Storage.DataPrefix)
	if err != nil {
		logger.Fatal("failed to initialise company repository", zap.Error(err))
	}

	var (
		cartStorage      repositories.CartStorage = memory.NewCartStorage()
		idempotencyStore idempotency.Store        = idempotency.NewMemoryStore()
	)
	if url := strings.TrimSpace(cfg.Cart.RedisURL); url != "" {
		opts, err := goredis.ParseURL(url)
		if err != nil {
			logger.Fatal("invalid cart redis url", zap.Error(err))
		}
		client := goredis.NewClient(opts)
		closers = append(closers, func(context.Context) error { return client.Close() })
		checks = append(checks, repositories.DependencyCheck{
			Name:     "redis",
			Critical: true,
			Check:    func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
		if cartStorage, err = rediscart.NewCartStorage(client, cfg.Cart.TTL); err != nil {
			logger.Fatal("failed to initialise redis cart storage", zap.Error(err))
		}
		if idempotencyStore, err = idempotency.NewRedisStore(client); err != nil {
			logger.Fatal("failed to initialise idempotency store", zap.Error(err))
		}
	} else {
		logger.Warn("cart redis not configured; carts are kept in memory")
	}

	var publisher services.OrderEventPublisher = services.NoopOrderEventPublisher{}
	if cfg.Events.ProjectID != "" && cfg.Events.OrderTopic != "" {
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		topic := client.Topic(cfg.Events.OrderTopic)
		orderPublisher, err := jobs.NewPubSubOrderEventPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise order publisher", zap.Error(err))
		}
		publisher = orderPublisher
		closers = append(closers, func(context.Context) error {
			orderPublisher.Stop()
			return client.Close()
		})
		checks = append(checks, repositories.DependencyCheck{
			Name: "pubsub",
			Check: func(ctx context.Context) error {
				ok, err := topic.Exists(ctx)
				if err == nil && !ok {
					err = fmt.Errorf("topic %s not found", cfg.Events.OrderTopic)
				}
				return err
			},
		})
	}

	healthRepo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}
	registry, err := repositories.NewRegistry(repositories.RegistryDeps{
		Catalog: catalogRepo,
		Company: companyRepo,
		Carts:   cartStorage,
		Health:  healthRepo,
		Closers: closers,
	})
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	provider, err := payments.NewWompiProvider(payments.WompiProviderConfig{
		BaseURL:            cfg.Wompi.BaseURL,
		Timeout:            cfg.Wompi.RequestTimeout,
		BreakerMaxFailures: cfg.Wompi.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Wompi.BreakerOpenTimeout,
		Logger:             observability.EventLogger(logger.Named("wompi")),
	})
	if err != nil {
		logger.Fatal("failed to initialise wompi provider", zap.Error(err))
	}

	bridge := payments.NewWidgetBridge()
	var widget payments.WidgetAdapter = bridge
	if cfg.Checkout.Mode == config.CheckoutModeWebCheckout {
		adapter, err := payments.NewWebCheckoutAdapter(cfg.Wompi.CheckoutURL, bridge)
		if err != nil {
			logger.Fatal("failed to initialise web checkout adapter", zap.Error(err))
		}
		widget = adapter
	}

	build := services.BuildInfo{
		Version:     firstNonEmpty(os.Getenv("APP_VERSION"), "dev"),
		Environment: cfg.Environment,
		StartedAt:   startedAt,
	}
	container, err := di.NewContainer(ctx, cfg, registry, di.Ports{
		Provider:  provider,
		Widget:    widget,
		Publisher: publisher,
		Blobs:     blobs,
		Logger:    logger.Named("services"),
		Build:     build,
	})
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()
	svc := container.Services

	authenticator := auth.NewAdminAuthenticator(cfg.Admin.SecretKey,
		auth.WithSessionTTL(cfg.Admin.SessionTTL),
		auth.WithSecureCookie(cfg.IsProduction()),
	)

	publicHandlers := handlers.NewPublicHandlers(svc.Catalog, svc.Company)
	signatureHandlers := handlers.NewSignatureHandlers(svc.Signatures)
	cartHandlers := handlers.NewCartHandlers(svc.Carts)
	checkoutHandlers := handlers.NewCheckoutHandlers(svc.Checkout, bridge,
		handlers.WithPaymentWindow(cfg.Checkout.PaymentTimeout),
	)
	confirmationHandlers := handlers.NewConfirmationHandlers(svc.Confirmations)
	adminHandlers := handlers.NewAdminHandlers(authenticator,
		handlers.WithAdminCatalog(svc.Catalog),
		handlers.WithAdminCompany(svc.Company),
		handlers.WithAdminUploads(svc.Uploads),
		handlers.WithLoginRateLimit(cfg.Admin.LoginPerMinute),
		handlers.WithAdminMiddlewares(idempotency.Middleware(idempotencyStore)),
	)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(build),
		handlers.WithHealthSystemService(svc.System),
	)

	httpLogger := logger.Named("http")
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Observability.ProjectID),
			observability.InjectLoggerMiddleware(httpLogger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(httpLogger),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithSignatureRoutes(signatureHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithConfirmationRoutes(confirmationHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
		handlers.WithSessionMiddlewares(handlers.CartSessionMiddleware(cfg.IsProduction())),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := httpLogger.With(zap.String("addr", server.Addr), zap.String("environment", cfg.Environment))
	go func() {
		serverLogger.Info("storefront api listening", zap.String("checkout_mode", cfg.Checkout.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return storage.NewMemoryBlobStore(cfg.Storage.PublicBaseURL), nil
	}
	gcs, err := storage.NewGCSBlobStore(ctx, storage.GCSConfig{
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		EmulatorHost:  cfg.Storage.EmulatorHost,
	})
	if err != nil {
		return nil, err
	}
	return gcs, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
