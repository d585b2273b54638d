package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/komercia/storefront/internal/payments"
	"github.com/komercia/storefront/internal/platform/config"
	"github.com/komercia/storefront/internal/platform/observability"
	"github.com/komercia/storefront/internal/platform/storage"
	"github.com/komercia/storefront/internal/repositories"
	"github.com/komercia/storefront/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Signatures    services.SignatureService
	Carts         services.CartStoreFactory
	Checkout      services.CheckoutService
	Confirmations services.ConfirmationService
	Catalog       services.CatalogService
	Company       services.CompanyService
	Uploads       services.UploadService
	System        services.SystemService
}

// Ports carries the outbound adapters that are not repositories.
type Ports struct {
	Provider  payments.Provider
	Widget    payments.WidgetAdapter
	Publisher services.OrderEventPublisher
	Blobs     storage.BlobStore
	Logger    *zap.Logger
	Build     services.BuildInfo
	Clock     func() time.Time
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Tests can supply in-memory registries and stub ports.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, ports Ports) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}
	switch {
	case ports.Provider == nil:
		return nil, errors.New("payment provider is required")
	case ports.Widget == nil:
		return nil, errors.New("payment widget adapter is required")
	case ports.Blobs == nil:
		return nil, errors.New("blob store is required")
	}

	svc, err := buildServices(ctx, reg, cfg, ports)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients and publishers.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, ports Ports) (Services, error) {
	var svc Services
	clock := ports.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := observability.EventLogger(ports.Logger)

	svc.Signatures = services.NewSignatureService(services.SignatureServiceDeps{
		Signer: payments.NewIntegritySigner(cfg.Wompi.IntegrityKey),
		Logger: logger,
	})

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: reg.Catalog(),
		Images:  ports.Blobs,
		Logger:  logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	companySvc, err := services.NewCompanyService(services.CompanyServiceDeps{
		Company: reg.Company(),
		Logger:  logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build company service: %w", err)
	}
	svc.Company = companySvc

	uploadSvc, err := services.NewUploadService(services.UploadServiceDeps{
		Blobs:  ports.Blobs,
		Logger: logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build upload service: %w", err)
	}
	svc.Uploads = uploadSvc

	carts, err := services.NewCartStoreFactory(services.CartStoreFactoryDeps{
		Storage:  reg.Carts(),
		Products: catalogSvc,
		Logger:   logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart store: %w", err)
	}
	svc.Carts = carts

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:        carts,
		Signatures:   svc.Signatures,
		Widget:       ports.Widget,
		PublicKey:    cfg.Wompi.PublicKey,
		PublicOrigin: cfg.Server.PublicOrigin,
		Clock:        clock,
		Logger:       logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	confirmationSvc, err := services.NewConfirmationService(services.ConfirmationServiceDeps{
		Provider:   ports.Provider,
		Carts:      carts,
		References: checkoutSvc,
		Publisher:  ports.Publisher,
		Clock:      clock,
		Logger:     logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build confirmation service: %w", err)
	}
	svc.Confirmations = confirmationSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		build := ports.Build
		if build.Environment == "" {
			build.Environment = cfg.Environment
		}
		if build.StartedAt.IsZero() {
			build.StartedAt = clock().UTC()
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            clock,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}
