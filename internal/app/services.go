package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/odyssey-b2b/internal/ar"
	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/delivery"
	"github.com/odyssey-erp/odyssey-b2b/internal/delivery/export"
	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-b2b/internal/numbering"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/storage"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/quotations"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
	"github.com/odyssey-erp/odyssey-b2b/report"
)

// ServiceDeps are the shared resources the document services are built on.
type ServiceDeps struct {
	Config  *Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Queue   delivery.TaskQueue
	Metrics shared.DocumentRecorder
}

// Services holds the wired document services.
type Services struct {
	Products   *products.Service
	Dealers    *dealers.Service
	Cart       *cart.Service
	Orders     *orders.Service
	Quotations *quotations.Service
	Delivery   *delivery.Service
	Invoices   *ar.Service
	Storage    storage.Storage
	Gotenberg  *report.Client
}

// NewServices wires every document service from deps and the configured
// numbering, cart and storage backends.
func NewServices(ctx context.Context, deps ServiceDeps) (*Services, error) {
	cfg := deps.Config
	numbers, err := newNumbering(cfg, deps.Pool, deps.Redis)
	if err != nil {
		return nil, err
	}
	cartStore, err := newCartStore(cfg, deps.Redis)
	if err != nil {
		return nil, err
	}
	store, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	productSvc := products.NewService(products.NewRepository(deps.Pool))
	dealerSvc := dealers.NewService(dealers.NewRepository(deps.Pool))
	cartSvc := cart.NewService(cartStore, productSvc, dealerSvc)

	orderSvc := orders.NewService(orders.NewRepository(deps.Pool), cartSvc, dealerSvc, numbers, deps.Logger).
		WithMetrics(deps.Metrics)
	if deps.Redis != nil {
		orderSvc.WithIdempotency(shared.NewIdempotencyStore(deps.Redis, cfg.IdempotencyTTL))
	}

	quotationSvc := quotations.NewService(quotations.NewRepository(deps.Pool), productSvc, dealerSvc, numbers, deps.Logger).
		WithMetrics(deps.Metrics)

	gotenberg := report.NewClient(cfg.GotenbergURL)
	renderer, err := export.NewNoteRenderer(gotenberg, language.English)
	if err != nil {
		return nil, fmt.Errorf("delivery note renderer: %w", err)
	}
	deliverySvc := delivery.NewService(delivery.NewRepository(deps.Pool), numbers, deps.Logger).
		WithMetrics(deps.Metrics).
		WithRendering(orderSvc, dealerSvc, renderer, store)
	if deps.Queue != nil {
		deliverySvc.WithQueue(deps.Queue, cfg.InvoiceAutoGenerate)
	}

	invoiceSvc := ar.NewService(ar.NewRepository(deps.Pool), dealerSvc, numbers, deps.Logger).
		WithMetrics(deps.Metrics).
		WithDefaultTaxRate(cfg.InvoiceDefaultTaxRate)

	return &Services{
		Products:   productSvc,
		Dealers:    dealerSvc,
		Cart:       cartSvc,
		Orders:     orderSvc,
		Quotations: quotationSvc,
		Delivery:   deliverySvc,
		Invoices:   invoiceSvc,
		Storage:    store,
		Gotenberg:  gotenberg,
	}, nil
}

func newNumbering(cfg *Config, pool *pgxpool.Pool, client *redis.Client) (*numbering.Service, error) {
	switch cfg.NumberingBackend {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis numbering backend needs a redis client")
		}
		return numbering.NewService(numbering.NewRedisSequencer(client)), nil
	default:
		return numbering.NewService(numbering.NewPostgresSequencer(pool)), nil
	}
}

func newCartStore(cfg *Config, client *redis.Client) (cart.Store, error) {
	switch cfg.CartBackend {
	case "memory":
		return cart.NewMemoryStore(), nil
	default:
		if client == nil {
			return nil, fmt.Errorf("redis cart backend needs a redis client")
		}
		return cart.NewRedisStore(client, cfg.CartTTL), nil
	}
}

// NewStorage opens the configured document storage driver.
func NewStorage(ctx context.Context, cfg *Config) (storage.Storage, error) {
	if cfg.StorageDriver != "s3" {
		local, err := storage.NewLocal(cfg.StorageLocalDir, cfg.StoragePublicURL)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	publicURL := cfg.StoragePublicURL
	if strings.HasPrefix(publicURL, "/") {
		publicURL = ""
	}
	s3, err := storage.NewS3(ctx, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PathStyle: cfg.S3PathStyle,
		PublicURL: publicURL,
	})
	if err != nil {
		return nil, err
	}
	return s3, nil
}
