package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/odyssey-b2b/internal/ar"
	"github.com/odyssey-erp/odyssey-b2b/internal/assistant"
	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/delivery"
	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-b2b/internal/observability"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/quotations"
	"github.com/odyssey-erp/odyssey-b2b/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil handlers
// leave their routes unmounted.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	ProductsHandler   *products.Handler
	DealersHandler    *dealers.Handler
	CartHandler       *cart.Handler
	OrdersHandler     *orders.Handler
	QuotationsHandler *quotations.Handler
	DeliveryHandler   *delivery.Handler
	InvoicesHandler   *ar.Handler
	AssistantHandler  *assistant.Handler
	JobHandler        *jobs.Handler

	// FilesDir serves locally stored documents under FilesPrefix when set.
	FilesDir    string
	FilesPrefix string
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
		r.Route("/dealers", func(r chi.Router) {
			if params.DealersHandler != nil {
				params.DealersHandler.MountRoutes(r)
			}
			r.Route("/{dealerID}", func(r chi.Router) {
				if params.DealersHandler != nil {
					params.DealersHandler.MountDealerRoutes(r)
				}
				if params.CartHandler != nil {
					r.Route("/cart", params.CartHandler.MountRoutes)
				}
				if params.OrdersHandler != nil {
					params.OrdersHandler.MountDealerRoutes(r)
				}
				if params.QuotationsHandler != nil {
					params.QuotationsHandler.MountDealerRoutes(r)
				}
			})
		})
		if params.QuotationsHandler != nil {
			r.Route("/quotations", params.QuotationsHandler.MountRoutes)
		}
		r.Route("/purchase-orders", func(r chi.Router) {
			if params.OrdersHandler != nil {
				params.OrdersHandler.MountRoutes(r)
			}
			if params.DeliveryHandler != nil {
				params.DeliveryHandler.MountPurchaseOrderRoutes(r)
			}
			if params.InvoicesHandler != nil {
				params.InvoicesHandler.MountPurchaseOrderRoutes(r)
			}
		})
		if params.DeliveryHandler != nil {
			r.Route("/delivery-orders", params.DeliveryHandler.MountRoutes)
		}
		if params.InvoicesHandler != nil {
			r.Route("/invoices", params.InvoicesHandler.MountRoutes)
		}
		if params.AssistantHandler != nil {
			r.Route("/assistant", params.AssistantHandler.MountRoutes)
		}
	})

	if params.FilesDir != "" && strings.HasPrefix(params.FilesPrefix, "/") {
		prefix := strings.TrimSuffix(params.FilesPrefix, "/")
		fileServer := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(params.FilesDir)))
		r.Handle(prefix+"/*", filesCacheHandler(fileServer))
	}

	return r
}

// filesCacheHandler marks stored documents as cacheable for an hour.
func filesCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
