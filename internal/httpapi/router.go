package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	rd "github.com/redis/go-redis/v9"

	"github.com/viveo-rs/viveo-backend/internal/auth"
	"github.com/viveo-rs/viveo-backend/internal/catalog"
	"github.com/viveo-rs/viveo-backend/internal/inventory"
	"github.com/viveo-rs/viveo-backend/internal/lifecycle"
	"github.com/viveo-rs/viveo-backend/internal/notification"
	"github.com/viveo-rs/viveo-backend/internal/orders"
	"github.com/viveo-rs/viveo-backend/internal/reviews"
	"github.com/viveo-rs/viveo-backend/internal/storage"
	"github.com/viveo-rs/viveo-backend/internal/telemetry"
)

// Deps carries everything the routes need.
type Deps struct {
	Catalog   *catalog.Repository
	Video     *orders.VideoOrderRepository
	Merch     *orders.MerchOrderRepository
	Digital   *orders.DigitalOrderRepository
	Reviews   *reviews.Repository
	Inventory inventory.Store
	Manager   *lifecycle.Manager
	Publisher *notification.Publisher
	Storage   *storage.Client
	Auth      auth.Verifier

	Redis      *rd.Client
	RateLimit  int
	RateWindow time.Duration

	Logger *slog.Logger
}

// NewRouter wires every route with its middleware chain. Public routes
// are rate limited by IP; authenticated ones by user.
func NewRouter(d Deps) http.Handler {
	celebrities := NewCelebrityHandler(d.Catalog, d.Reviews, d.Logger)
	products := NewProductHandler(d.Catalog, d.Logger)
	video := NewVideoOrderHandler(d.Video, d.Catalog, d.Publisher, d.Logger)
	merch := NewMerchOrderHandler(d.Merch, d.Catalog, d.Inventory, d.Publisher, d.Logger)
	digital := NewDigitalOrderHandler(d.Digital, d.Catalog, d.Storage, d.Publisher, d.Logger)
	reviewsH := NewReviewHandler(d.Reviews, d.Catalog, d.Publisher, d.Logger)
	dashboard := NewDashboardHandler(d.Catalog, d.Video, d.Merch, d.Digital, d.Manager, d.Storage, d.Logger)

	limit := RateLimit(d.Redis, d.RateLimit, d.RateWindow)
	authn := Authenticate(d.Auth, d.Logger)

	// Route spans are named after the match, so the wrap sits inside the
	// mux where the pattern is known.
	public := func(h http.HandlerFunc) http.Handler {
		return telemetry.WithHTTPRoute(chain(h, limit))
	}
	private := func(h http.HandlerFunc) http.Handler {
		return telemetry.WithHTTPRoute(chain(h, authn, limit))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("GET /api/celebrities", public(celebrities.HandleList))
	mux.Handle("GET /api/celebrities/{slug}", public(celebrities.HandleGet))
	mux.Handle("GET /api/celebrities/{slug}/reviews", public(celebrities.HandleReviews))
	mux.Handle("GET /api/celebrities/{slug}/products", public(products.HandleCelebrityProducts))

	mux.Handle("GET /api/products", public(products.HandleList))
	mux.Handle("GET /api/products/{slug}", public(products.HandleGet))
	mux.Handle("GET /api/digital-products", public(products.HandleDigitalList))
	mux.Handle("GET /api/digital-products/{slug}", public(products.HandleDigitalGet))

	mux.Handle("POST /api/orders", private(video.HandleCreate))
	mux.Handle("GET /api/orders", private(video.HandleList))
	mux.Handle("GET /api/orders/{id}", private(video.HandleGet))

	mux.Handle("POST /api/merch-orders", private(merch.HandleCreate))
	mux.Handle("GET /api/merch-orders", private(merch.HandleList))
	mux.Handle("GET /api/merch-orders/{id}", private(merch.HandleGet))

	mux.Handle("POST /api/digital-orders", private(digital.HandleCreate))
	mux.Handle("GET /api/digital-orders", private(digital.HandleList))
	mux.Handle("GET /api/digital-orders/{id}", private(digital.HandleGet))
	// The download token is the credential; no auth here.
	mux.Handle("GET /api/digital-orders/{id}/download", public(digital.HandleDownload))

	mux.Handle("POST /api/reviews", private(reviewsH.HandleCreate))

	mux.Handle("GET /api/dashboard/requests", private(dashboard.HandleRequests))
	mux.Handle("PATCH /api/dashboard/requests/{id}", private(dashboard.HandleRequestTransition))
	mux.Handle("POST /api/dashboard/requests/{id}/video", private(dashboard.HandleVideoUpload))
	mux.Handle("GET /api/dashboard/merch-orders", private(dashboard.HandleMerchOrders))
	mux.Handle("PATCH /api/dashboard/merch-orders/{id}", private(dashboard.HandleMerchTransition))
	mux.Handle("GET /api/dashboard/digital-orders", private(dashboard.HandleDigitalOrders))
	mux.Handle("PATCH /api/dashboard/digital-orders/{id}", private(dashboard.HandleDigitalTransition))
	mux.Handle("GET /api/dashboard/earnings", private(dashboard.HandleEarnings))
	mux.Handle("PATCH /api/dashboard/profile", private(dashboard.HandleProfileUpdate))
	mux.Handle("GET /api/dashboard/availability", private(dashboard.HandleAvailability))
	mux.Handle("PATCH /api/dashboard/availability", private(dashboard.HandleAvailabilityUpdate))

	mux.Handle("GET /api/dashboard/products", private(dashboard.HandleProducts))
	mux.Handle("POST /api/dashboard/products", private(dashboard.HandleProductCreate))
	mux.Handle("GET /api/dashboard/products/{id}", private(dashboard.HandleProductGet))
	mux.Handle("PATCH /api/dashboard/products/{id}", private(dashboard.HandleProductUpdate))
	mux.Handle("POST /api/dashboard/products/{id}/variants", private(dashboard.HandleVariantAdd))
	mux.Handle("PATCH /api/dashboard/products/{id}/variants/{vid}", private(dashboard.HandleVariantUpdate))
	mux.Handle("DELETE /api/dashboard/products/{id}/variants/{vid}", private(dashboard.HandleVariantDelete))
	mux.Handle("GET /api/dashboard/digital-products", private(dashboard.HandleDigitalProducts))
	mux.Handle("POST /api/dashboard/digital-products", private(dashboard.HandleDigitalProductCreate))
	mux.Handle("POST /api/dashboard/digital-products/{id}/file", private(dashboard.HandleDigitalFileUpload))

	return chain(mux, RequestID, AccessLog(d.Logger))
}
