package handler

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/handler/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

type RouterDeps struct {
	Listings  *ListingHandler
	Boosts    *BoostHandler
	Payments  *PaymentHandler
	JWTSecret string
	Metrics   *metrics.MetricsManager
	Logger    *logger.Logger
}

func NewRouter(d RouterDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/listings", d.Listings.HandleFeed)
	r.Get("/api/listings/{id}", d.Listings.HandleGetListing)
	r.Post("/api/listings/{id}/views", d.Listings.HandleIncrementView)
	r.Get("/api/sellers/{id}/listings", d.Listings.HandleListBySeller)
	r.Post("/api/payments/webhook", d.Payments.HandleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(d.JWTSecret, d.Logger))

		r.Post("/api/listings", d.Listings.HandleCreateListing)
		r.Patch("/api/listings/{id}", d.Listings.HandleUpdateListing)
		r.Delete("/api/listings/{id}", d.Listings.HandleRemove)
		r.Post("/api/listings/{id}/sold", d.Listings.HandleMarkSold)
		r.Post("/api/listings/{id}/photos/upload-url", d.Listings.HandlePhotoUploadURL)
		r.Post("/api/listings/{id}/boost/checkout", d.Boosts.HandleCheckout)

		r.With(middleware.RequireRole(domain.RoleAdmin)).Post("/api/admin/boosts/sweep", d.Boosts.HandleSweep)
	})

	return r
}
