package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/handler/middleware"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type FeedService interface {
	QueryFeed(ctx context.Context, f domain.FeedFilter) ([]*domain.Listing, error)
}

type ListingService interface {
	CreateListing(ctx context.Context, sellerID string, in domain.ListingInput) (*domain.Listing, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	UpdateListing(ctx context.Context, actor usecase.Actor, id string, patch domain.ListingPatch) (*domain.Listing, error)
	ListBySeller(ctx context.Context, sellerID, status string) ([]*domain.Listing, error)
	MarkSold(ctx context.Context, actor usecase.Actor, id string) (*domain.Listing, error)
	Remove(ctx context.Context, actor usecase.Actor, id string) (*domain.Listing, error)
	IncrementView(ctx context.Context, id string) error
}

type PhotoService interface {
	CreateUploadURL(ctx context.Context, actor usecase.Actor, listingID, contentType string) (*usecase.PhotoUpload, error)
}

type CheckoutService interface {
	CreateBoostCheckout(ctx context.Context, actor usecase.Actor, listingID string, hours int) (*usecase.Checkout, error)
	ConfirmPayment(ctx context.Context, paymentID string) (*domain.BoostResult, error)
}

type SweepService interface {
	ExpireBoosts(ctx context.Context) (domain.SweepResult, error)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP statuses. Internal errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, err error, log *logger.Logger) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg}, log)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrFreeTierLimit):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrListingNotActive):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(domain.ErrInvalidInput, err)
	}
	return nil
}

func actorFrom(r *http.Request) usecase.Actor {
	id, role, _ := middleware.UserFromContext(r.Context())
	return usecase.Actor{UserID: id, Role: role}
}

type listingResponse struct {
	ID            string     `json:"id"`
	SellerID      string     `json:"seller_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Story         string     `json:"story,omitempty"`
	Price         int64      `json:"price"`
	Category      string     `json:"category"`
	Area          string     `json:"area"`
	Condition     string     `json:"condition"`
	Photos        []string   `json:"photos"`
	Status        string     `json:"status"`
	Featured      bool       `json:"featured"`
	FeaturedUntil *time.Time `json:"featured_until,omitempty"`
	Boosted       bool       `json:"boosted"`
	ViewCount     int64      `json:"view_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func toListingResponse(l *domain.Listing, now time.Time) listingResponse {
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return listingResponse{
		ID:            l.ID,
		SellerID:      l.SellerID,
		Title:         l.Title,
		Description:   l.Description,
		Story:         l.Story,
		Price:         l.Price,
		Category:      l.Category,
		Area:          l.Area,
		Condition:     l.Condition,
		Photos:        photos,
		Status:        string(l.Status),
		Featured:      l.Featured,
		FeaturedUntil: l.FeaturedUntil,
		Boosted:       l.IsBoostedAt(now),
		ViewCount:     l.ViewCount,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toListingResponses(ls []*domain.Listing, now time.Time) []listingResponse {
	out := make([]listingResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingResponse(l, now))
	}
	return out
}
