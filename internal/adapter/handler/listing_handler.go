package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/clock"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

// ListingHandler serves the public feed and the seller's listing operations.
type ListingHandler struct {
	feed     FeedService
	listings ListingService
	photos   PhotoService
	clock    clock.Clock
	logger   *logger.Logger
}

func NewListingHandler(feed FeedService, listings ListingService, photos PhotoService, clk clock.Clock, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		feed:     feed,
		listings: listings,
		photos:   photos,
		clock:    clk,
		logger:   log.Named("ListingHandler"),
	}
}

// HandleFeed serves GET /api/listings?category=&area=&search=&sortBy=&limit=
func (h *ListingHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.FeedFilter{
		Category:   q.Get("category"),
		Area:       q.Get("area"),
		SearchText: q.Get("search"),
		SortBy:     domain.ParseSortBy(q.Get("sortBy")),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"}, h.logger)
			return
		}
		f.Limit = &n
	}

	listings, err := h.feed.QueryFeed(r.Context(), f)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings, h.clock.Now()), h.logger)
}

func (h *ListingHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l, h.clock.Now()), h.logger)
}

func (h *ListingHandler) HandleIncrementView(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.IncrementView(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) HandleListBySeller(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListBySeller(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings, h.clock.Now()), h.logger)
}

type createListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Story       string   `json:"story"`
	Price       int64    `json:"price"`
	Category    string   `json:"category"`
	Area        string   `json:"area"`
	Condition   string   `json:"condition"`
	Photos      []string `json:"photos"`
}

func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	l, err := h.listings.CreateListing(r.Context(), actorFrom(r).UserID, domain.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Story:       req.Story,
		Price:       req.Price,
		Category:    req.Category,
		Area:        req.Area,
		Condition:   req.Condition,
		Photos:      req.Photos,
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(l, h.clock.Now()), h.logger)
}

type updateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Story       *string  `json:"story"`
	Price       *int64   `json:"price"`
	Category    *string  `json:"category"`
	Area        *string  `json:"area"`
	Condition   *string  `json:"condition"`
	Photos      []string `json:"photos"`
}

func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	var req updateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	l, err := h.listings.UpdateListing(r.Context(), actorFrom(r), chi.URLParam(r, "id"), domain.ListingPatch{
		Title:       req.Title,
		Description: req.Description,
		Story:       req.Story,
		Price:       req.Price,
		Category:    req.Category,
		Area:        req.Area,
		Condition:   req.Condition,
		Photos:      req.Photos,
	})
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l, h.clock.Now()), h.logger)
}

func (h *ListingHandler) HandleMarkSold(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.MarkSold(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l, h.clock.Now()), h.logger)
}

func (h *ListingHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	l, err := h.listings.Remove(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(l, h.clock.Now()), h.logger)
}

type uploadURLRequest struct {
	ContentType string `json:"content_type"`
}

type uploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	PhotoURL  string `json:"photo_url"`
	ExpiresAt string `json:"expires_at"`
}

func (h *ListingHandler) HandlePhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	up, err := h.photos.CreateUploadURL(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.ContentType)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{
		UploadURL: up.UploadURL,
		PhotoURL:  up.PhotoURL,
		ExpiresAt: up.ExpiresAt.UTC().Format(time.RFC3339),
	}, h.logger)
}
