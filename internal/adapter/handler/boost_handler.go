package handler

import (
	"net/http"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BoostHandler sells boosts and exposes the admin sweep trigger.
type BoostHandler struct {
	checkout CheckoutService
	sweeper  SweepService
	logger   *logger.Logger
}

func NewBoostHandler(checkout CheckoutService, sweeper SweepService, log *logger.Logger) *BoostHandler {
	return &BoostHandler{checkout: checkout, sweeper: sweeper, logger: log.Named("BoostHandler")}
}

type checkoutRequest struct {
	Hours int `json:"hours"`
}

type checkoutResponse struct {
	PreferenceID string `json:"preference_id"`
	CheckoutURL  string `json:"checkout_url"`
}

func (h *BoostHandler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}
	co, err := h.checkout.CreateBoostCheckout(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Hours)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{PreferenceID: co.PreferenceID, CheckoutURL: co.CheckoutURL}, h.logger)
}

type sweepResponse struct {
	Candidates int      `json:"candidates"`
	Expired    int      `json:"expired"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	ExpiredIDs []string `json:"expired_ids"`
}

// HandleSweep runs the expiry sweep now, for deployments that schedule it
// from an external cron instead of the in-process ticker.
func (h *BoostHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := h.sweeper.ExpireBoosts(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	ids := res.ExpiredIDs
	if ids == nil {
		ids = []string{}
	}
	h.logger.Info("Manual boost sweep", zap.String("by", actorFrom(r).UserID), zap.Int("expired", res.Expired))
	writeJSON(w, http.StatusOK, sweepResponse{
		Candidates: res.Candidates,
		Expired:    res.Expired,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
		ExpiredIDs: ids,
	}, h.logger)
}
