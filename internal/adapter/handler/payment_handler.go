package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// SignatureVerifier checks a provider notification. nil disables the check.
type SignatureVerifier func(signature, requestID, dataID string) error

// PaymentHandler receives payment provider notifications.
type PaymentHandler struct {
	checkout CheckoutService
	verify   SignatureVerifier
	logger   *logger.Logger
}

func NewPaymentHandler(checkout CheckoutService, verify SignatureVerifier, log *logger.Logger) *PaymentHandler {
	log = log.Named("PaymentHandler")
	if verify == nil {
		log.Warn("Webhook signature verification disabled")
	}
	return &PaymentHandler{checkout: checkout, verify: verify, logger: log}
}

type webhookNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

type webhookResponse struct {
	Status string `json:"status"`
}

// HandleWebhook serves POST /api/payments/webhook. Anything that retrying
// cannot fix is acknowledged with 200 so the provider stops redelivering.
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var n webhookNotification
	if r.ContentLength != 0 {
		// provider payloads carry more fields than we read
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&n); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid notification body"}, h.logger)
			return
		}
	}
	if n.Type == "" {
		n.Type = q.Get("type")
	}
	if id := q.Get("data.id"); id != "" {
		n.Data.ID = id
	}

	if h.verify != nil {
		if err := h.verify(r.Header.Get("x-signature"), r.Header.Get("x-request-id"), n.Data.ID); err != nil {
			h.logger.Warn("Rejected webhook with bad signature", zap.Error(err), zap.String("data_id", n.Data.ID))
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid signature"}, h.logger)
			return
		}
	}

	if n.Type != "payment" || n.Data.ID == "" {
		h.logger.Debug("Ignoring webhook", zap.String("type", n.Type), zap.String("action", n.Action))
		writeJSON(w, http.StatusOK, webhookResponse{Status: "ignored"}, h.logger)
		return
	}

	res, err := h.checkout.ConfirmPayment(r.Context(), n.Data.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidInput):
		h.logger.Warn("Payment cannot be applied", zap.Error(err), zap.String("payment_id", n.Data.ID))
		writeJSON(w, http.StatusOK, webhookResponse{Status: "rejected"}, h.logger)
	case err != nil:
		writeError(w, err, h.logger)
	case res == nil:
		writeJSON(w, http.StatusOK, webhookResponse{Status: "pending"}, h.logger)
	case !res.Applied:
		writeJSON(w, http.StatusOK, webhookResponse{Status: "duplicate"}, h.logger)
	default:
		writeJSON(w, http.StatusOK, webhookResponse{Status: "applied"}, h.logger)
	}
}
