package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"go.uber.org/zap"
)

const (
	currencyID = "USD"
	mockPrefix = "mock"
)

var (
	ErrMissingAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
	ErrNotConfigured      = errors.New("mercado pago gateway not configured")
	ErrBadReference       = fmt.Errorf("%w: payment does not reference a boost", domain.ErrInvalidInput)
)

type Options struct {
	AccessToken     string
	NotificationURL string
	PublicBaseURL   string
	Mock            bool
}

// Gateway sells boost plans through Mercado Pago checkout preferences.
// In mock mode no provider calls are made: checkout ids encode the order and
// every looked-up payment is approved.
type Gateway struct {
	preferences preference.Client
	payments    payment.Client
	opts        Options
	logger      *logger.Logger
}

func NewGateway(opts Options, log *logger.Logger) (*Gateway, error) {
	log = log.Named("MercadoPago")
	if opts.Mock {
		log.Info("Payment gateway mock mode enabled")
		return &Gateway{opts: opts, logger: log}, nil
	}
	if opts.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := config.New(opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create mercado pago config: %w", err)
	}
	log.Info("Mercado Pago client initialized")
	return &Gateway{
		preferences: preference.NewClient(cfg),
		payments:    payment.NewClient(cfg),
		opts:        opts,
		logger:      log,
	}, nil
}

// ExternalReference ties a provider payment back to listing and plan.
func ExternalReference(listingID string, hours int) string {
	return fmt.Sprintf("boost:%s:%d", listingID, hours)
}

// ParseExternalReference is the inverse of ExternalReference.
func ParseExternalReference(ref string) (listingID string, hours int, err error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 3 || parts[0] != "boost" || parts[1] == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	hours, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrBadReference, ref)
	}
	return parts[1], hours, nil
}

func (g *Gateway) CreateCheckout(ctx context.Context, req usecase.CheckoutRequest) (*usecase.Checkout, error) {
	ref := ExternalReference(req.ListingID, req.Plan.Hours)
	if g.opts.Mock {
		id := fmt.Sprintf("%s:%s:%d", mockPrefix, ref, time.Now().UTC().UnixNano())
		g.logger.Info("Mock checkout created", zap.String("preference_id", id))
		return &usecase.Checkout{
			PreferenceID: id,
			CheckoutURL:  strings.TrimRight(g.opts.PublicBaseURL, "/") + "/mock-checkout/" + id,
		}, nil
	}
	if g.preferences == nil {
		return nil, ErrNotConfigured
	}

	resp, err := g.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{{
			ID:         req.ListingID,
			Title:      req.Plan.Title,
			CategoryID: "services",
			CurrencyID: currencyID,
			Quantity:   1,
			UnitPrice:  float64(req.Plan.PriceCents) / 100,
		}},
		ExternalReference: ref,
		NotificationURL:   g.opts.NotificationURL,
		Metadata: map[string]any{
			"listing_id":  req.ListingID,
			"boost_hours": req.Plan.Hours,
			"seller_id":   req.SellerID,
		},
	})
	if err != nil {
		g.logger.Error("Preference create failed", zap.Error(err), zap.String("listing_id", req.ListingID))
		return nil, fmt.Errorf("create preference: %w", err)
	}
	g.logger.Info("Preference created", zap.String("preference_id", resp.ID), zap.String("listing_id", req.ListingID))
	return &usecase.Checkout{PreferenceID: resp.ID, CheckoutURL: resp.InitPoint}, nil
}

func (g *Gateway) GetPayment(ctx context.Context, paymentID string) (*usecase.Payment, error) {
	if g.opts.Mock {
		return mockPayment(paymentID)
	}
	if g.payments == nil {
		return nil, ErrNotConfigured
	}

	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payment id %q", domain.ErrInvalidInput, paymentID)
	}
	resp, err := g.payments.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment %d: %w", id, err)
	}

	p := &usecase.Payment{ID: strconv.Itoa(resp.ID), Status: resp.Status}
	if resp.Status != usecase.PaymentStatusApproved {
		return p, nil
	}
	p.ListingID, p.DurationHours, err = ParseExternalReference(resp.ExternalReference)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// mock:boost:<listing>:<hours>:<nonce>
func mockPayment(paymentID string) (*usecase.Payment, error) {
	rest, ok := strings.CutPrefix(paymentID, mockPrefix+":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBadReference, paymentID)
	}
	i := strings.LastIndex(rest, ":")
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadReference, paymentID)
	}
	listingID, hours, err := ParseExternalReference(rest[:i])
	if err != nil {
		return nil, err
	}
	return &usecase.Payment{
		ID:            paymentID,
		Status:        usecase.PaymentStatusApproved,
		ListingID:     listingID,
		DurationHours: hours,
	}, nil
}
