package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	SubjectBoostPaymentCompleted = "payments.boost.completed"
	queueGroup                   = "marketplace-service"
	handleTimeout                = 10 * time.Second
)

// BoostPaymentEvent is the payload of payments.boost.completed.
type BoostPaymentEvent struct {
	ListingID     string `json:"listing_id"`
	DurationHours int    `json:"duration_hours"`
	PaymentID     string `json:"payment_id"`
}

type boostReply struct {
	Applied       bool   `json:"applied"`
	FeaturedUntil string `json:"featured_until,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Subscriber turns completed boost payments from the bus into boost orders.
type Subscriber struct {
	conn   *nats.Conn
	boosts usecase.BoostApplier
	logger *logger.Logger
	sub    *nats.Subscription
}

func NewSubscriber(conn *nats.Conn, boosts usecase.BoostApplier, log *logger.Logger) *Subscriber {
	return &Subscriber{conn: conn, boosts: boosts, logger: log.Named("NATSSubscriber")}
}

// Start joins the queue group so each event is handled by one replica.
func (s *Subscriber) Start() error {
	sub, err := s.conn.QueueSubscribe(SubjectBoostPaymentCompleted, queueGroup, s.handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", SubjectBoostPaymentCompleted, err)
	}
	s.sub = sub
	s.logger.Info("Subscribed to boost payments", zap.String("subject", SubjectBoostPaymentCompleted), zap.String("queue", queueGroup))
	return nil
}

func (s *Subscriber) Stop() {
	if s.sub == nil {
		return
	}
	if err := s.sub.Drain(); err != nil {
		s.logger.Warn("Failed to drain subscription", zap.Error(err))
	}
}

func (s *Subscriber) handle(msg *nats.Msg) {
	ctx := context.Background()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(msg.Header))
	}
	ctx, span := tracer.Start(ctx, "NATS.Consume."+msg.Subject)
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	reply := s.process(ctx, msg.Data)
	if msg.Reply == "" {
		return
	}
	data, _ := json.Marshal(reply)
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("Failed to reply to boost payment event", zap.Error(err))
	}
}

func (s *Subscriber) process(ctx context.Context, data []byte) boostReply {
	var ev BoostPaymentEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Error("Discarding malformed boost payment event", zap.Error(err))
		return boostReply{Error: "malformed event"}
	}

	res, err := s.boosts.ApplyBoost(ctx, domain.BoostOrder{
		ListingID:     ev.ListingID,
		DurationHours: ev.DurationHours,
		PaymentID:     ev.PaymentID,
		Source:        "nats",
	})
	if err != nil {
		lvl := s.logger.Error
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			lvl = s.logger.Warn
		}
		lvl("Boost payment event not applied",
			zap.Error(err),
			zap.String("listing_id", ev.ListingID),
			zap.String("payment_id", ev.PaymentID),
			zap.String("trace_id", trace.SpanContextFromContext(ctx).TraceID().String()))
		return boostReply{Error: err.Error()}
	}

	reply := boostReply{Applied: res.Applied}
	if res.Listing != nil && res.Listing.FeaturedUntil != nil {
		reply.FeaturedUntil = res.Listing.FeaturedUntil.Format(time.RFC3339)
	}
	return reply
}
