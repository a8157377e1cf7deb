package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Options struct {
	Host     string
	Port     int
	From     string
	Password string
}

// Mailer notifies sellers over SMTP.
type Mailer struct {
	from   string
	d      sender
	logger *logger.Logger
}

func New(opts Options, log *logger.Logger) (*Mailer, error) {
	if opts.Host == "" || opts.Port == 0 || opts.From == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}
	return &Mailer{
		from:   opts.From,
		d:      gomail.NewDialer(opts.Host, opts.Port, opts.From, opts.Password),
		logger: log.Named("Mailer"),
	}, nil
}

func (m *Mailer) SendBoostApplied(ctx context.Context, toEmail string, listing *domain.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := boostAppliedMessage(m.from, toEmail, listing)
	if err := m.d.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send boost email", zap.String("listing_id", listing.ID), zap.Error(err))
		return fmt.Errorf("send boost email: %w", err)
	}
	m.logger.Debug("Boost email sent", zap.String("listing_id", listing.ID))
	return nil
}

func boostAppliedMessage(from, to string, listing *domain.Listing) *gomail.Message {
	until := "soon"
	if listing.FeaturedUntil != nil {
		until = listing.FeaturedUntil.UTC().Format(time.RFC1123)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your listing is featured")
	msg.SetBody("text/plain", fmt.Sprintf("Your listing '%s' is featured until %s.", listing.Title, until))
	return msg
}
