package nats

import (
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Connect opens the shared NATS connection used by the publisher and the
// payment event subscriber.
func Connect(url, appName string, log *logger.Logger) (*nats.Conn, error) {
	log = log.Named("NATS")
	log.Info("Connecting to NATS", zap.String("url", url))

	opts := []nats.Option{
		nats.Name(appName),
		nats.Timeout(10 * time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			log.Error("NATS async error", zap.String("subject", subject), zap.Error(err))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("NATS connection closed")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))
	return conn, nil
}

// Drain flushes pending messages and subscriptions, then closes the connection.
func Drain(conn *nats.Conn, log *logger.Logger) {
	if conn == nil || conn.IsClosed() {
		return
	}
	if err := conn.Drain(); err != nil {
		log.Error("Failed to drain NATS connection", zap.Error(err))
		conn.Close()
	}
}

// HeaderCarrier adapts nats.Header for OpenTelemetry propagation.
type HeaderCarrier nats.Header

func (c HeaderCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c HeaderCarrier) Set(key, value string) {
	nats.Header(c).Set(key, value)
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
