package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const insecureJWTSecret = "change-me-marketplace-secret"

// Config holds all configuration for the service.
type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	GRPCPort    string `mapstructure:"GRPC_PORT"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddress    string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ListingCacheTTL time.Duration `mapstructure:"LISTING_CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"`

	MinioEndpoint     string        `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey    string        `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey    string        `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket       string        `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL       bool          `mapstructure:"MINIO_USE_SSL"`
	PhotoUploadURLTTL time.Duration `mapstructure:"PHOTO_UPLOAD_URL_TTL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`

	FeedDefaultLimit    int           `mapstructure:"FEED_DEFAULT_LIMIT"`
	BoostSweepInterval  time.Duration `mapstructure:"BOOST_SWEEP_INTERVAL"`
	BoostSweepTimeout   time.Duration `mapstructure:"BOOST_SWEEP_TIMEOUT"`
	FreeTierActiveLimit int           `mapstructure:"FREE_TIER_ACTIVE_LIMIT"`

	MercadoPagoAccessToken   string `mapstructure:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoWebhookSecret string `mapstructure:"MERCADOPAGO_WEBHOOK_SECRET"`
	PaymentGatewayMock       bool   `mapstructure:"PAYMENT_GATEWAY_MOCK"`
	PaymentNotificationURL   string `mapstructure:"PAYMENT_NOTIFICATION_URL"`
	PublicBaseURL            string `mapstructure:"PUBLIC_BASE_URL"`

	MailEnabled  bool   `mapstructure:"MAIL_ENABLED"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPEmail    string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "marketplace-service")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("GRPC_PORT", "50051")

	v.SetDefault("STORE_DRIVER", "mongo")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "marketplace")

	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LISTING_CACHE_TTL", time.Hour)

	v.SetDefault("NATS_URL", "")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "listing-photos")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("PHOTO_UPLOAD_URL_TTL", 15*time.Minute)

	v.SetDefault("JWT_SECRET", insecureJWTSecret)

	v.SetDefault("PROMETHEUS_METRICS_PORT", "9095")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("FEED_DEFAULT_LIMIT", 50)
	v.SetDefault("BOOST_SWEEP_INTERVAL", time.Hour)
	v.SetDefault("BOOST_SWEEP_TIMEOUT", 2*time.Minute)
	v.SetDefault("FREE_TIER_ACTIVE_LIMIT", 3)

	v.SetDefault("MERCADOPAGO_ACCESS_TOKEN", "")
	v.SetDefault("MERCADOPAGO_WEBHOOK_SECRET", "")
	v.SetDefault("PAYMENT_GATEWAY_MOCK", false)
	v.SetDefault("PAYMENT_NOTIFICATION_URL", "")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")
}

// LoadConfig reads configuration from the environment. godotenv is expected
// to have populated the environment from .env beforehand.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == insecureJWTSecret || cfg.JWTSecret == "" {
		appLogger.Warn("JWT_SECRET is empty or left at its insecure default")
	}
	if cfg.MercadoPagoAccessToken == "" && !cfg.PaymentGatewayMock {
		appLogger.Warn("MERCADOPAGO_ACCESS_TOKEN is empty; boost checkout will fail until PAYMENT_GATEWAY_MOCK=true or a token is set")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.Bool("redis_enabled", cfg.RedisAddress != ""),
		zap.Bool("nats_enabled", cfg.NATSURL != ""),
		zap.Bool("minio_enabled", cfg.MinioEndpoint != ""),
		zap.Int("feed_default_limit", cfg.FeedDefaultLimit),
		zap.Duration("boost_sweep_interval", cfg.BoostSweepInterval),
		zap.Bool("payment_gateway_mock", cfg.PaymentGatewayMock),
		zap.Bool("mail_enabled", cfg.MailEnabled),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)
	return &cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
		if c.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_DATABASE is required when STORE_DRIVER=mongo"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be mongo or memory, got %q", c.StoreDriver))
	}
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	if c.FeedDefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("FEED_DEFAULT_LIMIT must be positive, got %d", c.FeedDefaultLimit))
	}
	if c.BoostSweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("BOOST_SWEEP_INTERVAL must be positive, got %s", c.BoostSweepInterval))
	}
	if c.BoostSweepTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BOOST_SWEEP_TIMEOUT must be positive, got %s", c.BoostSweepTimeout))
	}
	if c.FreeTierActiveLimit < 0 {
		errs = append(errs, fmt.Errorf("FREE_TIER_ACTIVE_LIMIT must not be negative, got %d", c.FreeTierActiveLimit))
	}
	if c.MailEnabled && (c.SMTPEmail == "" || c.SMTPPassword == "") {
		errs = append(errs, errors.New("SMTP_EMAIL and SMTP_PASSWORD are required when MAIL_ENABLED=true"))
	}
	return errors.Join(errs...)
}
