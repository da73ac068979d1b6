package config

import (
	"fmt"
	"log"
	"time"

	"github.com/impresahub/impresa_backend/internal/core/domain"
	"github.com/impresahub/impresa_backend/internal/utils/accounting"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL       string
	Port              string
	IsProduction      bool
	EnableDBCheck     bool
	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string
	MigrationsPath    string

	// External OAuth Providers
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FrontendBaseURL    string `mapstructure:"FRONTEND_BASE_URL"`

	PosthogAPIKey   string
	PosthogEndpoint string

	// Rate limiting of the public auth routes, in ulule/limiter format ("10-M").
	RedisURL         string
	LoginRateLimit   string
	AuthRedisPrefix  string
	CORSAllowOrigins []string

	UploadDir     string
	MaxUploadSize int64

	OutboxPollInterval    time.Duration
	OutboxMaxAttempts     int
	OutboxBatchSize       int
	NotificationRetention time.Duration
	CleanerInterval       time.Duration

	CommissionRatios accounting.CommissionRatios
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "impresa-backend")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("GOOGLE_CLIENT_ID", "")
	viper.SetDefault("GOOGLE_CLIENT_SECRET", "")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "")
	viper.SetDefault("FRONTEND_BASE_URL", "http://localhost:3000")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	viper.SetDefault("AUTH_REDIS_PREFIX", "impresa:auth")
	viper.SetDefault("UPLOAD_DIR", "uploads")
	viper.SetDefault("MAX_UPLOAD_SIZE", 10<<20)
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "1s")
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", 25)
	viper.SetDefault("OUTBOX_BATCH_SIZE", 100)
	viper.SetDefault("NOTIFICATION_RETENTION", "2160h")
	viper.SetDefault("CLEANER_INTERVAL", "1h")
	viper.SetDefault("COMMISSION_RATIO_SEGNALATORI", "0.10")
	viper.SetDefault("COMMISSION_RATIO_SPORTELLO_LAVORO", "0.15")
	viper.SetDefault("COMMISSION_RATIO_RESPONSABILE_TERRITORIALE", "0.05")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.JWTExpiryDuration = durationOr("JWT_EXPIRY_DURATION", time.Hour)

	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "impresa-backend"
		log.Printf("Warning: JWT_ISSUER not set. Defaulting to %s.\n", cfg.JWTIssuer)
	}

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	cfg.FrontendBaseURL = viper.GetString("FRONTEND_BASE_URL")
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" || cfg.GoogleRedirectURL == "" {
		log.Println("Warning: GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET or GOOGLE_REDIRECT_URL not set. Google OAuth will not function.")
	}
	cfg.CORSAllowOrigins = []string{cfg.FrontendBaseURL}

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.LoginRateLimit = viper.GetString("LOGIN_RATE_LIMIT")
	cfg.AuthRedisPrefix = viper.GetString("AUTH_REDIS_PREFIX")

	cfg.UploadDir = viper.GetString("UPLOAD_DIR")
	cfg.MaxUploadSize = viper.GetInt64("MAX_UPLOAD_SIZE")
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 << 20
	}

	cfg.OutboxPollInterval = durationOr("OUTBOX_POLL_INTERVAL", time.Second)
	cfg.OutboxMaxAttempts = viper.GetInt("OUTBOX_MAX_ATTEMPTS")
	cfg.OutboxBatchSize = viper.GetInt("OUTBOX_BATCH_SIZE")
	cfg.NotificationRetention = durationOr("NOTIFICATION_RETENTION", 90*24*time.Hour)
	cfg.CleanerInterval = durationOr("CLEANER_INTERVAL", time.Hour)

	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	ratios, err := loadCommissionRatios()
	if err != nil {
		return nil, err
	}
	cfg.CommissionRatios = ratios

	return cfg, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func loadCommissionRatios() (accounting.CommissionRatios, error) {
	keys := map[domain.UserRole]string{
		domain.RoleSegnalatori:              "COMMISSION_RATIO_SEGNALATORI",
		domain.RoleSportelloLavoro:          "COMMISSION_RATIO_SPORTELLO_LAVORO",
		domain.RoleResponsabileTerritoriale: "COMMISSION_RATIO_RESPONSABILE_TERRITORIALE",
	}
	ratios := accounting.CommissionRatios{}
	for role, key := range keys {
		raw := viper.GetString(key)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		ratios[role] = d
	}
	if err := ratios.Validate(); err != nil {
		return nil, fmt.Errorf("invalid commission ratios: %w", err)
	}
	return ratios, nil
}
