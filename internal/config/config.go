package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName            = "AirtimeQueen"
	defaultAppEnv             = "development"
	defaultPort               = "8080"
	defaultLogLevel           = "info"
	defaultShutdownDelay      = 10 * time.Second
	defaultIdempotencyTTL     = 24 * time.Hour
	defaultPhoneRegion        = "ZA"
	defaultChallengeTTL       = 60 * time.Second
	defaultSessionTTL         = 30 * 24 * time.Hour
	defaultTrustTokenTTL      = time.Hour
	defaultProxyTimeout       = 30 * time.Second
	defaultBundlerBaseURL     = "https://api.developer.coinbase.com/rpc/v1"
	defaultRPCURL             = "https://mainnet.base.org"
	defaultSmartWalletFactory = "0x0BA5ED0c6AA8c49038F819E587E2633c4A9F428a"
	defaultBlockscoutURL      = "https://base.blockscout.com"
	defaultCodeTTL            = 10 * time.Minute
	defaultCodeMaxAttempts    = 5
	defaultCodeResendWindow   = 60 * time.Second
	defaultLoginRateLimit     = 5
	defaultProxyRateLimitRPS  = 10
	shutdownSecondsEnvVar     = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar    = "SHUTDOWN_TIMEOUT"
	idemTTLSecondsEnvVar      = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar          = "IDEMPOTENCY_TTL"

	// SessionCookieName is the cookie carrying the session id.
	SessionCookieName = "auth_session"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	AutoMigrate    bool
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	DefaultRegion string
	ChallengeTTL  time.Duration
	SessionTTL    time.Duration

	MerchantAPIURL    string
	MerchantJWTSecret string
	TrustTokenTTL     time.Duration
	BundlerBaseURL    string
	CDPAPIKey         string
	ProxyTimeout      time.Duration

	RPCURL             string
	SmartWalletFactory string
	BlockscoutURL      string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	VerificationCodeTTL      time.Duration
	VerificationMaxAttempts  int
	VerificationResendWindow time.Duration

	LoginRateLimit    int
	ProxyRateLimitRPS int
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is applied first when present; real
// environment variables always win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		Env:                strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		ShutdownPeriod:     defaultShutdownDelay,
		IdempotencyTTL:     defaultIdempotencyTTL,
		DefaultRegion:      strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", defaultPhoneRegion)),
		MerchantAPIURL:     strings.TrimRight(os.Getenv("MERCHANT_API_URL"), "/"),
		MerchantJWTSecret:  os.Getenv("MERCHANT_JWT_SECRET"),
		BundlerBaseURL:     strings.TrimRight(getEnv("BUNDLER_BASE_URL", defaultBundlerBaseURL), "/"),
		CDPAPIKey:          os.Getenv("CDP_API_KEY"),
		RPCURL:             getEnv("EVM_RPC_URL", defaultRPCURL),
		SmartWalletFactory: getEnv("SMART_WALLET_FACTORY", defaultSmartWalletFactory),
		BlockscoutURL:      strings.TrimRight(getEnv("BLOCKSCOUT_URL", defaultBlockscoutURL), "/"),
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:   os.Getenv("TWILIO_FROM_NUMBER"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ChallengeTTL, err = durationFromEnv("", "CHALLENGE_TTL", defaultChallengeTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durationFromEnv("", "SESSION_TTL", defaultSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.TrustTokenTTL, err = durationFromEnv("", "TRUST_TOKEN_TTL", defaultTrustTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.ProxyTimeout, err = durationFromEnv("", "PROXY_TIMEOUT", defaultProxyTimeout); err != nil {
		return Config{}, err
	}
	if cfg.VerificationCodeTTL, err = durationFromEnv("", "VERIFICATION_CODE_TTL", defaultCodeTTL); err != nil {
		return Config{}, err
	}
	if cfg.VerificationResendWindow, err = durationFromEnv("", "VERIFICATION_RESEND_WINDOW", defaultCodeResendWindow); err != nil {
		return Config{}, err
	}
	if cfg.VerificationMaxAttempts, err = intFromEnv("VERIFICATION_MAX_ATTEMPTS", defaultCodeMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = intFromEnv("LOGIN_RATE_LIMIT", defaultLoginRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.ProxyRateLimitRPS, err = intFromEnv("PROXY_RATE_LIMIT_RPS", defaultProxyRateLimitRPS); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		if cfg.AutoMigrate, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the settings that must be present outside development.
func (c Config) Validate() error {
	if c.DefaultRegion == "" {
		return fmt.Errorf("DEFAULT_PHONE_REGION must not be empty")
	}
	if c.ChallengeTTL <= 0 {
		return fmt.Errorf("CHALLENGE_TTL must be positive")
	}
	if c.IsDevelopment() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set")
	}
	if c.MerchantJWTSecret == "" {
		return fmt.Errorf("MERCHANT_JWT_SECRET must be set")
	}
	return nil
}

// IsDevelopment reports whether the process runs in a local/dev environment.
func (c Config) IsDevelopment() bool {
	switch c.Env {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// IsProduction reports whether cookies must be marked Secure.
func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
