package routes

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"

	"github.com/airtime-queen/airtime_queen/internal/auth"
	"github.com/airtime-queen/airtime_queen/internal/challenge"
	"github.com/airtime-queen/airtime_queen/internal/config"
	"github.com/airtime-queen/airtime_queen/internal/identity"
	"github.com/airtime-queen/airtime_queen/internal/merchant"
	"github.com/airtime-queen/airtime_queen/internal/middleware"
	"github.com/airtime-queen/airtime_queen/internal/notification"
	"github.com/airtime-queen/airtime_queen/internal/phone"
	"github.com/airtime-queen/airtime_queen/internal/proxy"
	"github.com/airtime-queen/airtime_queen/internal/verification"
	"github.com/airtime-queen/airtime_queen/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Deriver computes wallet addresses at sign-up. Required.
	Deriver identity.AddressDeriver
	// Notifier overrides the SMS sender chosen from configuration.
	Notifier notification.Notifier
	// HTTPClient is shared by the proxies and the block explorer client.
	HTTPClient *fasthttp.Client
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Deriver == nil {
		return fmt.Errorf("wallet address deriver is required")
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &fasthttp.Client{Name: d.Cfg.AppName}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Output:     accessLogOutput(d.Cfg),
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Stores fall back to memory in development when Postgres or Redis is absent.
	var (
		identityRepo identity.Repository
		sessionStore auth.SessionStore
		challenges   challenge.Store
		codes        verification.CodeStore
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		sessionStore = auth.NewPostgresSessionStore(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		sessionStore = auth.NewMemorySessionStore()
	}
	if d.Cache != nil {
		challenges = challenge.NewRedisStore(d.Cache, d.Cfg.ChallengeTTL)
		codes = verification.NewRedisCodeStore(d.Cache)
	} else {
		challenges = challenge.NewMemoryStore(d.Cfg.ChallengeTTL)
		codes = verification.NewMemoryCodeStore()
	}

	// Services and handlers
	phones := phone.NewNormalizer(d.Cfg.DefaultRegion)
	identitySvc := identity.NewService(identityRepo, d.Deriver)
	sessions := auth.NewSessionService(sessionStore, identityRepo, auth.SessionOptions{
		CookieName: config.SessionCookieName,
		TTL:        d.Cfg.SessionTTL,
		Secure:     d.Cfg.IsProduction(),
	})
	gate := auth.NewGate(sessions)

	notifier := d.Notifier
	if notifier == nil {
		notifier = newNotifier(d.Cfg, d.Logger)
	}
	verifier := verification.NewService(codes, notifier, identitySvc, verification.Options{
		CodeTTL:      d.Cfg.VerificationCodeTTL,
		MaxAttempts:  d.Cfg.VerificationMaxAttempts,
		ResendWindow: d.Cfg.VerificationResendWindow,
	})
	history := wallet.NewHistoryService(wallet.NewBlockscoutClient(d.Cfg.BlockscoutURL, d.HTTPClient), identitySvc)

	authHandler := auth.NewHandler(challenges, identitySvc, sessions, phones)
	identityHandler := identity.NewHandler(identitySvc, phones)
	verificationHandler := verification.NewHandler(verifier, phones)
	walletHandler := wallet.NewHandler(history, phones)

	// API routes
	api := app.Group("/api")
	verified := middleware.RequireSession(gate, true)
	signedIn := middleware.RequireSession(gate, false)
	limit := func(name string, key func(*fiber.Ctx) string) fiber.Handler {
		return middleware.RateLimit(d.Cache, middleware.RateLimitConfig{
			Name:   name,
			Max:    d.Cfg.LoginRateLimit,
			Window: time.Minute,
			Key:    key,
		}, d.Logger)
	}

	RegisterAuthRoutes(api, authHandler, AuthLimits{
		Login:  limit("login", nil),
		SignUp: limit("sign-up", middleware.BodyFieldKey("phoneNumber")),
	}, signedIn)
	RegisterVerificationRoutes(api, verificationHandler, signedIn, limit("phone-verify", middleware.BodyFieldKey("phoneNumber")))
	RegisterIdentityRoutes(api, identityHandler, verified)
	RegisterWalletRoutes(api, walletHandler, verified)

	upstreamOpts := proxy.Options{
		// Session credentials stay on this side of the proxy.
		StripHeaders: []string{fiber.HeaderAuthorization, fiber.HeaderCookie},
		Timeout:      d.Cfg.ProxyTimeout,
	}
	if err := registerMerchant(api, d, upstreamOpts, phones, verified); err != nil {
		return err
	}
	bundler := proxy.NewResolved(
		proxy.ChainResolver(d.Cfg.BundlerBaseURL, d.Cfg.CDPAPIKey, proxy.DefaultChainNames),
		upstreamOpts, d.HTTPClient, d.Logger)
	RegisterBundlerRoutes(api, bundler, middleware.Throttle(d.Cfg.ProxyRateLimitRPS))

	return nil
}

func registerMerchant(api fiber.Router, d Deps, opts proxy.Options, phones phone.Normalizer, verified fiber.Handler) error {
	if d.Cfg.MerchantAPIURL == "" || d.Cfg.MerchantJWTSecret == "" {
		d.Logger.Warn("merchant routes disabled; MERCHANT_API_URL or MERCHANT_JWT_SECRET not set")
		return nil
	}
	signer, err := merchant.NewTrustSigner(d.Cfg.MerchantJWTSecret, d.Cfg.TrustTokenTTL)
	if err != nil {
		return err
	}
	products := proxy.New(d.Cfg.MerchantAPIURL+"/products", opts, d.HTTPClient, d.Logger)
	upstream := proxy.New(d.Cfg.MerchantAPIURL, opts, d.HTTPClient, d.Logger)
	h := merchant.NewHandler(products, upstream, signer, phones)
	RegisterMerchantRoutes(api, h, verified, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	return nil
}

func newNotifier(cfg config.Config, logger *slog.Logger) notification.Notifier {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		logger.Warn("twilio not configured; verification codes are logged instead of sent")
		return notification.NewLoggerNotifier(logger)
	}
	return notification.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
}

func accessLogOutput(cfg config.Config) io.Writer {
	if cfg.Env == "test" {
		return io.Discard
	}
	return os.Stdout
}
