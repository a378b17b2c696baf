package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviso/internal/caching"
	"reviso/internal/common"
	"reviso/internal/config"
	"reviso/internal/handlers"
	"reviso/internal/jobs/background"
	"reviso/internal/logging"
	"reviso/internal/middleware"
	"reviso/internal/ratelimit"
	"reviso/internal/repositories"
	"reviso/internal/services"
	"reviso/pkg/database"

	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
	jobLockTTL      = 5 * time.Minute
)

//	@title						Reviso API
//	@version					1.0
//	@description				Agency signup, billing lifecycle and tenant provisioning.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	format := "console"
	if cfg.IsProduction() {
		format = "json"
	}
	logging.Init(logging.Config{Format: format, Level: cfg.LogLevel, Component: "api"})

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	adminPool, adminURL, closeAdmin, err := database.AdminPool(ctx, pool, cfg.DatabaseURL, cfg.DatabaseAdminURL)
	if err != nil {
		return err
	}
	defer closeAdmin()

	store := repositories.NewStore(pool)
	repos := store.Repos()

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	cache := caching.NewRedisCacheService(redisClient)

	var limitStore ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.RateLimitBackend == config.RateLimitRedis {
		limitStore = ratelimit.NewRedisStore(redisClient, "reviso:ratelimit")
	}

	var objects services.ObjectStorage
	var storagePing handlers.Pinger
	if cfg.Minio.Enabled() {
		objects, err = services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			return err
		}
		storagePing = objects
	}

	var mailer services.Mailer = services.NewLogMailer()
	if cfg.SMTP.Enabled() {
		mailer = services.NewSMTPMailer(cfg.SMTP)
	}

	provisioning := services.NewTenantProvisioningService(store, services.NewPostgresAllocator(adminPool, adminURL), objects)
	lifecycle := services.Lifecycle{
		Provisioner: provisioning,
		Notifier:    services.NewNotificationService(mailer, cfg.FrontendBaseURL),
		Cache:       cache,
	}
	billingDeps := services.BillingDeps{
		Store:           store,
		Lifecycle:       lifecycle,
		FrontendBaseURL: cfg.FrontendBaseURL,
		HashPassword:    services.HashPassword,
	}

	var billing services.BillingService
	if cfg.Billing.IsMock() {
		log.Warn().Int("trial_days", cfg.Billing.TrialDays).Msg("mock billing enabled: signups start a trial without payment")
		billing = services.NewMockBillingService(billingDeps, cfg.Billing.TrialDays)
	} else {
		gateway := services.NewStripeCheckoutGateway(cfg.Billing.StripeAPIKey, cfg.Billing.ProviderTimeout)
		billing = services.NewStripeBillingService(billingDeps, gateway)
	}

	webhooks := services.NewWebhookService(
		services.NewSignatureVerifier(cfg.Billing.WebhookSecret, cfg.Billing.WebhookTolerance),
		store,
		billing,
		services.NewOnboardingService(lifecycle),
	)

	authService := services.NewAuthService(repos, cfg.JWTSecret, cfg.JWTTTL)
	var tokens middleware.TokenValidator = authService
	if cfg.JWTJWKSURL != "" {
		jwks, err := middleware.NewJWKSValidator(cfg.JWTJWKSURL)
		if err != nil {
			return err
		}
		defer jwks.Close()
		tokens = jwks
	}

	scheduler, err := background.NewJobScheduler(
		background.NewTasks(repos.PendingSignups, provisioning),
		gocron.WithDistributedLocker(background.NewRedisLocker(redisClient, jobLockTTL)),
	)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	e := newEcho(cfg)
	registerRoutes(e, routeDeps{
		health: handlers.NewHealthHandlers(poolPinger{pool}, cache, storagePing, version),
		onboarding: handlers.NewOnboardingHandlers(
			billing,
			services.NewPlanService(repos.Plans, cache),
			ratelimit.NewSignupLimiter(limitStore),
			handlers.PublicConfig{
				BillingProvider: billing.Provider(),
				TrialDays:       cfg.Billing.TrialDays,
				IsMock:          cfg.Billing.IsMock(),
			},
		),
		webhooks:      handlers.NewWebhookHandlers(webhooks),
		auth:          handlers.NewAuthHandlers(authService, ratelimit.NewLoginLimiter(limitStore)),
		subscriptions: handlers.NewSubscriptionHandlers(billing),
		tenants:       handlers.NewTenantHandlers(provisioning),
		jwt:           middleware.JWTMiddleware(tokens),
		access:        middleware.NewAccessMiddleware(services.NewAccessService(repos.Subscriptions, cache)),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Str("billing", billing.Provider()).Msg("reviso server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = common.HTTPErrorHandler

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(logging.RequestLogger())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoMiddleware.RemoveTrailingSlash())
	return e
}

// poolPinger adapts the pool to the health check's Pinger.
type poolPinger struct{ pool *pgxpool.Pool }

func (p poolPinger) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }
