package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/colivhub/portal-server-go/internal/cache"
	"github.com/colivhub/portal-server-go/internal/config"
	"github.com/colivhub/portal-server-go/internal/content"
	"github.com/colivhub/portal-server-go/internal/database"
	"github.com/colivhub/portal-server-go/internal/handler"
	"github.com/colivhub/portal-server-go/internal/jobs"
	"github.com/colivhub/portal-server-go/internal/mailer"
	"github.com/colivhub/portal-server-go/internal/middleware"
	"github.com/colivhub/portal-server-go/internal/portal"
	"github.com/colivhub/portal-server-go/internal/redis"
	"github.com/colivhub/portal-server-go/internal/repository"
	"github.com/colivhub/portal-server-go/internal/service"
	"github.com/colivhub/portal-server-go/internal/sse"
	"github.com/colivhub/portal-server-go/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	propertyRepo := repository.NewPropertyRepository(db.DB)
	faqRepo := repository.NewFAQRepository(db.DB)
	tenantRepo := repository.NewTenantRepository(db.DB)
	contentRepo := repository.NewPropertyContentRepository(db.DB)
	authUserRepo := repository.NewAuthUserRepository(db.DB)
	authSessionRepo := repository.NewAuthSessionRepository(db.DB)
	adminSessionRepo := repository.NewAdminSessionRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	staticContent, err := content.NewStaticProvider()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fallback content")
	}

	seq, err := portal.NewSequencer(config.GateSequencerSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gate sequencer")
	}

	store := newStore(cfg)
	linkMailer := newMailer(cfg)

	catalogService := service.NewCatalogService(
		cache.New("properties", config.PropertyCacheTTL, propertyRepo.ListActive),
		cache.New("faq", config.FAQCacheTTL, faqRepo.ListPublished),
	)
	contentService := service.NewContentService(db, contentRepo, staticContent, broker)
	authService := service.NewAuthService(
		authUserRepo, authSessionRepo,
		service.NewLinkSigner(cfg.LinkTokenSecret, cfg.LinkTTL()),
		redisClient, linkMailer,
		service.AuthServiceConfig{
			SessionSecret: cfg.SessionSecret,
			SessionTTL:    cfg.SessionTTL(),
			PublicBaseURL: cfg.PublicBaseURL,
		},
	)
	adminService := service.NewAdminService(adminSessionRepo, cfg.AdminPasswordHash, cfg.AdminSessionSecret)
	rateLimiter := service.NewRateLimiter(redisClient)

	portalSessionMiddleware := middleware.NewPortalSessionMiddleware(authService)
	tenantGateMiddleware := middleware.NewTenantGateMiddleware(tenantRepo, seq)
	adminSessionMiddleware := middleware.NewAdminSessionMiddleware(adminService)
	loginLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, config.LoginIPLimit, config.LoginIPWindow, "login")
	adminLoginLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, config.LoginIPLimit, config.LoginIPWindow, "admin-login")
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(middleware.DefaultMaxBodySize, config.MaxUploadSize)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction, mediaOrigins(cfg)...)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	authHandler := handler.NewAuthHandler(authService, loginLimit.Handler, cfg.SessionTTL(), isProduction)
	eventsHandler := handler.NewEventsHandler(broker)
	portalHandler := handler.NewPortalHandler(
		catalogService, contentService, store, eventsHandler, tenantGateMiddleware.Handler,
	)
	adminHandler := handler.NewAdminHandler(
		adminService, contentService, catalogService, store,
		adminSessionMiddleware.Handler, adminLoginLimit.Handler, isProduction,
	)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/portal/", http.StatusFound)
	})

	// /portal/api/events streams, so it is the one route without a timeout
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

		r.Route("/api", func(r chi.Router) {
			r.Mount("/", catalogHandler.Routes())
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(csrfMiddleware.Handler)
			r.Use(portalSessionMiddleware.Handler)
			r.Mount("/", authHandler.Routes())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(securityHeadersMiddleware.Handler)
			r.Use(csrfMiddleware.Handler)
			r.Mount("/", adminHandler.Routes())
			r.NotFound(handler.StaticFileServer("static/admin", "/admin").ServeHTTP)
		})
	})

	r.Route("/portal", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)
		r.Use(portalSessionMiddleware.Handler)
		r.Mount("/", portalHandler.Routes())
		r.NotFound(handler.StaticFileServer("static/portal", "/portal").ServeHTTP)
	})

	cleanupJob := jobs.NewCleanupJob(authSessionRepo, adminSessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newStore(cfg *config.Config) storage.Store {
	if !cfg.StorageEnabled() {
		log.Warn().Msg("storage not configured, uploads disabled")
		return storage.Disabled{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewS3Store(ctx, storage.Config{
		Bucket:    cfg.StorageBucket,
		Region:    cfg.StorageRegion,
		Endpoint:  cfg.StorageEndpoint,
		PublicURL: cfg.StoragePublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure storage")
	}
	return store
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if cfg.SendGridAPIKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY not set, emails are logged instead of sent")
		return mailer.LogMailer{}
	}
	return mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromAddress, cfg.MailFromName)
}

func mediaOrigins(cfg *config.Config) []string {
	if cfg.StoragePublicURL == "" {
		return nil
	}
	return []string{cfg.StoragePublicURL}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
