package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/ai"
	"github.com/saludvia/portal-server-go/internal/blobstore"
	"github.com/saludvia/portal-server-go/internal/config"
	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/handler"
	"github.com/saludvia/portal-server-go/internal/jobs"
	"github.com/saludvia/portal-server-go/internal/middleware"
	"github.com/saludvia/portal-server-go/internal/model"
	redisclient "github.com/saludvia/portal-server-go/internal/redis"
	"github.com/saludvia/portal-server-go/internal/registry"
	"github.com/saludvia/portal-server-go/internal/repository"
	"github.com/saludvia/portal-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("APP_ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
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

	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	blobs, err := blobstore.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob store")
	}
	log.Info().Str("bucket", cfg.S3Bucket).Msg("blob store ready")

	aiClient := ai.NewClient(cfg.AIGatewayURL, cfg.AIGatewayKey, cfg.AIModel, cfg.AITimeout())
	registryClient := registry.NewClient(registry.Config{
		RethusURL:  cfg.RethusAPIURL,
		RethusKey:  cfg.RethusAPIKey,
		TopusURL:   cfg.TopusAPIURL,
		TopusKey:   cfg.TopusAPIKey,
		HiSmartURL: cfg.HiSmartAPIURL,
		HiSmartKey: cfg.HiSmartAPIKey,
	}, config.RegistryTimeout)

	tokenRepo := repository.NewSharedTokenRepository(db.DB)
	patientRepo := repository.NewPatientRepository(db.DB)
	documentRepo := repository.NewDocumentRepository(db.DB)
	guestLogRepo := repository.NewGuestLogRepository(db.DB)
	chatMessageRepo := repository.NewChatMessageRepository(db.DB)

	rateLimiter := service.NewRateLimiter(redisClient.Client)
	sharingService := service.NewSharingService(
		tokenRepo, patientRepo, documentRepo, guestLogRepo, blobs, cfg.PublicBaseURL,
	)
	adminService := service.NewAdminService(db, registryClient)
	documentService := service.NewDocumentService(documentRepo, patientRepo, blobs)
	assistantService := service.NewAssistantService(
		aiClient, chatMessageRepo, documentRepo, patientRepo, blobs, cfg.EncryptionKey,
	)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORSOrigins)
	guestCORS := middleware.NewCORSMiddleware(nil)
	guestRateLimit := middleware.NewIPRateLimitMiddleware(
		rateLimiter, config.GuestValidateLimit, config.GuestValidateWindow, "guest",
	)
	userRateLimit := middleware.NewUserRateLimitMiddleware(
		rateLimiter, config.DefaultRateLimitPerMin, config.GuestValidateWindow, "api",
	)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	sharingHandler := handler.NewSharingHandler(sharingService)
	guestHandler := handler.NewGuestHandler(sharingService, assistantService)
	adminHandler := handler.NewAdminHandler(adminService)
	documentHandler := handler.NewDocumentHandler(documentService)
	assistantHandler := handler.NewAssistantHandler(assistantService, documentService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", healthHandler.Health)

	r.Route("/guest", func(r chi.Router) {
		r.Use(guestCORS.Handler)
		r.Use(guestRateLimit.Handler)
		r.Use(bodyLimitMiddleware.Handler)
		r.Mount("/", guestHandler.Routes())
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(corsMiddleware.Handler)
		r.Use(authMiddleware.Handler)
		r.Use(userRateLimit.Handler)

		r.Route("/share-links", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RolePatient))
			r.Use(bodyLimitMiddleware.Handler)
			r.Mount("/", sharingHandler.Routes())
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(bodyLimitMiddleware.Handler)
			r.Mount("/", adminHandler.Routes())
		})

		// Document upload carries multipart bodies; no JSON body limit here,
		// the handler enforces the per-file maximum.
		r.Mount("/patients", documentHandler.PatientRoutes())
		r.Mount("/documents", documentHandler.DocumentRoutes())

		r.Route("/assistant", func(r chi.Router) {
			r.Use(bodyLimitMiddleware.Handler)
			r.Mount("/", assistantHandler.Routes())
		})
	})

	cleanupJob := jobs.NewCleanupJob(tokenRepo, config.CleanupJobInterval, config.ExpiredTokenRetention)
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
