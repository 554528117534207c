package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/folio/site-server-go/internal/config"
	"github.com/folio/site-server-go/internal/database"
	"github.com/folio/site-server-go/internal/events"
	"github.com/folio/site-server-go/internal/handler"
	"github.com/folio/site-server-go/internal/metrics"
	"github.com/folio/site-server-go/internal/middleware"
	"github.com/folio/site-server-go/internal/redis"
	"github.com/folio/site-server-go/internal/repository"
	"github.com/folio/site-server-go/internal/service"
	"github.com/folio/site-server-go/internal/session"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := cfg.IsProduction()
	if isProduction {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	secret, secretSource := cfg.SessionSecret()
	if secretSource == config.SecretFromFallback {
		log.Warn().Msg("using the development session secret: set ADMIN_SESSION_SECRET before deploying")
	} else {
		log.Info().Str("source", string(secretSource)).Msg("admin session secret resolved")
	}

	metrics.Init()

	var primaryRepo repository.ReferralPageRepository
	var crmRepo repository.CRMRepository

	if cfg.DatabaseURL != "" {
		db := connectDB(cfg.DatabaseURL, "primary")
		defer db.Close()
		primaryRepo = repository.NewReferralPageRepository(db.DB, cfg.Tables.ReferralPages)

		crmDB := db
		if url := cfg.CRMDatabaseURL(); url != cfg.DatabaseURL {
			crmDB = connectDB(url, "crm")
			defer crmDB.Close()
		}
		crmRepo = repository.NewCRMRepository(crmDB.DB, cfg.Tables)
	} else {
		log.Warn().Str("path", cfg.FallbackStorePath).Msg("DATABASE_URL not set: referral pages use the fallback file only")
	}

	publishers := events.Multi{events.LogPublisher{}}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable: store events are logged only")
		} else {
			defer redisClient.Close()
			publishers = append(publishers, events.NewRedisPublisher(redisClient.Client, redis.StoreEventsChannel))
			log.Info().Str("channel", redis.StoreEventsChannel).Msg("publishing store events to redis")
		}
	}

	codec := session.NewCodec(secret)
	fallbackRepo := repository.NewFileReferralRepository(cfg.FallbackStorePath)
	store := service.NewReferralStore(primaryRepo, fallbackRepo, publishers)

	authService := service.NewAdminAuthService(codec, cfg.AdminPassword, cfg.AdminPasswordHash)
	referralService := service.NewReferralService(
		store,
		service.NewSlugGenerator(store),
		service.NewCompanyJobsClient(),
		cfg.JobsAPIBaseURL,
		cfg.DefaultPipelineID,
	)
	crmService := service.NewCRMService(crmRepo, cfg.DefaultPipelineID)

	adminGate := middleware.NewAdminGate(codec)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	adminHandler := handler.NewAdminHandler(authService, referralService, crmService, cfg.PublicBaseURL)
	referralHandler := handler.NewReferralHandler(referralService)
	companyJobsHandler := handler.NewCompanyJobsHandler(crmService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(adminGate.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"primary":   store.HasPrimary(),
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api/admin", adminHandler.Routes())
	r.Get("/api/company-jobs", companyJobsHandler.ServeHTTP)
	r.Get("/api/referrals/{slug}", referralHandler.View)

	r.Group(func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Get("/referrals/{slug}", referralHandler.Page)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Get("/signin", handler.SignIn)
		r.NotFound(handler.StaticFileServer(cfg.AdminStaticDir, "/admin").ServeHTTP)
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Bool("production", isProduction).Msg("starting server")
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

// connectDB opens a pool and checks it once. An unreachable database is not
// fatal: referral reads fall back to the local file.
func connectDB(url, name string) *database.DB {
	db, err := database.Connect(url)
	if err != nil {
		log.Fatal().Err(err).Str("db", name).Msg("invalid database url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("db", name).Msg("database unreachable at startup")
	} else {
		log.Info().Str("db", name).Msg("database connected")
	}
	return db
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
