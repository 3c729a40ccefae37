package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/api"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/config"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/database"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/export"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/lookup"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/reports"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/session"
)

var version = "dev"

// lookupCacheSize bounds the per-category lookup entries
const lookupCacheSize = 16

func main() {
	rootCmd := &cobra.Command{
		Use:               "report-web",
		Short:             "Branch report drill-down server",
		PersistentPreRunE: setup,
		RunE:              runServer,
		SilenceUsage:      true,
	}
	rootCmd.AddCommand(exportCmd(), tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found")
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	log.Info().Str("version", version).Msg("Starting report server")

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	// Initialize database
	db, err := database.New(cfg.Database, cfg.Server.QueryTimeout)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer db.Close()

	lookupCache := cache.NewMemoryCache(lookupCacheSize, time.Minute)
	defer lookupCache.Close()
	lookupStats := cache.NewStatsCache(lookupCache, lookupCacheSize)

	store := session.NewStore(db, cfg.Session.IdleTTL, cfg.Session.MaxSessions)
	defer store.Close()

	reportHandler := api.NewReportHandler(
		reports.Default(),
		store,
		lookup.NewService(db, lookupStats, cfg.Lookup.CacheTTL),
		export.NewExporter(),
	)

	// Setup routes
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition", "X-Export-Rows"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", api.HealthCheck(db, lookupStats))

		r.Group(func(r chi.Router) {
			r.Use(api.RequireJWT(cfg.JWT.Secret))
			reportHandler.Mount(r)
			api.NewCacheHandler(lookupStats).Mount(r)
		})
	})

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET is empty, report routes are unauthenticated")
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
		close(done)
	}()

	log.Info().Str("port", cfg.Server.Port).Msg("Server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Server failed to start")
		return err
	}

	<-done
	log.Info().Msg("Server stopped")
	return nil
}
