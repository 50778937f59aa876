package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/healthassist/healthassist/internal/config"
	"github.com/healthassist/healthassist/internal/domain/identity"
	"github.com/healthassist/healthassist/internal/domain/insights"
	"github.com/healthassist/healthassist/internal/domain/records"
	"github.com/healthassist/healthassist/internal/domain/scheduling"
	"github.com/healthassist/healthassist/internal/platform/auth"
	"github.com/healthassist/healthassist/internal/platform/db"
	"github.com/healthassist/healthassist/internal/platform/inference"
	"github.com/healthassist/healthassist/internal/platform/middleware"
	"github.com/healthassist/healthassist/internal/tools"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "assistant-server",
		Short: "Healthcare assistant API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Inspect the local model cache",
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show cached model storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			registry := inference.NewRegistry(cfg.ModelCacheDir)
			info, err := registry.StorageInfo()
			if err != nil {
				return err
			}

			fmt.Printf("%-15s %-50s %-8s %s\n", "MODEL", "NAME", "SIZE", "STATUS")
			for _, m := range registry.Models() {
				status := "missing"
				size := "-"
				if bytes, ok := info.Models[m.ID]; ok {
					status = "downloaded"
					size = fmt.Sprintf("%.2f GB", float64(bytes)/(1<<30))
				}
				fmt.Printf("%-15s %-50s %-8s %s\n", m.ID, m.Name, size, status)
			}
			fmt.Printf("\nTotal: %.2f GB across %d model(s)\n", info.TotalSizeGB, len(info.DownloadedModels))
			if len(info.MissingRequired) > 0 {
				fmt.Printf("Missing required models: %v\n", info.MissingRequired)
			}
			return nil
		},
	}
	cmd.AddCommand(infoCmd)

	clearCmd := &cobra.Command{
		Use:   "clear [model-id]",
		Short: "Remove cached model weights",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			id := ""
			if len(args) > 0 {
				id = args[0]
			}

			registry := inference.NewRegistry(cfg.ModelCacheDir)
			if err := registry.ClearCache(id); err != nil {
				return err
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	}
	cmd.AddCommand(clearCmd)

	return cmd
}

// newLogger builds the process logger. Development gets a console writer;
// when LOG_FILE is set output also goes to a size-rotated file.
func newLogger(cfg *config.Config) zerolog.Logger {
	var out zerolog.LevelWriter
	if cfg.IsDev() {
		out = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		out = zerolog.MultiLevelWriter(os.Stdout)
	}

	if cfg.LogFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotated)
	}

	return zerolog.New(out).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e, err := buildServer(cfg, pool, logger)
	if err != nil {
		return err
	}

	// Serve with graceful shutdown on SIGINT/SIGTERM.
	stopCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	select {
	case err := <-errCh:
		return err
	case <-stopCtx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// buildServer wires repositories, services, inference clients, and routes.
func buildServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(60 * time.Second))
	e.Use(middleware.BodyLimit("1M", "10M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", db.HealthHandler(pool))

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	inTx := func(ctx context.Context, fn func(context.Context) error) error {
		return db.InTx(ctx, pool, fn)
	}

	// Domain services
	identitySvc := identity.NewService(
		identity.NewUserRepoPG(pool),
		identity.NewPatientRepoPG(pool),
		identity.NewDoctorRepoPG(pool),
		issuer,
	)
	identitySvc.SetTxRunner(inTx)

	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepoPG(pool), identitySvc)

	patientRepo := identity.NewPatientRepoPG(pool)
	recordsSvc := records.NewService(records.NewNoteRepoPG(pool), patientRepo, identitySvc)
	recordsSvc.SetTxRunner(inTx)

	insightsSvc := insights.NewService(insights.NewReportRepoPG(pool), identitySvc)

	// Inference clients
	httpClient := &http.Client{Timeout: time.Duration(cfg.InferenceTimeout) * time.Second}
	clientOpts := []inference.Option{
		inference.WithHTTPClient(httpClient),
		inference.WithRetries(cfg.InferenceRetries),
		inference.WithLogger(logger),
	}
	gen := inference.NewGenerativeClient(cfg.GenAIBaseURL, cfg.GenAIAPIKey, cfg.GenAIModel, inference.GenerationConfig{
		Temperature: cfg.GenAITemp,
		TopP:        cfg.GenAITopP,
		TopK:        cfg.GenAITopK,
	}, clientOpts...)
	classifier := inference.NewClassifierClient(cfg.InferenceBaseURL, cfg.InferenceToken, cfg.SymptomClassifierModel, clientOpts...)
	embedder := inference.NewEmbeddingClient(cfg.InferenceBaseURL, cfg.InferenceToken, cfg.EmbeddingModel, clientOpts...)
	vision := inference.NewVisionClient(cfg.InferenceBaseURL, cfg.InferenceToken, cfg.VisionModel, clientOpts...)

	toolRegistry := tools.NewRegistry(logger)
	if _, err := tools.NewService(toolRegistry, gen, classifier, embedder, vision, insightsSvc); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	// API routes
	api := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.Middleware(issuer, auth.SkipPaths(
		"/api/v1/auth/register",
		"/api/v1/auth/login",
	)))

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	records.NewHandler(recordsSvc).RegisterRoutes(api)
	insights.NewHandler(insightsSvc).RegisterRoutes(api)
	tools.NewHandler(toolRegistry).RegisterRoutes(api)

	return e, nil
}
