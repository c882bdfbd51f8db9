package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mishmanage/mishmanage/internal/config"
	"github.com/mishmanage/mishmanage/internal/domain/triage"
	"github.com/mishmanage/mishmanage/internal/platform/middleware"
	"github.com/mishmanage/mishmanage/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mishmanage-server",
		Short: "Walk-in treatment board API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(rosterCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the treatment board server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func rosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Show the configured nurse columns and calendar window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Calendar: %s-%s, %dpx, durations scaled to %d minutes\n",
				cfg.CalendarStart, cfg.CalendarEnd, cfg.CalendarHeightPx, cfg.MaxWindowMinutes)
			fmt.Fprintf(out, "%-6s %s\n", "ID", "NURSE")
			fmt.Fprintln(out, "------ --------------------")
			for _, n := range triage.NewRoster(cfg.Nurses) {
				fmt.Fprintf(out, "%-6d %s\n", n.ID, n.Name)
			}
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// newServer wires the board service, the change feed and the HTTP routes.
func newServer(cfg *config.Config, logger zerolog.Logger) (*echo.Echo, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	calendar, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(logger)
	svc := triage.NewService(triage.NewMemoryStore(), triage.NewRoster(cfg.Nurses), calendar)
	svc.SetLogger(logger.With().Str("component", "triage").Logger())
	svc.SetPublisher(hub)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"version": "0.1.0",
			"clients": hub.ClientCount(),
		})
	})

	triage.NewHandler(svc).RegisterRoutes(apiV1)
	websocket.NewWebSocketHandler(hub, cfg.CORSOrigins, triage.BoardTopic).RegisterRoutes(e.Group(""))

	return e, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	e, err := newServer(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build server")
		return err
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Strs("nurses", cfg.Nurses).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
