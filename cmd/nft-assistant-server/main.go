package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chord233/nft-smart-assistant/internal/chains"
	"github.com/chord233/nft-smart-assistant/internal/config"
	"github.com/chord233/nft-smart-assistant/internal/observability/metrics"
	"github.com/chord233/nft-smart-assistant/internal/server"
	"github.com/chord233/nft-smart-assistant/internal/upstream"
	"github.com/chord233/nft-smart-assistant/internal/validation"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "nft-assistant-server",
		Short:   "NFT smart assistant - risk and market data relay",
		Version: version,
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newProbeCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newProbeCmd() *cobra.Command {
	var chain string
	var tokenID string

	cmd := &cobra.Command{
		Use:   "probe [address]",
		Short: "Fetch a risk report for one contract and print the raw provider payload",
		Long: `Fetch a risk report directly from the data provider, bypassing the server.

Useful for checking provider connectivity and API key validity before
deploying. If no API key is configured, you will be prompted for one.

EXAMPLES:
  # Probe an Ethereum collection
  nft-assistant-server probe 0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D

  # Probe on another chain
  nft-assistant-server probe --chain polygon 0x9df8Aa7C681f33E442A0d57B838555da863504f3
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(chain, args[0], tokenID)
		},
	}

	cmd.Flags().StringVar(&chain, "chain", chains.DefaultChain, "blockchain name")
	cmd.Flags().StringVar(&tokenID, "token-id", "", "optional token ID")

	return cmd
}

// Probe command

func runProbe(chain, address, tokenID string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Prompt for the key instead of failing, so probe works on a fresh
	// machine without touching the environment.
	if cfg.Upstream.APIKey == "" {
		fmt.Fprint(os.Stderr, "Provider API key: ")
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading API key: %w", err)
		}
		cfg.Upstream.APIKey = string(keyBytes)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if !chains.DefaultSet().Contains(chain) {
		return fmt.Errorf("unsupported chain: %s", chain)
	}
	if err := validation.ValidateAddress(chain, address); err != nil {
		return err
	}

	client := upstream.New(cfg.Upstream)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second)
	defer cancel()

	params := url.Values{}
	if tokenID != "" {
		params.Set("token_id", tokenID)
	}
	path := fmt.Sprintf("nft/%d/%s/risk-report", chains.BlockchainID(chain), address)

	raw, err := client.Get(ctx, path, params)
	if err != nil {
		return fmt.Errorf("fetching risk report: %w", err)
	}

	var pretty map[string]any
	if err := json.Unmarshal(raw, &pretty); err != nil {
		// Not a JSON object; print as-is
		fmt.Println(string(raw))
		return nil
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// Server command

func runServe() error {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("starting nft-assistant-server", "version", version)

	// Initialize metrics
	metrics.Init(cfg.Metrics.Enabled, "nft-assistant")

	// Provider client
	client := upstream.New(cfg.Upstream)

	// Resolve the supported chain set from the provider, falling back to
	// the built-in defaults when the provider is unreachable.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	supported := chains.LoadFromUpstream(startupCtx, client, logger)
	cancelStartup()
	logger.Info("supported chains resolved", "chains", supported.Names())

	// Create server
	srv := server.New(cfg, client, supported, logger)

	// Create HTTP server with configurable timeouts
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Optional separate metrics server
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: srv.MetricsHandler(),
		}
		go func() {
			logger.Info("metrics listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("metrics shutdown error", "error", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
