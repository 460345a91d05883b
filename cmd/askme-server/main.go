package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"askme/internal/config"
	"askme/internal/gemini"
	"askme/internal/logging"
	"askme/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Errorw("Server stopped with an error", "error", err)
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ServerConfig, logger *zap.SugaredLogger) error {
	model, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("initialize Gemini: %w", err)
	}
	defer model.Close()

	limiter := server.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	go func() {
		ticker := time.NewTicker(cfg.RateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: server.New(model, server.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			Limiter:        limiter,
			TrustProxy:     cfg.TrustProxy,
		}, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	logger.Infow("AskMe backend ready",
		"addr", "http://"+cfg.Addr(),
		"model", model.Model(),
		"origins", cfg.AllowedOrigins,
		"rate_limit", fmt.Sprintf("%d/%s", cfg.RateLimitRequests, cfg.RateLimitWindow),
		"trust_proxy", cfg.TrustProxy,
	)

	return serve(ctx, srv, ln, logger, shutdownTimeout)
}

// serve runs srv on ln until ctx is done, then drains in-flight requests for up
// to timeout. It returns only once the drain has finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.SugaredLogger, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		// Serving failed before any shutdown was requested.
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Infow("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Infow("Server stopped")
	return nil
}
