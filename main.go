package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"askme/internal/askme"
	"askme/internal/chat"
	"askme/internal/config"
	"askme/internal/logging"
	"askme/internal/recent"
	"askme/internal/terminal"
	"askme/internal/ui"
)

func main() {
	// Load configuration, then let flags override it
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	parseFlags(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorw("askme exited with an error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags applies command-line overrides on top of cfg
func parseFlags(cfg *config.Config) {
	flag.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "AskMe backend base URL")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout (0 waits indefinitely)")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "Recent questions store: file, sqlite, redis or memory")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file (empty logs to stderr)")
	flag.BoolVar(&cfg.Plain, "plain", cfg.Plain, "Use the line-oriented interface")

	flag.Parse()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	manager, client, closeStore := newSession(ctx, cfg, logger)
	defer closeStore()

	// Health check (non-fatal)
	healthErr := client.HealthCheck(ctx)
	if healthErr != nil {
		logger.Warnw("Backend health check failed", "error", healthErr)
	}

	width, _ := terminal.Size()
	markdown := ui.NewMarkdown(width)

	if cfg.Plain || !terminal.IsTerminal() {
		display := ui.NewLineDisplay(os.Stdout, markdown, terminal.IsTerminal())
		if healthErr != nil {
			display.PrintWarning(healthErr.Error())
		}
		return runPlain(ctx, manager, display, terminal.NewInputReader(os.Stdin), cfg.APIURL)
	}

	return ui.Run(ctx, manager, markdown)
}

// newSession wires the store, cache, API client and conversation manager.
// An unusable store never prevents the conversation from starting.
func newSession(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*chat.Manager, *askme.Client, func() error) {
	store := recent.OpenOrMemory(ctx, cfg, logger)

	cache := recent.NewCache(store, logger)
	loaded := cache.LoadInitial(ctx)

	client := askme.NewClient(cfg.APIURL, cfg.Timeout, logger)
	manager := chat.NewManager(client, cache, chat.WithLogger(logger))

	logger.Infow("Starting askme",
		"api_url", cfg.APIURL,
		"store", cfg.Store,
		"recent", len(loaded),
		"session", manager.State().SessionID,
	)
	return manager, client, store.Close
}

// runPlain is the line-oriented conversation loop
func runPlain(ctx context.Context, manager *chat.Manager, display *ui.LineDisplay, input *terminal.InputReader, apiURL string) error {
	display.PrintWelcome(apiURL)

	state := manager.State()
	for _, msg := range state.Messages {
		display.PrintMessage(msg, time.Now())
	}
	if len(state.Recent) > 0 {
		display.PrintRecent(state.Recent)
	}

	for {
		if ctx.Err() != nil {
			break
		}

		// Get user input
		display.PrintPrompt()
		query, err := input.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		// Handle commands
		trimmed := strings.TrimSpace(query)
		if trimmed == "/exit" || trimmed == "/quit" {
			break
		}
		if trimmed == "/recent" {
			display.PrintRecent(manager.State().Recent)
			continue
		}
		if q, ok := recentCommand(trimmed, manager.State().Recent); ok {
			query = q
		}

		manager.SetInput(query)
		p, ok := manager.Submit(ctx, query)
		if !ok {
			continue
		}
		display.PrintMessage(chat.Message{Text: query, Sender: chat.SenderUser}, time.Now())

		display.ShowSpinner("Thinking")
		res := p.Wait()
		display.StopSpinner()

		display.PrintMessage(chat.Message{Text: res.Reply, Sender: chat.SenderBot, Failed: res.Err != nil}, time.Now())
	}

	// Print goodbye message
	display.PrintGoodbye()
	return nil
}

// recentCommand resolves "/N" to the Nth recent question
func recentCommand(cmd string, recentQs []string) (string, bool) {
	if !strings.HasPrefix(cmd, "/") {
		return "", false
	}
	n, err := strconv.Atoi(cmd[1:])
	if err != nil || n < 1 || n > len(recentQs) {
		return "", false
	}
	return recentQs[n-1], true
}
