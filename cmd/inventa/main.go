// Command inventa is the Inventa chat gateway: an HTTP server that answers
// cloud inventory questions by driving an LLM tool-calling loop against an
// MCP tool server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/inventa/internal/chat"
	"github.com/MrWong99/inventa/internal/config"
	"github.com/MrWong99/inventa/internal/health"
	"github.com/MrWong99/inventa/internal/mcp"
	"github.com/MrWong99/inventa/internal/mcp/stdio"
	"github.com/MrWong99/inventa/internal/observe"
	"github.com/MrWong99/inventa/internal/resilience"
	"github.com/MrWong99/inventa/internal/server"
	"github.com/MrWong99/inventa/pkg/provider/llm"
	"github.com/MrWong99/inventa/pkg/provider/llm/anyllm"
	"github.com/MrWong99/inventa/pkg/provider/llm/openai"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Environment + configuration ────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "inventa: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "inventa: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger, logLevel := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("inventa starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "inventa",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Completion backend ────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinBackends(reg)

	completer, err := buildCompleter(cfg, reg)
	if err != nil {
		slog.Error("failed to build completion backend", "err", err)
		return 1
	}

	// ── Chat loop + tool dialer ───────────────────────────────────────────────
	orch := chat.New(completer, loopOptions(cfg, metrics)...)

	dialer, err := stdio.NewDialer(cfg.Tools.ServerConfig())
	if err != nil {
		slog.Error("failed to create tool dialer", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(logLevel, old, new)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// ── HTTP gateway ──────────────────────────────────────────────────────────
	srv := server.New(cfg.Server, orch, dialer,
		server.WithMetrics(metrics),
		server.WithHealthCheckers(toolServerChecker(cfg.Tools)),
	)

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// ── Backend wiring ────────────────────────────────────────────────────────────

// registerBuiltinBackends wires all built-in completion backend factories into
// reg. Each factory receives a config.BackendEntry and constructs the backend
// from the real implementation packages.
func registerBuiltinBackends(reg *config.Registry) {
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterCompleter(providerName, func(entry config.BackendEntry, cfg config.CompletionConfig) (llm.Completer, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			c, err := anyllm.New(providerName, entry.Model, opts...)
			if err != nil {
				return nil, err
			}
			return withTimeout(c, cfg), nil
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterCompleter("ollama", func(entry config.BackendEntry, cfg config.CompletionConfig) (llm.Completer, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		c, err := anyllm.NewOllama(entry.Model, opts...)
		if err != nil {
			return nil, err
		}
		return withTimeout(c, cfg), nil
	})

	// openai-native talks to the chat completions API through the official
	// client instead of the any-llm bridge. It applies the request timeout at
	// the HTTP client level itself.
	reg.RegisterCompleter("openai-native", func(entry config.BackendEntry, cfg config.CompletionConfig) (llm.Completer, error) {
		var opts []openai.Option
		if entry.APIKey != "" {
			opts = append(opts, openai.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if cfg.TimeoutSeconds > 0 {
			opts = append(opts, openai.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
		}
		return openai.New(entry.Model, opts...)
	})
}

// withTimeout applies the configured per-request completion deadline.
func withTimeout(c llm.Completer, cfg config.CompletionConfig) llm.Completer {
	return llm.NewTimeoutCompleter(c, time.Duration(cfg.TimeoutSeconds)*time.Second)
}

// buildCompleter instantiates the primary backend and, when fallbacks are
// configured, wraps everything in a circuit-breaking failover group.
func buildCompleter(cfg *config.Config, reg *config.Registry) (llm.Completer, error) {
	primary, err := reg.CreateCompleter(cfg.Completion.BackendEntry, cfg.Completion)
	if err != nil {
		return nil, fmt.Errorf("create completion backend %q: %w", cfg.Completion.Provider, err)
	}
	slog.Info("completion backend created",
		"provider", cfg.Completion.Provider, "model", cfg.Completion.Model)

	if len(cfg.Completion.Fallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewCompleterFallback(primary, cfg.Completion.Provider, resilience.FallbackConfig{})
	for i, fb := range cfg.Completion.Fallbacks {
		c, err := reg.CreateCompleter(fb, cfg.Completion)
		if err != nil {
			return nil, fmt.Errorf("create fallback backend %q (index %d): %w", fb.Provider, i, err)
		}
		group.AddFallback(fb.Provider, c)
		slog.Info("fallback backend created", "provider", fb.Provider, "model", fb.Model)
	}
	return group, nil
}

// loopOptions converts the completion config into chat loop options.
func loopOptions(cfg *config.Config, metrics *observe.Metrics) []chat.Option {
	opts := []chat.Option{chat.WithMetrics(metrics)}
	if cfg.Completion.MaxIterations > 0 {
		opts = append(opts, chat.WithMaxIterations(cfg.Completion.MaxIterations))
	}
	if cfg.Completion.Temperature != nil {
		opts = append(opts, chat.WithTemperature(*cfg.Completion.Temperature))
	}
	return opts
}

// ── Health ────────────────────────────────────────────────────────────────────

// toolServerChecker verifies the MCP tool server is reachable without paying
// for a full session dial: for stdio the executable must resolve on PATH, for
// streamable-http only the URL presence is checked.
func toolServerChecker(tools config.ToolsConfig) health.Checker {
	return health.Checker{
		Name: "tools",
		Check: func(_ context.Context) error {
			switch tools.Transport {
			case mcp.TransportStreamableHTTP:
				if tools.URL == "" {
					return errors.New("no tool server URL configured")
				}
				return nil
			default:
				fields := strings.Fields(tools.Command)
				if len(fields) == 0 {
					return errors.New("no tool server command configured")
				}
				if _, err := exec.LookPath(fields[0]); err != nil {
					return fmt.Errorf("tool server command: %w", err)
				}
				return nil
			}
		},
	}
}

// ── Config hot reload ─────────────────────────────────────────────────────────

// applyConfigChange applies the hot-reloadable subset of a config change and
// logs what requires a restart.
func applyConfigChange(logLevel *slog.LevelVar, old, new *config.Config) {
	diff := config.Diff(old, new)

	if diff.LogLevelChanged {
		logLevel.Set(slogLevel(diff.NewLogLevel))
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}
	if diff.LoopChanged {
		slog.Warn("completion loop settings changed; applies after restart")
	}
	if diff.ToolsChanged {
		slog.Warn("tool server settings changed; applies after restart")
	}
	if diff.RestartRequired {
		slog.Warn("configuration changes require a restart to take effect")
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Inventa — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printEntry("Backend", cfg.Completion.Provider+" / "+cfg.Completion.Model)
	printEntry("Fallbacks", fmt.Sprintf("%d", len(cfg.Completion.Fallbacks)))
	printEntry("Tool server", string(cfg.Tools.Transport))
	printEntry("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printEntry(kind, value string) {
	if value == "" || value == " / " {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s  : %-19s ║\n", kind, value)
}

// ── Logger ────────────────────────────────────────────────────────────────────

// newLogger builds the process logger with a mutable level so the config
// watcher can adjust verbosity at runtime.
func newLogger(level config.LogLevel) (*slog.Logger, *slog.LevelVar) {
	lvl := new(slog.LevelVar)
	lvl.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), lvl
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
