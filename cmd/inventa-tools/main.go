// Command inventa-tools is the MCP tool server for the cloud inventory API.
// It speaks MCP over stdio and is typically launched as a subprocess by the
// inventa gateway, once per chat request.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/inventa/internal/config"
	"github.com/MrWong99/inventa/internal/inventory"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	apiURL := flag.String("api-url", "", "inventory API base URL (overrides the config file)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inventa-tools: %v\n", err)
		return 1
	}

	// The MCP transport owns stdout, so all logging goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	baseURL := cfg.Inventory.APIURL
	if *apiURL != "" {
		baseURL = *apiURL
	}
	if baseURL == "" {
		fmt.Fprintln(os.Stderr, "inventa-tools: inventory.api_url is required")
		return 1
	}

	var clientOpts []inventory.ClientOption
	if cfg.Inventory.TimeoutSeconds > 0 {
		clientOpts = append(clientOpts,
			inventory.WithTimeout(time.Duration(cfg.Inventory.TimeoutSeconds)*time.Second))
	}
	client := inventory.NewClient(baseURL, clientOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("inventa-tools starting", "version", version, "api_url", baseURL)

	server := inventory.NewServer(client, version)
	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mcp server error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
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
