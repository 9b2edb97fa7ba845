package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/MrWong99/inventa/internal/mcp"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known completion backend names.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = []string{
	"openai", "openai-native", "anthropic", "ollama", "gemini",
	"deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// ${VAR} references in the raw document are expanded from the process
// environment before decoding, so secrets like API keys can stay out of the
// file itself. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	expanded := os.Expand(string(raw), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Completion backends
	validateBackend("completion", cfg.Completion.BackendEntry, &errs)
	for i, fb := range cfg.Completion.Fallbacks {
		validateBackend(fmt.Sprintf("completion.fallbacks[%d]", i), fb, &errs)
	}
	if cfg.Completion.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("completion.timeout_seconds %d must not be negative", cfg.Completion.TimeoutSeconds))
	}
	if cfg.Completion.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("completion.max_iterations %d must not be negative", cfg.Completion.MaxIterations))
	}
	if t := cfg.Completion.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("completion.temperature %.2f is out of range [0, 2]", *t))
	}

	// Tools server
	if cfg.Tools.Transport != "" && !cfg.Tools.Transport.IsValid() {
		errs = append(errs, fmt.Errorf("tools.transport %q is invalid; valid values: stdio, streamable-http", cfg.Tools.Transport))
	}
	if cfg.Tools.Transport == mcp.TransportStdio && cfg.Tools.Command == "" {
		errs = append(errs, errors.New("tools.command is required when transport is stdio"))
	}
	if cfg.Tools.Transport == mcp.TransportStreamableHTTP && cfg.Tools.URL == "" {
		errs = append(errs, errors.New("tools.url is required when transport is streamable-http"))
	}

	// Inventory
	if cfg.Inventory.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("inventory.timeout_seconds %d must not be negative", cfg.Inventory.TimeoutSeconds))
	}
	if cfg.Inventory.APIURL == "" {
		slog.Warn("inventory.api_url is empty; the inventa-tools server will not be able to reach the inventory API")
	}

	return errors.Join(errs...)
}

// validateBackend checks a single completion backend entry and appends any
// hard failures to errs. Unknown provider names only produce a warning, since
// they may be third-party registrations.
func validateBackend(prefix string, entry BackendEntry, errs *[]error) {
	if entry.Provider == "" {
		*errs = append(*errs, fmt.Errorf("%s.provider is required", prefix))
	} else if !slices.Contains(ValidProviderNames, entry.Provider) {
		slog.Warn("unknown completion provider, may be a typo or third-party backend",
			"provider", entry.Provider,
			"known", ValidProviderNames,
		)
	}
	if entry.Model == "" {
		*errs = append(*errs, fmt.Errorf("%s.model is required", prefix))
	}
}
