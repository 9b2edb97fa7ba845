// Package config provides the configuration schema, loader, and backend
// registry for the Inventa gateway.
package config

import "github.com/MrWong99/inventa/internal/mcp"

// LogLevel controls log verbosity for the Inventa server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Inventa.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Completion CompletionConfig `yaml:"completion"`
	Tools      ToolsConfig      `yaml:"tools"`
	Inventory  InventoryConfig  `yaml:"inventory"`
}

// ServerConfig holds network and logging settings for the Inventa server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// BackendEntry describes a single completion backend. The Provider field is
// used to look up the constructor in the [Registry].
type BackendEntry struct {
	// Provider selects the registered backend implementation
	// (e.g., "openai", "anthropic", "ollama").
	Provider string `yaml:"provider"`

	// Model selects a specific model within the provider (e.g., "gpt-4o").
	Model string `yaml:"model"`

	// APIKey is the authentication key for the provider's API if any.
	// Supports ${VAR} environment expansion.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`
}

// CompletionConfig configures the LLM completion layer: the primary backend,
// optional fallbacks tried when the primary fails, and the loop parameters.
type CompletionConfig struct {
	BackendEntry `yaml:",inline"`

	// Fallbacks lists additional backends tried in order when the primary
	// backend fails or its circuit breaker is open. May be empty.
	Fallbacks []BackendEntry `yaml:"fallbacks"`

	// TimeoutSeconds bounds each individual completion request. Zero means
	// the backend's default timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Temperature is the sampling temperature passed to the backend.
	// When nil, a default of 0.1 applies.
	Temperature *float64 `yaml:"temperature"`

	// MaxIterations caps the number of completion rounds per chat request.
	// Zero means the default of 5.
	MaxIterations int `yaml:"max_iterations"`
}

// ToolsConfig describes how to reach the MCP tool server that backs the
// chat loop.
type ToolsConfig struct {
	// Name is a human-readable identifier for the tool server (used in logs).
	Name string `yaml:"name"`

	// Transport specifies the connection mechanism.
	Transport mcp.Transport `yaml:"transport"`

	// Command is the executable (with optional arguments) launched per
	// request when Transport is "stdio". Ignored for streamable-http.
	Command string `yaml:"command"`

	// URL is the MCP endpoint address used when Transport is
	// "streamable-http". Ignored for stdio transport.
	URL string `yaml:"url"`

	// Env holds additional environment variables injected into the
	// subprocess when Transport is "stdio". May be nil.
	Env map[string]string `yaml:"env"`
}

// ServerConfig converts the tools block into the [mcp.ServerConfig] consumed
// by the stdio dialer.
func (t ToolsConfig) ServerConfig() mcp.ServerConfig {
	return mcp.ServerConfig{
		Name:      t.Name,
		Transport: t.Transport,
		Command:   t.Command,
		URL:       t.URL,
		Env:       t.Env,
	}
}

// InventoryConfig holds settings for the inventory REST API queried by the
// inventa-tools MCP server.
type InventoryConfig struct {
	// APIURL is the base URL of the inventory REST API
	// (e.g., "http://localhost:9000/api/v1").
	APIURL string `yaml:"api_url"`

	// TimeoutSeconds bounds each inventory API request. Zero means 10s.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}
