package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/inventa/pkg/provider/llm"
	llmmock "github.com/MrWong99/inventa/pkg/provider/llm/mock"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
completion:
  provider: openai
  model: gpt-4o
  api_key: sk-test
  timeout_seconds: 30
  temperature: 0.1
  max_iterations: 5
  fallbacks:
    - provider: ollama
      model: llama3
tools:
  name: inventory
  transport: stdio
  command: inventa-tools -config /etc/inventa/config.yaml
  env:
    INVENTORY_API_URL: http://localhost:9000/api/v1
inventory:
  api_url: http://localhost:9000/api/v1
  timeout_seconds: 10
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader() error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogDebug {
		t.Errorf("LogLevel = %q", cfg.Server.LogLevel)
	}
	if cfg.Completion.Provider != "openai" || cfg.Completion.Model != "gpt-4o" {
		t.Errorf("primary backend = %+v", cfg.Completion.BackendEntry)
	}
	if cfg.Completion.Temperature == nil || *cfg.Completion.Temperature != 0.1 {
		t.Errorf("Temperature = %v", cfg.Completion.Temperature)
	}
	if len(cfg.Completion.Fallbacks) != 1 || cfg.Completion.Fallbacks[0].Provider != "ollama" {
		t.Errorf("Fallbacks = %+v", cfg.Completion.Fallbacks)
	}
	if cfg.Tools.Command != "inventa-tools -config /etc/inventa/config.yaml" {
		t.Errorf("Tools.Command = %q", cfg.Tools.Command)
	}
	if cfg.Tools.Env["INVENTORY_API_URL"] != "http://localhost:9000/api/v1" {
		t.Errorf("Tools.Env = %v", cfg.Tools.Env)
	}
	if cfg.Inventory.TimeoutSeconds != 10 {
		t.Errorf("Inventory.TimeoutSeconds = %d", cfg.Inventory.TimeoutSeconds)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
server:
  listen_addr: ":8080"
  log_levle: debug
completion:
  provider: openai
  model: gpt-4o
tools:
  transport: stdio
  command: inventa-tools
`))
	if err == nil {
		t.Fatal("expected error for misspelled field, got nil")
	}
}

func TestLoadFromReader_EnvExpansion(t *testing.T) {
	t.Setenv("INVENTA_TEST_KEY", "sk-from-env")

	cfg, err := LoadFromReader(strings.NewReader(`
completion:
  provider: openai
  model: gpt-4o
  api_key: ${INVENTA_TEST_KEY}
tools:
  transport: stdio
  command: inventa-tools
`))
	if err != nil {
		t.Fatalf("LoadFromReader() error: %v", err)
	}
	if cfg.Completion.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want value from environment", cfg.Completion.APIKey)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Completion: CompletionConfig{
				BackendEntry: BackendEntry{Provider: "openai", Model: "gpt-4o"},
			},
			Tools: ToolsConfig{Transport: "stdio", Command: "inventa-tools"},
			Inventory: InventoryConfig{APIURL: "http://localhost:9000/api/v1"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "tls missing key file",
			mutate:  func(c *Config) { c.Server.TLS = &TLSConfig{CertFile: "cert.pem"} },
			wantErr: "cert_file and key_file",
		},
		{
			name:    "missing provider",
			mutate:  func(c *Config) { c.Completion.Provider = "" },
			wantErr: "completion.provider is required",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Completion.Model = "" },
			wantErr: "completion.model is required",
		},
		{
			name: "fallback missing model",
			mutate: func(c *Config) {
				c.Completion.Fallbacks = []BackendEntry{{Provider: "ollama"}}
			},
			wantErr: "completion.fallbacks[0].model is required",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Completion.TimeoutSeconds = -1 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "negative max iterations",
			mutate:  func(c *Config) { c.Completion.MaxIterations = -5 },
			wantErr: "max_iterations",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				temp := 2.5
				c.Completion.Temperature = &temp
			},
			wantErr: "temperature",
		},
		{
			name:    "bad transport",
			mutate:  func(c *Config) { c.Tools.Transport = "websocket" },
			wantErr: "tools.transport",
		},
		{
			name: "stdio without command",
			mutate: func(c *Config) {
				c.Tools.Command = ""
			},
			wantErr: "tools.command is required",
		},
		{
			name: "streamable-http without url",
			mutate: func(c *Config) {
				c.Tools.Transport = "streamable-http"
				c.Tools.Command = ""
			},
			wantErr: "tools.url is required",
		},
		{
			name:    "negative inventory timeout",
			mutate:  func(c *Config) { c.Inventory.TimeoutSeconds = -1 },
			wantErr: "inventory.timeout_seconds",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tc.mutate(cfg)
			err := Validate(cfg)

			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.RegisterCompleter("mock", func(entry BackendEntry, _ CompletionConfig) (llm.Completer, error) {
		return &llmmock.Completer{Responses: []string{entry.Model}}, nil
	})

	c, err := reg.CreateCompleter(BackendEntry{Provider: "mock", Model: "test-model"}, CompletionConfig{})
	if err != nil {
		t.Fatalf("CreateCompleter() error: %v", err)
	}
	if c == nil {
		t.Fatal("CreateCompleter() returned nil completer")
	}

	_, err = reg.CreateCompleter(BackendEntry{Provider: "nope"}, CompletionConfig{})
	if !errors.Is(err, ErrBackendNotRegistered) {
		t.Errorf("CreateCompleter(unregistered) error = %v, want ErrBackendNotRegistered", err)
	}
}

func TestToolsConfig_ServerConfig(t *testing.T) {
	t.Parallel()

	tc := ToolsConfig{
		Name:      "inventory",
		Transport: "stdio",
		Command:   "inventa-tools",
		Env:       map[string]string{"A": "1"},
	}
	sc := tc.ServerConfig()
	if sc.Name != "inventory" || sc.Command != "inventa-tools" || sc.Env["A"] != "1" {
		t.Errorf("ServerConfig() = %+v", sc)
	}
}
