package config

import "maps"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; changes to listen
// address or TLS require a restart and are reported via RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// LoopChanged is true when temperature or max_iterations changed.
	// The orchestrator is built at startup, so these need a restart.
	LoopChanged bool

	// ToolsChanged is true when the MCP tool server block changed. The
	// dialer is built at startup, so these need a restart.
	ToolsChanged bool

	// RestartRequired is true when a field that cannot be hot-reloaded
	// changed (listen address, TLS, completion backends).
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if !ptrEqual(old.Completion.Temperature, new.Completion.Temperature) ||
		old.Completion.MaxIterations != new.Completion.MaxIterations {
		d.LoopChanged = true
	}

	if old.Tools.Name != new.Tools.Name ||
		old.Tools.Transport != new.Tools.Transport ||
		old.Tools.Command != new.Tools.Command ||
		old.Tools.URL != new.Tools.URL ||
		!maps.Equal(old.Tools.Env, new.Tools.Env) {
		d.ToolsChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr ||
		!tlsEqual(old.Server.TLS, new.Server.TLS) ||
		!backendsEqual(old.Completion, new.Completion) {
		d.RestartRequired = true
	}

	return d
}

func ptrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func tlsEqual(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func backendsEqual(a, b CompletionConfig) bool {
	if a.BackendEntry != b.BackendEntry || a.TimeoutSeconds != b.TimeoutSeconds {
		return false
	}
	if len(a.Fallbacks) != len(b.Fallbacks) {
		return false
	}
	for i := range a.Fallbacks {
		if a.Fallbacks[i] != b.Fallbacks[i] {
			return false
		}
	}
	return true
}
