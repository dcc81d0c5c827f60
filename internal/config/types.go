package config

// Config is the root configuration for the coach service.
type Config struct {
	Backend   BackendConfig   `yaml:"backend,omitempty"`
	Coaching  CoachingConfig  `yaml:"coaching,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	Store     StoreConfig     `yaml:"store,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// BackendConfig points at the NLP backend used for online intent
// classification and question answering.
type BackendConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"`
	ProbeTimeoutMS int    `yaml:"probeTimeoutMs,omitempty"`
	TimeoutMS      int    `yaml:"timeoutMs,omitempty"`
}

// CoachingConfig controls the streaming coaching backend.
type CoachingConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	APIKey         string `yaml:"apiKey,omitempty"`
	StallTimeoutMS int    `yaml:"stallTimeoutMs,omitempty"`
}

// AssistantConfig shapes conversation behavior.
type AssistantConfig struct {
	Welcome    string `yaml:"welcome,omitempty"`
	HistoryCap int    `yaml:"historyCap,omitempty"`
}

// StoreConfig configures the conversation store.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file; empty means <base>/data/coach.db
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int    `yaml:"port,omitempty"`
	Bind           string `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string `yaml:"customBindHost,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}
