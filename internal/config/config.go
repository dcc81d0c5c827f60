package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			ProbeTimeoutMS: 2000,
			TimeoutMS:      15000,
		},
		Coaching: CoachingConfig{
			StallTimeoutMS: 30000,
		},
		Assistant: AssistantConfig{
			HistoryCap: 200,
		},
		Gateway: GatewayConfig{
			Port: 18690,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
