package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Backend validation
	if cfg.Backend.BaseURL != "" {
		if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "backend.baseUrl",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Backend.BaseURL),
			})
		}
	}
	if cfg.Backend.ProbeTimeoutMS < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "backend.probeTimeoutMs",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Backend.ProbeTimeoutMS),
		})
	}
	if cfg.Backend.TimeoutMS < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "backend.timeoutMs",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Backend.TimeoutMS),
		})
	}

	// Coaching validation
	if cfg.Coaching.BaseURL != "" {
		if u, err := url.Parse(cfg.Coaching.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, ValidationIssue{
				Path:    "coaching.baseUrl",
				Message: fmt.Sprintf("must be an absolute URL, got %q", cfg.Coaching.BaseURL),
			})
		}
	}
	if cfg.Coaching.StallTimeoutMS < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "coaching.stallTimeoutMs",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Coaching.StallTimeoutMS),
		})
	}

	// Assistant validation
	if cfg.Assistant.HistoryCap < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "assistant.historyCap",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Assistant.HistoryCap),
		})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.customBindHost",
			Message: "required when bind is custom",
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
