package nlp

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ConnectivityProbe reports whether the coaching backend is reachable.
// It is an injected capability so tests can decide the path deterministically
// instead of performing a real network round-trip.
type ConnectivityProbe interface {
	Online(ctx context.Context) bool
}

// HealthProbe probes GET {base}/health with a bounded timeout.
// A timeout or any non-200 response means offline.
type HealthProbe struct {
	url  string
	http *http.Client
}

// NewHealthProbe creates a probe against the backend's health endpoint.
func NewHealthProbe(baseURL string, timeout time.Duration) *HealthProbe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthProbe{
		url:  strings.TrimRight(baseURL, "/") + "/health",
		http: &http.Client{Timeout: timeout},
	}
}

// Online performs the probe.
func (p *HealthProbe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// StaticProbe always reports the configured state. Used in tests and by the
// one-shot CLI chat command, which never goes online.
type StaticProbe bool

// Online returns the fixed state.
func (p StaticProbe) Online(context.Context) bool { return bool(p) }
