// Package preflight verifies that configured telemetry backends are
// reachable and accept the configured credentials before a deployment is
// trusted.
//
// It re-derives configuration through the same resolver the pipeline
// initializer uses, so what it probes is exactly what the real pipeline
// would send. Each backend yields one of three states: skip (not
// configured for the cloud backend, which is a valid local-only setup),
// ok (probe accepted), or fail (probe rejected or config unusable).
package preflight

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fyrsmithlabs/beacon/internal/config"
)

// probeTimeout bounds each probe request. A hung preflight check defeats
// its purpose.
const probeTimeout = 5 * time.Second

// emptySpanBatch is a syntactically valid OTLP/HTTP trace payload that
// carries no spans. Backends authenticate it without storing anything.
const emptySpanBatch = `{"resourceSpans":[]}`

// Outcome is the classified result of probing one backend.
type Outcome struct {
	OK     bool
	Skip   bool
	Detail string
}

// Results holds one outcome per backend.
type Results struct {
	Tracing   Outcome
	Profiling Outcome
}

// Passed reports whether the run counts as success: every backend either
// accepted its probe or was intentionally skipped.
func (r Results) Passed() bool {
	for _, o := range []Outcome{r.Tracing, r.Profiling} {
		if !o.OK && !o.Skip {
			return false
		}
	}
	return true
}

// Checker probes telemetry backends for a resolved config snapshot.
type Checker struct {
	cfg    *config.Telemetry
	client *http.Client
}

// New builds a Checker. The probe client applies a bounded timeout.
func New(cfg *config.Telemetry) *Checker {
	return &Checker{
		cfg:    cfg,
		client: &http.Client{Timeout: probeTimeout},
	}
}

// Run probes every backend and returns the collected outcomes.
func (c *Checker) Run(ctx context.Context) Results {
	return Results{
		Tracing:   c.CheckTracing(ctx),
		Profiling: c.CheckProfiling(ctx),
	}
}

// CheckTracing sends an empty span batch to the traces endpoint with the
// parsed auth headers. 401/403 classify as auth failure, any other >=400
// as a generic failure, everything else as success.
func (c *Checker) CheckTracing(ctx context.Context) Outcome {
	// The pipeline would silently fall back to the local collector here;
	// preflight's job is to say so out loud.
	if c.cfg.EndpointInvalidReason != "" {
		return Outcome{Detail: c.cfg.EndpointInvalidReason}
	}
	if !config.IsCloud(c.cfg.Endpoint) {
		return Outcome{Skip: true, Detail: "endpoint is not a cloud backend; local setups need no credentials"}
	}
	if _, ok := c.cfg.Headers["Authorization"]; !ok {
		return Outcome{Detail: "cloud endpoint configured without an Authorization header in OTEL_EXPORTER_OTLP_HEADERS"}
	}

	return c.probeTracing(ctx, config.TracesURL(c.cfg.Endpoint))
}

// probeTracing does the live write and classifies the response.
func (c *Checker) probeTracing(ctx context.Context, url string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(emptySpanBatch))
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("building probe request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("probe request failed: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Outcome{Detail: fmt.Sprintf("authentication rejected (HTTP %d): check OTEL_EXPORTER_OTLP_HEADERS", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return Outcome{Detail: fmt.Sprintf("endpoint rejected probe (HTTP %d)", resp.StatusCode)}
	default:
		return Outcome{OK: true, Detail: fmt.Sprintf("accepted (HTTP %d)", resp.StatusCode)}
	}
}

// CheckProfiling sends a minimal synthetic profile to the ingest endpoint
// using basic auth. Only 401/403 classify as failure: any other status,
// including a 4xx payload rejection, means the credentials were accepted
// before payload validation ran, which is all this probe is for.
func (c *Checker) CheckProfiling(ctx context.Context) Outcome {
	if !config.IsCloud(c.cfg.ProfilingURL) {
		return Outcome{Skip: true, Detail: "profiling is not configured for a cloud backend"}
	}
	auth := c.cfg.ProfilingAuth
	if auth == nil || auth.User == "" || auth.Password == "" {
		return Outcome{Detail: "cloud profiling endpoint configured without PYROSCOPE_BASIC_AUTH_USER and PYROSCOPE_BASIC_AUTH_PASSWORD"}
	}

	return c.probeProfiling(ctx, c.cfg.ProfilingURL.String(), auth)
}

// probeProfiling does the live write and classifies the response.
func (c *Checker) probeProfiling(ctx context.Context, base string, auth *config.BasicAuth) Outcome {
	now := time.Now().Unix()
	url := fmt.Sprintf("%s/ingest?name=%s&from=%d&until=%d&format=folded",
		base, c.cfg.ServiceName, now-10, now)

	body := bytes.NewBufferString("preflight;probe 1\n")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("building probe request: %v", err)}
	}
	req.Header.Set("Content-Type", "text/plain")
	req.SetBasicAuth(auth.User, auth.Password)

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("probe request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Outcome{Detail: fmt.Sprintf("authentication rejected (HTTP %d): check PYROSCOPE_BASIC_AUTH_USER and PYROSCOPE_BASIC_AUTH_PASSWORD", resp.StatusCode)}
	}
	return Outcome{OK: true, Detail: fmt.Sprintf("credentials accepted (HTTP %d)", resp.StatusCode)}
}
