package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseKeyValues parses a comma-separated list of key=value pairs, the
// encoding shared by OTEL_EXPORTER_OTLP_HEADERS and
// OTEL_RESOURCE_ATTRIBUTES.
//
// Each segment is split once on the first '='. Segments with no '=', an
// empty key, or an empty value are dropped without affecting their
// siblings. Duplicate keys resolve last-value-wins.
//
// This is the single implementation of the algorithm: the pipeline
// initializer and the preflight validator must agree on what a header
// string means, so neither may fork it.
func ParseKeyValues(raw string) map[string]string {
	pairs := make(map[string]string)
	if raw == "" {
		return pairs
	}

	for _, segment := range strings.Split(raw, ",") {
		segment = strings.TrimSpace(segment)
		idx := strings.Index(segment, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(segment[:idx])
		value := strings.TrimSpace(segment[idx+1:])
		if key == "" || value == "" {
			continue
		}
		pairs[key] = value
	}

	return pairs
}

// NormalizeEndpoint turns a user-supplied endpoint string into a base URL:
// https:// is assumed when no scheme is given, and a trailing slash is
// stripped. Normalization is idempotent.
func NormalizeEndpoint(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	raw = strings.TrimSuffix(raw, "/")

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", raw)
	}
	return u, nil
}

// TracesURL returns the full traces ingest URL for a normalized base
// endpoint. The /v1/traces suffix is appended only when not already
// present, so a fully-qualified URL is never double-suffixed.
func TracesURL(endpoint *url.URL) string {
	s := endpoint.String()
	if strings.HasSuffix(s, "/v1/traces") {
		return s
	}
	return s + "/v1/traces"
}

// MetricsURL returns the full metrics ingest URL for a normalized base
// endpoint, following the same append-once rule as TracesURL.
func MetricsURL(endpoint *url.URL) string {
	s := endpoint.String()
	if strings.HasSuffix(s, "/v1/metrics") {
		return s
	}
	return s + "/v1/metrics"
}

// LogsURL returns the full logs ingest URL for a normalized base endpoint.
func LogsURL(endpoint *url.URL) string {
	s := endpoint.String()
	if strings.HasSuffix(s, "/v1/logs") {
		return s
	}
	return s + "/v1/logs"
}
