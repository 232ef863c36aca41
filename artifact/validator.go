// Package artifact validates externally hosted artifacts (e.g. generated
// images) referenced by URL in agent responses. Trust requires two
// independent checks: the URL's origin must exactly match an allow-listed
// host, and a liveness probe must confirm the artifact is actually fetchable.
package artifact

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/provenlabs/agentcore/logging"
)

// Status is the validation outcome for a candidate artifact URL.
type Status int

const (
	// StatusValid means the origin is allow-listed and the probe succeeded.
	StatusValid Status = iota
	// StatusUntrusted means the origin is not on the allow-list.
	StatusUntrusted
	// StatusUnreachable means the liveness probe failed.
	StatusUnreachable
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusUntrusted:
		return "untrusted"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Options configure a Validator.
type Options struct {
	// ProbeTimeout bounds the liveness probe.
	ProbeTimeout time.Duration
	// HTTPClient allows injecting a client in tests.
	HTTPClient *http.Client
	// Logger receives validation outcomes.
	Logger logging.Logger
}

// Validator checks candidate URLs against a trusted-origin allow-list and
// probes them for liveness. It is immutable after construction and safe for
// concurrent use.
type Validator struct {
	origins map[string]struct{}
	client  *http.Client
	timeout time.Duration
	logger  logging.Logger
}

// NewValidator creates a validator trusting exactly the given origins
// (hostnames, compared case-insensitively and in full — no substring or
// suffix matching, so lookalike domains never pass).
func NewValidator(origins []string, optFns ...func(o *Options)) *Validator {
	opts := Options{
		ProbeTimeout: 10 * time.Second,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.ProbeTimeout}
	}

	trusted := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		trusted[strings.ToLower(strings.TrimSpace(o))] = struct{}{}
	}
	return &Validator{
		origins: trusted,
		client:  opts.HTTPClient,
		timeout: opts.ProbeTimeout,
		logger:  opts.Logger,
	}
}

// Validate runs both checks on a candidate URL. The origin check runs first
// so untrusted hosts are never probed.
func (v *Validator) Validate(ctx context.Context, rawURL string) Status {
	if !v.Trusted(rawURL) {
		v.logger.Warn("artifact.untrusted", "url", rawURL)
		return StatusUntrusted
	}
	if !v.probe(ctx, rawURL) {
		v.logger.Warn("artifact.unreachable", "url", rawURL)
		return StatusUnreachable
	}
	v.logger.Debug("artifact.valid", "url", rawURL)
	return StatusValid
}

// Trusted reports whether the URL's origin exactly matches an allow-listed
// entry.
func (v *Validator) Trusted(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	_, ok := v.origins[strings.ToLower(u.Hostname())]
	return ok
}

// probe issues a HEAD request and accepts any 2xx status within the timeout.
func (v *Validator) probe(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
