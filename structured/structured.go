// Package structured converts an assembled agent response into a typed,
// machine-checkable result for artifact-producing agents. The source tag
// distinguishes tool-grounded artifacts from model-fabricated ones using the
// provenance ledger and the artifact validator — never the model's narrative.
package structured

import (
	"context"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/provenlabs/agentcore/agent"
	"github.com/provenlabs/agentcore/artifact"
)

// Source tags the trust level of an extracted artifact reference.
type Source string

const (
	// SourceToolVerified: a tool produced the artifact and both validator
	// checks passed.
	SourceToolVerified Source = "tool-produced-verified"
	// SourceToolUnverified: a tool produced the artifact but no validator
	// was configured to confirm it.
	SourceToolUnverified Source = "tool-produced-unverified"
	// SourceModelOnly: the artifact reference appeared without any
	// successful tool execution — fabricated by the model.
	SourceModelOnly Source = "model-only"
	// SourceValidationFailed: a tool produced the artifact but validation
	// downgraded its trust.
	SourceValidationFailed Source = "validation-failed"
	// SourceNone: no artifact reference was found.
	SourceNone Source = "none-found"
)

// Result is the typed output of an artifact-producing agent. Immutable once
// returned; Success requires both tool provenance and a passing validation.
type Result struct {
	Success     bool   `json:"success"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
	Source      Source `json:"source"`
}

// urlPattern matches candidate artifact references in free text.
var urlPattern = regexp.MustCompile(`https?://[^\s)"'<>]+`)

// payloadURLFields are looked up (in order) inside structured tool payloads
// before falling back to text scanning.
var payloadURLFields = []string{"url", "image_url", "uri", "result.url", "data.url"}

// Extract scans the response for an artifact reference, establishes its
// provenance from the ledger-backed metadata, and runs it through the
// validator. Extract is a pure function of its inputs: re-running it on the
// same response yields an identical result.
func Extract(ctx context.Context, resp *agent.Response, validator *artifact.Validator) *Result {
	candidate := firstURL(resp)
	if candidate == "" {
		return &Result{
			Source:      SourceNone,
			Description: "no artifact URL found in the response",
		}
	}

	if !resp.ToolsUsed() {
		return &Result{
			URL:         candidate,
			Source:      SourceModelOnly,
			Description: "artifact URL was not produced by any tool execution",
		}
	}

	if validator == nil {
		return &Result{
			URL:         candidate,
			Source:      SourceToolUnverified,
			Description: "artifact is tool-produced but no validator is configured",
		}
	}

	switch validator.Validate(ctx, candidate) {
	case artifact.StatusValid:
		return &Result{
			Success:     true,
			URL:         candidate,
			Source:      SourceToolVerified,
			Description: resp.Content,
		}
	case artifact.StatusUntrusted:
		return &Result{
			URL:         candidate,
			Source:      SourceValidationFailed,
			Description: "artifact origin is not on the trusted allow-list",
		}
	default:
		return &Result{
			URL:         candidate,
			Source:      SourceValidationFailed,
			Description: "artifact URL failed the liveness probe",
		}
	}
}

// firstURL returns the first candidate artifact reference, preferring
// structured fields in tool payloads over free-text scanning of the content.
func firstURL(resp *agent.Response) string {
	for _, payload := range resp.ToolResults {
		if !gjson.Valid(payload) {
			continue
		}
		for _, field := range payloadURLFields {
			if v := gjson.Get(payload, field); v.Exists() {
				if u := cleanURL(v.String()); u != "" {
					return u
				}
			}
		}
	}
	for _, payload := range resp.ToolResults {
		if m := urlPattern.FindString(payload); m != "" {
			return cleanURL(m)
		}
	}
	if m := urlPattern.FindString(resp.Content); m != "" {
		return cleanURL(m)
	}
	return ""
}

// cleanURL strips trailing punctuation that text scanning tends to capture.
func cleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimRight(raw, ".,;:!")
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return ""
	}
	return raw
}
