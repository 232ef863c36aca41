package structured

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provenlabs/agentcore/agent"
	"github.com/provenlabs/agentcore/artifact"
)

func toolResponse(content, payload string) *agent.Response {
	return &agent.Response{
		Success:     true,
		Content:     content,
		Metadata:    map[string]any{agent.MetaToolsUsed: true},
		ToolResults: []string{payload},
	}
}

func liveValidator(t *testing.T) (*artifact.Validator, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return artifact.NewValidator([]string{u.Hostname()}), srv.URL
}

func TestExtract_ToolProducedVerified(t *testing.T) {
	v, base := liveValidator(t)
	imageURL := base + "/generated/sunset.png"
	resp := toolResponse("Here is your sunset: "+imageURL, `{"url": "`+imageURL+`"}`)

	result := Extract(context.Background(), resp, v)

	assert.True(t, result.Success)
	assert.Equal(t, SourceToolVerified, result.Source)
	assert.Equal(t, imageURL, result.URL)
}

func TestExtract_UntrustedOriginFailsValidation(t *testing.T) {
	v := artifact.NewValidator([]string{"storage.googleapis.com"})
	badURL := "https://storage.googleapis.com.attacker.io/sunset.png"
	resp := toolResponse("Done: "+badURL, `{"url": "`+badURL+`"}`)

	result := Extract(context.Background(), resp, v)

	assert.False(t, result.Success)
	assert.Equal(t, SourceValidationFailed, result.Source)
	assert.Contains(t, result.Description, "allow-list")
}

func TestExtract_UnreachableArtifactFailsValidation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	v := artifact.NewValidator([]string{u.Hostname()})
	resp := toolResponse("Done", `{"url": "`+srv.URL+`/gone.png"}`)

	result := Extract(context.Background(), resp, v)

	assert.False(t, result.Success)
	assert.Equal(t, SourceValidationFailed, result.Source)
	assert.Contains(t, result.Description, "liveness")
}

func TestExtract_ModelOnlyFabrication(t *testing.T) {
	// The model narrates a plausible URL but no tool ever ran.
	resp := &agent.Response{
		Success:  true,
		Content:  "I generated it: https://storage.googleapis.com/fake/sunset.png",
		Metadata: map[string]any{agent.MetaToolsUsed: false},
	}

	result := Extract(context.Background(), resp, artifact.NewValidator([]string{"storage.googleapis.com"}))

	assert.False(t, result.Success)
	assert.Equal(t, SourceModelOnly, result.Source)
	assert.Equal(t, "https://storage.googleapis.com/fake/sunset.png", result.URL)
}

func TestExtract_NoURLFound(t *testing.T) {
	resp := &agent.Response{
		Success:  true,
		Content:  "I could not generate an image.",
		Metadata: map[string]any{agent.MetaToolsUsed: true},
	}

	result := Extract(context.Background(), resp, nil)

	assert.False(t, result.Success)
	assert.Equal(t, SourceNone, result.Source)
	assert.Empty(t, result.URL)
}

func TestExtract_ToolProducedUnverifiedWithoutValidator(t *testing.T) {
	resp := toolResponse("url: https://storage.googleapis.com/x.png", `{"url": "https://storage.googleapis.com/x.png"}`)

	result := Extract(context.Background(), resp, nil)

	assert.False(t, result.Success)
	assert.Equal(t, SourceToolUnverified, result.Source)
}

func TestExtract_PrefersStructuredPayloadFieldOverContent(t *testing.T) {
	v := artifact.NewValidator([]string{"storage.googleapis.com"})
	resp := toolResponse(
		"See https://decoy.example.com/a.png",
		`{"url": "https://storage.googleapis.com/real.png"}`,
	)

	result := Extract(context.Background(), resp, v)
	assert.Equal(t, "https://storage.googleapis.com/real.png", result.URL)
}

func TestExtract_FallsBackToContentScan(t *testing.T) {
	resp := &agent.Response{
		Success:  true,
		Content:  "Result at https://storage.googleapis.com/scan.png, enjoy.",
		Metadata: map[string]any{agent.MetaToolsUsed: true},
	}

	result := Extract(context.Background(), resp, nil)
	assert.Equal(t, "https://storage.googleapis.com/scan.png", result.URL)
}

func TestExtract_Idempotent(t *testing.T) {
	v, base := liveValidator(t)
	resp := toolResponse("img: "+base+"/a.png", `{"url": "`+base+`/a.png"}`)

	first := Extract(context.Background(), resp, v)
	second := Extract(context.Background(), resp, v)

	assert.Equal(t, first, second)
}
