package artifact

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host := mustHostname(t, srv.URL)
	v := NewValidator([]string{host})

	assert.Equal(t, StatusValid, v.Validate(context.Background(), srv.URL+"/images/sunset.png"))
}

func TestValidator_UntrustedOrigin(t *testing.T) {
	v := NewValidator([]string{"storage.googleapis.com"})

	status := v.Validate(context.Background(), "https://evil.example.com/sunset.png")
	assert.Equal(t, StatusUntrusted, status)
}

func TestValidator_LookalikeOriginRejected(t *testing.T) {
	v := NewValidator([]string{"storage.googleapis.com"})

	lookalikes := []string{
		"https://storage.googleapis.com.attacker.io/sunset.png",
		"https://evil-storage.googleapis.com.attacker.io/sunset.png",
		"https://notstorage.googleapis.com/sunset.png",
		"https://storage.googleapis.com.evil.io/x",
	}
	for _, u := range lookalikes {
		assert.Equal(t, StatusUntrusted, v.Validate(context.Background(), u), u)
	}
}

func TestValidator_SubdomainIsNotSuffixMatched(t *testing.T) {
	v := NewValidator([]string{"googleapis.com"})

	// Exact origin match only: a subdomain of an allow-listed entry is still
	// a different origin.
	assert.Equal(t, StatusUntrusted, v.Validate(context.Background(), "https://storage.googleapis.com/x"))
}

func TestValidator_UnreachableArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v := NewValidator([]string{mustHostname(t, srv.URL)})
	assert.Equal(t, StatusUnreachable, v.Validate(context.Background(), srv.URL+"/missing.png"))
}

func TestValidator_DeadServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	host := mustHostname(t, srv.URL)
	target := srv.URL + "/x.png"
	srv.Close()

	v := NewValidator([]string{host})
	assert.Equal(t, StatusUnreachable, v.Validate(context.Background(), target))
}

func TestValidator_RejectsNonHTTPSchemes(t *testing.T) {
	v := NewValidator([]string{"storage.googleapis.com"})

	assert.False(t, v.Trusted("ftp://storage.googleapis.com/x"))
	assert.False(t, v.Trusted("javascript:alert(1)"))
	assert.False(t, v.Trusted("::not a url::"))
}

func TestValidator_OriginComparisonIsCaseInsensitive(t *testing.T) {
	v := NewValidator([]string{"Storage.GoogleAPIs.com"})
	assert.True(t, v.Trusted("https://storage.googleapis.com/x"))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "valid", StatusValid.String())
	assert.Equal(t, "untrusted", StatusUntrusted.String())
	assert.Equal(t, "unreachable", StatusUnreachable.String())
}

func mustHostname(t *testing.T, rawURL string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Hostname()
}
