package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/config"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/extractor/gemini"
	"fleetdocs/internal/port"
)

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alt-key", r.Header.Get("x-goog-api-key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		genCfg := body["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genCfg["responseMimeType"])

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"cert_no\":"},{"text":"\"PMA-1\"}"}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	cfg := &config.ProviderConfig{APIKey: "main-key", AltAPIKey: "alt-key", UseAltKey: true}
	out, err := gemini.NewBackendWithEndpoint(cfg, server.URL).Generate(context.Background(), port.GenerateInput{Prompt: "p", JSON: true})

	require.NoError(t, err)
	assert.Equal(t, `{"cert_no":"PMA-1"}`, out.Text)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
	assert.Equal(t, "gemini", out.Provider)
}

func TestGenerate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota"}`))
	}))
	defer server.Close()

	_, err := gemini.NewBackendWithEndpoint(&config.ProviderConfig{APIKey: "k"}, server.URL).
		Generate(context.Background(), port.GenerateInput{Prompt: "p"})

	var rlErr *extractor.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, float64(17), rlErr.RetryAfter.Seconds())
}

func TestGenerate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := gemini.NewBackendWithEndpoint(&config.ProviderConfig{APIKey: "k"}, server.URL).
		Generate(context.Background(), port.GenerateInput{Prompt: "p"})
	assert.ErrorContains(t, err, "no candidates")
}
