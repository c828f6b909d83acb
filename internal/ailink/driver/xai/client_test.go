package xai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient("", "")
	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: []content.Message{content.Text("user", "hi")}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClientSendsSearchParametersAndParsesCitations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		search := payload["search_parameters"].(map[string]any)
		require.Equal(t, "auto", search["mode"])
		require.Equal(t, true, search["return_citations"])
		sources := search["sources"].([]any)
		require.Len(t, sources, 2)
		web := sources[0].(map[string]any)
		require.Equal(t, "web", web["type"])
		require.Equal(t, "US", web["country"])
		require.Equal(t, "x", sources[1].(map[string]any)["type"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"content": "Acme leads the market."}, "finish_reason": "stop"}],
			"citations": [
				"https://example.com/report",
				"https://x.com/acme/status/123",
				"https://example.com/report"
			],
			"usage": {"prompt_tokens": 5, "completion_tokens": 7, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), &driver.Request{
		Model:    "test-model",
		Messages: []content.Message{content.Text("user", "best crm?")},
		Search:   &driver.SearchParameters{Enabled: true, Region: "us", XSearch: true},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	require.Equal(t, "Acme leads the market.", resp.Content[0].Text)

	require.Len(t, resp.Citations, 2)
	require.Equal(t, "https://example.com/report", resp.Citations[0].URL)
	require.False(t, resp.Citations[0].IsXPost)
	require.Equal(t, "https://x.com/acme/status/123", resp.Citations[1].URL)
	require.True(t, resp.Citations[1].IsXPost)

	require.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestClientMapsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "slow down"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: []content.Message{content.Text("user", "hi")}})
	var perr *driver.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, driver.KindRateLimit, perr.Kind)
	require.False(t, perr.Retryable())
}

func TestToDriverResponseEmptyChoices(t *testing.T) {
	_, err := toDriverResponse(&chatCompletionResponse{})
	var empty *driver.EmptyResponseError
	require.ErrorAs(t, err, &empty)
	require.Equal(t, "xai", empty.Provider)
}

func TestIsXPostURL(t *testing.T) {
	require.True(t, isXPostURL("https://x.com/user/status/1"))
	require.True(t, isXPostURL("https://twitter.com/user/status/1"))
	require.True(t, isXPostURL("https://www.x.com/user/status/1"))
	require.False(t, isXPostURL("https://x.com/user"))
	require.False(t, isXPostURL("https://example.com/x.com/status/1"))
}
