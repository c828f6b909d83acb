package openai

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

func TestClientSendsWebSearchToolAndParsesAnnotations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/responses", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		tools, ok := payload["tools"].([]any)
		require.True(t, ok)
		require.Len(t, tools, 1)
		tool := tools[0].(map[string]any)
		require.Equal(t, "web_search", tool["type"])
		loc := tool["user_location"].(map[string]any)
		require.Equal(t, "DE", loc["country"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "resp_1",
			"status": "completed",
			"output": [
				{"type": "reasoning", "summary": [{"type": "summary_text", "text": "thinking about it"}]},
				{"type": "message", "role": "assistant", "content": [
					{"type": "output_text", "text": "Acme is a leading CRM.", "annotations": [
						{"type": "url_citation", "url": "https://example.com/review", "title": "Review"},
						{"type": "url_citation", "url": "https://example.com/review", "title": "Review again"}
					]}
				]}
			],
			"usage": {"input_tokens": 10, "output_tokens": 20, "total_tokens": 30}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	resp, err := client.Complete(context.Background(), &driver.Request{
		Model:    "test-model",
		Messages: []content.Message{content.Text("user", "best crm?")},
		Search:   &driver.SearchParameters{Enabled: true, Region: "de"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	require.Len(t, resp.Content, 2)
	require.Equal(t, content.KindReasoning, resp.Content[0].Kind)
	require.Equal(t, content.KindText, resp.Content[1].Kind)
	require.Equal(t, "Acme is a leading CRM.", resp.Content[1].Text)

	require.Len(t, resp.Citations, 1)
	require.Equal(t, "https://example.com/review", resp.Citations[0].URL)
	require.Equal(t, "Review", resp.Citations[0].Title)

	require.NotNil(t, resp.Usage)
	require.Equal(t, 30, resp.Usage.TotalTokens)
}

func TestClientMapsRefusalToProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "completed",
			"output": [{"type": "message", "content": [{"type": "refusal", "refusal": "cannot help with that"}]}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: []content.Message{content.Text("user", "hi")}})
	require.Error(t, err)

	var perr *driver.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, driver.KindRefusal, perr.Kind)
	require.False(t, perr.Retryable())
}

func TestClientMapsContentFilterFromIncompleteStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "incomplete", "incomplete_details": {"reason": "content_filter"}, "output": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: []content.Message{content.Text("user", "hi")}})
	var perr *driver.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, driver.KindContentFilter, perr.Kind)
}

func TestClientErrorsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	client.HTTPClient = server.Client()

	_, err := client.Complete(context.Background(), &driver.Request{Model: "test", Messages: []content.Message{content.Text("user", "hi")}})
	require.Error(t, err)

	var perr *driver.ProviderError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, driver.KindAuth, perr.Kind)
	require.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	require.Contains(t, string(perr.RawResponse), "nope")
}
