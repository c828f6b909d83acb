package xai

import (
	"fmt"
	"strings"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

type chatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []chatMessage     `json:"messages"`
	ResponseFormat   *responseFormat   `json:"response_format,omitempty"`
	Temperature      *float64          `json:"temperature,omitempty"`
	MaxTokens        *int              `json:"max_tokens,omitempty"`
	SearchParameters *searchParameters `json:"search_parameters,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// searchParameters is the xAI Live Search extension. return_citations asks
// the API for a top-level citations array.
type searchParameters struct {
	Mode            string         `json:"mode,omitempty"`
	ReturnCitations bool           `json:"return_citations,omitempty"`
	Sources         []searchSource `json:"sources,omitempty"`
}

type searchSource struct {
	Type    string `json:"type"`
	Country string `json:"country,omitempty"`
	// ExcludedWebsites applies to web sources only.
	ExcludedWebsites []string `json:"excluded_websites,omitempty"`
}

func buildChatRequest(req *driver.Request) (*chatCompletionRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: flattenText(msg.Content)})
	}

	payload := &chatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.ResponseFormat != nil {
		payload.ResponseFormat = &responseFormat{Type: req.ResponseFormat.Type}
	}

	if req.Search != nil && req.Search.Enabled {
		params := &searchParameters{Mode: "auto", ReturnCitations: true}
		web := searchSource{Type: "web"}
		if country := strings.ToUpper(strings.TrimSpace(req.Search.Region)); country != "" {
			web.Country = country
		}
		params.Sources = append(params.Sources, web)
		if req.Search.XSearch {
			params.Sources = append(params.Sources, searchSource{Type: "x"})
		}
		payload.SearchParameters = params
	}

	return payload, nil
}

func flattenText(blocks []content.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Kind == content.KindText && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
