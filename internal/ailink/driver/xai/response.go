package xai

import (
	"strings"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

type chatCompletionResponse struct {
	Choices   []choice `json:"choices"`
	Citations []string `json:"citations,omitempty"`
	Usage     *usage   `json:"usage,omitempty"`
}

type choice struct {
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
	Refusal          string `json:"refusal,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// toDriverResponse maps the chat shape; citations arrive as a flat URL list
// when live search ran. X post URLs are tagged so the normalizer can treat
// them as social sources.
func toDriverResponse(resp *chatCompletionResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &driver.EmptyResponseError{Provider: "xai"}
	}

	first := resp.Choices[0]
	if first.FinishReason == "content_filter" {
		return nil, &driver.ProviderError{Provider: "xai", Kind: driver.KindContentFilter, Message: "completion stopped by content filter"}
	}
	if refusal := strings.TrimSpace(first.Message.Refusal); refusal != "" {
		return nil, &driver.ProviderError{Provider: "xai", Kind: driver.KindRefusal, Message: refusal}
	}

	var blocks []content.Block
	if first.Message.Content != "" {
		blocks = append(blocks, content.Block{Kind: content.KindText, Text: first.Message.Content})
	}
	if first.Message.ReasoningContent != "" {
		blocks = append(blocks, content.Block{Kind: content.KindReasoning, Text: first.Message.ReasoningContent})
	}

	var citations []driver.Citation
	seen := make(map[string]struct{}, len(resp.Citations))
	for _, url := range resp.Citations {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		citations = append(citations, driver.Citation{URL: url, IsXPost: isXPostURL(url)})
	}

	response := &driver.Response{
		Content:      blocks,
		Citations:    citations,
		FinishReason: first.FinishReason,
	}
	if resp.Usage != nil {
		response.Usage = &driver.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return response, nil
}

func isXPostURL(url string) bool {
	lower := strings.ToLower(url)
	return (strings.Contains(lower, "://x.com/") || strings.Contains(lower, "://twitter.com/") ||
		strings.Contains(lower, "://www.x.com/") || strings.Contains(lower, "://www.twitter.com/")) &&
		strings.Contains(lower, "/status/")
}
