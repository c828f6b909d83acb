package perplexity

import (
	"strings"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

type chatCompletionResponse struct {
	Choices       []choice       `json:"choices"`
	Citations     []string       `json:"citations,omitempty"`
	SearchResults []searchResult `json:"search_results,omitempty"`
	Usage         *usage         `json:"usage,omitempty"`
}

type choice struct {
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Content string `json:"content"`
}

// searchResult carries the richer metadata Perplexity returns alongside the
// flat citations list.
type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// toDriverResponse merges search_results and citations, preferring
// search_results because they carry titles and snippets for the same URLs.
func toDriverResponse(resp *chatCompletionResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &driver.EmptyResponseError{Provider: "perplexity"}
	}

	first := resp.Choices[0]
	if first.FinishReason == "content_filter" {
		return nil, &driver.ProviderError{Provider: "perplexity", Kind: driver.KindContentFilter, Message: "completion stopped by content filter"}
	}

	var blocks []content.Block
	if first.Message.Content != "" {
		blocks = append(blocks, content.Block{Kind: content.KindText, Text: first.Message.Content})
	}

	var citations []driver.Citation
	seen := make(map[string]struct{}, len(resp.SearchResults)+len(resp.Citations))
	for _, result := range resp.SearchResults {
		url := strings.TrimSpace(result.URL)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		citations = append(citations, driver.Citation{
			URL:     url,
			Title:   strings.TrimSpace(result.Title),
			Snippet: strings.TrimSpace(result.Snippet),
		})
	}
	for _, url := range resp.Citations {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		citations = append(citations, driver.Citation{URL: url})
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
