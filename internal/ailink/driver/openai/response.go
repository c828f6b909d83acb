package openai

import (
	"strings"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

type responsesAPIResponse struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	IncompleteDetails *incompleteDetails `json:"incomplete_details,omitempty"`
	Output            []outputItem       `json:"output"`
	Usage             *responsesUsage    `json:"usage,omitempty"`
}

type incompleteDetails struct {
	Reason string `json:"reason"`
}

type outputItem struct {
	Type    string          `json:"type"`
	Role    string          `json:"role,omitempty"`
	Content []outputContent `json:"content,omitempty"` // message items
	Summary []summaryPart   `json:"summary,omitempty"` // reasoning items
	Text    string          `json:"text,omitempty"`    // alternative text location
}

type outputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Refusal     string       `json:"refusal,omitempty"`
	Annotations []annotation `json:"annotations,omitempty"`
}

type summaryPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type annotation struct {
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// toDriverResponse recognizes the Responses API output shape. Answer text may
// live in "message" items, a flattened item-level "text" field, or (last
// resort) reasoning summaries; citations come from url_citation annotations.
func toDriverResponse(resp *responsesAPIResponse) (*driver.Response, error) {
	if resp == nil {
		return nil, &driver.EmptyResponseError{Provider: "openai"}
	}

	if resp.Status == "incomplete" && resp.IncompleteDetails != nil && resp.IncompleteDetails.Reason == "content_filter" {
		return nil, &driver.ProviderError{Provider: "openai", Kind: driver.KindContentFilter, Message: "response truncated by content filter"}
	}

	var (
		blocks    []content.Block
		citations []driver.Citation
		seenURLs  = map[string]struct{}{}
	)

	appendCitation := func(a annotation) {
		if a.Type != "url_citation" || strings.TrimSpace(a.URL) == "" {
			return
		}
		if _, ok := seenURLs[a.URL]; ok {
			return
		}
		seenURLs[a.URL] = struct{}{}
		citations = append(citations, driver.Citation{URL: a.URL, Title: a.Title})
	}

	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				switch c.Type {
				case "output_text":
					if c.Text != "" {
						blocks = append(blocks, content.Block{Kind: content.KindText, Text: c.Text})
					}
					for _, a := range c.Annotations {
						appendCitation(a)
					}
				case "refusal":
					return nil, &driver.ProviderError{Provider: "openai", Kind: driver.KindRefusal, Message: strings.TrimSpace(c.Refusal)}
				}
			}
			if item.Text != "" {
				blocks = append(blocks, content.Block{Kind: content.KindText, Text: item.Text})
			}
		case "text":
			if item.Text != "" {
				blocks = append(blocks, content.Block{Kind: content.KindText, Text: item.Text})
			}
		case "reasoning":
			for _, part := range item.Summary {
				if part.Text != "" {
					blocks = append(blocks, content.Block{Kind: content.KindReasoning, Text: part.Text})
				}
			}
		}
	}

	response := &driver.Response{
		Content:      blocks,
		Citations:    citations,
		FinishReason: "stop",
	}
	if resp.Usage != nil {
		response.Usage = &driver.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return response, nil
}
