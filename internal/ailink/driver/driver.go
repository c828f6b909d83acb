// Package driver defines the provider-agnostic contract implemented by each
// answer-engine client. Shape recognition for every provider's response lives
// inside that provider's driver; callers only see Request and Response.
package driver

import (
	"context"

	"github.com/aeolens/aeolens/internal/ailink/content"
)

// Driver is the interface implemented by AI completion providers.
type Driver interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g. "perplexity").
	Name() string
	// Capabilities returns what this driver supports.
	Capabilities() Capabilities
}

// Capabilities describes driver features.
type Capabilities struct {
	SupportsSearch    bool
	SupportsReasoning bool
	SupportedModels   []string
}

// ResponseFormat specifies the expected response format.
type ResponseFormat struct {
	Type string `json:"type"` // "text", "json_object"
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// SearchParameters enables a provider's native search grounding. Each driver
// maps these onto its own mechanism (web-search tool, live search, Google
// Search grounding) and ignores what it cannot express.
type SearchParameters struct {
	Enabled  bool
	Region   string
	Language string
	// XSearch additionally enables X/Twitter search where supported.
	XSearch bool
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model           string
	Messages        []content.Message
	Search          *SearchParameters
	ResponseFormat  *ResponseFormat
	Temperature     *float64
	MaxTokens       *int
	ReasoningEffort string
	Metadata        map[string]string
}

// Citation is a source reference extracted from a provider's native citation
// mechanism (inline annotations, a citations list, grounding chunks).
type Citation struct {
	URL        string   `json:"url"`
	Title      string   `json:"title,omitempty"`
	Snippet    string   `json:"snippet,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	IsXPost    bool     `json:"is_x_post,omitempty"`
	XAuthor    string   `json:"x_author,omitempty"`
	XHandle    string   `json:"x_handle,omitempty"`
}

// Response is a provider-agnostic completion response. Content holds every
// usable answer candidate (message text first, reasoning text last); callers
// choose the longest usable candidate.
type Response struct {
	Content      []content.Block
	Citations    []Citation
	FinishReason string
	Usage        *Usage
	Grounding    map[string]any
}
