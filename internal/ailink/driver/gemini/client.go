// Package gemini implements the Gemini driver via the Google GenAI SDK with
// Google Search grounding.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

// Client implements the Gemini driver.
type Client struct {
	APIKey  string
	Timeout time.Duration

	// newClient allows tests to substitute the SDK client constructor.
	newClient func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)
}

// NewClient returns a client with defaults applied.
func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:    strings.TrimSpace(apiKey),
		newClient: genai.NewClient,
	}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Capabilities describes supported features.
func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		SupportsSearch:    true,
		SupportsReasoning: true,
	}
}

// Complete sends a generate-content request with the Google Search tool
// attached when search is enabled.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("gemini client not configured")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	constructor := c.newClient
	if constructor == nil {
		constructor = genai.NewClient
	}
	client, err := constructor(ctx, &genai.ClientConfig{APIKey: c.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	contents, cfg := buildGenerateRequest(req)

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	duration := time.Since(start)
	if err != nil {
		driver.Trace(driver.TraceEntry{
			Driver:     "gemini",
			Endpoint:   "models.generateContent",
			Model:      req.Model,
			Error:      err.Error(),
			DurationMs: duration.Milliseconds(),
		})
		return nil, driver.WrapTransport("gemini", err)
	}

	driver.Trace(driver.TraceEntry{
		Driver:     "gemini",
		Endpoint:   "models.generateContent",
		Model:      req.Model,
		DurationMs: duration.Milliseconds(),
	})

	return toDriverResponse(resp)
}

func buildGenerateRequest(req *driver.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		text := flattenText(msg.Content)
		if text == "" {
			continue
		}
		if msg.Role == "system" {
			cfg.SystemInstruction = genai.NewContentFromText(text, genai.RoleUser)
			continue
		}
		role := genai.Role(genai.RoleUser)
		if msg.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(text, role))
	}

	if req.Search != nil && req.Search.Enabled {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		cfg.Temperature = &temp
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" && len(cfg.Tools) == 0 {
		// The API rejects JSON response mode when a search tool is attached.
		cfg.ResponseMIMEType = "application/json"
	}

	return contents, cfg
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

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
