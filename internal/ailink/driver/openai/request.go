package openai

import (
	"fmt"
	"strings"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

type responsesAPIRequest struct {
	Model     string          `json:"model"`
	Input     []inputMessage  `json:"input"`
	Tools     []responsesTool `json:"tools,omitempty"`
	Reasoning *reasoning      `json:"reasoning,omitempty"`
	Text      *textOptions    `json:"text,omitempty"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesTool struct {
	Type         string        `json:"type"`
	UserLocation *userLocation `json:"user_location,omitempty"`
}

type userLocation struct {
	Type    string `json:"type"`
	Country string `json:"country,omitempty"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

type textOptions struct {
	Format *textFormat `json:"format,omitempty"`
}

type textFormat struct {
	Type string `json:"type"`
}

func buildResponsesRequest(req *driver.Request) (*responsesAPIRequest, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages are required")
	}

	input := make([]inputMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		input = append(input, inputMessage{Role: msg.Role, Content: flattenText(msg.Content)})
	}

	payload := &responsesAPIRequest{
		Model: req.Model,
		Input: input,
	}

	if req.Search != nil && req.Search.Enabled {
		tool := responsesTool{Type: "web_search"}
		if country := strings.ToUpper(strings.TrimSpace(req.Search.Region)); country != "" {
			tool.UserLocation = &userLocation{Type: "approximate", Country: country}
		}
		payload.Tools = append(payload.Tools, tool)
	}

	if effort := strings.TrimSpace(req.ReasoningEffort); effort != "" {
		payload.Reasoning = &reasoning{Effort: effort}
	}

	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		payload.Text = &textOptions{Format: &textFormat{Type: "json_object"}}
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
