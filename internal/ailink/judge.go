package ailink

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/schema"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/metrics"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	judgeDefaultTimeout = 60 * time.Second
	judgeMaxTimeout     = 5 * time.Minute
)

// Judge runs the AI-assisted judgment calls behind scoring, sentiment, and
// gap analysis. Every method is total: a provider failure or unparseable
// output degrades to a labeled conservative default instead of an error.
type Judge struct {
	Driver  driver.Driver
	Model   string
	Timeout time.Duration
	Retry   RetryPolicy
}

// NewJudge returns a judge with the default retry policy.
func NewJudge(d driver.Driver, model string) *Judge {
	return &Judge{Driver: d, Model: model, Retry: DefaultRetryPolicy()}
}

// AccuracyJudgment rates how correctly an answer describes the brand.
type AccuracyJudgment struct {
	Accuracy           string `json:"accuracy"`
	MisattributionRisk bool   `json:"misattribution_risk"`
	Details            string `json:"details,omitempty"`

	// Degraded marks a conservative default produced after judge failure.
	Degraded bool   `json:"-"`
	Note     string `json:"-"`
}

// SentimentJudgment is the deep sentiment verdict.
type SentimentJudgment struct {
	Polarity   float64  `json:"polarity"`
	Confidence float64  `json:"confidence"`
	Label      string   `json:"label"`
	KeyPhrases []string `json:"key_phrases,omitempty"`
	Concerns   []string `json:"concerns,omitempty"`
	Praises    []string `json:"praises,omitempty"`
}

// GapJudgment carries gap scores and remediation proposals.
type GapJudgment struct {
	GapAnalysis struct {
		ContentDepth        int `json:"content_depth"`
		Authority           int `json:"authority"`
		Freshness           int `json:"freshness"`
		StructuredData      int `json:"structured_data"`
		ComparativePresence int `json:"comparative_presence"`
	} `json:"gap_analysis"`
	ActionItems []struct {
		Priority string `json:"priority"`
		Category string `json:"category,omitempty"`
		Action   string `json:"action"`
	} `json:"action_items"`
	Recommendation string `json:"recommendation,omitempty"`
}

// JudgeAccuracy rates answer accuracy for a brand against optional crawled
// ground truth. On failure the result is the conservative "vague" default
// with Degraded set.
func (j *Judge) JudgeAccuracy(ctx context.Context, brand, brandDescription, groundTruth, answer string) AccuracyJudgment {
	vars := map[string]string{
		"brand":             brand,
		"brand_description": brandDescription,
		"ground_truth":      truncateForPrompt(groundTruth, 8000),
		"answer":            answer,
	}

	var out AccuracyJudgment
	err := j.call(ctx, accuracySystemTemplate, accuracyUserTemplate, vars, "accuracy.json", &out)
	if err != nil {
		metrics.RecordJudgeFallback("accuracy")
		return AccuracyJudgment{
			Accuracy: "vague",
			Degraded: true,
			Note:     "accuracy judge unavailable, conservative default applied: " + err.Error(),
		}
	}
	return out
}

// JudgeSentiment runs the deep sentiment path with the lexicon verdict as a
// hint. The caller owns the fallback to the lexicon result.
func (j *Judge) JudgeSentiment(ctx context.Context, brand, answer, lexiconHint string) (*SentimentJudgment, error) {
	vars := map[string]string{
		"brand":  brand,
		"answer": answer,
		"hint":   lexiconHint,
	}

	var out SentimentJudgment
	if err := j.call(ctx, sentimentSystemTemplate, sentimentUserTemplate, vars, "sentiment.json", &out); err != nil {
		metrics.RecordJudgeFallback("sentiment")
		return nil, err
	}
	return &out, nil
}

// JudgeGap proposes remediation actions for a brand given the answer and its
// cited sources. The caller owns the deterministic fallback.
func (j *Judge) JudgeGap(ctx context.Context, brand, brandDomain, keyword, answer string, sourceURLs []string) (*GapJudgment, error) {
	sources := "(none)"
	if len(sourceURLs) > 0 {
		sources = "- " + strings.Join(sourceURLs, "\n- ")
	}
	vars := map[string]string{
		"brand":        brand,
		"brand_domain": brandDomain,
		"keyword":      keyword,
		"answer":       answer,
		"sources":      sources,
	}

	var out GapJudgment
	if err := j.call(ctx, gapSystemTemplate, gapUserTemplate, vars, "gap.json", &out); err != nil {
		metrics.RecordJudgeFallback("gap")
		return nil, err
	}
	return &out, nil
}

func (j *Judge) call(ctx context.Context, systemTmpl, userTmpl string, vars map[string]string, schemaName string, v any) error {
	if j == nil || j.Driver == nil {
		return errors.New("judge driver not configured")
	}
	if strings.TrimSpace(j.Model) == "" {
		return errors.New("judge model not configured")
	}

	systemPrompt, userPrompt := renderTemplate(systemTmpl, userTmpl, vars)

	req := &driver.Request{
		Model: j.Model,
		Messages: []content.Message{
			content.Text("system", systemPrompt),
			content.Text("user", userPrompt),
		},
		ResponseFormat: &driver.ResponseFormat{Type: "json_object"},
	}

	timeout := j.Timeout
	if timeout <= 0 {
		timeout = judgeDefaultTimeout
	}
	if timeout > judgeMaxTimeout {
		timeout = judgeMaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var raw string
	err := j.Retry.Do(ctx, func(ctx context.Context) error {
		resp, err := j.Driver.Complete(ctx, req)
		if err != nil {
			return err
		}
		raw = extractContent(resp)
		if strings.TrimSpace(raw) == "" {
			return &driver.EmptyResponseError{Provider: j.Driver.Name()}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := ParseObject(raw, v); err != nil {
		return err
	}
	return validateJudgment(schemaName, raw)
}

func validateJudgment(name, raw string) error {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return fmt.Errorf("unknown judgment schema %q", name)
	}
	validator, err := schema.NewValidator(data)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}

	// Validate the canonical parse so repaired output is judged, not the
	// raw transport bytes.
	cleaned := StripCodeFences(raw)
	if obj := ExtractObject(cleaned); obj != "" {
		cleaned = RepairJSON(obj)
	}
	diagnostics, err := validator.ValidateJSON([]byte(cleaned))
	if err != nil {
		return err
	}
	if len(diagnostics) > 0 {
		return fmt.Errorf("judgment schema validation failed: %s", diagnostics[0].Message)
	}
	return nil
}

func extractContent(resp *driver.Response) string {
	if resp == nil || len(resp.Content) == 0 {
		return ""
	}
	var best string
	for _, block := range resp.Content {
		if block.Kind != content.KindText {
			continue
		}
		if len(block.Text) > len(best) {
			best = block.Text
		}
	}
	if best != "" {
		return best
	}
	for _, block := range resp.Content {
		if len(block.Text) > len(best) {
			best = block.Text
		}
	}
	return best
}

func truncateForPrompt(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
