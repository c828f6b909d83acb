package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/urlutil"
)

// engineDomains are the answer engines' own hosts. Plain-text mentions of
// these are interface chrome, not sources.
var engineDomains = []string{
	"openai.com",
	"chatgpt.com",
	"perplexity.ai",
	"x.ai",
	"grok.com",
	"google.com",
	"gemini.google.com",
	"vertexai.google.com",
}

// Adapter runs one simulation request against one engine driver and shapes
// the provider-specific response into a RawResult. All shape recognition
// stays inside the driver; the adapter only merges answer candidates and
// source mechanisms.
type Adapter struct {
	Engine          core.Engine
	Driver          driver.Driver
	Model           string
	Timeout         time.Duration
	SearchEnabled   bool
	ReasoningEffort string
	Temperature     *float64
	MaxTokens       *int
}

// Run issues the query and returns the raw answer plus a deduplicated source
// list. The answer is returned even when very short; nothing is fabricated.
func (a *Adapter) Run(ctx context.Context, req core.SimulationRequest) (*core.RawResult, error) {
	if a == nil || a.Driver == nil {
		return nil, errors.New("adapter driver not configured")
	}
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, errors.New("keyword is required")
	}

	driverReq := &driver.Request{
		Model:           a.Model,
		Messages:        buildQuery(keyword, req.Language, req.Region),
		ReasoningEffort: a.ReasoningEffort,
		Temperature:     a.Temperature,
		MaxTokens:       a.MaxTokens,
	}
	if a.SearchEnabled && a.Driver.Capabilities().SupportsSearch {
		driverReq.Search = &driver.SearchParameters{
			Enabled:  true,
			Region:   req.Region,
			Language: req.Language,
			XSearch:  a.Engine == core.EngineGrok,
		}
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	resp, err := a.Driver.Complete(ctx, driverReq)
	if err != nil {
		return nil, err
	}

	answer := cleanAnswer(bestCandidate(resp))
	if strings.TrimSpace(answer) == "" && len(resp.Citations) == 0 {
		return nil, &driver.EmptyResponseError{Provider: a.Driver.Name()}
	}

	sources := mergeSources(resp.Citations, answer)

	grounding := map[string]any{
		"search_enabled": driverReq.Search != nil,
		"citation_count": len(resp.Citations),
	}
	if resp.FinishReason != "" {
		grounding["finish_reason"] = resp.FinishReason
	}
	for k, v := range resp.Grounding {
		grounding[k] = v
	}

	return &core.RawResult{
		Engine:    a.Engine,
		Answer:    answer,
		Sources:   sources,
		Grounding: grounding,
	}, nil
}

func buildQuery(keyword, language, region string) []content.Message {
	var hints []string
	if region = strings.TrimSpace(region); region != "" {
		hints = append(hints, fmt.Sprintf("Answer for a user located in %s.", strings.ToUpper(region)))
	}
	if language = strings.TrimSpace(language); language != "" {
		hints = append(hints, fmt.Sprintf("Respond in the language with code %q.", strings.ToLower(language)))
	}

	messages := make([]content.Message, 0, 2)
	if len(hints) > 0 {
		messages = append(messages, content.Text("system", strings.Join(hints, " ")))
	}
	messages = append(messages, content.Text("user", keyword))
	return messages
}

// bestCandidate picks the longest usable answer text, preferring message
// text over reasoning traces.
func bestCandidate(resp *driver.Response) string {
	if resp == nil {
		return ""
	}
	var bestText, bestReasoning string
	for _, block := range resp.Content {
		switch block.Kind {
		case content.KindText:
			if len(block.Text) > len(bestText) {
				bestText = block.Text
			}
		case content.KindReasoning:
			if len(block.Text) > len(bestReasoning) {
				bestReasoning = block.Text
			}
		}
	}
	if strings.TrimSpace(bestText) != "" {
		return bestText
	}
	return bestReasoning
}

var (
	toolCallRe     = regexp.MustCompile(`(?s)<tool_call>.*?</tool_call>`)
	specialTokenRe = regexp.MustCompile(`<\|[^|>]*\|>`)
)

// cleanAnswer strips provider markup that leaks into answer text.
func cleanAnswer(text string) string {
	text = toolCallRe.ReplaceAllString(text, "")
	text = specialTokenRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// mergeSources combines every citation mechanism in priority order: native
// citations, markdown links in the answer, bare URLs, and finally plain-text
// domain mentions. Identity is the canonical URL; the first occurrence wins.
func mergeSources(citations []driver.Citation, answer string) []core.SourceReference {
	var out []core.SourceReference
	seen := make(map[string]struct{})

	add := func(ref core.SourceReference) {
		key := urlutil.Canonical(ref.URL)
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}

	for _, c := range citations {
		ref := core.SourceReference{
			URL:                 c.URL,
			Title:               c.Title,
			Snippet:             c.Snippet,
			GroundingConfidence: c.Confidence,
			IsXPost:             c.IsXPost,
		}
		if c.XAuthor != "" || c.XHandle != "" {
			ref.XPost = &core.XPostData{Author: c.XAuthor, Handle: c.XHandle}
		}
		add(ref)
	}

	for _, link := range urlutil.ExtractMarkdownLinks(answer) {
		add(core.SourceReference{URL: link.URL, Title: link.Text})
	}

	for _, url := range urlutil.ExtractURLs(answer) {
		add(core.SourceReference{URL: url})
	}

	// Plain-text mentions only add hosts no earlier mechanism covered.
	seenHosts := make(map[string]struct{}, len(out))
	for _, ref := range out {
		if host := urlutil.Host(ref.URL); host != "" {
			seenHosts[host] = struct{}{}
		}
	}
	for _, domain := range urlutil.ExtractDomainMentions(answer, engineDomains) {
		if _, ok := seenHosts[domain]; ok {
			continue
		}
		seenHosts[domain] = struct{}{}
		add(core.SourceReference{URL: urlutil.ProbableURL(domain)})
	}

	return out
}
