package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
	"github.com/aeolens/aeolens/internal/core"
)

// capturingDriver records the last request and replays a fixed response.
type capturingDriver struct {
	lastReq *driver.Request
	resp    *driver.Response
	err     error
	search  bool
}

func (d *capturingDriver) Complete(_ context.Context, req *driver.Request) (*driver.Response, error) {
	d.lastReq = req
	if d.err != nil {
		return nil, d.err
	}
	return d.resp, nil
}

func (d *capturingDriver) Name() string { return "capturing" }

func (d *capturingDriver) Capabilities() driver.Capabilities {
	return driver.Capabilities{SupportsSearch: d.search}
}

func textResponse(text string) *driver.Response {
	return &driver.Response{
		Content:      []content.Block{{Kind: content.KindText, Text: text}},
		FinishReason: "stop",
	}
}

func TestAdapterBuildsLocalizedQuery(t *testing.T) {
	drv := &capturingDriver{resp: textResponse("Acme is great."), search: true}
	adapter := &Adapter{Engine: core.EngineGrok, Driver: drv, Model: "grok-4", SearchEnabled: true}

	_, err := adapter.Run(context.Background(), core.SimulationRequest{
		Keyword:  "best rocket company",
		Region:   "de",
		Language: "de",
	})
	require.NoError(t, err)

	req := drv.lastReq
	require.Equal(t, "grok-4", req.Model)
	require.Len(t, req.Messages, 2)
	require.Equal(t, "system", req.Messages[0].Role)
	require.Contains(t, req.Messages[0].Content[0].Text, "DE")
	require.Equal(t, "user", req.Messages[1].Role)
	require.Equal(t, "best rocket company", req.Messages[1].Content[0].Text)

	require.NotNil(t, req.Search)
	require.True(t, req.Search.Enabled)
	require.Equal(t, "de", req.Search.Region)
	require.True(t, req.Search.XSearch)
}

func TestAdapterSkipsSearchWhenUnsupported(t *testing.T) {
	drv := &capturingDriver{resp: textResponse("answer"), search: false}
	adapter := &Adapter{Engine: core.EngineChatGPT, Driver: drv, SearchEnabled: true}

	result, err := adapter.Run(context.Background(), core.SimulationRequest{Keyword: "q"})
	require.NoError(t, err)
	require.Nil(t, drv.lastReq.Search)
	require.Equal(t, false, result.Grounding["search_enabled"])
}

func TestAdapterEmptyResponse(t *testing.T) {
	drv := &capturingDriver{resp: textResponse("   ")}
	adapter := &Adapter{Engine: core.EngineChatGPT, Driver: drv}

	_, err := adapter.Run(context.Background(), core.SimulationRequest{Keyword: "q"})
	require.Error(t, err)
	var empty *driver.EmptyResponseError
	require.True(t, errors.As(err, &empty))
}

func TestAdapterKeepsCitationOnlyResponse(t *testing.T) {
	drv := &capturingDriver{resp: &driver.Response{
		Citations: []driver.Citation{{URL: "https://acme.com"}},
	}}
	adapter := &Adapter{Engine: core.EnginePerplexity, Driver: drv}

	result, err := adapter.Run(context.Background(), core.SimulationRequest{Keyword: "q"})
	require.NoError(t, err)
	require.Empty(t, result.Answer)
	require.Len(t, result.Sources, 1)
}

func TestAdapterCleansProviderMarkup(t *testing.T) {
	raw := "<tool_call>{\"name\":\"search\"}</tool_call>Acme leads the market.<|endoftext|>"
	drv := &capturingDriver{resp: textResponse(raw)}
	adapter := &Adapter{Engine: core.EngineGrok, Driver: drv}

	result, err := adapter.Run(context.Background(), core.SimulationRequest{Keyword: "q"})
	require.NoError(t, err)
	require.Equal(t, "Acme leads the market.", result.Answer)
}

func TestAdapterFallsBackToReasoningText(t *testing.T) {
	drv := &capturingDriver{resp: &driver.Response{
		Content: []content.Block{
			{Kind: content.KindText, Text: "  "},
			{Kind: content.KindReasoning, Text: "Acme appears strongest based on recent launches."},
		},
	}}
	adapter := &Adapter{Engine: core.EngineGrok, Driver: drv}

	result, err := adapter.Run(context.Background(), core.SimulationRequest{Keyword: "q"})
	require.NoError(t, err)
	require.Equal(t, "Acme appears strongest based on recent launches.", result.Answer)
}

func TestMergeSourcesPriorityAndDedup(t *testing.T) {
	conf := 0.8
	citations := []driver.Citation{
		{URL: "https://www.acme.com/pricing?utm_source=x", Title: "Acme Pricing", Confidence: &conf},
		{URL: "https://x.com/acme/status/1", IsXPost: true, XHandle: "@acme"},
	}
	answer := "See [pricing](https://acme.com/pricing/) and https://globex.io/compare. " +
		"Reviews live on g2.com and chatgpt.com shows the chat."

	sources := mergeSources(citations, answer)
	require.Len(t, sources, 4)

	// Native citation wins over the markdown duplicate of the same page.
	require.Equal(t, "https://www.acme.com/pricing?utm_source=x", sources[0].URL)
	require.Equal(t, "Acme Pricing", sources[0].Title)
	require.NotNil(t, sources[0].GroundingConfidence)

	require.True(t, sources[1].IsXPost)
	require.Equal(t, "@acme", sources[1].XPost.Handle)

	require.Equal(t, "https://globex.io/compare", sources[2].URL)

	// Plain-text domain mention, engine hosts excluded.
	require.Equal(t, "https://g2.com", sources[3].URL)
}

func TestAdapterRequiresKeyword(t *testing.T) {
	adapter := &Adapter{Engine: core.EngineChatGPT, Driver: &capturingDriver{resp: textResponse("x")}}
	_, err := adapter.Run(context.Background(), core.SimulationRequest{Keyword: "   "})
	require.Error(t, err)
}
