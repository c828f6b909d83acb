package gemini

import (
	"strings"

	"google.golang.org/genai"

	"github.com/aeolens/aeolens/internal/ailink/content"
	"github.com/aeolens/aeolens/internal/ailink/driver"
)

// toDriverResponse maps a GenerateContent response. Grounding metadata
// supplies citations: each grounding chunk with a web entry becomes one
// citation, and the highest support confidence referencing that chunk is
// carried alongside it.
func toDriverResponse(resp *genai.GenerateContentResponse) (*driver.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &driver.EmptyResponseError{Provider: "gemini"}
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return nil, &driver.ProviderError{
			Provider: "gemini",
			Kind:     driver.KindContentFilter,
			Message:  "generation stopped: " + string(candidate.FinishReason),
		}
	}

	var blocks []content.Block
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			kind := content.KindText
			if part.Thought {
				kind = content.KindReasoning
			}
			blocks = append(blocks, content.Block{Kind: kind, Text: part.Text})
		}
	}

	citations := extractCitations(candidate.GroundingMetadata)

	response := &driver.Response{
		Content:      blocks,
		Citations:    citations,
		FinishReason: strings.ToLower(string(candidate.FinishReason)),
	}
	if resp.UsageMetadata != nil {
		response.Usage = &driver.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return response, nil
}

func extractCitations(md *genai.GroundingMetadata) []driver.Citation {
	if md == nil {
		return nil
	}

	confidence := make(map[int]float64, len(md.GroundingChunks))
	for _, support := range md.GroundingSupports {
		if support == nil {
			continue
		}
		for i, idx := range support.GroundingChunkIndices {
			if i >= len(support.ConfidenceScores) {
				break
			}
			score := float64(support.ConfidenceScores[i])
			if score > confidence[int(idx)] {
				confidence[int(idx)] = score
			}
		}
	}

	var citations []driver.Citation
	seen := make(map[string]struct{}, len(md.GroundingChunks))
	for i, chunk := range md.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		url := strings.TrimSpace(chunk.Web.URI)
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		citation := driver.Citation{URL: url, Title: strings.TrimSpace(chunk.Web.Title)}
		if score, ok := confidence[i]; ok {
			citation.Confidence = &score
		}
		citations = append(citations, citation)
	}
	return citations
}
