package core

import (
	"fmt"
	"strings"
	"time"
)

// Engine identifies an AI answer engine.
type Engine string

const (
	EngineChatGPT    Engine = "chatgpt"
	EngineGemini     Engine = "gemini"
	EnginePerplexity Engine = "perplexity"
	EngineGrok       Engine = "grok"
)

// AllEngines lists the supported engines in a stable order.
func AllEngines() []Engine {
	return []Engine{EngineChatGPT, EngineGemini, EnginePerplexity, EngineGrok}
}

// ParseEngine validates and normalizes an engine identifier.
func ParseEngine(value string) (Engine, error) {
	normalized := Engine(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case EngineChatGPT, EngineGemini, EnginePerplexity, EngineGrok:
		return normalized, nil
	default:
		return "", fmt.Errorf("unsupported engine: %s", value)
	}
}

// SimulationRequest is the immutable input to one adapter call.
type SimulationRequest struct {
	Engine           Engine   `json:"engine"`
	Keyword          string   `json:"keyword"`
	Language         string   `json:"language"`
	Region           string   `json:"region"`
	BrandDomain      string   `json:"brand_domain"`
	BrandName        string   `json:"brand_name,omitempty"`
	BrandDescription string   `json:"brand_description,omitempty"`
	BrandAliases     []string `json:"brand_aliases,omitempty"`
	Competitors      []string `json:"competitors,omitempty"`
}

// XPostData carries X/Twitter post metadata when a citation is an X post.
type XPostData struct {
	Author  string `json:"author,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Likes   int    `json:"likes,omitempty"`
	Reposts int    `json:"reposts,omitempty"`
}

// SourceReference is a citation as returned by an engine adapter.
// Identity is the canonical URL; deduplication keeps the first occurrence.
type SourceReference struct {
	URL                 string     `json:"url"`
	Title               string     `json:"title,omitempty"`
	Snippet             string     `json:"snippet,omitempty"`
	GroundingConfidence *float64   `json:"grounding_confidence,omitempty"`
	IsXPost             bool       `json:"is_x_post,omitempty"`
	XPost               *XPostData `json:"x_post_data,omitempty"`
}

// RawResult is the unnormalized output of one adapter call.
type RawResult struct {
	Engine    Engine            `json:"engine"`
	Answer    string            `json:"answer"`
	Sources   []SourceReference `json:"sources"`
	Grounding map[string]any    `json:"grounding_metadata,omitempty"`
}

// AuthorityTier is a coarse classification of a source domain's trustworthiness.
type AuthorityTier string

const (
	TierAuthoritative AuthorityTier = "authoritative"
	TierHigh          AuthorityTier = "high"
	TierMedium        AuthorityTier = "medium"
	TierLow           AuthorityTier = "low"
)

// SourceType classifies the kind of publication behind a source.
type SourceType string

const (
	SourceTypeEditorial SourceType = "editorial"
	SourceTypeDirectory SourceType = "directory"
	SourceTypeSocial    SourceType = "social"
	SourceTypeBlog      SourceType = "blog"
	SourceTypeForum     SourceType = "forum"
	SourceTypeNews      SourceType = "news"
	SourceTypeOfficial  SourceType = "official"
)

// StandardizedSource is a SourceReference enriched by the normalizer.
type StandardizedSource struct {
	SourceReference
	Domain         string        `json:"domain"`
	IsBrandMatch   bool          `json:"is_brand_match"`
	AuthorityScore int           `json:"authority_score"`
	AuthorityTier  AuthorityTier `json:"authority_tier"`
	SourceType     SourceType    `json:"source_type"`
}

// Provenance records how one simulation attempt was resolved.
type Provenance struct {
	AttemptID   string    `json:"attempt_id"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
	FromCache   bool      `json:"from_cache"`
	ToolVersion string    `json:"tool_version,omitempty"`
}

// StandardizedResult is the canonical form of one engine answer.
//
// Sentiment is nil until the sentiment analyzer enriches the result; it must
// never be read before enrichment completes.
type StandardizedResult struct {
	Engine     Engine               `json:"engine"`
	Answer     string               `json:"answer_text"`
	Sources    []StandardizedSource `json:"sources"`
	Grounding  map[string]any       `json:"grounding_metadata,omitempty"`
	Sentiment  *SentimentAnalysis   `json:"sentiment,omitempty"`
	Provenance Provenance           `json:"provenance"`
}

// FactorScore is one independently-scored AEO sub-factor.
type FactorScore struct {
	Score  float64 `json:"score"`
	Max    float64 `json:"max"`
	Detail string  `json:"detail,omitempty"`
}

// AEOBreakdown holds the four AEO sub-factors.
type AEOBreakdown struct {
	BrandMention        FactorScore `json:"brand_mention"`
	Accuracy            FactorScore `json:"accuracy"`
	Attribution         FactorScore `json:"attribution"`
	ComparativePosition FactorScore `json:"comparative_position"`
}

// MisattributionPenalty flags claims unsupported by ground truth.
type MisattributionPenalty struct {
	Penalty      float64 `json:"penalty"`
	RiskDetected bool    `json:"risk_detected"`
	Details      string  `json:"details,omitempty"`
}

// AEOPenalties groups score penalties.
type AEOPenalties struct {
	MisattributionRisk MisattributionPenalty `json:"misattribution_risk"`
}

// AEOScore is the composite answer-engine-optimization score.
type AEOScore struct {
	TotalScore      float64      `json:"total_score"`
	NormalizedScore int          `json:"normalized_score"`
	Breakdown       AEOBreakdown `json:"breakdown"`
	Penalties       AEOPenalties `json:"penalties"`
	AnalysisNotes   []string     `json:"analysis_notes"`
}

// SentimentLabel is the coarse polarity label.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// SentimentAnalysis describes how the brand is portrayed in an answer.
type SentimentAnalysis struct {
	Polarity          float64        `json:"polarity"`
	Confidence        float64        `json:"confidence"`
	Label             SentimentLabel `json:"label"`
	KeyPhrases        []string       `json:"key_phrases"`
	Concerns          []string       `json:"concerns"`
	Praises           []string       `json:"praises"`
	NetSentimentScore int            `json:"net_sentiment_score"`
	ContextQuality    string         `json:"context_quality,omitempty"`
}

// GapAnalysis scores five optimization dimensions from 1 (weak) to 5 (strong).
type GapAnalysis struct {
	ContentDepth        int `json:"content_depth"`
	Authority           int `json:"authority"`
	Freshness           int `json:"freshness"`
	StructuredData      int `json:"structured_data"`
	ComparativePresence int `json:"comparative_presence"`
}

// ActionItem is one prioritized remediation action.
type ActionItem struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// SelectionSignals carries the recommendation engine's output for one result.
type SelectionSignals struct {
	IsVisible       bool           `json:"is_visible"`
	Sentiment       SentimentLabel `json:"sentiment"`
	WinningSources  []string       `json:"winning_sources"`
	Gap             GapAnalysis    `json:"gap_analysis"`
	ActionItems     []ActionItem   `json:"action_items"`
	QuickWins       []string       `json:"quick_wins"`
	Recommendation  string         `json:"recommendation"`
	AnalysisPartial bool           `json:"analysis_partial,omitempty"`
	ResponseLength  *int           `json:"response_length,omitempty"`
}

// ConfidenceBand classifies ensemble presence frequency.
type ConfidenceBand string

const (
	BandDefinite     ConfidenceBand = "definite"
	BandPossible     ConfidenceBand = "possible"
	BandInconclusive ConfidenceBand = "inconclusive"
	BandAbsent       ConfidenceBand = "absent"
)

// BandForFrequency maps a presence frequency in [0,1] to a confidence band.
func BandForFrequency(freq float64) ConfidenceBand {
	switch {
	case freq >= 0.6:
		return BandDefinite
	case freq >= 0.2:
		return BandPossible
	case freq > 0:
		return BandInconclusive
	default:
		return BandAbsent
	}
}

// EnsembleResult aggregates N independent repeats of one engine+query.
type EnsembleResult struct {
	Engine       Engine         `json:"engine"`
	Keyword      string         `json:"keyword"`
	Runs         int            `json:"runs"`
	Completed    int            `json:"completed"`
	PresentCount int            `json:"present_count"`
	Frequency    float64        `json:"frequency"`
	Band         ConfidenceBand `json:"band"`
	Errors       []string       `json:"errors,omitempty"`
}

// Simulation is the full artifact bundle for one attempt, persisted by an
// external collaborator. The core never mutates it after producing it.
type Simulation struct {
	ID        string              `json:"id"`
	Request   SimulationRequest   `json:"request"`
	Result    *StandardizedResult `json:"result"`
	Score     *AEOScore           `json:"score"`
	Sentiment *SentimentAnalysis  `json:"sentiment"`
	Signals   *SelectionSignals   `json:"signals"`
}
