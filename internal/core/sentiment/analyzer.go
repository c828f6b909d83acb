package sentiment

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/aeolens/aeolens/internal/ailink"
	"github.com/aeolens/aeolens/internal/core"
)

// fallbackConfidenceScale discounts the lexicon confidence when the deep
// path was unavailable.
const fallbackConfidenceScale = 0.7

// Analyzer runs the hybrid lexicon + AI sentiment pipeline. A nil Judge
// keeps the analyzer on the lexicon path only.
type Analyzer struct {
	Lexicon *Lexicon
	Judge   *ailink.Judge
}

// NewAnalyzer returns an analyzer with the default lexicon.
func NewAnalyzer(judge *ailink.Judge) *Analyzer {
	return &Analyzer{Lexicon: DefaultLexicon(), Judge: judge}
}

// Analyze produces the sentiment for one answer. It never fails: when the
// AI judge is unavailable the lexicon verdict is returned with confidence
// scaled down and a context-quality note.
func (a *Analyzer) Analyze(ctx context.Context, answer, brandName string) *core.SentimentAnalysis {
	lexicon := a.Lexicon
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}

	if !mentionsBrand(answer, brandName) {
		return &core.SentimentAnalysis{
			Polarity:          0,
			Confidence:        1,
			Label:             core.SentimentNeutral,
			NetSentimentScore: 50,
			ContextQuality:    "brand not mentioned in answer",
		}
	}

	verdict := lexicon.Score(answer)

	if a.Judge == nil {
		return fromLexicon(verdict, "lexicon-only analysis")
	}

	hint := fmt.Sprintf("%s (polarity %.2f, confidence %.2f)", LabelFor(verdict.Polarity), verdict.Polarity, verdict.Confidence)
	judged, err := a.Judge.JudgeSentiment(ctx, brandName, answer, hint)
	if err != nil {
		return fromLexicon(verdict, "deep sentiment analysis unavailable, lexicon fallback applied")
	}

	polarity := clampPolarity(judged.Polarity)
	if nudge := comparativeNudge(answer, brandName, polarity); nudge > 0 {
		polarity = clampPolarity(polarity - nudge)
	}

	label := core.SentimentLabel(judged.Label)
	switch label {
	case core.SentimentPositive, core.SentimentNeutral, core.SentimentNegative:
	default:
		label = LabelFor(polarity)
	}

	return &core.SentimentAnalysis{
		Polarity:          polarity,
		Confidence:        clamp01(judged.Confidence),
		Label:             label,
		KeyPhrases:        judged.KeyPhrases,
		Concerns:          judged.Concerns,
		Praises:           judged.Praises,
		NetSentimentScore: NetScore(polarity),
	}
}

func fromLexicon(verdict LexiconVerdict, note string) *core.SentimentAnalysis {
	return &core.SentimentAnalysis{
		Polarity:          verdict.Polarity,
		Confidence:        verdict.Confidence * fallbackConfidenceScale,
		Label:             LabelFor(verdict.Polarity),
		KeyPhrases:        append(verdict.Positives, verdict.Negatives...),
		Concerns:          verdict.Negatives,
		Praises:           verdict.Positives,
		NetSentimentScore: NetScore(verdict.Polarity),
		ContextQuality:    note,
	}
}

// NetScore converts polarity to the 0-100 score consumed by the UI.
func NetScore(polarity float64) int {
	return int(math.Round(((polarity + 1) / 2) * 100))
}

// LabelFor buckets polarity into the coarse label.
func LabelFor(polarity float64) core.SentimentLabel {
	switch {
	case polarity > 0.15:
		return core.SentimentPositive
	case polarity < -0.15:
		return core.SentimentNegative
	default:
		return core.SentimentNeutral
	}
}

// comparativePatterns detect unfavorable comparisons against the brand.
var comparativePatterns = []string{
	`better than %s`,
	`unlike %s`,
	`%s lacks`,
	`%s falls behind`,
	`instead of %s`,
	`outperforms %s`,
	`ahead of %s`,
	`%s trails`,
}

// comparativeNudge returns a downward polarity adjustment of at most 0.2
// when the answer compares unfavorably against the brand and the judged
// polarity did not already reflect it.
func comparativeNudge(answer, brandName string, judgedPolarity float64) float64 {
	if judgedPolarity <= -0.2 {
		return 0
	}
	brand := strings.TrimSpace(brandName)
	if brand == "" {
		return 0
	}

	lower := strings.ToLower(answer)
	brandPattern := regexp.QuoteMeta(strings.ToLower(brand))

	hits := 0
	for _, pattern := range comparativePatterns {
		re, err := regexp.Compile(strings.Replace(regexp.QuoteMeta(pattern), "%s", brandPattern, 1))
		if err != nil {
			continue
		}
		if re.MatchString(lower) {
			hits++
		}
	}
	if hits == 0 {
		return 0
	}

	nudge := 0.1 * float64(hits)
	if nudge > 0.2 {
		nudge = 0.2
	}
	return nudge
}

func mentionsBrand(answer, brandName string) bool {
	brand := strings.ToLower(strings.TrimSpace(brandName))
	if brand == "" {
		return false
	}
	return strings.Contains(strings.ToLower(answer), brand)
}

func clampPolarity(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
