// Package aeo computes the composite answer-engine-optimization score:
// deterministic sub-scores for mention, attribution, and comparative
// position, plus AI-judged accuracy and a misattribution penalty.
package aeo

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/aeolens/aeolens/internal/ailink"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/normalize"
	"github.com/aeolens/aeolens/internal/core/urlutil"
)

// Factor maxima and the composite range. total spans [minTotal, maxTotal];
// the quick path normalizes against the deterministic maximum only.
const (
	maxMention     = 22.0
	maxAccuracy    = 15.0
	maxAttribution = 12.0
	maxPosition    = 10.0

	misattributionPenalty = -15.0

	minTotal          = misattributionPenalty
	maxTotal          = maxMention + maxAccuracy + maxAttribution + maxPosition
	deterministicMax  = maxMention + maxAttribution + maxPosition
	partialMentionPts = 10.0
	vagueAccuracyPts  = 5.0
)

// Input is everything one scoring pass needs.
type Input struct {
	Answer           string
	BrandName        string
	BrandDomain      string
	BrandDescription string
	Aliases          []string
	Competitors      []string
	Sources          []core.StandardizedSource
	GroundTruth      string
}

// Scorer computes AEO scores. A nil Judge degrades the accuracy factor to
// its conservative default instead of failing.
type Scorer struct {
	Judge *ailink.Judge
}

// NewScorer returns a scorer backed by the given judge.
func NewScorer(judge *ailink.Judge) *Scorer {
	return &Scorer{Judge: judge}
}

// Score runs the full pipeline. The AI factors are skipped entirely when
// the brand is never mentioned.
func (s *Scorer) Score(ctx context.Context, in Input) *core.AEOScore {
	var notes []string

	mention := scoreMention(in)
	attribution := scoreAttribution(in)
	position := scorePosition(in)

	accuracy := core.FactorScore{Score: 0, Max: maxAccuracy, Detail: "none"}
	penalty := core.MisattributionPenalty{Penalty: 0}

	if mention.Score > 0 {
		judgment := s.judgeAccuracy(ctx, in)
		accuracy = accuracyFactor(judgment)
		if judgment.Degraded {
			notes = append(notes, judgment.Note)
		}
		if judgment.MisattributionRisk {
			penalty = core.MisattributionPenalty{
				Penalty:      misattributionPenalty,
				RiskDetected: true,
				Details:      judgment.Details,
			}
		}
	} else {
		notes = append(notes, "brand not mentioned, accuracy judgment skipped")
	}

	total := mention.Score + accuracy.Score + attribution.Score + position.Score + penalty.Penalty

	return &core.AEOScore{
		TotalScore:      total,
		NormalizedScore: Normalize(total),
		Breakdown: core.AEOBreakdown{
			BrandMention:        mention,
			Accuracy:            accuracy,
			Attribution:         attribution,
			ComparativePosition: position,
		},
		Penalties:     core.AEOPenalties{MisattributionRisk: penalty},
		AnalysisNotes: notes,
	}
}

// QuickScore computes the deterministic factors only, normalized against
// the deterministic maximum. No network calls.
func QuickScore(in Input) *core.AEOScore {
	mention := scoreMention(in)
	attribution := scoreAttribution(in)
	position := scorePosition(in)

	total := mention.Score + attribution.Score + position.Score
	normalized := int(math.Round(total / deterministicMax * 100))

	return &core.AEOScore{
		TotalScore:      total,
		NormalizedScore: clampScore(normalized),
		Breakdown: core.AEOBreakdown{
			BrandMention:        mention,
			Accuracy:            core.FactorScore{Score: 0, Max: maxAccuracy, Detail: "skipped"},
			Attribution:         attribution,
			ComparativePosition: position,
		},
		AnalysisNotes: []string{"quick score: deterministic factors only"},
	}
}

// Normalize maps a composite total onto [0,100].
func Normalize(total float64) int {
	normalized := int(math.Round((total - minTotal) / (maxTotal - minTotal) * 100))
	return clampScore(normalized)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (s *Scorer) judgeAccuracy(ctx context.Context, in Input) ailink.AccuracyJudgment {
	if s == nil || s.Judge == nil {
		return ailink.AccuracyJudgment{
			Accuracy: "vague",
			Degraded: true,
			Note:     "accuracy judge not configured, conservative default applied",
		}
	}
	brand := in.BrandName
	if strings.TrimSpace(brand) == "" {
		brand = in.BrandDomain
	}
	return s.Judge.JudgeAccuracy(ctx, brand, in.BrandDescription, in.GroundTruth, in.Answer)
}

func accuracyFactor(judgment ailink.AccuracyJudgment) core.FactorScore {
	switch judgment.Accuracy {
	case "accurate":
		return core.FactorScore{Score: maxAccuracy, Max: maxAccuracy, Detail: "accurate"}
	case "vague":
		return core.FactorScore{Score: vagueAccuracyPts, Max: maxAccuracy, Detail: "vague"}
	default:
		return core.FactorScore{Score: 0, Max: maxAccuracy, Detail: "none"}
	}
}

// scoreMention: exact whole-word name or alias match = 22; a significant
// name token or the domain stem = 10; else 0.
func scoreMention(in Input) core.FactorScore {
	exactTerms := make([]string, 0, 1+len(in.Aliases))
	if name := strings.TrimSpace(in.BrandName); name != "" {
		exactTerms = append(exactTerms, name)
	}
	exactTerms = append(exactTerms, in.Aliases...)

	for _, term := range exactTerms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		if wholeWordMatch(in.Answer, term) {
			return core.FactorScore{Score: maxMention, Max: maxMention, Detail: "exact"}
		}
	}

	partialTerms := significantTokens(in.BrandName)
	if stem := urlutil.DomainStem(in.BrandDomain); stem != "" {
		partialTerms = append(partialTerms, stem)
	}
	for _, term := range partialTerms {
		if wholeWordMatch(in.Answer, term) {
			return core.FactorScore{Score: partialMentionPts, Max: maxMention, Detail: "partial"}
		}
	}

	return core.FactorScore{Score: 0, Max: maxMention, Detail: "none"}
}

// scoreAttribution: the brand domain in a citation, a markdown link, or
// literally in the text = 12; else 0.
func scoreAttribution(in Input) core.FactorScore {
	domain := strings.ToLower(strings.TrimSpace(in.BrandDomain))
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return core.FactorScore{Score: 0, Max: maxAttribution, Detail: "no brand domain configured"}
	}

	for _, src := range in.Sources {
		if src.IsBrandMatch || normalize.IsBrandMatch(src.URL, domain) {
			return core.FactorScore{Score: maxAttribution, Max: maxAttribution, Detail: "cited"}
		}
	}
	for _, link := range urlutil.ExtractMarkdownLinks(in.Answer) {
		if normalize.IsBrandMatch(link.URL, domain) {
			return core.FactorScore{Score: maxAttribution, Max: maxAttribution, Detail: "linked"}
		}
	}
	if strings.Contains(strings.ToLower(in.Answer), domain) {
		return core.FactorScore{Score: maxAttribution, Max: maxAttribution, Detail: "in text"}
	}

	return core.FactorScore{Score: 0, Max: maxAttribution, Detail: "not attributed"}
}

// scorePosition: not mentioned = 0; mentioned with no competitor = 10
// (exclusive); first mention before every competitor = 10 (first);
// otherwise 5 (after competitors).
func scorePosition(in Input) core.FactorScore {
	brandIdx := firstMentionIndex(in.Answer, brandTerms(in))
	if brandIdx < 0 {
		return core.FactorScore{Score: 0, Max: maxPosition, Detail: "not_mentioned"}
	}

	competitorIdx := -1
	for _, competitor := range in.Competitors {
		if competitor = strings.TrimSpace(competitor); competitor == "" {
			continue
		}
		if idx := firstMentionIndex(in.Answer, []string{competitor}); idx >= 0 {
			if competitorIdx < 0 || idx < competitorIdx {
				competitorIdx = idx
			}
		}
	}

	switch {
	case competitorIdx < 0:
		return core.FactorScore{Score: maxPosition, Max: maxPosition, Detail: "exclusive"}
	case brandIdx < competitorIdx:
		return core.FactorScore{Score: maxPosition, Max: maxPosition, Detail: "first"}
	default:
		return core.FactorScore{Score: maxPosition / 2, Max: maxPosition, Detail: "after_competitors"}
	}
}

func brandTerms(in Input) []string {
	terms := make([]string, 0, 2+len(in.Aliases))
	if name := strings.TrimSpace(in.BrandName); name != "" {
		terms = append(terms, name)
	}
	terms = append(terms, in.Aliases...)
	if stem := urlutil.DomainStem(in.BrandDomain); stem != "" {
		terms = append(terms, stem)
	}
	return terms
}

func firstMentionIndex(text string, terms []string) int {
	best := -1
	for _, term := range terms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		re, err := wordPattern(term)
		if err != nil {
			continue
		}
		if loc := re.FindStringIndex(text); loc != nil {
			idx := loc[0]
			if idx < len(text) && !isWordByte(text[idx]) {
				idx++
			}
			if best < 0 || idx < best {
				best = idx
			}
		}
	}
	return best
}

// significantTokens returns name tokens long enough to identify the brand
// on their own.
func significantTokens(name string) []string {
	var out []string
	for _, token := range strings.Fields(name) {
		token = strings.Trim(token, ".,!?")
		if len(token) >= 4 {
			out = append(out, token)
		}
	}
	return out
}

func wholeWordMatch(text, term string) bool {
	re, err := wordPattern(term)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

var patternCache sync.Map

func wordPattern(term string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(term); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(term) + `($|[^a-z0-9])`)
	if err != nil {
		return nil, err
	}
	actual, _ := patternCache.LoadOrStore(term, re)
	return actual.(*regexp.Regexp), nil
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
