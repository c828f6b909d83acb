// Package geo produces selection signals and prioritized remediation
// recommendations using a fixed generative-engine-optimization framework:
// foundational tactics first (crawler access, schema), then third-party
// coverage, then brand consistency, then monitoring.
package geo

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aeolens/aeolens/internal/ailink"
	"github.com/aeolens/aeolens/internal/core"
)

// minUsableAnswer is the shortest answer the judge path will analyze.
// Anything shorter produces a flagged partial result.
const minUsableAnswer = 30

const (
	maxActionItems = 10
	minActionItems = 3
	maxQuickWins   = 3
)

// Input is the search context for one recommendation pass.
type Input struct {
	Engine         core.Engine
	Keyword        string
	Answer         string
	BrandName      string
	BrandDomain    string
	Sources        []core.StandardizedSource
	Visible        bool
	Sentiment      core.SentimentLabel
	SearchGrounded bool
}

// Engine turns a standardized result into selection signals. A nil Judge
// keeps recommendations on the deterministic tactic table.
type Engine struct {
	Judge *ailink.Judge
}

// NewEngine returns a recommendation engine backed by the given judge.
func NewEngine(judge *ailink.Judge) *Engine {
	return &Engine{Judge: judge}
}

// queryClass weights the tactic framework for one query.
type queryClass struct {
	local      bool
	comparison bool
	ymyl       bool
}

var (
	localRe      = regexp.MustCompile(`(?i)\b(near me|nearby|local|in my area|closest)\b`)
	comparisonRe = regexp.MustCompile(`(?i)\b(vs\.?|versus|best|top \d*|compare|comparison|alternatives?)\b`)
	ymylRe       = regexp.MustCompile(`(?i)\b(health|medical|doctor|finance|financial|loan|mortgage|insurance|legal|lawyer|tax|invest(ment)?s?)\b`)
)

func classifyQuery(keyword string) queryClass {
	return queryClass{
		local:      localRe.MatchString(keyword),
		comparison: comparisonRe.MatchString(keyword),
		ymyl:       ymylRe.MatchString(keyword),
	}
}

// tactic is one row of the fixed GEO framework.
type tactic struct {
	priority string
	category string
	action   string
	quickWin bool
	applies  func(class queryClass, in Input) bool
}

var tactics = []tactic{
	{
		priority: "foundational",
		category: "crawler-access",
		action:   "Allow AI crawlers (GPTBot, PerplexityBot, Google-Extended) in robots.txt and verify the site renders without JavaScript.",
		quickWin: true,
		applies:  func(queryClass, Input) bool { return true },
	},
	{
		priority: "foundational",
		category: "structured-data",
		action:   "Add Organization and Product schema markup so answer engines can attribute offerings to the brand.",
		quickWin: true,
		applies:  func(queryClass, Input) bool { return true },
	},
	{
		priority: "high",
		category: "third-party-coverage",
		action:   "Pursue reviews and listings on the directories and editorial sites answer engines already cite for this query.",
		applies:  func(_ queryClass, in Input) bool { return in.SearchGrounded },
	},
	{
		priority: "high",
		category: "comparison-content",
		action:   "Publish comparison pages that position the brand against the alternatives named in AI answers.",
		applies:  func(class queryClass, _ Input) bool { return class.comparison },
	},
	{
		priority: "high",
		category: "local-presence",
		action:   "Keep local business profiles complete and consistent; local-intent answers lean on them heavily.",
		applies:  func(class queryClass, _ Input) bool { return class.local },
	},
	{
		priority: "high",
		category: "authority-signals",
		action:   "Earn citations from authoritative sources; for sensitive topics answer engines strongly prefer high-trust domains.",
		applies:  func(class queryClass, _ Input) bool { return class.ymyl },
	},
	{
		priority: "medium",
		category: "brand-consistency",
		action:   "Align brand naming and descriptions across the site, profiles, and directories so engines resolve them to one entity.",
		applies:  func(queryClass, Input) bool { return true },
	},
	{
		priority: "medium",
		category: "qa-content",
		action:   "Publish question-and-answer content matching the phrasing users ask answer engines.",
		applies:  func(_ queryClass, in Input) bool { return !in.SearchGrounded },
	},
	{
		priority: "nice-to-have",
		category: "monitoring",
		action:   "Re-run this query on a schedule and track visibility changes across engines.",
		applies:  func(queryClass, Input) bool { return true },
	},
}

// Analyze produces selection signals. Answers shorter than the usable
// minimum skip the judge entirely and return a flagged partial result
// built only from deterministic evidence.
func (e *Engine) Analyze(ctx context.Context, in Input) *core.SelectionSignals {
	visible := in.Visible || hasBrandSource(in.Sources)

	if len(strings.TrimSpace(in.Answer)) < minUsableAnswer {
		length := len(in.Answer)
		return &core.SelectionSignals{
			IsVisible:       visible,
			Sentiment:       in.Sentiment,
			WinningSources:  winningSources(in.Sources),
			Gap:             deterministicGap(in, visible),
			Recommendation:  "Answer too short to analyze; re-run the query before acting on these signals.",
			AnalysisPartial: true,
			ResponseLength:  &length,
		}
	}

	class := classifyQuery(in.Keyword)
	items, quickWins, gap, recommendation := e.recommend(ctx, class, in, visible)

	return &core.SelectionSignals{
		IsVisible:      visible,
		Sentiment:      in.Sentiment,
		WinningSources: winningSources(in.Sources),
		Gap:            gap,
		ActionItems:    items,
		QuickWins:      quickWins,
		Recommendation: recommendation,
	}
}

func (e *Engine) recommend(ctx context.Context, class queryClass, in Input, visible bool) ([]core.ActionItem, []string, core.GapAnalysis, string) {
	fallbackItems, fallbackWins := tacticItems(class, in)
	fallbackGap := deterministicGap(in, visible)
	fallbackRec := executiveSummary(in, visible)

	if e == nil || e.Judge == nil {
		return fallbackItems, fallbackWins, fallbackGap, fallbackRec
	}

	urls := make([]string, 0, len(in.Sources))
	for _, src := range in.Sources {
		urls = append(urls, src.URL)
	}
	brand := in.BrandName
	if strings.TrimSpace(brand) == "" {
		brand = in.BrandDomain
	}

	judged, err := e.Judge.JudgeGap(ctx, brand, in.BrandDomain, in.Keyword, in.Answer, urls)
	if err != nil {
		return fallbackItems, fallbackWins, fallbackGap, fallbackRec
	}

	items := make([]core.ActionItem, 0, len(judged.ActionItems))
	for _, item := range judged.ActionItems {
		if strings.TrimSpace(item.Action) == "" {
			continue
		}
		items = append(items, core.ActionItem{
			Priority: item.Priority,
			Category: item.Category,
			Action:   item.Action,
		})
	}
	// Pad with framework tactics rather than inventing items; trim excess.
	for _, fallback := range fallbackItems {
		if len(items) >= minActionItems {
			break
		}
		if !containsAction(items, fallback.Action) {
			items = append(items, fallback)
		}
	}
	if len(items) > maxActionItems {
		items = items[:maxActionItems]
	}

	gap := core.GapAnalysis{
		ContentDepth:        clampGap(judged.GapAnalysis.ContentDepth),
		Authority:           clampGap(judged.GapAnalysis.Authority),
		Freshness:           clampGap(judged.GapAnalysis.Freshness),
		StructuredData:      clampGap(judged.GapAnalysis.StructuredData),
		ComparativePresence: clampGap(judged.GapAnalysis.ComparativePresence),
	}

	recommendation := strings.TrimSpace(judged.Recommendation)
	if recommendation == "" {
		recommendation = fallbackRec
	}

	return items, quickWinsFrom(items), gap, recommendation
}

func tacticItems(class queryClass, in Input) ([]core.ActionItem, []string) {
	var items []core.ActionItem
	for _, t := range tactics {
		if !t.applies(class, in) {
			continue
		}
		items = append(items, core.ActionItem{Priority: t.priority, Category: t.category, Action: t.action})
		if len(items) == maxActionItems {
			break
		}
	}
	return items, quickWinsFrom(items)
}

var quickWinCategories = map[string]struct{}{
	"crawler-access":  {},
	"structured-data": {},
	"local-presence":  {},
}

func quickWinsFrom(items []core.ActionItem) []string {
	var wins []string
	for _, item := range items {
		if len(wins) == maxQuickWins {
			break
		}
		if _, ok := quickWinCategories[item.Category]; ok {
			wins = append(wins, item.Action)
		}
	}
	return wins
}

func containsAction(items []core.ActionItem, action string) bool {
	for _, item := range items {
		if item.Action == action {
			return true
		}
	}
	return false
}

func deterministicGap(in Input, visible bool) core.GapAnalysis {
	contentDepth := 1
	switch {
	case len(in.Answer) >= 600:
		contentDepth = 4
	case len(in.Answer) >= 200:
		contentDepth = 3
	case len(in.Answer) >= minUsableAnswer:
		contentDepth = 2
	}

	authority := 1
	for _, src := range in.Sources {
		if src.IsBrandMatch && (src.AuthorityTier == core.TierAuthoritative || src.AuthorityTier == core.TierHigh) {
			authority = 4
			break
		}
		if src.IsBrandMatch {
			authority = 3
		}
	}

	comparative := 1
	if visible {
		comparative = 3
	}

	return core.GapAnalysis{
		ContentDepth:        contentDepth,
		Authority:           authority,
		Freshness:           3,
		StructuredData:      2,
		ComparativePresence: comparative,
	}
}

// winningSources lists the cited URLs by authority, highest first.
func winningSources(sources []core.StandardizedSource) []string {
	ranked := make([]core.StandardizedSource, len(sources))
	copy(ranked, sources)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AuthorityScore > ranked[j].AuthorityScore
	})

	urls := make([]string, 0, len(ranked))
	for _, src := range ranked {
		if src.URL == "" {
			continue
		}
		urls = append(urls, src.URL)
		if len(urls) == 5 {
			break
		}
	}
	return urls
}

func executiveSummary(in Input, visible bool) string {
	brand := in.BrandName
	if strings.TrimSpace(brand) == "" {
		brand = in.BrandDomain
	}
	if !visible {
		return fmt.Sprintf("%s is absent from this %s answer; prioritize the foundational tactics to become citable.", brand, in.Engine)
	}
	if in.Sentiment == core.SentimentNegative {
		return fmt.Sprintf("%s appears in this %s answer but is portrayed unfavorably; address the cited concerns and strengthen third-party coverage.", brand, in.Engine)
	}
	return fmt.Sprintf("%s is visible in this %s answer; consolidate the position with comparison content and authoritative citations.", brand, in.Engine)
}

func hasBrandSource(sources []core.StandardizedSource) bool {
	for _, src := range sources {
		if src.IsBrandMatch {
			return true
		}
	}
	return false
}

func clampGap(v int) int {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
