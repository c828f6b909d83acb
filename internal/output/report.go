package output

import (
	"fmt"
	"strings"

	"github.com/aeolens/aeolens/internal/core"
)

type reportSection struct {
	Title string
	Lines []string
}

func reportSections(sim *core.Simulation) []reportSection {
	if sim == nil {
		return nil
	}

	sections := make([]reportSection, 0, 3)
	if section, ok := breakdownSection(sim.Score); ok {
		sections = append(sections, section)
	}
	if section, ok := sentimentSection(sim.Sentiment); ok {
		sections = append(sections, section)
	}
	if section, ok := signalsSection(sim.Signals); ok {
		sections = append(sections, section)
	}
	return sections
}

func breakdownSection(score *core.AEOScore) (reportSection, bool) {
	if score == nil {
		return reportSection{}, false
	}

	lines := []string{
		factorLine("Brand mention", score.Breakdown.BrandMention),
		factorLine("Attribution", score.Breakdown.Attribution),
		factorLine("Comparative position", score.Breakdown.ComparativePosition),
		factorLine("Accuracy", score.Breakdown.Accuracy),
	}
	if score.Penalties.MisattributionRisk.RiskDetected {
		line := fmt.Sprintf("Misattribution penalty: %.1f", score.Penalties.MisattributionRisk.Penalty)
		if detail := strings.TrimSpace(score.Penalties.MisattributionRisk.Details); detail != "" {
			line += fmt.Sprintf(" (%s)", detail)
		}
		lines = append(lines, line)
	}
	for _, note := range score.AnalysisNotes {
		lines = append(lines, fmt.Sprintf("Note: %s", note))
	}

	return reportSection{Title: "Score Breakdown", Lines: lines}, true
}

func factorLine(name string, factor core.FactorScore) string {
	line := fmt.Sprintf("%s: %.1f/%.0f", name, factor.Score, factor.Max)
	if strings.TrimSpace(factor.Detail) != "" {
		line += fmt.Sprintf(" (%s)", factor.Detail)
	}
	return line
}

func sentimentSection(sentiment *core.SentimentAnalysis) (reportSection, bool) {
	if sentiment == nil {
		return reportSection{}, false
	}

	lines := make([]string, 0, 3)
	lines = append(lines, fmt.Sprintf("Polarity: %.2f (%s, confidence %.2f)",
		sentiment.Polarity, sentiment.Label, sentiment.Confidence))
	if len(sentiment.KeyPhrases) > 0 {
		lines = append(lines, fmt.Sprintf("Key phrases: %s", strings.Join(sentiment.KeyPhrases, "; ")))
	}
	if len(sentiment.Concerns) > 0 {
		lines = append(lines, fmt.Sprintf("Concerns: %s", strings.Join(sentiment.Concerns, "; ")))
	}

	return reportSection{Title: "Sentiment", Lines: lines}, true
}

func signalsSection(signals *core.SelectionSignals) (reportSection, bool) {
	if signals == nil {
		return reportSection{}, false
	}

	lines := make([]string, 0, 6)
	if len(signals.WinningSources) > 0 {
		lines = append(lines, fmt.Sprintf("Winning sources: %s", strings.Join(signals.WinningSources, ", ")))
	}
	for _, item := range signals.ActionItems {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", item.Priority, item.Category, item.Action))
	}
	for _, win := range signals.QuickWins {
		lines = append(lines, fmt.Sprintf("Quick win: %s", win))
	}
	if strings.TrimSpace(signals.Recommendation) != "" {
		lines = append(lines, fmt.Sprintf("Recommendation: %s", signals.Recommendation))
	}
	if signals.AnalysisPartial {
		lines = append(lines, "Analysis is partial; some factors were unavailable.")
	}
	if len(lines) == 0 {
		return reportSection{}, false
	}

	return reportSection{Title: "Recommendations", Lines: lines}, true
}

func renderReportSections(sections []reportSection, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, section := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if markdown {
			sb.WriteString(fmt.Sprintf("\n\n### %s\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString(fmt.Sprintf("- %s\n", line))
			}
		} else {
			sb.WriteString(fmt.Sprintf("\n\n%s:\n", section.Title))
			for _, line := range section.Lines {
				sb.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}
	return sb.String()
}

func visibilityLabel(sim *core.Simulation) string {
	if sim.Signals != nil && sim.Signals.IsVisible {
		return "visible"
	}
	return "not visible"
}

func scoreLabel(sim *core.Simulation) string {
	if sim.Score == nil {
		return "-"
	}
	return fmt.Sprintf("%d/100", sim.Score.NormalizedScore)
}

func sentimentLabel(sim *core.Simulation) string {
	if sim.Sentiment == nil {
		return "-"
	}
	return string(sim.Sentiment.Label)
}

func sourceSummary(sim *core.Simulation, limit int) string {
	if sim.Result == nil || len(sim.Result.Sources) == 0 {
		return "-"
	}

	domains := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, source := range sim.Result.Sources {
		if source.Domain == "" {
			continue
		}
		if _, dup := seen[source.Domain]; dup {
			continue
		}
		seen[source.Domain] = struct{}{}
		domains = append(domains, source.Domain)
		if len(domains) == limit {
			break
		}
	}
	if len(domains) == 0 {
		return "-"
	}

	summary := strings.Join(domains, ", ")
	if extra := len(sim.Result.Sources) - len(domains); extra > 0 {
		summary += fmt.Sprintf(" (+%d more)", extra)
	}
	return summary
}

func cacheLabel(sim *core.Simulation) string {
	if sim.Result != nil && sim.Result.Provenance.FromCache {
		return "cached"
	}
	return "fresh"
}
