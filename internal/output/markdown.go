package output

import (
	"fmt"
	"strings"

	"github.com/aeolens/aeolens/internal/core"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatSimulation renders one simulation as Markdown.
func (f *MarkdownFormatter) FormatSimulation(sim *core.Simulation) (string, error) {
	if sim == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s on %s\n\n",
		escapeMarkdownCell(string(sim.Request.Engine)),
		escapeMarkdownCell(sim.Request.Keyword)))
	sb.WriteString("| Visibility | Score | Sentiment | Sources | Result |\n")
	sb.WriteString("|------------|-------|-----------|---------|--------|\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
		escapeMarkdownCell(visibilityLabel(sim)),
		escapeMarkdownCell(scoreLabel(sim)),
		escapeMarkdownCell(sentimentLabel(sim)),
		escapeMarkdownCell(sourceSummary(sim, 3)),
		escapeMarkdownCell(cacheLabel(sim)),
	))

	sb.WriteString(renderReportSections(reportSections(sim), true))
	return sb.String(), nil
}

// FormatEnsemble renders an ensemble result as Markdown.
func (f *MarkdownFormatter) FormatEnsemble(result *core.EnsembleResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s ensemble on %s\n\n",
		escapeMarkdownCell(string(result.Engine)),
		escapeMarkdownCell(result.Keyword)))
	sb.WriteString("| Runs | Present | Frequency | Band |\n")
	sb.WriteString("|------|---------|-----------|------|\n")
	sb.WriteString(fmt.Sprintf("| %d/%d | %d | %.0f%% | %s |\n",
		result.Completed, result.Runs,
		result.PresentCount,
		result.Frequency*100,
		escapeMarkdownCell(string(result.Band)),
	))

	if len(result.Errors) > 0 {
		sb.WriteString("\n### Errors\n")
		for _, message := range result.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdownCell(message)))
		}
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
