package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aeolens/aeolens/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatSimulation renders one simulation as a table with detail sections.
func (f *TableFormatter) FormatSimulation(sim *core.Simulation) (string, error) {
	if sim == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Engine", "Keyword", "Visibility", "Score", "Sentiment", "Sources", "Result"})
	t.AppendRow(table.Row{
		string(sim.Request.Engine),
		sim.Request.Keyword,
		visibilityLabel(sim),
		scoreLabel(sim),
		sentimentLabel(sim),
		sourceSummary(sim, 3),
		cacheLabel(sim),
	})

	rendered := t.Render()
	rendered += renderReportSections(reportSections(sim), false)
	return rendered, nil
}

// FormatEnsemble renders an ensemble result as a table.
func (f *TableFormatter) FormatEnsemble(result *core.EnsembleResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Engine", "Keyword", "Runs", "Present", "Frequency", "Band"})
	t.AppendRow(table.Row{
		string(result.Engine),
		result.Keyword,
		fmt.Sprintf("%d/%d", result.Completed, result.Runs),
		result.PresentCount,
		fmt.Sprintf("%.0f%%", result.Frequency*100),
		string(result.Band),
	})

	rendered := t.Render()
	if len(result.Errors) > 0 {
		rendered += "\n\nErrors:\n"
		for _, message := range result.Errors {
			rendered += fmt.Sprintf("  %s\n", message)
		}
	}
	return rendered, nil
}
