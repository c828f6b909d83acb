// Package output renders simulation reports in the formats the CLI exposes.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aeolens/aeolens/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders simulation results.
type Formatter interface {
	FormatSimulation(sim *core.Simulation) (string, error)
	FormatEnsemble(result *core.EnsembleResult) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FormatSimulationList renders multiple simulations using the requested format.
func FormatSimulationList(format Format, sims []*core.Simulation) (string, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(sims, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	formatter := NewFormatter(format)
	rendered := make([]string, 0, len(sims))
	for _, sim := range sims {
		if sim == nil {
			continue
		}
		value, err := formatter.FormatSimulation(sim)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		rendered = append(rendered, value)
	}

	return strings.Join(rendered, "\n\n"), nil
}
