package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/aeo"
	"github.com/aeolens/aeolens/internal/core/normalize"
	"github.com/aeolens/aeolens/internal/core/urlutil"
	"github.com/aeolens/aeolens/internal/output"
)

var scoreCmd = &cobra.Command{
	Use:   "score <answer-file>",
	Short: "Score a saved answer offline",
	Long: `Score an engine answer that was captured earlier, without any API calls.

Only the deterministic factors (mention, attribution, position) are computed;
accuracy needs ground truth and is skipped. The normalized score uses the
deterministic maximum so offline and live scores stay comparable.`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("brand", "", "Brand domain to score, e.g. acme.com (required)")
	scoreCmd.Flags().String("brand-name", "", "Brand display name (defaults to the domain stem)")
	scoreCmd.Flags().StringSlice("aliases", nil, "Additional brand aliases")
	scoreCmd.Flags().StringSlice("competitors", nil, "Competitor names or domains")
	scoreCmd.Flags().String("output", "table", "Output format: table, json, markdown")

	_ = scoreCmd.MarkFlagRequired("brand")
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read answer file: %w", err)
	}
	answer := strings.TrimSpace(string(data))
	if answer == "" {
		return errors.New("answer file is empty")
	}

	brandDomain, err := cmd.Flags().GetString("brand")
	if err != nil {
		return err
	}
	brandName, err := cmd.Flags().GetString("brand-name")
	if err != nil {
		return err
	}
	aliases, err := cmd.Flags().GetStringSlice("aliases")
	if err != nil {
		return err
	}
	competitors, err := cmd.Flags().GetStringSlice("competitors")
	if err != nil {
		return err
	}
	outputFormat, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	if brandName == "" {
		brandName = urlutil.DomainStem(brandDomain)
	}

	sources := extractSources(answer)
	result := normalize.Normalize("", answer, sources, brandDomain)

	score := aeo.QuickScore(aeo.Input{
		Answer:      answer,
		BrandName:   brandName,
		BrandDomain: brandDomain,
		Aliases:     aliases,
		Competitors: competitors,
		Sources:     result.Sources,
	})

	if format == output.FormatJSON {
		rendered, err := (&output.JSONFormatter{Indent: true}).FormatSimulation(&core.Simulation{
			Request: core.SimulationRequest{
				Keyword:     "",
				BrandDomain: brandDomain,
				BrandName:   brandName,
			},
			Result: result,
			Score:  score,
		})
		if err != nil {
			return err
		}
		cmd.Println(rendered)
		return nil
	}

	cmd.Printf("Score: %d/100 (quick, deterministic factors only)\n", score.NormalizedScore)
	cmd.Printf("  Brand mention:        %.1f/%.0f\n", score.Breakdown.BrandMention.Score, score.Breakdown.BrandMention.Max)
	cmd.Printf("  Attribution:          %.1f/%.0f\n", score.Breakdown.Attribution.Score, score.Breakdown.Attribution.Max)
	cmd.Printf("  Comparative position: %.1f/%.0f\n", score.Breakdown.ComparativePosition.Score, score.Breakdown.ComparativePosition.Max)
	for _, note := range score.AnalysisNotes {
		cmd.Printf("  Note: %s\n", note)
	}
	return nil
}

// extractSources pulls markdown links, bare URLs, and plain-text domain
// mentions out of a saved answer so attribution can be scored offline.
func extractSources(answer string) []core.SourceReference {
	var sources []core.SourceReference
	seen := make(map[string]struct{})

	add := func(url, title string) {
		key := urlutil.Canonical(url)
		if key == "" {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		sources = append(sources, core.SourceReference{URL: url, Title: title})
	}

	for _, link := range urlutil.ExtractMarkdownLinks(answer) {
		add(link.URL, link.Text)
	}
	for _, url := range urlutil.ExtractURLs(answer) {
		add(url, "")
	}

	// Plain-text mentions only add hosts no URL already covered.
	seenHosts := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		if host := urlutil.Host(src.URL); host != "" {
			seenHosts[host] = struct{}{}
		}
	}
	for _, domain := range urlutil.ExtractDomainMentions(answer, nil) {
		if _, covered := seenHosts[domain]; covered {
			continue
		}
		add(urlutil.ProbableURL(domain), "")
	}
	return sources
}
