package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aeolens/aeolens/internal/config"
	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/engine"
	"github.com/aeolens/aeolens/internal/observability"
	"github.com/aeolens/aeolens/internal/output"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <keyword>",
	Short: "Simulate answer-engine responses and score brand visibility",
	Long: `Simulate how AI answer engines respond to a buying-intent keyword and
score how visible the given brand is in each answer.

With --ensemble N the same query is repeated N times against one engine and
the presence frequency is reported instead of a single score.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("brand", "", "Brand domain to score, e.g. acme.com (required)")
	simulateCmd.Flags().String("brand-name", "", "Brand display name (defaults to the domain stem)")
	simulateCmd.Flags().String("brand-description", "", "Short brand description given to the accuracy judge")
	simulateCmd.Flags().StringSlice("aliases", nil, "Additional brand aliases")
	simulateCmd.Flags().StringSlice("competitors", nil, "Competitor names or domains")
	simulateCmd.Flags().StringSlice("engines", nil, "Engines to query (default: all configured)")
	simulateCmd.Flags().String("region", "US", "Region hint for the query")
	simulateCmd.Flags().String("language", "en", "Language hint for the query")
	simulateCmd.Flags().Int("ensemble", 0, "Repeat the query N times and report presence frequency")
	simulateCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	simulateCmd.Flags().Bool("no-cache", false, "Skip cache lookup")

	_ = simulateCmd.MarkFlagRequired("brand")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	keyword := strings.TrimSpace(args[0])
	if keyword == "" {
		return errors.New("keyword is required")
	}

	brandDomain, err := cmd.Flags().GetString("brand")
	if err != nil {
		return err
	}
	brandName, err := cmd.Flags().GetString("brand-name")
	if err != nil {
		return err
	}
	brandDescription, err := cmd.Flags().GetString("brand-description")
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
	engineNames, err := cmd.Flags().GetStringSlice("engines")
	if err != nil {
		return err
	}
	region, err := cmd.Flags().GetString("region")
	if err != nil {
		return err
	}
	language, err := cmd.Flags().GetString("language")
	if err != nil {
		return err
	}
	ensembleRuns, err := cmd.Flags().GetInt("ensemble")
	if err != nil {
		return err
	}
	outputFormat, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close() // nolint:errcheck // best-effort cleanup
	}

	orch, err := buildOrchestrator(cfg, buildCache(cfg, st), !noCache)
	if err != nil {
		return err
	}
	if len(orch.Adapters) == 0 {
		return errors.New("no engines configured; set an api_key under engines in the config")
	}

	engines, err := resolveEngines(engineNames, orch.Adapters)
	if err != nil {
		return err
	}

	request := core.SimulationRequest{
		Keyword:          keyword,
		Region:           region,
		Language:         language,
		BrandDomain:      brandDomain,
		BrandName:        brandName,
		BrandDescription: brandDescription,
		BrandAliases:     aliases,
		Competitors:      competitors,
	}

	if ensembleRuns > 0 {
		if len(engines) != 1 {
			return errors.New("ensemble mode requires exactly one engine")
		}
		request.Engine = engines[0]

		result, err := orch.Ensemble(ctx, request, ensembleRuns)
		if err != nil {
			return err
		}

		rendered, err := output.NewFormatter(format).FormatEnsemble(result)
		if err != nil {
			return err
		}
		cmd.Println(rendered)
		return nil
	}

	simulations, failures := orch.SimulateAll(ctx, request, engines)
	for eng, simErr := range failures {
		observability.CLILogger.Warn("Engine simulation failed",
			zap.String("engine", string(eng)),
			zap.Error(simErr))
	}
	if len(simulations) == 0 {
		return fmt.Errorf("all %d engine(s) failed", len(engines))
	}

	rendered, err := output.FormatSimulationList(format, simulations)
	if err != nil {
		return err
	}
	cmd.Println(rendered)
	return nil
}

// resolveEngines validates requested engines against the configured adapters.
// An empty request means every configured engine, in stable order.
func resolveEngines(names []string, adapters map[core.Engine]*engine.Adapter) ([]core.Engine, error) {
	if len(names) == 0 {
		engines := make([]core.Engine, 0, len(adapters))
		for _, eng := range core.AllEngines() {
			if _, ok := adapters[eng]; ok {
				engines = append(engines, eng)
			}
		}
		return engines, nil
	}

	engines := make([]core.Engine, 0, len(names))
	for _, name := range names {
		eng, err := core.ParseEngine(name)
		if err != nil {
			return nil, err
		}
		if _, ok := adapters[eng]; !ok {
			return nil, fmt.Errorf("engine %q is not configured", eng)
		}
		engines = append(engines, eng)
	}
	return engines, nil
}
