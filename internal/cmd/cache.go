package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aeolens/aeolens/internal/config"
	"github.com/aeolens/aeolens/internal/core/engine"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the simulation result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache occupancy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, cleanup, err := openCLICache(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := cache.Stats(cmd.Context())
		if err != nil {
			return err
		}

		cmd.Printf("Entries: %d / %d\n", stats.Size, stats.MaxSize)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached simulation result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, cleanup, err := openCLICache(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := cache.Clear(cmd.Context()); err != nil {
			return err
		}

		cmd.Println("Cache cleared.")
		return nil
	},
}

// openCLICache opens the persistent cache backend. Cache inspection only
// makes sense against the store; the in-memory cache dies with the process.
func openCLICache(cmd *cobra.Command) (engine.Cache, func(), error) {
	cfg := config.Get()
	if cfg == nil {
		return nil, nil, errors.New("config not loaded")
	}
	if !cfg.Store.Enabled() {
		return nil, nil, errors.New("no persistent store configured; set store.path or store.url")
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	cleanup := func() {
		_ = st.Close()
	}
	return buildCache(cfg, st), cleanup, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
