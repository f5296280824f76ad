package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/feeling-system/internal/config"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/replay"
	"github.com/danielpatrickdp/feeling-system/internal/state"
)

// #region main

func main() {
	var (
		configPath  string
		dbPath      string
		outPath     string
		description string
		last        int
	)

	rootCmd := &cobra.Command{
		Use:   "fixture-export",
		Short: "Export logged interactions as a replay fixture",
		Long: `Reads the most recent rows of interaction_log and writes them as a
replay fixture. Each turn expects the dominant emotion that was logged.
Interaction text is never stored, so every turn replays with placeholder text.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			_ = godotenv.Load()
			if dbPath == "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				dbPath = cfg.Storage.DBPath
			}
			if description == "" {
				description = "exported from " + dbPath
			}
			return run(dbPath, last, description, outPath)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to feeling.yaml")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "history database (overrides storage.db_path)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output fixture path (.yaml, .yml or .json)")
	rootCmd.Flags().StringVar(&description, "description", "", "fixture description")
	rootCmd.Flags().IntVar(&last, "last", 0, "number of most recent interactions to export (0 = all)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath string, last int, description, outPath string) error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	limit := last
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := logging.ListInteractions(store.DB(), "", limit)
	if err != nil {
		return fmt.Errorf("query interactions: %w", err)
	}

	// Newest first from the log, fixtures run oldest first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	f, err := replay.FixtureFromLog(description, rows)
	if err != nil {
		return err
	}
	if err := f.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("exported %d interactions to %s\n", len(f.Interactions), outPath)
	return nil
}

// #endregion extract
