package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/feeling-system/internal/config"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/replay"
	"github.com/danielpatrickdp/feeling-system/internal/state"
)

// #region main

// exitError carries a process exit code out of RunE.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit %d", int(e)) }

func main() {
	var (
		configPath  string
		dbPath      string
		fixturePath string
	)

	rootCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded interactions and compare dominant emotions",
		Long: `Fixture mode runs a JSON or YAML fixture through a fresh system and
compares each turn's action and dominant emotion with the fixture's
expectations. DB mode re-runs the signals stored in interaction_log and
compares against the logged dominant emotions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (dbPath == "") == (fixturePath == "") {
				return fmt.Errorf("exactly one of --db and --fixture is required")
			}
			_ = godotenv.Load()
			var code int
			if fixturePath != "" {
				code = runFixtureMode(cmd.Context(), fixturePath)
			} else {
				code = runDBMode(cmd.Context(), configPath, dbPath)
			}
			if code != 0 {
				return exitError(code)
			}
			return nil
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to feeling.yaml (DB mode)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "history database (DB mode)")
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture file (fixture mode)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if code, ok := err.(exitError); ok {
			os.Exit(int(code))
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

// #endregion main

// #region db-extract

func runDBMode(ctx context.Context, configPath, dbPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	store, err := state.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	rows, err := logging.ListInteractions(store.DB(), "", 1<<30)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query interactions: %v\n", err)
		return 2
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no entries found in interaction_log")
		return 2
	}

	// Rows come back newest first
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	f, err := replay.FixtureFromLog(dbPath, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build fixture: %v\n", err)
		return 2
	}
	interactions, err := f.ToInteractions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture interactions: %v\n", err)
		return 2
	}

	rc := replay.DefaultReplayConfig()
	rc.Feeling = cfg.Feeling()
	results, _, err := replay.Replay(ctx, interactions, rc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results, f.ExpectedResults)
}

// #endregion db-extract

// #region output

func runFixtureMode(ctx context.Context, path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	interactions, err := f.ToInteractions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture interactions: %v\n", err)
		return 2
	}

	results, _, err := replay.Replay(ctx, interactions, f.Config.ToReplayConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results, f.ExpectedResults)
}

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.ReplayResult, expected []replay.FixtureExpectedResult) int {
	fmt.Printf("%-12s| %-24s| %-24s| %s\n", "Turn", "Expected", "Replayed", "Match")
	fmt.Printf("%-12s+%-25s+%-25s+%s\n",
		"------------", "-------------------------", "-------------------------", "------")

	total := len(results)
	if len(expected) < total {
		total = len(expected)
	}

	matches := 0
	for i := 0; i < total; i++ {
		exp, got := expected[i], results[i]
		match := "DIFF"
		if len(replay.Compare(expected[i:i+1], results[i:i+1])) == 0 {
			match = "OK"
			matches++
		}
		fmt.Printf("%-12s| %-24s| %-24s| %s\n",
			shortID(got.TurnID), describe(exp.Action, exp.Dominant), describe(got.Action, got.Dominant), match)
	}

	summary := replay.Summarize(results, feeling.Snapshot{})
	diverge := total - matches + abs(len(expected)-len(results))
	fmt.Printf("\nSummary: %d total, %d match, %d diverge (processed=%d invalid=%d exceeded=%d eval_failed=%d)\n",
		len(results), matches, diverge, summary.Processed, summary.Invalid, summary.Exceeded, summary.EvalFailed)

	if diverge > 0 {
		return 1
	}
	return 0
}

func describe(action, dominant string) string {
	if dominant == "" {
		return action
	}
	return action + "/" + dominant
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// #endregion output
