package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/feeling-system/internal/config"
	"github.com/danielpatrickdp/feeling-system/internal/eval"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/state"
)

// #region main

func main() {
	var (
		configPath string
		dbPath     string
		jsonOut    bool
	)

	openStore := func() (*state.Store, error) {
		_ = godotenv.Load()
		if dbPath == "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return nil, err
			}
			dbPath = cfg.Storage.DBPath
		}
		return state.NewStore(dbPath)
	}

	rootCmd := &cobra.Command{
		Use:          "inspect",
		Short:        "Inspect feeling-system snapshot history",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to feeling.yaml")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database (overrides storage.db_path)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")

	var last int
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "List the most recent snapshot versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return runListMode(store, last, jsonOut)
		},
	}
	versionsCmd.Flags().IntVar(&last, "last", 20, "show N most recent versions")

	showCmd := &cobra.Command{
		Use:   "show [version-id]",
		Short: "Show one version in detail (default: active)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runDetailMode(store, id, jsonOut)
		},
	}

	var peer string
	var limit int
	interactionsCmd := &cobra.Command{
		Use:   "interactions",
		Short: "List logged interactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return runInteractions(store, peer, limit, jsonOut)
		},
	}
	interactionsCmd.Flags().StringVar(&peer, "peer", "", "only this peer")
	interactionsCmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")

	rollbackCmd := &cobra.Command{
		Use:   "rollback <version-id>",
		Short: "Make an earlier version active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Rollback(args[0]); err != nil {
				return err
			}
			fmt.Printf("active version is now %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(versionsCmd, showCmd, interactionsCmd, rollbackCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID string  `json:"version_id"`
	ParentID  string  `json:"parent_id,omitempty"`
	PeerID    string  `json:"peer_id"`
	Dominant  string  `json:"dominant"`
	Intensity float64 `json:"intensity"`
	Coherence float64 `json:"coherence"`
	Memories  int     `json:"memories"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(store *state.Store, last int, jsonOut bool) error {
	versions, err := store.ListVersions(last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return nil
	}

	// Store returns DESC, reverse for chronological
	rows := make([]listRow, len(versions))
	for i, v := range versions {
		snap, err := decode(v)
		if err != nil {
			return err
		}
		rows[len(versions)-1-i] = listRow{
			VersionID: v.VersionID,
			ParentID:  v.ParentID,
			PeerID:    v.PeerID,
			Dominant:  v.Dominant,
			Intensity: snap.CurrentState.Intensity,
			Coherence: snap.Mortality.Coherence,
			Memories:  len(snap.Memory.Entries),
			CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-12s  %-12s  %9s  %9s  %8s  %s\n",
		"Version", "Peer", "Dominant", "Intensity", "Coherence", "Memories", "Time")
	fmt.Printf("%-10s+-%-12s+-%-12s+-%9s+-%9s+-%8s+-%s\n",
		"----------", "------------", "------------", "---------", "---------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-12s  %-12s  %9.4f  %9.4f  %8d  %s\n",
			shortID(r.VersionID), r.PeerID, r.Dominant, r.Intensity, r.Coherence, r.Memories, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	VersionID string           `json:"version_id"`
	ParentID  string           `json:"parent_id"`
	CreatedAt string           `json:"created_at"`
	Snapshot  feeling.Snapshot `json:"snapshot"`
	Eval      eval.EvalResult  `json:"eval"`
}

func runDetailMode(store *state.Store, versionID string, jsonOut bool) error {
	var rec state.SnapshotRecord
	var err error
	if versionID == "" {
		rec, err = store.GetCurrent()
	} else {
		rec, err = store.GetVersion(versionID)
	}
	if err != nil {
		return err
	}
	snap, err := decode(rec)
	if err != nil {
		return err
	}

	// Only the snapshot half of the checks applies without a pass result.
	ev := eval.NewEvalHarness(eval.DefaultEvalConfig()).Run(snap, feeling.Result{
		SynthesizedState:  snap.CurrentState.AllEmotions,
		EmotionalResponse: snap.CurrentState,
	})

	out := detailOutput{
		VersionID: rec.VersionID,
		ParentID:  rec.ParentID,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Snapshot:  snap,
		Eval:      ev,
	}
	if jsonOut {
		return printJSON(out)
	}

	cur := snap.CurrentState
	fmt.Printf("Version:    %s\n", out.VersionID)
	fmt.Printf("Parent:     %s\n", out.ParentID)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Dominant:   %s (%.4f)\n", cur.DominantEmotion, cur.Intensity)
	fmt.Printf("Valence:    %.4f\n", cur.Valence)
	fmt.Printf("Arousal:    %.4f\n", cur.Arousal)
	fmt.Printf("Frame:      %s\n", cur.NarrativeFrame)
	fmt.Printf("Coherence:  %.4f\n", snap.Mortality.Coherence)
	fmt.Printf("Identity:   %.4f\n", snap.Narrative.IdentityCoherence)
	fmt.Printf("Body:       energy=%.3f attention=%.3f processing=%.3f\n",
		snap.Embodied.Energy, snap.Embodied.Attention, snap.Embodied.Processing)
	fmt.Printf("Memories:   %d/%d\n", len(snap.Memory.Entries), snap.Memory.MaxMemories)
	fmt.Printf("Eval:       %s\n", ev.Reason)

	fmt.Printf("\nEmotions:\n")
	for _, l := range cur.AllEmotions.Labels() {
		fmt.Printf("  %-14s %.4f\n", l, cur.AllEmotions[l])
	}

	peers := make([]string, 0, len(snap.Relational.Bonds))
	for p := range snap.Relational.Bonds {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	if len(peers) > 0 {
		fmt.Printf("\nBonds:\n")
	}
	for _, p := range peers {
		b := snap.Relational.Bonds[p]
		fmt.Printf("  %-14s trust=%.3f intimacy=%.3f count=%d phase=%s\n",
			p, b.Trust, b.Intimacy, b.InteractionCount, b.Phase)
	}
	return nil
}

// #endregion detail-mode

// #region interactions

func runInteractions(store *state.Store, peer string, limit int, jsonOut bool) error {
	rows, err := logging.ListInteractions(store.DB(), peer, limit)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-10s  %-12s  %-12s  %9s  %8s  %7s  %s\n",
		"Version", "Peer", "Dominant", "Intensity", "Valence", "Quality", "Time")
	for _, r := range rows {
		fmt.Printf("%-10s  %-12s  %-12s  %9.4f  %8.4f  %7.3f  %s\n",
			shortID(r.VersionID), r.PeerID, r.Dominant, r.Intensity, r.Valence, r.Quality,
			r.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion interactions

// #region output

func decode(rec state.SnapshotRecord) (feeling.Snapshot, error) {
	var snap feeling.Snapshot
	if err := json.Unmarshal([]byte(rec.SnapshotJSON), &snap); err != nil {
		return feeling.Snapshot{}, fmt.Errorf("decode version %s: %w", rec.VersionID, err)
	}
	return snap, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
