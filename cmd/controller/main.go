package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/feeling-system/internal/config"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/state"
)

// #region main
func main() {
	var (
		configPath string
		dbPath     string
		peerID     string
	)

	rootCmd := &cobra.Command{
		Use:   "controller",
		Short: "Feed interactions from stdin through a feeling system",
		Long: `Reads one interaction per line from stdin and prints the resulting
emotional response as JSON. A line is either a JSON object
{"peer_id", "text", "signals", "now"} or plain text from --peer.
Every pass is committed to the history database.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, dbPath, peerID)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to feeling.yaml")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "history database (overrides storage.db_path)")
	rootCmd.Flags().StringVar(&peerID, "peer", "user", "peer id for plain-text lines")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region run

type line struct {
	PeerID  string             `json:"peer_id"`
	Text    string             `json:"text"`
	Signals map[string]float64 `json:"signals"`
	Now     string             `json:"now"`
}

func run(ctx context.Context, configPath, dbPath, peerID string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	logger := logging.New(cfg.Logging)

	opts := []feeling.Option{feeling.WithLogger(logger)}
	var store *state.Store
	if cfg.Storage.DBPath != "" {
		store, err = state.NewStore(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		opts = append(opts, feeling.WithPersister(store))
	}

	sys, err := feeling.New(cfg.Feeling(), opts...)
	if err != nil {
		return err
	}
	if store != nil && cfg.Storage.Key == "" {
		loadHistory(store, sys, logger)
	}

	enc := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if raw == "quit" || raw == "exit" {
			break
		}

		in, err := parseLine(raw, peerID)
		if err != nil {
			logger.Warn().Err(err).Msg("skipping line")
			continue
		}
		res, err := sys.Process(ctx, in)
		if err != nil {
			logger.Warn().Err(err).Str("peer_id", in.PeerID).Msg("interaction rejected")
			continue
		}
		if err := enc.Encode(res.EmotionalResponse); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func loadHistory(store *state.Store, sys *feeling.System, logger zerolog.Logger) {
	rec, err := store.LoadActive(sys)
	switch {
	case err == nil:
		logger.Info().Str("version_id", rec.VersionID).Msg("resumed from history")
	case errors.Is(err, state.ErrNoActive):
		logger.Info().Msg("no history, starting fresh")
	default:
		logger.Warn().Err(err).Msg("history unreadable, starting fresh")
	}
}

func parseLine(raw, peerID string) (feeling.Interaction, error) {
	if !strings.HasPrefix(raw, "{") {
		return feeling.Interaction{PeerID: peerID, Text: raw, Now: time.Now().UTC()}, nil
	}
	var l line
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return feeling.Interaction{}, fmt.Errorf("parse line: %w", err)
	}
	now := time.Now().UTC()
	if l.Now != "" {
		t, err := time.Parse(time.RFC3339Nano, l.Now)
		if err != nil {
			return feeling.Interaction{}, fmt.Errorf("parse now %q: %w", l.Now, err)
		}
		now = t
	}
	if l.PeerID == "" {
		l.PeerID = peerID
	}
	return feeling.Interaction{PeerID: l.PeerID, Text: l.Text, Signals: l.Signals, Now: now}, nil
}

// #endregion run
