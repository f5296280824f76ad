package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/feeling-system/internal/eval"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

// ReplayedText stands in for interaction text, which is never logged.
const ReplayedText = "(replayed)"

// #region fixture-types

// Fixture is the top-level structure of a replay fixture (JSON or YAML).
type Fixture struct {
	Description     string                  `json:"description" yaml:"description"`
	Start           string                  `json:"start" yaml:"start"` // RFC 3339; offsets are relative to it
	Config          FixtureConfig           `json:"config" yaml:"config"`
	Interactions    []FixtureInteraction    `json:"interactions" yaml:"interactions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results" yaml:"expected_results"`
}

// FixtureInteraction is one recorded turn.
type FixtureInteraction struct {
	TurnID  string             `json:"turn_id" yaml:"turn_id"`
	PeerID  string             `json:"peer_id" yaml:"peer_id"`
	Text    string             `json:"text" yaml:"text"`
	Offset  string             `json:"offset" yaml:"offset"` // Go duration, e.g. "72h"
	Signals map[string]float64 `json:"signals,omitempty" yaml:"signals,omitempty"`
}

// FixtureExpectedResult captures the expected outcome per turn.
// An empty Dominant is not checked.
type FixtureExpectedResult struct {
	TurnID   string `json:"turn_id" yaml:"turn_id"`
	Action   string `json:"action" yaml:"action"`
	Dominant string `json:"dominant,omitempty" yaml:"dominant,omitempty"`
}

// FixtureConfig overrides parts of the default configuration.
type FixtureConfig struct {
	Weights    *synthesis.Weights `json:"weights,omitempty" yaml:"weights,omitempty"`
	EvalConfig *FixtureEvalConfig `json:"eval_config,omitempty" yaml:"eval_config,omitempty"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with tags.
type FixtureEvalConfig struct {
	MinIdentityCoherence float64 `json:"min_identity_coherence" yaml:"min_identity_coherence"`
	MinCoherence         float64 `json:"min_coherence" yaml:"min_coherence"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a fixture file. Files ending in .yaml or .yml are parsed
// as YAML, everything else as JSON.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// StartTime parses Start.
func (f *Fixture) StartTime() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, f.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start %q: %w", f.Start, err)
	}
	return t.UTC(), nil
}

// ToInteraction converts a FixtureInteraction to a domain Interaction.
func (fi *FixtureInteraction) ToInteraction(start time.Time) (Interaction, error) {
	var offset time.Duration
	if fi.Offset != "" {
		d, err := time.ParseDuration(fi.Offset)
		if err != nil {
			return Interaction{}, fmt.Errorf("turn %s: parse offset %q: %w", fi.TurnID, fi.Offset, err)
		}
		offset = d
	}
	return Interaction{
		TurnID: fi.TurnID,
		Interaction: feeling.Interaction{
			PeerID:  fi.PeerID,
			Text:    fi.Text,
			Signals: fi.Signals,
			Now:     start.Add(offset),
		},
	}, nil
}

// ToInteractions converts every fixture turn.
func (f *Fixture) ToInteractions() ([]Interaction, error) {
	start, err := f.StartTime()
	if err != nil {
		return nil, err
	}
	out := make([]Interaction, 0, len(f.Interactions))
	for i := range f.Interactions {
		in, err := f.Interactions[i].ToInteraction(start)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

// ToReplayConfig applies the fixture overrides to the defaults.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	config := DefaultReplayConfig()
	if fc.Weights != nil {
		config.Feeling.Weights = *fc.Weights
	}
	if fc.EvalConfig != nil {
		config.EvalConfig = eval.EvalConfig{
			MinIdentityCoherence: fc.EvalConfig.MinIdentityCoherence,
			MinCoherence:         fc.EvalConfig.MinCoherence,
		}
	}
	return config
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromLog builds a fixture from interaction_log rows given oldest
// first. Each row becomes one turn expected to be processed with its logged
// dominant emotion.
func FixtureFromLog(description string, rows []logging.InteractionEntry) (*Fixture, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no interactions to export")
	}
	start := rows[0].CreatedAt.UTC()
	f := &Fixture{
		Description:     description,
		Start:           start.Format(time.RFC3339Nano),
		Interactions:    make([]FixtureInteraction, 0, len(rows)),
		ExpectedResults: make([]FixtureExpectedResult, 0, len(rows)),
	}
	for i, row := range rows {
		var sig map[string]float64
		if row.SignalsJSON != "" {
			if err := json.Unmarshal([]byte(row.SignalsJSON), &sig); err != nil {
				return nil, fmt.Errorf("row %d: parse signals: %w", i, err)
			}
		}
		turnID := row.VersionID
		if turnID == "" {
			turnID = fmt.Sprintf("turn-%d", i+1)
		}
		f.Interactions = append(f.Interactions, FixtureInteraction{
			TurnID:  turnID,
			PeerID:  row.PeerID,
			Text:    ReplayedText,
			Offset:  row.CreatedAt.Sub(start).String(),
			Signals: sig,
		})
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			TurnID:   turnID,
			Action:   ActionProcessed,
			Dominant: row.Dominant,
		})
	}
	return f, nil
}

// Save writes f as YAML when path ends in .yaml or .yml, otherwise as JSON.
func (f *Fixture) Save(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(f)
	default:
		data, err = json.MarshalIndent(f, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-export
