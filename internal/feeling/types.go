package feeling

import (
	"context"
	"time"

	"github.com/danielpatrickdp/feeling-system/internal/embodied"
	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/ethics"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
	"github.com/danielpatrickdp/feeling-system/internal/mortality"
	"github.com/danielpatrickdp/feeling-system/internal/narrative"
	"github.com/danielpatrickdp/feeling-system/internal/relational"
	"github.com/danielpatrickdp/feeling-system/internal/signals"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

// #region config

// Config bundles every subsystem's configuration.
type Config struct {
	Mortality  mortality.Config
	Embodied   embodied.Config
	Memory     memory.Config
	Relational relational.Config
	Narrative  narrative.Config
	Ethics     ethics.Config
	Signals    signals.ProducerConfig
	Weights    synthesis.Weights

	// StorageKey enables file persistence at <key>.json with a
	// <key>.memories.json sidecar. Empty disables it.
	StorageKey string
}

// DefaultConfig returns stock parameters. Narrative core values are the
// ethical value names in sorted order.
func DefaultConfig() Config {
	eth := ethics.DefaultConfig()
	return Config{
		Mortality:  mortality.DefaultConfig(),
		Embodied:   embodied.DefaultConfig(),
		Memory:     memory.DefaultConfig(),
		Relational: relational.DefaultConfig(),
		Narrative:  narrative.Config{CoreValues: eth.ValueNames()},
		Ethics:     eth,
		Signals:    signals.DefaultProducerConfig(),
		Weights:    synthesis.DefaultWeights(),
	}
}

func (c Config) validateWeights() error {
	w := c.Weights
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"weights.mortality", w.Mortality},
		{"weights.relational", w.Relational},
		{"weights.memory", w.Memory},
		{"weights.embodied", w.Embodied},
		{"weights.narrative", w.Narrative},
		{"weights.ethical", w.Ethical},
	} {
		if err := errs.Unit(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// #endregion config

// #region interaction

// Interaction is one externally delivered turn.
type Interaction struct {
	PeerID  string
	Text    string
	Signals map[string]float64
	Now     time.Time
	Context map[string]any // opaque; never read by the core
}

// Result is everything one Process pass produced.
type Result struct {
	Timestamp              time.Time               `json:"timestamp"`
	PeerID                 string                  `json:"peer_id"`
	InputSignals           map[string]float64      `json:"input_signals"`
	Quality                float64                 `json:"quality"`
	SubsystemContributions synthesis.Contributions `json:"subsystem_contributions"`
	SynthesizedState       emotion.Map             `json:"synthesized_state"`
	EmotionalResponse      synthesis.Response      `json:"emotional_response"`
	PersistenceError       string                  `json:"persistence_error,omitempty"`
}

// #endregion interaction

// #region snapshot

// Snapshot is the structured state of a System. Timestamps are UTC.
type Snapshot struct {
	Mortality    mortality.State    `json:"mortality"`
	Relational   relational.State   `json:"relational"`
	Memory       memory.State       `json:"memory"`
	Embodied     embodied.State     `json:"embodied"`
	Narrative    narrative.State    `json:"narrative"`
	Ethical      ethics.State       `json:"ethical"`
	CurrentState synthesis.Response `json:"current_state"`
	LastUpdate   time.Time          `json:"last_update"`
}

// #endregion snapshot

// #region persister

// Persister receives the snapshot after every successful pass.
// Errors are reported in Result.PersistenceError and never roll back state.
type Persister interface {
	Persist(ctx context.Context, snap Snapshot, res Result) error
}

// #endregion persister
