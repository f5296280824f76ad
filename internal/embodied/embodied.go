package embodied

import (
	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

// #region thresholds

const (
	overloadThreshold         = 0.85
	lethargyThreshold         = 0.90
	understimulationThreshold = 0.20
	recentStimulationWindow   = 10
)

// Regeneration per hour of rest.
const (
	energyRegen     = 0.1
	attentionRegen  = 0.08
	processingRegen = 0.06
)

// #endregion thresholds

// #region config

// Config holds pool caps and the stimulation history length.
type Config struct {
	MaxEnergy     float64
	MaxAttention  float64
	MaxProcessing float64
	HistorySize   int
}

// DefaultConfig returns unit caps and a 100-sample history.
func DefaultConfig() Config {
	return Config{
		MaxEnergy:     1.0,
		MaxAttention:  1.0,
		MaxProcessing: 1.0,
		HistorySize:   100,
	}
}

// Validate rejects non-positive caps.
func (c Config) Validate() error {
	caps := []struct {
		name string
		v    float64
	}{
		{"embodied.max_energy", c.MaxEnergy},
		{"embodied.max_attention", c.MaxAttention},
		{"embodied.max_processing", c.MaxProcessing},
	}
	for _, cp := range caps {
		if !(cp.v > 0) {
			return errs.Invalid(cp.name, "must be > 0, got %v", cp.v)
		}
	}
	if c.HistorySize <= 0 {
		return errs.Invalid("embodied.history_size", "must be > 0, got %d", c.HistorySize)
	}
	return nil
}

// #endregion config

// #region state

// State is the serializable form of a Body.
type State struct {
	Energy             float64   `json:"energy"`
	Attention          float64   `json:"attention"`
	Processing         float64   `json:"processing"`
	MaxEnergy          float64   `json:"max_energy"`
	MaxAttention       float64   `json:"max_attention"`
	MaxProcessing      float64   `json:"max_processing"`
	StimulationHistory []float64 `json:"stimulation_history"`
}

// Costs is a single consume request.
type Costs struct {
	Energy     float64
	Attention  float64
	Processing float64
}

// #endregion state

// #region body

// Body holds bounded resource pools that deplete with work and regenerate with rest.
type Body struct {
	config Config
	state  State
}

// New creates a Body with every pool full.
func New(config Config) (*Body, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Body{
		config: config,
		state: State{
			Energy:             config.MaxEnergy,
			Attention:          config.MaxAttention,
			Processing:         config.MaxProcessing,
			MaxEnergy:          config.MaxEnergy,
			MaxAttention:       config.MaxAttention,
			MaxProcessing:      config.MaxProcessing,
			StimulationHistory: []float64{},
		},
	}, nil
}

// Levels returns the current energy, attention and processing.
func (b *Body) Levels() (energy, attention, processing float64) {
	return b.state.Energy, b.state.Attention, b.state.Processing
}

// #endregion body

// #region consume

// CheckCosts validates a consume request without applying it.
func (b *Body) CheckCosts(c Costs) error {
	pools := []struct {
		name string
		cost float64
		max  float64
	}{
		{"energy_cost", c.Energy, b.state.MaxEnergy},
		{"attention_cost", c.Attention, b.state.MaxAttention},
		{"processing_cost", c.Processing, b.state.MaxProcessing},
	}
	for _, p := range pools {
		if p.cost != p.cost || p.cost < 0 {
			return errs.Invalid(p.name, "must be >= 0, got %v", p.cost)
		}
		if p.cost > p.max {
			return errs.Exceeded(p.name, "%v exceeds pool cap %v", p.cost, p.max)
		}
	}
	return nil
}

// Consume subtracts each cost from its pool, flooring at zero.
// A cost above the pool cap (not the current level) is a configuration error.
func (b *Body) Consume(c Costs) error {
	if err := b.CheckCosts(c); err != nil {
		return err
	}
	b.state.Energy = emotion.Clamp(b.state.Energy-c.Energy, 0, b.state.MaxEnergy)
	b.state.Attention = emotion.Clamp(b.state.Attention-c.Attention, 0, b.state.MaxAttention)
	b.state.Processing = emotion.Clamp(b.state.Processing-c.Processing, 0, b.state.MaxProcessing)
	return nil
}

// #endregion consume

// #region regenerate

// Regenerate refills pools for the given hours of rest.
func (b *Body) Regenerate(hours float64) error {
	if hours != hours || hours < 0 {
		return errs.Invalid("hours", "must be >= 0, got %v", hours)
	}
	b.state.Energy = emotion.Clamp(b.state.Energy+energyRegen*hours, 0, b.state.MaxEnergy)
	b.state.Attention = emotion.Clamp(b.state.Attention+attentionRegen*hours, 0, b.state.MaxAttention)
	b.state.Processing = emotion.Clamp(b.state.Processing+processingRegen*hours, 0, b.state.MaxProcessing)
	return nil
}

// #endregion regenerate

// #region stimulation

// RecordStimulation appends a sample, keeping only the most recent HistorySize.
func (b *Body) RecordStimulation(level float64) error {
	if err := errs.Unit("stimulation", level); err != nil {
		return err
	}
	b.state.StimulationHistory = append(b.state.StimulationHistory, level)
	if over := len(b.state.StimulationHistory) - b.config.HistorySize; over > 0 {
		b.state.StimulationHistory = append([]float64{}, b.state.StimulationHistory[over:]...)
	}
	return nil
}

func (b *Body) recentStimulation() float64 {
	h := b.state.StimulationHistory
	if len(h) == 0 {
		return 0.5
	}
	n := recentStimulationWindow
	if len(h) < n {
		n = len(h)
	}
	var sum float64
	for _, v := range h[len(h)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// #endregion stimulation

// #region emotions

// Emotions maps resource load and stimulation to an emotional contribution.
func (b *Body) Emotions() emotion.Map {
	out := emotion.Map{}
	load := 1 - (b.state.Energy+b.state.Attention+b.state.Processing)/3
	avgStim := b.recentStimulation()

	if load > overloadThreshold {
		out.Set(emotion.Anxiety, (load-overloadThreshold)/(1-overloadThreshold))
	}
	if load > lethargyThreshold {
		out.Set(emotion.Lethargy, 0.8*(load-lethargyThreshold)/(1-lethargyThreshold))
	}
	if avgStim < understimulationThreshold {
		out.Max(emotion.Lethargy, 0.6*(understimulationThreshold-avgStim)/understimulationThreshold)
	}
	if load > 0.4 && load < 0.6 && avgStim > 0.3 && avgStim < 0.7 {
		out.Set(emotion.Neutral, 0.7)
	}
	return out
}

// #endregion emotions

// #region snapshot

// Snapshot returns a deep copy of the current state.
func (b *Body) Snapshot() State {
	s := b.state
	s.StimulationHistory = append([]float64{}, b.state.StimulationHistory...)
	return s
}

// Restore replaces the state after validating every field.
func (b *Body) Restore(s State) error {
	caps := []struct {
		name string
		v    float64
	}{
		{"embodied.max_energy", s.MaxEnergy},
		{"embodied.max_attention", s.MaxAttention},
		{"embodied.max_processing", s.MaxProcessing},
	}
	for _, c := range caps {
		if !(c.v > 0) {
			return errs.Corrupt(c.name, "must be > 0, got %v", c.v)
		}
	}
	if err := errs.CorruptRange("embodied.energy", s.Energy, 0, s.MaxEnergy); err != nil {
		return err
	}
	if err := errs.CorruptRange("embodied.attention", s.Attention, 0, s.MaxAttention); err != nil {
		return err
	}
	if err := errs.CorruptRange("embodied.processing", s.Processing, 0, s.MaxProcessing); err != nil {
		return err
	}
	for _, v := range s.StimulationHistory {
		if err := errs.CorruptRange("embodied.stimulation_history", v, 0, 1); err != nil {
			return err
		}
	}
	hist := s.StimulationHistory
	if over := len(hist) - b.config.HistorySize; over > 0 {
		hist = hist[over:]
	}
	b.state = s
	b.state.StimulationHistory = append([]float64{}, hist...)
	return nil
}

// #endregion snapshot
