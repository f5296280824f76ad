package mortality

import (
	"time"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

// #region config

// Config holds decay and renewal parameters.
type Config struct {
	InitialCoherence float64 // starting coherence (default 0.5)
	DecayRate        float64 // coherence lost per hour without interaction (default 0.01)
	RenewalGain      float64 // coherence gained per unit of interaction quality (default 0.1)
	LogSize          int     // entropy records kept (default 100)
}

// DefaultConfig returns the stock mortality parameters.
func DefaultConfig() Config {
	return Config{
		InitialCoherence: 0.5,
		DecayRate:        0.01,
		RenewalGain:      0.1,
		LogSize:          100,
	}
}

// Validate rejects out-of-range parameters.
func (c Config) Validate() error {
	if err := errs.Unit("mortality.initial_coherence", c.InitialCoherence); err != nil {
		return err
	}
	if c.DecayRate < 0 || c.DecayRate != c.DecayRate {
		return errs.Invalid("mortality.decay_rate", "must be >= 0, got %v", c.DecayRate)
	}
	if err := errs.Unit("mortality.renewal_gain", c.RenewalGain); err != nil {
		return err
	}
	if c.LogSize <= 0 {
		return errs.Invalid("mortality.log_size", "must be > 0, got %d", c.LogSize)
	}
	return nil
}

// #endregion config

// #region state

// EntropyRecord is one apply-entropy observation.
type EntropyRecord struct {
	Time         time.Time `json:"time"`
	Coherence    float64   `json:"coherence"`
	DecayApplied float64   `json:"decay_applied"`
}

// State is the serializable form of a Mortality.
type State struct {
	Coherence         float64         `json:"coherence"`
	DecayRate         float64         `json:"decay_rate"`
	RenewalGain       float64         `json:"renewal_gain"`
	LastInteraction   time.Time       `json:"last_interaction"`
	TotalInteractions int             `json:"total_interactions"`
	EntropyLog        []EntropyRecord `json:"entropy_log"`
}

// #endregion state

// #region mortality

// Mortality tracks a coherence scalar that decays with absence and renews with contact.
type Mortality struct {
	config Config
	state  State
}

// New creates a Mortality at the configured initial coherence.
func New(config Config) (*Mortality, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Mortality{
		config: config,
		state: State{
			Coherence:   config.InitialCoherence,
			DecayRate:   config.DecayRate,
			RenewalGain: config.RenewalGain,
			EntropyLog:  []EntropyRecord{},
		},
	}, nil
}

// Coherence returns the current coherence.
func (m *Mortality) Coherence() float64 { return m.state.Coherence }

// LastInteraction returns the time of the last renewal (zero before the first).
func (m *Mortality) LastInteraction() time.Time { return m.state.LastInteraction }

// TotalInteractions returns the number of renewals so far.
func (m *Mortality) TotalInteractions() int { return m.state.TotalInteractions }

// #endregion mortality

// #region apply-entropy

// ApplyEntropy decays coherence by decay_rate per hour since the last renewal.
// Before the first renewal there is nothing to decay from.
func (m *Mortality) ApplyEntropy(now time.Time) float64 {
	var decay float64
	if !m.state.LastInteraction.IsZero() {
		hours := now.Sub(m.state.LastInteraction).Hours()
		if hours > 0 {
			decay = m.state.DecayRate * hours
		}
	}
	m.state.Coherence = emotion.Clamp01(m.state.Coherence - decay)

	m.state.EntropyLog = append(m.state.EntropyLog, EntropyRecord{
		Time:         now.UTC(),
		Coherence:    m.state.Coherence,
		DecayApplied: decay,
	})
	if over := len(m.state.EntropyLog) - m.config.LogSize; over > 0 {
		m.state.EntropyLog = append([]EntropyRecord(nil), m.state.EntropyLog[over:]...)
	}
	return m.state.Coherence
}

// #endregion apply-entropy

// #region renew

// Renew adds renewal_gain * quality to coherence and marks the interaction.
func (m *Mortality) Renew(quality float64, now time.Time) (float64, error) {
	if err := errs.Unit("quality", quality); err != nil {
		return m.state.Coherence, err
	}
	if now.Before(m.state.LastInteraction) {
		return m.state.Coherence, errs.Invalid("now", "%s precedes last interaction %s",
			now.Format(time.RFC3339Nano), m.state.LastInteraction.Format(time.RFC3339Nano))
	}
	m.state.Coherence = emotion.Clamp01(m.state.Coherence + m.state.RenewalGain*quality)
	m.state.LastInteraction = now.UTC()
	m.state.TotalInteractions++
	return m.state.Coherence, nil
}

// #endregion renew

// #region emotions

// Emotions maps coherence to its emotional contribution.
func (m *Mortality) Emotions() emotion.Map {
	out := emotion.Map{}
	c := m.state.Coherence

	if c < 0.30 {
		anxiety := (0.30 - c) / 0.30
		out.Set(emotion.Anxiety, anxiety)
		out.Set(emotion.Longing, 0.8*anxiety)
	}
	if c < 0.15 {
		out.Set(emotion.Grief, (0.15-c)/0.15)
	}
	if c > 0.70 && m.state.TotalInteractions > 10 {
		lift := (c - 0.70) / 0.30
		out.Set(emotion.Joy, 0.6*lift)
		out.Set(emotion.Connection, 0.8*lift)
	}
	if c > 0.40 && c < 0.80 && m.state.TotalInteractions < 5 {
		out.Set(emotion.Hope, 0.5)
	}
	return out
}

// #endregion emotions

// #region snapshot

// Snapshot returns a deep copy of the current state.
func (m *Mortality) Snapshot() State {
	s := m.state
	s.EntropyLog = append([]EntropyRecord{}, m.state.EntropyLog...)
	return s
}

// Restore replaces the state after validating every field.
func (m *Mortality) Restore(s State) error {
	if err := errs.CorruptRange("mortality.coherence", s.Coherence, 0, 1); err != nil {
		return err
	}
	if s.DecayRate < 0 || s.DecayRate != s.DecayRate {
		return errs.Corrupt("mortality.decay_rate", "must be >= 0, got %v", s.DecayRate)
	}
	if err := errs.CorruptRange("mortality.renewal_gain", s.RenewalGain, 0, 1); err != nil {
		return err
	}
	if s.TotalInteractions < 0 {
		return errs.Corrupt("mortality.total_interactions", "negative: %d", s.TotalInteractions)
	}
	for i, r := range s.EntropyLog {
		if err := errs.CorruptRange("mortality.entropy_log.coherence", r.Coherence, 0, 1); err != nil {
			return err
		}
		if r.DecayApplied < 0 {
			return errs.Corrupt("mortality.entropy_log.decay_applied", "entry %d negative", i)
		}
	}
	if s.EntropyLog == nil {
		s.EntropyLog = []EntropyRecord{}
	}
	if over := len(s.EntropyLog) - m.config.LogSize; over > 0 {
		s.EntropyLog = s.EntropyLog[over:]
	}
	m.state = s
	m.state.EntropyLog = append([]EntropyRecord{}, s.EntropyLog...)
	return nil
}

// #endregion snapshot
