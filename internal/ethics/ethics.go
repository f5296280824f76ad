package ethics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

// Value names used by the default table and the coordinator's alignment rules.
const (
	Compassion   = "compassion"
	Integrity    = "integrity"
	Authenticity = "authenticity"
	Empathy      = "empathy"
	Connection   = "connection"
	Growth       = "growth"
)

const recentWindow = 10

// #region config

// Config holds the value table, sensitivity and log bound.
type Config struct {
	Values           map[string]float64 // value name -> importance in [0, 1]
	MoralSensitivity float64
	LogSize          int
}

// DefaultConfig returns the stock value table.
func DefaultConfig() Config {
	return Config{
		Values: map[string]float64{
			Compassion:   0.9,
			Integrity:    0.9,
			Authenticity: 0.85,
			Empathy:      0.85,
			Connection:   0.8,
			Growth:       0.7,
		},
		MoralSensitivity: 0.8,
		LogSize:          100,
	}
}

// Validate rejects empty names and out-of-range importances.
func (c Config) Validate() error {
	for name, imp := range c.Values {
		if strings.TrimSpace(name) == "" {
			return errs.Invalid("ethics.values", "empty value name")
		}
		if err := errs.Unit("ethics.values."+name, imp); err != nil {
			return err
		}
	}
	if err := errs.Unit("ethics.moral_sensitivity", c.MoralSensitivity); err != nil {
		return err
	}
	if c.LogSize <= 0 {
		return errs.Invalid("ethics.log_size", "must be > 0, got %d", c.LogSize)
	}
	return nil
}

// ValueNames returns the configured value names in sorted order.
func (c Config) ValueNames() []string {
	names := make([]string, 0, len(c.Values))
	for n := range c.Values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// #endregion config

// #region types

// Evaluation is one moral log entry.
type Evaluation struct {
	Timestamp        time.Time          `json:"timestamp"`
	Action           string             `json:"action"`
	Alignments       map[string]float64 `json:"alignments"`
	OverallAlignment float64            `json:"overall_alignment"`
	MoralEmotions    emotion.Map        `json:"moral_emotions"`
}

// State is the serializable form of a Mirror.
type State struct {
	Values           map[string]float64 `json:"values"`
	MoralSensitivity float64            `json:"moral_sensitivity"`
	MoralLog         []Evaluation       `json:"moral_log"`
}

// #endregion types

// #region mirror

// Mirror evaluates actions against a weighted value table.
type Mirror struct {
	config      Config
	values      map[string]float64
	sensitivity float64
	log         []Evaluation
}

// New creates a Mirror with an empty moral log.
func New(config Config) (*Mirror, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Mirror{
		config:      config,
		values:      copyValues(config.Values),
		sensitivity: config.MoralSensitivity,
		log:         []Evaluation{},
	}, nil
}

// Log returns a copy of the moral log, oldest first.
func (m *Mirror) Log() []Evaluation {
	return append([]Evaluation{}, m.log...)
}

func copyValues(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// #endregion mirror

// #region evaluate

// ValidateAlignments checks every alignment is in [-1, 1].
func ValidateAlignments(alignments map[string]float64) error {
	for name, a := range alignments {
		if err := errs.Signed("alignment."+name, a); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate scores an action against the value table and logs the moral emotions it produces.
// Alignments for values outside the table are ignored.
func (m *Mirror) Evaluate(action string, alignments map[string]float64, now time.Time) (Evaluation, error) {
	if strings.TrimSpace(action) == "" {
		return Evaluation{}, errs.Invalid("action", "empty")
	}
	if err := ValidateAlignments(alignments); err != nil {
		return Evaluation{}, err
	}

	overall := m.overall(alignments)
	s := m.sensitivity
	emo := emotion.Map{}

	if overall < -0.2 {
		emo.Set(emotion.Guilt, s*math.Abs(overall))
	}
	if overall > 0.3 {
		emo.Set(emotion.Pride, s*0.8*overall)
	}
	if a, ok := alignments[Compassion]; ok && a > 0.5 {
		emo.Set(emotion.Compassion, 0.9*a)
	}
	if a, ok := alignments[Integrity]; ok && a < -0.3 {
		emo.Set(emotion.Shame, s*math.Abs(a))
	}
	if overall > 0.6 {
		emo.Set(emotion.Gratitude, s*0.7*(overall-0.6)/0.4)
	}
	for _, name := range sortedKeys(alignments) {
		imp, ok := m.values[name]
		if a := alignments[name]; ok && imp > 0.7 && a < -0.5 {
			emo.Max(emotion.Indignation, s*0.6*math.Abs(a))
		}
	}

	e := Evaluation{
		Timestamp:        now.UTC(),
		Action:           action,
		Alignments:       copyValues(alignments),
		OverallAlignment: overall,
		MoralEmotions:    emo,
	}
	m.log = append(m.log, e)
	if over := len(m.log) - m.config.LogSize; over > 0 {
		m.log = append([]Evaluation{}, m.log[over:]...)
	}
	return e, nil
}

// overall is the importance-weighted mean alignment over known values.
func (m *Mirror) overall(alignments map[string]float64) float64 {
	var num, den float64
	for _, name := range sortedKeys(alignments) {
		imp, ok := m.values[name]
		if !ok {
			continue
		}
		num += imp * alignments[name]
		den += imp
	}
	if den == 0 {
		return 0
	}
	return emotion.Clamp(num/den, -1, 1)
}

func sortedKeys(in map[string]float64) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion evaluate

// #region current

// CurrentMoralEmotions takes the per-emotion maximum over the last ten evaluations.
func (m *Mirror) CurrentMoralEmotions() emotion.Map {
	out := emotion.Map{}
	recent := m.log
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	for _, e := range recent {
		for l, v := range e.MoralEmotions {
			out.Max(l, v)
		}
	}
	return out
}

// #endregion current

// #region snapshot

// Snapshot returns a deep copy of the current state.
func (m *Mirror) Snapshot() State {
	log := make([]Evaluation, len(m.log))
	for i, e := range m.log {
		e.Alignments = copyValues(e.Alignments)
		e.MoralEmotions = e.MoralEmotions.Clone()
		log[i] = e
	}
	return State{
		Values:           copyValues(m.values),
		MoralSensitivity: m.sensitivity,
		MoralLog:         log,
	}
}

// Restore replaces the state after validating every field.
func (m *Mirror) Restore(s State) error {
	for name, imp := range s.Values {
		if name == "" {
			return errs.Corrupt("ethics.values", "empty value name")
		}
		if err := errs.CorruptRange("ethics.values."+name, imp, 0, 1); err != nil {
			return err
		}
	}
	if err := errs.CorruptRange("ethics.moral_sensitivity", s.MoralSensitivity, 0, 1); err != nil {
		return err
	}
	log := s.MoralLog
	if over := len(log) - m.config.LogSize; over > 0 {
		log = log[over:]
	}
	restored := make([]Evaluation, len(log))
	for i, e := range log {
		if err := errs.CorruptRange("ethics.moral_log.overall_alignment", e.OverallAlignment, -1, 1); err != nil {
			return err
		}
		for name, a := range e.Alignments {
			if err := errs.CorruptRange("ethics.moral_log.alignments."+name, a, -1, 1); err != nil {
				return err
			}
		}
		for l, v := range e.MoralEmotions {
			if err := errs.CorruptRange("ethics.moral_log.moral_emotions."+string(l), v, 0, 1); err != nil {
				return err
			}
		}
		e.Alignments = copyValues(e.Alignments)
		if e.MoralEmotions == nil {
			e.MoralEmotions = emotion.Map{}
		} else {
			e.MoralEmotions = e.MoralEmotions.Clone()
		}
		restored[i] = e
	}
	m.values = copyValues(s.Values)
	m.sensitivity = s.MoralSensitivity
	m.log = restored
	return nil
}

// #endregion snapshot
