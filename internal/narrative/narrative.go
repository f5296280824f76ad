package narrative

import (
	"sort"
	"strings"
	"time"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

const (
	growthWindow   = 7 * 24 * time.Hour
	betrayalWindow = 30 * 24 * time.Hour
	hopeWindow     = 5
)

// #region config

// Config seeds the narrative identity.
type Config struct {
	CoreValues []string // ordered; copied into state
}

// DefaultConfig has no core values; the coordinator supplies them.
func DefaultConfig() Config {
	return Config{}
}

// #endregion config

// #region types

// Moment is one entry of a growth, betrayal or hope log.
// Source holds the catalyst, the betrayal source or the hope anchor.
type Moment struct {
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Weight      float64   `json:"weight"`
}

// State is the serializable form of a Narrative.
type State struct {
	GrowthMoments     []Moment `json:"growth_moments"`
	BetrayalWounds    []Moment `json:"betrayal_wounds"`
	HopeAnchors       []Moment `json:"hope_anchors"`
	CoreValues        []string `json:"core_values"`
	LifeThemes        []string `json:"life_themes"`
	IdentityCoherence float64  `json:"identity_coherence"`
}

// #endregion types

// #region narrative

// Narrative is the self-story: append-only logs plus an identity coherence scalar.
type Narrative struct {
	growth            []Moment
	betrayals         []Moment
	hopes             []Moment
	coreValues        []string
	lifeThemes        map[string]struct{}
	identityCoherence float64
}

// New creates a Narrative at full identity coherence.
func New(config Config) (*Narrative, error) {
	for i, v := range config.CoreValues {
		if strings.TrimSpace(v) == "" {
			return nil, errs.Invalid("narrative.core_values", "entry %d empty", i)
		}
	}
	return &Narrative{
		growth:            []Moment{},
		betrayals:         []Moment{},
		hopes:             []Moment{},
		coreValues:        append([]string{}, config.CoreValues...),
		lifeThemes:        make(map[string]struct{}),
		identityCoherence: 1.0,
	}, nil
}

// IdentityCoherence returns the current identity coherence.
func (n *Narrative) IdentityCoherence() float64 { return n.identityCoherence }

// LifeThemes returns the themes in sorted order.
func (n *Narrative) LifeThemes() []string {
	out := make([]string, 0, len(n.lifeThemes))
	for t := range n.lifeThemes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// #endregion narrative

// #region record

func moment(description, source string, weight float64, now time.Time, weightField string) (Moment, error) {
	if strings.TrimSpace(description) == "" {
		return Moment{}, errs.Invalid("description", "empty")
	}
	if strings.TrimSpace(source) == "" {
		return Moment{}, errs.Invalid("source", "empty")
	}
	if err := errs.Unit(weightField, weight); err != nil {
		return Moment{}, err
	}
	return Moment{Timestamp: now.UTC(), Description: description, Source: source, Weight: weight}, nil
}

// RecordGrowth logs a growth moment. Heavy moments make the catalyst a life theme.
func (n *Narrative) RecordGrowth(description, catalyst string, weight float64, now time.Time) error {
	m, err := moment(description, catalyst, weight, now, "weight")
	if err != nil {
		return err
	}
	n.growth = append(n.growth, m)
	n.identityCoherence = emotion.Clamp01(n.identityCoherence + 0.1*weight)
	if weight > 0.7 {
		n.lifeThemes[catalyst] = struct{}{}
	}
	return nil
}

// RecordBetrayal logs a wound and erodes identity coherence.
func (n *Narrative) RecordBetrayal(description, source string, severity float64, now time.Time) error {
	m, err := moment(description, source, severity, now, "severity")
	if err != nil {
		return err
	}
	n.betrayals = append(n.betrayals, m)
	n.identityCoherence = emotion.Clamp01(n.identityCoherence - 0.2*severity)
	return nil
}

// RecordHope logs a hope anchor.
func (n *Narrative) RecordHope(description, anchor string, strength float64, now time.Time) error {
	m, err := moment(description, anchor, strength, now, "strength")
	if err != nil {
		return err
	}
	n.hopes = append(n.hopes, m)
	return nil
}

// #endregion record

// #region emotions

// Emotions maps recent narrative events to an emotional contribution.
func (n *Narrative) Emotions(now time.Time) emotion.Map {
	out := emotion.Map{}

	if mean, ok := meanWeightSince(n.growth, now, growthWindow); ok {
		out.Set(emotion.Growth, mean)
		out.Set(emotion.Hope, 0.8*mean)
	}
	if mean, ok := meanWeightSince(n.betrayals, now, betrayalWindow); ok {
		out.Set(emotion.Betrayal, 0.7*mean)
		out.Set(emotion.Grief, 0.5*mean)
	}
	if n.identityCoherence < 0.4 {
		out.Set(emotion.Anxiety, 0.8*(0.4-n.identityCoherence)/0.4)
	}
	if len(n.hopes) > 0 {
		recent := n.hopes
		if len(recent) > hopeWindow {
			recent = recent[len(recent)-hopeWindow:]
		}
		var sum float64
		for _, h := range recent {
			sum += h.Weight
		}
		out.Max(emotion.Hope, 0.7*sum/float64(len(recent)))
	}
	return out
}

func meanWeightSince(log []Moment, now time.Time, window time.Duration) (float64, bool) {
	var sum float64
	var count int
	for _, m := range log {
		if now.Sub(m.Timestamp) <= window {
			sum += m.Weight
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// #endregion emotions

// #region snapshot

// Snapshot returns a deep copy of the current state.
func (n *Narrative) Snapshot() State {
	return State{
		GrowthMoments:     append([]Moment{}, n.growth...),
		BetrayalWounds:    append([]Moment{}, n.betrayals...),
		HopeAnchors:       append([]Moment{}, n.hopes...),
		CoreValues:        append([]string{}, n.coreValues...),
		LifeThemes:        n.LifeThemes(),
		IdentityCoherence: n.identityCoherence,
	}
}

// Restore replaces the state after validating every field.
func (n *Narrative) Restore(s State) error {
	if err := errs.CorruptRange("narrative.identity_coherence", s.IdentityCoherence, 0, 1); err != nil {
		return err
	}
	logs := []struct {
		field string
		log   []Moment
	}{
		{"narrative.growth_moments", s.GrowthMoments},
		{"narrative.betrayal_wounds", s.BetrayalWounds},
		{"narrative.hope_anchors", s.HopeAnchors},
	}
	for _, l := range logs {
		for _, m := range l.log {
			if err := errs.CorruptRange(l.field+".weight", m.Weight, 0, 1); err != nil {
				return err
			}
		}
	}
	themes := make(map[string]struct{}, len(s.LifeThemes))
	for _, t := range s.LifeThemes {
		if t == "" {
			return errs.Corrupt("narrative.life_themes", "empty theme")
		}
		themes[t] = struct{}{}
	}

	n.growth = append([]Moment{}, s.GrowthMoments...)
	n.betrayals = append([]Moment{}, s.BetrayalWounds...)
	n.hopes = append([]Moment{}, s.HopeAnchors...)
	n.coreValues = append([]string{}, s.CoreValues...)
	n.lifeThemes = themes
	n.identityCoherence = s.IdentityCoherence
	return nil
}

// #endregion snapshot
