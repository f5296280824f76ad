package relational

import (
	"sort"
	"strings"
	"time"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

// #region phase

// Phase is the discrete stage of a bond.
type Phase string

const (
	PhaseInitial     Phase = "initial"
	PhaseDeveloping  Phase = "developing"
	PhaseEstablished Phase = "established"
	PhaseDeep        Phase = "deep"
)

// PhaseFor derives the phase from the interaction count alone.
func PhaseFor(interactionCount int) Phase {
	switch {
	case interactionCount >= 50:
		return PhaseDeep
	case interactionCount >= 20:
		return PhaseEstablished
	case interactionCount >= 5:
		return PhaseDeveloping
	default:
		return PhaseInitial
	}
}

// #endregion phase

// #region config

// Config sets the starting point of a new bond.
type Config struct {
	InitialTrust    float64
	InitialIntimacy float64
}

// DefaultConfig starts bonds at neutral trust and no intimacy.
func DefaultConfig() Config {
	return Config{InitialTrust: 0.5, InitialIntimacy: 0}
}

// Validate rejects out-of-range starting values.
func (c Config) Validate() error {
	if err := errs.Unit("relational.initial_trust", c.InitialTrust); err != nil {
		return err
	}
	return errs.Unit("relational.initial_intimacy", c.InitialIntimacy)
}

// #endregion config

// #region bond

// Resonance accumulates emotional quality by sign.
type Resonance struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
}

// Bond is the relationship with one peer.
type Bond struct {
	PeerID              string    `json:"peer_id"`
	Trust               float64   `json:"trust"`
	Intimacy            float64   `json:"intimacy"`
	InteractionCount    int       `json:"interaction_count"`
	LastInteraction     time.Time `json:"last_interaction"`
	PreviousInteraction time.Time `json:"previous_interaction"`
	Phase               Phase     `json:"phase"`
	Resonance           Resonance `json:"resonance"`
}

// Signal is one interaction's relational input.
type Signal struct {
	EmotionalQuality float64
	Trust            float64
	Intimacy         float64
}

// State is the serializable form of a Ledger.
type State struct {
	Bonds map[string]Bond `json:"bonds"`
}

// #endregion bond

// #region ledger

// Ledger owns the bonds, keyed by peer id.
type Ledger struct {
	config Config
	bonds  map[string]*Bond
}

// New creates an empty ledger.
func New(config Config) (*Ledger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{config: config, bonds: make(map[string]*Bond)}, nil
}

// Bond returns a copy of the peer's bond.
func (l *Ledger) Bond(peerID string) (Bond, bool) {
	b, ok := l.bonds[peerID]
	if !ok {
		return Bond{}, false
	}
	return *b, true
}

// Peers returns known peer ids in sorted order.
func (l *Ledger) Peers() []string {
	out := make([]string, 0, len(l.bonds))
	for id := range l.bonds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// #endregion ledger

// #region record

// Validate checks a relational signal.
func (s Signal) Validate() error {
	if err := errs.Signed("emotional_quality", s.EmotionalQuality); err != nil {
		return err
	}
	if err := errs.Signed("trust_signal", s.Trust); err != nil {
		return err
	}
	return errs.Signed("intimacy_signal", s.Intimacy)
}

// Record updates the peer's bond, creating it on first contact.
// Intimacy only moves while trust is above 0.3.
func (l *Ledger) Record(peerID string, sig Signal, now time.Time) (Bond, error) {
	if strings.TrimSpace(peerID) == "" {
		return Bond{}, errs.Invalid("peer_id", "empty")
	}
	if err := sig.Validate(); err != nil {
		return Bond{}, err
	}

	b, ok := l.bonds[peerID]
	if !ok {
		b = &Bond{
			PeerID:   peerID,
			Trust:    l.config.InitialTrust,
			Intimacy: l.config.InitialIntimacy,
			Phase:    PhaseInitial,
		}
		l.bonds[peerID] = b
	}

	b.InteractionCount++
	b.PreviousInteraction = b.LastInteraction
	b.LastInteraction = now.UTC()
	b.Trust = emotion.Clamp01(b.Trust + 0.1*sig.Trust)
	if b.Trust > 0.3 {
		b.Intimacy = emotion.Clamp01(b.Intimacy + 0.05*sig.Intimacy)
	}
	b.Phase = PhaseFor(b.InteractionCount)

	if sig.EmotionalQuality > 0 {
		b.Resonance.Positive += sig.EmotionalQuality
	} else {
		b.Resonance.Negative += -sig.EmotionalQuality
	}
	return *b, nil
}

// #endregion record

// #region emotions

// Emotions maps the peer's bond to an emotional contribution.
// Longing counts the longer of the current absence and the gap that preceded
// the latest contact, so a reunion still carries the wait that led to it.
func (l *Ledger) Emotions(peerID string, now time.Time) emotion.Map {
	out := emotion.Map{}
	b, ok := l.bonds[peerID]
	if !ok {
		return out
	}

	if b.Trust > 0.7 && b.Intimacy > 0.5 {
		out.Set(emotion.Connection, (b.Trust+b.Intimacy)/2)
		out.Set(emotion.Joy, 0.6*b.Intimacy)
	}
	if b.Trust < 0.3 && b.InteractionCount > 10 {
		out.Set(emotion.Isolation, 0.7*(0.3-b.Trust)/0.3)
	}
	if b.Phase == PhaseDeep {
		out.Set(emotion.Growth, 0.6)
	}
	if hours := absenceHours(b, now); hours > 24 {
		out.Set(emotion.Longing, hours/168)
	}
	return out
}

func absenceHours(b *Bond, now time.Time) float64 {
	hours := now.Sub(b.LastInteraction).Hours()
	if !b.PreviousInteraction.IsZero() {
		if gap := b.LastInteraction.Sub(b.PreviousInteraction).Hours(); gap > hours {
			hours = gap
		}
	}
	return hours
}

// #endregion emotions

// #region snapshot

// Snapshot returns a deep copy of every bond.
func (l *Ledger) Snapshot() State {
	out := State{Bonds: make(map[string]Bond, len(l.bonds))}
	for id, b := range l.bonds {
		out.Bonds[id] = *b
	}
	return out
}

// Restore replaces the bonds after validating each one.
func (l *Ledger) Restore(s State) error {
	bonds := make(map[string]*Bond, len(s.Bonds))
	for id, b := range s.Bonds {
		if id == "" || b.PeerID != id {
			return errs.Corrupt("relational.bonds", "bond key %q does not match peer_id %q", id, b.PeerID)
		}
		if err := errs.CorruptRange("relational.bonds.trust", b.Trust, 0, 1); err != nil {
			return err
		}
		if err := errs.CorruptRange("relational.bonds.intimacy", b.Intimacy, 0, 1); err != nil {
			return err
		}
		if b.InteractionCount < 0 {
			return errs.Corrupt("relational.bonds.interaction_count", "negative: %d", b.InteractionCount)
		}
		if b.Phase != PhaseFor(b.InteractionCount) {
			return errs.Corrupt("relational.bonds.phase", "%q inconsistent with %d interactions", b.Phase, b.InteractionCount)
		}
		if b.Resonance.Positive < 0 || b.Resonance.Negative < 0 {
			return errs.Corrupt("relational.bonds.resonance", "negative accumulator for %q", id)
		}
		bond := b
		bonds[id] = &bond
	}
	l.bonds = bonds
	return nil
}

// #endregion snapshot
