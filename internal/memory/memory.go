package memory

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

// #region config

// Config bounds the store and sets the decay half-life.
type Config struct {
	MaxMemories        int     // entries kept after pruning (default 100)
	DecayHalfLifeHours float64 // age at which decay_factor reaches 0.5 (default 168)
}

// DefaultConfig returns a 100-entry store with a one-week half-life.
func DefaultConfig() Config {
	return Config{
		MaxMemories:        100,
		DecayHalfLifeHours: 168,
	}
}

// Validate rejects a negative bound or a non-positive half-life.
func (c Config) Validate() error {
	if c.MaxMemories < 0 {
		return errs.Invalid("memory.max_memories", "must be >= 0, got %d", c.MaxMemories)
	}
	if !(c.DecayHalfLifeHours > 0) || math.IsInf(c.DecayHalfLifeHours, 1) {
		return errs.Invalid("memory.decay_half_life_hours", "must be > 0, got %v", c.DecayHalfLifeHours)
	}
	return nil
}

// #endregion config

// #region types

// Entry is one weighted emotional memory.
type Entry struct {
	Timestamp          time.Time     `json:"timestamp"`
	PeerID             string        `json:"peer_id"`
	Summary            string        `json:"summary"`
	Emotion            emotion.Label `json:"emotion"`
	Intensity          float64       `json:"intensity"`
	Phase              string        `json:"phase"`
	Valence            float64       `json:"valence"`
	DecayFactor        float64       `json:"decay_factor"`
	ReinforcementCount int           `json:"reinforcement_count"`
}

// Input carries the caller-supplied fields of a new entry.
type Input struct {
	PeerID    string
	Summary   string
	Emotion   emotion.Label
	Intensity float64
	Phase     string
	Valence   float64
}

// State is the serializable form of a Store.
type State struct {
	MaxMemories        int     `json:"max_memories"`
	DecayHalfLifeHours float64 `json:"decay_half_life_hours"`
	Entries            []Entry `json:"entries"`
}

// #endregion types

// #region store

// Store is a bounded, ordered collection of affective memories.
type Store struct {
	maxMemories int
	halfLife    float64
	entries     []Entry
}

// NewStore creates an empty store.
func NewStore(config Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		maxMemories: config.MaxMemories,
		halfLife:    config.DecayHalfLifeHours,
		entries:     []Entry{},
	}, nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of the stored entries in store order.
func (s *Store) Entries() []Entry {
	return append([]Entry{}, s.entries...)
}

// #endregion store

// #region store-entry

// Validate checks an input without storing it.
func (in Input) Validate() error {
	if strings.TrimSpace(in.PeerID) == "" {
		return errs.Invalid("peer_id", "empty")
	}
	if strings.TrimSpace(in.Summary) == "" {
		return errs.Invalid("summary", "empty")
	}
	if strings.TrimSpace(string(in.Emotion)) == "" {
		return errs.Invalid("emotion", "empty")
	}
	if strings.TrimSpace(in.Phase) == "" {
		return errs.Invalid("phase", "empty")
	}
	if err := errs.Unit("intensity", in.Intensity); err != nil {
		return err
	}
	return errs.Signed("valence", in.Valence)
}

// Store appends a fresh entry and prunes when over capacity.
func (s *Store) Store(in Input, now time.Time) error {
	if err := in.Validate(); err != nil {
		return err
	}
	s.entries = append(s.entries, Entry{
		Timestamp:   now.UTC(),
		PeerID:      in.PeerID,
		Summary:     in.Summary,
		Emotion:     in.Emotion,
		Intensity:   in.Intensity,
		Phase:       in.Phase,
		Valence:     in.Valence,
		DecayFactor: 1,
	})
	if len(s.entries) > s.maxMemories {
		s.prune()
	}
	return nil
}

// prune keeps the most reinforced entries, newest first among equals.
func (s *Store) prune() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if a.ReinforcementCount != b.ReinforcementCount {
			return a.ReinforcementCount > b.ReinforcementCount
		}
		return a.Timestamp.After(b.Timestamp)
	})
	s.entries = append([]Entry{}, s.entries[:s.maxMemories]...)
}

// #endregion store-entry

// #region decay

// ApplyDecay sets every decay_factor from entry age alone, so repeated calls
// with the same now leave identical state.
func (s *Store) ApplyDecay(now time.Time) {
	for i := range s.entries {
		age := now.Sub(s.entries[i].Timestamp).Hours()
		if age < 0 {
			age = 0
		}
		s.entries[i].DecayFactor = emotion.Clamp01(math.Pow(0.5, age/s.halfLife))
	}
}

// Reinforce strengthens the entry at index.
func (s *Store) Reinforce(index int, strength float64) error {
	if index < 0 || index >= len(s.entries) {
		return errs.Invalid("index", "%d outside [0, %d)", index, len(s.entries))
	}
	if err := errs.Unit("strength", strength); err != nil {
		return err
	}
	e := &s.entries[index]
	e.ReinforcementCount++
	e.DecayFactor = emotion.Clamp01(e.DecayFactor + (1-e.DecayFactor)*0.5*strength)
	return nil
}

// #endregion decay

// #region recall

// RecallByEmotion returns up to limit entries with the given emotion,
// strongest first by intensity * decay * (1 + 0.2 * reinforcement).
func (s *Store) RecallByEmotion(label emotion.Label, limit int, now time.Time) []Entry {
	s.ApplyDecay(now)
	var out []Entry
	for _, e := range s.entries {
		if e.Emotion == label {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return recallScore(out[i]) > recallScore(out[j])
	})
	return truncate(out, limit)
}

// RecallByPeer returns up to limit entries for the peer, newest first.
func (s *Store) RecallByPeer(peerID string, limit int, now time.Time) []Entry {
	s.ApplyDecay(now)
	var out []Entry
	for _, e := range s.entries {
		if e.PeerID == peerID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return truncate(out, limit)
}

func recallScore(e Entry) float64 {
	return e.Intensity * e.DecayFactor * (1 + 0.2*float64(e.ReinforcementCount))
}

func truncate(entries []Entry, limit int) []Entry {
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// #endregion recall

// #region residue

// Residue sums decayed intensity per emotion and normalizes so the peak is 1.
func (s *Store) Residue(now time.Time) emotion.Map {
	s.ApplyDecay(now)
	out := emotion.Map{}
	for _, e := range s.entries {
		out[e.Emotion] += e.Intensity * e.DecayFactor * (1 + 0.1*float64(e.ReinforcementCount))
	}
	var peak float64
	for _, v := range out {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return out
	}
	for l, v := range out {
		out[l] = emotion.Clamp01(v / peak)
	}
	return out
}

// #endregion residue

// #region snapshot

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	return State{
		MaxMemories:        s.maxMemories,
		DecayHalfLifeHours: s.halfLife,
		Entries:            s.Entries(),
	}
}

// Restore replaces the store after validating every entry.
func (s *Store) Restore(st State) error {
	if st.MaxMemories < 0 {
		return errs.Corrupt("memory.max_memories", "negative: %d", st.MaxMemories)
	}
	if !(st.DecayHalfLifeHours > 0) {
		return errs.Corrupt("memory.decay_half_life_hours", "must be > 0, got %v", st.DecayHalfLifeHours)
	}
	if len(st.Entries) > st.MaxMemories {
		return errs.Corrupt("memory.entries", "%d entries exceed max_memories %d", len(st.Entries), st.MaxMemories)
	}
	for _, e := range st.Entries {
		if e.PeerID == "" || e.Emotion == "" {
			return errs.Corrupt("memory.entries", "entry missing peer_id or emotion")
		}
		if err := errs.CorruptRange("memory.entries.intensity", e.Intensity, 0, 1); err != nil {
			return err
		}
		if err := errs.CorruptRange("memory.entries.valence", e.Valence, -1, 1); err != nil {
			return err
		}
		if err := errs.CorruptRange("memory.entries.decay_factor", e.DecayFactor, 0, 1); err != nil {
			return err
		}
		if e.ReinforcementCount < 0 {
			return errs.Corrupt("memory.entries.reinforcement_count", "negative: %d", e.ReinforcementCount)
		}
	}
	s.maxMemories = st.MaxMemories
	s.halfLife = st.DecayHalfLifeHours
	s.entries = append([]Entry{}, st.Entries...)
	return nil
}

// #endregion snapshot
