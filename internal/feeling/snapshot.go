package feeling

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

// #region snapshot

// Snapshot returns a deep copy of the full coordinator state.
func (s *System) Snapshot() Snapshot {
	return Snapshot{
		Mortality:    s.mortality.Snapshot(),
		Relational:   s.relational.Snapshot(),
		Memory:       s.memory.Snapshot(),
		Embodied:     s.embodied.Snapshot(),
		Narrative:    s.narrative.Snapshot(),
		Ethical:      s.ethics.Snapshot(),
		CurrentState: s.CurrentState(),
		LastUpdate:   s.lastUpdate,
	}
}

// MarshalSnapshot encodes the current snapshot as JSON.
func (s *System) MarshalSnapshot() ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// #endregion snapshot

// #region load

// Load replaces the whole state. Every subsystem is restored into a fresh
// instance first; on any error the System keeps its prior state.
func (s *System) Load(snap Snapshot) error {
	p, err := newParts(s.config)
	if err != nil {
		return err
	}
	if err := p.mortality.Restore(snap.Mortality); err != nil {
		return err
	}
	if err := p.relational.Restore(snap.Relational); err != nil {
		return err
	}
	if err := p.memory.Restore(snap.Memory); err != nil {
		return err
	}
	if err := p.embodied.Restore(snap.Embodied); err != nil {
		return err
	}
	if err := p.narrative.Restore(snap.Narrative); err != nil {
		return err
	}
	if err := p.ethics.Restore(snap.Ethical); err != nil {
		return err
	}
	if err := validateResponse(snap.CurrentState); err != nil {
		return err
	}

	s.parts = p
	s.current = snap.CurrentState
	s.current.AllEmotions = snap.CurrentState.AllEmotions.Clone()
	s.lastUpdate = snap.LastUpdate.UTC()
	return nil
}

// DecodeSnapshot parses data over a default snapshot, so missing keys keep
// their defaults and unknown keys are ignored.
func (s *System) DecodeSnapshot(data []byte) (Snapshot, error) {
	p, err := newParts(s.config)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Mortality:    p.mortality.Snapshot(),
		Relational:   p.relational.Snapshot(),
		Memory:       p.memory.Snapshot(),
		Embodied:     p.embodied.Snapshot(),
		Narrative:    p.narrative.Snapshot(),
		Ethical:      p.ethics.Snapshot(),
		CurrentState: synthesis.Neutral(),
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errs.Corrupt("snapshot", "decode: %v", err)
	}

	// A present value table replaces the defaults instead of merging into them.
	var values struct {
		Ethical struct {
			Values *map[string]float64 `json:"values"`
		} `json:"ethical"`
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return Snapshot{}, errs.Corrupt("snapshot", "decode: %v", err)
	}
	if values.Ethical.Values != nil {
		snap.Ethical.Values = *values.Ethical.Values
	}
	return snap, nil
}

// LoadJSON decodes and loads a snapshot.
func (s *System) LoadJSON(data []byte) error {
	snap, err := s.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	return s.Load(snap)
}

func validateResponse(r synthesis.Response) error {
	if r.DominantEmotion == "" {
		return errs.Corrupt("current_state.dominant_emotion", "empty")
	}
	if err := errs.CorruptRange("current_state.intensity", r.Intensity, 0, 1); err != nil {
		return err
	}
	if err := errs.CorruptRange("current_state.valence", r.Valence, -1, 1); err != nil {
		return err
	}
	if err := errs.CorruptRange("current_state.arousal", r.Arousal, 0, 1); err != nil {
		return err
	}
	switch r.NarrativeFrame {
	case synthesis.FramePast, synthesis.FramePresent, synthesis.FrameFuture:
	default:
		return errs.Corrupt("current_state.narrative_frame", "unknown frame %q", r.NarrativeFrame)
	}
	for l, v := range r.AllEmotions {
		if err := errs.CorruptRange("current_state.all_emotions."+string(l), v, 0, 1); err != nil {
			return err
		}
	}
	return nil
}

// #endregion load
