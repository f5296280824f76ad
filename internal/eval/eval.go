package eval

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/relational"
)

// #region eval-harness
// EvalHarness runs post-pass validation on a snapshot and its result.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks the structural invariants of snap and res.
// Coherence checks are informational and never fail the run.
func (h *EvalHarness) Run(snap feeling.Snapshot, res feeling.Result) EvalResult {
	var metrics []EvalMetric
	var failReasons []string

	check := func(name string, violations int, detail string) {
		pass := violations == 0
		metrics = append(metrics, EvalMetric{Name: name, Value: float64(violations), Pass: pass})
		if !pass {
			failReasons = append(failReasons, fmt.Sprintf("%s: %s", name, detail))
		}
	}

	// 1. Value ranges across every subsystem
	n, first := rangeViolations(snap, res)
	check("range_violations", n, first)

	// 2. Memory bound
	overflow := len(snap.Memory.Entries) - snap.Memory.MaxMemories
	if overflow < 0 {
		overflow = 0
	}
	check("memory_overflow", overflow,
		fmt.Sprintf("%d entries exceed max %d", len(snap.Memory.Entries), snap.Memory.MaxMemories))

	// 3. Relationship phase follows interaction count
	n, first = phaseViolations(snap.Relational)
	check("phase_mismatch", n, first)

	// 4. No conflict pair survives synthesis
	n, first = conflictViolations(res.SynthesizedState)
	check("conflict_pairs", n, first)

	// 5. Dominant emotion is the strongest synthesized one
	n, first = dominantViolations(res)
	check("dominant_mismatch", n, first)

	// 6. Coherence: informational
	metrics = append(metrics,
		EvalMetric{
			Name:  "identity_coherence",
			Value: snap.Narrative.IdentityCoherence,
			Pass:  snap.Narrative.IdentityCoherence >= h.config.MinIdentityCoherence,
		},
		EvalMetric{
			Name:  "coherence",
			Value: snap.Mortality.Coherence,
			Pass:  snap.Mortality.Coherence >= h.config.MinCoherence,
		},
	)

	reason := "all checks passed"
	if len(failReasons) > 0 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region checks

type bound struct {
	name   string
	v      float64
	lo, hi float64
}

func rangeViolations(snap feeling.Snapshot, res feeling.Result) (int, string) {
	bounds := []bound{
		{"mortality.coherence", snap.Mortality.Coherence, 0, 1},
		{"embodied.energy", snap.Embodied.Energy, 0, snap.Embodied.MaxEnergy},
		{"embodied.attention", snap.Embodied.Attention, 0, snap.Embodied.MaxAttention},
		{"embodied.processing", snap.Embodied.Processing, 0, snap.Embodied.MaxProcessing},
		{"narrative.identity_coherence", snap.Narrative.IdentityCoherence, 0, 1},
		{"response.intensity", res.EmotionalResponse.Intensity, 0, 1},
		{"response.valence", res.EmotionalResponse.Valence, -1, 1},
		{"response.arousal", res.EmotionalResponse.Arousal, 0, 1},
		{"quality", res.Quality, 0, 1},
	}
	for i, m := range snap.Memory.Entries {
		bounds = append(bounds,
			bound{fmt.Sprintf("memory[%d].intensity", i), m.Intensity, 0, 1},
			bound{fmt.Sprintf("memory[%d].decay_factor", i), m.DecayFactor, 0, 1},
			bound{fmt.Sprintf("memory[%d].valence", i), m.Valence, -1, 1},
		)
	}
	for _, peer := range sortedPeers(snap.Relational) {
		b := snap.Relational.Bonds[peer]
		bounds = append(bounds,
			bound{peer + ".trust", b.Trust, 0, 1},
			bound{peer + ".intimacy", b.Intimacy, 0, 1},
		)
	}
	for _, l := range res.SynthesizedState.Labels() {
		bounds = append(bounds, bound{"synthesized." + string(l), res.SynthesizedState[l], 0, 1})
	}

	var count int
	var first string
	for _, b := range bounds {
		if b.v >= b.lo && b.v <= b.hi {
			continue
		}
		if count == 0 {
			first = fmt.Sprintf("%s=%v outside [%v, %v]", b.name, b.v, b.lo, b.hi)
		}
		count++
	}
	return count, first
}

func phaseViolations(s relational.State) (int, string) {
	var count int
	var first string
	for _, peer := range sortedPeers(s) {
		b := s.Bonds[peer]
		if want := relational.PhaseFor(b.InteractionCount); b.Phase != want {
			if count == 0 {
				first = fmt.Sprintf("%s is %s after %d interactions, want %s", peer, b.Phase, b.InteractionCount, want)
			}
			count++
		}
	}
	return count, first
}

func conflictViolations(m emotion.Map) (int, string) {
	var count int
	var first string
	for _, p := range emotion.ConflictPairs {
		_, hasPos := m[p.Positive]
		_, hasNeg := m[p.Negative]
		if hasPos && hasNeg {
			if count == 0 {
				first = fmt.Sprintf("%s and %s both present", p.Positive, p.Negative)
			}
			count++
		}
	}
	return count, first
}

func dominantViolations(res feeling.Result) (int, string) {
	resp := res.EmotionalResponse
	if len(res.SynthesizedState) == 0 {
		if resp.DominantEmotion != emotion.Neutral {
			return 1, fmt.Sprintf("empty state but dominant is %s", resp.DominantEmotion)
		}
		return 0, ""
	}
	_, top := res.SynthesizedState.Dominant()
	if got, ok := res.SynthesizedState[resp.DominantEmotion]; !ok || got != top {
		return 1, fmt.Sprintf("dominant %s is not the strongest emotion", resp.DominantEmotion)
	}
	return 0, ""
}

// #endregion checks

// #region helpers
func sortedPeers(s relational.State) []string {
	peers := make([]string, 0, len(s.Bonds))
	for p := range s.Bonds {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	return peers
}

// #endregion helpers
