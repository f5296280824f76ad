package synthesis

import (
	"github.com/danielpatrickdp/feeling-system/internal/emotion"
)

// FilterThreshold is the intensity at or below which an emotion is dropped.
const FilterThreshold = 0.05

// frameThreshold is the intensity that orients the narrative frame.
const frameThreshold = 0.3

// #region run

// Run is the full pipeline: weight, resolve conflicts, filter, describe.
// It is a pure function of its inputs.
func Run(c Contributions, w Weights) (emotion.Map, Response) {
	synth := Filter(Resolve(Synthesize(c, w)), FilterThreshold)
	return synth, Describe(synth)
}

// #endregion run

// #region synthesize

// Synthesize sums each subsystem's contribution scaled by its weight.
func Synthesize(c Contributions, w Weights) emotion.Map {
	parts := []struct {
		weight float64
		m      emotion.Map
	}{
		{w.Mortality, c.Mortality},
		{w.Relational, c.Relational},
		{w.Memory, c.Memory},
		{w.Embodied, c.Embodied},
		{w.Narrative, c.Narrative},
		{w.Ethical, c.Ethical},
	}
	out := emotion.Map{}
	for _, p := range parts {
		for _, l := range p.m.Labels() {
			out[l] += p.weight * p.m[l]
		}
	}
	for l, v := range out {
		out[l] = emotion.Clamp01(v)
	}
	return out
}

// #endregion synthesize

// #region resolve

// Resolve cancels each conflict pair down to its net difference.
// Pairs where neither side is present are left absent.
func Resolve(m emotion.Map) emotion.Map {
	out := m.Clone()
	for _, p := range emotion.ConflictPairs {
		pos, hasPos := out[p.Positive]
		neg, hasNeg := out[p.Negative]
		if !hasPos && !hasNeg {
			continue
		}
		net := pos - neg
		if net > 0 {
			out[p.Positive], out[p.Negative] = net, 0
		} else {
			out[p.Positive], out[p.Negative] = 0, -net
		}
	}
	return out
}

// #endregion resolve

// #region filter

// Filter drops every entry with intensity at or below threshold.
func Filter(m emotion.Map, threshold float64) emotion.Map {
	out := emotion.Map{}
	for l, v := range m {
		if v > threshold {
			out[l] = v
		}
	}
	return out
}

// #endregion filter

// #region describe

// Describe derives the response descriptor from a synthesized state.
// Labels outside the closed vocabulary keep their place in AllEmotions and
// can win dominance, but do not move valence or arousal.
func Describe(synth emotion.Map) Response {
	dominant, intensity := synth.Dominant()

	var pos, neg, high, low float64
	for _, l := range synth.Labels() {
		v := synth[l]
		switch {
		case emotion.IsPositive(l):
			pos += v
		case emotion.IsNegative(l):
			neg += v
		}
		if emotion.IsHighArousal(l) {
			high += v
		}
		if emotion.IsLowArousal(l) {
			low += v
		}
	}

	frame := FramePresent
	switch {
	case synth[emotion.Hope] >= frameThreshold:
		frame = FrameFuture
	case synth[emotion.Grief] >= frameThreshold || synth[emotion.Longing] >= frameThreshold:
		frame = FramePast
	}

	return Response{
		DominantEmotion: dominant,
		Intensity:       emotion.Clamp01(intensity),
		Valence:         emotion.Clamp(pos-neg, -1, 1),
		Arousal:         emotion.Clamp01(0.5 + (high - 0.5*low)),
		NarrativeFrame:  frame,
		AllEmotions:     synth.Clone(),
	}
}

// #endregion describe
