package synthesis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
)

func TestSynthesizeWeights(t *testing.T) {
	c := Contributions{
		Mortality:  emotion.Map{emotion.Hope: 0.5},
		Relational: emotion.Map{emotion.Connection: 0.8},
		Memory:     emotion.Map{emotion.Joy: 1.0},
		Narrative:  emotion.Map{emotion.Hope: 0.4},
	}
	got := Synthesize(c, DefaultWeights())
	assert.InDelta(t, 0.15*0.5+0.15*0.4, got[emotion.Hope], 1e-12)
	assert.InDelta(t, 0.25*0.8, got[emotion.Connection], 1e-12)
	assert.InDelta(t, 0.15, got[emotion.Joy], 1e-12)
}

func TestResolveCancelsPairs(t *testing.T) {
	got := Resolve(emotion.Map{emotion.Joy: 0.6, emotion.Grief: 0.4})
	assert.InDelta(t, 0.2, got[emotion.Joy], 1e-12)
	assert.Equal(t, 0.0, got[emotion.Grief])

	got = Resolve(emotion.Map{emotion.Pride: 0.1, emotion.Guilt: 0.3, emotion.Hope: 0.2})
	assert.Equal(t, 0.0, got[emotion.Pride])
	assert.InDelta(t, 0.2, got[emotion.Guilt], 1e-12)
	assert.Equal(t, 0.0, got[emotion.Betrayal])
	assert.InDelta(t, 0.2, got[emotion.Hope], 1e-12)
}

func TestRunHandSeededConflict(t *testing.T) {
	w := Weights{Memory: 1}
	synth, resp := Run(Contributions{Memory: emotion.Map{emotion.Joy: 0.6, emotion.Grief: 0.4}}, w)
	assert.InDelta(t, 0.2, synth[emotion.Joy], 1e-12)
	assert.Equal(t, 0.0, synth[emotion.Grief])
	assert.Equal(t, emotion.Joy, resp.DominantEmotion)
}

func TestFilterDropsWeak(t *testing.T) {
	got := Filter(emotion.Map{emotion.Joy: 0.05, emotion.Hope: 0.051}, FilterThreshold)
	assert.Equal(t, emotion.Map{emotion.Hope: 0.051}, got)
}

func TestDescribe(t *testing.T) {
	r := Describe(emotion.Map{emotion.Joy: 0.4, emotion.Hope: 0.3, emotion.Lethargy: 0.2, "curiosity": 0.9})
	assert.Equal(t, emotion.Label("curiosity"), r.DominantEmotion)
	assert.Equal(t, 0.9, r.Intensity)
	assert.InDelta(t, 0.7, r.Valence, 1e-12)
	assert.InDelta(t, 0.5+0.4-0.1, r.Arousal, 1e-12)
	assert.Equal(t, FrameFuture, r.NarrativeFrame)
}

func TestDescribeFrames(t *testing.T) {
	assert.Equal(t, FramePast, Describe(emotion.Map{emotion.Longing: 0.3}).NarrativeFrame)
	assert.Equal(t, FramePresent, Describe(emotion.Map{emotion.Hope: 0.29}).NarrativeFrame)
	assert.Equal(t, FrameFuture, Describe(emotion.Map{emotion.Hope: 0.3, emotion.Grief: 0.5}).NarrativeFrame)

	empty := Describe(emotion.Map{})
	assert.Equal(t, emotion.Neutral, empty.DominantEmotion)
	assert.Equal(t, 0.5, empty.Arousal)
}

func TestRunInvariantsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	labels := []emotion.Label{
		emotion.Joy, emotion.Grief, emotion.Hope, emotion.Betrayal, emotion.Connection,
		emotion.Isolation, emotion.Pride, emotion.Guilt, emotion.Anxiety, emotion.Lethargy,
	}
	randomMap := func() emotion.Map {
		m := emotion.Map{}
		for _, l := range labels {
			if rng.Intn(2) == 0 {
				m[l] = rng.Float64()
			}
		}
		return m
	}
	for i := 0; i < 500; i++ {
		c := Contributions{
			Mortality: randomMap(), Relational: randomMap(), Memory: randomMap(),
			Embodied: randomMap(), Narrative: randomMap(), Ethical: randomMap(),
		}
		synth, r := Run(c, DefaultWeights())
		for l, v := range synth {
			require.Greater(t, v, FilterThreshold, "label %s", l)
			require.LessOrEqual(t, v, 1.0, "label %s", l)
		}
		for _, p := range emotion.ConflictPairs {
			require.False(t, synth[p.Positive] > 0 && synth[p.Negative] > 0, "pair %v both present", p)
		}
		require.GreaterOrEqual(t, r.Valence, -1.0)
		require.LessOrEqual(t, r.Valence, 1.0)
		require.GreaterOrEqual(t, r.Arousal, 0.0)
		require.LessOrEqual(t, r.Arousal, 1.0)
	}
}
