package relational

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(DefaultConfig())
	require.NoError(t, err)
	return l
}

func TestPhaseThresholds(t *testing.T) {
	cases := map[int]Phase{
		0: PhaseInitial, 4: PhaseInitial,
		5: PhaseDeveloping, 19: PhaseDeveloping,
		20: PhaseEstablished, 49: PhaseEstablished,
		50: PhaseDeep, 500: PhaseDeep,
	}
	for n, want := range cases {
		assert.Equal(t, want, PhaseFor(n), "count %d", n)
	}
}

func TestRecordCreatesAndUpdatesBond(t *testing.T) {
	l := newLedger(t)
	b, err := l.Record("p1", Signal{EmotionalQuality: 0.6, Trust: 0.5, Intimacy: 0.4}, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, b.InteractionCount)
	assert.InDelta(t, 0.55, b.Trust, 1e-12)
	assert.InDelta(t, 0.02, b.Intimacy, 1e-12)
	assert.Equal(t, PhaseInitial, b.Phase)
	assert.InDelta(t, 0.6, b.Resonance.Positive, 1e-12)

	b, err = l.Record("p1", Signal{EmotionalQuality: -0.3}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, b.Resonance.Negative, 1e-12)
	assert.Equal(t, t0, b.PreviousInteraction)
}

func TestIntimacyFrozenAtLowTrust(t *testing.T) {
	l := newLedger(t)
	for i := 0; i < 3; i++ {
		_, err := l.Record("p", Signal{Trust: -1}, t0.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	b, _ := l.Bond("p")
	require.LessOrEqual(t, b.Trust, 0.3)
	before := b.Intimacy

	b, err := l.Record("p", Signal{Trust: 0, Intimacy: 1}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, before, b.Intimacy)
}

func TestRecordRejectsInvalid(t *testing.T) {
	l := newLedger(t)
	_, err := l.Record("", Signal{}, t0)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	_, err = l.Record("p", Signal{Trust: 2}, t0)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Empty(t, l.Peers())
}

func TestPhaseTrajectoryDeterministic(t *testing.T) {
	run := func() []Phase {
		rng := rand.New(rand.NewSource(42))
		l := newLedger(t)
		var out []Phase
		for i := 0; i < 60; i++ {
			b, err := l.Record("p", Signal{
				EmotionalQuality: rng.Float64()*2 - 1,
				Trust:            rng.Float64()*2 - 1,
				Intimacy:         rng.Float64()*2 - 1,
			}, t0.Add(time.Duration(i)*time.Hour))
			require.NoError(t, err)
			require.Equal(t, PhaseFor(b.InteractionCount), b.Phase)
			require.GreaterOrEqual(t, b.Trust, 0.0)
			require.LessOrEqual(t, b.Trust, 1.0)
			require.GreaterOrEqual(t, b.Intimacy, 0.0)
			require.LessOrEqual(t, b.Intimacy, 1.0)
			out = append(out, b.Phase)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestEmotionsConnectionAndDeep(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Restore(State{Bonds: map[string]Bond{
		"p": {PeerID: "p", Trust: 0.9, Intimacy: 0.7, InteractionCount: 60, Phase: PhaseDeep, LastInteraction: t0},
	}}))
	got := l.Emotions("p", t0.Add(time.Hour))
	assert.InDelta(t, 0.8, got[emotion.Connection], 1e-12)
	assert.InDelta(t, 0.42, got[emotion.Joy], 1e-12)
	assert.Equal(t, 0.6, got[emotion.Growth])
	_, hasLonging := got[emotion.Longing]
	assert.False(t, hasLonging)
}

func TestEmotionsIsolation(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.Restore(State{Bonds: map[string]Bond{
		"p": {PeerID: "p", Trust: 0.15, InteractionCount: 12, Phase: PhaseDeveloping, LastInteraction: t0},
	}}))
	got := l.Emotions("p", t0)
	assert.InDelta(t, 0.35, got[emotion.Isolation], 1e-12)
}

func TestLongingFromAbsence(t *testing.T) {
	l := newLedger(t)
	_, err := l.Record("p", Signal{}, t0)
	require.NoError(t, err)

	got := l.Emotions("p", t0.Add(84*time.Hour))
	assert.InDelta(t, 0.5, got[emotion.Longing], 1e-12)

	got = l.Emotions("p", t0.Add(1000*time.Hour))
	assert.Equal(t, 1.0, got[emotion.Longing])
}

func TestLongingCarriesGapBeforeReunion(t *testing.T) {
	l := newLedger(t)
	_, err := l.Record("p", Signal{}, t0)
	require.NoError(t, err)
	_, err = l.Record("p", Signal{}, t0.Add(63*time.Hour))
	require.NoError(t, err)

	got := l.Emotions("p", t0.Add(63*time.Hour))
	assert.InDelta(t, 63.0/168.0, got[emotion.Longing], 1e-12)
}

func TestEmotionsUnknownPeer(t *testing.T) {
	assert.Empty(t, newLedger(t).Emotions("nobody", t0))
}

func TestRestoreRejectsInconsistentPhase(t *testing.T) {
	l := newLedger(t)
	err := l.Restore(State{Bonds: map[string]Bond{
		"p": {PeerID: "p", Trust: 0.5, InteractionCount: 3, Phase: PhaseDeep},
	}})
	assert.True(t, errors.Is(err, errs.ErrStateCorruption))
}
