package mortality

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newMortality(t *testing.T) *Mortality {
	t.Helper()
	m, err := New(DefaultConfig())
	require.NoError(t, err)
	return m
}

func TestApplyEntropyBeforeFirstRenewal(t *testing.T) {
	m := newMortality(t)
	c := m.ApplyEntropy(t0)
	assert.Equal(t, 0.5, c)

	log := m.Snapshot().EntropyLog
	require.Len(t, log, 1)
	assert.Equal(t, 0.0, log[0].DecayApplied)
}

func TestApplyEntropyDecaysByHours(t *testing.T) {
	m := newMortality(t)
	_, err := m.Renew(1.0, t0)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, m.Coherence(), 1e-12)

	c := m.ApplyEntropy(t0.Add(10 * time.Hour))
	assert.InDelta(t, 0.5, c, 1e-12)
	assert.Equal(t, t0, m.LastInteraction(), "entropy must not move last_interaction")

	c = m.ApplyEntropy(t0.Add(1000 * time.Hour))
	assert.Equal(t, 0.0, c)
}

func TestRenewRejectsOutOfRangeQuality(t *testing.T) {
	m := newMortality(t)
	_, err := m.Renew(1.2, t0)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Equal(t, 0, m.TotalInteractions())
}

func TestRenewRejectsTimeGoingBackwards(t *testing.T) {
	m := newMortality(t)
	_, err := m.Renew(0.5, t0)
	require.NoError(t, err)
	_, err = m.Renew(0.5, t0.Add(-time.Minute))
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	assert.Equal(t, 1, m.TotalInteractions())
}

func TestEntropyLogBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogSize = 3
	m, err := New(cfg)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		m.ApplyEntropy(t0.Add(time.Duration(i) * time.Hour))
	}
	log := m.Snapshot().EntropyLog
	require.Len(t, log, 3)
	assert.Equal(t, t0.Add(9*time.Hour), log[2].Time)
}

func TestEmotionsPiecewise(t *testing.T) {
	tests := []struct {
		name      string
		coherence float64
		total     int
		want      emotion.Map
	}{
		{"low", 0.1, 3, emotion.Map{
			emotion.Anxiety: (0.30 - 0.1) / 0.30,
			emotion.Longing: 0.8 * (0.30 - 0.1) / 0.30,
			emotion.Grief:   (0.15 - 0.1) / 0.15,
		}},
		{"hopeful", 0.5, 2, emotion.Map{emotion.Hope: 0.5}},
		{"established", 0.5, 20, emotion.Map{}},
		{"thriving", 0.85, 20, emotion.Map{
			emotion.Joy:        0.6 * 0.15 / 0.30,
			emotion.Connection: 0.8 * 0.15 / 0.30,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMortality(t)
			require.NoError(t, m.Restore(State{
				Coherence:         tt.coherence,
				DecayRate:         0.01,
				RenewalGain:       0.1,
				TotalInteractions: tt.total,
			}))
			got := m.Emotions()
			require.Len(t, got, len(tt.want))
			for l, v := range tt.want {
				assert.InDelta(t, v, got[l], 1e-9, "label %s", l)
			}
		})
	}
}

func TestRestoreRejectsCorruptCoherence(t *testing.T) {
	m := newMortality(t)
	err := m.Restore(State{Coherence: 1.5, DecayRate: 0.01, RenewalGain: 0.1})
	assert.True(t, errors.Is(err, errs.ErrStateCorruption))
	assert.Equal(t, 0.5, m.Coherence(), "failed restore must keep prior state")
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayRate = -1
	_, err := New(cfg)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}
