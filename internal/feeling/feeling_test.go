package feeling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newSystem(t *testing.T, opts ...Option) *System {
	t.Helper()
	s, err := New(DefaultConfig(), opts...)
	require.NoError(t, err)
	return s
}

func process(t *testing.T, s *System, peer string, sig map[string]float64, now time.Time) Result {
	t.Helper()
	res, err := s.Process(context.Background(), Interaction{PeerID: peer, Text: "hi", Signals: sig, Now: now})
	require.NoError(t, err)
	return res
}

// #region scenarios

func TestColdStartJoyPulse(t *testing.T) {
	s := newSystem(t)
	before := s.mortality.Coherence()

	res := process(t, s, "p1", map[string]float64{"joy": 0.9, "trust": 0.5, "intimacy": 0.4, "connection": 0.6}, t0)

	r := res.EmotionalResponse
	assert.Contains(t, []emotion.Label{emotion.Joy, emotion.Connection}, r.DominantEmotion)
	assert.Greater(t, r.Valence, 0.0)
	assert.Equal(t, synthesis.FramePresent, r.NarrativeFrame)
	assert.Equal(t, 1.0, res.Quality)
	assert.InDelta(t, before+0.1*res.Quality, s.mortality.Coherence(), 1e-12)
}

func TestNeglectThenReunionCarriesLonging(t *testing.T) {
	s := newSystem(t)
	for i := 0; i < 10; i++ {
		process(t, s, "p1", nil, t0.Add(time.Duration(i)*time.Hour))
	}
	res := process(t, s, "p1", nil, t0.Add(72*time.Hour))

	// The absence is the 63h gap after the last hourly call, so longing is
	// 63/168 = 0.375. Reaching 0.4 would need the gap measured from t0 (72h).
	longing := res.SubsystemContributions.Relational[emotion.Longing]
	assert.InDelta(t, 63.0/168.0, longing, 1e-12)
}

func TestGriefMemoryDominatesResidue(t *testing.T) {
	s := newSystem(t)
	var res Result
	for i := 0; i < 20; i++ {
		res = process(t, s, "p1", map[string]float64{"grief": 0.8}, t0.Add(time.Duration(i)*time.Minute))
	}
	assert.Equal(t, 1.0, res.SubsystemContributions.Memory[emotion.Grief])
	assert.Equal(t, 1.0, s.memory.Residue(t0.Add(20*time.Minute))[emotion.Grief])
}

func TestEthicalContrast(t *testing.T) {
	s := newSystem(t)
	res := process(t, s, "p1", map[string]float64{"compassion": 0.9, "support": 0.8, "connection": 0.7}, t0)
	eth := res.SubsystemContributions.Ethical
	assert.True(t, eth[emotion.Pride] > 0 || eth[emotion.Compassion] > 0, "got %v", eth)

	res = process(t, s, "p1", map[string]float64{"insincerity": 0.8}, t0.Add(time.Minute))
	eth = res.SubsystemContributions.Ethical
	assert.GreaterOrEqual(t, math.Max(eth[emotion.Guilt], eth[emotion.Shame]), 0.3)
	assert.InDelta(t, 0.64, eth[emotion.Shame], 1e-12)
}

func TestConflictCancellationThroughMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = synthesis.Weights{Memory: 0.6}
	s, err := New(cfg)
	require.NoError(t, err)

	process(t, s, "p1", map[string]float64{"joy": 0.9}, t0)
	res := process(t, s, "p1", map[string]float64{"grief": 0.6}, t0)

	assert.InDelta(t, 0.6, res.SubsystemContributions.Memory[emotion.Joy]*0.6, 1e-12)
	assert.InDelta(t, 0.2, res.SynthesizedState[emotion.Joy], 1e-12)
	assert.Equal(t, 0.0, res.SynthesizedState[emotion.Grief])
}

func TestSnapshotLoadPreservesDescriptor(t *testing.T) {
	s := newSystem(t)
	process(t, s, "p1", map[string]float64{"joy": 0.9, "trust": 0.5, "intimacy": 0.4, "connection": 0.6}, t0)
	want := s.CurrentState()

	fresh := newSystem(t)
	require.NoError(t, fresh.Load(s.Snapshot()))
	assert.Equal(t, want, fresh.CurrentState())
}

// #endregion scenarios

// #region round-trip

func TestSnapshotJSONRoundTripIsByteIdentical(t *testing.T) {
	s := newSystem(t)
	rng := rand.New(rand.NewSource(3))
	runRandomPasses(t, s, rng, 40)
	require.NoError(t, s.RestoreEmbodiedResources(1.5))

	first, err := s.MarshalSnapshot()
	require.NoError(t, err)

	fresh := newSystem(t)
	require.NoError(t, fresh.LoadJSON(first))
	second, err := fresh.MarshalSnapshot()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestDecodeSnapshotDefaultsMissingKeys(t *testing.T) {
	s := newSystem(t)
	snap, err := s.DecodeSnapshot([]byte(`{"mortality":{"coherence":0.9,"decay_rate":0.01,"renewal_gain":0.1},"extra":true}`))
	require.NoError(t, err)
	require.NoError(t, s.Load(snap))
	assert.Equal(t, 0.9, s.mortality.Coherence())
	assert.Len(t, s.Snapshot().Ethical.Values, 6)
	assert.Equal(t, emotion.Neutral, s.CurrentState().DominantEmotion)
}

func TestLoadCorruptKeepsPriorState(t *testing.T) {
	s := newSystem(t)
	process(t, s, "p1", map[string]float64{"joy": 0.5}, t0)
	before := s.Snapshot()

	bad := s.Snapshot()
	bad.Mortality.Coherence = 1.7
	err := s.Load(bad)
	assert.True(t, errors.Is(err, errs.ErrStateCorruption))

	bad = s.Snapshot()
	bad.CurrentState.NarrativeFrame = "sideways"
	assert.True(t, errors.Is(s.Load(bad), errs.ErrStateCorruption))

	err = s.LoadJSON([]byte(`{"mortality":`))
	assert.True(t, errors.Is(err, errs.ErrStateCorruption))

	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Fatalf("failed load mutated state (-before +after):\n%s", diff)
	}
}

// #endregion round-trip

// #region validation

func TestInvalidInputLeavesNoTrace(t *testing.T) {
	s := newSystem(t)
	process(t, s, "p1", map[string]float64{"joy": 0.5}, t0.Add(time.Hour))
	before := s.Snapshot()

	wide := map[string]float64{}
	for i := 0; i < 49; i++ {
		wide[fmt.Sprintf("e%02d", i)] = 0.1
	}
	cases := []struct {
		name string
		in   Interaction
		kind error
	}{
		{"empty peer", Interaction{PeerID: "", Text: "hi", Now: t0.Add(2 * time.Hour)}, errs.ErrInvalidInput},
		{"empty text", Interaction{PeerID: "p", Text: "  ", Now: t0.Add(2 * time.Hour)}, errs.ErrInvalidInput},
		{"nan signal", Interaction{PeerID: "p", Text: "hi", Signals: map[string]float64{"joy": math.NaN()}, Now: t0.Add(2 * time.Hour)}, errs.ErrInvalidInput},
		{"trust range", Interaction{PeerID: "p", Text: "hi", Signals: map[string]float64{"trust": 3}, Now: t0.Add(2 * time.Hour)}, errs.ErrInvalidInput},
		{"time backwards", Interaction{PeerID: "p", Text: "hi", Now: t0}, errs.ErrInvalidInput},
		{"zero time", Interaction{PeerID: "p", Text: "hi"}, errs.ErrInvalidInput},
		{"processing cost", Interaction{PeerID: "p", Text: "hi", Signals: wide, Now: t0.Add(2 * time.Hour)}, errs.ErrResourceExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Process(context.Background(), tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
				t.Fatalf("rejected call mutated state (-before +after):\n%s", diff)
			}
		})
	}
}

func TestCancelledContextRejectedBeforeWork(t *testing.T) {
	s := newSystem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Process(ctx, Interaction{PeerID: "p", Text: "hi", Now: t0})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, s.mortality.TotalInteractions())
}

// #endregion validation

// #region properties

func TestRangesHoldAfterRandomPasses(t *testing.T) {
	s := newSystem(t)
	rng := rand.New(rand.NewSource(11))
	runRandomPasses(t, s, rng, 200)
}

func TestSingleSignalDominatesFreshSystem(t *testing.T) {
	partner := map[emotion.Label]emotion.Label{}
	for _, p := range emotion.ConflictPairs {
		partner[p.Positive] = p.Negative
		partner[p.Negative] = p.Positive
	}
	labels := []emotion.Label{
		emotion.Joy, emotion.Grief, emotion.Hope, emotion.Anxiety, emotion.Longing,
		emotion.Shame, emotion.Lethargy, emotion.Indignation, "curiosity",
	}
	for _, l := range labels {
		t.Run(string(l), func(t *testing.T) {
			s := newSystem(t)
			res := process(t, s, "p1", map[string]float64{string(l): 1.0}, t0)
			got := res.EmotionalResponse.DominantEmotion
			assert.True(t, got == l || got == partner[l], "dominant %s for signal %s", got, l)
		})
	}
}

func runRandomPasses(t *testing.T, s *System, rng *rand.Rand, n int) {
	t.Helper()
	keys := []string{"joy", "grief", "hope", "connection", "compassion", "insincerity", "honesty", "trust", "intimacy", "positive", "negative"}
	now := t0
	for i := 0; i < n; i++ {
		sig := map[string]float64{}
		for _, k := range keys {
			if rng.Intn(3) != 0 {
				continue
			}
			v := rng.Float64()
			if k == "trust" || k == "intimacy" {
				v = v*2 - 1
			}
			sig[k] = v
		}
		now = now.Add(time.Duration(rng.Intn(48*60)) * time.Minute)
		peer := fmt.Sprintf("p%d", rng.Intn(3))
		res := process(t, s, peer, sig, now)
		checkRanges(t, s.Snapshot(), res)
	}
}

func checkRanges(t *testing.T, snap Snapshot, res Result) {
	t.Helper()
	unit := func(name string, v float64) {
		require.False(t, v < 0 || v > 1 || math.IsNaN(v), "%s = %v", name, v)
	}
	unit("coherence", snap.Mortality.Coherence)
	unit("identity_coherence", snap.Narrative.IdentityCoherence)
	for id, b := range snap.Relational.Bonds {
		unit(id+".trust", b.Trust)
		unit(id+".intimacy", b.Intimacy)
	}
	for _, e := range snap.Memory.Entries {
		unit("decay_factor", e.DecayFactor)
	}
	require.LessOrEqual(t, len(snap.Memory.Entries), snap.Memory.MaxMemories)
	unit("energy", snap.Embodied.Energy)
	unit("attention", snap.Embodied.Attention)
	unit("processing", snap.Embodied.Processing)
	for l, v := range res.SynthesizedState {
		unit(string(l), v)
	}
	for _, p := range emotion.ConflictPairs {
		require.False(t, res.SynthesizedState[p.Positive] > 0 && res.SynthesizedState[p.Negative] > 0)
	}
	v := res.EmotionalResponse.Valence
	require.False(t, v < -1 || v > 1, "valence = %v", v)
	unit("arousal", res.EmotionalResponse.Arousal)
}

// #endregion properties

// #region persistence

type failingPersister struct{ calls int }

func (f *failingPersister) Persist(context.Context, Snapshot, Result) error {
	f.calls++
	return errors.New("disk on fire")
}

func TestPersistenceFailureIsSurfacedNotRaised(t *testing.T) {
	fp := &failingPersister{}
	s := newSystem(t, WithPersister(fp))

	res, err := s.Process(context.Background(), Interaction{PeerID: "p1", Text: "hi", Now: t0})
	require.NoError(t, err)
	assert.Equal(t, 1, fp.calls)
	assert.Contains(t, res.PersistenceError, "disk on fire")
	assert.Contains(t, res.PersistenceError, errs.ErrPersistence.Error())
	assert.Equal(t, 1, s.mortality.TotalInteractions(), "state is kept despite the failure")
}

func TestFileStoreRoundTrip(t *testing.T) {
	key := filepath.Join(t.TempDir(), "state", "feeling")
	cfg := DefaultConfig()
	cfg.StorageKey = key

	s, err := New(cfg)
	require.NoError(t, err)
	res := process(t, s, "p1", map[string]float64{"joy": 0.9, "trust": 0.5}, t0)
	require.Empty(t, res.PersistenceError)

	main, err := os.ReadFile(key + ".json")
	require.NoError(t, err)
	var onDisk Snapshot
	require.NoError(t, json.Unmarshal(main, &onDisk))
	assert.Empty(t, onDisk.Memory.Entries, "memories live in the sidecar")
	_, err = os.Stat(key + ".memories.json")
	require.NoError(t, err)

	reopened, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, s.CurrentState(), reopened.CurrentState())
	if diff := cmp.Diff(s.Snapshot(), reopened.Snapshot()); diff != "" {
		t.Fatalf("reopened snapshot differs (-want +got):\n%s", diff)
	}
}

func TestFileStoreWriteFailureSurfaced(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := newSystem(t, WithPersister(NewFileStore(filepath.Join(blocker, "feeling"))))
	res, err := s.Process(context.Background(), Interaction{PeerID: "p1", Text: "hi", Now: t0})
	require.NoError(t, err)
	assert.True(t, strings.Contains(res.PersistenceError, "persistence error"), res.PersistenceError)
}

func TestCorruptFileFailsConstruction(t *testing.T) {
	key := filepath.Join(t.TempDir(), "feeling")
	require.NoError(t, os.WriteFile(key+".json", []byte(`{"mortality":{"coherence":4}}`), 0o644))
	cfg := DefaultConfig()
	cfg.StorageKey = key
	_, err := New(cfg)
	assert.True(t, errors.Is(err, errs.ErrStateCorruption))
}

// #endregion persistence
