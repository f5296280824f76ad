package feeling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielpatrickdp/feeling-system/internal/embodied"
	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/ethics"
	"github.com/danielpatrickdp/feeling-system/internal/memory"
	"github.com/danielpatrickdp/feeling-system/internal/mortality"
	"github.com/danielpatrickdp/feeling-system/internal/narrative"
	"github.com/danielpatrickdp/feeling-system/internal/relational"
	"github.com/danielpatrickdp/feeling-system/internal/signals"
	"github.com/danielpatrickdp/feeling-system/internal/synthesis"
)

const summaryRunes = 200

// #region parts

// parts is the set of subsystems one System owns exclusively.
type parts struct {
	mortality  *mortality.Mortality
	embodied   *embodied.Body
	memory     *memory.Store
	relational *relational.Ledger
	narrative  *narrative.Narrative
	ethics     *ethics.Mirror
}

func newParts(cfg Config) (parts, error) {
	var p parts
	var err error
	if p.mortality, err = mortality.New(cfg.Mortality); err != nil {
		return parts{}, err
	}
	if p.embodied, err = embodied.New(cfg.Embodied); err != nil {
		return parts{}, err
	}
	if p.memory, err = memory.NewStore(cfg.Memory); err != nil {
		return parts{}, err
	}
	if p.relational, err = relational.New(cfg.Relational); err != nil {
		return parts{}, err
	}
	if p.narrative, err = narrative.New(cfg.Narrative); err != nil {
		return parts{}, err
	}
	if p.ethics, err = ethics.New(cfg.Ethics); err != nil {
		return parts{}, err
	}
	return p, nil
}

// #endregion parts

// #region system

// System is the coordinator. It is single-owner: callers that share one
// across goroutines must serialize access.
type System struct {
	config     Config
	producer   *signals.Producer
	logger     zerolog.Logger
	persisters []Persister

	parts
	current    synthesis.Response
	lastUpdate time.Time
}

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *System) {
		s.logger = logger.With().Str("component", "feeling").Logger()
	}
}

// WithPersister adds a persister called after every successful pass.
func WithPersister(p Persister) Option {
	return func(s *System) {
		s.persisters = append(s.persisters, p)
	}
}

// New creates a System. When cfg.StorageKey is set and a snapshot already
// exists there, it is loaded; a corrupt snapshot fails construction.
func New(cfg Config, opts ...Option) (*System, error) {
	if err := cfg.validateWeights(); err != nil {
		return nil, err
	}
	if err := cfg.Signals.Validate(); err != nil {
		return nil, err
	}
	p, err := newParts(cfg)
	if err != nil {
		return nil, err
	}
	s := &System{
		config:   cfg,
		producer: signals.NewProducer(cfg.Signals),
		logger:   zerolog.Nop(),
		parts:    p,
		current:  synthesis.Neutral(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.StorageKey != "" {
		fs := NewFileStore(cfg.StorageKey)
		switch err := fs.Restore(s); {
		case err == nil:
			s.logger.Info().Str("key", cfg.StorageKey).Msg("snapshot loaded")
		case errors.Is(err, ErrNoSnapshot):
		default:
			return nil, fmt.Errorf("restore %s: %w", cfg.StorageKey, err)
		}
		s.persisters = append(s.persisters, fs)
	}
	return s, nil
}

// #endregion system

// #region process

// Process runs one interaction pass. Every validation happens before any
// subsystem is touched, so a returned error leaves state unchanged.
func (s *System) Process(ctx context.Context, in Interaction) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	reading, err := s.validate(in)
	if err != nil {
		return Result{}, err
	}
	now := in.Now.UTC()
	q := reading.Quality

	// 1-3. Entropy, then renewal
	s.mortality.ApplyEntropy(now)
	if _, err := s.mortality.Renew(q, now); err != nil {
		return Result{}, fmt.Errorf("renew: %w", err)
	}

	// 4-5. Bond
	bond, err := s.relational.Record(in.PeerID, relational.Signal{
		EmotionalQuality: reading.EmotionalQuality,
		Trust:            reading.Trust,
		Intimacy:         reading.Intimacy,
	}, now)
	if err != nil {
		return Result{}, fmt.Errorf("record bond: %w", err)
	}

	// 6-7. Memory
	if err := s.memory.Store(memory.Input{
		PeerID:    in.PeerID,
		Summary:   summarize(in.Text),
		Emotion:   reading.Dominant,
		Intensity: reading.DominantIntensity,
		Phase:     string(bond.Phase),
		Valence:   reading.Valence,
	}, now); err != nil {
		return Result{}, fmt.Errorf("store memory: %w", err)
	}

	// 8. Body
	if err := s.embodied.Consume(reading.Costs(in.Text)); err != nil {
		return Result{}, fmt.Errorf("consume: %w", err)
	}
	if err := s.embodied.RecordStimulation(reading.Stimulation()); err != nil {
		return Result{}, fmt.Errorf("record stimulation: %w", err)
	}

	// 9. Narrative
	if err := s.recordNarrative(in.PeerID, reading, now); err != nil {
		return Result{}, fmt.Errorf("narrative: %w", err)
	}

	// 10. Ethics
	if _, err := s.ethics.Evaluate("respond to "+in.PeerID, reading.ValueAlignment, now); err != nil {
		return Result{}, fmt.Errorf("evaluate: %w", err)
	}

	// 11-15. Collect, synthesize, resolve, filter, describe
	contributions := synthesis.Contributions{
		Mortality:  s.mortality.Emotions(),
		Relational: s.relational.Emotions(in.PeerID, now),
		Memory:     s.memory.Residue(now),
		Embodied:   s.embodied.Emotions(),
		Narrative:  s.narrative.Emotions(now),
		Ethical:    s.ethics.CurrentMoralEmotions(),
	}
	synth, response := synthesis.Run(contributions, s.config.Weights)

	// 16. Commit
	s.current = response
	s.lastUpdate = now

	res := Result{
		Timestamp:              now,
		PeerID:                 in.PeerID,
		InputSignals:           reading.Raw,
		Quality:                q,
		SubsystemContributions: contributions,
		SynthesizedState:       synth,
		EmotionalResponse:      response,
	}
	s.logger.Debug().
		Str("peer_id", in.PeerID).
		Str("dominant", string(response.DominantEmotion)).
		Float64("intensity", response.Intensity).
		Float64("quality", q).
		Msg("interaction processed")

	if err := s.persist(ctx, res); err != nil {
		res.PersistenceError = err.Error()
	}
	return res, nil
}

// validate checks every input and the derived resource costs.
func (s *System) validate(in Interaction) (signals.Reading, error) {
	if strings.TrimSpace(in.PeerID) == "" {
		return signals.Reading{}, errs.Invalid("peer_id", "empty")
	}
	if strings.TrimSpace(in.Text) == "" {
		return signals.Reading{}, errs.Invalid("text", "empty")
	}
	if in.Now.IsZero() {
		return signals.Reading{}, errs.Invalid("now", "zero time")
	}
	if last := s.mortality.LastInteraction(); in.Now.Before(last) {
		return signals.Reading{}, errs.Invalid("now", "%s precedes last interaction %s",
			in.Now.UTC().Format(time.RFC3339Nano), last.Format(time.RFC3339Nano))
	}
	reading, err := s.producer.Produce(in.Signals)
	if err != nil {
		return signals.Reading{}, err
	}
	if err := s.embodied.CheckCosts(reading.Costs(in.Text)); err != nil {
		return signals.Reading{}, err
	}
	return reading, nil
}

func (s *System) recordNarrative(peerID string, r signals.Reading, now time.Time) error {
	catalyst := string(r.Dominant)
	if r.Quality > 0.7 {
		if err := s.narrative.RecordGrowth("growth with "+peerID, catalyst, 0.5*r.Quality, now); err != nil {
			return err
		}
	}
	if r.Quality > 0.8 {
		if err := s.narrative.RecordHope("hope with "+peerID, catalyst, 0.6*r.Quality, now); err != nil {
			return err
		}
	}
	if r.Trust <= -0.5 {
		if err := s.narrative.RecordBetrayal("trust broken by "+peerID, peerID, math.Abs(r.Trust), now); err != nil {
			return err
		}
	}
	return nil
}

// summarize keeps the first 200 runes of the trimmed text.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > summaryRunes {
		return string(runes[:summaryRunes])
	}
	return text
}

// #endregion process

// #region persist

func (s *System) persist(ctx context.Context, res Result) error {
	if len(s.persisters) == 0 {
		return nil
	}
	snap := s.Snapshot()
	var failures []error
	for _, p := range s.persisters {
		if err := p.Persist(context.WithoutCancel(ctx), snap, res); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	err := errors.Join(failures...)
	if !errors.Is(err, errs.ErrPersistence) {
		err = errs.Persistence("persist", err)
	}
	s.logger.Warn().Err(err).Str("peer_id", res.PeerID).Msg("persistence failed")
	return err
}

// #endregion persist

// #region queries

// CurrentState returns the latest response descriptor.
func (s *System) CurrentState() synthesis.Response {
	out := s.current
	out.AllEmotions = s.current.AllEmotions.Clone()
	return out
}

// RestoreEmbodiedResources regenerates the resource pools for hours of rest.
func (s *System) RestoreEmbodiedResources(hours float64) error {
	return s.embodied.Regenerate(hours)
}

// RecallByEmotion returns the strongest memories carrying label.
func (s *System) RecallByEmotion(label emotion.Label, limit int, now time.Time) []memory.Entry {
	return s.memory.RecallByEmotion(label, limit, now.UTC())
}

// RecallByPeer returns the newest memories of peerID.
func (s *System) RecallByPeer(peerID string, limit int, now time.Time) []memory.Entry {
	return s.memory.RecallByPeer(peerID, limit, now.UTC())
}

// Bond returns the relationship with peerID, if any.
func (s *System) Bond(peerID string) (relational.Bond, bool) {
	return s.relational.Bond(peerID)
}

// #endregion queries
