package signals

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/danielpatrickdp/feeling-system/internal/embodied"
	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/ethics"
)

// #region producer

// Producer turns a caller's open signals map into a validated Reading.
type Producer struct {
	config ProducerConfig
}

// NewProducer creates a Producer.
func NewProducer(config ProducerConfig) *Producer {
	return &Producer{config: config}
}

// #endregion producer

// #region produce

// Produce validates raw and derives every per-pass scalar from it.
// It never mutates raw.
func (p *Producer) Produce(raw map[string]float64) (Reading, error) {
	if err := Validate(raw); err != nil {
		return Reading{}, err
	}
	keys := sortedKeys(raw)
	copied := make(map[string]float64, len(raw))
	for _, k := range keys {
		copied[k] = raw[k]
	}

	dominant, intensity := dominant(copied, keys)
	r := Reading{
		Raw:               copied,
		Quality:           p.quality(copied, keys),
		EmotionalQuality:  emotionalQuality(copied, keys),
		Trust:             copied[KeyTrust],
		Intimacy:          copied[KeyIntimacy],
		Dominant:          dominant,
		DominantIntensity: intensity,
		Valence:           emotion.Clamp(copied[KeyPositive]-copied[KeyNegative], -1, 1),
		Magnitude:         magnitude(copied, keys),
	}
	r.ValueAlignment = p.valueAlignment(copied, r.Magnitude)
	return r, nil
}

// Validate rejects empty keys, NaN, and out-of-range values.
func Validate(raw map[string]float64) error {
	for _, k := range sortedKeys(raw) {
		if strings.TrimSpace(k) == "" {
			return errs.Invalid("signals", "empty key")
		}
		field := "signals." + k
		switch k {
		case KeyTrust, KeyIntimacy:
			if err := errs.Signed(field, raw[k]); err != nil {
				return err
			}
		default:
			if err := errs.Unit(field, raw[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// #endregion produce

// #region quality

// quality weighs positive mass 0.6 and total magnitude 0.4, halves the sum,
// and clamps into [QualityFloor, 1].
func (p *Producer) quality(raw map[string]float64, keys []string) float64 {
	if len(raw) == 0 {
		return p.config.EmptyQuality
	}
	var positive float64
	for _, k := range []string{string(emotion.Joy), string(emotion.Connection), KeyTrust, string(emotion.Hope), string(emotion.Gratitude)} {
		positive += raw[k]
	}
	q := (0.6*positive + 0.4*magnitude(raw, keys)) / 2
	return emotion.Clamp(q, p.config.QualityFloor, 1)
}

func emotionalQuality(raw map[string]float64, keys []string) float64 {
	if len(keys) == 0 {
		return 0
	}
	var sum float64
	for _, k := range keys {
		sum += raw[k]
	}
	return emotion.Clamp(sum/float64(len(keys)), -1, 1)
}

func magnitude(raw map[string]float64, keys []string) float64 {
	var sum float64
	for _, k := range keys {
		sum += math.Abs(raw[k])
	}
	return sum
}

// #endregion quality

// #region dominant

// dominant is the strongest non-reserved signal, ties broken lexicographically.
func dominant(raw map[string]float64, keys []string) (emotion.Label, float64) {
	m := emotion.Map{}
	for _, k := range keys {
		if isReserved(k) {
			continue
		}
		m[emotion.Label(k)] = raw[k]
	}
	l, v := m.Dominant()
	return l, emotion.Clamp01(v)
}

func isReserved(k string) bool {
	switch k {
	case KeyTrust, KeyIntimacy, KeyPositive, KeyNegative:
		return true
	}
	return false
}

// #endregion dominant

// #region alignment

// valueAlignment maps signals onto the ethical value table.
// Integrity is only present when honesty or insincerity was signalled.
func (p *Producer) valueAlignment(raw map[string]float64, mag float64) map[string]float64 {
	out := map[string]float64{
		ethics.Empathy:      math.Min(1, mag/p.config.EmpathyDivisor),
		ethics.Compassion:   math.Max(raw[ethics.Compassion], raw[keySupport]),
		ethics.Authenticity: emotion.Clamp(1-raw[keyInsincerity], -1, 1),
		ethics.Connection:   emotion.Clamp(raw[ethics.Connection]+raw[KeyIntimacy], -1, 1),
		ethics.Growth:       emotion.Clamp(raw[ethics.Growth]+raw[keyInsight], -1, 1),
	}
	_, hasHonesty := raw[keyHonesty]
	_, hasInsincerity := raw[keyInsincerity]
	if hasHonesty || hasInsincerity {
		out[ethics.Integrity] = emotion.Clamp(raw[keyHonesty]-raw[keyInsincerity], -1, 1)
	}
	return out
}

// #endregion alignment

// #region costs

// Costs derives the embodied resource cost of a pass.
func (r Reading) Costs(text string) embodied.Costs {
	return embodied.Costs{
		Energy:     0.05 + 0.1*r.Quality,
		Attention:  0.08 + 0.02*(float64(utf8.RuneCountInString(text))/1000),
		Processing: 0.03 + 0.02*float64(len(r.Raw)),
	}
}

// Stimulation is the level recorded by the embodied subsystem for this pass.
func (r Reading) Stimulation() float64 {
	return emotion.Clamp01(0.7*r.Quality + 0.3*r.DominantIntensity)
}

// #endregion costs

// #region helpers

func sortedKeys(raw map[string]float64) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// #endregion helpers
