package signals

import (
	"github.com/danielpatrickdp/feeling-system/internal/emotion"
	"github.com/danielpatrickdp/feeling-system/internal/errs"
)

// #region reserved-keys

// Reserved signal keys. Trust and intimacy are signed scalars; positive and
// negative are pseudo-emotions that only feed valence.
const (
	KeyTrust    = "trust"
	KeyIntimacy = "intimacy"
	KeyPositive = "positive"
	KeyNegative = "negative"
)

// Keys read by the value-alignment rules.
const (
	keySupport     = "support"
	keyInsincerity = "insincerity"
	keyHonesty     = "honesty"
	keyInsight     = "insight"
)

// #endregion reserved-keys

// #region config

// ProducerConfig holds the quality and alignment tuning knobs.
type ProducerConfig struct {
	QualityFloor   float64 // lower clamp for non-empty signals (default 0.1)
	EmptyQuality   float64 // quality when no signals are supplied (default 0.3)
	EmpathyDivisor float64 // total magnitude that saturates empathy (default 5)
}

// DefaultProducerConfig returns the stock tuning.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		QualityFloor:   0.1,
		EmptyQuality:   0.3,
		EmpathyDivisor: 5,
	}
}

// Validate keeps every derived quality inside [0, 1].
func (c ProducerConfig) Validate() error {
	if err := errs.Unit("signals.quality_floor", c.QualityFloor); err != nil {
		return err
	}
	if err := errs.Unit("signals.empty_quality", c.EmptyQuality); err != nil {
		return err
	}
	if !(c.EmpathyDivisor > 0) {
		return errs.Invalid("signals.empathy_divisor", "must be > 0, got %v", c.EmpathyDivisor)
	}
	return nil
}

// #endregion config

// #region reading

// Reading is everything the coordinator derives from one signals map.
type Reading struct {
	Raw               map[string]float64
	Quality           float64 // [0.1, 1], or EmptyQuality
	EmotionalQuality  float64 // mean of all values, [-1, 1]
	Trust             float64
	Intimacy          float64
	Dominant          emotion.Label
	DominantIntensity float64
	Valence           float64
	Magnitude         float64 // sum of |value|
	ValueAlignment    map[string]float64
}

// #endregion reading
