package eval

// #region eval-config
// EvalConfig holds thresholds for post-pass validation.
type EvalConfig struct {
	MinIdentityCoherence float64 // warn if narrative identity drops below this
	MinCoherence         float64 // warn if mortality coherence drops below this
}

// DefaultEvalConfig returns sensible defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinIdentityCoherence: 0.2,
		MinCoherence:         0.1,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
	Pass  bool    `json:"pass" yaml:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-pass validation.
type EvalResult struct {
	Passed  bool         `json:"passed" yaml:"passed"`
	Metrics []EvalMetric `json:"metrics" yaml:"metrics"`
	Reason  string       `json:"reason" yaml:"reason"`
}

// #endregion eval-result
