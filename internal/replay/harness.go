package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/eval"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
)

// #region types

// Outcome actions.
const (
	ActionProcessed  = "processed"
	ActionInvalid    = "invalid"
	ActionExceeded   = "exceeded"
	ActionEvalFailed = "eval_failed"
	ActionError      = "error"
)

// Interaction is a single recorded turn for replay.
type Interaction struct {
	TurnID string
	feeling.Interaction
}

// ReplayConfig bundles the coordinator and eval configs for a replay run.
type ReplayConfig struct {
	Feeling    feeling.Config
	EvalConfig eval.EvalConfig
}

// DefaultReplayConfig returns defaults for both stages.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Feeling:    feeling.DefaultConfig(),
		EvalConfig: eval.DefaultEvalConfig(),
	}
}

// ReplayResult captures the outcome of replaying one interaction.
type ReplayResult struct {
	TurnID   string
	Action   string
	Reason   string
	Dominant string

	// nil unless the pass was processed
	Result     *feeling.Result
	EvalResult *eval.EvalResult
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns  int
	Processed   int
	Invalid     int
	Exceeded    int
	EvalFailed  int
	Errors      int
	FinalState  feeling.Snapshot
	DominantLog map[string]int
}

// #endregion types

// #region replay

// Replay runs interactions through a fresh System, then validates each
// processed pass with the eval harness. Nothing is persisted.
func Replay(ctx context.Context, interactions []Interaction, config ReplayConfig) ([]ReplayResult, *feeling.System, error) {
	config.Feeling.StorageKey = ""
	sys, err := feeling.New(config.Feeling)
	if err != nil {
		return nil, nil, fmt.Errorf("new system: %w", err)
	}
	evalInst := eval.NewEvalHarness(config.EvalConfig)
	results := make([]ReplayResult, 0, len(interactions))

	for _, inter := range interactions {
		// 1. Process
		res, err := sys.Process(ctx, inter.Interaction)
		if err != nil {
			results = append(results, ReplayResult{
				TurnID: inter.TurnID,
				Action: actionFor(err),
				Reason: err.Error(),
			})
			continue
		}

		// 2. Eval
		evalResult := evalInst.Run(sys.Snapshot(), res)
		action := ActionProcessed
		if !evalResult.Passed {
			action = ActionEvalFailed
		}
		results = append(results, ReplayResult{
			TurnID:     inter.TurnID,
			Action:     action,
			Reason:     evalResult.Reason,
			Dominant:   string(res.EmotionalResponse.DominantEmotion),
			Result:     &res,
			EvalResult: &evalResult,
		})
	}
	return results, sys, nil
}

func actionFor(err error) string {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return ActionInvalid
	case errors.Is(err, errs.ErrResourceExceeded):
		return ActionExceeded
	default:
		return ActionError
	}
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, finalState feeling.Snapshot) ReplaySummary {
	s := ReplaySummary{
		TotalTurns:  len(results),
		FinalState:  finalState,
		DominantLog: map[string]int{},
	}
	for _, r := range results {
		switch r.Action {
		case ActionProcessed:
			s.Processed++
		case ActionInvalid:
			s.Invalid++
		case ActionExceeded:
			s.Exceeded++
		case ActionEvalFailed:
			s.EvalFailed++
		case ActionError:
			s.Errors++
		}
		if r.Dominant != "" {
			s.DominantLog[r.Dominant]++
		}
	}
	return s
}

// Mismatch is one expected/actual difference.
type Mismatch struct {
	TurnID   string
	Field    string
	Expected string
	Actual   string
}

// Compare checks results against the fixture's expectations.
func Compare(expected []FixtureExpectedResult, results []ReplayResult) []Mismatch {
	var out []Mismatch
	if len(expected) != len(results) {
		out = append(out, Mismatch{
			Field:    "count",
			Expected: fmt.Sprint(len(expected)),
			Actual:   fmt.Sprint(len(results)),
		})
		return out
	}
	for i, exp := range expected {
		act := results[i]
		if exp.TurnID != act.TurnID {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "turn_id", Expected: exp.TurnID, Actual: act.TurnID})
		}
		if exp.Action != act.Action {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "action", Expected: exp.Action, Actual: act.Action})
		}
		if exp.Dominant != "" && exp.Dominant != act.Dominant {
			out = append(out, Mismatch{TurnID: exp.TurnID, Field: "dominant", Expected: exp.Dominant, Actual: act.Dominant})
		}
	}
	return out
}

// #endregion replay
