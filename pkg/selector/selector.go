// Package selector turns a ranked candidate list into a bounded activation
// set under a selection policy. Selection is pure; an empty activation set is
// a valid outcome meaning "no applicable skill", never an error.
package selector

import (
	"github.com/jingkaihe/skillgate/pkg/types/skills"
)

// Result is the outcome of a selection pass. Overflow carries qualifying
// candidates that were truncated by the budget in threshold mode; they are
// reported so callers can see what was dropped.
type Result struct {
	Selected []skills.RankedCandidate
	Overflow []skills.RankedCandidate
}

// qualifies reports whether a candidate may be activated under the policy.
// Zero-score candidates never qualify regardless of MinScore.
func qualifies(c skills.RankedCandidate, policy skills.Policy) bool {
	return c.Score > 0 && c.Score >= policy.MinScore
}

// Select applies the policy to candidates already in rank order. The policy
// must have passed Validate. A budget of 0 always yields an empty set.
func Select(candidates []skills.RankedCandidate, policy skills.Policy) Result {
	if policy.Budget <= 0 {
		return Result{}
	}

	qualifying := make([]skills.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		if qualifies(c, policy) {
			qualifying = append(qualifying, c)
		}
	}
	if len(qualifying) == 0 {
		return Result{}
	}

	switch policy.Mode {
	case skills.ModeTop1:
		return Result{Selected: qualifying[:1]}
	case skills.ModeTopK:
		if len(qualifying) > policy.Budget {
			qualifying = qualifying[:policy.Budget]
		}
		return Result{Selected: qualifying}
	case skills.ModeThreshold:
		if len(qualifying) > policy.Budget {
			return Result{
				Selected: qualifying[:policy.Budget],
				Overflow: qualifying[policy.Budget:],
			}
		}
		return Result{Selected: qualifying}
	default:
		// Unrecognized modes are rejected by Policy.Validate before selection.
		return Result{}
	}
}
