// Package scoring computes weighted submission scores from per-case
// judge outcomes. It is pure: no I/O, no clock, no randomness.
package scoring

import (
	"math"

	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/internal/domain/types"
)

// maxScore is the upper bound of both raw and final scores.
const maxScore = 100

// Result carries the raw proportional score and the penalty-adjusted
// final score. Both are within [0, 100].
type Result struct {
	Raw   float64
	Final float64
}

// Compute aggregates case results into a weighted score.
//
// Each test case that has a matching result (by test-case ID) adds its
// weight to the total; passing results add the same weight to the passed
// sum. Cases without a result are ignored entirely; they contribute to
// neither sum. Raw score is passed/total scaled to 100, or 0 when no
// weight was matched.
//
// When penaltyRate is set and prior > 0, the deduction is
// raw * rate * prior. The fraction may exceed 1; the final score clamps
// at 0 and never goes negative.
func Compute(cases []model.TestCase, results []types.CaseResult, prior int, penaltyRate *float64) Result {
	byCase := make(map[string]types.CaseResult, len(results))
	for _, r := range results {
		byCase[r.TestCaseID] = r
	}

	var totalWeight, passedWeight float64
	for _, tc := range cases {
		r, ok := byCase[tc.ID]
		if !ok {
			continue
		}
		totalWeight += tc.Weight
		if r.Passed() {
			passedWeight += tc.Weight
		}
	}

	var raw float64
	if totalWeight > 0 {
		raw = passedWeight / totalWeight * maxScore
	}

	final := raw
	if penaltyRate != nil && prior > 0 {
		fraction := *penaltyRate * float64(prior)
		final = math.Max(0, raw-raw*fraction)
	}

	return Result{Raw: raw, Final: final}
}
