package testsubmissions

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/verdict/pkg/logger"
)

// Constants for random selection.
const (
	sourceVariantDivisor = 8
)

// Constants for source variant cases. Correct solutions are the most
// common so the leaderboard ends up populated.
const (
	caseCorrect      = 0
	caseCorrectAlt   = 1
	caseCorrectSlow  = 2
	caseWrongAnswer  = 3
	casePartial      = 4
	caseInfiniteLoop = 5
	caseCrash        = 6
	caseSyntaxError  = 7
)

// Source templates submitted to the judge engine. The engine decides
// the outcome; the variants just give it a spread of behaviors.
var sourceVariants = []string{
	caseCorrect:      "a, b = input().split()\nprint(int(a) + int(b))\n",
	caseCorrectAlt:   "nums = [int(x) for x in input().split()]\nprint(sum(nums))\n",
	caseCorrectSlow:  "import sys\ndata = sys.stdin.read().split()\nprint(sum(int(x) for x in data))\n",
	caseWrongAnswer:  "a, b = input().split()\nprint(int(a) - int(b))\n",
	casePartial:      "a, b = input().split()\nprint(abs(int(a)) + abs(int(b)))\n",
	caseInfiniteLoop: "while True:\n    pass\n",
	caseCrash:        "raise RuntimeError('boom')\n",
	caseSyntaxError:  "def broken(:\n",
}

// randomIndex returns a random int in [0, n) using crypto/rand.
func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateSubmissions creates the configured number of submissions,
// spreading a fixed team pool across the problem set so resubmissions
// and per-team aggregation both get exercised.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	logger.Get().Info(ctx, "generating submissions",
		logger.Int("numSubmissions", config.NumSubmissions),
		logger.Int("numTeams", config.NumTeams))

	if len(config.ProblemIDs) == 0 {
		return nil, fmt.Errorf("no problem IDs configured")
	}

	// Pre-allocate the team pool
	teamIDs := make([]string, config.NumTeams)
	for i := range teamIDs {
		teamIDs[i] = "team-" + uuid.New().String()
	}

	submissions := make([]Submission, config.NumSubmissions)
	for i := 0; i < config.NumSubmissions; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during submission generation: %w", ctx.Err())
		default:
		}
		submissions[i] = generateSingleSubmission(i, config, teamIDs)
	}

	stats.SubmissionsGenerated = len(submissions)
	logger.Get().Info(ctx, "generated submissions successfully", logger.Int("count", len(submissions)))

	return submissions, nil
}

// generateSingleSubmission creates one submission with a random team,
// problem and source variant.
func generateSingleSubmission(index int, config *Config, teamIDs []string) Submission {
	team := teamIDs[randomIndex(len(teamIDs))]
	problem := config.ProblemIDs[randomIndex(len(config.ProblemIDs))]
	source := pickSourceVariant()

	return Submission{
		TeamID:    team,
		ProblemID: problem,
		Source:    source,
		Actor:     "loadtest-" + strconv.Itoa(index),
	}
}

// pickSourceVariant selects a source template with a distribution
// biased toward correct solutions.
func pickSourceVariant() string {
	switch randomIndex(sourceVariantDivisor) {
	case caseCorrect, caseCorrectAlt, caseCorrectSlow:
		return sourceVariants[caseCorrect]
	case caseWrongAnswer:
		return sourceVariants[caseWrongAnswer]
	case casePartial:
		return sourceVariants[casePartial]
	case caseInfiniteLoop:
		return sourceVariants[caseInfiniteLoop]
	case caseCrash:
		return sourceVariants[caseCrash]
	case caseSyntaxError:
		return sourceVariants[caseSyntaxError]
	default:
		return sourceVariants[caseCorrect]
	}
}
