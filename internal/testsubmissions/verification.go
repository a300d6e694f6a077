package testsubmissions

import (
	"fmt"
	"log"
	"sort"
)

// expectedScores computes the score each team should hold on the
// leaderboard: the sum across problems of its best accepted submission.
func expectedScores(outcomes []Outcome) map[string]float64 {
	best := make(map[string]map[string]float64) // team -> problem -> best score
	for _, o := range outcomes {
		if !o.Accepted {
			continue
		}
		team, problem := o.Submission.TeamID, o.Submission.ProblemID
		if best[team] == nil {
			best[team] = make(map[string]float64)
		}
		if o.Evaluation.FinalScore > best[team][problem] {
			best[team][problem] = o.Evaluation.FinalScore
		}
	}

	totals := make(map[string]float64, len(best))
	for team, problems := range best {
		for _, score := range problems {
			totals[team] += score
		}
	}
	return totals
}

// verifyResults checks the leaderboard against locally computed totals.
func verifyResults(config *Config, outcomes []Outcome, leaderboard []Entry) error {
	log.Println("Verifying results...")

	totals := expectedScores(outcomes)
	if len(totals) == 0 {
		return fmt.Errorf("no accepted submissions to verify")
	}

	// Rank teams locally by expected total
	expected := make([]Entry, 0, len(totals))
	for team, score := range totals {
		expected = append(expected, Entry{TeamID: team, Score: score})
	}
	sort.Slice(expected, func(i, j int) bool {
		return expected[i].Score > expected[j].Score
	})

	if len(leaderboard) > 0 {
		if err := verifyLeaderboardConsistency(expected, leaderboard, totals); err != nil {
			log.Printf("Leaderboard consistency warning: %v", err)
		} else {
			log.Println("Leaderboard consistency verified")
		}
	}

	displayTopTeams(expected, leaderboard, config.Verbose)

	log.Println("Result verification completed")
	return nil
}

// verifyLeaderboardConsistency checks ordering and per-team scores.
func verifyLeaderboardConsistency(expected, leaderboard []Entry, totals map[string]float64) error {
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}

	// The top score must match the best locally computed total.
	if leaderboard[0].Score != expected[0].Score {
		return fmt.Errorf("top leaderboard score (%.3f) does not match expected top score (%.3f)",
			leaderboard[0].Score, expected[0].Score)
	}

	// Check if the leaderboard is properly sorted
	for i := 1; i < len(leaderboard); i++ {
		if leaderboard[i].Score > leaderboard[i-1].Score {
			return fmt.Errorf("leaderboard not properly sorted: entry %d has higher score than entry %d",
				i, i-1)
		}
	}

	// Every listed team's score must match its expected total.
	for _, entry := range leaderboard {
		want, ok := totals[entry.TeamID]
		if !ok {
			return fmt.Errorf("leaderboard lists team %s with no accepted submissions", entry.TeamID)
		}
		if entry.Score != want {
			return fmt.Errorf("team %s has leaderboard score %.3f, expected %.3f",
				entry.TeamID, entry.Score, want)
		}
	}

	return nil
}

// displayTopTeams shows the top teams from expected totals and the leaderboard.
func displayTopTeams(expected, leaderboard []Entry, verbose bool) {
	topN := 10
	if len(expected) < topN {
		topN = len(expected)
	}

	log.Printf("Top %d teams by expected score:", topN)
	for i := 0; i < topN; i++ {
		entry := expected[i]
		log.Printf("   %d. %s - Score: %.3f", i+1, entry.TeamID, entry.Score)
	}

	if len(leaderboard) > 0 {
		leaderboardTopN := topN
		if len(leaderboard) < leaderboardTopN {
			leaderboardTopN = len(leaderboard)
		}

		log.Printf("Top %d teams from leaderboard:", leaderboardTopN)
		for i := 0; i < leaderboardTopN; i++ {
			entry := leaderboard[i]
			log.Printf("   %d. %s - Score: %.3f", entry.Rank, entry.TeamID, entry.Score)
		}
	}

	if verbose && len(expected) > 0 {
		avgScore := calculateAverageScore(expected)
		maxScore := expected[0].Score
		minScore := expected[len(expected)-1].Score

		log.Printf(`Score statistics:
   Average: %.3f
   Maximum: %.3f
   Minimum: %.3f
`, avgScore, maxScore, minScore)
	}
}

// calculateAverageScore calculates the average score over entries.
func calculateAverageScore(entries []Entry) float64 {
	if len(entries) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range entries {
		sum += entry.Score
	}

	return sum / float64(len(entries))
}
