package main

import (
	"context"

	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/domain/model"
)

// demoContestID names the contest loaded by the seed_demo config flag.
const demoContestID = "demo"

// seedDemoCatalog loads a small fixed catalog so the service is usable
// out of the box for load testing and local development.
func seedDemoCatalog(ctx context.Context, store *repository.MemoryStore) error {
	penalty := 0.1
	problems := []model.Problem{
		{ID: "demo-sum", ContestID: demoContestID, Title: "Sum of Two Numbers", Language: "python", PenaltyRate: &penalty},
		{ID: "demo-echo", ContestID: demoContestID, Title: "Echo Lines", Language: "cpp"},
	}
	cases := []model.TestCase{
		{ID: "demo-sum-1", ProblemID: "demo-sum", Weight: 50, TimeLimitMS: 1000, MemoryLimitKB: 65536, Input: "1 2", Expected: "3"},
		{ID: "demo-sum-2", ProblemID: "demo-sum", Weight: 30, TimeLimitMS: 1000, MemoryLimitKB: 65536, Input: "10 -4", Expected: "6"},
		{ID: "demo-sum-3", ProblemID: "demo-sum", Weight: 20, TimeLimitMS: 2000, MemoryLimitKB: 65536, Input: "1000000 1000000", Expected: "2000000"},
		{ID: "demo-echo-1", ProblemID: "demo-echo", Weight: 60, TimeLimitMS: 1000, MemoryLimitKB: 65536, Input: "hello", Expected: "hello"},
		{ID: "demo-echo-2", ProblemID: "demo-echo", Weight: 40, TimeLimitMS: 2000, MemoryLimitKB: 131072, Input: "hello\nworld", Expected: "hello\nworld"},
	}

	for _, p := range problems {
		if err := store.PutProblem(ctx, p); err != nil {
			return err
		}
	}
	return store.PutTestCases(ctx, cases)
}
