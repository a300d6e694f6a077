package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	repository "github.com/okian/verdict/internal/adapters/repository"
	model "github.com/okian/verdict/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func newSub(id, team, problem string) model.Submission {
	return model.Submission{
		ID:        id,
		TeamID:    team,
		ProblemID: problem,
		JudgedBy:  "system",
		Status:    model.StatusPending,
	}
}

func codeArt(id string) model.Artifact {
	return model.Artifact{ID: id, Kind: model.ArtifactCode, Content: "print(42)"}
}

func TestCreateSubmission(t *testing.T) {
	Convey("Given an empty record store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		Convey("When creating the first submission for a team+problem", func() {
			prior, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))

			Convey("Then the prior count is zero", func() {
				So(err, ShouldBeNil)
				So(prior, ShouldEqual, 0)
			})

			Convey("And the submission and artifact are readable", func() {
				sub, err := store.Submission(ctx, "sub-1")
				So(err, ShouldBeNil)
				So(sub.Status, ShouldEqual, model.StatusPending)
				So(sub.CreatedAt.IsZero(), ShouldBeFalse)

				arts, err := store.Artifacts(ctx, "sub-1")
				So(err, ShouldBeNil)
				So(len(arts), ShouldEqual, 1)
				So(arts[0].SubmissionID, ShouldEqual, "sub-1")
			})
		})

		Convey("When the same team resubmits against the same problem", func() {
			_, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))
			So(err, ShouldBeNil)
			prior, err := store.CreateSubmission(ctx, newSub("sub-2", "team-a", "prob-1"), codeArt("art-2"))
			So(err, ShouldBeNil)

			Convey("Then the prior count reflects the earlier attempt", func() {
				So(prior, ShouldEqual, 1)
			})
		})

		Convey("When a different team submits against the same problem", func() {
			_, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))
			So(err, ShouldBeNil)
			prior, err := store.CreateSubmission(ctx, newSub("sub-2", "team-b", "prob-1"), codeArt("art-2"))
			So(err, ShouldBeNil)

			Convey("Then the counts do not bleed across teams", func() {
				So(prior, ShouldEqual, 0)
			})
		})

		Convey("When reusing a submission ID", func() {
			_, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))
			So(err, ShouldBeNil)
			_, err = store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-2"))

			Convey("Then the insert is rejected", func() {
				So(err, ShouldEqual, repository.ErrConflict)
			})
		})
	})
}

func TestPriorCountReservation(t *testing.T) {
	Convey("Given many concurrent creates for one team+problem", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()

		const n = 50
		counts := make([]int, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				prior, err := store.CreateSubmission(ctx, newSub(subID(i), "team-a", "prob-1"), codeArt("art-"+subID(i)))
				if err == nil {
					counts[i] = prior
				}
			}(i)
		}
		wg.Wait()

		Convey("Then every prior count is distinct and no two creates exclude each other", func() {
			seen := make(map[int]bool, n)
			for _, c := range counts {
				So(seen[c], ShouldBeFalse)
				seen[c] = true
			}
			So(len(seen), ShouldEqual, n)
		})
	})
}

func subID(i int) string {
	return fmt.Sprintf("sub-%03d", i)
}

func TestFinalize(t *testing.T) {
	Convey("Given a pending submission", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		_, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))
		So(err, ShouldBeNil)

		tcID := "tc-1"
		details := []model.Detail{
			{ID: "det-1", TestCaseID: &tcID, Weight: 50, Note: "success", RuntimeMS: 12, MemoryKB: 1024},
			{ID: "det-2", TestCaseID: &tcID, Weight: 50, Note: "wrong_answer", RuntimeMS: 9, MemoryKB: 980},
		}

		Convey("When finalizing with a detail batch", func() {
			err := store.Finalize(ctx, "sub-1", model.StatusFinished, 50, "engine", details)
			So(err, ShouldBeNil)

			Convey("Then status, score and the whole batch are visible together", func() {
				sub, err := store.Submission(ctx, "sub-1")
				So(err, ShouldBeNil)
				So(sub.Status, ShouldEqual, model.StatusFinished)
				So(sub.Score, ShouldEqual, 50)

				got, err := store.Details(ctx, "sub-1")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].SubmissionID, ShouldEqual, "sub-1")
				So(got[0].CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And finalizing again is rejected", func() {
				err := store.Finalize(ctx, "sub-1", model.StatusFinished, 80, "engine", nil)
				So(err, ShouldEqual, repository.ErrFinalized)

				Convey("And the first batch is untouched", func() {
					got, _ := store.Details(ctx, "sub-1")
					So(len(got), ShouldEqual, 2)
					sub, _ := store.Submission(ctx, "sub-1")
					So(sub.Score, ShouldEqual, 50)
				})
			})
		})

		Convey("When finalizing with a non-terminal status", func() {
			err := store.Finalize(ctx, "sub-1", model.StatusEvaluating, 0, "engine", nil)
			So(err, ShouldEqual, repository.ErrBadTransition)
		})

		Convey("When finalizing with a score outside [0,100]", func() {
			So(store.Finalize(ctx, "sub-1", model.StatusFinished, -1, "engine", nil), ShouldEqual, repository.ErrInvalidScore)
			So(store.Finalize(ctx, "sub-1", model.StatusFinished, 100.01, "engine", nil), ShouldEqual, repository.ErrInvalidScore)

			Convey("And the submission stays pending", func() {
				sub, _ := store.Submission(ctx, "sub-1")
				So(sub.Status, ShouldEqual, model.StatusPending)
			})
		})

		Convey("When finalizing an unknown submission", func() {
			err := store.Finalize(ctx, "sub-404", model.StatusFinished, 10, "engine", nil)
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestReEvaluationIsolation(t *testing.T) {
	Convey("Given a finalized submission", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		_, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))
		So(err, ShouldBeNil)
		So(store.Finalize(ctx, "sub-1", model.StatusFinished, 70, "engine", []model.Detail{{ID: "det-1", Weight: 100, Note: "success"}}), ShouldBeNil)

		Convey("When the team is re-evaluated via a new submission", func() {
			prior, err := store.CreateSubmission(ctx, newSub("sub-2", "team-a", "prob-1"), codeArt("art-2"))
			So(err, ShouldBeNil)
			So(prior, ShouldEqual, 1)
			So(store.Finalize(ctx, "sub-2", model.StatusFinished, 90, "engine", []model.Detail{{ID: "det-2", Weight: 100, Note: "success"}}), ShouldBeNil)

			Convey("Then the earlier detail set is untouched", func() {
				first, _ := store.Details(ctx, "sub-1")
				So(len(first), ShouldEqual, 1)
				So(first[0].ID, ShouldEqual, "det-1")

				second, _ := store.Details(ctx, "sub-2")
				So(len(second), ShouldEqual, 1)
				So(second[0].ID, ShouldEqual, "det-2")
			})
		})
	})
}

func TestSoftDelete(t *testing.T) {
	Convey("Given a stored submission", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		_, err := store.CreateSubmission(ctx, newSub("sub-1", "team-a", "prob-1"), codeArt("art-1"))
		So(err, ShouldBeNil)

		Convey("When soft-deleting it", func() {
			So(store.SoftDeleteSubmission(ctx, "sub-1"), ShouldBeNil)

			Convey("Then every read path filters it out", func() {
				_, err := store.Submission(ctx, "sub-1")
				So(err, ShouldEqual, repository.ErrNotFound)

				subs, _ := store.SubmissionsByTeamProblem(ctx, "team-a", "prob-1")
				So(len(subs), ShouldEqual, 0)

				So(store.Count(ctx), ShouldEqual, 0)
			})

			Convey("And the next attempt count excludes it", func() {
				prior, err := store.CreateSubmission(ctx, newSub("sub-2", "team-a", "prob-1"), codeArt("art-2"))
				So(err, ShouldBeNil)
				So(prior, ShouldEqual, 0)
			})

			Convey("And deleting again reports not found", func() {
				So(store.SoftDeleteSubmission(ctx, "sub-1"), ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestCatalogReads(t *testing.T) {
	Convey("Given a seeded catalog", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		rate := 0.1
		So(store.PutProblem(ctx, model.Problem{ID: "prob-1", ContestID: "c-1", Title: "Two Sum", Language: "go", PenaltyRate: &rate}), ShouldBeNil)
		So(store.PutTestCases(ctx, []model.TestCase{
			{ID: "tc-1", ProblemID: "prob-1", Weight: 40, TimeLimitMS: 1000, MemoryLimitKB: 65536},
			{ID: "tc-2", ProblemID: "prob-1", Weight: 60, TimeLimitMS: 2000, MemoryLimitKB: 131072},
		}), ShouldBeNil)

		Convey("When reading the problem", func() {
			p, err := store.Problem(ctx, "prob-1")
			So(err, ShouldBeNil)
			So(p.Title, ShouldEqual, "Two Sum")
			So(*p.PenaltyRate, ShouldEqual, 0.1)
		})

		Convey("When reading an unknown problem", func() {
			_, err := store.Problem(ctx, "prob-404")
			So(err, ShouldEqual, repository.ErrNotFound)
		})

		Convey("When reading the case set", func() {
			cases, err := store.TestCases(ctx, "prob-1")
			So(err, ShouldBeNil)
			So(len(cases), ShouldEqual, 2)
			So(cases[0].ID, ShouldEqual, "tc-1")

			Convey("Then mutating the returned slice does not touch the store", func() {
				cases[0].Weight = 999
				again, _ := store.TestCases(ctx, "prob-1")
				So(again[0].Weight, ShouldEqual, 40)
			})
		})

		Convey("When reading cases for a problem with none", func() {
			cases, err := store.TestCases(ctx, "prob-empty")
			So(err, ShouldBeNil)
			So(len(cases), ShouldEqual, 0)
		})
	})
}
