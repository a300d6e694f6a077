package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/verdict/internal/adapters/judge"
	"github.com/okian/verdict/internal/adapters/leaderboard"
	"github.com/okian/verdict/internal/adapters/repository"
	"github.com/okian/verdict/internal/adapters/storage"
	service "github.com/okian/verdict/internal/app"
	"github.com/okian/verdict/internal/domain/model"
	"github.com/okian/verdict/internal/domain/types"
	"github.com/okian/verdict/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// fakeJudge returns canned results or a canned error and remembers the
// last request it saw.
type fakeJudge struct {
	results []types.CaseResult
	err     error
	gotReq  judge.Request
	calls   int
}

func (f *fakeJudge) Evaluate(_ context.Context, req judge.Request) ([]types.CaseResult, error) {
	f.gotReq = req
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func seedProblem(store repository.Store, id, contestID string, penaltyRate *float64, cases ...model.TestCase) {
	ctx := context.Background()
	_ = store.PutProblem(ctx, model.Problem{
		ID:          id,
		ContestID:   contestID,
		Title:       "Sorting",
		Language:    "cpp17",
		PenaltyRate: penaltyRate,
	})
	if len(cases) > 0 {
		_ = store.PutTestCases(ctx, cases)
	}
}

func twoCases(problemID string) []model.TestCase {
	return []model.TestCase{
		{ID: "tc-1", ProblemID: problemID, Weight: 60, TimeLimitMS: 1000, MemoryLimitKB: 65536, Input: "1 2", Expected: "3"},
		{ID: "tc-2", ProblemID: problemID, Weight: 40, TimeLimitMS: 2000, MemoryLimitKB: 131072, Input: "4 5", Expected: "9"},
	}
}

func pass(id string) types.CaseResult {
	return types.CaseResult{TestCaseID: id, Status: types.StatusSuccess, RuntimeMS: 12, MemoryKB: 1024}
}

func fail(id string) types.CaseResult {
	return types.CaseResult{TestCaseID: id, Status: "wrong_answer", RuntimeMS: 15, MemoryKB: 2048, Output: "expected 9 got 8"}
}

func TestEvaluateCode(t *testing.T) {
	Convey("Given a calibrated pipeline", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		jd := &fakeJudge{results: []types.CaseResult{pass("tc-1"), pass("tc-2")}}
		svc := service.New(service.WithStore(store), service.WithJudge(jd))
		seedProblem(store, "prob-1", "contest-1", nil, twoCases("prob-1")...)

		Convey("When a passing submission is evaluated", func() {
			out, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-1", ProblemID: "prob-1", Source: "int main(){}", Actor: "student-9",
			})

			Convey("Then it finishes with a full score", func() {
				So(err, ShouldBeNil)
				So(out.Status, ShouldEqual, model.StatusFinished)
				So(out.Raw, ShouldEqual, 100.0)
				So(out.Final, ShouldEqual, 100.0)
				So(out.Cases, ShouldHaveLength, 2)
			})

			Convey("Then the record is terminal with a full detail batch", func() {
				sub, err := store.Submission(ctx, out.SubmissionID)
				So(err, ShouldBeNil)
				So(sub.Status, ShouldEqual, model.StatusFinished)
				So(sub.Score, ShouldEqual, 100.0)
				So(sub.JudgedBy, ShouldEqual, "engine")

				details, err := store.Details(ctx, out.SubmissionID)
				So(err, ShouldBeNil)
				So(details, ShouldHaveLength, 2)
				So(details[0].Weight, ShouldEqual, 60.0)
				So(details[1].Weight, ShouldEqual, 40.0)
			})

			Convey("Then the engine request carried the case set and limits", func() {
				So(jd.gotReq.Language, ShouldEqual, "cpp")
				So(jd.gotReq.Cases, ShouldHaveLength, 2)
				So(jd.gotReq.TimeLimitS, ShouldEqual, 2.0)
				So(jd.gotReq.MemLimitKB, ShouldEqual, int64(131072))
			})
		})

		Convey("When a resubmission is penalized", func() {
			rate := 0.2
			seedProblem(store, "prob-2", "contest-1", &rate, twoCases("prob-2")...)
			jd.results = []types.CaseResult{pass("tc-1"), fail("tc-2")}

			first, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-2", ProblemID: "prob-2", Source: "v1", Actor: "student-1",
			})
			So(err, ShouldBeNil)
			second, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-2", ProblemID: "prob-2", Source: "v2", Actor: "student-1",
			})

			Convey("Then the second attempt carries the deduction", func() {
				So(err, ShouldBeNil)
				So(first.Final, ShouldEqual, 60.0)
				So(second.Raw, ShouldEqual, 60.0)
				So(second.Final, ShouldEqual, 48.0) // 60 - 60*0.2*1
			})

			Convey("Then the first record is untouched by the re-evaluation", func() {
				sub, err := store.Submission(ctx, first.SubmissionID)
				So(err, ShouldBeNil)
				So(sub.Score, ShouldEqual, 60.0)
			})
		})

		Convey("When the problem does not exist", func() {
			_, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-1", ProblemID: "prob-404", Source: "x", Actor: "student-9",
			})

			Convey("Then it fails without touching the store", func() {
				So(errors.Is(err, service.ErrProblemNotFound), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the problem has no test cases", func() {
			seedProblem(store, "prob-empty", "contest-1", nil)

			_, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-1", ProblemID: "prob-empty", Source: "x", Actor: "student-9",
			})

			Convey("Then nothing is persisted and the attempt does not count", func() {
				So(errors.Is(err, service.ErrNoTestCases), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
				So(jd.calls, ShouldEqual, 0)
			})
		})

		Convey("When the judge is unavailable", func() {
			jd.err = judge.ErrUnavailable

			_, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-3", ProblemID: "prob-1", Source: "x", Actor: "student-9",
			})

			Convey("Then the submission lands in internal error, never stuck pending", func() {
				So(errors.Is(err, judge.ErrUnavailable), ShouldBeTrue)

				subs, err := store.SubmissionsByTeamProblem(ctx, "team-3", "prob-1")
				So(err, ShouldBeNil)
				So(subs, ShouldHaveLength, 1)
				So(subs[0].Status, ShouldEqual, model.StatusInternalError)
				So(subs[0].Score, ShouldEqual, 0.0)
			})
		})

		Convey("When a case times out", func() {
			jd.err = nil
			jd.results = []types.CaseResult{
				pass("tc-1"),
				{TestCaseID: "tc-2", Status: "time_limit_exceeded", RuntimeMS: 2000},
			}

			out, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-4", ProblemID: "prob-1", Source: "while(1);", Actor: "student-9",
			})

			Convey("Then the terminal status reflects the resource failure", func() {
				So(err, ShouldBeNil)
				So(out.Status, ShouldEqual, model.StatusTimeLimitExceeded)
				So(out.Final, ShouldEqual, 60.0)
			})
		})
	})
}

func TestSubmitFile(t *testing.T) {
	Convey("Given a pipeline with artifact storage", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		blobs := storage.NewMemoryStore()
		svc := service.New(
			service.WithStore(store),
			service.WithStorage(blobs),
			service.WithJudge(&fakeJudge{}),
			service.WithMaxUploadBytes(64),
		)
		seedProblem(store, "prob-1", "contest-1", nil, twoCases("prob-1")...)

		Convey("When a report is uploaded", func() {
			receipt, err := svc.SubmitFile(ctx, service.FileRequest{
				TeamID: "team-1", ProblemID: "prob-1",
				Filename: "report.pdf", Data: []byte("pdf bytes"), Actor: "student-9",
			})

			Convey("Then a pending submission holds the artifact URL", func() {
				So(err, ShouldBeNil)
				So(receipt.URL, ShouldNotBeEmpty)

				sub, err := store.Submission(ctx, receipt.SubmissionID)
				So(err, ShouldBeNil)
				So(sub.Status, ShouldEqual, model.StatusPending)

				arts, err := store.Artifacts(ctx, receipt.SubmissionID)
				So(err, ShouldBeNil)
				So(arts, ShouldHaveLength, 1)
				So(arts[0].Kind, ShouldEqual, model.ArtifactFile)
				So(arts[0].Content, ShouldEqual, receipt.URL)

				data, ok := blobs.Get(receipt.URL)
				So(ok, ShouldBeTrue)
				So(bytes.Equal(data, []byte("pdf bytes")), ShouldBeTrue)
			})
		})

		Convey("When the extension is not allowed", func() {
			_, err := svc.SubmitFile(ctx, service.FileRequest{
				TeamID: "team-1", ProblemID: "prob-1",
				Filename: "payload.exe", Data: []byte("x"), Actor: "student-9",
			})

			Convey("Then it is rejected before any side effect", func() {
				So(errors.Is(err, service.ErrFileTypeNotAllowed), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the file exceeds the size ceiling", func() {
			_, err := svc.SubmitFile(ctx, service.FileRequest{
				TeamID: "team-1", ProblemID: "prob-1",
				Filename: "big.pdf", Data: make([]byte, 65), Actor: "student-9",
			})

			Convey("Then it is rejected before any side effect", func() {
				So(errors.Is(err, service.ErrFileTooLarge), ShouldBeTrue)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the problem does not exist", func() {
			_, err := svc.SubmitFile(ctx, service.FileRequest{
				TeamID: "team-1", ProblemID: "prob-404",
				Filename: "report.pdf", Data: []byte("x"), Actor: "student-9",
			})

			So(errors.Is(err, service.ErrProblemNotFound), ShouldBeTrue)
		})
	})
}

func TestSetManualScore(t *testing.T) {
	Convey("Given a pending file submission", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithJudge(&fakeJudge{}))
		seedProblem(store, "prob-1", "contest-1", nil, twoCases("prob-1")...)

		receipt, err := svc.SubmitFile(ctx, service.FileRequest{
			TeamID: "team-1", ProblemID: "prob-1",
			Filename: "essay.pdf", Data: []byte("pdf"), Actor: "student-9",
		})
		So(err, ShouldBeNil)

		Convey("When a judge assigns a score", func() {
			err := svc.SetManualScore(ctx, receipt.SubmissionID, 85, "solid analysis", "judge-7")

			Convey("Then the submission is finished with the judge identity", func() {
				So(err, ShouldBeNil)

				sub, err := store.Submission(ctx, receipt.SubmissionID)
				So(err, ShouldBeNil)
				So(sub.Status, ShouldEqual, model.StatusFinished)
				So(sub.Score, ShouldEqual, 85.0)
				So(sub.JudgedBy, ShouldEqual, "judge-7")

				details, err := store.Details(ctx, receipt.SubmissionID)
				So(err, ShouldBeNil)
				So(details, ShouldHaveLength, 1)
				So(details[0].Note, ShouldEqual, "solid analysis")
				So(details[0].TestCaseID, ShouldBeNil)
			})

			Convey("Then scoring it again is rejected", func() {
				err := svc.SetManualScore(ctx, receipt.SubmissionID, 90, "changed my mind", "judge-7")
				So(errors.Is(err, repository.ErrFinalized), ShouldBeTrue)

				sub, _ := store.Submission(ctx, receipt.SubmissionID)
				So(sub.Score, ShouldEqual, 85.0)
			})
		})

		Convey("When the submission does not exist", func() {
			err := svc.SetManualScore(ctx, "sub-404", 50, "", "judge-7")
			So(errors.Is(err, service.ErrSubmissionNotFound), ShouldBeTrue)
		})

		Convey("When the score is out of range", func() {
			err := svc.SetManualScore(ctx, receipt.SubmissionID, 101, "", "judge-7")
			So(errors.Is(err, repository.ErrInvalidScore), ShouldBeTrue)
		})
	})
}

func TestDownloadURL(t *testing.T) {
	Convey("Given submissions with and without file artifacts", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		jd := &fakeJudge{results: []types.CaseResult{pass("tc-1"), pass("tc-2")}}
		svc := service.New(service.WithStore(store), service.WithJudge(jd))
		seedProblem(store, "prob-1", "contest-1", nil, twoCases("prob-1")...)

		receipt, err := svc.SubmitFile(ctx, service.FileRequest{
			TeamID: "team-1", ProblemID: "prob-1",
			Filename: "essay.pdf", Data: []byte("pdf"), Actor: "student-9",
		})
		So(err, ShouldBeNil)

		Convey("When the file submission's URL is requested", func() {
			url, err := svc.DownloadURL(ctx, receipt.SubmissionID)
			So(err, ShouldBeNil)
			So(url, ShouldEqual, receipt.URL)
		})

		Convey("When a code submission's URL is requested", func() {
			out, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
				TeamID: "team-1", ProblemID: "prob-1", Source: "x", Actor: "student-9",
			})
			So(err, ShouldBeNil)

			_, err = svc.DownloadURL(ctx, out.SubmissionID)
			So(errors.Is(err, service.ErrNoArtifact), ShouldBeTrue)
		})

		Convey("When the submission does not exist", func() {
			_, err := svc.DownloadURL(ctx, "sub-404")
			So(errors.Is(err, service.ErrSubmissionNotFound), ShouldBeTrue)
		})
	})
}

func TestAccept(t *testing.T) {
	Convey("Given finished submissions and a leaderboard", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		board := leaderboard.New()
		jd := &fakeJudge{results: []types.CaseResult{pass("tc-1"), pass("tc-2")}}
		svc := service.New(
			service.WithStore(store),
			service.WithJudge(jd),
			service.WithBoard(board),
		)
		seedProblem(store, "prob-1", "contest-1", nil, twoCases("prob-1")...)

		out, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
			TeamID: "team-1", ProblemID: "prob-1", Source: "x", Actor: "student-9",
		})
		So(err, ShouldBeNil)

		Convey("When the submission is accepted", func() {
			snap, err := svc.Accept(ctx, out.SubmissionID)

			Convey("Then the contest ranking carries the team", func() {
				So(err, ShouldBeNil)
				So(snap.ContestID, ShouldEqual, "contest-1")
				So(snap.Rows, ShouldHaveLength, 1)
				So(snap.Rows[0].TeamID, ShouldEqual, "team-1")
				So(snap.Rows[0].Score, ShouldEqual, 100.0)
			})

			Convey("Then accepting it again does not reapply the score", func() {
				before := board.SnapshotCount("contest-1")
				snap2, err := svc.Accept(ctx, out.SubmissionID)
				So(err, ShouldBeNil)
				So(snap2.Rows, ShouldHaveLength, 1)
				So(board.SnapshotCount("contest-1"), ShouldEqual, before)
			})
		})

		Convey("When a non-finished submission is accepted", func() {
			receipt, err := svc.SubmitFile(ctx, service.FileRequest{
				TeamID: "team-2", ProblemID: "prob-1",
				Filename: "essay.pdf", Data: []byte("pdf"), Actor: "student-9",
			})
			So(err, ShouldBeNil)

			_, err = svc.Accept(ctx, receipt.SubmissionID)
			So(errors.Is(err, service.ErrNotFinished), ShouldBeTrue)
		})

		Convey("When the submission does not exist", func() {
			_, err := svc.Accept(ctx, "sub-404")
			So(errors.Is(err, service.ErrSubmissionNotFound), ShouldBeTrue)
		})
	})
}

func TestFreezeAndStats(t *testing.T) {
	Convey("Given an active contest", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		board := leaderboard.New()
		jd := &fakeJudge{results: []types.CaseResult{pass("tc-1"), pass("tc-2")}}
		svc := service.New(
			service.WithStore(store),
			service.WithJudge(jd),
			service.WithBoard(board),
		)
		seedProblem(store, "prob-1", "contest-1", nil, twoCases("prob-1")...)

		out, err := svc.EvaluateCode(ctx, service.EvaluateRequest{
			TeamID: "team-1", ProblemID: "prob-1", Source: "x", Actor: "student-9",
		})
		So(err, ShouldBeNil)
		_, err = svc.Accept(ctx, out.SubmissionID)
		So(err, ShouldBeNil)

		Convey("When the contest is frozen and unfrozen", func() {
			So(svc.ToggleFreeze(ctx, "contest-1"), ShouldBeTrue)
			So(board.Frozen("contest-1"), ShouldBeTrue)
			So(svc.ToggleFreeze(ctx, "contest-1"), ShouldBeFalse)
		})

		Convey("When a snapshot is read", func() {
			snap, err := svc.Snapshot(ctx, "contest-1", false)
			So(err, ShouldBeNil)
			So(snap.Rows, ShouldHaveLength, 1)
		})

		Convey("When stats are collected", func() {
			stats := svc.GetStats()
			So(stats["totalSubmissions"], ShouldEqual, 1)
		})
	})
}
