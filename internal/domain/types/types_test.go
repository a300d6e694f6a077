package types_test

import (
	"testing"

	types "github.com/okian/verdict/internal/domain/types"
	"github.com/smartystreets/goconvey/convey"
)

func TestCaseResultPassed(t *testing.T) {
	convey.Convey("Given judged case results", t, func() {
		convey.Convey("When the engine reports success", func() {
			r := types.CaseResult{TestCaseID: "tc-1", Status: types.StatusSuccess}
			convey.So(r.Passed(), convey.ShouldBeTrue)
		})

		convey.Convey("When the engine reports any other label", func() {
			for _, status := range []string{"wrong_answer", "time_limit_exceeded", "SUCCESS", ""} {
				r := types.CaseResult{TestCaseID: "tc-1", Status: status}
				convey.So(r.Passed(), convey.ShouldBeFalse)
			}
		})
	})
}
