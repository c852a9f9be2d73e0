package reporting

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/kizu/types"
)

func sampleResults() types.TestResultsByFile {
	byFile := types.TestResultsByFile{}
	byFile.Add("specs/z.go", passing("z passes", 1))
	byFile.Add("specs/a.go", passing("a passes", 1))
	byFile.Add("specs/a.go", types.TestResults{
		Description: "a fails",
		Assertions: []types.Assertion{
			{Pass: true, Description: "isTrue()"},
			{Pass: false, Description: "equal()", Diagnostic: "Actual:\n\n1\n\nExpected:\n\n2",
				Stack: "not deeply and strictly equivalent\ngithub.com/ethereum-optimism/infra/kizu/assertions.captureStack\n\t/src/kizu/assertions/assert.go:10\nmain.main.func1\n\t/specs/a.go:12"},
		},
	})
	byFile.Add("specs/a.go", types.TestResults{
		Description: "a panics",
		Assertions:  []types.Assertion{},
		Error:       &types.SerializedError{Name: "codedError", Message: "boom", Fields: map[string]any{"Code": 7}},
	})
	return byFile
}

func TestConsoleFormatter_PrintResults(t *testing.T) {
	var out bytes.Buffer
	NewConsoleFormatter(&out, false, false).PrintResults(sampleResults())
	got := out.String()

	aIdx := strings.Index(got, "specs/a.go ✖")
	zIdx := strings.Index(got, "specs/z.go ✔")
	assert.NotEqual(t, -1, aIdx)
	assert.NotEqual(t, -1, zIdx)
	assert.Less(t, aIdx, zIdx, "files are sorted")

	assert.Contains(t, got, "a passes ✔")
	assert.Contains(t, got, "a fails ✖")
	assert.Contains(t, got, "  isTrue() ✔")
	assert.Contains(t, got, "  equal() ✖")
	assert.Contains(t, got, "Actual:\n\n1\n\nExpected:\n\n2")
	assert.Contains(t, got, "main.main.func1")
	assert.NotContains(t, got, "captureStack", "runner frames are filtered")
	assert.Contains(t, got, "codedError: boom")
	assert.Contains(t, got, "  Code: 7")
	assert.Contains(t, got, hr)
	assert.NotContains(t, got, "\x1b[", "no colors when disabled")
}

func TestConsoleFormatter_FailOnly(t *testing.T) {
	var out bytes.Buffer
	NewConsoleFormatter(&out, true, false).PrintResults(sampleResults())
	got := out.String()

	assert.NotContains(t, got, "specs/z.go")
	assert.NotContains(t, got, "a passes")
	assert.NotContains(t, got, "isTrue()")
	assert.Contains(t, got, "a fails ✖")
	assert.Contains(t, got, "  equal() ✖")
	assert.Contains(t, got, "a panics ✖")
}

func TestConsoleFormatter_PrintSummary(t *testing.T) {
	var out bytes.Buffer
	f := NewConsoleFormatter(&out, false, false)
	f.PrintSummary(types.FinalResults{
		NumFiles:                1,
		NumTests:                1,
		NumSuccessfulTests:      1,
		FilesWithNoTests:        []string{"b.go", "c.go"},
		NumAssertions:           2,
		NumSuccessfulAssertions: 2,
	})
	got := out.String()

	noTests := strings.Index(got, "Error: 2 spec file(s) have no tests.")
	summary := strings.Index(got, "✔ 2/2 assertions passed")
	assert.NotEqual(t, -1, noTests)
	assert.NotEqual(t, -1, summary)
	assert.Less(t, noTests, summary, "empty files are listed ahead of the summary")
	assert.Contains(t, got, "b.go, c.go")
	assert.Contains(t, got, "✔ 1/1 tests passed")

	out.Reset()
	f.PrintSummary(types.FinalResults{NumTests: 2, NumSuccessfulTests: 1, NumAssertions: 3, NumSuccessfulAssertions: 1})
	assert.Contains(t, out.String(), "✖ 1/3 assertions passed")
	assert.Contains(t, out.String(), "✖ 1/2 tests passed")

	out.Reset()
	f.PrintSummary(types.FinalResults{})
	assert.Contains(t, out.String(), "✖ 0/0 tests passed")
}

func TestConsoleFormatter_Colors(t *testing.T) {
	var out bytes.Buffer
	NewConsoleFormatter(&out, false, true).PrintFile("a.go", []types.TestResults{passing("ok", 1)})
	assert.Contains(t, out.String(), "a.go")
	assert.Contains(t, out.String(), "ok")
}

func TestSummaryTable(t *testing.T) {
	got := SummaryTable(types.FinalResults{
		NumFiles:                2,
		NumTests:                4,
		NumSuccessfulTests:      3,
		FilesWithNoTests:        []string{"c.go"},
		NumAssertions:           9,
		NumSuccessfulAssertions: 8,
	}, false)
	assert.Contains(t, got, "kizu results")
	assert.Contains(t, got, "Files")
	assert.Contains(t, got, "Tests")
	assert.Contains(t, got, "Assertions")
}

func TestFilterStackTrace(t *testing.T) {
	stack := strings.Join([]string{
		"goroutine 1 [running]:",
		"runtime/debug.Stack()",
		"\t/usr/local/go/src/runtime/debug/stack.go:26 +0x5e",
		"github.com/ethereum-optimism/infra/kizu/worker.(*Runner).Test.func1()",
		"\t/src/kizu/worker/worker.go:60 +0x45",
		"panic({0x1, 0x2})",
		"\t/usr/local/go/src/runtime/panic.go:785 +0x132",
		"main.main.func1(0xc000010000)",
		"\t/specs/greet/main.go:14 +0x25",
		"main.main()",
		"\t/specs/greet/main.go:10 +0x1d",
	}, "\n")

	assert.Equal(t, strings.Join([]string{
		"goroutine 1 [running]:",
		"main.main.func1(0xc000010000)",
		"\t/specs/greet/main.go:14 +0x25",
		"main.main()",
		"\t/specs/greet/main.go:10 +0x1d",
	}, "\n"), FilterStackTrace(stack))
}
