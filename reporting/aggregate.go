package reporting

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// Aggregate reduces the collected records into the run summary. A spec file
// that reported no test is listed in FilesWithNoTests, in specFiles order.
func Aggregate(specFiles []string, byFile types.TestResultsByFile) types.FinalResults {
	final := types.FinalResults{FilesWithNoTests: []string{}}

	seen := mapset.NewThreadUnsafeSetWithSize[string](len(specFiles))
	for _, file := range specFiles {
		if !seen.Add(file) {
			continue
		}
		if len(byFile[file]) == 0 {
			final.FilesWithNoTests = append(final.FilesWithNoTests, file)
		}
	}

	for _, tests := range byFile {
		if len(tests) == 0 {
			continue
		}
		final.NumFiles++
		for _, test := range tests {
			final.NumTests++
			if test.IsPassing() {
				final.NumSuccessfulTests++
			}
			final.NumAssertions += len(test.Assertions)
			final.NumSuccessfulAssertions += test.NumPassedAssertions()
		}
	}
	return final
}

// ShouldExitWithError reports whether the run failed: a file without tests,
// a run without tests, or any failing test.
func ShouldExitWithError(final types.FinalResults) bool {
	return len(final.FilesWithNoTests) > 0 ||
		final.NumTests == 0 ||
		final.NumSuccessfulTests != final.NumTests
}
