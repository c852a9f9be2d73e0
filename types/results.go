package types

// Assertion is a single pass/fail check recorded while a test body runs.
// Assertions are appended in call order and never modified afterwards.
type Assertion struct {
	Pass        bool   `json:"pass"`
	Description string `json:"description"`
	Diagnostic  string `json:"diagnostic,omitempty"`
	Stack       string `json:"stack,omitempty"`
}

// TestResults is the record a worker sends for every completed test.
type TestResults struct {
	Description string           `json:"description"`
	Assertions  []Assertion      `json:"assertions"`
	Error       *SerializedError `json:"error,omitempty"`
}

// IsPassing reports whether every assertion passed and the test body did
// not fail with an uncaught error.
func (r TestResults) IsPassing() bool {
	if r.Error != nil {
		return false
	}
	for _, a := range r.Assertions {
		if !a.Pass {
			return false
		}
	}
	return true
}

// NumPassedAssertions counts the passing assertions of the test.
func (r TestResults) NumPassedAssertions() int {
	n := 0
	for _, a := range r.Assertions {
		if a.Pass {
			n++
		}
	}
	return n
}

// TestResultsByFile maps a spec file to the results its worker reported,
// in arrival order.
type TestResultsByFile map[string][]TestResults

// Add appends results for file, preserving arrival order.
func (m TestResultsByFile) Add(file string, results TestResults) {
	m[file] = append(m[file], results)
}

// FinalResults is the summary derived from a TestResultsByFile.
type FinalResults struct {
	NumFiles                int      `json:"numFiles"`
	NumTests                int      `json:"numTests"`
	NumSuccessfulTests      int      `json:"numSuccessfulTests"`
	FilesWithNoTests        []string `json:"filesWithNoTests"`
	NumAssertions           int      `json:"numAssertions"`
	NumSuccessfulAssertions int      `json:"numSuccessfulAssertions"`
}
