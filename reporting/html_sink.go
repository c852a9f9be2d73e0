package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ethereum-optimism/infra/kizu/templates"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// HTMLReportFilename is the name of the report written into the run directory.
const HTMLReportFilename = "results.html"

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// htmlFile is one spec file as shown in the report.
type htmlFile struct {
	Path    string
	Passing bool
	Tests   []types.TestResults
}

type htmlReport struct {
	RunID    string
	Passing  bool
	Duration time.Duration
	Final    types.FinalResults
	Files    []htmlFile
	Table    template.HTML
}

// HTMLSink renders a self-contained results.html once the run is complete.
type HTMLSink struct {
	outputDir string
	runID     string
	started   time.Time
	template  *template.Template
}

// NewHTMLSink creates a sink writing into outputDir.
func NewHTMLSink(outputDir, runID string) (*HTMLSink, error) {
	tmpl, err := template.New("results.html.tmpl").Funcs(templates.GetTemplateFunc()).Funcs(template.FuncMap{
		"filterStack": FilterStackTrace,
	}).ParseFS(templateFS, "templates/results.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &HTMLSink{
		outputDir: outputDir,
		runID:     runID,
		started:   time.Now(),
		template:  tmpl,
	}, nil
}

// Consume is a no-op: the report is rendered from the complete results
func (s *HTMLSink) Consume(string, types.TestResults) error {
	return nil
}

// Complete renders and writes the report.
func (s *HTMLSink) Complete(final types.FinalResults, byFile types.TestResultsByFile) error {
	out, err := s.Render(final, byFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.outputDir, err)
	}
	htmlFile := filepath.Join(s.outputDir, HTMLReportFilename)
	if err := os.WriteFile(htmlFile, out, 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}

// Render executes the template. Files are listed failing first, then by path;
// files that reported no tests are included with an empty test list.
func (s *HTMLSink) Render(final types.FinalResults, byFile types.TestResultsByFile) ([]byte, error) {
	report := htmlReport{
		RunID:    s.runID,
		Passing:  !ShouldExitWithError(final),
		Duration: time.Since(s.started),
		Final:    final,
		Table:    template.HTML(summaryTableHTML(final)),
	}
	for file, tests := range byFile {
		report.Files = append(report.Files, htmlFile{Path: file, Passing: allPassing(tests), Tests: tests})
	}
	for _, file := range final.FilesWithNoTests {
		if _, ok := byFile[file]; !ok {
			report.Files = append(report.Files, htmlFile{Path: file})
		}
	}
	sort.Slice(report.Files, func(i, j int) bool {
		a, b := report.Files[i], report.Files[j]
		if a.Passing != b.Passing {
			return !a.Passing
		}
		return a.Path < b.Path
	})

	var buf bytes.Buffer
	if err := s.template.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

func allPassing(tests []types.TestResults) bool {
	if len(tests) == 0 {
		return false
	}
	for _, t := range tests {
		if !t.IsPassing() {
			return false
		}
	}
	return true
}
