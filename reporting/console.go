package reporting

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/kizu/types"
)

const (
	successSymbol = "✔"
	failureSymbol = "✖"
	hr            = "────────────────────────────────"
)

// ConsoleFormatter prints per-file results and the run summary.
type ConsoleFormatter struct {
	out      io.Writer
	failOnly bool
	color    bool
}

// NewConsoleFormatter creates a formatter writing to out. With failOnly set,
// passing files, tests and assertions are left out.
func NewConsoleFormatter(out io.Writer, failOnly bool, color bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		out:      out,
		failOnly: failOnly,
		color:    color,
	}
}

// Print writes every file's results followed by the summary.
func (f *ConsoleFormatter) Print(byFile types.TestResultsByFile, final types.FinalResults) {
	f.PrintResults(byFile)
	f.PrintSummary(final)
}

// PrintResults writes the results of every file, sorted by path.
func (f *ConsoleFormatter) PrintResults(byFile types.TestResultsByFile) {
	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)
	for _, file := range files {
		f.PrintFile(file, byFile[file])
	}
}

// PrintFile writes the header, tests and failure details of one file.
func (f *ConsoleFormatter) PrintFile(file string, tests []types.TestResults) {
	hasFailure := false
	for _, test := range tests {
		if !test.IsPassing() {
			hasFailure = true
			break
		}
	}
	if f.failOnly && !hasFailure {
		return
	}

	f.println(f.paint(text.Colors{text.Underline, text.FgBlue}, file), f.symbol(!hasFailure))
	f.println()
	for _, test := range tests {
		passing := test.IsPassing()
		if f.failOnly && passing {
			continue
		}
		f.println(test.Description, f.symbol(passing))
		for _, a := range test.Assertions {
			if f.failOnly && a.Pass {
				continue
			}
			f.println(f.paint(text.Colors{text.FgHiBlack}, "  "+a.Description), f.symbol(a.Pass))
			if !a.Pass {
				f.printDiagnostic(a)
			}
		}
		if test.Error != nil {
			f.printError(test.Error)
		}
		f.println()
	}
}

func (f *ConsoleFormatter) printDiagnostic(a types.Assertion) {
	if a.Diagnostic == "" && a.Stack == "" {
		return
	}
	f.printRule()
	if a.Diagnostic != "" {
		f.println(a.Diagnostic)
	}
	if a.Stack != "" {
		f.println(f.paint(text.Colors{text.FgHiBlack}, FilterStackTrace(a.Stack)))
	}
	f.printRule()
}

func (f *ConsoleFormatter) printError(err *types.SerializedError) {
	f.printRule()
	f.println(f.paint(text.Colors{text.FgRed}, fmt.Sprintf("%s: %s", err.Name, err.Message)))
	if len(err.Fields) > 0 {
		keys := make([]string, 0, len(err.Fields))
		for k := range err.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f.println(fmt.Sprintf("  %s: %v", k, err.Fields[k]))
		}
	}
	if err.Stack != "" {
		f.println(f.paint(text.Colors{text.FgHiBlack}, FilterStackTrace(err.Stack)))
	}
	f.printRule()
}

// PrintSummary writes the empty-file error, if any, and the pass counts.
func (f *ConsoleFormatter) PrintSummary(final types.FinalResults) {
	if len(final.FilesWithNoTests) > 0 {
		f.println(f.paint(text.Colors{text.Bold, text.FgRed}, NoTestsMessage(final.FilesWithNoTests)))
		f.println()
	}

	assertionsOK := final.NumAssertions > 0 && final.NumSuccessfulAssertions == final.NumAssertions
	f.println(f.paint(summaryColors(assertionsOK),
		fmt.Sprintf("%s %d/%d assertions passed", symbolText(assertionsOK), final.NumSuccessfulAssertions, final.NumAssertions)))

	testsOK := final.NumTests > 0 && final.NumSuccessfulTests == final.NumTests
	f.println(f.paint(summaryColors(testsOK),
		fmt.Sprintf("%s %d/%d tests passed", symbolText(testsOK), final.NumSuccessfulTests, final.NumTests)))
}

// PrintTable renders the summary as a table.
func (f *ConsoleFormatter) PrintTable(final types.FinalResults) {
	f.println(SummaryTable(final, f.color))
}

// NoTestsMessage explains which spec files did not report any test.
func NoTestsMessage(files []string) string {
	return fmt.Sprintf("Error: %d spec file(s) have no tests. This could indicate a compilation error, "+
		"or an early runtime error. All spec files must have at least one test. "+
		"The following spec files do not have any attempted or completed tests:\n\n%s",
		len(files), strings.Join(files, ", "))
}

// SummaryTable renders the counts of a run.
func SummaryTable(final types.FinalResults, color bool) string {
	t := summaryTableWriter(final)
	switch {
	case !color:
		t.SetStyle(table.StyleLight)
	case ShouldExitWithError(final):
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	return t.Render()
}

func summaryTableHTML(final types.FinalResults) string {
	return summaryTableWriter(final).RenderHTML()
}

func summaryTableWriter(final types.FinalResults) table.Writer {
	t := table.NewWriter()
	t.SetTitle("kizu results")
	t.AppendHeader(table.Row{"", "Total", "Passed", "Failed"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.AppendRow(table.Row{"Files", final.NumFiles + len(final.FilesWithNoTests), final.NumFiles, len(final.FilesWithNoTests)})
	t.AppendRow(table.Row{"Tests", final.NumTests, final.NumSuccessfulTests, final.NumTests - final.NumSuccessfulTests})
	t.AppendRow(table.Row{"Assertions", final.NumAssertions, final.NumSuccessfulAssertions, final.NumAssertions - final.NumSuccessfulAssertions})
	return t
}

func (f *ConsoleFormatter) symbol(pass bool) string {
	if pass {
		return f.paint(text.Colors{text.FgGreen}, successSymbol)
	}
	return f.paint(text.Colors{text.FgRed}, failureSymbol)
}

func symbolText(pass bool) string {
	if pass {
		return successSymbol
	}
	return failureSymbol
}

func summaryColors(pass bool) text.Colors {
	if pass {
		return text.Colors{text.Bold, text.FgGreen}
	}
	return text.Colors{text.Bold, text.FgRed}
}

func (f *ConsoleFormatter) printRule() {
	f.println(f.paint(text.Colors{text.FgHiBlack}, "\n"+hr+"\n"))
}

func (f *ConsoleFormatter) paint(colors text.Colors, s string) string {
	if !f.color {
		return s
	}
	return colors.Sprint(s)
}

func (f *ConsoleFormatter) println(a ...any) {
	_, _ = fmt.Fprintln(f.out, a...)
}
