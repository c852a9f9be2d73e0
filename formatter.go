package kizu

import (
	"bytes"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/kizu/reporting"
	"github.com/ethereum-optimism/infra/kizu/types"
)

// ResultFormatter is responsible for displaying the results of a run.
type ResultFormatter interface {
	FormatResults(byFile types.TestResultsByFile, final types.FinalResults) error
}

// SummarySink receives the plain rendering of a run's output.
type SummarySink interface {
	LogSummary(summary string) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger       log.Logger
	out          io.Writer
	failOnly     bool
	color        bool
	summaryTable bool
	sink         SummarySink
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter. When sink
// is set, a copy of everything printed is handed to it.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer, cfg *Config, sink SummarySink) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger:       logger,
		out:          out,
		failOnly:     cfg.FailOnly,
		color:        cfg.Color,
		summaryTable: cfg.SummaryTable,
		sink:         sink,
	}
}

// FormatResults prints the per-file results, the summary and, if enabled,
// the summary table.
func (f *ConsoleResultFormatter) FormatResults(byFile types.TestResultsByFile, final types.FinalResults) error {
	f.logger.Debug("Printing results...", "files", len(byFile))

	var copied bytes.Buffer
	out := f.out
	if f.sink != nil {
		out = io.MultiWriter(f.out, &copied)
	}

	console := reporting.NewConsoleFormatter(out, f.failOnly, f.color)
	console.Print(byFile, final)
	if f.summaryTable {
		console.PrintTable(final)
	}

	if f.sink != nil {
		return f.sink.LogSummary(copied.String())
	}
	return nil
}
