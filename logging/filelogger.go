package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/kizu/types"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	SummaryFilename    = "summary.log"
	AllLogsFilename    = "all.log"
	RecordsFilename    = "records.jsonl"
	ResultsFilename    = "results.json"
	WorkersDirname     = "workers"
)

// ResultSink is an interface for different ways of consuming test results
type ResultSink interface {
	// Consume processes a single record reported by the worker for file
	Consume(file string, results types.TestResults) error
	// Complete is called when all results have been consumed
	Complete(final types.FinalResults, byFile types.TestResultsByFile) error
}

// FileLogger writes everything a run produced into a per-run directory
type FileLogger struct {
	baseDir      string                // Base directory for logs
	logDir       string                // Directory of this run
	runID        string                // Current run ID
	mu           sync.Mutex            // Protects asyncWriters
	sinks        []ResultSink          // Collection of result consumers
	asyncWriters map[string]*AsyncFile // Map of async file writers
}

// AsyncFile provides non-blocking file writing capabilities
type AsyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewAsyncFile creates a new AsyncFile for non-blocking writes
func NewAsyncFile(path string) (*AsyncFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &AsyncFile{
		file:  file,
		queue: make(chan []byte, 100), // Buffer channel to reduce blocking
	}

	af.wg.Add(1)
	go af.processQueue()

	return af, nil
}

// Write queues data to be written asynchronously
func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.stopped {
		return fmt.Errorf("async file is closed")
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	af.queue <- dataCopy
	return nil
}

func (af *AsyncFile) processQueue() {
	defer af.wg.Done()

	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
		}
	}
}

// Close stops the async writer and closes the file
func (af *AsyncFile) Close() error {
	af.mu.Lock()
	if !af.stopped {
		af.stopped = true
		close(af.queue)
	}
	af.mu.Unlock()

	af.wg.Wait()
	return af.file.Close()
}

// NewFileLogger creates the run directory baseDir/testrun-<runID> and the
// default sinks.
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	for _, dir := range []string{baseDir, logDir, filepath.Join(logDir, WorkersDirname)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger := &FileLogger{
		baseDir:      baseDir,
		logDir:       logDir,
		runID:        runID,
		asyncWriters: make(map[string]*AsyncFile),
	}
	logger.sinks = []ResultSink{
		&RawJSONSink{logger: logger},
		&AllLogsFileSink{logger: logger},
		&ResultsJSONSink{logger: logger},
	}
	return logger, nil
}

// getAsyncWriter gets or creates an AsyncFile for the given path
func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, exists := l.asyncWriters[path]; exists {
		return writer, nil
	}
	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	l.asyncWriters[path] = writer
	return writer, nil
}

func (l *FileLogger) closeAllWriters() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, writer := range l.asyncWriters {
		_ = writer.Close()
	}
	l.asyncWriters = make(map[string]*AsyncFile)
}

// AddSink registers an additional result consumer
func (l *FileLogger) AddSink(sink ResultSink) {
	l.sinks = append(l.sinks, sink)
}

// LogTestResult feeds a record to every sink
func (l *FileLogger) LogTestResult(file string, results types.TestResults) error {
	for _, sink := range l.sinks {
		if err := sink.Consume(file, results); err != nil {
			return fmt.Errorf("error in sink: %w", err)
		}
	}
	return nil
}

// LogSummary writes the printed summary, without colors, to summary.log
func (l *FileLogger) LogSummary(summary string) error {
	writer, err := l.getAsyncWriter(l.GetSummaryFile())
	if err != nil {
		return err
	}
	return writer.Write([]byte(stripansi.Strip(summary)))
}

// WorkerOutput opens the log receiving a worker's stdout and stderr.
func (l *FileLogger) WorkerOutput(file string) (io.WriteCloser, error) {
	path := filepath.Join(l.logDir, WorkersDirname, safeFilename(file)+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker log %s: %w", path, err)
	}
	return &ansiStripWriter{w: f, closer: f}, nil
}

// Complete finalizes all sinks and closes all file writers
func (l *FileLogger) Complete(final types.FinalResults, byFile types.TestResultsByFile) error {
	defer l.closeAllWriters()

	for _, sink := range l.sinks {
		if err := sink.Complete(final, byFile); err != nil {
			return fmt.Errorf("error completing sink: %w", err)
		}
	}
	return nil
}

// GetDirectory returns the directory of this run
func (l *FileLogger) GetDirectory() string {
	return l.logDir
}

// GetBaseDir returns the directory holding all runs
func (l *FileLogger) GetBaseDir() string {
	return l.baseDir
}

// GetRunID returns the current runID
func (l *FileLogger) GetRunID() string {
	return l.runID
}

func (l *FileLogger) GetSummaryFile() string {
	return filepath.Join(l.logDir, SummaryFilename)
}

func (l *FileLogger) GetAllLogsFile() string {
	return filepath.Join(l.logDir, AllLogsFilename)
}

func (l *FileLogger) GetRecordsFile() string {
	return filepath.Join(l.logDir, RecordsFilename)
}

func (l *FileLogger) GetResultsFile() string {
	return filepath.Join(l.logDir, ResultsFilename)
}

// safeFilename converts a string to a safe filename by replacing problematic characters
func safeFilename(s string) string {
	s = strings.TrimPrefix(filepath.ToSlash(s), "./")
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		"..", "",
	)
	return replacer.Replace(s)
}

// ansiStripWriter removes color codes line by line so that escape
// sequences split across writes are still recognized.
type ansiStripWriter struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	pending []byte
}

func (a *ansiStripWriter) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = append(a.pending, p...)
	idx := bytes.LastIndexByte(a.pending, '\n')
	if idx < 0 {
		return len(p), nil
	}
	complete := a.pending[:idx+1]
	if _, err := io.WriteString(a.w, stripansi.Strip(string(complete))); err != nil {
		return 0, err
	}
	a.pending = append(a.pending[:0], a.pending[idx+1:]...)
	return len(p), nil
}

func (a *ansiStripWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) > 0 {
		_, _ = io.WriteString(a.w, stripansi.Strip(string(a.pending)))
		a.pending = nil
	}
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Sink implementations

// RawJSONSink appends every record, tagged with its file, to records.jsonl
// in arrival order.
type RawJSONSink struct {
	logger *FileLogger
}

type fileRecord struct {
	File string `json:"file"`
	types.TestResults
}

func (s *RawJSONSink) Consume(file string, results types.TestResults) error {
	writer, err := s.logger.getAsyncWriter(s.logger.GetRecordsFile())
	if err != nil {
		return err
	}
	line, err := json.Marshal(fileRecord{File: file, TestResults: results})
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return writer.Write(append(line, '\n'))
}

// Complete is a no-op for RawJSONSink
func (s *RawJSONSink) Complete(types.FinalResults, types.TestResultsByFile) error {
	return nil
}

// AllLogsFileSink writes a readable entry per test to all.log
type AllLogsFileSink struct {
	logger *FileLogger
}

func (s *AllLogsFileSink) Consume(file string, results types.TestResults) error {
	writer, err := s.logger.getAsyncWriter(s.logger.GetAllLogsFile())
	if err != nil {
		return err
	}

	status := "pass"
	if !results.IsPassing() {
		status = "fail"
	}

	var content strings.Builder
	fmt.Fprintf(&content, "\n")
	fmt.Fprintf(&content, "┌─────────────────────────────────────────────────────────────────────┐\n")
	fmt.Fprintf(&content, "│ TEST: %-61s │\n", truncateString(results.Description, 61))
	fmt.Fprintf(&content, "├─────────────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&content, "│ Status:     %-55s │\n", status)
	fmt.Fprintf(&content, "│ File:       %-55s │\n", truncateString(file, 55))
	fmt.Fprintf(&content, "│ Assertions: %-55s │\n", fmt.Sprintf("%d/%d", results.NumPassedAssertions(), len(results.Assertions)))
	fmt.Fprintf(&content, "└─────────────────────────────────────────────────────────────────────┘\n\n")

	for _, a := range results.Assertions {
		if a.Pass {
			continue
		}
		fmt.Fprintf(&content, "FAILED: %s\n", a.Description)
		fmt.Fprintf(&content, "~~~~~~~\n")
		if a.Diagnostic != "" {
			fmt.Fprintf(&content, "%s\n", indentText(a.Diagnostic, "  "))
		}
		if a.Stack != "" {
			fmt.Fprintf(&content, "%s\n", indentText(a.Stack, "  "))
		}
		fmt.Fprintf(&content, "\n")
	}
	if results.Error != nil {
		fmt.Fprintf(&content, "ERROR:\n")
		fmt.Fprintf(&content, "~~~~~~\n")
		fmt.Fprintf(&content, "%s\n", results.Error.Error())
		if results.Error.Stack != "" {
			fmt.Fprintf(&content, "%s\n", indentText(results.Error.Stack, "  "))
		}
		fmt.Fprintf(&content, "\n")
	}

	return writer.Write([]byte(stripansi.Strip(content.String())))
}

// Complete is a no-op for AllLogsFileSink
func (s *AllLogsFileSink) Complete(types.FinalResults, types.TestResultsByFile) error {
	return nil
}

// RunReport is the content of results.json
type RunReport struct {
	RunID   string                  `json:"runId"`
	Summary types.FinalResults      `json:"summary"`
	Results types.TestResultsByFile `json:"results"`
}

// ResultsJSONSink writes the summary and every record to results.json once
// the run is complete.
type ResultsJSONSink struct {
	logger *FileLogger
}

// Consume is a no-op: the complete results arrive with Complete
func (s *ResultsJSONSink) Consume(string, types.TestResults) error {
	return nil
}

func (s *ResultsJSONSink) Complete(final types.FinalResults, byFile types.TestResultsByFile) error {
	if byFile == nil {
		byFile = types.TestResultsByFile{}
	}
	data, err := json.MarshalIndent(RunReport{
		RunID:   s.logger.runID,
		Summary: final,
		Results: byFile,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(s.logger.GetResultsFile(), data, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}

// indentText adds indentation to each line of text for better readability
func indentText(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// truncateString truncates a string to the specified max length
// and adds an ellipsis if needed
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
