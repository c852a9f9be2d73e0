package runner

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/kizu/types"
)

// ProgressIndicator observes the pool. Calls are made from the pool's
// scheduling goroutine, one at a time.
type ProgressIndicator interface {
	StartRun(totalFiles, concurrency int)
	WorkerStarted(file string, live int)
	ResultReceived(file string, results types.TestResults)
	WorkerClosed(file string, live int)
	CompleteRun()
}

// noOpProgressIndicator provides a no-op implementation of ProgressIndicator
type noOpProgressIndicator struct{}

// NewNoOpProgressIndicator creates a progress indicator that does nothing
func NewNoOpProgressIndicator() ProgressIndicator {
	return &noOpProgressIndicator{}
}

func (n *noOpProgressIndicator) StartRun(totalFiles, concurrency int)                  {}
func (n *noOpProgressIndicator) WorkerStarted(file string, live int)                   {}
func (n *noOpProgressIndicator) ResultReceived(file string, results types.TestResults) {}
func (n *noOpProgressIndicator) WorkerClosed(file string, live int)                    {}
func (n *noOpProgressIndicator) CompleteRun()                                          {}

// consoleProgressIndicator logs how many tests have completed at a fixed
// interval while the run is in progress.
type consoleProgressIndicator struct {
	logger   log.Logger
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex

	totalFiles     int
	closedFiles    int
	completedTests int
	failedTests    int
	startTime      time.Time

	// file -> worker start time
	runningFiles map[string]time.Time
}

// NewConsoleProgressIndicator creates a progress indicator that shows updates in the console
func NewConsoleProgressIndicator(logger log.Logger, updateInterval time.Duration) ProgressIndicator {
	if updateInterval == 0 {
		updateInterval = 5 * time.Second
	}
	return &consoleProgressIndicator{
		logger:       logger,
		interval:     updateInterval,
		stopCh:       make(chan struct{}),
		runningFiles: make(map[string]time.Time),
	}
}

func (c *consoleProgressIndicator) StartRun(totalFiles, concurrency int) {
	c.mu.Lock()
	c.totalFiles = totalFiles
	c.startTime = time.Now()
	c.ticker = time.NewTicker(c.interval)
	c.mu.Unlock()

	c.logger.Info("Running tests...", "files", totalFiles, "concurrency", concurrency)
	go c.progressReporter(c.ticker)
}

func (c *consoleProgressIndicator) WorkerStarted(file string, live int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runningFiles[file] = time.Now()
	c.logger.Debug("Worker started", "file", file, "live", live)
}

func (c *consoleProgressIndicator) ResultReceived(file string, results types.TestResults) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.completedTests++
	if !results.IsPassing() {
		c.failedTests++
	}
	c.logger.Debug("Test completed", "file", file, "test", results.Description, "passed", results.IsPassing(), "completed", c.completedTests)
}

func (c *consoleProgressIndicator) WorkerClosed(file string, live int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	started, ok := c.runningFiles[file]
	delete(c.runningFiles, file)
	c.closedFiles++
	if ok {
		c.logger.Debug("Worker closed", "file", file, "live", live, "duration", time.Since(started).Truncate(time.Millisecond))
	}
}

func (c *consoleProgressIndicator) CompleteRun() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		c.ticker.Stop()
	}
	c.logger.Info(fmt.Sprintf("%d tests completed.", c.completedTests),
		"files", c.closedFiles, "failed", c.failedTests, "duration", time.Since(c.startTime).Truncate(time.Millisecond))
}

// progressReporter runs in a goroutine and periodically reports progress
func (c *consoleProgressIndicator) progressReporter(ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			c.reportProgress()
		case <-c.stopCh:
			return
		}
	}
}

func (c *consoleProgressIndicator) reportProgress() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.logger.Info(fmt.Sprintf("%d tests completed.", c.completedTests),
		"files", fmt.Sprintf("%d/%d", c.closedFiles, c.totalFiles),
		"numRunning", len(c.runningFiles),
		"longestRunning", formatRunningFiles(c.runningFiles, 3),
	)
}

// formatRunningFiles lists the longest running workers first.
func formatRunningFiles(runningFiles map[string]time.Time, maxShow int) string {
	if len(runningFiles) == 0 {
		return ""
	}

	type runningFile struct {
		name     string
		duration time.Duration
	}

	var running []runningFile
	now := time.Now()
	for name, startTime := range runningFiles {
		running = append(running, runningFile{
			name:     name,
			duration: now.Sub(startTime),
		})
	}

	sort.Slice(running, func(i, j int) bool {
		if running[i].duration == running[j].duration {
			return running[i].name < running[j].name
		}
		return running[i].duration > running[j].duration
	})

	var runningStrs []string
	for i, f := range running {
		if i >= maxShow {
			break
		}
		runningStrs = append(runningStrs, fmt.Sprintf("%s (%v)", f.name, f.duration.Truncate(time.Second)))
	}

	if len(running) > maxShow {
		runningStrs = append(runningStrs, fmt.Sprintf("+%d more", len(running)-maxShow))
	}

	return strings.Join(runningStrs, ", ")
}
