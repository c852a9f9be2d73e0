package kizu

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/kizu/flags"
)

// Config holds the application configuration
type Config struct {
	Globs            []string           // Patterns matching the spec files to run
	FailOnly         bool               // Only print failing files, tests and assertions
	Concurrency      int                // Maximum number of live workers (0 = number of CPUs)
	GoBinary         string             // Go binary used to run .go spec files
	LaunchConfig     string             // Optional YAML file of launch commands per extension
	LogDir           string             // Directory to store run logs. Empty disables file logs.
	ShowProgress     bool               // Whether to log progress while the run is in progress
	ProgressInterval time.Duration      // Interval between progress updates
	Color            bool               // Colorize the results output
	SummaryTable     bool               // Print a table of counts after the summary
	MetricsConfig    opmetrics.CLIConfig // Prometheus endpoint settings
	Out              io.Writer          // Where results are printed. Nil means stdout.
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, globs []string) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	metricsCfg := opmetrics.ReadCLIConfig(ctx)
	if err := metricsCfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	cfg := &Config{
		Globs:            globs,
		FailOnly:         ctx.Bool(flags.FailOnly.Name),
		Concurrency:      ctx.Int(flags.Concurrency.Name),
		GoBinary:         ctx.String(flags.GoBinary.Name),
		LaunchConfig:     ctx.String(flags.LaunchConfig.Name),
		LogDir:           ctx.String(flags.LogDir.Name),
		ShowProgress:     ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		Color:            !ctx.Bool(flags.NoColor.Name),
		SummaryTable:     ctx.Bool(flags.SummaryTable.Name),
		MetricsConfig:    metricsCfg,
		Log:              log,
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Check validates the configuration and resolves its paths.
func (c *Config) Check() error {
	if len(c.Globs) == 0 {
		return errors.New("a glob pattern matching the spec files is required")
	}
	for _, g := range c.Globs {
		if g == "" {
			return errors.New("glob pattern cannot be empty")
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if c.Log == nil {
		return errors.New("logger is required")
	}

	if c.LaunchConfig != "" {
		abs, err := filepath.Abs(c.LaunchConfig)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for launch config '%s': %w", c.LaunchConfig, err)
		}
		c.LaunchConfig = abs
	}
	if c.LogDir != "" {
		abs, err := filepath.Abs(c.LogDir)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", c.LogDir, err)
		}
		c.LogDir = abs
	}
	return nil
}
