package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	opflags "github.com/ethereum-optimism/optimism/op-service/flags"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "KIZU"

var (
	FailOnly = &cli.BoolFlag{
		Name:    "fail-only",
		Aliases: []string{"f"},
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_ONLY"),
		Usage:   "Only show failures in the output",
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Maximum number of spec files run at once (0 = number of CPUs)",
		Action: func(ctx *cli.Context, v int) error {
			return validateConcurrency(v)
		},
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   "go",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GO_BINARY"),
		Usage:   "Path to the Go binary used to run .go spec files",
	}
	LaunchConfig = &cli.StringFlag{
		Name:    "launch-config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LAUNCH_CONFIG"),
		Usage:   "Path to a YAML file mapping spec file extensions to launch commands",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store run logs and results.json. Empty disables file logs.",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_PROGRESS"),
		Usage:   "Log how many tests have completed while the run is in progress",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   5 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
		Usage:   "Interval between progress updates",
	}
	NoColor = &cli.BoolFlag{
		Name:    "no-color",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NO_COLOR"),
		Usage:   "Disable colors in the results output",
	}
	SummaryTable = &cli.BoolFlag{
		Name:    "summary-table",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUMMARY_TABLE"),
		Usage:   "Print a table of file, test and assertion counts after the summary",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	FailOnly,
	Concurrency,
	GoBinary,
	LaunchConfig,
	LogDir,
	ShowProgress,
	ProgressInterval,
	NoColor,
	SummaryTable,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func validateConcurrency(v int) error {
	if v < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", v)
	}
	return nil
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return opflags.CheckRequiredXor(ctx)
}
