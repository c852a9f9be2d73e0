package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/kizu"
	"github.com/ethereum-optimism/infra/kizu/flags"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "kizu"
	app.Usage = "Run spec files in parallel worker processes"
	app.ArgsUsage = "<glob> [<glob>...]"
	app.Description = "kizu runs every spec file matching the given globs in its own process, " +
		"at most one per CPU at a time, and prints a summary of the tests and assertions they report."
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Runtime errors exit with 2, failing runs and unknown errors with 1.
			cli.HandleExitCoder(cli.Exit(err.Error(), kizu.ExitCode(err)))
		}
	}

	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := kizu.NewConfig(ctx, log, ctx.Args().Slice())
	if err != nil {
		return nil, kizu.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Out = ctx.App.Writer

	cfg.Log.Debug("Config", "config", cfg)

	runner, err := kizu.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, kizu.NewRuntimeError(fmt.Errorf("failed to create kizu: %w", err))
	}
	return runner, nil
}
