// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/internal/cli"
	"github.com/z5labs/minecraft/lifecycle"
	"github.com/z5labs/minecraft/otelappender"
	"github.com/z5labs/minecraft/server"
	"github.com/z5labs/minecraft/telemetry"

	"github.com/spf13/cobra"
)

// launcherConfig is the optional YAML file given with --config.
type launcherConfig struct {
	Stage       lifecycle.Stage `config:"stage"`
	GracePeriod time.Duration   `config:"gracePeriod"`
	Dir         string          `config:"dir"`
	Env         []string        `config:"env"`
}

var defaultConfig = launcherConfig{
	Stage:       lifecycle.PreLaunch,
	GracePeriod: 30 * time.Second,
}

type flags struct {
	configPath  string
	stage       string
	gracePeriod time.Duration
	dir         string
}

func newCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "mcserver [flags] -- command [args...]",
		Short: "Launch a Minecraft server with OpenTelemetry logging",
		Long: `Launch a Minecraft server with OpenTelemetry logging.

The server output is parsed and written to the host logging subsystem. Once
the configured lifecycle stage fires, the OpenTelemetry appender is installed
so every later record is exported as well.

Environment:
  MCOTEL_ATTACH_STAGE          pre-launch, mod-init or server-start
  OTEL_EXPORTER                otlp-grpc, otlp-http, stdout or none
  OTEL_EXPORTER_OTLP_ENDPOINT  collector endpoint
  LOG_FORMAT                   text or json
  LOG_LEVEL                    e.g. debug

Examples:
  mcserver -- java -Xmx4G -jar server.jar nogui
  mcserver --config launcher.yaml --stage server-start -- java -jar fabric-server-launch.jar nogui
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, f, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML launcher config, rendered as a text/template first")
	fs.StringVar(&f.stage, "stage", "", "Lifecycle stage to attach the OpenTelemetry appender at (default pre-launch)")
	fs.DurationVar(&f.gracePeriod, "grace-period", 0, "How long the server may take to stop before it is killed (default 30s)")
	fs.StringVar(&f.dir, "dir", "", "Working directory of the server")

	return cmd
}

// resolveConfig merges flags over MCOTEL_ATTACH_STAGE over the config file over the defaults.
func resolveConfig(ctx context.Context, f flags) (launcherConfig, error) {
	cfg := defaultConfig
	if f.configPath != "" {
		var err error
		cfg, err = config.Read(ctx, config.Yaml[launcherConfig](config.TextTemplate(config.ReadFile(f.configPath))))
		if err != nil {
			return launcherConfig{}, err
		}
		if cfg.GracePeriod == 0 {
			cfg.GracePeriod = defaultConfig.GracePeriod
		}
	}

	stageName := config.Or(
		nonEmpty(f.stage),
		config.Env("MCOTEL_ATTACH_STAGE"),
	)
	stage, err := config.Read(ctx, config.Default(cfg.Stage, config.Map(stageName, func(_ context.Context, s string) (lifecycle.Stage, error) {
		return lifecycle.ParseStage(s)
	})))
	if err != nil {
		return launcherConfig{}, err
	}
	if stage == lifecycle.PostRun {
		return launcherConfig{}, lifecycle.UnknownStageError{Name: stage.String()}
	}
	cfg.Stage = stage

	if f.gracePeriod > 0 {
		cfg.GracePeriod = f.gracePeriod
	}
	if f.dir != "" {
		cfg.Dir = f.dir
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, f flags, args []string) error {
	sub, err := cli.LoggingFromEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log := sub.Logger()

	cfg, err := resolveConfig(ctx, f)
	if err != nil {
		log.ErrorContext(ctx, "invalid launcher configuration", slog.Any("error", err))
		return err
	}

	runtimeB := minecraft.BuilderFunc[*server.Runtime](func(ctx context.Context) (*server.Runtime, error) {
		lc := lifecycle.NewLifecycle()

		attacher := otelappender.NewSlogAttacher(sub, otelappender.Logger(log))
		err := lc.On(cfg.Stage, warnOnError(log, attacher.Hook()))
		if err != nil {
			return nil, err
		}

		rt := server.NewRuntime(
			server.Command{
				Path: args[0],
				Args: args[1:],
				Dir:  cfg.Dir,
				Env:  cfg.Env,
			},
			server.Lifecycle(lc),
			server.Logger(log.With(slog.String("server", "minecraft"))),
			server.GracePeriod(cfg.GracePeriod),
			server.Stdin(os.Stdin),
		)
		return rt, nil
	})

	log.DebugContext(ctx, "launching the server", slog.String("attach_stage", cfg.Stage.String()))
	err = cli.Run(ctx, telemetry.BuildFromEnv("minecraft-server", config.ReaderOf(cli.Version()), cli.TelemetryLogger(sub), runtimeB))
	if err != nil {
		log.ErrorContext(ctx, "the server failed", slog.Any("error", err))
	}
	return err
}

// warnOnError keeps a failing hook from preventing the server from starting.
func warnOnError(log *slog.Logger, hook lifecycle.Hook) lifecycle.Hook {
	return lifecycle.HookFunc(func(ctx context.Context) error {
		err := hook.Run(ctx)
		if err != nil {
			log.WarnContext(ctx, "failed to attach the OpenTelemetry appender", slog.Any("error", err))
		}
		return nil
	})
}

func nonEmpty(s string) config.Reader[string] {
	if s == "" {
		return config.EmptyReader[string]()
	}
	return config.ReaderOf(s)
}
