// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/z5labs/minecraft"
	"github.com/z5labs/minecraft/config"
	"github.com/z5labs/minecraft/internal/cli"
	"github.com/z5labs/minecraft/logging"
	"github.com/z5labs/minecraft/modpack"
	"github.com/z5labs/minecraft/modrinth"
	"github.com/z5labs/minecraft/otelappender"
	"github.com/z5labs/minecraft/telemetry"

	"github.com/spf13/cobra"
)

type flags struct {
	serverOnly       bool
	minecraftVersion string
	output           string
	manifest         string
	lockfile         string
	noDownload       bool
	strict           bool
	apiURL           string
	concurrency      int
}

func newCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "modrinth",
		Short: "Download the mods and datapacks listed in a Modrinth manifest",
		Long: `Download the mods and datapacks listed in a Modrinth manifest.

The manifest lists projects per loader. Required dependencies are resolved
transitively and the exact artifacts are recorded in a lockfile, which is
honoured by later runs for as long as it matches the manifest.

Environment:
  MINECRAFT_VERSION  default for --minecraft-version
  MODRINTH_PAT       Modrinth personal access token
  LOG_FORMAT         text or json
  LOG_LEVEL          e.g. debug
  OTEL_EXPORTER      otlp-grpc, otlp-http, stdout or none

Examples:
  # Resolve and download into ./datapack and ./fabric
  modrinth --server-only

  # Only update the lockfile
  modrinth --no-download --lockfile ./Modrinth.lock
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, f)
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&f.serverOnly, "server-only", "s", false, "Fail for projects which do not support server-side installs")
	fs.StringVarP(&f.minecraftVersion, "minecraft-version", "m", "", "Minecraft version (default from MINECRAFT_VERSION, else 1.21.1)")
	fs.StringVarP(&f.output, "output", "o", "", "Destination for downloaded artifacts (default is the current working directory)")
	fs.StringVar(&f.manifest, "manifest", "", "Path to the manifest (default ./Modrinth.toml)")
	fs.StringVar(&f.lockfile, "lockfile", "", "Path to the lockfile (default ./Modrinth.lock)")
	fs.BoolVar(&f.noDownload, "no-download", false, "Only update the lockfile, don't download the artifacts")
	fs.BoolVar(&f.strict, "strict", false, "Fail if no compatible version is found")
	fs.StringVar(&f.apiURL, "api-url", modrinth.ProdBaseURL, "Modrinth API base URL")
	fs.IntVar(&f.concurrency, "concurrency", 4, "Maximum number of parallel downloads")

	return cmd
}

// paths resolves unset path flags against dir.
func (f flags) paths(dir string) (output, manifest, lockfile string) {
	output = f.output
	if output == "" {
		output = dir
	}
	manifest = f.manifest
	if manifest == "" {
		manifest = filepath.Join(dir, "Modrinth.toml")
	}
	lockfile = f.lockfile
	if lockfile == "" {
		lockfile = filepath.Join(dir, "Modrinth.lock")
	}
	return output, manifest, lockfile
}

func run(ctx context.Context, cmd *cobra.Command, f flags) error {
	sub, err := cli.LoggingFromEnv(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log := slog.New(logging.NewMaskHandler(sub, logging.Mask("modrinth_token")))

	runtimeB := minecraft.BuilderFunc[minecraft.Runtime](func(ctx context.Context) (minecraft.Runtime, error) {
		return buildRuntime(ctx, log, sub, f)
	})

	err = cli.Run(ctx, telemetry.BuildFromEnv("modrinth", config.ReaderOf(cli.Version()), cli.TelemetryLogger(sub), runtimeB))
	if err != nil {
		log.ErrorContext(ctx, "failed to process the manifest", slog.Any("error", err))
	}
	return err
}

func buildRuntime(ctx context.Context, log *slog.Logger, sub *logging.Subsystem, f flags) (minecraft.Runtime, error) {
	minecraftVersion, err := config.Read(ctx, config.Or(
		nonEmpty(f.minecraftVersion),
		config.Env("MINECRAFT_VERSION"),
		config.ReaderOf("1.21.1"),
	))
	if err != nil {
		return nil, err
	}
	token := config.MustOr(ctx, "", config.Env("MODRINTH_PAT"))

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	output, manifestPath, lockfilePath := f.paths(cwd)

	client, err := modrinth.New(
		modrinth.BaseURL(f.apiURL),
		modrinth.Token(token),
		modrinth.UserAgent(modrinth.DefaultUserAgent(cli.Version())),
		modrinth.Logger(log),
	)
	if err != nil {
		return nil, err
	}

	attacher := otelappender.NewSlogAttacher(sub, otelappender.Logger(log))

	rt := minecraft.RuntimeFunc(func(ctx context.Context) error {
		err := attacher.Attach(ctx)
		if err != nil {
			log.WarnContext(ctx, "continuing without the OpenTelemetry appender", slog.Any("error", err))
		}

		log.DebugContext(
			ctx,
			"processing manifest",
			slog.String("manifest", manifestPath),
			slog.String("lockfile", lockfilePath),
			slog.String("output", output),
			slog.String("minecraft_version", minecraftVersion),
			slog.String("modrinth_token", token),
		)

		manifest, err := modpack.LoadManifest(ctx, manifestPath)
		if err != nil {
			return err
		}
		if manifest.IsEmpty() {
			log.WarnContext(ctx, "the manifest does not list any projects", slog.String("manifest", manifestPath))
		}

		lockfile, err := modpack.LoadLockfile(ctx, log, manifest, lockfilePath)
		if err != nil {
			return err
		}

		resolver := modpack.NewResolver(
			client,
			manifest,
			modpack.MinecraftVersion(minecraftVersion),
			modpack.ServerOnly(f.serverOnly),
			modpack.Strict(f.strict),
			modpack.NoDownload(f.noDownload),
			modpack.Concurrency(f.concurrency),
			modpack.WithLockfile(lockfile),
			modpack.Logger(log),
		)

		lock, err := resolver.Process(ctx, output)
		if err != nil {
			return err
		}

		err = modpack.SaveLockfile(lock, lockfilePath)
		if err != nil {
			log.WarnContext(ctx, "cannot write to lockfile", slog.String("lockfile", lockfilePath), slog.Any("error", err))
		}
		return nil
	})
	return rt, nil
}

func nonEmpty(s string) config.Reader[string] {
	if s == "" {
		return config.EmptyReader[string]()
	}
	return config.ReaderOf(s)
}
