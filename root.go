package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/bkmsync/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd.
var (
	flagConfigPath string
	flagProfile    string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// skipConfigAnnotation marks commands that handle config loading themselves
// (or don't need it at all).
const skipConfigAnnotation = "skipConfig"

// CLIContext bundles the resolved profile, raw config, and logger. Created
// once in PersistentPreRunE so RunE handlers never repeat config resolution.
type CLIContext struct {
	Profile    *config.ResolvedProfile
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Quiet      bool
	JSON       bool
}

type cliContextKey struct{}

// cliContextFrom extracts the CLIContext from the command's context. Returns
// nil if no config was loaded (commands annotated with skipConfigAnnotation).
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// mustCLIContext extracts the CLIContext or panics with an actionable
// message. Use in RunE handlers that are not annotated with
// skipConfigAnnotation, where PersistentPreRunE guarantees it is present.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — command must not carry skipConfigAnnotation")
	}

	return cc
}

// newRootCmd builds and returns the fully assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bkmsync",
		Short:   "Bookmark tree sync client",
		Long:    "A three-way merge sync client for a local bookmark file and a remote bookmark server.",
		Version: version,
		// Silence Cobra's default error/usage printing — handled in main().
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}

			return loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "profile to use")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the
// defaults -> file -> env -> CLI override chain and stores the result in
// the command's context for use by subcommands.
func loadConfig(cmd *cobra.Command) error {
	logger := buildLogger("")

	cli := config.CLIOverrides{ConfigPath: flagConfigPath, Profile: flagProfile}
	env := config.ReadEnvOverrides()

	logger.Debug("resolving config",
		slog.String("config_path", cli.ConfigPath),
		slog.String("cli_profile", cli.Profile),
		slog.String("env_config", env.ConfigPath),
		slog.String("env_profile", env.Profile),
	)

	resolved, cfg, err := config.ResolveProfileConfig(env, cli, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Debug("config resolved",
		slog.String("profile", resolved.Name),
		slog.String("local_path", resolved.LocalPath),
		slog.String("server_url", resolved.ServerURL),
	)

	finalLogger := buildLogger(resolved.Logging.LogLevel)
	cc := &CLIContext{
		Profile:    resolved,
		Config:     cfg,
		ConfigPath: config.ResolveConfigPath(env, cli, logger),
		Logger:     finalLogger,
		Quiet:      flagQuiet,
		JSON:       flagJSON,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// buildLogger creates an slog.Logger from the config-file log level and CLI
// flag overrides. Pass "" for pre-config bootstrap. CLI flags always win
// over the config file and are mutually exclusive (enforced by Cobra).
func buildLogger(configLevel string) *slog.Logger {
	level := slog.LevelWarn

	switch configLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
