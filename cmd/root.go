package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/witarcade/internal/config"
	"github.com/okian/witarcade/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	rf := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "witarcade",
		Short:         "Guess-the-player arcade: leaderboard server, terminal client and tools.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := rf.load(cmd.Context(), cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&rf.configFile, "config", "c", "", "YAML config file (env: "+config.EnvConfigFile+")")
	pf.StringVar(&rf.envFile, "env-file", config.DefaultDotenv, "dotenv file to read before the environment")
	pf.StringVar(&rf.logLevel, "log-level", "", "log level: debug, info, warn, error (env: WITARCADE_LOG_LEVEL)")
	pf.StringVar(&rf.logFormat, "log-format", "", "log format: text, json, pretty (env: WITARCADE_LOG_FORMAT)")

	addServeFlags(cmd.Flags())

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	}
	addServeFlags(serve.Flags())

	cmd.AddCommand(serve, newTopCmd(rf), newHistoryCmd(rf), newPlayCmd(rf))
	cmd.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("witarcade v{{.Version}}\n")
	return cmd
}

// serveKeys maps serve flags to the config keys they override.
var serveKeys = map[string]string{
	"addr":         "addr",
	"store-driver": "store_driver",
	"mongo-uri":    "mongo_uri",
	"catalog-path": "catalog_path",
	"public-url":   "public_url",
}

// addServeFlags registers flags that override config keys when set.
func addServeFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "listen address (env: WITARCADE_ADDR)")
	fs.String("store-driver", "", "leaderboard store: mongo or memory (env: WITARCADE_STORE_DRIVER)")
	fs.String("mongo-uri", "", "MongoDB connection string (env: WITARCADE_MONGO_URI)")
	fs.String("catalog-path", "", "player catalog file: .json, .toml or .msgpack (env: WITARCADE_CATALOG_PATH)")
	fs.String("public-url", "", "public base URL used in challenge links (env: WITARCADE_PUBLIC_URL)")
}

// load reads configuration and initializes logging from it.
func (rf *rootFlags) load(ctx context.Context, fs *pflag.FlagSet) (*config.Config, error) {
	opts := []config.LoadOption{config.WithDotenv(rf.envFile), config.WithFile(rf.configFile)}
	if rf.logLevel != "" {
		opts = append(opts, config.WithOverride("log_level", rf.logLevel))
	}
	if rf.logFormat != "" {
		opts = append(opts, config.WithOverride("log_format", rf.logFormat))
	}
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := serveKeys[f.Name]; ok {
			opts = append(opts, config.WithOverride(key, f.Value.String()))
		}
	})

	cfg, err := config.Load(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// loadLogging initializes logging from flags alone, for client commands
// that need no server configuration.
func (rf *rootFlags) loadLogging() (logger.Logger, error) {
	if err := logger.Init(logger.WithFormat(rf.logFormat)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	level := rf.logLevel
	if level == "" {
		level = "warn"
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, err
	}
	return logger.Get(), nil
}
