// Command skillhub serves the skills catalog and administers its store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/skillhub/internal/adapters/kv"
	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/config"
	"github.com/okian/skillhub/pkg/logger"
)

type rootFlags struct {
	configFile string
	logLevel   string
	skillsDir  string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "skillhub",
		Short:         "Browse, rate and moderate a catalog of skills",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML config file (overrides "+config.EnvConfig+")")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.skillsDir, "skills-dir", "", "catalog directory (overrides config)")

	root.AddCommand(serveCmd(flags))
	root.AddCommand(skillsCmd(flags))
	root.AddCommand(contributionsCmd(flags))
	root.AddCommand(contributeCmd(flags))
	return root
}

// runtimeEnv is what every command needs: configuration, the optional store
// and a service over both.
type runtimeEnv struct {
	cfg   *config.Config
	store kv.Store
	svc   *service.Service
	log   logger.Logger
}

func (e *runtimeEnv) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.log.Warn(context.Background(), "close store", logger.Error(err))
		}
	}
}

// bootstrap loads configuration, initializes logging on the command's error
// stream and opens the configured store.
func bootstrap(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*runtimeEnv, error) {
	if flags.configFile != "" {
		if err := os.Setenv(config.EnvConfig, flags.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if flags.skillsDir != "" {
		cfg.SkillsDir = flags.skillsDir
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	log := logger.Named("skillhub")
	if err := logger.SetLevelString(level); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend(), err)
	}

	svc := service.New(
		service.WithLogger(logger.Named("service")),
		service.WithSkillsDir(cfg.SkillsDir),
		service.WithStore(store),
		service.WithScanCount(cfg.ScanCount),
	)
	return &runtimeEnv{cfg: cfg, store: store, svc: svc, log: log}, nil
}
