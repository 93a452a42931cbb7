// Package commands implements the sipua command line.
package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ghettovoice/sipua/config"
	"github.com/ghettovoice/sipua/internal/log"
)

type rootFlags struct {
	configPath string
	logFormat  string
	logLevel   string
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "sipua",
		Short:         "SIP registration and MWI subscription agent tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			lvl, err := log.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			logger, err := log.New(cmd.ErrOrStderr(), flags.logFormat, lvl)
			if err != nil {
				return err
			}
			log.SetDefault(logger)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "sipua.toml", "agent config file")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", log.FormatNone, "log format: console, dev, json, text or none")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "minimal log level")

	root.AddCommand(
		validateCmd(&flags),
		digestCmd(&flags),
		locateCmd(),
		mwiCmd(),
	)
	return root
}

func loadConfig(ctx context.Context, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	log.Default().LogAttrs(ctx, slog.LevelDebug, "config loaded",
		slog.String("path", flags.configPath),
		slog.Any("target", cfg.Target),
	)
	return cfg, nil
}
