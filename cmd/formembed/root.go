package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/internal/logging"
)

var version = "dev"

type globalFlags struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "formembed",
		Short:         "Serve and embed hosted forms",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (json, console)")

	root.AddCommand(
		newServeCmd(flags),
		newImportCmd(flags),
		newValidateCmd(),
		newFillCmd(flags),
		newMountCmd(flags),
		newRenderCmd(flags),
	)
	return root
}

// logger builds a logger for client-side commands, which stay quiet unless
// asked otherwise.
func (f *globalFlags) logger(cmd *cobra.Command) (*zap.Logger, error) {
	level := f.logLevel
	if level == "" {
		level = "warn"
	}
	logger, _, err := logging.New(logging.Options{Level: level, Format: f.logFormat, Output: cmd.ErrOrStderr()})
	return logger, err
}
