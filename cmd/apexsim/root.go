package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel   string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "apexsim",
		Short:         "Cycle-accurate APEX out-of-order core simulator",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logrus.ParseLevel(opts.logLevel); err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to a YAML machine configuration file")

	rootCmd.AddCommand(newRunCmd(opts), newTraceCmd(opts), newBenchCmd(opts))
	return rootCmd
}

// newLogger builds the simulator logger. The level was validated by the
// root command.
func (o *rootOptions) newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}
