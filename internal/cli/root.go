package cli

import (
	"os"

	"sysmon/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the sysmon command tree
func NewRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "sysmon",
		Short:         "System monitor with an on-demand disk usage panel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		logrus.SetLevel(cfg.LogLevel())
		return cfg, nil
	}

	root.AddCommand(newServeCommand(load))
	root.AddCommand(newTokenCommand(load))
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := NewRootCommand().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
