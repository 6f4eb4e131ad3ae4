package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var addrFlag string
	var configFlag string

	ctx := newCommandContext(&addrFlag, &configFlag)

	rootCmd := &cobra.Command{
		Use:           "serfdom",
		Short:         "Serfdom task delegation CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Daemon API address (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newTaskCommand(ctx))
	rootCmd.AddCommand(newTasksCommand(ctx))
	rootCmd.AddCommand(newQueueCommand(ctx))
	rootCmd.AddCommand(newMetricsCommand(ctx))
	rootCmd.AddCommand(newDelegateCommand(ctx))
	rootCmd.AddCommand(newDelegationsCommand(ctx))
	rootCmd.AddCommand(newStrategizeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
