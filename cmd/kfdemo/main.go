package main

import (
	"context"
	"fmt"
	"os"

	"github.com/adaptkf/go-estimate/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := NewCmd().ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// NewCmd creates the kfdemo root command
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "kfdemo [command] [flags]",
		Short:         "kfdemo filters noisy signals with Kalman filters",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			lvl, err := log.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(lvl)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "`<path>` to YAML config; built-in defaults are used if empty")
	rootCmd.PersistentFlags().String("log-level", "info", "`<level>` of logging: debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Filter a generated noisy signal and report accuracy",
		Args:  cobra.NoArgs,
		RunE:  doRun,
	}
	runCmd.Flags().StringP("kind", "k", "", "`<kind>` of filter overriding the config: kalman or adaptive")
	runCmd.Flags().String("plot", "", "`<path>` of PNG plot of the filtered signal")
	runCmd.Flags().String("csv", "", "`<path>` of CSV file with estimates and their 2-sigma bounds")
	runCmd.Flags().Bool("smooth", false, "smooth the estimates with Rauch-Tung-Striebel smoother")

	compareCmd := &cobra.Command{
		Use:   "compare [flags]",
		Short: "Run kalman and adaptive filters on the same signal and compare accuracy",
		Args:  cobra.NoArgs,
		RunE:  doCompare,
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate [flags]",
		Short: "Simulate the configured state space model and track it with the configured filter",
		Args:  cobra.NoArgs,
		RunE:  doSimulate,
	}
	simulateCmd.Flags().Int("steps", 0, "`<steps>` to simulate; signal density is used if zero")

	rootCmd.AddCommand(
		runCmd,
		compareCmd,
		simulateCmd,
	)

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	c := config.Default()
	if path != "" {
		c, err = config.Load(path)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"path": path}).Debug("config loaded")
	}

	return c, nil
}
