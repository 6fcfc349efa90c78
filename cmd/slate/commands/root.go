// Package commands holds the slate CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var configFile string

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slate",
		Short: "Slate - recommendation approval pipeline",
		Long: `Slate routes generated business action recommendations through a
single-slot human approval step and queues approved actions for execution.`,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(
		NewServeCmd(),
		NewVersionCmd(),
	)
	return cmd
}
