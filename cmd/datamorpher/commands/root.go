// Package commands implements the datamorpher command line.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the datamorpher command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datamorpher",
		Short: "Infer column types of delimited files",
		Long: `datamorpher classifies every column of a CSV file as Int, Float, Complex,
Date, Category or Text. Run "infer" for a one-off report or "serve" to start
the HTTP API that accepts uploads and runs inference jobs in the background.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInferCommand())
	rootCmd.AddCommand(newServeCommand())
	return rootCmd
}
