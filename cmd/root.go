// Package cmd implements the platewise command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "platewise",
	Short: "Platewise - conversational restaurant recommendations",
	Long: `Platewise answers natural-language restaurant questions, grounding
every recommendation in a vector index of real restaurant records.

Run "platewise serve" to start the HTTP API, or "platewise ingest" to
load restaurant records into the index.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
