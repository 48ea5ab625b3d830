// Package cmd contains the brewbuddy CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brewbuddy",
	Short: "BrewBuddy - coffee shop knowledge base with similarity search",
	Long: `BrewBuddy stores a coffee shop knowledge corpus as embeddings in
PostgreSQL and serves similarity search over it via an HTTP API.

The embedding column adapts to the target database: pgvector where the
extension is available, a float array otherwise, plain text as a last
resort. Run "brewbuddy serve" to bootstrap the corpus and start serving.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
