package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rosterkit",
	Short: "Constraint-programming staff scheduler",
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
