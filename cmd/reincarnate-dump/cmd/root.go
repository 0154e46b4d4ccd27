package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reincarnate-dump",
	Short: "Run the Reincarnate middle end over an in-process sample module",
	Long: `reincarnate-dump builds a small sample ir.Module in-process and
drives it through the transform pipeline, structurizer, and AST
lowering, printing the result at each stage.

It has no frontend of its own: engine-specific binary parsing and
source-language lowering are external collaborators, out of this
module's scope.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
