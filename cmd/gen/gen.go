package gen

import (
	"github.com/spf13/cobra"
)

// RootCmd groups generators for files derived from the command tree.
var RootCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate documentation for parley",
	Long:  `Generate documentation, such as man pages, from the parley command tree`,
}

func init() {
	RootCmd.AddCommand(ManPagesCmd)
}
