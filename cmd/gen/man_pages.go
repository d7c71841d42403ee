package gen

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/luma/parley/internal/meta"
)

var (
	manDir string
)

var ManPagesCmd = &cobra.Command{
	Use:   "man",
	Short: "Generate man pages for parley",
	Long: `Generate one man page per parley command, in section 1, into
	--dir. The directory is created if needed.`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(manDir, 0750); err != nil {
			return err
		}

		root := cmd.Root()
		root.DisableAutoGenTag = true

		header := &doc.GenManHeader{
			Section: "1",
			Manual:  "Parley Manual",
			Source:  "parley " + meta.Version,
		}

		if err := doc.GenManTree(root, header, manDir); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Wrote man pages to", manDir)
		return nil
	},
}

func init() {
	flags := ManPagesCmd.Flags()

	flags.StringVar(&manDir, "dir", "man", "the directory to write the man pages to")

	// For bash-completion
	if err := flags.SetAnnotation("dir", cobra.BashCompSubdirsInDir, []string{}); err != nil {
		panic(err)
	}
}
