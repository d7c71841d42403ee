package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/parley/cmd/gen"
)

var RootCmd = &cobra.Command{
	Use:   "parley",
	Short: "A one-to-one chat relay",
	Long: `Parley relays line based chats between pairs of named clients.

Clients connect over TCP, pick a name, and pair up with /chat <name>.
Everything a client types is then forwarded to its partner until one
of them leaves.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(StartCmd)
	RootCmd.AddCommand(ConnectCmd)
	RootCmd.AddCommand(WhoCmd)
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
