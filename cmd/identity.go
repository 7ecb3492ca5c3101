package cmd

import (
	"github.com/spf13/cobra"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Inspect and manage enrolled identities",
}

func init() {
	rootCmd.AddCommand(identityCmd)
}
