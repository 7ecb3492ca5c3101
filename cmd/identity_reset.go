package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
)

var identityResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove every enrolled identity",
	Long: `Remove every enrolled identity from the store. This cannot be undone.

Use --yes to skip the confirmation prompt.`,
	RunE: runIdentityReset,
}

func init() {
	identityCmd.AddCommand(identityResetCmd)

	identityResetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runIdentityReset(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	skipConfirm, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}
	if !skipConfirm {
		fmt.Print("Remove all enrolled identities? [y/N]: ")
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	store, closeStore, err := newIdentityStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.ResetAll(ctx); err != nil {
		return fmt.Errorf("resetting identities: %w", err)
	}
	fmt.Println("All identities removed")
	return nil
}
