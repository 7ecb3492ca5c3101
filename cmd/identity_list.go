package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
)

var identityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled identities",
	RunE:  runIdentityList,
}

func init() {
	identityCmd.AddCommand(identityListCmd)
}

func runIdentityList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, closeStore, err := newIdentityStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	all, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}
	if len(all) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIM\tIMAGE")
	for _, id := range all {
		hasImage := "-"
		if len(id.Image) > 0 {
			hasImage = fmt.Sprintf("%d bytes", len(id.Image))
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", id.Name, len(id.Embedding), hasImage)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d identities\n", len(all))
	return nil
}
