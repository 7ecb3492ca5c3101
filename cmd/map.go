package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/facemap"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Render a 2-D similarity map of all known faces",
	Long: `Project every enrolled identity and catalog entry onto a 2-D canvas
where similar faces sit close together, and write the result as a PNG.

The projection is computed by the embedding service. At least two faces
must be known.

Examples:
  faceatlas map -o faces.png`,
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringP("output", "o", "map.png", "Output PNG file")
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	output := mustGetString(cmd, "output")

	client := embedding.NewClient(cfg.Embedding.URL)

	store, closeStore, err := newIdentityStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat := newCatalog(cfg, client, true)
	assembler := newAssembler(cfg, store, cat, client)

	m, err := assembler.Assemble(ctx)
	if errors.Is(err, facemap.ErrInsufficientData) {
		return errors.New("need at least two known faces to draw a map")
	}
	if err != nil {
		return fmt.Errorf("assembling map: %w", err)
	}

	if err := os.WriteFile(output, m.PNG, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("\nWrote %s with %d faces\n", output, len(m.Points))
	return nil
}
