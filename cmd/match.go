package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/match"
)

var matchCmd = &cobra.Command{
	Use:   "match <image>",
	Short: "Find the closest catalog entry for a face",
	Long: `Compare a single-face photo against the reference catalog and print
the closest entry. The catalog root comes from CATALOG_DIR; every
subdirectory is one entry, represented by its first single-face image.

Examples:
  faceatlas match selfie.jpg
  CATALOG_DIR=./celebrities faceatlas match selfie.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.Catalog.Dir == "" {
		return errors.New("CATALOG_DIR environment variable is required")
	}

	photo, err := readImageFile(args[0])
	if err != nil {
		return err
	}

	client := embedding.NewClient(cfg.Embedding.URL)
	face, err := embedding.DetectSingle(ctx, client, photo)
	switch {
	case errors.Is(err, embedding.ErrNoFaceDetected):
		return fmt.Errorf("no face found in %s", args[0])
	case errors.Is(err, embedding.ErrMultipleFaces):
		return fmt.Errorf("%s contains more than one face, match needs exactly one", args[0])
	case err != nil:
		return fmt.Errorf("detecting face: %w", err)
	}

	entries, err := newCatalog(cfg, client, true).ListAll(ctx)
	if err != nil {
		return fmt.Errorf("scanning catalog: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("catalog %s is empty", cfg.Catalog.Dir)
	}

	candidates := make([]match.Candidate, len(entries))
	for i, entry := range entries {
		candidates[i] = match.Candidate{Label: entry.Name, Embedding: entry.Embedding}
	}
	best, err := match.BestMatch(face.Embedding, candidates)
	if err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	fmt.Printf("\nClosest match: %s (distance %.3f)\n", best.Label, best.Distance)
	return nil
}
