package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/identity"
)

var identitySimilarCmd = &cobra.Command{
	Use:   "similar <image>",
	Short: "Find the enrolled identities most similar to a face",
	Long: `Find the enrolled identities nearest to the face in a single-face
photo, ordered by embedding distance.

With IDENTITY_HNSW=true the lookup uses the in-memory HNSW index instead
of a PostgreSQL query.

Examples:
  faceatlas identity similar selfie.jpg
  faceatlas identity similar selfie.jpg --limit 3`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentitySimilar,
}

func init() {
	identityCmd.AddCommand(identitySimilarCmd)

	identitySimilarCmd.Flags().Int("limit", 5, "Maximum number of results")
}

func runIdentitySimilar(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	limit := mustGetInt(cmd, "limit")

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
		return fmt.Errorf("%s contains more than one face", args[0])
	case err != nil:
		return fmt.Errorf("detecting face: %w", err)
	}

	store, closeStore, err := newIdentityStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	finder, ok := store.(identity.NearestFinder)
	if !ok {
		return errors.New("the configured identity store does not support similarity lookups")
	}

	ids, distances, err := finder.FindSimilar(ctx, face.Embedding, limit)
	if err != nil {
		return fmt.Errorf("finding similar identities: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISTANCE")
	for i, id := range ids {
		fmt.Fprintf(w, "%s\t%.3f\n", id.Name, distances[i])
	}
	return w.Flush()
}
