package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/identity"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <image> <name>",
	Short: "Enroll a person from a single-face photo",
	Long: `Enroll a person from a photo containing exactly one face.

The face embedding is computed by the embedding service and stored under
the given name. Enrolling an existing name replaces the stored face.

Examples:
  faceatlas enroll ada.jpg "Ada Lovelace"`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	imagePath, name := args[0], args[1]
	cfg := config.Load()
	ctx := context.Background()

	photo, err := readImageFile(imagePath)
	if err != nil {
		return err
	}

	client := embedding.NewClient(cfg.Embedding.URL)
	face, err := embedding.DetectSingle(ctx, client, photo)
	switch {
	case errors.Is(err, embedding.ErrNoFaceDetected):
		return fmt.Errorf("no face found in %s", imagePath)
	case errors.Is(err, embedding.ErrMultipleFaces):
		return fmt.Errorf("%s contains more than one face, enroll needs exactly one", imagePath)
	case err != nil:
		return fmt.Errorf("detecting face: %w", err)
	}

	store, closeStore, err := newIdentityStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	err = store.Enroll(ctx, identity.Identity{
		Name:      name,
		Embedding: face.Embedding,
		Image:     photo,
	})
	if errors.Is(err, identity.ErrInvalidName) {
		return fmt.Errorf("invalid name %q", name)
	}
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", name, err)
	}

	fmt.Printf("Enrolled %s (detection score %.2f)\n", name, face.DetScore)
	return nil
}
