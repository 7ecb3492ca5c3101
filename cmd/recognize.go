package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/faceatlas/faceatlas/internal/config"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/match"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Name every face in a photo",
	Long: `Detect all faces in a photo and label each one against the enrolled
identities. Faces farther than the match threshold from every enrolled
face are labeled Unknown.

Examples:
  faceatlas recognize group.jpg
  faceatlas recognize group.jpg --threshold 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Float64("threshold", 0, "Maximum distance for a match (0 = use configured default)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold == 0 {
		threshold = cfg.Matching.Threshold
	}

	photo, err := readImageFile(args[0])
	if err != nil {
		return err
	}

	client := embedding.NewClient(cfg.Embedding.URL)
	faces, err := client.Detect(ctx, photo)
	if err != nil {
		return fmt.Errorf("detecting faces: %w", err)
	}
	if len(faces) == 0 {
		fmt.Println("No faces found")
		return nil
	}

	store, closeStore, err := newIdentityStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	known, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing identities: %w", err)
	}
	candidates := make([]match.Candidate, len(known))
	for i, id := range known {
		candidates[i] = match.Candidate{Label: id.Name, Embedding: id.Embedding}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FACE\tLABEL\tDISTANCE\tSCORE")
	for i, face := range faces {
		label, distance := match.Unknown, 0.0
		if len(candidates) > 0 {
			res, err := match.LabelWithThreshold(face.Embedding, candidates, threshold)
			if err != nil {
				return fmt.Errorf("labeling face %d: %w", i, err)
			}
			label, distance = res.Label, res.Distance
		}
		if label == match.Unknown {
			fmt.Fprintf(w, "%d\t%s\t-\t%.2f\n", i, label, face.DetScore)
		} else {
			fmt.Fprintf(w, "%d\t%s\t%.3f\t%.2f\n", i, label, distance, face.DetScore)
		}
	}
	return w.Flush()
}
