package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "faceatlas",
	Short: "A conversational engine for face enrollment and recognition",
	Long: `Face Atlas remembers faces. It enrolls people from photos, recognizes
them later, matches faces against a reference catalog of celebrities and
draws a 2-D similarity map of everyone it knows.

Face embeddings come from an external embedding service; identities are
persisted in PostgreSQL (pgvector) or held in memory.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
