package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/faceatlas/faceatlas/internal/catalog"
	"github.com/faceatlas/faceatlas/internal/config"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/facemap"
	"github.com/faceatlas/faceatlas/internal/identity"
	"github.com/faceatlas/faceatlas/internal/identity/memory"
	"github.com/faceatlas/faceatlas/internal/identity/postgres"
	"github.com/faceatlas/faceatlas/internal/workflow"
)

// newIdentityStore returns the configured identity store. With DATABASE_URL
// set it connects to PostgreSQL; otherwise identities live in memory and are
// lost on exit.
func newIdentityStore(ctx context.Context, cfg *config.Config) (identity.Store, func(), error) {
	if cfg.Database.URL == "" {
		fmt.Println("DATABASE_URL not set, using in-memory identity store")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Migrate(ctx, cfg.Embedding.Dim); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrating schema: %w", err)
	}

	repo := postgres.NewRepository(pool)
	if cfg.Database.EnableHNSW {
		fmt.Println("Building in-memory HNSW index for similarity lookups...")
		if err := repo.EnableHNSW(ctx); err != nil {
			fmt.Printf("Warning: failed to build HNSW index: %v\n", err)
			fmt.Println("Similarity lookups will use PostgreSQL queries (slower)")
		} else {
			fmt.Printf("HNSW index built with %d identities\n", repo.HNSWCount())
		}
	}

	return repo, func() { pool.Close() }, nil
}

// emptyCatalog stands in when no catalog directory is configured.
type emptyCatalog struct{}

func (emptyCatalog) ListAll(ctx context.Context) ([]catalog.Entry, error) {
	return nil, nil
}

// newCatalog builds the reference catalog from CATALOG_DIR. One-shot
// commands attach a progress bar to the scan; the server does not, to keep
// request logs clean.
func newCatalog(cfg *config.Config, provider embedding.Provider, withProgress bool) workflow.CatalogLister {
	if cfg.Catalog.Dir == "" {
		return emptyCatalog{}
	}

	store := catalog.NewStore(cfg.Catalog.Dir, provider)
	if withProgress {
		var bar *progressbar.ProgressBar
		store.OnProgress(func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Scanning catalog"),
					progressbar.OptionShowCount(),
					progressbar.OptionShowElapsedTimeOnFinish(),
				)
			}
			bar.Set(done)
		})
	}
	return store
}

// newAssembler wires the similarity map assembler.
func newAssembler(cfg *config.Config, ids identity.Store, cat facemap.CatalogLister, client *embedding.Client) *facemap.Assembler {
	return facemap.NewAssembler(ids, cat, client, client, facemap.Options{
		Width:     cfg.Map.Width,
		Height:    cfg.Map.Height,
		ThumbSize: cfg.Map.ThumbSize,
		TopMargin: cfg.Map.TopMargin,
		Title:     cfg.Map.Title,
	})
}

// readImageFile loads a photo from disk for the one-shot commands.
func readImageFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", path, err)
	}
	return data, nil
}
