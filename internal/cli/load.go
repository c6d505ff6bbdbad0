package cli

import (
	"context"
	"fmt"

	"github.com/asklore/asklore/internal/config"
	"github.com/asklore/asklore/internal/service"
	"github.com/spf13/cobra"
)

// LoadCmd returns the load command
func LoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Ingest all configured sources",
		Long:  "Discover every configured source and ingest whatever is not loaded yet, then exit",
		RunE:  runLoad,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	catalog, err := newCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	docs := catalog.Documents(ctx)
	if len(docs) == 0 {
		fmt.Println("no sources configured")
		return nil
	}

	ingestSvc := newIngestService(pool, newEmbedder(cfg), cfg)
	results := ingestSvc.LoadAll(ctx, docs)

	var failed int
	for _, res := range results {
		line := fmt.Sprintf("%-8s %s:%s", res.Status, res.Source, res.SourceID)
		if res.Err != nil {
			line += fmt.Sprintf(" (%v)", res.Err)
		}
		fmt.Println(line)
		if res.Status == service.IngestFailed {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(results))
	}
	return nil
}
