package cli

import (
	"context"
	"fmt"

	"github.com/asklore/asklore/internal/config"
	"github.com/asklore/asklore/internal/repository"
	"github.com/spf13/cobra"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what has been ingested",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	repo := repository.NewChunkRepository(pool)

	chunks, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	sourceCount, err := repo.CountSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to count sources: %w", err)
	}

	fmt.Printf("chunks:  %d\n", chunks)
	fmt.Printf("sources: %d\n", sourceCount)

	page, err := repo.ListSources(ctx, nil, 50)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	for _, s := range page.Items {
		fmt.Printf("  %-10s %-50s %4d chunks  updated %s\n",
			s.Source, s.SourceID, s.ChunkCount, s.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	if page.HasMore {
		fmt.Println("  ...")
	}

	return nil
}
