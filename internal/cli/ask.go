package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/asklore/asklore/internal/config"
	"github.com/asklore/asklore/internal/repository"
	"github.com/asklore/asklore/internal/service"
	"github.com/spf13/cobra"
)

// AskCmd returns the ask command
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the knowledge base",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().IntP("top-k", "k", 0, "Number of chunks to retrieve (default from config)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	topK, _ := cmd.Flags().GetInt("top-k")
	if topK <= 0 {
		topK = cfg.TopK
	}

	answerSvc := service.NewAnswerService(
		repository.NewChunkRepository(pool),
		newEmbedder(cfg),
		newGenerator(cfg),
	)

	question := strings.Join(args, " ")
	answer, err := answerSvc.Answer(ctx, question, topK)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}
