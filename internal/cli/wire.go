package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/asklore/asklore/internal/config"
	"github.com/asklore/asklore/internal/database"
	"github.com/asklore/asklore/internal/embedding"
	"github.com/asklore/asklore/internal/openai"
	"github.com/asklore/asklore/internal/repository"
	"github.com/asklore/asklore/internal/service"
	"github.com/asklore/asklore/internal/sources"
	"github.com/asklore/asklore/internal/storage"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// newPool connects to the configured database and pings it.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("connected to database")
	return pool, nil
}

// runMigrations applies pending up migrations from the configured directory.
func runMigrations(cfg *config.Config) error {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+cfg.MigrationsDir,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}

// newEmbedder builds the embedding client from config. A missing endpoint
// is logged; calls against the zero-valued client fail with the embedding
// error code rather than at startup.
func newEmbedder(cfg *config.Config) *embedding.Client {
	if !cfg.HasEmbedding() {
		log.Println("warning: ASKLORE_EMBEDDING_URL not set, embedding calls will fail")
	}
	return embedding.NewClient(embedding.Config{
		URL:        cfg.EmbeddingURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
}

// newGenerator builds the chat-completion client from config.
func newGenerator(cfg *config.Config) *openai.Client {
	if !cfg.HasGeneration() {
		log.Println("warning: ASKLORE_OPENAI_API_KEY not set, generation calls will fail")
	}
	return openai.NewClientWithConfig(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.GenerationModel,
		BaseURL: cfg.GenerationBaseURL,
	})
}

// newIngestService assembles the ingestion pipeline.
func newIngestService(pool *pgxpool.Pool, embedder service.Embedder, cfg *config.Config) *service.IngestService {
	return service.NewIngestServiceWithConfig(
		repository.NewChunkRepository(pool),
		embedder,
		service.NewThrottle(cfg.EmbedMinInterval),
		service.ChunkConfig{WindowSize: cfg.ChunkWindow},
	)
}

// newCatalog assembles the source catalog, including the optional
// object-storage source when S3 credentials are configured.
func newCatalog(ctx context.Context, cfg *config.Config) (*sources.Catalog, error) {
	catalogCfg := sources.CatalogConfig{
		PDFDir:           cfg.PDFDir,
		ArticleURLs:      cfg.ArticleURLs,
		ChatFeedURL:      cfg.ChatFeedURL,
		ChatFeedChannels: cfg.ChatFeedChannels,
		S3Prefix:         cfg.S3Prefix,
	}

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		catalogCfg.ObjectStore = s3Client
	}

	return sources.NewCatalog(catalogCfg), nil
}
