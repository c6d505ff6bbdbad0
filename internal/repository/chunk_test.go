//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/pagination"
	"github.com/asklore/asklore/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVector(dims int, lead ...float32) []float32 {
	vec := make([]float32, dims)
	copy(vec, lead)
	return vec
}

func testChunks(dims int, contents ...string) []domain.Chunk {
	chunks := make([]domain.Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = *domain.NewChunk(domain.SourcePDF, "doc1", i, content, testVector(dims, float32(i+1)))
	}
	return chunks
}

func TestChunkRepository_ReplaceAndExists(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	exists, err := repo.Exists(ctx, domain.SourcePDF, "doc1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1", testChunks(testutil.EmbeddingDimensions, "alpha", "beta", "gamma")))

	exists, err = repo.Exists(ctx, domain.SourcePDF, "doc1")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestChunkRepository_ReplaceIsFullSwap(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1", testChunks(testutil.EmbeddingDimensions, "old-a", "old-b", "old-c")))
	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1", testChunks(testutil.EmbeddingDimensions, "new-a", "new-b")))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := repo.NearestNeighbors(ctx, testVector(testutil.EmbeddingDimensions, 1), 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, sc := range results {
		assert.Contains(t, []string{"new-a", "new-b"}, sc.Chunk.Content)
	}
}

func TestChunkRepository_ReplaceIsScopedToPair(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1",
		[]domain.Chunk{*domain.NewChunk(domain.SourcePDF, "doc1", 0, "pdf text", testVector(testutil.EmbeddingDimensions, 1))}))
	require.NoError(t, repo.Replace(ctx, domain.SourceArticle, "doc1",
		[]domain.Chunk{*domain.NewChunk(domain.SourceArticle, "doc1", 0, "article text", testVector(testutil.EmbeddingDimensions, 1))}))

	// Re-ingesting the pdf pair must leave the article pair untouched.
	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1",
		[]domain.Chunk{*domain.NewChunk(domain.SourcePDF, "doc1", 0, "fresh pdf text", testVector(testutil.EmbeddingDimensions, 1))}))

	exists, err := repo.Exists(ctx, domain.SourceArticle, "doc1")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestChunkRepository_NearestNeighbors_Ranking(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	// A points along the query axis, C nearly so, B is orthogonal.
	chunks := []domain.Chunk{
		*domain.NewChunk(domain.SourcePDF, "doc1", 0, "A", testVector(testutil.EmbeddingDimensions, 1, 0)),
		*domain.NewChunk(domain.SourcePDF, "doc1", 1, "B", testVector(testutil.EmbeddingDimensions, 0, 1)),
		*domain.NewChunk(domain.SourcePDF, "doc1", 2, "C", testVector(testutil.EmbeddingDimensions, 0.9, 0.1)),
	}
	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1", chunks))

	results, err := repo.NearestNeighbors(ctx, testVector(testutil.EmbeddingDimensions, 1, 0), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "A", results[0].Chunk.Content)
	assert.Equal(t, "C", results[1].Chunk.Content)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
	assert.InDelta(t, 0.9938, results[1].Similarity, 1e-3)

	// Low-similarity rows are still returned when k allows: no threshold.
	all, err := repo.NearestNeighbors(ctx, testVector(testutil.EmbeddingDimensions, 1, 0), 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "B", all[2].Chunk.Content)
	assert.InDelta(t, 0.0, all[2].Similarity, 1e-6)
}

func TestChunkRepository_NearestNeighbors_SkipsNullEmbeddings(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	chunks := []domain.Chunk{
		*domain.NewChunk(domain.SourcePDF, "doc1", 0, "embedded", testVector(testutil.EmbeddingDimensions, 1)),
		*domain.NewChunk(domain.SourcePDF, "doc1", 1, "not embedded", nil),
	}
	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1", chunks))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := repo.NearestNeighbors(ctx, testVector(testutil.EmbeddingDimensions, 1), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "embedded", results[0].Chunk.Content)
}

func TestChunkRepository_ListSources(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	require.NoError(t, repo.Replace(ctx, domain.SourcePDF, "doc1", testChunks(testutil.EmbeddingDimensions, "a", "b")))
	require.NoError(t, repo.Replace(ctx, domain.SourceArticle, "https://example.com/post",
		[]domain.Chunk{*domain.NewChunk(domain.SourceArticle, "https://example.com/post", 0, "body", testVector(testutil.EmbeddingDimensions, 1))}))

	page, err := repo.ListSources(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)

	byKey := map[string]int{}
	for _, item := range page.Items {
		byKey[item.Key()] = item.ChunkCount
	}
	assert.Equal(t, 2, byKey["pdf:doc1"])
	assert.Equal(t, 1, byKey["article:https://example.com/post"])
}

func TestChunkRepository_ListSources_Pagination(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	ids := []string{"doc1", "doc2", "doc3"}
	for _, id := range ids {
		require.NoError(t, repo.Replace(ctx, domain.SourcePDF, id,
			[]domain.Chunk{*domain.NewChunk(domain.SourcePDF, id, 0, "text "+id, testVector(testutil.EmbeddingDimensions, 1))}))
	}

	first, err := repo.ListSources(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	cursor, err := pagination.DecodeCursor(first.NextCursor)
	require.NoError(t, err)

	second, err := repo.ListSources(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.False(t, second.HasMore)

	seen := map[string]bool{}
	for _, item := range append(first.Items, second.Items...) {
		seen[item.SourceID] = true
	}
	assert.Len(t, seen, 3)
}
