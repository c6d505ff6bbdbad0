package repository

import (
	"context"
	"time"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx, so a repository can
// run against the pool or inside a caller-owned transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ChunkRepository handles persistence of embedded document chunks.
type ChunkRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool, pool: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// Exists reports whether any chunks are persisted for the source pair.
func (r *ChunkRepository) Exists(ctx context.Context, source domain.Source, sourceID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chunks WHERE source = $1 AND source_id = $2)`,
		source, sourceID,
	).Scan(&exists)
	return exists, err
}

// Count returns the total number of stored chunks across all sources,
// missing embeddings included.
func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// CountSources returns the number of distinct loaded source pairs.
func (r *ChunkRepository) CountSources(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT (source, source_id)) FROM chunks`).Scan(&count)
	return count, err
}

// Replace deletes all chunks for the source pair and inserts the given
// set, with chunk_index taken from each chunk's position in the slice.
// Delete and inserts run in one transaction so the pair is never left
// partially written; the row lock taken by the delete also serializes
// concurrent replaces for the same pair.
func (r *ChunkRepository) Replace(ctx context.Context, source domain.Source, sourceID string, chunks []domain.Chunk) error {
	if r.pool == nil {
		return r.replaceIn(ctx, r.db, source, sourceID, chunks)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := r.replaceIn(ctx, tx, source, sourceID, chunks); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func (r *ChunkRepository) replaceIn(ctx context.Context, db dbtx, source domain.Source, sourceID string, chunks []domain.Chunk) error {
	_, err := db.Exec(ctx, `DELETE FROM chunks WHERE source = $1 AND source_id = $2`, source, sourceID)
	if err != nil {
		return err
	}

	for i, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		updatedAt := c.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = createdAt
		}
		_, err := db.Exec(ctx,
			`INSERT INTO chunks
				(source, source_id, chunk_index, content, embedding, created_at, updated_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7)`,
			source,
			sourceID,
			i,
			c.Content,
			nullableVector(c.Embedding),
			createdAt,
			updatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// NearestNeighbors returns up to k chunks ranked by descending cosine
// similarity to the query vector. Rows without an embedding are excluded.
// The secondary order on id keeps equal-distance results stable across
// calls on unchanged data.
func (r *ChunkRepository) NearestNeighbors(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, source, source_id, chunk_index, content, embedding, created_at, updated_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1, id
		 LIMIT $2`,
		pgvector.NewVector(query), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ScoredChunk
	for rows.Next() {
		var sc domain.ScoredChunk
		var vec pgvector.Vector
		if err := rows.Scan(
			&sc.Chunk.ID,
			&sc.Chunk.Source,
			&sc.Chunk.SourceID,
			&sc.Chunk.ChunkIndex,
			&sc.Chunk.Content,
			&vec,
			&sc.Chunk.CreatedAt,
			&sc.Chunk.UpdatedAt,
			&sc.Similarity,
		); err != nil {
			return nil, err
		}
		sc.Chunk.Embedding = vec.Slice()
		results = append(results, sc)
	}
	return results, rows.Err()
}

// SourcePageResult is one page of loaded source pairs.
type SourcePageResult struct {
	Items      []domain.SourceSummary
	NextCursor string
	HasMore    bool
}

// ListSources returns loaded source pairs with their chunk counts, most
// recently updated first, keyset-paginated on (last_updated, key).
func (r *ChunkRepository) ListSources(ctx context.Context, cursor *pagination.Cursor, limit int) (*SourcePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT source, source_id, COUNT(*) AS chunk_count, MAX(updated_at) AS last_updated
			 FROM chunks
			 GROUP BY source, source_id
			 HAVING (MAX(updated_at), source || ':' || source_id) < ($1, $2)
			 ORDER BY last_updated DESC, source || ':' || source_id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT source, source_id, COUNT(*) AS chunk_count, MAX(updated_at) AS last_updated
			 FROM chunks
			 GROUP BY source, source_id
			 ORDER BY last_updated DESC, source || ':' || source_id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SourceSummary
	for rows.Next() {
		var s domain.SourceSummary
		if err := rows.Scan(&s.Source, &s.SourceID, &s.ChunkCount, &s.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.Key(), last.LastUpdated)
	}

	return &SourcePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func nullableVector(embedding []float32) *pgvector.Vector {
	if embedding == nil {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}
