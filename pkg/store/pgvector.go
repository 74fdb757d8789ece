package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/tubewise/tubewise/internal/models"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
}

// VectorStore persists chunk embeddings in Postgres with pgvector and
// answers cosine-similarity queries over them.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "video_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT,
			chapter_title TEXT,
			content TEXT,
			chunk_index INTEGER,
			start_offset INTEGER,
			end_offset INTEGER,
			start_time INTEGER,
			end_time INTEGER,
			topic TEXT,
			embedding vector(%d),
			metadata JSONB
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err := vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	if _, err := vs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Store upserts all chunks of the given documents in one transaction.
// Embeddings are matched to chunks by index; documents with a missing
// embedding row are rejected.
func (vs *VectorStore) Store(ctx context.Context, docs []models.ChunkedDocument) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, title, chapter_title, content, chunk_index,
			start_offset, end_offset, start_time, end_time, topic, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`, vs.config.TableName)

	for _, doc := range docs {
		if len(doc.Embeddings) != len(doc.Chunks) {
			return fmt.Errorf("document %s: %d chunks but %d embeddings",
				doc.ID, len(doc.Chunks), len(doc.Embeddings))
		}

		topic, _ := doc.Metadata["topic"].(string)
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("document %s: marshaling metadata: %w", doc.ID, err)
		}

		for i, chunk := range doc.Chunks {
			id := fmt.Sprintf("%s-chunk-%d", doc.ID, chunk.Index)

			_, err := tx.Exec(ctx, stmt,
				id,
				doc.Source,
				doc.Title,
				chunk.ChapterTitle,
				chunk.Text,
				chunk.Index,
				chunk.StartOffset,
				chunk.EndOffset,
				chunk.StartTimeSec,
				chunk.EndTimeSec,
				topic,
				pgvector.NewVector(doc.Embeddings[i]),
				metadata,
			)
			if err != nil {
				return fmt.Errorf("failed to insert chunk %s: %w", id, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// Query returns the chunks nearest to the embedding by cosine distance.
// A non-empty topic restricts the search to that topic's chunks.
func (vs *VectorStore) Query(ctx context.Context, embedding []float32, topic string, limit int) ([]models.Chunk, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}

	query := fmt.Sprintf(`
		SELECT content, source, title, chapter_title, chunk_index,
			start_offset, end_offset, start_time, end_time
		FROM %s`, vs.config.TableName)

	args := []interface{}{pgvector.NewVector(embedding)}
	if topic != "" {
		query += " WHERE topic = $2"
		args = append(args, topic)
	}
	query += " ORDER BY embedding <=> $1 LIMIT " + fmt.Sprint(limit)

	rows, err := vs.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		err := rows.Scan(&chunk.Text, &chunk.Source, &chunk.Title, &chunk.ChapterTitle,
			&chunk.Index, &chunk.StartOffset, &chunk.EndOffset,
			&chunk.StartTimeSec, &chunk.EndTimeSec)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

func (vs *VectorStore) Close() {
	vs.pool.Close()
}
