package types

import (
	"context"

	"github.com/tubewise/tubewise/internal/models"
)

// Core interfaces
type Splitter interface {
	Split(document string) ([]models.Chunk, error)
}

type VectorStore interface {
	Store(ctx context.Context, docs []models.ChunkedDocument) error
	Query(ctx context.Context, embedding []float32, topic string, limit int) ([]models.Chunk, error)
	Close()
}

type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

type MetadataAgent interface {
	Search(ctx context.Context, topic string, maxResults int) ([]models.VideoMetadata, error)
	Video(ctx context.Context, videoID string) (*models.VideoMetadata, error)
}

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) ([]models.TranscriptSegment, error)
}

type ChatModel interface {
	Ask(ctx context.Context, question string, chunks []models.Chunk) (*models.Answer, error)
	AskStream(ctx context.Context, question string, chunks []models.Chunk) (<-chan string, error)
}
