package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tubewise/tubewise/internal/models"
	"github.com/tubewise/tubewise/internal/types"
	"github.com/tubewise/tubewise/pkg/chunker"
	"github.com/tubewise/tubewise/pkg/llm"
	"github.com/tubewise/tubewise/pkg/subtitles"
	"github.com/tubewise/tubewise/pkg/tracing"
)

// Summarizer is the slice of the chat engine the pipeline needs for
// summaries.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, style llm.SummaryStyle) (string, error)
}

type Config struct {
	Chunker   chunker.Config
	Languages []string
	TopK      int
	// MaxEmbedTokens rejects chunks that would blow the embedding model's
	// context. Zero disables the check.
	MaxEmbedTokens int
}

// Pipeline orchestrates ingest (metadata, transcript, chunking,
// embedding, storage) and retrieval-backed question answering.
type Pipeline struct {
	config      Config
	metadata    types.MetadataAgent
	transcripts types.TranscriptFetcher
	embedder    types.Embedder
	store       types.VectorStore
	chat        types.ChatModel
	summarizer  Summarizer
	splitter    types.Splitter
	sessionID   string
}

func New(config Config, metadata types.MetadataAgent, transcripts types.TranscriptFetcher,
	embedder types.Embedder, store types.VectorStore, chat types.ChatModel, summarizer Summarizer) (*Pipeline, error) {

	if config.TopK == 0 {
		config.TopK = 5
	}
	if len(config.Languages) == 0 {
		config.Languages = []string{"en"}
	}

	splitter, err := chunker.NewWithConfig(config.Chunker)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:      config,
		metadata:    metadata,
		transcripts: transcripts,
		embedder:    embedder,
		store:       store,
		chat:        chat,
		summarizer:  summarizer,
		splitter:    splitter,
		sessionID:   uuid.NewString(),
	}, nil
}

func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// Ingest fetches a video's metadata and transcript, chunks it, embeds
// the chunks, and stores them.
func (p *Pipeline) Ingest(ctx context.Context, videoID string) (*models.ChunkedDocument, error) {
	return p.ingest(ctx, videoID, "")
}

func (p *Pipeline) ingest(ctx context.Context, videoID, topic string) (*models.ChunkedDocument, error) {
	ctx, span := tracing.Start(ctx, "pipeline.ingest",
		attribute.String("video.id", videoID))
	defer span.End()

	meta, err := p.metadata.Video(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		topic = meta.Topic
	}

	segments, err := p.transcripts.Fetch(ctx, videoID, p.config.Languages)
	if err != nil {
		return nil, err
	}
	transcript := subtitles.Text(segments)

	doc := models.Document{
		ID:      meta.VideoID,
		Source:  meta.URL,
		Title:   meta.Title,
		Content: transcript,
		Metadata: map[string]interface{}{
			"channel":      meta.Channel,
			"topic":        topic,
			"duration_sec": meta.DurationSec,
		},
	}

	chunks, err := p.split(transcript, *meta)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Source = meta.URL
		chunks[i].Title = meta.Title
	}

	chunked, err := p.embed(ctx, doc, chunks)
	if err != nil {
		return nil, err
	}

	if err := p.store.Store(ctx, []models.ChunkedDocument{*chunked}); err != nil {
		return nil, fmt.Errorf("storing chunks for %s: %w", videoID, err)
	}

	return chunked, nil
}

// IngestTopic searches for videos on a topic and ingests each of them.
func (p *Pipeline) IngestTopic(ctx context.Context, topic string, maxResults int) ([]models.ChunkedDocument, error) {
	ctx, span := tracing.Start(ctx, "pipeline.ingest_topic",
		attribute.String("topic", topic))
	defer span.End()

	videos, err := p.metadata.Search(ctx, topic, maxResults)
	if err != nil {
		return nil, err
	}

	var docs []models.ChunkedDocument
	for _, video := range videos {
		// The topic must be on the document before Store runs, so it
		// ends up in the topic column rather than only on the returned
		// value.
		chunked, err := p.ingest(ctx, video.VideoID, topic)
		if err != nil {
			return docs, fmt.Errorf("ingesting %s: %w", video.VideoID, err)
		}
		docs = append(docs, *chunked)
	}

	return docs, nil
}

// IngestDocument chunks, embeds, and stores an already-loaded document,
// e.g. an uploaded script.
func (p *Pipeline) IngestDocument(ctx context.Context, doc models.Document) (*models.ChunkedDocument, error) {
	ctx, span := tracing.Start(ctx, "pipeline.ingest_document",
		attribute.String("document.id", doc.ID))
	defer span.End()

	chunks, err := p.splitter.Split(doc.Content)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Source = doc.Source
		chunks[i].Title = doc.Title
	}

	chunked, err := p.embed(ctx, doc, chunks)
	if err != nil {
		return nil, err
	}

	if err := p.store.Store(ctx, []models.ChunkedDocument{*chunked}); err != nil {
		return nil, fmt.Errorf("storing chunks for %s: %w", doc.ID, err)
	}

	return chunked, nil
}

// Ask embeds the question, retrieves the nearest stored chunks, and has
// the chat model answer from them.
func (p *Pipeline) Ask(ctx context.Context, question, topic string) (*models.Answer, error) {
	ctx, span := tracing.Start(ctx, "pipeline.ask",
		attribute.String("topic", topic),
		attribute.Int("question.length", len(question)))
	defer span.End()

	chunks, err := p.retrieve(ctx, question, topic)
	if err != nil {
		return nil, err
	}

	answer, err := p.chat.Ask(ctx, question, chunks)
	if err != nil {
		return nil, err
	}
	answer.SessionID = p.sessionID

	return answer, nil
}

// AskStream is the streaming variant of Ask.
func (p *Pipeline) AskStream(ctx context.Context, question, topic string) (<-chan string, []models.Chunk, error) {
	ctx, span := tracing.Start(ctx, "pipeline.ask_stream",
		attribute.String("topic", topic))
	defer span.End()

	chunks, err := p.retrieve(ctx, question, topic)
	if err != nil {
		return nil, nil, err
	}

	stream, err := p.chat.AskStream(ctx, question, chunks)
	if err != nil {
		return nil, nil, err
	}
	return stream, chunks, nil
}

// Summarize fetches a video's transcript and summarizes it.
func (p *Pipeline) Summarize(ctx context.Context, videoID string, style llm.SummaryStyle) (string, error) {
	ctx, span := tracing.Start(ctx, "pipeline.summarize",
		attribute.String("video.id", videoID),
		attribute.String("style", string(style)))
	defer span.End()

	segments, err := p.transcripts.Fetch(ctx, videoID, p.config.Languages)
	if err != nil {
		return "", err
	}

	return p.summarizer.Summarize(ctx, subtitles.Text(segments), style)
}

func (p *Pipeline) retrieve(ctx context.Context, question, topic string) ([]models.Chunk, error) {
	embeddings, err := p.embedder.CreateEmbedding(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	chunks, err := p.store.Query(ctx, embeddings[0], topic, p.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return chunks, nil
}

func (p *Pipeline) split(transcript string, meta models.VideoMetadata) ([]models.Chunk, error) {
	if chunker.HasUsableChapters(meta) {
		if chunks := chunker.SplitByChapters(transcript, meta); len(chunks) > 0 {
			return chunks, nil
		}
	}

	chunks, err := p.splitter.Split(transcript)
	if err != nil {
		return nil, err
	}
	chunker.EstimateTimestamps(chunks, len([]rune(transcript)), meta.DurationSec)
	return chunks, nil
}

func (p *Pipeline) embed(ctx context.Context, doc models.Document, chunks []models.Chunk) (*models.ChunkedDocument, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s produced no chunks", doc.ID)
	}

	if err := p.guardTokenLimit(chunks); err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks for %s: %w", doc.ID, err)
	}

	return &models.ChunkedDocument{
		Document:   doc,
		Chunks:     chunks,
		Embeddings: embeddings,
	}, nil
}

func (p *Pipeline) guardTokenLimit(chunks []models.Chunk) error {
	if p.config.MaxEmbedTokens == 0 {
		return nil
	}

	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return fmt.Errorf("loading token encoding: %w", err)
	}

	for _, chunk := range chunks {
		if n := len(encoding.Encode(chunk.Text, nil, nil)); n > p.config.MaxEmbedTokens {
			return fmt.Errorf("chunk %d is %d tokens, over the embedding limit %d; lower the chunk size",
				chunk.Index, n, p.config.MaxEmbedTokens)
		}
	}
	return nil
}
