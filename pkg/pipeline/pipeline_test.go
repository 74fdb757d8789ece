package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubewise/tubewise/internal/models"
	"github.com/tubewise/tubewise/internal/types"
	"github.com/tubewise/tubewise/pkg/chunker"
	"github.com/tubewise/tubewise/pkg/llm"
	"github.com/tubewise/tubewise/pkg/pipeline"
)

var _ types.Splitter = (*chunker.FixedSplitter)(nil)

type fakeMetadata struct {
	video  models.VideoMetadata
	search []models.VideoMetadata
}

func (f *fakeMetadata) Search(ctx context.Context, topic string, maxResults int) ([]models.VideoMetadata, error) {
	return f.search, nil
}

func (f *fakeMetadata) Video(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	v := f.video
	v.VideoID = videoID
	return &v, nil
}

type fakeTranscripts struct {
	segments []models.TranscriptSegment
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string, languages []string) ([]models.TranscriptSegment, error) {
	return f.segments, nil
}

type fakeEmbedder struct {
	calls [][]string
}

func (f *fakeEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(len(texts[i])), 0, 0}
	}
	return embeddings, nil
}

type fakeStore struct {
	stored  []models.ChunkedDocument
	results []models.Chunk
}

func (f *fakeStore) Store(ctx context.Context, docs []models.ChunkedDocument) error {
	f.stored = append(f.stored, docs...)
	return nil
}

func (f *fakeStore) Query(ctx context.Context, embedding []float32, topic string, limit int) ([]models.Chunk, error) {
	return f.results, nil
}

func (f *fakeStore) Close() {}

// topicStore records what the topic metadata looks like at the moment
// Store is called, before any later mutation of the returned document.
type topicStore struct {
	fakeStore
	topics []string
}

func (f *topicStore) Store(ctx context.Context, docs []models.ChunkedDocument) error {
	for _, doc := range docs {
		topic, _ := doc.Metadata["topic"].(string)
		f.topics = append(f.topics, topic)
	}
	return f.fakeStore.Store(ctx, docs)
}

type fakeChat struct {
	lastChunks []models.Chunk
}

func (f *fakeChat) Ask(ctx context.Context, question string, chunks []models.Chunk) (*models.Answer, error) {
	f.lastChunks = chunks
	return &models.Answer{Text: "canned answer", Sources: llm.Sources(chunks)}, nil
}

func (f *fakeChat) AskStream(ctx context.Context, question string, chunks []models.Chunk) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- "canned"
	close(ch)
	return ch, nil
}

func (f *fakeChat) Summarize(ctx context.Context, transcript string, style llm.SummaryStyle) (string, error) {
	return "summary of " + transcript, nil
}

func newTestPipeline(t *testing.T, meta *fakeMetadata, transcripts *fakeTranscripts,
	store *fakeStore) (*pipeline.Pipeline, *fakeEmbedder, *fakeChat) {
	t.Helper()

	embedder := &fakeEmbedder{}
	chat := &fakeChat{}

	p, err := pipeline.New(pipeline.Config{
		Chunker: chunker.Config{MaxChunkSize: 20, Overlap: 5},
		TopK:    3,
	}, meta, transcripts, embedder, store, chat, chat)
	require.NoError(t, err)

	return p, embedder, chat
}

func TestIngestFixedStride(t *testing.T) {
	meta := &fakeMetadata{video: models.VideoMetadata{
		Title:       "No chapters here",
		URL:         "https://www.youtube.com/watch?v=v1",
		DurationSec: 60,
	}}
	transcripts := &fakeTranscripts{segments: []models.TranscriptSegment{
		{Text: strings.Repeat("word ", 10)},
	}}
	store := &fakeStore{}

	p, embedder, _ := newTestPipeline(t, meta, transcripts, store)

	chunked, err := p.Ingest(context.Background(), "v1")
	require.NoError(t, err)

	assert.NotEmpty(t, chunked.Chunks)
	assert.Len(t, chunked.Embeddings, len(chunked.Chunks))
	require.Len(t, store.stored, 1)

	for _, chunk := range chunked.Chunks {
		assert.Equal(t, "https://www.youtube.com/watch?v=v1", chunk.Source)
		assert.Equal(t, "No chapters here", chunk.Title)
		assert.Empty(t, chunk.ChapterTitle)
	}

	// One embedding call covering every chunk text
	require.Len(t, embedder.calls, 1)
	assert.Len(t, embedder.calls[0], len(chunked.Chunks))
}

func TestIngestUsesChapters(t *testing.T) {
	meta := &fakeMetadata{video: models.VideoMetadata{
		Title:       "Chaptered",
		URL:         "https://www.youtube.com/watch?v=v2",
		DurationSec: 100,
		Chapters: []models.Chapter{
			{Title: "Intro", StartSec: 0},
			{Title: "Main", StartSec: 50},
		},
	}}
	transcripts := &fakeTranscripts{segments: []models.TranscriptSegment{
		{Text: strings.Repeat("a", 49)},
		{Text: strings.Repeat("b", 50)},
	}}
	store := &fakeStore{}

	p, _, _ := newTestPipeline(t, meta, transcripts, store)

	chunked, err := p.Ingest(context.Background(), "v2")
	require.NoError(t, err)

	require.Len(t, chunked.Chunks, 2)
	assert.Equal(t, "Intro", chunked.Chunks[0].ChapterTitle)
	assert.Equal(t, "Main", chunked.Chunks[1].ChapterTitle)
}

func TestIngestTopicStoresTopic(t *testing.T) {
	meta := &fakeMetadata{
		search: []models.VideoMetadata{{VideoID: "v3"}},
		video: models.VideoMetadata{
			Title:       "Found by search",
			URL:         "https://www.youtube.com/watch?v=v3",
			DurationSec: 60,
		},
	}
	transcripts := &fakeTranscripts{segments: []models.TranscriptSegment{
		{Text: strings.Repeat("word ", 10)},
	}}
	store := &topicStore{}

	embedder := &fakeEmbedder{}
	chat := &fakeChat{}
	p, err := pipeline.New(pipeline.Config{
		Chunker: chunker.Config{MaxChunkSize: 20, Overlap: 5},
	}, meta, transcripts, embedder, store, chat, chat)
	require.NoError(t, err)

	docs, err := p.IngestTopic(context.Background(), "golang", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, []string{"golang"}, store.topics)
	assert.Equal(t, "golang", docs[0].Metadata["topic"])
}

func TestAsk(t *testing.T) {
	store := &fakeStore{results: []models.Chunk{
		{Text: "relevant chunk", Source: "https://www.youtube.com/watch?v=v1"},
	}}

	p, _, chat := newTestPipeline(t, &fakeMetadata{}, &fakeTranscripts{}, store)

	answer, err := p.Ask(context.Background(), "what is chunking?", "go")
	require.NoError(t, err)

	assert.Equal(t, "canned answer", answer.Text)
	assert.Equal(t, p.SessionID(), answer.SessionID)
	assert.Equal(t, []string{"https://www.youtube.com/watch?v=v1"}, answer.Sources)
	assert.Len(t, chat.lastChunks, 1)
}

func TestIngestDocument(t *testing.T) {
	store := &fakeStore{}
	p, _, _ := newTestPipeline(t, &fakeMetadata{}, &fakeTranscripts{}, store)

	doc := models.Document{
		ID:      "upload-1",
		Source:  "notes.txt",
		Title:   "notes",
		Content: strings.Repeat("uploaded content ", 5),
	}

	chunked, err := p.IngestDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.NotEmpty(t, chunked.Chunks)
	assert.Equal(t, "notes.txt", chunked.Chunks[0].Source)
	require.Len(t, store.stored, 1)
}

func TestSummarize(t *testing.T) {
	transcripts := &fakeTranscripts{segments: []models.TranscriptSegment{
		{Text: "the whole talk"},
	}}

	p, _, _ := newTestPipeline(t, &fakeMetadata{}, transcripts, &fakeStore{})

	summary, err := p.Summarize(context.Background(), "v1", llm.SummaryStandard)
	require.NoError(t, err)
	assert.Equal(t, "summary of the whole talk", summary)
}

func TestInvalidChunkerConfig(t *testing.T) {
	_, err := pipeline.New(pipeline.Config{
		Chunker: chunker.Config{MaxChunkSize: 10, Overlap: 10},
	}, &fakeMetadata{}, &fakeTranscripts{}, &fakeEmbedder{}, &fakeStore{}, &fakeChat{}, &fakeChat{})
	assert.ErrorIs(t, err, chunker.ErrInvalidConfig)
}
