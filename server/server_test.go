package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubewise/tubewise/internal/models"
	"github.com/tubewise/tubewise/pkg/chunker"
	"github.com/tubewise/tubewise/pkg/llm"
	"github.com/tubewise/tubewise/pkg/pipeline"
	"github.com/tubewise/tubewise/pkg/upload"
	"github.com/tubewise/tubewise/server"
)

type fakeBackend struct{}

func (f *fakeBackend) Search(ctx context.Context, topic string, maxResults int) ([]models.VideoMetadata, error) {
	return nil, nil
}

func (f *fakeBackend) Video(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	return &models.VideoMetadata{
		VideoID:     videoID,
		Title:       "A video",
		URL:         "https://www.youtube.com/watch?v=" + videoID,
		DurationSec: 60,
	}, nil
}

func (f *fakeBackend) Fetch(ctx context.Context, videoID string, languages []string) ([]models.TranscriptSegment, error) {
	return []models.TranscriptSegment{{Text: strings.Repeat("transcript words ", 10)}}, nil
}

func (f *fakeBackend) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{1, 0}
	}
	return embeddings, nil
}

func (f *fakeBackend) Store(ctx context.Context, docs []models.ChunkedDocument) error {
	return nil
}

func (f *fakeBackend) Query(ctx context.Context, embedding []float32, topic string, limit int) ([]models.Chunk, error) {
	return []models.Chunk{{Text: "stored chunk", Source: "https://www.youtube.com/watch?v=abc"}}, nil
}

func (f *fakeBackend) Close() {}

func (f *fakeBackend) Ask(ctx context.Context, question string, chunks []models.Chunk) (*models.Answer, error) {
	return &models.Answer{Text: "the answer", Sources: llm.Sources(chunks)}, nil
}

func (f *fakeBackend) AskStream(ctx context.Context, question string, chunks []models.Chunk) (<-chan string, error) {
	ch := make(chan string, 2)
	ch <- "the "
	ch <- "answer"
	close(ch)
	return ch, nil
}

func (f *fakeBackend) Summarize(ctx context.Context, transcript string, style llm.SummaryStyle) (string, error) {
	return "a summary", nil
}

func dialTestServer(t *testing.T, streaming bool) *websocket.Conn {
	t.Helper()

	backend := &fakeBackend{}
	p, err := pipeline.New(pipeline.Config{
		Chunker: chunker.Config{MaxChunkSize: 50, Overlap: 10},
	}, backend, backend, backend, backend, backend, backend)
	require.NoError(t, err)

	s := server.New(server.Config{Streaming: streaming}, p, upload.New())
	httpServer := httptest.NewServer(http.HandlerFunc(s.HandleWebSocket))
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestAskRoundTrip(t *testing.T) {
	conn := dialTestServer(t, false)

	err := conn.WriteJSON(server.Message{Type: "ask", Content: "what is this about?"})
	require.NoError(t, err)

	var resp server.Message
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "response", resp.Type)
	assert.Equal(t, "the answer", resp.Content)

	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "sources", resp.Type)
	assert.Contains(t, resp.Content, "watch?v=abc")
}

func TestAskStreaming(t *testing.T) {
	conn := dialTestServer(t, true)

	err := conn.WriteJSON(server.Message{Type: "ask", Content: "what is this about?"})
	require.NoError(t, err)

	var first, second server.Message
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "stream", first.Type)
	assert.Equal(t, "the answer", first.Content+second.Content)
}

func TestIngestVideoMessage(t *testing.T) {
	conn := dialTestServer(t, false)

	err := conn.WriteJSON(server.Message{Type: "video", Content: "abc12345678"})
	require.NoError(t, err)

	var status server.Message
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "status", status.Type)

	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "status", status.Type)
	assert.Contains(t, status.Content, "chunks")
}

func TestUnknownMessageType(t *testing.T) {
	conn := dialTestServer(t, false)

	require.NoError(t, conn.WriteJSON(server.Message{Type: "dance"}))

	var resp server.Message
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "error", resp.Type)
}
