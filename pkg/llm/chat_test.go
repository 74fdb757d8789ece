package llm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tubewise/tubewise/internal/models"
	"github.com/tubewise/tubewise/pkg/llm"
)

func TestNewWithConfig(t *testing.T) {
	config := llm.ChatConfig{
		Provider:       "ollama",
		Model:          "testmodel",
		Temperature:    0.5,
		MaxTokens:      1000,
		SystemTemplate: "Test system template",
		BaseURL:        "http://localhost:1234",
	}
	engine, err := llm.NewWithConfig(config)
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfigOpenAI(t *testing.T) {
	config := llm.ChatConfig{
		Provider:    "openai",
		Model:       "gpt-3.5-turbo",
		Temperature: 0.3,
		APIKey:      "sk-test",
	}
	engine, err := llm.NewWithConfig(config)
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfigInvalid(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Provider: "ollama", Temperature: 0})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{Provider: "ollama", Temperature: 2.5})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{Provider: "ollama", Temperature: 0.5, MaxTokens: -1})
	assert.Error(t, err)

	_, err = llm.NewWithConfig(llm.ChatConfig{Provider: "oracle", Temperature: 0.5})
	assert.Error(t, err)
}

func TestSources(t *testing.T) {
	chunks := []models.Chunk{
		{Source: "https://www.youtube.com/watch?v=a", Text: "first"},
		{Source: "https://www.youtube.com/watch?v=b", Text: "second"},
		{Source: "https://www.youtube.com/watch?v=a", Text: "third"},
		{Source: "", Text: "no source"},
	}

	sources := llm.Sources(chunks)
	assert.Equal(t, []string{
		"https://www.youtube.com/watch?v=a",
		"https://www.youtube.com/watch?v=b",
	}, sources)
}

func TestSummarizeUnknownStyle(t *testing.T) {
	engine, err := llm.NewWithConfig(llm.ChatConfig{
		Provider:    "ollama",
		Temperature: 0.5,
		BaseURL:     "http://localhost:11434",
	})
	require.NoError(t, err)

	_, err = engine.Summarize(context.Background(), "some transcript", "haiku")
	assert.Error(t, err)
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   "nomic-embed-text:latest",
		BaseURL: "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}
