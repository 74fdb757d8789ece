package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"github.com/tubewise/tubewise/internal/models"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider       string // "ollama" or "openai"
	Model          string
	Temperature    float64
	MaxTokens      int
	SystemTemplate string
	BaseURL        string // Ollama server URL
	APIKey         string // OpenAI API key
}

// ChatEngine answers questions about video content using an LLM,
// grounding each answer in retrieved transcript chunks.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Temperature <= 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a research assistant with access to video transcripts. " +
			"Answer questions based only on the provided transcript excerpts and cite the videos you used."
	}

	model, err := newModel(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

func newModel(config ChatConfig) (llms.Model, error) {
	switch config.Provider {
	case "openai":
		model := config.Model
		if model == "" {
			model = "gpt-3.5-turbo"
		}
		return openai.New(openai.WithModel(model), openai.WithToken(config.APIKey))
	case "", "ollama":
		model := config.Model
		if model == "" {
			model = "mistral"
		}
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

// Ask generates an answer grounded in the given transcript chunks.
func (ce *ChatEngine) Ask(ctx context.Context, question string, chunks []models.Chunk) (*models.Answer, error) {
	resp, err := ce.llm.GenerateContent(ctx, ce.messages(question, chunks),
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("chat error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from LLM")
	}

	return &models.Answer{
		Text:    resp.Choices[0].Content,
		Sources: Sources(chunks),
	}, nil
}

// AskStream is like Ask but delivers the answer incrementally. The
// channel is closed when generation finishes; a generation error is
// delivered as a final "Error:" message.
func (ce *ChatEngine) AskStream(ctx context.Context, question string, chunks []models.Chunk) (<-chan string, error) {
	resultChan := make(chan string)

	go func() {
		defer close(resultChan)

		_, err := ce.llm.GenerateContent(ctx, ce.messages(question, chunks),
			llms.WithMaxTokens(ce.config.MaxTokens),
			llms.WithTemperature(ce.config.Temperature),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				select {
				case resultChan <- string(chunk):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}),
		)
		if err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
		}
	}()

	return resultChan, nil
}

func (ce *ChatEngine) messages(question string, chunks []models.Chunk) []llms.MessageContent {
	var contextBuilder strings.Builder
	for _, chunk := range chunks {
		label := chunk.Source
		if chunk.ChapterTitle != "" {
			label = fmt.Sprintf("%s (%s)", label, chunk.ChapterTitle)
		} else if chunk.EndTimeSec > 0 {
			label = fmt.Sprintf("%s (%s-%s)", label,
				formatTime(chunk.StartTimeSec), formatTime(chunk.EndTimeSec))
		}
		contextBuilder.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", label, chunk.Text))
	}

	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(schema.ChatMessageTypeHuman, contextBuilder.String()),
		llms.TextParts(schema.ChatMessageTypeHuman, question),
	}
}

// Sources returns the unique source labels of a chunk set, in order of
// first appearance.
func Sources(chunks []models.Chunk) []string {
	var sources []string
	seen := make(map[string]bool)

	for _, chunk := range chunks {
		if chunk.Source == "" || seen[chunk.Source] {
			continue
		}
		sources = append(sources, chunk.Source)
		seen[chunk.Source] = true
	}

	return sources
}

func formatTime(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}
