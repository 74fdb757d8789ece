package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// SummaryStyle selects the summary prompt.
type SummaryStyle string

const (
	SummaryStandard  SummaryStyle = "standard"
	SummaryDetailed  SummaryStyle = "detailed"
	SummaryBullets   SummaryStyle = "bullets"
	SummaryExecutive SummaryStyle = "executive"
)

var summaryPrompts = map[SummaryStyle]string{
	SummaryStandard: "You are an expert at summarizing video content. " +
		"Create a clear, concise summary that captures the main points and key insights. " +
		"Format your response with the main topic, key points as bullets, and main takeaways.",
	SummaryDetailed: "You are an expert at creating detailed summaries. " +
		"Provide a comprehensive summary with an introduction, main sections with " +
		"detailed explanations, key concepts and terminology, and conclusions.",
	SummaryBullets: "Extract the main points from the content as clear, concise bullet points. " +
		"Each bullet should be self-contained and capture a key idea or fact.",
	SummaryExecutive: "Create an executive summary suitable for busy professionals: " +
		"a 2-3 sentence overview, the top 3-5 key findings, and the main conclusion. " +
		"Keep it under 200 words.",
}

// Summarize produces a summary of a transcript in the requested style.
func (ce *ChatEngine) Summarize(ctx context.Context, transcript string, style SummaryStyle) (string, error) {
	prompt, ok := summaryPrompts[style]
	if !ok {
		return "", fmt.Errorf("unknown summary style: %s", style)
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompt),
		llms.TextParts(schema.ChatMessageTypeHuman, "Summarize this video transcript:\n\n"+transcript),
	}

	resp, err := ce.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("summarization error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return resp.Choices[0].Content, nil
}
