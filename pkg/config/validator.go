package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.YouTube.MaxResults < 1 || c.YouTube.MaxResults > 50 {
		errors = append(errors, ValidationError{
			Field:   "youtube.max_results",
			Message: "max_results must be between 1 and 50",
		})
	}

	if c.LLM.Provider != "ollama" && c.LLM.Provider != "openai" {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "OpenAI API key is required for the openai provider",
		})
	}

	if c.LLM.Provider == "ollama" {
		if c.LLM.BaseURL == "" {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "Ollama base URL is required",
			})
		} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "llm.base_url",
				Message: "invalid Ollama base URL",
			})
		}
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Subtitles.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "subtitles.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Subtitles.Retries < 1 {
		errors = append(errors, ValidationError{
			Field:   "subtitles.retries",
			Message: "retries must be positive",
		})
	}

	if c.Chunker.MaxChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.max_chunk_size",
			Message: "max_chunk_size must be positive",
		})
	}

	if c.Chunker.Overlap != nil && (*c.Chunker.Overlap < 0 || *c.Chunker.Overlap >= c.Chunker.MaxChunkSize) {
		errors = append(errors, ValidationError{
			Field:   "chunker.overlap",
			Message: "overlap must be non-negative and less than max_chunk_size",
		})
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errors
}
