package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type YouTubeConfig struct {
	APIKey     string `yaml:"api_key"`
	MaxResults int    `yaml:"max_results"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "ollama" or "openai"
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	EmbedModel  string  `yaml:"embed_model"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type DatabaseConfig struct {
	URL       string `yaml:"url"`
	TableName string `yaml:"table_name"`
	VectorDim int    `yaml:"vector_dim"`
	BatchSize int    `yaml:"batch_size"`
}

type SubtitlesConfig struct {
	Languages []string `yaml:"languages"`
	RateLimit float64  `yaml:"rate_limit"`
	Retries   int      `yaml:"retries"`
}

// ChunkerConfig's Overlap is a pointer so an explicit `overlap: 0` in
// the file is distinguishable from the key being absent. Load always
// leaves it non-nil.
type ChunkerConfig struct {
	MaxChunkSize int  `yaml:"max_chunk_size"`
	Overlap      *int `yaml:"overlap"`
}

// TracingConfig is resolved once at load time: tracing is enabled only
// when an API key is present, everything else is a no-op provider.
type TracingConfig struct {
	Enabled  bool   `yaml:"-"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Project  string `yaml:"project"`
}

type UIConfig struct {
	Streaming bool   `yaml:"streaming"`
	Theme     string `yaml:"theme"`
}

type Config struct {
	YouTube   YouTubeConfig   `yaml:"youtube"`
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Tracing   TracingConfig   `yaml:"tracing"`
	UI        UIConfig        `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/tubewise/config.yaml"),
			"/etc/tubewise/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.YouTube.MaxResults == 0 {
		config.YouTube.MaxResults = 5
	}

	if config.LLM.Provider == "" {
		if config.LLM.APIKey != "" {
			config.LLM.Provider = "openai"
		} else {
			config.LLM.Provider = "ollama"
		}
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "openai":
			config.LLM.Model = "gpt-3.5-turbo"
		default:
			config.LLM.Model = "mistral"
		}
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.3
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "video_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}

	if len(config.Subtitles.Languages) == 0 {
		config.Subtitles.Languages = []string{"en"}
	}
	if config.Subtitles.RateLimit == 0 {
		config.Subtitles.RateLimit = 0.5
	}
	if config.Subtitles.Retries == 0 {
		config.Subtitles.Retries = 5
	}

	if config.Chunker.MaxChunkSize == 0 {
		config.Chunker.MaxChunkSize = 1000
	}
	if config.Chunker.Overlap == nil {
		overlap := 200
		config.Chunker.Overlap = &overlap
	}

	if config.Tracing.Project == "" {
		config.Tracing.Project = "tubewise"
	}
	config.Tracing.Enabled = config.Tracing.APIKey != ""

	if config.UI.Theme == "" {
		config.UI.Theme = "default"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("YOUTUBE_API_KEY"); key != "" {
		config.YouTube.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if key := os.Getenv("TRACING_API_KEY"); key != "" {
		config.Tracing.APIKey = key
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		config.Tracing.Endpoint = endpoint
	}
}
