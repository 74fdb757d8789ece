package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/tubewise/tubewise/pkg/chunker"
	"github.com/tubewise/tubewise/pkg/config"
	"github.com/tubewise/tubewise/pkg/llm"
	"github.com/tubewise/tubewise/pkg/pipeline"
	"github.com/tubewise/tubewise/pkg/store"
	"github.com/tubewise/tubewise/pkg/subtitles"
	"github.com/tubewise/tubewise/pkg/tracing"
	"github.com/tubewise/tubewise/pkg/upload"
	"github.com/tubewise/tubewise/pkg/youtube"
	"github.com/tubewise/tubewise/server"
)

type Flags struct {
	ConfigPath string
	Video      string
	Topic      string
	Upload     string
	Summarize  string
	Style      string
	Serve      bool
	Port       string
}

var videoURL = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]{11})`)

func main() {
	flags := parseFlags()

	if err := run(flags); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Flags {
	var flags Flags

	flag.StringVar(&flags.ConfigPath, "config", "", "Path to config file")
	flag.StringVar(&flags.Video, "video", "", "YouTube video URL or ID to ingest")
	flag.StringVar(&flags.Topic, "topic", "", "Search topic to ingest videos for")
	flag.StringVar(&flags.Upload, "upload", "", "Script file to ingest (.txt, .md, .vtt, .srt, .html)")
	flag.StringVar(&flags.Summarize, "summarize", "", "YouTube video URL or ID to summarize")
	flag.StringVar(&flags.Style, "style", "standard", "Summary style: standard, detailed, bullets, executive")
	flag.BoolVar(&flags.Serve, "serve", false, "Start the WebSocket server instead of the REPL")
	flag.StringVar(&flags.Port, "port", "8080", "WebSocket server port")
	flag.Parse()

	return flags
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(flags Flags) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		return fmt.Errorf("invalid configuration")
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	p, vectorStore, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer vectorStore.Close()

	if flags.Serve {
		return server.Run(server.Config{
			Port:      flags.Port,
			Streaming: cfg.UI.Streaming,
		}, p, upload.New())
	}

	switch {
	case flags.Video != "":
		if err := ingestVideo(ctx, p, flags.Video); err != nil {
			return err
		}
	case flags.Topic != "":
		if err := ingestTopic(ctx, p, flags.Topic, cfg.YouTube.MaxResults); err != nil {
			return err
		}
	case flags.Upload != "":
		if err := ingestUpload(ctx, p, flags.Upload); err != nil {
			return err
		}
	case flags.Summarize != "":
		return summarize(ctx, p, flags.Summarize, flags.Style)
	}

	return repl(ctx, p, cfg.UI.Streaming)
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, *store.VectorStore, error) {
	metadata, err := youtube.NewWithConfig(ctx, youtube.AgentConfig{
		APIKey:     cfg.YouTube.APIKey,
		MaxResults: cfg.YouTube.MaxResults,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize YouTube agent: %w", err)
	}

	transcripts := subtitles.NewWithConfig(subtitles.FetcherConfig{
		Languages: cfg.Subtitles.Languages,
		RateLimit: cfg.Subtitles.RateLimit,
		Retries:   cfg.Subtitles.Retries,
	})

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbedModel,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, nil, err
	}

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
		BatchSize:  cfg.Database.BatchSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	p, err := pipeline.New(pipeline.Config{
		Chunker: chunker.Config{
			MaxChunkSize: cfg.Chunker.MaxChunkSize,
			Overlap:      *cfg.Chunker.Overlap,
		},
		Languages:      cfg.Subtitles.Languages,
		MaxEmbedTokens: 8191,
	}, metadata, transcripts, embedder, vectorStore, chatEngine, chatEngine)
	if err != nil {
		vectorStore.Close()
		return nil, nil, err
	}

	return p, vectorStore, nil
}

func ingestVideo(ctx context.Context, p *pipeline.Pipeline, video string) error {
	videoID := videoIDFromInput(video)
	if videoID == "" {
		return fmt.Errorf("unrecognized video reference: %s", video)
	}

	spinner := getSpinner(" Ingesting video " + videoID + "...")
	chunked, err := p.Ingest(ctx, videoID)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("failed to ingest video: %w", err)
	}

	color.Green("✓ Ingested %q into %d chunks\n", chunked.Title, len(chunked.Chunks))
	return nil
}

func ingestTopic(ctx context.Context, p *pipeline.Pipeline, topic string, maxResults int) error {
	color.Blue("\nSearching videos for topic %q\n", topic)

	bar := getProgressBar(-1, " Ingesting topic videos...")
	docs, err := p.IngestTopic(ctx, topic, maxResults)
	bar.Finish()
	if err != nil {
		return fmt.Errorf("failed to ingest topic: %w", err)
	}

	total := 0
	for _, doc := range docs {
		total += len(doc.Chunks)
	}
	color.Green("✓ Ingested %d videos into %d chunks\n", len(docs), total)
	return nil
}

func ingestUpload(ctx context.Context, p *pipeline.Pipeline, path string) error {
	doc, err := upload.New().Read(path)
	if err != nil {
		return err
	}

	spinner := getSpinner(" Ingesting upload...")
	chunked, err := p.IngestDocument(ctx, *doc)
	spinner.Finish()
	if err != nil {
		return fmt.Errorf("failed to ingest upload: %w", err)
	}

	color.Green("✓ Ingested %s into %d chunks\n", path, len(chunked.Chunks))
	return nil
}

func summarize(ctx context.Context, p *pipeline.Pipeline, video, style string) error {
	videoID := videoIDFromInput(video)
	if videoID == "" {
		return fmt.Errorf("unrecognized video reference: %s", video)
	}

	spinner := getSpinner(" Summarizing...")
	summary, err := p.Summarize(ctx, videoID, llm.SummaryStyle(style))
	spinner.Finish()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(summary)
	return nil
}

func repl(ctx context.Context, p *pipeline.Pipeline, streaming bool) error {
	color.Cyan("\nAsk about your ingested videos (type 'exit' to quit)")
	color.Cyan("Paste a YouTube URL to ingest it first.")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.ToLower(query) == "exit" {
			break
		}
		if query == "" {
			continue
		}

		if videoID := videoIDFromInput(query); videoID != "" {
			if err := ingestVideo(ctx, p, videoID); err != nil {
				color.Red("%v\n", err)
			}
			continue
		}

		if streaming {
			stream, _, err := p.AskStream(ctx, query, "")
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			assistantPrompt("\nAssistant: ")
			for chunk := range stream {
				if strings.HasPrefix(chunk, "Error:") {
					color.Red("\n%s", chunk)
					break
				}
				fmt.Print(chunk)
			}
			fmt.Println()
			continue
		}

		spinner := getSpinner(" Thinking...")
		answer, err := p.Ask(ctx, query, "")
		spinner.Finish()
		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}

		assistantPrompt("\nAssistant: %s\n", answer.Text)
		if len(answer.Sources) > 0 {
			color.Blue("Sources:\n%s\n", strings.Join(answer.Sources, "\n"))
		}
	}

	return nil
}

// videoIDFromInput accepts a watch URL, a short URL, or a bare 11-char
// video ID.
func videoIDFromInput(input string) string {
	if m := videoURL.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if regexp.MustCompile(`^[\w-]{11}$`).MatchString(input) {
		return input
	}
	return ""
}
