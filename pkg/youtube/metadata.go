package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tubewise/tubewise/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// AgentConfig configures the metadata agent. Endpoint and HTTPClient are
// only set in tests to point the client at a fake API server.
type AgentConfig struct {
	APIKey     string
	MaxResults int
	Endpoint   string
	HTTPClient *http.Client
}

// Agent fetches video metadata from the YouTube Data API v3.
type Agent struct {
	config  AgentConfig
	service *youtube.Service
}

func NewWithConfig(ctx context.Context, config AgentConfig) (*Agent, error) {
	if config.MaxResults == 0 {
		config.MaxResults = 5
	}
	if config.APIKey == "" && config.HTTPClient == nil {
		return nil, fmt.Errorf("youtube: API key is required")
	}

	opts := []option.ClientOption{}
	if config.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(config.HTTPClient))
	} else {
		opts = append(opts, option.WithAPIKey(config.APIKey))
	}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize YouTube service: %w", err)
	}

	return &Agent{
		config:  config,
		service: service,
	}, nil
}

// Search finds videos matching a topic and resolves their full metadata,
// including duration, statistics, and chapters.
func (a *Agent) Search(ctx context.Context, topic string, maxResults int) ([]models.VideoMetadata, error) {
	if maxResults <= 0 {
		maxResults = a.config.MaxResults
	}

	resp, err := a.service.Search.List([]string{"snippet"}).
		Q(topic).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	var videos []models.VideoMetadata
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}

		meta, err := a.Video(ctx, item.Id.VideoId)
		if err != nil {
			return nil, err
		}
		meta.Topic = topic
		videos = append(videos, *meta)
	}

	return videos, nil
}

// Video fetches full metadata for a single video ID.
func (a *Agent) Video(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	resp, err := a.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube video lookup failed: %w", err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := resp.Items[0]
	meta := &models.VideoMetadata{
		VideoID: videoID,
		URL:     "https://www.youtube.com/watch?v=" + videoID,
	}

	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
		meta.Channel = item.Snippet.ChannelTitle
		meta.Description = item.Snippet.Description
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			meta.PublishedAt = t
		}
		meta.Chapters = ExtractChapters(item.Snippet.Description)
	}

	if item.ContentDetails != nil {
		dur, err := ParseDuration(item.ContentDetails.Duration)
		if err != nil {
			return nil, fmt.Errorf("video %s: %w", videoID, err)
		}
		meta.DurationSec = dur
	}

	if item.Statistics != nil {
		meta.ViewCount = item.Statistics.ViewCount
		meta.LikeCount = item.Statistics.LikeCount
	}

	// Last chapter runs to the end of the video
	if n := len(meta.Chapters); n > 0 && meta.Chapters[n-1].EndSec == 0 {
		meta.Chapters[n-1].EndSec = meta.DurationSec
	}

	return meta, nil
}
