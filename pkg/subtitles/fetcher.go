package subtitles

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tubewise/tubewise/internal/models"
	"golang.org/x/time/rate"
)

// ErrNoTranscript is returned when a video has no captions in any of the
// requested languages.
var ErrNoTranscript = errors.New("no transcript available")

const defaultBaseURL = "https://video.google.com/timedtext"

type FetcherConfig struct {
	BaseURL   string
	Languages []string
	RateLimit float64 // requests per second
	Retries   int
	Timeout   time.Duration
}

type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config FetcherConfig) *Fetcher {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if len(config.Languages) == 0 {
		config.Languages = []string{"en"}
	}
	if config.RateLimit == 0 {
		config.RateLimit = 0.5 // one request every two seconds by default
	}
	if config.Retries == 0 {
		config.Retries = 5
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Fetch downloads the caption track for a video, trying each language in
// order. Transient failures are retried with jittered exponential backoff
// so requests don't land in a fixed cadence.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, languages []string) ([]models.TranscriptSegment, error) {
	if len(languages) == 0 {
		languages = f.config.Languages
	}

	for _, lang := range languages {
		segments, err := f.fetchLanguage(ctx, videoID, lang)
		if errors.Is(err, ErrNoTranscript) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return segments, nil
	}

	return nil, fmt.Errorf("%w for video %s", ErrNoTranscript, videoID)
}

func (f *Fetcher) fetchLanguage(ctx context.Context, videoID, lang string) ([]models.TranscriptSegment, error) {
	var lastErr error

	for attempt := 0; attempt < f.config.Retries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if attempt > 0 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		segments, err := f.request(ctx, videoID, lang)
		if err == nil || errors.Is(err, ErrNoTranscript) {
			return segments, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetching transcript for %s: %w", videoID, lastErr)
}

func (f *Fetcher) request(ctx context.Context, videoID, lang string) ([]models.TranscriptSegment, error) {
	query := url.Values{}
	query.Set("v", videoID)
	query.Set("lang", lang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoTranscript
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for video %s", resp.StatusCode, videoID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrNoTranscript
	}

	return parseTimedText(body)
}

type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

func parseTimedText(data []byte) ([]models.TranscriptSegment, error) {
	var doc timedText
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing timedtext response: %w", err)
	}

	var segments []models.TranscriptSegment
	for _, cue := range doc.Texts {
		text := strings.TrimSpace(cue.Body)
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     text,
			StartSec: cue.Start,
			DurSec:   cue.Dur,
		})
	}

	if len(segments) == 0 {
		return nil, ErrNoTranscript
	}
	return segments, nil
}

// Text flattens timed segments into a single transcript string.
func Text(segments []models.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

func backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt-1)) * time.Second
	jitter := time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
	return base + jitter
}
