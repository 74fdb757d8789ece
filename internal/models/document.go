package models

import "time"

// VideoMetadata is what the metadata agent returns for a single video.
type VideoMetadata struct {
	VideoID     string
	Title       string
	Channel     string
	Description string
	URL         string
	Topic       string
	DurationSec int
	ViewCount   uint64
	LikeCount   uint64
	PublishedAt time.Time
	Chapters    []Chapter
}

// Chapter is a timestamped section parsed from a video description.
// EndSec is zero when the chapter runs to the end of the video.
type Chapter struct {
	Title    string
	StartSec int
	EndSec   int
}

// TranscriptSegment is a single timed caption line.
type TranscriptSegment struct {
	Text     string
	StartSec float64
	DurSec   float64
}

type Document struct {
	ID       string
	Source   string // video ID, file path, or URL
	Title    string
	Content  string
	Metadata map[string]interface{}
}

// Chunk is a contiguous span of a document. Offsets are rune positions
// in the source content, zero-indexed, end exclusive.
type Chunk struct {
	Text         string
	StartOffset  int
	EndOffset    int
	Index        int
	Source       string // video URL or upload path, set at ingest
	Title        string
	ChapterTitle string
	StartTimeSec int
	EndTimeSec   int
}

type ChunkedDocument struct {
	Document
	Chunks     []Chunk
	Embeddings [][]float32
}

// Answer is the result of a question answered against stored chunks.
type Answer struct {
	Text      string
	Sources   []string
	SessionID string
}
