package chunker

import (
	"strings"

	"github.com/tubewise/tubewise/internal/models"
)

// HasUsableChapters reports whether chapter-based splitting makes sense
// for the video. A single chapter is treated the same as none.
func HasUsableChapters(meta models.VideoMetadata) bool {
	return len(meta.Chapters) > 1 && meta.DurationSec > 0
}

// SplitByChapters cuts a transcript into one chunk per chapter. Chapter
// times are mapped to rune positions by assuming a uniform speech rate
// across the video, which is rough but close enough for retrieval.
func SplitByChapters(transcript string, meta models.VideoMetadata) []models.Chunk {
	runes := []rune(transcript)
	if len(runes) == 0 || !HasUsableChapters(meta) {
		return nil
	}

	runesPerSecond := float64(len(runes)) / float64(meta.DurationSec)

	var chunks []models.Chunk
	for i, chapter := range meta.Chapters {
		endSec := chapter.EndSec
		if endSec <= chapter.StartSec {
			if i+1 < len(meta.Chapters) {
				endSec = meta.Chapters[i+1].StartSec
			} else {
				endSec = meta.DurationSec
			}
		}

		start := clamp(int(float64(chapter.StartSec)*runesPerSecond), 0, len(runes))
		end := clamp(int(float64(endSec)*runesPerSecond), start, len(runes))

		text := strings.TrimSpace(string(runes[start:end]))
		if text == "" {
			continue
		}

		chunks = append(chunks, models.Chunk{
			Text:         text,
			StartOffset:  start,
			EndOffset:    end,
			Index:        len(chunks),
			ChapterTitle: chapter.Title,
			StartTimeSec: chapter.StartSec,
			EndTimeSec:   endSec,
		})
	}

	return chunks
}

// EstimateTimestamps annotates fixed-stride chunks with approximate start
// and end times so the QA layer can point back at a moment in the video.
func EstimateTimestamps(chunks []models.Chunk, transcriptLen, durationSec int) {
	if transcriptLen == 0 || durationSec == 0 {
		return
	}

	secondsPerRune := float64(durationSec) / float64(transcriptLen)
	for i := range chunks {
		chunks[i].StartTimeSec = int(float64(chunks[i].StartOffset) * secondsPerRune)
		chunks[i].EndTimeSec = int(float64(chunks[i].EndOffset) * secondsPerRune)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
