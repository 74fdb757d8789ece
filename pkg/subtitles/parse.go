package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tubewise/tubewise/internal/models"
)

var cueTiming = regexp.MustCompile(`(\d{1,2}:)?(\d{2}):(\d{2})[.,](\d{3})\s+-->\s+(\d{1,2}:)?(\d{2}):(\d{2})[.,](\d{3})`)

// ParseVTT parses WebVTT caption content into timed segments. Header
// lines and cue identifiers are skipped; consecutive text lines of one
// cue are joined with spaces.
func ParseVTT(content string) ([]models.TranscriptSegment, error) {
	return parseCues(content, true)
}

// ParseSRT parses SubRip caption content into timed segments.
func ParseSRT(content string) ([]models.TranscriptSegment, error) {
	return parseCues(content, false)
}

func parseCues(content string, vtt bool) ([]models.TranscriptSegment, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var segments []models.TranscriptSegment
	var current *models.TranscriptSegment
	var textLines []string

	flush := func() {
		if current != nil && len(textLines) > 0 {
			current.Text = strings.Join(textLines, " ")
			segments = append(segments, *current)
		}
		current = nil
		textLines = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if vtt && (strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "Kind:") ||
			strings.HasPrefix(line, "Language:") ||
			strings.HasPrefix(line, "NOTE")) {
			continue
		}

		if m := cueTiming.FindStringSubmatch(line); m != nil {
			flush()
			start := cueSeconds(m[1], m[2], m[3], m[4])
			end := cueSeconds(m[5], m[6], m[7], m[8])
			current = &models.TranscriptSegment{
				StartSec: start,
				DurSec:   end - start,
			}
			continue
		}

		if line == "" {
			flush()
			continue
		}

		// SRT cue numbers stand alone between blank line and timing
		if current == nil {
			continue
		}
		textLines = append(textLines, line)
	}
	flush()

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no cues found", ErrNoTranscript)
	}
	return segments, nil
}

func cueSeconds(hours, minutes, seconds, millis string) float64 {
	h := 0
	if hours != "" {
		h, _ = strconv.Atoi(strings.TrimSuffix(hours, ":"))
	}
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000
}
