package youtube

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tubewise/tubewise/internal/models"
)

var (
	timestampLine = regexp.MustCompile(`(?m)(\d{1,2}):(\d{2})(?::(\d{2}))?[ \t]+(.+)`)
	titlePrefix   = regexp.MustCompile(`^[-–—•*#\d.)\]]+\s*`)
)

// ExtractChapters parses chapter timestamps out of a video description.
// A description needs at least two timestamp lines to count as having
// chapters; anything less returns nil.
func ExtractChapters(description string) []models.Chapter {
	if description == "" {
		return nil
	}

	matches := timestampLine.FindAllStringSubmatch(description, -1)
	if len(matches) < 2 {
		return nil
	}

	var chapters []models.Chapter
	for _, m := range matches {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])

		var start int
		if m[3] != "" {
			third, _ := strconv.Atoi(m[3])
			start = first*3600 + second*60 + third
		} else {
			start = first*60 + second
		}

		title := strings.TrimSpace(titlePrefix.ReplaceAllString(m[4], ""))
		if title == "" {
			continue
		}

		chapters = append(chapters, models.Chapter{
			Title:    title,
			StartSec: start,
		})
	}

	if len(chapters) < 2 {
		return nil
	}

	// Each chapter ends where the next begins. The final chapter is left
	// open; the caller closes it with the video duration.
	for i := 0; i < len(chapters)-1; i++ {
		chapters[i].EndSec = chapters[i+1].StartSec
	}

	return chapters
}
