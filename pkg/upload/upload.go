package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tubewise/tubewise/internal/models"
	"github.com/tubewise/tubewise/pkg/subtitles"
)

// Reader turns uploaded script files into documents ready for chunking.
// Plain text is passed through, caption formats are flattened to their
// text, and HTML is reduced to its main content.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func (r *Reader) Read(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	doc, err := r.Parse(filepath.Base(path), string(data))
	if err != nil {
		return nil, err
	}
	doc.Source = path
	return doc, nil
}

// Parse converts raw uploaded content into a document. The filename's
// extension selects the format.
func (r *Reader) Parse(name, content string) (*models.Document, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var text string
	var err error

	switch ext {
	case ".txt", ".md", "":
		text = cleanText(content)
	case ".vtt":
		text, err = captionText(content, subtitles.ParseVTT)
	case ".srt":
		text, err = captionText(content, subtitles.ParseSRT)
	case ".html", ".htm":
		text, err = htmlText(content)
	default:
		return nil, fmt.Errorf("unsupported upload format: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	if text == "" {
		return nil, fmt.Errorf("upload %s contains no text", name)
	}

	return &models.Document{
		ID:      name,
		Source:  name,
		Title:   strings.TrimSuffix(name, ext),
		Content: text,
		Metadata: map[string]interface{}{
			"format": strings.TrimPrefix(ext, "."),
		},
	}, nil
}

func captionText(content string, parse func(string) ([]models.TranscriptSegment, error)) (string, error) {
	segments, err := parse(content)
	if err != nil {
		return "", fmt.Errorf("parsing captions: %w", err)
	}
	return subtitles.Text(segments), nil
}

func htmlText(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	doc.Find("script, style, nav, footer").Remove()

	// Prefer the main content area, fall back to body
	selectors := []string{"main", "article", ".content", "#content"}

	var text string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			text = blockText(selected)
			break
		}
	}
	if text == "" {
		text = blockText(doc.Find("body"))
	}

	return cleanText(text), nil
}

// blockText extracts text block by block. Selection.Text() runs adjacent
// elements together ("<h1>a</h1><p>b</p>" becomes "ab"), so each block
// element contributes its text followed by a space.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, td").
		Each(func(_ int, s *goquery.Selection) {
			b.WriteString(s.Text())
			b.WriteString(" ")
		})
	if b.Len() == 0 {
		return sel.Text()
	}
	return b.String()
}

func cleanText(text string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}
