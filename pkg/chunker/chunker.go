package chunker

import (
	"errors"
	"fmt"

	"github.com/tubewise/tubewise/internal/models"
)

// ErrInvalidConfig is returned when chunking parameters violate the
// Overlap < MaxChunkSize constraint. It indicates a configuration defect,
// not a transient condition.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Config holds the windowing parameters. Sizes are in runes.
type Config struct {
	MaxChunkSize int
	Overlap      int
}

func (c Config) validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: max chunk size must be positive, got %d", ErrInvalidConfig, c.MaxChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap %d must be less than max chunk size %d", ErrInvalidConfig, c.Overlap, c.MaxChunkSize)
	}
	return nil
}

// FixedSplitter splits a document into fixed-size overlapping windows.
// Consecutive chunks share exactly Overlap runes, so the cursor advances
// by MaxChunkSize-Overlap each step and no span of the document is lost
// at a chunk boundary. Only the final chunk may be shorter.
type FixedSplitter struct {
	config Config
}

func NewWithConfig(config Config) (*FixedSplitter, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &FixedSplitter{config: config}, nil
}

// Split produces the ordered chunk sequence for document. It is a pure
// function: no I/O, deterministic for identical inputs, and each call
// returns freshly allocated chunks. An empty document yields no chunks.
func (s *FixedSplitter) Split(document string) ([]models.Chunk, error) {
	return Split(document, s.config)
}

// Split is the package-level form of FixedSplitter.Split. The config is
// validated before any chunk is produced.
func Split(document string, config Config) ([]models.Chunk, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	runes := []rune(document)
	if len(runes) == 0 {
		return nil, nil
	}

	stride := config.MaxChunkSize - config.Overlap

	var chunks []models.Chunk
	for start, index := 0, 0; ; index++ {
		end := start + config.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, models.Chunk{
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Index:       index,
		})

		if end == len(runes) {
			break
		}
		start += stride
	}

	return chunks, nil
}
