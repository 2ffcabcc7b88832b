// Package extract turns a room's source artifact (an uploaded PDF or a
// YouTube video URL) into a flat text string ready for embedding.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoText is returned when a source parses fine but yields no content.
var ErrNoText = errors.New("source contains no extractable text")

// Source identifies one artifact. Exactly one of FilePath or VideoURL must
// be set.
type Source struct {
	FilePath string
	VideoURL string
}

// Result carries the normalized (and possibly truncated) text plus enough
// detail for the caller to record what was lost to truncation.
type Result struct {
	Text           string
	OriginalLength int
	Truncated      bool
}

type Extractor struct {
	transcripts *TranscriptClient
	maxChars    int
}

// New builds an extractor. maxChars bounds the text handed to the embedding
// model; <= 0 disables truncation.
func New(transcripts *TranscriptClient, maxChars int) *Extractor {
	return &Extractor{transcripts: transcripts, maxChars: maxChars}
}

// Extract reads the source, normalizes whitespace and truncates to the
// configured maximum. The original pre-truncation length is reported back so
// truncation never becomes silent data loss.
func (e *Extractor) Extract(ctx context.Context, src Source) (Result, error) {
	var (
		text string
		err  error
	)
	switch {
	case src.FilePath != "":
		text, err = e.extractPDF(src.FilePath)
	case src.VideoURL != "":
		text, err = e.transcripts.Fetch(ctx, src.VideoURL)
	default:
		return Result{}, errors.New("extract: source has neither file path nor video url")
	}
	if err != nil {
		return Result{}, err
	}
	return e.finish(text)
}

// finish normalizes and truncates extracted text, recording the original
// length so truncation stays visible to the caller.
func (e *Extractor) finish(text string) (Result, error) {
	text = normalize(text)
	if text == "" {
		return Result{}, ErrNoText
	}

	res := Result{Text: text, OriginalLength: len([]rune(text))}
	if e.maxChars > 0 {
		runes := []rune(text)
		if len(runes) > e.maxChars {
			res.Text = strings.TrimSpace(string(runes[:e.maxChars]))
			res.Truncated = true
		}
	}
	return res, nil
}

func (e *Extractor) extractPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()
	return pdfText(f)
}

// normalize collapses whitespace runs to single spaces and trims the ends.
func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
