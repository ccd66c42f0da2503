package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/omarwdev/visiontext/internal/models"
)

// Pipeline applies the OCR capability to uploaded images and, frame by frame,
// to uploaded videos.
type Pipeline struct {
	recognizer  Recognizer
	openDecoder DecoderFactory
}

// NewPipeline creates a pipeline over the given recognizer and video decoder.
func NewPipeline(recognizer Recognizer, openDecoder DecoderFactory) *Pipeline {
	return &Pipeline{
		recognizer:  recognizer,
		openDecoder: openDecoder,
	}
}

// ExtractImage runs OCR on a single image file and returns the recognized
// spans joined in detection order.
func (p *Pipeline) ExtractImage(path string) (string, error) {
	spans, err := p.recognizer.RecognizeFile(path)
	if err != nil {
		return "", err
	}
	return JoinSpans(spans), nil
}

// ExtractVideo decodes a video sequentially and runs OCR on every frame,
// accumulating one entry per frame. An unreadable video yields a zero-frame
// result; a decode error mid-stream truncates the result to the frames read
// so far. The returned result always carries a fresh identity.
func (p *Pipeline) ExtractVideo(ctx context.Context, path string) (*VideoResult, error) {
	result := &VideoResult{
		ID:     uuid.NewString(),
		File:   filepath.Base(path),
		Frames: [][]Span{},
	}

	decoder, err := p.openDecoder(path)
	if err != nil {
		log.Printf("Unreadable video %s: %v", path, err)
		return result, nil
	}
	defer decoder.Close()

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		frame, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Partial results are kept, not discarded.
			log.Printf("Decode error after %d frame(s) of %s: %v", len(result.Frames), path, err)
			break
		}

		spans, err := p.recognizer.RecognizeImage(frame)
		if err != nil {
			return result, fmt.Errorf("OCR failed on frame %d: %w", len(result.Frames), err)
		}
		result.Frames = append(result.Frames, spans)
	}

	return result, nil
}

// SelectFrame returns the joined text of one frame of an extracted video.
// frameIndex is 0-based; anything outside [0, frame_count) is ErrOutOfRange.
func SelectFrame(result *VideoResult, frameIndex int) (string, error) {
	if frameIndex < 0 || frameIndex >= len(result.Frames) {
		return "", fmt.Errorf("%w: frame %d of %d", models.ErrOutOfRange, frameIndex, len(result.Frames))
	}
	return JoinSpans(result.Frames[frameIndex]), nil
}

// JoinSpans concatenates span texts in detection order. The OCR engine's
// order is preserved as-is; no reading order is reconstructed.
func JoinSpans(spans []Span) string {
	texts := make([]string, 0, len(spans))
	for _, span := range spans {
		texts = append(texts, span.Text)
	}
	return strings.Join(texts, " ")
}
