package ocr

import (
	"image"
)

// Span is one recognized piece of text: its bounding box, the text itself,
// and the engine's confidence. Spans arrive in whatever order the OCR engine
// detects them; no reading order is implied.
type Span struct {
	Box        image.Rectangle `json:"box"`
	Text       string          `json:"text"`
	Confidence float64         `json:"confidence"`
}

// VideoResult is the full set of per-frame OCR outputs produced from one
// uploaded video, keyed by an opaque identity and owned by a single session.
type VideoResult struct {
	ID     string   `json:"id"`
	File   string   `json:"file"`
	Frames [][]Span `json:"frames"`
}

// FrameCount returns the number of frames that were successfully decoded.
func (v *VideoResult) FrameCount() int {
	return len(v.Frames)
}

// Recognizer defines the OCR capability boundary: given an image, produce the
// recognized text spans.
type Recognizer interface {
	// RecognizeFile runs OCR on an image file on disk.
	RecognizeFile(path string) ([]Span, error)

	// RecognizeImage runs OCR on an in-memory raster image.
	RecognizeImage(img image.Image) ([]Span, error)
}

// FrameDecoder yields a video's frames sequentially. Next returns io.EOF when
// the stream is exhausted.
type FrameDecoder interface {
	Next() (image.Image, error)
	Close() error
}

// DecoderFactory opens a video file for frame-by-frame decoding.
type DecoderFactory func(path string) (FrameDecoder, error)
