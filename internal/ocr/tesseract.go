package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/omarwdev/visiontext/internal/models"
)

// TesseractRecognizer implements Recognizer on top of the Tesseract engine.
// A gosseract client is not safe for concurrent use, so one short-lived
// client is created per call.
type TesseractRecognizer struct {
	languages []string
	modelDir  string
}

// NewTesseractRecognizer creates a recognizer for the given Tesseract
// language codes (e.g. "eng", "ara"). modelDir optionally points at a custom
// tessdata directory; empty means the system default.
func NewTesseractRecognizer(languages []string, modelDir string) *TesseractRecognizer {
	return &TesseractRecognizer{
		languages: languages,
		modelDir:  modelDir,
	}
}

func (t *TesseractRecognizer) RecognizeFile(path string) ([]Span, error) {
	client, err := t.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("%w: failed to load image %s: %v", models.ErrUnavailable, path, err)
	}

	return t.readSpans(client)
}

func (t *TesseractRecognizer) RecognizeImage(img image.Image) ([]Span, error) {
	client, err := t.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: failed to load frame: %v", models.ErrUnavailable, err)
	}

	return t.readSpans(client)
}

func (t *TesseractRecognizer) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(t.languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set OCR languages: %v", models.ErrUnavailable, err)
	}
	if t.modelDir != "" {
		if err := client.SetTessdataPrefix(t.modelDir); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to set tessdata prefix: %v", models.ErrUnavailable, err)
		}
	}

	return client, nil
}

func (t *TesseractRecognizer) readSpans(client *gosseract.Client) ([]Span, error) {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("%w: OCR recognition failed: %v", models.ErrUnavailable, err)
	}

	spans := make([]Span, 0, len(boxes))
	for _, box := range boxes {
		spans = append(spans, Span{
			Box:        box.Box,
			Text:       box.Word,
			Confidence: box.Confidence,
		})
	}
	return spans, nil
}
