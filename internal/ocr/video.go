package ocr

import (
	"fmt"
	"image"
	"io"

	"gocv.io/x/gocv"
)

// gocvDecoder reads frames from a video file through OpenCV.
type gocvDecoder struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

// OpenVideoFile opens a video for sequential frame decoding. The returned
// decoder yields frames until the container's end of stream.
func OpenVideoFile(path string) (FrameDecoder, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}

	return &gocvDecoder{
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

func (d *gocvDecoder) Next() (image.Image, error) {
	if !d.capture.IsOpened() || !d.capture.Read(&d.mat) || d.mat.Empty() {
		return nil, io.EOF
	}

	img, err := d.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

func (d *gocvDecoder) Close() error {
	if err := d.mat.Close(); err != nil {
		return err
	}
	return d.capture.Close()
}
