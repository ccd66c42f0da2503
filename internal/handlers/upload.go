package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/omarwdev/visiontext/internal/models"
	"github.com/omarwdev/visiontext/internal/ocr"
	"github.com/omarwdev/visiontext/internal/session"
)

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

var allowedVideoExts = map[string]bool{
	".mp4": true,
}

// UploadHandler validates uploads and runs them through the OCR pipeline,
// tying every stored file and video result to the session that uploaded it.
type UploadHandler struct {
	registry     *session.Registry
	pipeline     *ocr.Pipeline
	uploadDir    string
	maxVideoSize int64
}

func NewUploadHandler(registry *session.Registry, pipeline *ocr.Pipeline, uploadDir string, maxVideoSize int64) *UploadHandler {
	return &UploadHandler{
		registry:     registry,
		pipeline:     pipeline,
		uploadDir:    uploadDir,
		maxVideoSize: maxVideoSize,
	}
}

// CheckImage validates an image upload's filename and returns its sanitized
// stored name.
func (h *UploadHandler) CheckImage(filename string) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("%w: no selected file", models.ErrInvalidInput)
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("%w: invalid file type for image", models.ErrInvalidInput)
	}
	return name, nil
}

// CheckVideo validates a video upload's filename and size and returns its
// sanitized stored name.
func (h *UploadHandler) CheckVideo(filename string, size int64) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("%w: no selected file", models.ErrInvalidInput)
	}
	if !allowedVideoExts[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("%w: invalid file type for video", models.ErrInvalidInput)
	}
	if size > h.maxVideoSize {
		return "", fmt.Errorf("%w: video file exceeds %d MB limit", models.ErrInvalidInput, h.maxVideoSize/(1024*1024))
	}
	return name, nil
}

// StoredPath returns where an upload with the given stored name lives.
func (h *UploadHandler) StoredPath(name string) string {
	return filepath.Join(h.uploadDir, name)
}

// ProcessImage runs OCR over a stored image upload and records the file as
// owned by the session.
func (h *UploadHandler) ProcessImage(sessionID, name string) (*models.ExtractResponse, error) {
	sess, _ := h.registry.EnsureActive(sessionID, time.Now())
	if err := h.registry.AttachFile(sess.ID, name); err != nil {
		return nil, err
	}

	text, err := h.pipeline.ExtractImage(h.StoredPath(name))
	if err != nil {
		return nil, err
	}

	return &models.ExtractResponse{
		SessionID:     sess.ID,
		Filename:      name,
		ExtractedText: text,
	}, nil
}

// ProcessVideo runs full-frame OCR extraction over a stored video upload and
// registers the result under the session. Extraction is synchronous and must
// complete before any frame can be selected.
func (h *UploadHandler) ProcessVideo(ctx context.Context, sessionID, name string) (*models.VideoUploadResponse, error) {
	sess, _ := h.registry.EnsureActive(sessionID, time.Now())
	if err := h.registry.AttachFile(sess.ID, name); err != nil {
		return nil, err
	}

	result, err := h.pipeline.ExtractVideo(ctx, h.StoredPath(name))
	if err != nil {
		return nil, err
	}
	if err := h.registry.AttachVideo(sess.ID, result); err != nil {
		return nil, err
	}

	return &models.VideoUploadResponse{
		SessionID:   sess.ID,
		VideoUID:    result.ID,
		Filename:    result.File,
		TotalFrames: result.FrameCount(),
	}, nil
}

// SelectFrame returns the joined OCR text of one frame of an extracted video.
// The caller's session goes through the expiry check first, so a video owned
// by an expired session is released here rather than lingering until the
// reaper runs.
func (h *UploadHandler) SelectFrame(sessionID, uid string, frameNumber int) (*models.FrameResponse, error) {
	h.registry.EnsureActive(sessionID, time.Now())

	result, err := h.registry.VideoResult(uid)
	if err != nil {
		return nil, err
	}

	text, err := ocr.SelectFrame(result, frameNumber)
	if err != nil {
		return nil, err
	}

	return &models.FrameResponse{
		VideoUID:      uid,
		FrameNumber:   frameNumber,
		TotalFrames:   result.FrameCount(),
		ExtractedText: text,
	}, nil
}

// VideoInfo reports the stored filename and frame count for a video result,
// applying the same expiry check as SelectFrame.
func (h *UploadHandler) VideoInfo(sessionID, uid string) (*models.VideoUploadResponse, error) {
	h.registry.EnsureActive(sessionID, time.Now())

	result, err := h.registry.VideoResult(uid)
	if err != nil {
		return nil, err
	}

	return &models.VideoUploadResponse{
		VideoUID:    uid,
		Filename:    result.File,
		TotalFrames: result.FrameCount(),
	}, nil
}
