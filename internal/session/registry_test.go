package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarwdev/visiontext/internal/memory"
	"github.com/omarwdev/visiontext/internal/models"
	"github.com/omarwdev/visiontext/internal/ocr"
)

type stubProvider struct{}

func (stubProvider) Generate(context.Context, string) (string, error) {
	return "summary", nil
}

func newTestRegistry(t *testing.T, timeout time.Duration) *Registry {
	t.Helper()
	return NewRegistry(timeout, t.TempDir(), func() *memory.Memory {
		return memory.NewWithEstimator(stubProvider{}, 4096, func(s string) int { return len(s) })
	})
}

func TestCreateAndGet(t *testing.T) {
	registry := newTestRegistry(t, time.Minute)

	created := registry.Create()
	require.NotEmpty(t, created.ID)
	assert.Empty(t, created.Transcript)
	assert.NotNil(t, created.Memory)

	got, err := registry.Get(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, got)

	other := registry.Create()
	assert.NotEqual(t, created.ID, other.ID, "identities must be unique")
}

func TestGetUnknownSession(t *testing.T) {
	registry := newTestRegistry(t, time.Minute)

	_, err := registry.Get("no-such-id")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDestroyIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t, time.Minute)

	created := registry.Create()
	registry.Destroy(created.ID)

	_, err := registry.Get(created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Second destroy is a no-op, not an error.
	registry.Destroy(created.ID)
	registry.Destroy("never-existed")
}

func TestDestroyDeletesOwnedFiles(t *testing.T) {
	dir := t.TempDir()
	registry := NewRegistry(time.Minute, dir, func() *memory.Memory {
		return memory.NewWithEstimator(stubProvider{}, 4096, func(s string) int { return len(s) })
	})

	created := registry.Create()

	present := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(present, []byte("img"), 0o644))
	require.NoError(t, registry.AttachFile(created.ID, "photo.png"))
	// A file that is already gone must not abort cleanup of the rest.
	require.NoError(t, registry.AttachFile(created.ID, "missing.mp4"))

	other := filepath.Join(dir, "other.png")
	require.NoError(t, os.WriteFile(other, []byte("img"), 0o644))

	registry.Destroy(created.ID)

	_, err := os.Stat(present)
	assert.True(t, os.IsNotExist(err), "owned file should be deleted")
	_, err = os.Stat(other)
	assert.NoError(t, err, "files owned by nobody stay put")
}

func TestCheckExpiry(t *testing.T) {
	registry := newTestRegistry(t, 30*time.Minute)

	created := registry.Create()

	assert.Equal(t, Active, registry.CheckExpiry(created, created.CreatedAt.Add(29*time.Minute)))
	assert.Equal(t, Expired, registry.CheckExpiry(created, created.CreatedAt.Add(31*time.Minute)))
}

func TestEnsureActiveCreatesWhenMissing(t *testing.T) {
	registry := newTestRegistry(t, time.Minute)

	sess, reset := registry.EnsureActive("stale-cookie-value", time.Now())
	require.NotNil(t, sess)
	assert.True(t, reset, "caller must learn the state was reset")
	assert.NotEqual(t, "stale-cookie-value", sess.ID)
}

func TestEnsureActiveReplacesExpired(t *testing.T) {
	registry := newTestRegistry(t, 30*time.Minute)

	created := registry.Create()
	created.AppendExchange("question", "answer")

	sess, reset := registry.EnsureActive(created.ID, created.CreatedAt.Add(31*time.Minute))
	assert.True(t, reset)
	assert.NotEqual(t, created.ID, sess.ID)
	assert.Empty(t, sess.Transcript, "chat history starts empty after a reset")

	_, err := registry.Get(created.ID)
	assert.ErrorIs(t, err, models.ErrNotFound, "the expired session is destroyed")
}

func TestEnsureActiveKeepsLiveSession(t *testing.T) {
	registry := newTestRegistry(t, 30*time.Minute)

	created := registry.Create()
	created.AppendExchange("question", "answer")

	sess, reset := registry.EnsureActive(created.ID, created.CreatedAt.Add(time.Minute))
	assert.False(t, reset)
	assert.Same(t, created, sess)
	assert.Len(t, sess.Transcript, 2)
}

func TestVideoOwnership(t *testing.T) {
	registry := newTestRegistry(t, time.Minute)

	created := registry.Create()
	result := &ocr.VideoResult{ID: "vid-1", File: "clip.mp4", Frames: [][]ocr.Span{{}}}
	require.NoError(t, registry.AttachVideo(created.ID, result))

	got, err := registry.VideoResult("vid-1")
	require.NoError(t, err)
	assert.Same(t, result, got)

	// A replacement video releases the old one.
	require.NoError(t, registry.AttachVideo(created.ID, &ocr.VideoResult{ID: "vid-2"}))
	_, err = registry.VideoResult("vid-1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Destroying the session releases its video result.
	registry.Destroy(created.ID)
	_, err = registry.VideoResult("vid-2")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCleanupExpired(t *testing.T) {
	registry := newTestRegistry(t, 50*time.Millisecond)

	registry.Create()
	registry.Create()

	time.Sleep(80 * time.Millisecond)
	fresh := registry.Create()

	removed := registry.CleanupExpired()
	assert.Equal(t, 2, removed)

	stats := registry.Stats()
	assert.Equal(t, 1, stats["total"])

	_, err := registry.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestConcurrentRegistryAccess(t *testing.T) {
	registry := newTestRegistry(t, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sess := registry.Create()
				if _, err := registry.Get(sess.ID); err != nil {
					t.Errorf("worker %d: %v", n, err)
				}
				registry.Touch(sess.ID)
				if err := registry.AttachFile(sess.ID, fmt.Sprintf("f-%d-%d.png", n, j)); err != nil && !errors.Is(err, models.ErrNotFound) {
					t.Errorf("worker %d: %v", n, err)
				}
				registry.Destroy(sess.ID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Stats()["total"])
}
