package session

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omarwdev/visiontext/internal/memory"
	"github.com/omarwdev/visiontext/internal/models"
	"github.com/omarwdev/visiontext/internal/ocr"
)

// State describes where a session is in its lifecycle.
type State int

const (
	Active State = iota
	Expired
	Destroyed
)

// Session is the unit of per-user state isolation. Its transcript is
// append-only for the session's life. A session is serviced by at most one
// request at a time; the registry lock only guards the shared maps.
type Session struct {
	ID           string
	CreatedAt    time.Time
	LastActivity time.Time
	Transcript   []models.Turn
	Memory       *memory.Memory
	Files        []string
	VideoUID     string
}

// AppendExchange records a user/AI turn pair on the transcript, in order.
func (s *Session) AppendExchange(userText, aiText string) {
	s.Transcript = append(s.Transcript,
		models.Turn{Sender: models.SenderUser, Message: userText},
		models.Turn{Sender: models.SenderAI, Message: aiText},
	)
}

// Registry owns every live session and the video results they hold. It is the
// only shared mutable state in the core; all map access goes through its lock.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	videos    map[string]*ocr.VideoResult
	timeout   time.Duration
	uploadDir string
	newMemory func() *memory.Memory
}

// NewRegistry creates a registry with the given expiry timeout. newMemory is
// called once per created session to build its fresh conversation memory.
func NewRegistry(timeout time.Duration, uploadDir string, newMemory func() *memory.Memory) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		videos:    make(map[string]*ocr.VideoResult),
		timeout:   timeout,
		uploadDir: uploadDir,
		newMemory: newMemory,
	}
}

// Create allocates a fresh session with a unique identity, an empty
// transcript and a new memory, and registers it.
func (r *Registry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createLocked()
}

func (r *Registry) createLocked() *Session {
	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		Memory:       r.newMemory(),
	}
	r.sessions[session.ID] = session

	return session
}

// Get returns the live session for an identity, or ErrNotFound if it was
// never created, was destroyed, or already reaped.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	return session, nil
}

// Destroy removes a session and releases everything it owns: uploaded files,
// its video result, and its memory. Destroying an absent identity is a no-op.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.destroyLocked(id)
}

func (r *Registry) destroyLocked(id string) {
	session, ok := r.sessions[id]
	if !ok {
		return
	}

	// File deletion is best-effort: one failure must not abort the rest.
	for _, name := range session.Files {
		path := filepath.Join(r.uploadDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Error deleting file %s: %v", path, err)
		}
	}

	if session.VideoUID != "" {
		delete(r.videos, session.VideoUID)
	}
	delete(r.sessions, id)
}

// CheckExpiry reports whether a session is still active at the given instant.
// Pure function of the session's creation time and the registry timeout.
func (r *Registry) CheckExpiry(session *Session, now time.Time) State {
	if now.Sub(session.CreatedAt) > r.timeout {
		return Expired
	}
	return Active
}

// EnsureActive resolves an identity to a live session, replacing expired or
// missing sessions with a fresh one. The second return value reports whether
// state was reset, so the caller can tell the user to restart the flow.
func (r *Registry) EnsureActive(id string, now time.Time) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return r.createLocked(), true
	}

	if r.CheckExpiry(session, now) == Expired {
		r.destroyLocked(id)
		return r.createLocked(), true
	}

	session.LastActivity = now
	return session, false
}

// Touch updates a session's last-activity timestamp.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		session.LastActivity = time.Now()
	}
}

// AttachFile records an uploaded file as owned by the session so it is
// removed when the session is destroyed.
func (r *Registry) AttachFile(id, filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}
	session.Files = append(session.Files, filename)
	return nil
}

// AttachVideo registers a video result and hands its exclusive ownership to
// the session. A previously owned result is released first.
func (r *Registry) AttachVideo(id string, result *ocr.VideoResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: session %s", models.ErrNotFound, id)
	}

	if session.VideoUID != "" {
		delete(r.videos, session.VideoUID)
	}
	r.videos[result.ID] = result
	session.VideoUID = result.ID
	return nil
}

// VideoResult looks up a registered video result by its identity.
func (r *Registry) VideoResult(uid string) (*ocr.VideoResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.videos[uid]
	if !ok {
		return nil, fmt.Errorf("%w: video result %s", models.ErrNotFound, uid)
	}
	return result, nil
}

// CleanupExpired destroys every expired session and returns how many were
// removed.
func (r *Registry) CleanupExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range r.sessions {
		if r.CheckExpiry(session, now) == Expired {
			r.destroyLocked(id)
			removed++
		}
	}
	return removed
}

// Stats returns current session counts.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	active := 0
	for _, session := range r.sessions {
		if r.CheckExpiry(session, now) == Active {
			active++
		}
	}

	return map[string]int{
		"total":  len(r.sessions),
		"active": active,
		"videos": len(r.videos),
	}
}
