package session

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often abandoned sessions are reaped when no
// interval is configured.
const DefaultCleanupInterval = 1 * time.Minute

// CleanupService periodically destroys expired sessions so their uploaded
// files are released even when no further request arrives for them. Expiry is
// still checked on every request; the service only reclaims abandoned state.
type CleanupService struct {
	registry *Registry
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewCleanupService creates a cleanup service with the default interval.
func NewCleanupService(registry *Registry) *CleanupService {
	return NewCleanupServiceWithInterval(registry, DefaultCleanupInterval)
}

// NewCleanupServiceWithInterval creates a cleanup service with a custom interval.
func NewCleanupServiceWithInterval(registry *Registry, interval time.Duration) *CleanupService {
	return &CleanupService{
		registry: registry,
		interval: interval,
	}
}

// Start begins the periodic cleanup. Starting a running service is a no-op.
func (c *CleanupService) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.run(cleanupCtx)
}

// Stop halts the cleanup and waits for the reaper goroutine to finish.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// IsRunning reports whether the reaper goroutine is active.
func (c *CleanupService) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *CleanupService) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.running = false
		if c.done != nil {
			close(c.done)
		}
		c.mu.Unlock()
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.reap()

	for {
		select {
		case <-ctx.Done():
			log.Println("Session cleanup service stopping")
			return
		case <-ticker.C:
			c.reap()
		}
	}
}

func (c *CleanupService) reap() {
	if removed := c.registry.CleanupExpired(); removed > 0 {
		log.Printf("Cleaned up %d expired session(s)", removed)
	}
}
