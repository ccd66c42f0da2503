package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/omarwdev/visiontext/internal/chat"
	"github.com/omarwdev/visiontext/internal/models"
	"github.com/omarwdev/visiontext/internal/session"
)

// ChatHandler orchestrates one conversation request: resolve the session
// (recovering from expiry), produce an answer, and append the exchange to
// memory and transcript as one unit.
type ChatHandler struct {
	registry *session.Registry
	engine   *chat.Engine
}

func NewChatHandler(registry *session.Registry, engine *chat.Engine) *ChatHandler {
	return &ChatHandler{
		registry: registry,
		engine:   engine,
	}
}

// ProcessMessage answers a user message within its session. A missing or
// expired session is replaced with a fresh one and flagged on the response
// rather than surfaced as a failure.
func (h *ChatHandler) ProcessMessage(ctx context.Context, sessionID, text string) (*models.ChatResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty message", models.ErrInvalidInput)
	}

	sess, reset := h.registry.EnsureActive(sessionID, time.Now())
	if reset {
		log.Printf("Session %s reset, continuing as %s", sessionID, sess.ID)
	}

	answer := h.engine.Respond(ctx, text, sess.Memory)

	// The pair lands in memory and transcript together; Append never fails,
	// so a request either records the full exchange or nothing.
	sess.Memory.Append(ctx, text, answer)
	sess.AppendExchange(text, answer)

	return &models.ChatResponse{
		SessionID:    sess.ID,
		Answer:       answer,
		SessionReset: reset,
	}, nil
}

// History returns the session's transcript for rendering.
func (h *ChatHandler) History(sessionID string) *models.HistoryResponse {
	sess, reset := h.registry.EnsureActive(sessionID, time.Now())

	return &models.HistoryResponse{
		SessionID:    sess.ID,
		ChatHistory:  sess.Transcript,
		SessionReset: reset,
	}
}

// Logout destroys the session and everything it owns. Destroying an already
// absent session is a no-op.
func (h *ChatHandler) Logout(sessionID string) {
	h.registry.Destroy(sessionID)
}
