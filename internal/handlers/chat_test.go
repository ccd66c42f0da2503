package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarwdev/visiontext/internal/chat"
	"github.com/omarwdev/visiontext/internal/memory"
	"github.com/omarwdev/visiontext/internal/models"
	"github.com/omarwdev/visiontext/internal/session"
)

type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Generate(context.Context, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newChatFixture(t *testing.T, provider *fakeProvider, timeout time.Duration) (*ChatHandler, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(timeout, t.TempDir(), func() *memory.Memory {
		return memory.NewWithEstimator(provider, 4096, func(s string) int { return len(s) })
	})
	return NewChatHandler(registry, chat.NewEngine(provider)), registry
}

func TestProcessMessageAppendsExchange(t *testing.T) {
	provider := &fakeProvider{response: "the corrected text"}
	handler, registry := newChatFixture(t, provider, 30*time.Minute)

	sess := registry.Create()

	response, err := handler.ProcessMessage(context.Background(), sess.ID, "fix this OCR text")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, response.SessionID)
	assert.Equal(t, "the corrected text", response.Answer)
	assert.False(t, response.SessionReset)

	require.Len(t, sess.Transcript, 2)
	assert.Equal(t, models.Turn{Sender: models.SenderUser, Message: "fix this OCR text"}, sess.Transcript[0])
	assert.Equal(t, models.Turn{Sender: models.SenderAI, Message: "the corrected text"}, sess.Transcript[1])
	assert.Contains(t, sess.Memory.Load(), "fix this OCR text")
}

func TestProcessMessageFallbackIsRecorded(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model offline")}
	handler, registry := newChatFixture(t, provider, 30*time.Minute)

	sess := registry.Create()

	response, err := handler.ProcessMessage(context.Background(), sess.ID, "hello")
	require.NoError(t, err, "a capability failure never aborts the conversation")
	assert.Equal(t, chat.FallbackMessage, response.Answer)

	// The fallback text, not an error, lands on the transcript.
	require.Len(t, sess.Transcript, 2)
	assert.Equal(t, chat.FallbackMessage, sess.Transcript[1].Message)
}

func TestProcessMessageRejectsEmptyInput(t *testing.T) {
	handler, _ := newChatFixture(t, &fakeProvider{response: "x"}, 30*time.Minute)

	_, err := handler.ProcessMessage(context.Background(), "any", "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestProcessMessageResetsExpiredSession(t *testing.T) {
	provider := &fakeProvider{response: "fresh answer"}
	handler, registry := newChatFixture(t, provider, time.Nanosecond)

	old := registry.Create()
	old.AppendExchange("old question", "old answer")
	time.Sleep(time.Millisecond)

	response, err := handler.ProcessMessage(context.Background(), old.ID, "hello again")
	require.NoError(t, err)
	assert.True(t, response.SessionReset, "caller observes the reset signal")
	assert.NotEqual(t, old.ID, response.SessionID)

	// The replacement session starts with only the new exchange.
	replacement, err := registry.Get(response.SessionID)
	require.NoError(t, err)
	require.Len(t, replacement.Transcript, 2)
	assert.Equal(t, "hello again", replacement.Transcript[0].Message)
}

func TestHistoryReturnsTranscriptInOrder(t *testing.T) {
	provider := &fakeProvider{response: "a"}
	handler, registry := newChatFixture(t, provider, 30*time.Minute)

	sess := registry.Create()
	_, err := handler.ProcessMessage(context.Background(), sess.ID, "first")
	require.NoError(t, err)
	_, err = handler.ProcessMessage(context.Background(), sess.ID, "second")
	require.NoError(t, err)

	history := handler.History(sess.ID)
	assert.False(t, history.SessionReset)
	require.Len(t, history.ChatHistory, 4)
	assert.Equal(t, "first", history.ChatHistory[0].Message)
	assert.Equal(t, "second", history.ChatHistory[2].Message)
}

func TestLogoutDestroysSession(t *testing.T) {
	handler, registry := newChatFixture(t, &fakeProvider{response: "x"}, 30*time.Minute)

	sess := registry.Create()
	handler.Logout(sess.ID)

	_, err := registry.Get(sess.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Logging out twice is harmless.
	handler.Logout(sess.ID)
}
