package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/omarwdev/visiontext/internal/llm"
	"github.com/omarwdev/visiontext/internal/models"
)

// summaryPrompt folds pruned turns into the running summary. The model sees
// the previous summary plus the lines being retired and returns a new summary.
const summaryPrompt = `Progressively summarize the lines of conversation provided, adding onto the previous summary and returning a new summary.

Current summary:
%s

New lines of conversation:
%s

New summary:`

// Estimator approximates the token cost of a text. It must be deterministic
// and monotone in text length; exactness is not required.
type Estimator func(text string) int

// Memory holds a running summary plus a tail of recent raw turns, bounded by
// an estimated token budget. It is owned by exactly one session and is never
// mutated concurrently; the session registry serializes access per session.
type Memory struct {
	summary    string
	turns      []models.Turn
	tokenLimit int
	provider   llm.Provider
	estimate   Estimator
}

// New creates a memory bounded to tokenLimit estimated tokens. Token cost is
// estimated with the tokenizer matching the given model identifier.
func New(provider llm.Provider, model string, tokenLimit int) *Memory {
	return &Memory{
		tokenLimit: tokenLimit,
		provider:   provider,
		estimate: func(text string) int {
			return llms.CountTokens(model, text)
		},
	}
}

// NewWithEstimator creates a memory with a caller-supplied cost estimator.
func NewWithEstimator(provider llm.Provider, tokenLimit int, estimate Estimator) *Memory {
	return &Memory{
		tokenLimit: tokenLimit,
		provider:   provider,
		estimate:   estimate,
	}
}

// Load returns the serialized conversation context: the summary first, then
// the unsummarized recent turns in chronological order.
func (m *Memory) Load() string {
	return render(m.summary, m.turns)
}

func render(summary string, turns []models.Turn) string {
	var builder strings.Builder

	if summary != "" {
		builder.WriteString(summary)
		builder.WriteString("\n")
	}
	for _, turn := range turns {
		builder.WriteString(fmt.Sprintf("%s: %s\n", turn.Sender, turn.Message))
	}

	return builder.String()
}

// Summary returns the accumulated summary text, empty until the first
// compaction.
func (m *Memory) Summary() string {
	return m.summary
}

// TurnCount returns the number of unsummarized recent turns.
func (m *Memory) TurnCount() int {
	return len(m.turns)
}

// Append records a user/AI turn pair and then drives the estimated cost of
// the full context back under the token limit by folding the oldest turns
// into the summary. Append never fails: if the summarization call is
// unavailable the oldest turns are dropped outright instead.
func (m *Memory) Append(ctx context.Context, userText, aiText string) {
	m.turns = append(m.turns,
		models.Turn{Sender: models.SenderUser, Message: userText},
		models.Turn{Sender: models.SenderAI, Message: aiText},
	)
	m.compact(ctx)
}

// compact peels turns oldest-first while the context exceeds the budget, then
// folds everything peeled into the summary with a single summarization call.
// The loop is bounded by the number of turns, so it always terminates even
// when one turn alone exceeds the limit.
func (m *Memory) compact(ctx context.Context) {
	var pruned []models.Turn
	for m.estimate(m.Load()) > m.tokenLimit && len(m.turns) > 0 {
		pruned = append(pruned, m.turns[0])
		m.turns = m.turns[1:]
	}

	if len(pruned) == 0 {
		return
	}

	newSummary, err := m.summarize(ctx, pruned)
	if err != nil {
		// Degraded path: the pruned turns are gone, but the conversation
		// stays available.
		log.Printf("Summarization unavailable, dropped %d turn(s): %v", len(pruned), err)
	} else {
		m.summary = newSummary
	}

	// The model is free to return a summary bigger than the budget; the
	// summary is bounded like everything else.
	m.trimSummary()
}

// trimSummary drops the summary's oldest text until the full context fits the
// budget again. The tail is already compliant after peeling, so an empty
// summary always satisfies the limit; monotone estimates make the cut point
// binary-searchable.
func (m *Memory) trimSummary() {
	if m.summary == "" || m.estimate(m.Load()) <= m.tokenLimit {
		return
	}

	runes := []rune(m.summary)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.estimate(render(string(runes[mid:]), m.turns)) <= m.tokenLimit {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	log.Printf("Summary exceeded the token budget, dropped %d leading character(s)", lo)
	m.summary = strings.TrimSpace(string(runes[lo:]))
}

func (m *Memory) summarize(ctx context.Context, pruned []models.Turn) (string, error) {
	var lines strings.Builder
	for _, turn := range pruned {
		lines.WriteString(fmt.Sprintf("%s: %s\n", turn.Sender, turn.Message))
	}

	prompt := fmt.Sprintf(summaryPrompt, m.summary, lines.String())

	summary, err := m.provider.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to fold turns into summary: %w", err)
	}

	return strings.TrimSpace(summary), nil
}
