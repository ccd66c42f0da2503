package chat

import (
	"context"
	"log"

	"github.com/tmc/langchaingo/prompts"

	"github.com/omarwdev/visiontext/internal/llm"
	"github.com/omarwdev/visiontext/internal/memory"
)

// conversationTemplate embeds the memory's context and the new question into
// a single prompt.
const conversationTemplate = `You are a helpful and kind AI. Your answers are not tall.
Conversation history:
{{.history}}
Human: {{.question}}
AI:`

// FallbackMessage is returned whenever the language capability cannot produce
// an answer. It is appended to the transcript like any other answer so the
// conversation flow stays unbroken.
const FallbackMessage = "لم أتمكن من إنشاء استجابة."

// Engine turns a user query plus conversation memory into an answer. It is
// side-effect-free apart from the language-capability call: the caller is
// responsible for appending the exchange to memory and transcript.
type Engine struct {
	provider llm.Provider
	template prompts.PromptTemplate
}

// NewEngine creates a conversation engine over the given provider.
func NewEngine(provider llm.Provider) *Engine {
	return &Engine{
		provider: provider,
		template: prompts.NewPromptTemplate(conversationTemplate, []string{"history", "question"}),
	}
}

// Respond renders the prompt from the memory's context and the query, invokes
// the language capability once, and returns its output. A failed call yields
// the fixed fallback text, never an error.
func (e *Engine) Respond(ctx context.Context, query string, mem *memory.Memory) string {
	prompt, err := e.template.Format(map[string]any{
		"history":  mem.Load(),
		"question": query,
	})
	if err != nil {
		log.Printf("Failed to render conversation prompt: %v", err)
		return FallbackMessage
	}

	answer, err := e.provider.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Language capability unavailable: %v", err)
		return FallbackMessage
	}

	return answer
}
