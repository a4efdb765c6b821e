package llmchat

import (
	"context"
	"log/slog"
	"strings"

	"rag-harness/internal/domain"
)

const (
	summarizeSystemPrompt = `You are a helpful AI assistant. Your task is to synthesize the provided, fragmented context snippets into a single, concise, and neutral summary. Focus only on the facts presented in the context that are relevant to the user's question. Do not add outside knowledge.`

	answerSystemPrompt = `You are a helpful AI assistant. Answer the user's question using only the provided material. If the material does not contain the answer, say so. Keep the answer short, at most five sentences.`

	rewriteSystemPrompt = `You are a search expert. Rewrite the user's question into a single, keyword-focused web search query. Output only the rewritten query, without quotes or explanations.`

	summarizeTemperature = 0.2
	answerTemperature    = 0.1
	rewriteTemperature   = 0.1
)

// Generator implements the generation steps of the answer pipelines on
// top of a ChatCompleter. An optional PromptSeedPolicy appends its
// marker token to a deterministic share of user prompts.
type Generator struct {
	chat   domain.ChatCompleter
	seed   domain.PromptSeedPolicy
	logger *slog.Logger
}

func NewGenerator(chat domain.ChatCompleter, seed domain.PromptSeedPolicy, logger *slog.Logger) *Generator {
	return &Generator{chat: chat, seed: seed, logger: logger}
}

var _ domain.AnswerGenerator = (*Generator)(nil)

func (g *Generator) Summarize(ctx context.Context, cx domain.Context, question string) (string, error) {
	if len(cx) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("Please summarize the key information in the following context regarding the question: '")
	sb.WriteString(question)
	sb.WriteString("'\n\nContext Snippets:\n")
	for _, text := range cx.Texts() {
		sb.WriteString("- ")
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return g.complete(ctx, summarizeSystemPrompt, sb.String(), question, summarizeTemperature)
}

func (g *Generator) AnswerFromSummary(ctx context.Context, summary, question string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nSummary of retrieved material:\n")
	sb.WriteString(summary)

	return g.complete(ctx, answerSystemPrompt, sb.String(), question, answerTemperature)
}

func (g *Generator) AnswerFromContext(ctx context.Context, cx domain.Context, question string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nRetrieved snippets:\n")
	for _, text := range cx.Texts() {
		sb.WriteString("- ")
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return g.complete(ctx, answerSystemPrompt, sb.String(), question, answerTemperature)
}

func (g *Generator) RewriteQuery(ctx context.Context, question string) (string, error) {
	rewritten, err := g.complete(ctx, rewriteSystemPrompt, question, question, rewriteTemperature)
	if err != nil {
		return "", err
	}
	return strings.Trim(rewritten, `"' `), nil
}

func (g *Generator) complete(ctx context.Context, system, user, question string, temperature float32) (string, error) {
	if g.seed != nil && g.seed.Include(question) {
		user = user + "\n" + g.seed.Token()
		g.logger.Debug("prompt_seed_applied")
	}
	return g.chat.Complete(ctx, system, user, temperature)
}
