package llmchat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"rag-harness/internal/domain"
)

const expanderSystemPrompt = `You are an expert search query generator. Given a user question, produce diverse web search queries that together cover the information need: paraphrases, keyword-only forms, and queries for specific aspects of the question. Respond with a JSON object of the form {"queries": ["...", "..."]} and nothing else.`

const expanderTemperature = 0.7

// Expander builds query pools via the chat model. It never fails: any
// expansion problem degrades the pool to just the original question.
type Expander struct {
	chat   domain.ChatCompleter
	logger *slog.Logger
}

func NewExpander(chat domain.ChatCompleter, logger *slog.Logger) *Expander {
	return &Expander{chat: chat, logger: logger}
}

var _ domain.QueryExpander = (*Expander)(nil)

type poolPayload struct {
	Queries []string `json:"queries"`
}

// GeneratePool returns an ordered pool of at most size queries with the
// original question at position 0. Duplicates and blanks from the model
// are skipped.
func (e *Expander) GeneratePool(ctx context.Context, question string, size int) domain.QueryPool {
	pool := domain.QueryPool{question}
	if size <= 1 {
		return pool
	}

	user := fmt.Sprintf("Generate %d search queries for the following question.\n\nQuestion: %s", size-1, question)
	raw, err := e.chat.Complete(ctx, expanderSystemPrompt, user, expanderTemperature)
	if err != nil {
		e.logger.Warn("query_expansion_failed",
			slog.String("question", question),
			slog.String("error", err.Error()))
		return pool
	}

	queries, ok := parsePoolPayload(raw)
	if !ok {
		e.logger.Warn("query_expansion_unparseable",
			slog.String("question", question),
			slog.String("response", truncateForLog(raw, 200)))
		return pool
	}

	seen := map[string]struct{}{question: {}}
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		pool = append(pool, q)
		if len(pool) == size {
			break
		}
	}

	e.logger.Info("query_pool_generated",
		slog.String("question", question),
		slog.Int("pool_size", len(pool)))

	return pool
}

func parsePoolPayload(raw string) ([]string, bool) {
	var payload poolPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && len(payload.Queries) > 0 {
		return payload.Queries, true
	}

	block, ok := extractJSONObject(raw)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(block), &payload); err == nil && len(payload.Queries) > 0 {
		return payload.Queries, true
	}
	return nil, false
}
