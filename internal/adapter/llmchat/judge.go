package llmchat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"rag-harness/internal/domain"
)

const judgeSystemPrompt = `You are a strict relevance judge. You are given a question and a numbered list of text snippets. Decide for each snippet whether it contains information that helps answer the question. Respond with a JSON object of the form {"relevant_indices": [0, 2]} listing the numbers of the relevant snippets, and nothing else. If no snippet is relevant, respond with {"relevant_indices": []}.`

const judgeTemperature = 0.0

// Judge asks the chat model which snippets of a batch are relevant to a
// question. Unlike the expander it reports failures: the caller decides
// how to degrade.
type Judge struct {
	chat   domain.ChatCompleter
	logger *slog.Logger
}

func NewJudge(chat domain.ChatCompleter, logger *slog.Logger) *Judge {
	return &Judge{chat: chat, logger: logger}
}

var _ domain.RelevanceJudge = (*Judge)(nil)

type judgePayload struct {
	RelevantIndices []int `json:"relevant_indices"`
}

// JudgeBatch returns the indices of the texts judged relevant to
// question. The indices refer to positions within texts; values outside
// that range may occur and are the caller's problem.
func (j *Judge) JudgeBatch(ctx context.Context, question string, texts []string) ([]int, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\n\nSnippets:\n", question)
	for i, text := range texts {
		fmt.Fprintf(&sb, "[%d] %s\n\n", i, text)
	}

	raw, err := j.chat.Complete(ctx, judgeSystemPrompt, sb.String(), judgeTemperature)
	if err != nil {
		return nil, fmt.Errorf("relevance judgment failed: %w", err)
	}

	indices, ok := parseJudgePayload(raw)
	if !ok {
		return nil, fmt.Errorf("unparseable relevance judgment: %s", truncateForLog(raw, 200))
	}

	j.logger.Debug("relevance_batch_judged",
		slog.Int("batch_size", len(texts)),
		slog.Int("relevant", len(indices)))

	return indices, nil
}

func parseJudgePayload(raw string) ([]int, bool) {
	var payload judgePayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return payload.RelevantIndices, true
	}

	block, ok := extractJSONObject(raw)
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(block), &payload); err == nil {
		return payload.RelevantIndices, true
	}
	return nil, false
}
