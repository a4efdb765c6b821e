package domain

import "context"

// ChatCompleter sends one system+user exchange to a chat model and
// returns the assistant text.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string, temperature float32) (string, error)
}

// QueryExpander builds a pool of search queries from a user question.
// Implementations never fail: when expansion is unavailable the pool
// degrades to just the original question.
type QueryExpander interface {
	GeneratePool(ctx context.Context, question string, size int) QueryPool
}

// RelevanceJudge decides which of the numbered texts answer the
// question. The returned values are indices into texts; callers must
// treat out-of-range indices as noise.
type RelevanceJudge interface {
	JudgeBatch(ctx context.Context, question string, texts []string) ([]int, error)
}

// AnswerGenerator covers the generation steps of the answer pipelines.
type AnswerGenerator interface {
	Summarize(ctx context.Context, cx Context, question string) (string, error)
	AnswerFromSummary(ctx context.Context, summary, question string) (string, error)
	AnswerFromContext(ctx context.Context, cx Context, question string) (string, error)
	RewriteQuery(ctx context.Context, question string) (string, error)
}
