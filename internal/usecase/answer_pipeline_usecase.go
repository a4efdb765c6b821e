package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rag-harness/internal/domain"
	"rag-harness/internal/usecase/retrieval"
)

// PipelineKind names one of the answer generation strategies under
// comparison.
type PipelineKind string

const (
	// PipelineDirect answers straight from the filtered context.
	PipelineDirect PipelineKind = "direct"
	// PipelineSummary condenses the context into a summary first.
	PipelineSummary PipelineKind = "summary"
	// PipelineRewrite rewrites the question into a search query before
	// retrieving, then follows the summary path.
	PipelineRewrite PipelineKind = "rewrite"
	// PipelinePool retrieves with an expanded query pool and answers
	// from the merged, filtered context.
	PipelinePool PipelineKind = "pool"
)

// Human-readable outcomes for runs that end without an answer.
const (
	ReasonNoContext        = "no sources were found for this query"
	ReasonNothingRelevant  = "no retrieved source was judged relevant"
	ReasonGenerationFailed = "answer generation is currently unavailable"
)

// ErrUnknownPipeline is returned for a PipelineKind outside the set
// above.
var ErrUnknownPipeline = errors.New("unknown pipeline")

type AnswerPipelineInput struct {
	Query    string
	Pipeline PipelineKind
}

type AnswerPipelineOutput struct {
	Pipeline PipelineKind
	Answer   string
	// Reason explains an empty Answer. Exactly one of Answer and Reason
	// is set.
	Reason          string
	Summary         string
	RewrittenQuery  string
	Pool            domain.QueryPool
	Context         domain.Context
	FilteredContext domain.Context
	FilterAbstained bool
	Elapsed         time.Duration
}

// AnswerPipelineUsecase runs one retrieval+generation pipeline for a
// question.
type AnswerPipelineUsecase interface {
	Execute(ctx context.Context, input AnswerPipelineInput) (*AnswerPipelineOutput, error)
}

// PipelineSettings carries the tunables shared by all pipeline runs.
type PipelineSettings struct {
	PoolSize      int
	PrecisionPool bool
}

type answerPipelineUsecase struct {
	assembler *retrieval.Assembler
	merger    *retrieval.Merger
	filter    *retrieval.Filter
	expander  domain.QueryExpander
	generator domain.AnswerGenerator
	settings  PipelineSettings
	logger    *slog.Logger
}

func NewAnswerPipelineUsecase(
	assembler *retrieval.Assembler,
	merger *retrieval.Merger,
	filter *retrieval.Filter,
	expander domain.QueryExpander,
	generator domain.AnswerGenerator,
	settings PipelineSettings,
	logger *slog.Logger,
) AnswerPipelineUsecase {
	return &answerPipelineUsecase{
		assembler: assembler,
		merger:    merger,
		filter:    filter,
		expander:  expander,
		generator: generator,
		settings:  settings,
		logger:    logger,
	}
}

func (u *answerPipelineUsecase) Execute(ctx context.Context, input AnswerPipelineInput) (*AnswerPipelineOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.New("query is required")
	}

	start := time.Now()
	out := &AnswerPipelineOutput{Pipeline: input.Pipeline}

	switch input.Pipeline {
	case PipelineDirect:
		u.runDirect(ctx, input.Query, out)
	case PipelineSummary:
		u.runSummary(ctx, input.Query, out)
	case PipelineRewrite:
		u.runRewrite(ctx, input.Query, out)
	case PipelinePool:
		u.runPool(ctx, input.Query, out)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownPipeline, input.Pipeline)
	}

	out.Elapsed = time.Since(start)

	u.logger.Info("pipeline_completed",
		slog.String("pipeline", string(input.Pipeline)),
		slog.String("query", input.Query),
		slog.Int("context_records", len(out.Context)),
		slog.Bool("answered", out.Answer != ""),
		slog.Duration("elapsed", out.Elapsed))

	return out, nil
}

func (u *answerPipelineUsecase) runDirect(ctx context.Context, query string, out *AnswerPipelineOutput) {
	cx := u.assembler.Assemble(ctx, query)
	out.Context = cx
	if len(cx) == 0 {
		out.Reason = ReasonNoContext
		return
	}

	u.filterAndAnswer(ctx, query, cx, out)
}

func (u *answerPipelineUsecase) runSummary(ctx context.Context, query string, out *AnswerPipelineOutput) {
	cx := u.assembler.Assemble(ctx, query)
	out.Context = cx
	u.summarizeAndAnswer(ctx, query, cx, out)
}

func (u *answerPipelineUsecase) runRewrite(ctx context.Context, query string, out *AnswerPipelineOutput) {
	rewritten, err := u.generator.RewriteQuery(ctx, query)
	if err != nil || strings.TrimSpace(rewritten) == "" {
		if err != nil {
			u.logger.Warn("query_rewrite_failed",
				slog.String("query", query),
				slog.String("error", err.Error()))
		}
		rewritten = query
	}
	out.RewrittenQuery = rewritten

	cx := u.assembler.Assemble(ctx, rewritten)
	out.Context = cx
	// The summary and answer address the original question even when
	// retrieval ran on the rewritten query.
	u.summarizeAndAnswer(ctx, query, cx, out)
}

func (u *answerPipelineUsecase) runPool(ctx context.Context, query string, out *AnswerPipelineOutput) {
	pool := u.expander.GeneratePool(ctx, query, u.settings.PoolSize)
	out.Pool = pool

	merged := u.merger.MergePool(ctx, pool, u.settings.PrecisionPool)
	out.Context = merged
	if len(merged) == 0 {
		out.Reason = ReasonNoContext
		return
	}

	u.filterAndAnswer(ctx, query, merged, out)
}

func (u *answerPipelineUsecase) filterAndAnswer(ctx context.Context, query string, cx domain.Context, out *AnswerPipelineOutput) {
	result := u.filter.FilterContext(ctx, cx, query)
	out.FilteredContext = result.Records
	out.FilterAbstained = result.Abstained
	if len(result.Records) == 0 {
		out.Reason = ReasonNothingRelevant
		return
	}

	answer, err := u.generator.AnswerFromContext(ctx, result.Records, query)
	if err != nil {
		u.logger.Warn("answer_generation_failed",
			slog.String("pipeline", string(out.Pipeline)),
			slog.String("error", err.Error()))
		out.Reason = ReasonGenerationFailed
		return
	}
	out.Answer = answer
}

func (u *answerPipelineUsecase) summarizeAndAnswer(ctx context.Context, query string, cx domain.Context, out *AnswerPipelineOutput) {
	if len(cx) == 0 {
		out.Reason = ReasonNoContext
		return
	}

	summary, err := u.generator.Summarize(ctx, cx, query)
	if err != nil {
		u.logger.Warn("summarization_failed",
			slog.String("pipeline", string(out.Pipeline)),
			slog.String("error", err.Error()))
		out.Reason = ReasonGenerationFailed
		return
	}
	out.Summary = summary

	answer, err := u.generator.AnswerFromSummary(ctx, summary, query)
	if err != nil {
		u.logger.Warn("answer_generation_failed",
			slog.String("pipeline", string(out.Pipeline)),
			slog.String("error", err.Error()))
		out.Reason = ReasonGenerationFailed
		return
	}
	out.Answer = answer
}
