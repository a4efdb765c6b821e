package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"rag-harness/internal/domain"
	"rag-harness/internal/usecase/retrieval"
)

// RetrieveContextInput defines the parameters of a context-only
// retrieval, without any generation step.
type RetrieveContextInput struct {
	Query string
	// Precision requests the strict all-terms match, falling back to the
	// broad match when it yields nothing.
	Precision bool
	// UsePool expands the query into a pool and merges the per-query
	// contexts.
	UsePool bool
	// PoolSize overrides the configured pool size when positive.
	PoolSize int
}

type RetrieveContextOutput struct {
	// Pool is the query pool used for retrieval. Without UsePool it
	// holds just the original query.
	Pool    domain.QueryPool
	Records domain.Context
}

// RetrieveContextUsecase exposes raw context assembly for inspection and
// debugging of retrieval quality.
type RetrieveContextUsecase interface {
	Execute(ctx context.Context, input RetrieveContextInput) (*RetrieveContextOutput, error)
}

type retrieveContextUsecase struct {
	assembler *retrieval.Assembler
	merger    *retrieval.Merger
	expander  domain.QueryExpander
	settings  PipelineSettings
	logger    *slog.Logger
}

func NewRetrieveContextUsecase(
	assembler *retrieval.Assembler,
	merger *retrieval.Merger,
	expander domain.QueryExpander,
	settings PipelineSettings,
	logger *slog.Logger,
) RetrieveContextUsecase {
	return &retrieveContextUsecase{
		assembler: assembler,
		merger:    merger,
		expander:  expander,
		settings:  settings,
		logger:    logger,
	}
}

func (u *retrieveContextUsecase) Execute(ctx context.Context, input RetrieveContextInput) (*RetrieveContextOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.New("query is required")
	}

	if !input.UsePool {
		records := u.retrieveSingle(ctx, input.Query, input.Precision)
		return &RetrieveContextOutput{
			Pool:    domain.QueryPool{input.Query},
			Records: records,
		}, nil
	}

	size := input.PoolSize
	if size <= 0 {
		size = u.settings.PoolSize
	}
	pool := u.expander.GeneratePool(ctx, input.Query, size)
	records := u.merger.MergePool(ctx, pool, input.Precision)

	return &RetrieveContextOutput{
		Pool:    pool,
		Records: records,
	}, nil
}

func (u *retrieveContextUsecase) retrieveSingle(ctx context.Context, query string, precision bool) domain.Context {
	if !precision {
		return u.assembler.Assemble(ctx, query)
	}

	records := u.assembler.AssemblePrecise(ctx, query)
	if len(records) > 0 {
		return records
	}
	return u.assembler.Assemble(ctx, query)
}
