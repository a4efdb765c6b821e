package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rag-harness/internal/domain"
	"rag-harness/internal/usecase"
	"rag-harness/internal/usecase/retrieval"
)

func newRetrieveContext(store domain.SnippetStore, expander domain.QueryExpander) usecase.RetrieveContextUsecase {
	logger := testLogger()
	assembler := retrieval.NewAssembler(store, domain.SerpSearchOptions{}, logger)
	merger := retrieval.NewMerger(assembler, 0, logger)
	settings := usecase.PipelineSettings{PoolSize: 5}
	return usecase.NewRetrieveContextUsecase(assembler, merger, expander, settings, logger)
}

func TestRetrieveContext_Single(t *testing.T) {
	ctx := context.Background()
	store := new(mockSnippetStore)
	seedSingleSerp(store, ctx, "query", "s1", "n1", 0.9)

	uc := newRetrieveContext(store, new(mockExpander))
	out, err := uc.Execute(ctx, usecase.RetrieveContextInput{Query: "query"})

	assert.NoError(t, err)
	assert.Equal(t, domain.QueryPool{"query"}, out.Pool)
	assert.Len(t, out.Records, 1)
	assert.Equal(t, "n1", out.Records[0].SnippetID)
}

func TestRetrieveContext_PrecisionFallsBack(t *testing.T) {
	ctx := context.Background()
	store := new(mockSnippetStore)

	store.On("FindSerps", ctx, "query", mock.MatchedBy(func(opts domain.SerpSearchOptions) bool {
		return opts.RequireAllTerms
	})).Return([]domain.SerpResult{}, nil)
	store.On("FindSerps", ctx, "query", mock.MatchedBy(func(opts domain.SerpSearchOptions) bool {
		return !opts.RequireAllTerms
	})).Return([]domain.SerpResult{
		{ID: "s1", Query: "query", Score: 0.5},
	}, nil)
	store.On("FindSnippets", ctx, []string{"s1"}).Return([]domain.SnippetFragment{
		{SerpID: "s1", SnippetID: "n1", Text: longText("broad"), Rank: 1},
	}, nil)

	uc := newRetrieveContext(store, new(mockExpander))
	out, err := uc.Execute(ctx, usecase.RetrieveContextInput{Query: "query", Precision: true})

	assert.NoError(t, err)
	assert.Len(t, out.Records, 1)
	store.AssertExpectations(t)
}

func TestRetrieveContext_PoolUsesConfiguredSize(t *testing.T) {
	ctx := context.Background()
	store := new(mockSnippetStore)
	expander := new(mockExpander)

	expander.On("GeneratePool", ctx, "query", 5).Return(domain.QueryPool{"query"})
	seedSingleSerp(store, ctx, "query", "s1", "n1", 0.9)

	uc := newRetrieveContext(store, expander)
	out, err := uc.Execute(ctx, usecase.RetrieveContextInput{Query: "query", UsePool: true})

	assert.NoError(t, err)
	assert.Equal(t, domain.QueryPool{"query"}, out.Pool)
	assert.Len(t, out.Records, 1)
	expander.AssertExpectations(t)
}

func TestRetrieveContext_PoolSizeOverride(t *testing.T) {
	ctx := context.Background()
	store := new(mockSnippetStore)
	expander := new(mockExpander)

	expander.On("GeneratePool", ctx, "query", 25).Return(domain.QueryPool{"query"})
	store.On("FindSerps", ctx, "query", mock.Anything).Return([]domain.SerpResult{}, nil)

	uc := newRetrieveContext(store, expander)
	_, err := uc.Execute(ctx, usecase.RetrieveContextInput{Query: "query", UsePool: true, PoolSize: 25})

	assert.NoError(t, err)
	expander.AssertExpectations(t)
}

func TestRetrieveContext_EmptyQueryRejected(t *testing.T) {
	uc := newRetrieveContext(new(mockSnippetStore), new(mockExpander))

	_, err := uc.Execute(context.Background(), usecase.RetrieveContextInput{Query: "   "})
	assert.Error(t, err)
}
