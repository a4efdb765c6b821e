package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// ComparePipelinesInput names the question both pipelines answer.
type ComparePipelinesInput struct {
	Query string
}

// PipelineRun is one side of a blind comparison. The Pipeline field is
// included for later de-anonymization; UIs must not show it before the
// evaluator votes.
type PipelineRun struct {
	Pipeline PipelineKind
	Answer   string
	Reason   string
	Elapsed  time.Duration
}

type ComparePipelinesOutput struct {
	Query string
	Left  PipelineRun
	Right PipelineRun
}

// ComparePipelinesUsecase runs the direct and pool pipelines for one
// question and returns them in randomized left/right order, so
// evaluators cannot develop a side bias.
type ComparePipelinesUsecase interface {
	Execute(ctx context.Context, input ComparePipelinesInput) (*ComparePipelinesOutput, error)
}

type comparePipelinesUsecase struct {
	pipelines AnswerPipelineUsecase
	mu        sync.Mutex
	rng       *rand.Rand
	logger    *slog.Logger
}

// NewComparePipelinesUsecase creates a comparison runner. The seed fixes
// the side-assignment sequence, which tests rely on.
func NewComparePipelinesUsecase(pipelines AnswerPipelineUsecase, seed int64, logger *slog.Logger) ComparePipelinesUsecase {
	return &comparePipelinesUsecase{
		pipelines: pipelines,
		rng:       rand.New(rand.NewSource(seed)),
		logger:    logger,
	}
}

func (u *comparePipelinesUsecase) Execute(ctx context.Context, input ComparePipelinesInput) (*ComparePipelinesOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, errors.New("query is required")
	}

	direct, err := u.pipelines.Execute(ctx, AnswerPipelineInput{Query: input.Query, Pipeline: PipelineDirect})
	if err != nil {
		return nil, err
	}
	pool, err := u.pipelines.Execute(ctx, AnswerPipelineInput{Query: input.Query, Pipeline: PipelinePool})
	if err != nil {
		return nil, err
	}

	out := &ComparePipelinesOutput{Query: input.Query}
	left, right := toRun(direct), toRun(pool)
	if u.flipSides() {
		left, right = right, left
	}
	out.Left = left
	out.Right = right

	u.logger.Info("pipeline_comparison_completed",
		slog.String("query", input.Query),
		slog.String("left", string(out.Left.Pipeline)),
		slog.Duration("direct_elapsed", direct.Elapsed),
		slog.Duration("pool_elapsed", pool.Elapsed))

	return out, nil
}

func (u *comparePipelinesUsecase) flipSides() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rng.Intn(2) == 1
}

func toRun(out *AnswerPipelineOutput) PipelineRun {
	return PipelineRun{
		Pipeline: out.Pipeline,
		Answer:   out.Answer,
		Reason:   out.Reason,
		Elapsed:  out.Elapsed,
	}
}
