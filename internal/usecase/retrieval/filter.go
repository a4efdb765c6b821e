package retrieval

import (
	"context"
	"log/slog"

	"rag-harness/internal/domain"
)

// FilterResult distinguishes two empty-looking outcomes: Abstained true
// means every judge call failed and Records holds the unfiltered input;
// empty Records with Abstained false means the judge saw everything and
// kept nothing.
type FilterResult struct {
	Records   domain.Context
	Abstained bool
}

// Filter reduces a Context to the records a judge marks relevant.
// Availability wins over precision: a failed batch is retained in full
// rather than dropped.
type Filter struct {
	judge     domain.RelevanceJudge
	batchSize int
	logger    *slog.Logger
}

func NewFilter(judge domain.RelevanceJudge, batchSize int, logger *slog.Logger) *Filter {
	if batchSize <= 0 {
		batchSize = DefaultFilterBatchSize
	}
	return &Filter{judge: judge, batchSize: batchSize, logger: logger}
}

// FilterContext judges cx in fixed-size batches, sequentially, and
// returns the kept records in their original relative order.
func (f *Filter) FilterContext(ctx context.Context, cx domain.Context, question string) FilterResult {
	if len(cx) == 0 {
		return FilterResult{}
	}

	var kept domain.Context
	batches := 0
	failures := 0
	for start := 0; start < len(cx); start += f.batchSize {
		end := start + f.batchSize
		if end > len(cx) {
			end = len(cx)
		}
		batch := cx[start:end]
		batches++

		indices, err := f.judge.JudgeBatch(ctx, question, batch.Texts())
		if err != nil {
			failures++
			f.logger.Warn("relevance_judgment_failed",
				slog.Int("batch_start", start),
				slog.Int("batch_size", len(batch)),
				slog.String("error", err.Error()))
			kept = append(kept, batch...)
			continue
		}

		relevant := make(map[int]struct{}, len(indices))
		for _, idx := range indices {
			if idx < 0 || idx >= len(batch) {
				f.logger.Warn("relevance_index_out_of_range",
					slog.Int("index", idx),
					slog.Int("batch_size", len(batch)))
				continue
			}
			relevant[idx] = struct{}{}
		}
		for i, record := range batch {
			if _, ok := relevant[i]; ok {
				kept = append(kept, record)
			}
		}
	}

	abstained := failures == batches

	f.logger.Info("relevance_filter_completed",
		slog.String("question", question),
		slog.Int("input_records", len(cx)),
		slog.Int("kept_records", len(kept)),
		slog.Int("failed_batches", failures),
		slog.Bool("abstained", abstained))

	return FilterResult{Records: kept, Abstained: abstained}
}
