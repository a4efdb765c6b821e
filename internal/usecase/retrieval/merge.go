package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"rag-harness/internal/domain"
)

// Merger runs one retrieval per pooled query, sequentially and in pool
// order, and merges the partial contexts into one bounded Context.
type Merger struct {
	assembler  *Assembler
	maxRecords int
	logger     *slog.Logger
}

func NewMerger(assembler *Assembler, maxRecords int, logger *slog.Logger) *Merger {
	if maxRecords <= 0 {
		maxRecords = MaxContextRecords
	}
	return &Merger{assembler: assembler, maxRecords: maxRecords, logger: logger}
}

// MergePool merges the contexts of all pooled queries. Duplicate snippet
// texts keep their first occurrence, so pool order decides which query
// gets credited via SourceQuery. With precision enabled each query is
// first tried with the strict all-terms match and falls back to the
// broad match when that yields nothing. An empty pool returns an empty
// Context without touching the store.
func (m *Merger) MergePool(ctx context.Context, pool domain.QueryPool, precision bool) domain.Context {
	if len(pool) == 0 {
		return nil
	}

	mergeID := uuid.NewString()

	var merged domain.Context
	seen := make(map[string]struct{})
	for _, query := range pool {
		partial := m.retrieve(ctx, query, precision)
		for _, record := range partial {
			if _, dup := seen[record.Text]; dup {
				continue
			}
			seen[record.Text] = struct{}{}
			record.SourceQuery = query
			merged = append(merged, record)
		}
	}

	// Stable by score only; assembly order breaks ties, which keeps the
	// first-occurrence winners in front of later equal-scored records.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > m.maxRecords {
		merged = merged[:m.maxRecords]
	}

	m.logger.Info("pool_merge_completed",
		slog.String("merge_id", mergeID),
		slog.Int("pool_size", len(pool)),
		slog.Int("records", len(merged)),
		slog.Bool("precision", precision))

	return merged
}

func (m *Merger) retrieve(ctx context.Context, query string, precision bool) domain.Context {
	if !precision {
		return m.assembler.Assemble(ctx, query)
	}

	partial := m.assembler.AssemblePrecise(ctx, query)
	if len(partial) > 0 {
		return partial
	}

	m.logger.Debug("precision_fallback",
		slog.String("query", query))
	return m.assembler.Assemble(ctx, query)
}
