package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"unicode/utf8"

	"rag-harness/internal/domain"
)

const (
	// MaxContextRecords bounds any merged context handed to generation.
	MaxContextRecords = 100
	// MinSnippetLength is the exclusive lower bound, in runes, for a
	// snippet text to survive assembly. Shorter fragments are navigation
	// crumbs and cookie banners, not content.
	MinSnippetLength = 100
	// DefaultFilterBatchSize is the number of snippets judged per
	// relevance call.
	DefaultFilterBatchSize = 5
)

// Assembler turns a single query into a clean, ordered Context. Store
// failures never surface to callers; they degrade to an empty Context
// with a warning, so an index outage reads as "nothing found".
type Assembler struct {
	store  domain.SnippetStore
	opts   domain.SerpSearchOptions
	logger *slog.Logger
}

func NewAssembler(store domain.SnippetStore, opts domain.SerpSearchOptions, logger *slog.Logger) *Assembler {
	return &Assembler{store: store, opts: opts, logger: logger}
}

// Assemble retrieves the context for query using the broad match where
// any query term may hit.
func (a *Assembler) Assemble(ctx context.Context, query string) domain.Context {
	return a.assemble(ctx, query, false)
}

// AssemblePrecise retrieves the context for query requiring every
// whitespace-separated term to match.
func (a *Assembler) AssemblePrecise(ctx context.Context, query string) domain.Context {
	return a.assemble(ctx, query, true)
}

func (a *Assembler) assemble(ctx context.Context, query string, precise bool) domain.Context {
	opts := a.opts
	opts.RequireAllTerms = precise

	serps, err := a.store.FindSerps(ctx, query, opts)
	if err != nil {
		a.logger.Warn("serp_lookup_failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return nil
	}
	if len(serps) == 0 {
		return nil
	}

	serpIDs := make([]string, len(serps))
	bySerpID := make(map[string]domain.SerpResult, len(serps))
	for i, serp := range serps {
		serpIDs[i] = serp.ID
		bySerpID[serp.ID] = serp
	}

	fragments, err := a.store.FindSnippets(ctx, serpIDs)
	if err != nil {
		a.logger.Warn("snippet_lookup_failed",
			slog.String("query", query),
			slog.Int("serp_count", len(serpIDs)),
			slog.String("error", err.Error()))
		return nil
	}

	records := make(domain.Context, 0, len(fragments))
	for _, fragment := range fragments {
		serp, ok := bySerpID[fragment.SerpID]
		if !ok {
			// Inner join: orphaned snippet rows are dropped.
			continue
		}
		if utf8.RuneCountInString(fragment.Text) <= MinSnippetLength {
			continue
		}
		records = append(records, domain.SnippetRecord{
			Query:          serp.Query,
			ProviderDomain: serp.ProviderDomain,
			Text:           fragment.Text,
			Score:          serp.Score,
			Rank:           fragment.Rank,
			SerpID:         fragment.SerpID,
			SnippetID:      fragment.SnippetID,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].Rank < records[j].Rank
	})

	a.logger.Info("context_assembled",
		slog.String("query", query),
		slog.Bool("precise", precise),
		slog.Int("serps", len(serps)),
		slog.Int("records", len(records)))

	return records
}
