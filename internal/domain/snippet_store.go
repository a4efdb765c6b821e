package domain

import "context"

// SerpSearchOptions tunes a single SERP lookup.
type SerpSearchOptions struct {
	// Limit caps the number of SERP documents returned. Zero means the
	// store default.
	Limit int
	// RequireAllTerms switches the search to the strict variant where
	// every whitespace-separated term of the query must match.
	RequireAllTerms bool
	// Boost doubles the score of hits whose provider domain is among the
	// TopDomains most frequent domains for the query.
	Boost      bool
	TopDomains int
}

// SnippetStore is the read-side client over the SERP and snippet indexes.
type SnippetStore interface {
	// FindSerps returns SERP documents matching query that have at least
	// one parsed snippet attached.
	FindSerps(ctx context.Context, query string, opts SerpSearchOptions) ([]SerpResult, error)

	// FindSnippets returns the snippet rows belonging to the given SERP
	// IDs. An empty ID list returns an empty result without touching the
	// index.
	FindSnippets(ctx context.Context, serpIDs []string) ([]SnippetFragment, error)

	// DomainCounts returns the topN provider domains among SERP documents
	// matching query, most frequent first.
	DomainCounts(ctx context.Context, query string, topN int) ([]DomainCount, error)
}
