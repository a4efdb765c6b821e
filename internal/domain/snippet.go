package domain

// SerpResult is one search-engine-results-page document matched for a
// query, before any snippet texts are attached. Score is the ranking
// score reported by the search service for this match.
type SerpResult struct {
	ID             string
	Query          string
	Score          float64
	ProviderDomain string
}

// SnippetFragment is a raw snippet-index row, not yet joined to its SERP.
type SnippetFragment struct {
	SerpID    string
	SnippetID string
	Text      string
	Rank      int
}

// SnippetRecord is a retrieved text fragment joined with the metadata of
// the SERP it came from. Records are immutable after assembly; later
// stages only filter and reorder them.
type SnippetRecord struct {
	Query          string
	SourceQuery    string
	ProviderDomain string
	Text           string
	Score          float64
	Rank           int
	SerpID         string
	SnippetID      string
}

// Context is the ordered snippet collection handed to generation steps.
type Context []SnippetRecord

// Texts returns the snippet texts in context order.
func (c Context) Texts() []string {
	texts := make([]string, len(c))
	for i, rec := range c {
		texts[i] = rec.Text
	}
	return texts
}

// QueryPool is an ordered list of query strings derived from a single
// question. A valid pool is never empty and always carries the original
// question at position 0.
type QueryPool []string

// DomainCount pairs a provider domain with the number of matching SERP
// documents it contributed.
type DomainCount struct {
	Domain string
	Count  int
}
