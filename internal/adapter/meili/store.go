package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/meilisearch/meilisearch-go"

	"rag-harness/internal/domain"
)

const (
	defaultSerpLimit = 100
	// snippetFetchCap bounds a single snippet lookup. 100 SERPs with a
	// handful of snippets each stay far below this.
	snippetFetchCap = 10000

	boostWeight       = 2.0
	defaultTopDomains = 2
)

// Attribute names in the SERP and snippet indexes.
const (
	attrQuery          = "query"
	attrProviderDomain = "provider_domain"
	attrSnippetIDs     = "snippet_ids"
	attrSerpID         = "serp_id"
	attrSnippetID      = "snippet_id"
	attrText           = "text"
	attrRank           = "rank"
	attrRankingScore   = "_rankingScore"
)

// Store reads SERP and snippet documents from two Meilisearch indexes.
type Store struct {
	serps    meilisearch.IndexManager
	snippets meilisearch.IndexManager
	logger   *slog.Logger
}

func NewStore(client meilisearch.ServiceManager, serpIndex, snippetIndex string, logger *slog.Logger) *Store {
	return &Store{
		serps:    client.Index(serpIndex),
		snippets: client.Index(snippetIndex),
		logger:   logger,
	}
}

var _ domain.SnippetStore = (*Store)(nil)

// FindSerps returns SERP documents matching query that carry at least one
// parsed snippet. With opts.Boost, hits from the most frequent provider
// domains get their ranking score doubled and the result is stably
// re-sorted; a failed domain aggregation falls back to the unboosted
// result.
func (s *Store) FindSerps(ctx context.Context, query string, opts domain.SerpSearchOptions) ([]domain.SerpResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSerpLimit
	}

	var boosted map[string]struct{}
	if opts.Boost {
		topN := opts.TopDomains
		if topN <= 0 {
			topN = defaultTopDomains
		}
		counts, err := s.DomainCounts(ctx, query, topN)
		if err != nil {
			s.logger.Warn("domain_aggregation_failed",
				slog.String("query", query),
				slog.String("error", err.Error()))
		} else if len(counts) > 0 {
			boosted = make(map[string]struct{}, len(counts))
			for _, dc := range counts {
				boosted[dc.Domain] = struct{}{}
			}
		}
	}

	request := &meilisearch.SearchRequest{
		Limit:                int64(limit),
		Filter:               existsFilter(attrSnippetIDs),
		ShowRankingScore:     true,
		AttributesToSearchOn: []string{attrQuery},
	}
	if opts.RequireAllTerms {
		request.MatchingStrategy = meilisearch.All
	}

	result, err := s.serps.Search(query, request)
	if err != nil {
		return nil, fmt.Errorf("serp search failed: %w", err)
	}

	serps := make([]domain.SerpResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		serp, ok := decodeSerpHit(hit)
		if !ok {
			continue
		}
		serps = append(serps, serp)
	}

	if len(boosted) > 0 {
		serps = applyDomainBoost(serps, boosted)
	}

	s.logger.Debug("serp_search_completed",
		slog.String("query", query),
		slog.Int("hits", len(serps)),
		slog.Bool("require_all_terms", opts.RequireAllTerms),
		slog.Bool("boosted", len(boosted) > 0))

	return serps, nil
}

// FindSnippets returns the snippet rows attached to the given SERP IDs.
// Rows missing any expected attribute are dropped.
func (s *Store) FindSnippets(ctx context.Context, serpIDs []string) ([]domain.SnippetFragment, error) {
	if len(serpIDs) == 0 {
		return nil, nil
	}

	filter := fmt.Sprintf("%s AND %s", termsFilter(attrSerpID, serpIDs), existsFilter(attrText))
	request := &meilisearch.SearchRequest{
		Limit:  snippetFetchCap,
		Filter: filter,
	}

	result, err := s.snippets.Search("", request)
	if err != nil {
		return nil, fmt.Errorf("snippet search failed: %w", err)
	}

	fragments := make([]domain.SnippetFragment, 0, len(result.Hits))
	for _, hit := range result.Hits {
		fragment, ok := decodeSnippetHit(hit)
		if !ok {
			continue
		}
		fragments = append(fragments, fragment)
	}

	return fragments, nil
}

// DomainCounts returns the topN provider domains among SERP documents
// matching query, most frequent first. Ties break alphabetically so the
// result is deterministic.
func (s *Store) DomainCounts(ctx context.Context, query string, topN int) ([]domain.DomainCount, error) {
	if topN <= 0 {
		topN = defaultTopDomains
	}

	// Only the facet distribution is read; a single hit keeps the
	// response small. Limit is omitted from the payload when zero, which
	// would fall back to the server default page size.
	request := &meilisearch.SearchRequest{
		Limit:                1,
		Facets:               []string{attrProviderDomain},
		AttributesToSearchOn: []string{attrQuery},
	}

	result, err := s.serps.Search(query, request)
	if err != nil {
		return nil, fmt.Errorf("domain facet search failed: %w", err)
	}

	counts, err := parseDomainFacets(result.FacetDistribution, attrProviderDomain)
	if err != nil {
		return nil, err
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Domain < counts[j].Domain
	})

	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts, nil
}

// decodeSerpHit maps a raw SERP document to a SerpResult. Hits missing
// the id, query, or ranking score are rejected.
func decodeSerpHit(hit meilisearch.Hit) (domain.SerpResult, bool) {
	id := getString(hit, "id")
	serpQuery := getString(hit, attrQuery)
	score, hasScore := getFloat(hit, attrRankingScore)
	if id == "" || serpQuery == "" || !hasScore {
		return domain.SerpResult{}, false
	}

	return domain.SerpResult{
		ID:             id,
		Query:          serpQuery,
		Score:          score,
		ProviderDomain: getString(hit, attrProviderDomain),
	}, true
}

// decodeSnippetHit maps a raw snippet document to a SnippetFragment.
func decodeSnippetHit(hit meilisearch.Hit) (domain.SnippetFragment, bool) {
	serpID := getString(hit, attrSerpID)
	snippetID := getString(hit, attrSnippetID)
	text := getString(hit, attrText)
	rank, hasRank := getFloat(hit, attrRank)
	if serpID == "" || snippetID == "" || text == "" || !hasRank {
		return domain.SnippetFragment{}, false
	}

	return domain.SnippetFragment{
		SerpID:    serpID,
		SnippetID: snippetID,
		Text:      text,
		Rank:      int(rank),
	}, true
}

// parseDomainFacets decodes the named bucket of a raw facet
// distribution payload into per-domain counts, unsorted.
func parseDomainFacets(raw json.RawMessage, facet string) ([]domain.DomainCount, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var distribution map[string]map[string]int64
	if err := json.Unmarshal(raw, &distribution); err != nil {
		return nil, fmt.Errorf("decoding facet distribution: %w", err)
	}

	buckets := distribution[facet]
	counts := make([]domain.DomainCount, 0, len(buckets))
	for name, count := range buckets {
		counts = append(counts, domain.DomainCount{Domain: name, Count: int(count)})
	}
	return counts, nil
}

func applyDomainBoost(serps []domain.SerpResult, boosted map[string]struct{}) []domain.SerpResult {
	for i := range serps {
		if _, ok := boosted[serps[i].ProviderDomain]; ok {
			serps[i].Score *= boostWeight
		}
	}
	sort.SliceStable(serps, func(i, j int) bool {
		return serps[i].Score > serps[j].Score
	})
	return serps
}

func getString(hit meilisearch.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

func getFloat(hit meilisearch.Hit, key string) (float64, bool) {
	raw, ok := hit[key]
	if !ok {
		return 0, false
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false
	}
	return value, true
}
