package meili

import (
	"encoding/json"
	"testing"

	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-harness/internal/domain"
)

func rawHit(t *testing.T, doc string) meilisearch.Hit {
	t.Helper()
	var hit meilisearch.Hit
	require.NoError(t, json.Unmarshal([]byte(doc), &hit))
	return hit
}

func TestDecodeSerpHit(t *testing.T) {
	hit := rawHit(t, `{
		"id": "serp-1",
		"query": "what is permafrost",
		"provider_domain": "example.org",
		"_rankingScore": 0.87
	}`)

	serp, ok := decodeSerpHit(hit)

	require.True(t, ok)
	assert.Equal(t, "serp-1", serp.ID)
	assert.Equal(t, "what is permafrost", serp.Query)
	assert.Equal(t, "example.org", serp.ProviderDomain)
	assert.InDelta(t, 0.87, serp.Score, 1e-9)
}

func TestDecodeSerpHit_RejectsIncompleteDocuments(t *testing.T) {
	tests := map[string]string{
		"missing id":    `{"query": "q", "_rankingScore": 0.5}`,
		"missing query": `{"id": "serp-1", "_rankingScore": 0.5}`,
		"missing score": `{"id": "serp-1", "query": "q"}`,
		"non-string id": `{"id": 7, "query": "q", "_rankingScore": 0.5}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := decodeSerpHit(rawHit(t, doc))
			assert.False(t, ok)
		})
	}
}

func TestDecodeSnippetHit(t *testing.T) {
	hit := rawHit(t, `{
		"serp_id": "serp-1",
		"snippet_id": "snip-3",
		"text": "permafrost is ground that stays frozen",
		"rank": 3
	}`)

	fragment, ok := decodeSnippetHit(hit)

	require.True(t, ok)
	assert.Equal(t, "serp-1", fragment.SerpID)
	assert.Equal(t, "snip-3", fragment.SnippetID)
	assert.Equal(t, 3, fragment.Rank)
}

func TestDecodeSnippetHit_RejectsMissingRank(t *testing.T) {
	hit := rawHit(t, `{"serp_id": "s", "snippet_id": "n", "text": "t"}`)

	_, ok := decodeSnippetHit(hit)
	assert.False(t, ok)
}

func TestParseDomainFacets(t *testing.T) {
	raw := json.RawMessage(`{
		"provider_domain": {"example.org": 12, "other.org": 3, "rare.org": 1}
	}`)

	counts, err := parseDomainFacets(raw, "provider_domain")

	require.NoError(t, err)
	require.Len(t, counts, 3)
	byDomain := map[string]int{}
	for _, dc := range counts {
		byDomain[dc.Domain] = dc.Count
	}
	assert.Equal(t, 12, byDomain["example.org"])
	assert.Equal(t, 3, byDomain["other.org"])
}

func TestParseDomainFacets_EmptyPayload(t *testing.T) {
	counts, err := parseDomainFacets(nil, "provider_domain")

	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestParseDomainFacets_UndecodablePayload(t *testing.T) {
	_, err := parseDomainFacets(json.RawMessage(`"not a distribution"`), "provider_domain")
	assert.Error(t, err)
}

func TestApplyDomainBoost(t *testing.T) {
	serps := []domain.SerpResult{
		{ID: "s1", Score: 0.9, ProviderDomain: "example.org"},
		{ID: "s2", Score: 0.6, ProviderDomain: "boosted.org"},
		{ID: "s3", Score: 0.5, ProviderDomain: "other.org"},
	}
	boosted := map[string]struct{}{"boosted.org": {}}

	result := applyDomainBoost(serps, boosted)

	// 0.6*2.0 = 1.2 overtakes the unboosted 0.9.
	assert.Equal(t, "s2", result[0].ID)
	assert.InDelta(t, 1.2, result[0].Score, 1e-9)
	assert.Equal(t, "s1", result[1].ID)
	assert.Equal(t, "s3", result[2].ID)
}

func TestApplyDomainBoost_StableOnTies(t *testing.T) {
	serps := []domain.SerpResult{
		{ID: "s1", Score: 0.5, ProviderDomain: "a.org"},
		{ID: "s2", Score: 0.5, ProviderDomain: "b.org"},
	}

	result := applyDomainBoost(serps, map[string]struct{}{})

	assert.Equal(t, "s1", result[0].ID)
	assert.Equal(t, "s2", result[1].ID)
}

func TestHitAccessors(t *testing.T) {
	hit := rawHit(t, `{
		"id": "serp-1",
		"rank": 3,
		"snippet_count": "not-a-number"
	}`)

	assert.Equal(t, "serp-1", getString(hit, "id"))
	assert.Equal(t, "", getString(hit, "missing"))
	assert.Equal(t, "", getString(hit, "rank"))

	rank, ok := getFloat(hit, "rank")
	assert.True(t, ok)
	assert.Equal(t, float64(3), rank)

	_, ok = getFloat(hit, "snippet_count")
	assert.False(t, ok)

	_, ok = getFloat(hit, "missing")
	assert.False(t, ok)
}
