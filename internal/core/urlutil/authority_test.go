package urlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultAuthorityTableParses(t *testing.T) {
	table := DefaultAuthorityTable()
	require.NotNil(t, table)
}

func TestAuthorityScoreLookupOrder(t *testing.T) {
	table := DefaultAuthorityTable()

	// Exact registrable domain beats TLD and default.
	require.Equal(t, 92, table.Score("https://en.wikipedia.org/wiki/Acme"))
	require.Equal(t, 90, table.Score("reuters.com"))
	require.Equal(t, 75, table.Score("https://www.g2.com/products/acme"))
	require.Equal(t, 35, table.Score("https://x.com/acme/status/123"))
	require.Equal(t, 35, table.Score("reddit.com"))
	require.Equal(t, 45, table.Score("https://acme.medium.com/post"))

	// TLD heuristic for unknown domains.
	require.Equal(t, 95, table.Score("https://www.nasa.gov/news"))
	require.Equal(t, 95, table.Score("mit.edu"))

	// Unknown commercial domain falls back to the default.
	require.Equal(t, 50, table.Score("https://random-saas.com"))
	require.Equal(t, 50, table.Score(""))
}

func TestAuthoritySourceType(t *testing.T) {
	table := DefaultAuthorityTable()

	require.Equal(t, "editorial", table.SourceType("wikipedia.org"))
	require.Equal(t, "news", table.SourceType("https://www.nytimes.com/2026/01/01/tech.html"))
	require.Equal(t, "directory", table.SourceType("capterra.com"))
	require.Equal(t, "social", table.SourceType("https://twitter.com/acme"))
	require.Equal(t, "forum", table.SourceType("https://www.reddit.com/r/saas"))
	require.Equal(t, "blog", table.SourceType("substack.com"))

	// Unclassified domains fall back to the table's default type.
	require.Equal(t, "editorial", table.SourceType("random-saas.com"))
	require.Equal(t, "editorial", table.SourceType(""))
}

func TestParseAuthorityTableCustomData(t *testing.T) {
	data := []byte(`
tiers:
  - name: trusted
    score: 88
    source_type: editorial
    domains:
      - example.org
tld_scores:
  gov: 95
default_score: 40
default_source_type: blog
`)
	table, err := ParseAuthorityTable(data)
	require.NoError(t, err)
	require.Equal(t, 88, table.Score("https://news.example.org"))
	require.Equal(t, 95, table.Score("city.gov"))
	require.Equal(t, 40, table.Score("unknown.com"))
	require.Equal(t, "editorial", table.SourceType("example.org"))
	require.Equal(t, "blog", table.SourceType("unknown.com"))
}

func TestParseAuthorityTableRejectsBadYAML(t *testing.T) {
	_, err := ParseAuthorityTable([]byte("tiers: ["))
	require.Error(t, err)
}
