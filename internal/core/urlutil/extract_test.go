package urlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractMarkdownLinks(t *testing.T) {
	text := "See [Acme pricing](https://acme.com/pricing) and [reviews](https://g2.com/products/acme)."
	links := ExtractMarkdownLinks(text)
	require.Len(t, links, 2)
	require.Equal(t, "Acme pricing", links[0].Text)
	require.Equal(t, "https://acme.com/pricing", links[0].URL)
	require.Equal(t, "https://g2.com/products/acme", links[1].URL)

	require.Empty(t, ExtractMarkdownLinks("no links here"))
}

func TestExtractURLsDeduplicatesByCanonicalForm(t *testing.T) {
	text := "Visit https://www.acme.com/pricing?utm_source=x today. " +
		"More at http://acme.com/pricing/ and https://acme.io/docs."
	urls := ExtractURLs(text)
	require.Len(t, urls, 2)
	require.Equal(t, "https://www.acme.com/pricing?utm_source=x", urls[0])
	require.Equal(t, "https://acme.io/docs", urls[1])
}

func TestExtractURLsStripsTrailingPunctuation(t *testing.T) {
	urls := ExtractURLs("Check https://acme.com/pricing.")
	require.Equal(t, []string{"https://acme.com/pricing"}, urls)
}

func TestExtractDomainMentions(t *testing.T) {
	text := "Acme (acme.com) competes with globex.io; contact sales@acme.com or see www.acme.com/about."
	domains := ExtractDomainMentions(text, nil)
	require.Equal(t, []string{"acme.com", "globex.io"}, domains)
}

func TestExtractDomainMentionsExcludesEngineHosts(t *testing.T) {
	text := "Powered by chatgpt.com and chat.openai.com; acme.com was cited."
	domains := ExtractDomainMentions(text, []string{"openai.com", "chatgpt.com"})
	require.Equal(t, []string{"acme.com"}, domains)
}

func TestProbableURL(t *testing.T) {
	require.Equal(t, "https://acme.com", ProbableURL("www.acme.com"))
	require.Equal(t, "https://acme.com", ProbableURL("acme.com"))
	require.Equal(t, "", ProbableURL("not a domain"))
}
