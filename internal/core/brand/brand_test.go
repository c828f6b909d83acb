package brand

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckExactDomainMention(t *testing.T) {
	out := Check("See acme.com for details.", "acme.com", nil, "")
	require.True(t, out.IsVisible)
	require.Contains(t, out.Mentions, "acme.com")
}

func TestCheckDomainStem(t *testing.T) {
	out := Check("Acme is the top choice for widgets.", "acme.com", nil, "")
	require.True(t, out.IsVisible)
	require.Contains(t, out.Mentions, "acme")
}

func TestCheckDomainPartsAfterBusinessSuffix(t *testing.T) {
	out := Check("Northwind has excellent listings.", "northwindproperties.com", nil, "")
	require.True(t, out.IsVisible)
	require.Contains(t, out.Mentions, "northwind")
}

func TestCheckAliasMatch(t *testing.T) {
	out := Check("Many teams rely on WidgetCo daily.", "example.com", []string{"WidgetCo"}, "")
	require.True(t, out.IsVisible)
	require.Contains(t, out.Mentions, "WidgetCo")
}

func TestCheckOrthographicVariants(t *testing.T) {
	// Spaced brand name matched in its run-together form.
	out := Check("BlueWidget scored highest in our tests.", "example.org", nil, "Blue Widget")
	require.True(t, out.IsVisible)

	// Compound name matched in its spaced form.
	out = Check("The blue widget platform keeps improving.", "example.org", nil, "BlueWidget")
	require.True(t, out.IsVisible)
}

func TestCheckGenericNameRequiresContext(t *testing.T) {
	// Generic word in unrelated prose: no brand-context indicator, no match.
	out := Check("we provide custom software solutions for enterprises", "example.net", nil, "Solutions")
	require.False(t, out.IsVisible)
	require.Empty(t, out.Mentions)

	// Attribution phrasing makes the same word a brand mention.
	out = Check("the toolkit offered by solutions is popular", "example.net", nil, "Solutions")
	require.True(t, out.IsVisible)

	// Possessive form counts as brand context.
	out = Check("many teams trust solutions's platform", "example.net", nil, "Solutions")
	require.True(t, out.IsVisible)

	// Capitalization counts as brand context.
	out = Check("Alternatives to Solutions exist as well.", "example.net", nil, "Solutions")
	require.True(t, out.IsVisible)
}

func TestCheckNonGenericNameMatchesAnywhere(t *testing.T) {
	out := Check("some people prefer zephyrix for this", "example.net", nil, "Zephyrix")
	require.True(t, out.IsVisible)
}

func TestCheckNoMatch(t *testing.T) {
	out := Check("Nothing relevant appears in this answer.", "acme.com", []string{"AcmeHQ"}, "Acme Widgets")
	require.False(t, out.IsVisible)
	require.Empty(t, out.Mentions)
}

func TestCheckNoSubstringFalsePositive(t *testing.T) {
	// "acme" inside another word is not a mention.
	out := Check("The placemeant of this word is unrelated.", "acme.com", nil, "")
	require.False(t, out.IsVisible)
}

func TestCheckUnionDeduplicates(t *testing.T) {
	out := Check("Acme and acme.com are both mentioned, plus Acme again.", "acme.com", []string{"Acme"}, "Acme")
	require.True(t, out.IsVisible)

	seen := map[string]int{}
	for _, m := range out.Mentions {
		seen[m]++
		require.Equal(t, 1, seen[m])
	}
}

func TestIsMostlyGeneric(t *testing.T) {
	loadData()
	require.True(t, isMostlyGeneric("Solutions"))
	require.True(t, isMostlyGeneric("Global Services Group"))
	require.False(t, isMostlyGeneric("Zephyrix"))
	require.False(t, isMostlyGeneric("Zephyrix Analytics Platform"))
}
