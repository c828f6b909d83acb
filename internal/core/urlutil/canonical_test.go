package urlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips www and fragment", "https://www.acme.com/pricing#plans", "https://acme.com/pricing"},
		{"strips tracking params", "https://acme.com/p?utm_source=x&utm_medium=y&id=7", "https://acme.com/p?id=7"},
		{"strips fbclid and ref", "https://acme.com/?fbclid=abc&ref=tw", "https://acme.com"},
		{"sorts remaining query", "https://acme.com/s?b=2&a=1", "https://acme.com/s?a=1&b=2"},
		{"trailing slash normalized", "https://acme.com/pricing/", "https://acme.com/pricing"},
		{"root slash dropped", "https://acme.com/", "https://acme.com"},
		{"http folds into https", "http://Acme.COM/About", "https://acme.com/About"},
		{"bare domain gains scheme", "acme.com/pricing", "https://acme.com/pricing"},
		{"default port stripped", "https://acme.com:443/x", "https://acme.com/x"},
		{"custom port kept", "https://acme.com:8080/x", "https://acme.com:8080/x"},
		{"unparseable returned trimmed", "  not a url  ", "not a url"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestCanonicalDeduplicatesVariants(t *testing.T) {
	variants := []string{
		"https://www.acme.com/pricing?utm_source=chatgpt",
		"http://acme.com/pricing/",
		"acme.com/pricing#top",
	}
	first := Canonical(variants[0])
	for _, v := range variants[1:] {
		require.Equal(t, first, Canonical(v))
	}
}

func TestHost(t *testing.T) {
	require.Equal(t, "acme.com", Host("https://www.acme.com/pricing"))
	require.Equal(t, "docs.acme.com", Host("docs.acme.com"))
	require.Equal(t, "acme.com", Host("acme.com."))
	require.Equal(t, "", Host("not a url"))
	require.Equal(t, "", Host("localhost"))
}

func TestRegistrableDomain(t *testing.T) {
	require.Equal(t, "acme.com", RegistrableDomain("https://docs.acme.com/en"))
	require.Equal(t, "acme.co.uk", RegistrableDomain("https://shop.acme.co.uk"))
	require.Equal(t, "acme.com", RegistrableDomain("acme.com"))
	require.Equal(t, "", RegistrableDomain(""))
}

func TestDomainStem(t *testing.T) {
	require.Equal(t, "acme-widgets", DomainStem("www.acme-widgets.co.uk"))
	require.Equal(t, "acme", DomainStem("https://blog.acme.com/post"))
}

func TestSameRegistrableDomain(t *testing.T) {
	require.True(t, SameRegistrableDomain("https://docs.acme.com", "acme.com"))
	require.True(t, SameRegistrableDomain("shop.acme.co.uk", "www.acme.co.uk"))
	require.False(t, SameRegistrableDomain("acme.com", "acme.io"))
	require.False(t, SameRegistrableDomain("", "acme.com"))
}

func TestTLD(t *testing.T) {
	require.Equal(t, "gov", TLD("https://www.nasa.gov/news"))
	require.Equal(t, "uk", TLD("acme.co.uk"))
}
