// Package normalize converts raw adapter output into the canonical
// standardized form consumed by scoring and recommendations.
package normalize

import (
	"strings"

	"github.com/aeolens/aeolens/internal/core"
	"github.com/aeolens/aeolens/internal/core/urlutil"
)

// Normalize is a pure mapping from raw adapter output to a standardized
// result. Sentiment stays nil: it is computed once, later, by the sentiment
// analyzer, so two disagreeing values for the same result cannot exist.
func Normalize(engine core.Engine, answer string, sources []core.SourceReference, brandDomain string) *core.StandardizedResult {
	return NormalizeWith(urlutil.DefaultAuthorityTable(), engine, answer, sources, brandDomain)
}

// NormalizeWith normalizes against a specific authority table.
func NormalizeWith(table *urlutil.AuthorityTable, engine core.Engine, answer string, sources []core.SourceReference, brandDomain string) *core.StandardizedResult {
	standardized := make([]core.StandardizedSource, 0, len(sources))
	for _, src := range sources {
		standardized = append(standardized, standardizeSource(table, src, brandDomain))
	}

	return &core.StandardizedResult{
		Engine:  engine,
		Answer:  answer,
		Sources: standardized,
	}
}

func standardizeSource(table *urlutil.AuthorityTable, src core.SourceReference, brandDomain string) core.StandardizedSource {
	domain := urlutil.RegistrableDomain(src.URL)
	score := table.Score(src.URL)
	brandMatch := IsBrandMatch(src.URL, brandDomain)

	sourceType := core.SourceType(table.SourceType(src.URL))
	switch {
	case brandMatch:
		sourceType = core.SourceTypeOfficial
	case src.IsXPost:
		sourceType = core.SourceTypeSocial
	}

	return core.StandardizedSource{
		SourceReference: src,
		Domain:          domain,
		IsBrandMatch:    brandMatch,
		AuthorityScore:  score,
		AuthorityTier:   TierForScore(score),
		SourceType:      sourceType,
	}
}

// TierForScore maps an authority score to its tier.
func TierForScore(score int) core.AuthorityTier {
	switch {
	case score >= 85:
		return core.TierAuthoritative
	case score >= 70:
		return core.TierHigh
	case score >= 40:
		return core.TierMedium
	default:
		return core.TierLow
	}
}

// IsBrandMatch reports whether a source URL belongs to the brand's domain.
func IsBrandMatch(rawURL, brandDomain string) bool {
	brandDomain = strings.ToLower(strings.TrimSpace(brandDomain))
	if brandDomain == "" || rawURL == "" {
		return false
	}
	brandDomain = strings.TrimPrefix(brandDomain, "www.")

	host := urlutil.Host(rawURL)
	if host == "" {
		host = strings.ToLower(strings.TrimSpace(rawURL))
	}
	if host == brandDomain || strings.HasSuffix(host, "."+brandDomain) {
		return true
	}
	return urlutil.SameRegistrableDomain(host, brandDomain)
}
