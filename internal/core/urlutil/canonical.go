// Package urlutil provides URL canonicalization, registrable-domain
// extraction, link/domain extraction from free text, and authority scoring.
package urlutil

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters stripped during canonicalization.
// utm_* is handled by prefix.
var trackingParams = map[string]struct{}{
	"fbclid":   {},
	"gclid":    {},
	"msclkid":  {},
	"mc_cid":   {},
	"mc_eid":   {},
	"igshid":   {},
	"ref":      {},
	"ref_src":  {},
	"ref_url":  {},
	"spm":      {},
	"_hsenc":   {},
	"_hsmi":    {},
	"mkt_tok":  {},
	"yclid":    {},
	"vero_id":  {},
	"wickedid": {},
}

func isTrackingParam(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "utm_") {
		return true
	}
	_, ok := trackingParams[lower]
	return ok
}

// Canonical normalizes a URL into its deduplication key: lowercased scheme and
// host, www and default ports stripped, tracking parameters removed, remaining
// query sorted, fragment dropped, trailing slash normalized. Returns the
// trimmed input when it cannot be parsed.
func Canonical(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}

	toParse := value
	if !strings.Contains(toParse, "://") {
		toParse = "https://" + toParse
	}

	parsed, err := url.Parse(toParse)
	if err != nil || parsed.Host == "" {
		return value
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return value
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return value
	}
	port := parsed.Port()
	if port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	path := parsed.EscapedPath()
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "/" {
		path = ""
	}

	query := canonicalQuery(parsed.Query())

	canonical := "https://" + host + path
	if query != "" {
		canonical += "?" + query
	}
	return canonical
}

func canonicalQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if isTrackingParam(key) {
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, v := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			if v != "" {
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return b.String()
}

// Host returns the normalized hostname of a URL or domain string, without
// www or port. Returns "" when the value cannot be parsed safely.
func Host(raw string) string {
	value := stripTrailingPunct(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}

	toParse := value
	if !strings.Contains(toParse, "://") {
		toParse = "https://" + toParse
	}

	parsed, err := url.Parse(toParse)
	if err != nil {
		return ""
	}

	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") || strings.ContainsAny(host, " \t") {
		return ""
	}
	return host
}

// multiLabelSuffixes are public suffixes spanning two labels. The registrable
// domain keeps one label beyond these.
var multiLabelSuffixes = map[string]struct{}{
	"co.uk": {}, "org.uk": {}, "ac.uk": {}, "gov.uk": {},
	"com.au": {}, "net.au": {}, "org.au": {},
	"co.jp": {}, "or.jp": {}, "ne.jp": {},
	"co.nz": {}, "co.in": {}, "co.za": {}, "com.br": {},
	"com.mx": {}, "com.sg": {}, "com.hk": {}, "com.tr": {},
	"co.kr": {}, "com.cn": {}, "com.tw": {}, "com.ar": {},
}

// RegistrableDomain reduces a hostname or URL to its registrable domain
// (example.co.uk, example.com). Returns "" for unparseable input.
func RegistrableDomain(raw string) string {
	host := Host(raw)
	if host == "" {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}

	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if _, ok := multiLabelSuffixes[lastTwo]; ok {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}

// TLD returns the final label of a hostname, without a leading dot.
func TLD(raw string) string {
	host := Host(raw)
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	return labels[len(labels)-1]
}

// DomainStem returns a domain with www and the TLD chain removed:
// "www.acme-widgets.co.uk" becomes "acme-widgets".
func DomainStem(raw string) string {
	registrable := RegistrableDomain(raw)
	if registrable == "" {
		return ""
	}
	if idx := strings.Index(registrable, "."); idx > 0 {
		return registrable[:idx]
	}
	return registrable
}

// SameRegistrableDomain reports whether two URLs or hostnames share a
// registrable domain.
func SameRegistrableDomain(a, b string) bool {
	da := RegistrableDomain(a)
	db := RegistrableDomain(b)
	return da != "" && da == db
}

func stripTrailingPunct(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ").,;:!?'\"”’]}>»")
}
