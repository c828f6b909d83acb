package urlutil

import (
	"regexp"
	"strings"
)

// MarkdownLink is a [text](url) link extracted from an answer body.
type MarkdownLink struct {
	Text string
	URL  string
}

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

	// Fairly strict domain pattern: requires at least one dot, supports
	// punycode TLDs, allows an optional scheme and port.
	domainMentionRe = regexp.MustCompile(`(?i)\b((?:https?://)?(?:www\.)?(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+(?:[a-z]{2,24}|xn--[a-z0-9-]{2,59})(?::\d{2,5})?)`)
)

// ExtractMarkdownLinks returns all markdown links in order of appearance.
func ExtractMarkdownLinks(text string) []MarkdownLink {
	if text == "" {
		return nil
	}
	matches := markdownLinkRe.FindAllStringSubmatch(text, -1)
	links := make([]MarkdownLink, 0, len(matches))
	for _, m := range matches {
		links = append(links, MarkdownLink{Text: m[1], URL: stripTrailingPunct(m[2])})
	}
	return links
}

// ExtractURLs returns bare URLs in order of appearance, deduplicated by
// canonical form at first occurrence.
func ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}
	var urls []string
	seen := make(map[string]struct{})
	for _, raw := range bareURLRe.FindAllString(text, -1) {
		cleaned := stripTrailingPunct(raw)
		key := Canonical(cleaned)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		urls = append(urls, cleaned)
	}
	return urls
}

// ExtractDomainMentions finds plain-text domain mentions (and domains inside
// URLs), returning unique normalized hostnames. Domains in excludes, and any
// of their subdomains, are skipped; email-like matches are ignored.
func ExtractDomainMentions(text string, excludes []string) []string {
	if text == "" {
		return nil
	}

	var found []string
	seen := make(map[string]struct{})
	for _, m := range domainMentionRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if start > 0 && text[start-1] == '@' {
			continue
		}

		domain := Host(text[start:end])
		if domain == "" || isExcludedDomain(domain, excludes) {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		found = append(found, domain)
	}
	return found
}

func isExcludedDomain(domain string, excludes []string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	for _, ex := range excludes {
		exn := strings.ToLower(strings.TrimSpace(ex))
		if exn == "" {
			continue
		}
		if d == exn || strings.HasSuffix(d, "."+exn) {
			return true
		}
	}
	return false
}

// ProbableURL turns a bare domain mention into a usable https URL.
func ProbableURL(domain string) string {
	host := Host(domain)
	if host == "" {
		return ""
	}
	return "https://" + host
}
