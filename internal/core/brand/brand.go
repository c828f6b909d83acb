// Package brand implements deterministic brand presence detection inside
// AI answer text. Matching runs as an ordered rule table so the policy is
// testable and extensible without touching control flow.
package brand

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/aeolens/aeolens/internal/core/urlutil"
)

//go:embed brand_data.yaml
var brandDataYAML []byte

type matchData struct {
	GenericWords     []string `yaml:"generic_words"`
	BusinessSuffixes []string `yaml:"business_suffixes"`
}

var (
	dataOnce         sync.Once
	genericWords     map[string]struct{}
	businessSuffixes map[string]struct{}
)

func loadData() {
	dataOnce.Do(func() {
		var parsed matchData
		if err := yaml.Unmarshal(brandDataYAML, &parsed); err != nil {
			panic(fmt.Sprintf("brand: invalid embedded match data: %v", err))
		}
		genericWords = make(map[string]struct{}, len(parsed.GenericWords))
		for _, w := range parsed.GenericWords {
			genericWords[strings.ToLower(w)] = struct{}{}
		}
		businessSuffixes = make(map[string]struct{}, len(parsed.BusinessSuffixes))
		for _, w := range parsed.BusinessSuffixes {
			businessSuffixes[strings.ToLower(w)] = struct{}{}
		}
	})
}

// Detection is the outcome of one presence check.
type Detection struct {
	IsVisible bool     `json:"is_visible"`
	Mentions  []string `json:"mentions"`
}

// rule is one entry in the ordered matching table. terms produces candidate
// strings; requireContext demands a brand-context window around the match.
type rule struct {
	name           string
	terms          func(domain string, aliases []string, brandName string) []string
	requireContext func(term string) bool
}

var rules = []rule{
	{
		name: "domain-exact",
		terms: func(domain string, _ []string, _ string) []string {
			if domain == "" {
				return nil
			}
			return []string{domain}
		},
	},
	{
		name: "domain-stem",
		terms: func(domain string, _ []string, _ string) []string {
			stem := urlutil.DomainStem(domain)
			if stem == "" || stem == domain {
				return nil
			}
			return []string{stem}
		},
	},
	{
		name: "domain-parts",
		terms: func(domain string, _ []string, _ string) []string {
			return meaningfulDomainParts(domain)
		},
	},
	{
		name: "alias",
		terms: func(_ string, aliases []string, _ string) []string {
			var out []string
			for _, alias := range aliases {
				if alias = strings.TrimSpace(alias); alias != "" {
					out = append(out, withVariants(alias)...)
				}
			}
			return out
		},
	},
	{
		name: "brand-name",
		terms: func(_ string, _ []string, brandName string) []string {
			if brandName = strings.TrimSpace(brandName); brandName == "" {
				return nil
			}
			return withVariants(brandName)
		},
		requireContext: isMostlyGeneric,
	},
}

// Check runs the rule table against text and returns the union of matched
// terms, deduplicated.
func Check(text, brandDomain string, aliases []string, brandName string) Detection {
	loadData()

	domain := strings.ToLower(strings.TrimSpace(brandDomain))
	domain = strings.TrimPrefix(domain, "www.")

	seen := make(map[string]struct{})
	var mentions []string

	for _, r := range rules {
		for _, term := range r.terms(domain, aliases, brandName) {
			key := strings.ToLower(term)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			needContext := r.requireContext != nil && r.requireContext(term)
			if matches(text, term, needContext) {
				seen[key] = struct{}{}
				mentions = append(mentions, term)
			}
		}
	}

	sort.Strings(mentions)
	return Detection{IsVisible: len(mentions) > 0, Mentions: mentions}
}

// meaningfulDomainParts splits a domain stem on separators, drops business
// suffix words, and keeps parts long enough to be distinctive.
func meaningfulDomainParts(domain string) []string {
	stem := urlutil.DomainStem(domain)
	if stem == "" {
		return nil
	}
	parts := strings.FieldsFunc(stem, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	var out []string
	for _, part := range parts {
		if len(part) < 4 {
			continue
		}
		if _, generic := businessSuffixes[strings.ToLower(part)]; generic {
			continue
		}
		if part != stem {
			out = append(out, part)
		}
	}

	// A run-together domain like "acmeproperties" still yields its
	// distinctive part once the suffix word is peeled off the end.
	if len(parts) == 1 {
		lower := strings.ToLower(stem)
		for suffix := range businessSuffixes {
			if strings.HasSuffix(lower, suffix) && len(lower) > len(suffix)+3 {
				out = append(out, stem[:len(lower)-len(suffix)])
			}
		}
	}
	return out
}

// withVariants returns the term plus its orthographic variants: multi-word
// and compound forms are interchangeable (spaces, hyphens, underscores,
// camel case), in both directions.
func withVariants(term string) []string {
	out := []string{term}
	seen := map[string]struct{}{strings.ToLower(term): {}}
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	words := strings.FieldsFunc(term, func(r rune) bool { return r == ' ' || r == '-' || r == '_' })
	if len(words) > 1 {
		add(strings.Join(words, ""))
		add(strings.Join(words, " "))
		add(strings.Join(words, "-"))
		add(strings.Join(words, "_"))
	} else if camel := splitCamelCase(term); len(camel) > 1 {
		add(strings.Join(camel, " "))
		add(strings.Join(camel, "-"))
		add(strings.Join(camel, "_"))
	}
	return out
}

func splitCamelCase(s string) []string {
	var words []string
	var current []rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && len(current) > 0 && !unicode.IsUpper(current[len(current)-1]) {
			words = append(words, string(current))
			current = current[:0]
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}
	return words
}

// isMostlyGeneric reports whether more than half of a name's words come
// from the generic business lexicon.
func isMostlyGeneric(name string) bool {
	words := strings.Fields(strings.ToLower(name))
	if len(words) == 0 {
		return false
	}
	generic := 0
	for _, word := range words {
		if _, ok := genericWords[strings.Trim(word, ".,!?")]; ok {
			generic++
		}
	}
	return generic*2 >= len(words)
}

func matches(text, term string, needContext bool) bool {
	re, err := wordPattern(term)
	if err != nil {
		return false
	}
	locations := re.FindAllStringIndex(text, -1)
	if len(locations) == 0 {
		return false
	}
	if !needContext {
		return true
	}
	for _, loc := range locations {
		if inBrandContext(text, loc[0], loc[1]) {
			return true
		}
	}
	return false
}

var patternCache sync.Map

func wordPattern(term string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(term); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`(?i)(^|[^a-z0-9])` + regexp.QuoteMeta(term) + `($|[^a-z0-9])`)
	if err != nil {
		return nil, err
	}
	actual, _ := patternCache.LoadOrStore(term, re)
	return actual.(*regexp.Regexp), nil
}

var contextLeadRe = regexp.MustCompile(`(?i)\b(by|from|according to|at|via|per)\s*$`)

// inBrandContext accepts a generic-name match only when the surrounding
// window signals a proper noun: a leading attribution word, possessive form,
// adjacency to a URL, capitalization, or sentence start.
func inBrandContext(text string, start, end int) bool {
	// The match pattern includes one boundary rune on each side.
	matchStart := start
	if matchStart < len(text) && !isWordRune(rune(text[matchStart])) {
		matchStart++
	}
	matchEnd := end
	if matchEnd > matchStart && !isWordRune(rune(text[matchEnd-1])) {
		matchEnd--
	}
	if matchStart >= matchEnd {
		return false
	}

	before := text[:matchStart]
	after := text[matchEnd:]

	if contextLeadRe.MatchString(before) {
		return true
	}
	if strings.HasPrefix(after, "'s") || strings.HasPrefix(after, "’s") {
		return true
	}

	window := lastChars(before, 40) + firstChars(after, 40)
	if strings.Contains(window, "http://") || strings.Contains(window, "https://") || strings.Contains(window, "www.") {
		return true
	}

	if unicode.IsUpper(rune(text[matchStart])) {
		return true
	}

	trimmed := strings.TrimRight(before, " \t")
	if trimmed == "" {
		return true
	}
	lastRune := rune(trimmed[len(trimmed)-1])
	return lastRune == '.' || lastRune == '!' || lastRune == '?' || lastRune == '\n'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lastChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
