package urlutil

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed authority_data.yaml
var authorityDataYAML []byte

// AuthorityTable maps domains to authority scores and source types. The
// default table ships as embedded YAML; callers may load their own.
type AuthorityTable struct {
	byDomain          map[string]tierEntry
	tldScores         map[string]int
	defaultScore      int
	defaultSourceType string
}

type tierEntry struct {
	score      int
	sourceType string
}

type authorityData struct {
	Tiers []struct {
		Name       string   `yaml:"name"`
		Score      int      `yaml:"score"`
		SourceType string   `yaml:"source_type"`
		Domains    []string `yaml:"domains"`
	} `yaml:"tiers"`
	TLDScores         map[string]int `yaml:"tld_scores"`
	DefaultScore      int            `yaml:"default_score"`
	DefaultSourceType string         `yaml:"default_source_type"`
}

var (
	defaultTable     *AuthorityTable
	defaultTableOnce sync.Once
)

// DefaultAuthorityTable returns the table parsed from the embedded data.
func DefaultAuthorityTable() *AuthorityTable {
	defaultTableOnce.Do(func() {
		table, err := ParseAuthorityTable(authorityDataYAML)
		if err != nil {
			// Embedded data is validated by tests; an error here is a build defect.
			panic(fmt.Sprintf("urlutil: invalid embedded authority data: %v", err))
		}
		defaultTable = table
	})
	return defaultTable
}

// ParseAuthorityTable parses a YAML authority table.
func ParseAuthorityTable(data []byte) (*AuthorityTable, error) {
	var parsed authorityData
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse authority data: %w", err)
	}

	table := &AuthorityTable{
		byDomain:          make(map[string]tierEntry),
		tldScores:         make(map[string]int, len(parsed.TLDScores)),
		defaultScore:      parsed.DefaultScore,
		defaultSourceType: strings.ToLower(strings.TrimSpace(parsed.DefaultSourceType)),
	}
	if table.defaultScore <= 0 {
		table.defaultScore = 50
	}
	if table.defaultSourceType == "" {
		table.defaultSourceType = "editorial"
	}
	for tld, score := range parsed.TLDScores {
		table.tldScores[strings.ToLower(strings.TrimPrefix(tld, "."))] = score
	}
	for _, tier := range parsed.Tiers {
		for _, domain := range tier.Domains {
			key := strings.ToLower(strings.TrimSpace(domain))
			if key == "" {
				continue
			}
			table.byDomain[key] = tierEntry{score: tier.Score, sourceType: tier.SourceType}
		}
	}
	return table, nil
}

// Score returns the authority score in [0,100] for a domain or URL.
// Lookup order: exact registrable domain, then TLD heuristics, then default.
func (t *AuthorityTable) Score(domainOrURL string) int {
	if t == nil {
		return DefaultAuthorityTable().Score(domainOrURL)
	}

	host := Host(domainOrURL)
	if host == "" {
		return t.defaultScore
	}

	if entry, ok := t.lookup(host); ok {
		return entry.score
	}
	if score, ok := t.tldScores[TLD(host)]; ok {
		return score
	}
	return t.defaultScore
}

// SourceType returns the configured source type for a domain. Domains not in
// the table get the table's default type, so the result is always a valid
// classification.
func (t *AuthorityTable) SourceType(domainOrURL string) string {
	if t == nil {
		return DefaultAuthorityTable().SourceType(domainOrURL)
	}

	host := Host(domainOrURL)
	if host != "" {
		if entry, ok := t.lookup(host); ok && entry.sourceType != "" {
			return entry.sourceType
		}
	}
	return t.defaultSourceType
}

func (t *AuthorityTable) lookup(host string) (tierEntry, bool) {
	if entry, ok := t.byDomain[host]; ok {
		return entry, true
	}
	if registrable := RegistrableDomain(host); registrable != "" && registrable != host {
		if entry, ok := t.byDomain[registrable]; ok {
			return entry, true
		}
	}
	return tierEntry{}, false
}
