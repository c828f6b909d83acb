// Package sentiment computes how favorably a brand is portrayed in an AI
// answer: a lexicon fast path, an AI deep path, and a rule-based
// comparative-context check. Analysis never fails outright; the lexicon
// result is the floor.
package sentiment

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed sentiment_data.yaml
var sentimentDataYAML []byte

// Lexicon scores text against fixed word and phrase lists, adjusted for
// negation and intensity.
type Lexicon struct {
	positiveWords   map[string]struct{}
	negativeWords   map[string]struct{}
	positivePhrases []string
	negativePhrases []string
	negators        map[string]struct{}
	intensifiers    map[string]struct{}
}

type lexiconData struct {
	PositiveWords   []string `yaml:"positive_words"`
	NegativeWords   []string `yaml:"negative_words"`
	PositivePhrases []string `yaml:"positive_phrases"`
	NegativePhrases []string `yaml:"negative_phrases"`
	Negators        []string `yaml:"negators"`
	Intensifiers    []string `yaml:"intensifiers"`
}

var (
	defaultLexicon     *Lexicon
	defaultLexiconOnce sync.Once
)

// DefaultLexicon returns the lexicon parsed from the embedded data.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		lexicon, err := ParseLexicon(sentimentDataYAML)
		if err != nil {
			panic(fmt.Sprintf("sentiment: invalid embedded lexicon data: %v", err))
		}
		defaultLexicon = lexicon
	})
	return defaultLexicon
}

// ParseLexicon parses a YAML lexicon definition.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var parsed lexiconData
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse lexicon data: %w", err)
	}
	lexicon := &Lexicon{
		positiveWords: toSet(parsed.PositiveWords),
		negativeWords: toSet(parsed.NegativeWords),
		negators:      toSet(parsed.Negators),
		intensifiers:  toSet(parsed.Intensifiers),
	}
	for _, phrase := range parsed.PositivePhrases {
		lexicon.positivePhrases = append(lexicon.positivePhrases, strings.ToLower(phrase))
	}
	for _, phrase := range parsed.NegativePhrases {
		lexicon.negativePhrases = append(lexicon.negativePhrases, strings.ToLower(phrase))
	}
	return lexicon, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// LexiconVerdict is the fast-path result.
type LexiconVerdict struct {
	Polarity   float64
	Confidence float64
	Positives  []string
	Negatives  []string
}

var tokenRe = regexp.MustCompile(`[a-zA-Z'][a-zA-Z'\-]*`)

// Score produces a polarity in [-1,1] and a confidence from match counts.
// Negators within two tokens flip a hit; intensifiers weight it by 1.5.
func (l *Lexicon) Score(text string) LexiconVerdict {
	lower := strings.ToLower(text)

	var verdict LexiconVerdict
	var positive, negative float64

	for _, phrase := range l.positivePhrases {
		if n := strings.Count(lower, phrase); n > 0 {
			positive += float64(n) * 1.5
			verdict.Positives = append(verdict.Positives, phrase)
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}
	for _, phrase := range l.negativePhrases {
		if n := strings.Count(lower, phrase); n > 0 {
			negative += float64(n) * 1.5
			verdict.Negatives = append(verdict.Negatives, phrase)
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}

	tokens := tokenRe.FindAllString(lower, -1)
	for i, token := range tokens {
		_, isPositive := l.positiveWords[token]
		_, isNegative := l.negativeWords[token]
		if !isPositive && !isNegative {
			continue
		}

		weight := 1.0
		negated := false
		for back := i - 1; back >= 0 && back >= i-2; back-- {
			if _, ok := l.negators[tokens[back]]; ok {
				negated = true
			}
			if _, ok := l.intensifiers[tokens[back]]; ok {
				weight = 1.5
			}
		}

		positiveHit := (isPositive && !negated) || (isNegative && negated)
		if positiveHit {
			positive += weight
			verdict.Positives = append(verdict.Positives, token)
		} else {
			negative += weight
			verdict.Negatives = append(verdict.Negatives, token)
		}
	}

	total := positive + negative
	if total == 0 {
		return verdict
	}

	verdict.Polarity = (positive - negative) / total
	verdict.Confidence = total / (total + 4)
	if verdict.Confidence > 0.9 {
		verdict.Confidence = 0.9
	}
	return verdict
}
