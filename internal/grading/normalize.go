// Package grading normalizes answers and scores student submissions.
package grading

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pavelanni/worksheet/internal/model"
)

var (
	currencyRe      = regexp.MustCompile(`[£$€¥]`)
	arrowRe         = regexp.MustCompile(`\s*(?:→|⟶|➔|->)\s*`)
	spaceRe         = regexp.MustCompile(`\s+`)
	vulgarRe        = regexp.MustCompile(`(\d)? ?([½¼¾⅓⅔])`)
	trailingNumRe   = regexp.MustCompile(`(-?\d+(?:\.\d+)?(?: \d+/\d+|/\d+)?)[.,!?;:]?$`)
	trailingPunctRe = regexp.MustCompile(`[.,!?;:]$`)
)

var vulgarFractions = map[string]string{
	"½": "1/2",
	"¼": "1/4",
	"¾": "3/4",
	"⅓": "1/3",
	"⅔": "2/3",
}

// Normalizer maps raw answers to a canonical form for equality comparison.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	trailingWordsRe *regexp.Regexp
	trailingUnitRe  *regexp.Regexp
}

// NewNormalizer compiles the trailing-word rules for vocab.
func NewNormalizer(vocab Vocabulary) *Normalizer {
	n := &Normalizer{}
	words := append(append([]string(nil), vocab.Nouns...), vocab.Aggregates...)
	if alt := alternation(words); alt != "" {
		// Only a run of listed words directly after a number is a qualifier;
		// "a cat" stays "a cat".
		n.trailingWordsRe = regexp.MustCompile(`(?s)^(.*(?:[\d½¼¾⅓⅔]|\b(?:` + alternation(numberWords) + `)))` +
			`\s+(?:` + alt + `)(?:\s+(?:` + alt + `))*[.,!?;:]*$`)
	}
	if alt := alternation(vocab.Units); alt != "" {
		n.trailingUnitRe = regexp.MustCompile(`(?s)^(.*[\d½¼¾⅓⅔])\s*(?:` + alt + `)[.,!?;:]*$`)
	}
	return n
}

// alternation builds a regexp alternation, longest words first.
func alternation(words []string) string {
	seen := make(map[string]bool, len(words))
	var uniq []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		uniq = append(uniq, w)
	}
	sort.Slice(uniq, func(i, j int) bool {
		if len(uniq[i]) != len(uniq[j]) {
			return len(uniq[i]) > len(uniq[j])
		}
		return uniq[i] < uniq[j]
	})
	parts := make([]string, len(uniq))
	for i, w := range uniq {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return strings.Join(parts, "|")
}

// Normalize returns the canonical form of answer. The same rules apply to
// every question kind.
func (n *Normalizer) Normalize(answer string, _ model.QuestionKind) string {
	s := strings.ToLower(strings.TrimSpace(answer))

	s = currencyRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	// "7 strawberries altogether" becomes "7".
	if n.trailingWordsRe != nil {
		if m := n.trailingWordsRe.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
	}
	if n.trailingUnitRe != nil {
		if m := n.trailingUnitRe.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
	}

	s = arrowRe.ReplaceAllString(s, "-")
	s = spaceRe.ReplaceAllString(s, " ")

	s = vulgarRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := vulgarRe.FindStringSubmatch(m)
		if sub[1] != "" {
			return sub[1] + " " + vulgarFractions[sub[2]]
		}
		return vulgarFractions[sub[2]]
	})

	// A worked equation is graded on its final result only.
	if i := strings.LastIndex(s, "="); i >= 0 {
		if m := trailingNumRe.FindStringSubmatch(strings.TrimSpace(s[i+1:])); m != nil {
			s = m[1]
		}
	}

	s = trailingPunctRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
