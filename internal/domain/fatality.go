package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// maxParsedFatalities caps counts read from text. Larger numbers near
// "dead" or "killed" are far more often mile markers or route numbers than
// real death tolls.
const maxParsedFatalities = 10

// numericFatalityPatterns are tried in order; the first match wins.
var numericFatalityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s+(?:people|person|victims?)\s+(?:were\s+)?killed`),
	regexp.MustCompile(`(\d+)\s+dead`),
	regexp.MustCompile(`killed\s+(\d+)`),
	regexp.MustCompile(`(\d+)\s+fatalit`),
}

// FatalityEstimator guesses a fatality count from natural-language clues.
type FatalityEstimator struct {
	clues          []string
	spelledNumbers map[string]int
	spelledDead    *regexp.Regexp
	spelledKilled  *regexp.Regexp
}

// NewFatalityEstimator builds the spelled-number patterns from the lexicon.
func NewFatalityEstimator(lex *Lexicon) *FatalityEstimator {
	words := make([]string, 0, len(lex.SpelledNumbers))
	for w := range lex.SpelledNumbers {
		words = append(words, regexp.QuoteMeta(w))
	}
	sort.Strings(words)
	alt := strings.Join(words, "|")

	return &FatalityEstimator{
		clues:          lex.FatalClues,
		spelledNumbers: lex.SpelledNumbers,
		spelledDead:    regexp.MustCompile(`\b(` + alt + `)\s+dead\b`),
		spelledKilled:  regexp.MustCompile(`\b(` + alt + `)\s+(?:person|people)\s+(?:was|were)\s+killed\b`),
	}
}

// Estimate returns 0 when the text carries no fatal clue. Otherwise it returns
// the first plausible count found (numeric patterns, then spelled numbers), or
// 1 when the text is clearly about a death but the count cannot be read.
func (e *FatalityEstimator) Estimate(text string) int {
	lowered := strings.ToLower(text)
	if !containsAny(lowered, e.clues) {
		return 0
	}

	for _, re := range numericFatalityPatterns {
		m := re.FindStringSubmatch(lowered)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 && n <= maxParsedFatalities {
			return n
		}
	}

	for _, re := range []*regexp.Regexp{e.spelledDead, e.spelledKilled} {
		if m := re.FindStringSubmatch(lowered); m != nil {
			if n, ok := e.spelledNumbers[m[1]]; ok {
				return n
			}
		}
	}

	return 1
}
