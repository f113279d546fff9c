package analysis

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxTopics      = 3
	minTopicLength = 4
)

// Only these words are dropped. Question words such as "what" or "about"
// still count as topics.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {}, "but": {}, "is": {}, "are": {},
}

// IsStopword reports whether a lower-cased token is ignored by ExtractTopics.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// ExtractTopics returns up to three keywords from text, longest first. Tokens
// are split on whitespace only, so punctuation stays attached and repeated
// words are kept. Equal lengths keep their order of appearance.
func ExtractTopics(text string) []string {
	candidates := []string{}
	for _, token := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(token) < minTopicLength || IsStopword(token) {
			continue
		}
		candidates = append(candidates, token)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i]) > utf8.RuneCountInString(candidates[j])
	})
	if len(candidates) > maxTopics {
		candidates = candidates[:maxTopics]
	}
	return candidates
}

var (
	capitalizedPhrase = regexp.MustCompile(`\b(?:[A-Z][a-z]+\.?\s+)+[A-Z][a-z]+\b`)
	fourDigitYear     = regexp.MustCompile(`\b\d{4}\b`)
	centuryPhrase     = regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)\s+century\b`)
)

// ExtractHistoricalEntities finds multi-word capitalized phrases, four-digit
// years and "Nth century" phrases. The result is de-duplicated and sorted;
// every entry is a substring of text.
func ExtractHistoricalEntities(text string) []string {
	set := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{capitalizedPhrase, fourDigitYear, centuryPhrase} {
		for _, m := range re.FindAllString(text, -1) {
			set[m] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

var personTitles = map[string]struct{}{
	"Dr.": {}, "Professor": {}, "Mr.": {}, "Mrs.": {}, "Ms.": {},
	"Sir": {}, "Lady": {}, "King": {}, "Queen": {},
}

// IsPersonEntity reports whether entity names a person: it must contain an
// upper-case letter and one of the honorific tokens.
func IsPersonEntity(entity string) bool {
	if strings.IndexFunc(entity, unicode.IsUpper) < 0 {
		return false
	}
	for _, token := range strings.Fields(entity) {
		if _, ok := personTitles[token]; ok {
			return true
		}
	}
	return false
}

// IsEventEntity reports whether a non-person entity carries a date, which is
// how events are told apart from places and institutions.
func IsEventEntity(entity string) bool {
	return !IsPersonEntity(entity) && strings.IndexFunc(entity, unicode.IsDigit) >= 0
}
