package analysis

import (
	"strings"

	"github.com/Noah-Banjo/lr-schoolbot/internal/domain/entities"
)

// rule pairs a predicate over a lower-cased query with the label it assigns.
// Rule tables are evaluated in order and the first match wins.
type rule[L any] struct {
	label L
	match func(q string) bool
}

func containsAny(keywords ...string) func(string) bool {
	return func(q string) bool {
		for _, k := range keywords {
			if strings.Contains(q, k) {
				return true
			}
		}
		return false
	}
}

var isInterrogative = containsAny("what", "who", "where", "when", "why", "how")

var interrogativeRules = []rule[entities.QueryType]{
	{entities.QueryTypeTemporal, containsAny("when", "what year", "what date")},
	{entities.QueryTypePerson, containsAny("who")},
	{entities.QueryTypeLocation, containsAny("where")},
	{entities.QueryTypeExplanation, containsAny("why", "explain")},
	{entities.QueryTypeProcess, containsAny("how")},
}

var requestRules = []rule[entities.QueryType]{
	{entities.QueryTypeSearch, containsAny("find", "search", "locate", "show me")},
	{entities.QueryTypeComparison, containsAny("compare", "difference", "similar", "versus")},
	{entities.QueryTypeFeedback, containsAny("thank", "great")},
}

const shortQueryMaxTokens = 3

// ClassifyQueryType labels a query by keyword matching. Keywords match as
// substrings, so "show me" is caught by the interrogative "how" first.
func ClassifyQueryType(query string) entities.QueryType {
	q := strings.ToLower(query)

	if isInterrogative(q) {
		for _, r := range interrogativeRules {
			if r.match(q) {
				return r.label
			}
		}
		return entities.QueryTypeFactual
	}

	for _, r := range requestRules {
		if r.match(q) {
			return r.label
		}
	}

	// Blank input has zero tokens and lands here too.
	if len(strings.Fields(q)) <= shortQueryMaxTokens {
		return entities.QueryTypeShort
	}
	return entities.QueryTypeExploratory
}

// IsInterrogativeType reports whether t is one of the question sub-types.
func IsInterrogativeType(t entities.QueryType) bool {
	if t == entities.QueryTypeFactual {
		return true
	}
	for _, r := range interrogativeRules {
		if r.label == t {
			return true
		}
	}
	return false
}
