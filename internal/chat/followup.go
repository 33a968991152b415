package chat

import (
	"strings"

	"github.com/platewise/platewise/internal/restaurant"
)

// Aspect is the closed set of follow-up categories a new utterance can be
// routed to. Anything that matches no keyword falls through to
// AspectGeneral.
type Aspect string

const (
	AspectAddress Aspect = "address"
	AspectPrice   Aspect = "price"
	AspectRating  Aspect = "rating"
	// AspectTV routes to a prompt branch that must admit the catalog has
	// no TV data rather than guess.
	AspectTV      Aspect = "availability_of_tv"
	AspectFamily  Aspect = "family_suitability"
	AspectGeneral Aspect = "general_recommendation"
)

// aspectRules is the ordered keyword rule table. First match wins; the
// precedence order and the overlapping keyword sets are a behavioral
// contract, not an implementation detail.
var aspectRules = []struct {
	aspect   Aspect
	keywords []string
}{
	{AspectAddress, []string{"address"}},
	{AspectPrice, []string{"price", "expensive", "cheap"}},
	{AspectRating, []string{"reviews", "rating"}},
	{AspectTV, []string{"tv"}},
	{AspectFamily, []string{"family", "kids", "children"}},
}

// Decision is the outcome of classifying a new utterance.
type Decision struct {
	// Aspect names the follow-up category the utterance was routed to.
	Aspect Aspect

	// Reuse reports whether the cached candidates from the previous turn
	// should answer this utterance instead of a fresh retrieval.
	Reuse bool
}

// Classify routes an utterance to an aspect by case-insensitive substring
// match against the rule table.
//
// Reuse requires both a keyword match and a non-empty cached candidate set:
// a follow-up keyword with an empty cache still triggers fresh retrieval.
// There is no semantic similarity check between turns; mis-reuse across
// topic changes is an accepted limitation of the heuristic.
func Classify(utterance string, cached []restaurant.Restaurant) Decision {
	lower := strings.ToLower(utterance)
	for _, rule := range aspectRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Decision{Aspect: rule.aspect, Reuse: len(cached) > 0}
			}
		}
	}
	return Decision{Aspect: AspectGeneral}
}
