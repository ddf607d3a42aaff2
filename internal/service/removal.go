package service

import (
	"strings"

	"github.com/Vector-IT-Drew/Dash/internal/model"
)

// RemovalHint is a request parsed from the user's message to drop one
// accumulated amenity or one boolean feature. Scalar removals are handled by
// the extractor emitting null; amenity-level removals need the hint because
// the extractor's amenity list only accumulates.
type RemovalHint struct {
	// Key is set when the hint resolves to a boolean feature key.
	Key model.Key
	// Amenity is set (with canonical casing) when the hint names an amenity.
	Amenity string
}

// removalPhrases are the prefixes that open a removal request. The grammar is
// deliberately closed, anything fuzzier belongs in the extractor.
var removalPhrases = []string{
	"remove ",
	"no longer want ",
	"i no longer want ",
	"don't need ",
	"i don't need ",
	"dont need ",
	"cancel ",
	"reset ",
	"forget ",
	"drop ",
	"get rid of ",
}

// ParseRemovalHints scans a user message for removal phrases and resolves
// their targets against the snapshot's amenity set and the boolean feature
// vocabulary. Targets that resolve to neither are ignored.
func ParseRemovalHints(message string, domain *model.ValueDomain) []RemovalHint {
	lowered := strings.ToLower(message)

	var hints []RemovalHint
	seen := make(map[RemovalHint]bool)
	for _, phrase := range removalPhrases {
		idx := 0
		for {
			pos := strings.Index(lowered[idx:], phrase)
			if pos < 0 {
				break
			}
			start := idx + pos + len(phrase)
			target := removalTarget(lowered[start:])
			if hint, ok := resolveRemovalTarget(target, domain); ok && !seen[hint] {
				seen[hint] = true
				hints = append(hints, hint)
			}
			idx = start
		}
	}
	return hints
}

// removalTarget takes the text following a removal phrase up to the first
// clause boundary and strips leading articles.
func removalTarget(rest string) string {
	for _, stop := range []string{",", ".", ";", " and ", " but ", "?", "!"} {
		if i := strings.Index(rest, stop); i >= 0 {
			rest = rest[:i]
		}
	}
	rest = strings.TrimSpace(rest)
	for _, article := range []string{"the ", "a ", "an ", "my "} {
		if strings.HasPrefix(rest, article) {
			rest = strings.TrimPrefix(rest, article)
			break
		}
	}
	for _, filler := range []string{" anymore", " any more", " now", " please", " either"} {
		rest = strings.TrimSuffix(rest, filler)
	}
	return strings.TrimSpace(rest)
}

// resolveRemovalTarget maps the target text to an amenity or boolean key.
func resolveRemovalTarget(target string, domain *model.ValueDomain) (RemovalHint, bool) {
	if target == "" {
		return RemovalHint{}, false
	}

	if key, ok := booleanFeatureFromText(target); ok {
		return RemovalHint{Key: key}, true
	}
	if exact, ok := domain.CanonicalAmenity(target); ok {
		return RemovalHint{Amenity: exact}, true
	}

	// Requirement phrasing wraps the real target ("doorman requirement").
	for _, suffix := range []string{" requirement", " preference", " filter"} {
		if strings.HasSuffix(target, suffix) {
			return resolveRemovalTarget(strings.TrimSuffix(target, suffix), domain)
		}
	}

	return RemovalHint{}, false
}
