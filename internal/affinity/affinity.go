// Package affinity computes the percentage similarity between two actors'
// structured health-profile attributes. The score annotates chat requests
// as context; it never gates whether a chat is created.
package affinity

import (
	"math"

	"github.com/wellnest/internal/profile"
)

// Score compares two profiles attribute-by-attribute over the given ordered
// attribute list and returns matches/total*100 rounded to one decimal place.
//
// Comparison is exact string equality. An attribute absent on either side
// counts as non-matching rather than being skipped, so the denominator is
// always len(attrs) regardless of how complete the profiles are. A nil
// profile scores like an empty one.
func Score(a, b *profile.Profile, attrs []string) float64 {
	if len(attrs) == 0 {
		return 0
	}

	matches := 0
	for _, name := range attrs {
		av, aok := a.Attribute(name)
		bv, bok := b.Attribute(name)
		if aok && bok && av == bv {
			matches++
		}
	}

	pct := float64(matches) / float64(len(attrs)) * 100
	return math.Round(pct*10) / 10
}
