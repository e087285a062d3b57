package delta

import (
	"math"
	"strings"
)

// Keyword tiers for importance scoring. Loaded once; never mutated. Each
// high-tier occurrence contributes 0.3, each medium-tier 0.1, so a single
// high keyword already marks a fragment as worth a look.
var (
	highImpactKeywords = []string{
		"risk", "uncertainty", "lawsuit", "litigation", "material adverse",
		"investigation", "bankruptcy", "default", "breach", "violation",
	}
	mediumImpactKeywords = []string{
		"challenge", "competition", "regulatory", "compliance",
		"depend", "may not", "could adversely", "potential",
	}
)

const (
	highKeywordWeight   = 0.3
	mediumKeywordWeight = 0.1
	lengthWeight        = 0.05
)

// Score assigns an importance score in [0, 1] to a change fragment. The
// score is the weighted count of case-insensitive keyword occurrences plus a
// logarithmic length factor that rewards substantial edits over trivial
// ones, clamped at 1.0. Pure: equal input always yields the equal score.
func Score(text string) float64 {
	lower := strings.ToLower(text)

	score := 0.0
	for _, kw := range highImpactKeywords {
		score += float64(strings.Count(lower, kw)) * highKeywordWeight
	}
	for _, kw := range mediumImpactKeywords {
		score += float64(strings.Count(lower, kw)) * mediumKeywordWeight
	}

	score += math.Log10(float64(len(text))+1) * lengthWeight

	return math.Min(score, 1.0)
}
