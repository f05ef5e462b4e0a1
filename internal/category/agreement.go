package category

import (
	"fmt"
	"math/rand"

	"cohort/internal/types"
)

// Disagreement is one record where the rule engine and the classifier
// chose different categories, kept for manual review.
type Disagreement struct {
	Index     int
	Title     string
	RuleLabel types.JobCategory
	MLLabel   types.JobCategory
}

// DefaultSampleLimit bounds the disagreement sample.
const DefaultSampleLimit = 10

// CompareAssignments computes the fraction of records where both labelers
// agree and a bounded seeded-random sample of the mismatches. A sample
// limit of 0 takes DefaultSampleLimit.
func CompareAssignments(titles []string, ruleLabels, mlLabels []types.JobCategory, sampleLimit int, seed int64) (float64, []Disagreement, error) {
	if len(ruleLabels) != len(mlLabels) || len(titles) != len(ruleLabels) {
		return 0, nil, fmt.Errorf("label slices differ in length: %d titles, %d rule, %d ml",
			len(titles), len(ruleLabels), len(mlLabels))
	}
	if len(ruleLabels) == 0 {
		return 0, nil, fmt.Errorf("no labels to compare")
	}
	if sampleLimit == 0 {
		sampleLimit = DefaultSampleLimit
	}

	var mismatches []Disagreement
	agree := 0
	for i := range ruleLabels {
		if ruleLabels[i] == mlLabels[i] {
			agree++
			continue
		}
		mismatches = append(mismatches, Disagreement{
			Index:     i,
			Title:     titles[i],
			RuleLabel: ruleLabels[i],
			MLLabel:   mlLabels[i],
		})
	}
	rate := float64(agree) / float64(len(ruleLabels))

	if len(mismatches) > sampleLimit {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(mismatches), func(a, b int) {
			mismatches[a], mismatches[b] = mismatches[b], mismatches[a]
		})
		mismatches = mismatches[:sampleLimit]
	}
	return rate, mismatches, nil
}
