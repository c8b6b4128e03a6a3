package scoring

import (
	"slices"

	"github.com/okian/millcert/internal/domain/checklist"
)

// Projection compares the current score with a hypothetical one.
type Projection struct {
	CurrentScore   Result   `json:"current_score"`
	ProjectedScore Result   `json:"projected_score"`
	Improvement    float64  `json:"improvement"`
	ItemsToFix     []string `json:"items_to_fix"`
}

// WhatIfAnalysis re-scores the audit with the values of existing responses
// replaced by changes. Items without a response are not synthesized. The
// improvement may be negative. ItemsToFix lists the keys of changes sorted by
// item id.
func WhatIfAnalysis(sections []checklist.Section, current []checklist.Response, changes map[string]checklist.Value, rules Rules) Projection {
	return whatIf(sections, current, changes, rules, defaultRecommender)
}

func whatIf(sections []checklist.Section, current []checklist.Response, changes map[string]checklist.Value, rules Rules, rec Recommender) Projection {
	currentScore := calculate(sections, checklist.IndexResponses(current), rules, rec)

	modified := make([]checklist.Response, len(current))
	for i, r := range current {
		if v, ok := changes[r.ItemID]; ok {
			r.Value = v
		}
		modified[i] = r
	}
	projected := calculate(sections, checklist.IndexResponses(modified), rules, rec)

	items := make([]string, 0, len(changes))
	for id := range changes {
		items = append(items, id)
	}
	slices.Sort(items)

	return Projection{
		CurrentScore:   currentScore,
		ProjectedScore: projected,
		Improvement:    projected.OverallPercentage - currentScore.OverallPercentage,
		ItemsToFix:     items,
	}
}
