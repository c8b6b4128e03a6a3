package scoring

import "github.com/okian/millcert/internal/domain/checklist"

const percentScale = 100

// SectionScore aggregates the items of one section.
type SectionScore struct {
	SectionID        string   `json:"section_id"`
	SectionName      string   `json:"section_name"`
	TotalPoints      float64  `json:"total_points"`
	AchievedPoints   float64  `json:"achieved_points"`
	Percentage       float64  `json:"percentage"`
	MinimumThreshold *float64 `json:"minimum_threshold,omitempty"`
	Passed           bool     `json:"passed"`
	ItemCount        int      `json:"item_count"`
	AnsweredItems    int      `json:"answered_items"`
	CompliantItems   int      `json:"compliant_items"`
}

// ScoreSection sums the item evaluations of a section in declared order.
// Unanswered items contribute their full weight to the total and nothing to
// the achieved points.
func ScoreSection(section checklist.Section, responses map[string]checklist.Response, rules Rules) SectionScore {
	out := SectionScore{
		SectionID:        section.ID,
		SectionName:      section.Name,
		MinimumThreshold: section.MinimumThreshold,
		ItemCount:        len(section.Items),
	}
	for _, item := range section.Items {
		resp, ok := responses[item.ID]
		if !ok {
			out.TotalPoints += MaxPoints(item, rules)
			continue
		}
		ev := Evaluate(item, resp, rules)
		out.TotalPoints += ev.MaxPoints
		out.AchievedPoints += ev.Points
		out.AnsweredItems++
		if ev.Compliant {
			out.CompliantItems++
		}
	}
	out.Percentage = percentage(out.AchievedPoints, out.TotalPoints)
	out.Passed = section.MinimumThreshold == nil || out.Percentage >= *section.MinimumThreshold
	return out
}

// percentage is achieved/total scaled to 0-100, and 0 for an empty total.
func percentage(achieved, total float64) float64 {
	if total == 0 {
		return 0
	}
	return achieved / total * percentScale
}
