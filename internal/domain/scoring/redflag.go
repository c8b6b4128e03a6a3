package scoring

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/okian/millcert/internal/domain/checklist"
)

// RedFlag is an answered item that failed its check.
type RedFlag struct {
	ItemID         string                `json:"item_id"`
	SectionID      string                `json:"section_id"`
	Question       string                `json:"question"`
	Criticality    checklist.Criticality `json:"criticality"`
	Priority       int                   `json:"priority"`
	Issue          string                `json:"issue"`
	Recommendation string                `json:"recommendation"`
	Points         float64               `json:"points"`
	MaxPoints      float64               `json:"max_points"`
	Evidence       []string              `json:"evidence,omitempty"`
	Notes          string                `json:"notes,omitempty"`
}

// DetectRedFlags flags answered, non-compliant items using the default
// recommender. Unanswered items are not flagged.
func DetectRedFlags(sections []checklist.Section, responses map[string]checklist.Response, rules Rules) []RedFlag {
	return DetectRedFlagsWith(sections, responses, rules, defaultRecommender)
}

// DetectRedFlagsWith is DetectRedFlags with a caller-supplied recommender.
// The result is ordered by priority; equal priorities keep template order.
func DetectRedFlagsWith(sections []checklist.Section, responses map[string]checklist.Response, rules Rules, rec Recommender) []RedFlag {
	flags := make([]RedFlag, 0)
	for _, section := range sections {
		for _, item := range section.Items {
			resp, ok := responses[item.ID]
			if !ok {
				continue
			}
			ev := Evaluate(item, resp, rules)
			if ev.Compliant {
				continue
			}
			flags = append(flags, RedFlag{
				ItemID:         item.ID,
				SectionID:      section.ID,
				Question:       item.Question,
				Criticality:    item.Criticality,
				Priority:       Priority(item.Criticality),
				Issue:          describeIssue(item, resp.Value),
				Recommendation: rec.Recommend(item),
				Points:         ev.Points,
				MaxPoints:      ev.MaxPoints,
				Evidence:       slices.Clone(resp.Evidence),
				Notes:          resp.Notes,
			})
		}
	}
	slices.SortStableFunc(flags, func(a, b RedFlag) int { return a.Priority - b.Priority })
	return flags
}

// describeIssue renders the per-type issue text.
func describeIssue(item checklist.Item, v checklist.Value) string {
	switch item.ResponseType {
	case checklist.ResponseYesNo:
		return "Failed check: " + item.Question
	case checklist.ResponseNumeric:
		return numericIssue(item, v)
	case checklist.ResponseDropdown, checklist.ResponseMultipleChoice:
		expected := ""
		if item.TargetValue != nil {
			expected = item.TargetValue.String()
		}
		return fmt.Sprintf("Expected %q but recorded %q for: %s", expected, v.String(), item.Question)
	case checklist.ResponseText:
		return "No details recorded for: " + item.Question
	default:
		return "Non-compliant response for: " + item.Question
	}
}

func numericIssue(item checklist.Item, v checklist.Value) string {
	if item.TargetRange == nil {
		return "No acceptable range configured for: " + item.Question
	}
	x, ok := v.Number()
	if !ok {
		return fmt.Sprintf("Value %q is not a valid number for: %s", v.String(), item.Question)
	}
	r := *item.TargetRange
	if r.Contains(x) {
		return fmt.Sprintf("%s: %s is within the acceptable range %s to %s but off the target of %s",
			item.Question, quantity(x, item.Unit), quantity(r.Min, item.Unit), quantity(r.Max, item.Unit),
			quantity(numericTarget(item), item.Unit))
	}
	return fmt.Sprintf("%s: %s is outside the acceptable range %s to %s",
		item.Question, quantity(x, item.Unit), quantity(r.Min, item.Unit), quantity(r.Max, item.Unit))
}

func quantity(x float64, unit string) string {
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}
