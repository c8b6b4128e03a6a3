package scoring

import "github.com/okian/millcert/internal/domain/checklist"

// Result is the complete outcome of one scoring pass. Every field is derived
// from the inputs; nothing is cached between passes.
type Result struct {
	TotalPoints       float64        `json:"total_points"`
	AchievedPoints    float64        `json:"achieved_points"`
	OverallPercentage float64        `json:"overall_percentage"`
	Category          Category       `json:"category"`
	Passed            bool           `json:"passed"`
	SectionScores     []SectionScore `json:"section_scores"`
	RedFlags          []RedFlag      `json:"red_flags"`
	CriticalFailures  int            `json:"critical_failures"`
	MajorFailures     int            `json:"major_failures"`
	MinorFailures     int            `json:"minor_failures"`
}

// CalculateOverallScore scores every section, detects red flags once over the
// whole response set, and classifies the audit.
func CalculateOverallScore(sections []checklist.Section, responses []checklist.Response, rules Rules) Result {
	return calculate(sections, checklist.IndexResponses(responses), rules, defaultRecommender)
}

func calculate(sections []checklist.Section, idx map[string]checklist.Response, rules Rules, rec Recommender) Result {
	out := Result{SectionScores: make([]SectionScore, 0, len(sections))}
	for _, section := range sections {
		ss := ScoreSection(section, idx, rules)
		out.TotalPoints += ss.TotalPoints
		out.AchievedPoints += ss.AchievedPoints
		out.SectionScores = append(out.SectionScores, ss)
	}
	out.OverallPercentage = percentage(out.AchievedPoints, out.TotalPoints)

	out.RedFlags = DetectRedFlagsWith(sections, idx, rules, rec)
	for _, f := range out.RedFlags {
		switch f.Criticality {
		case checklist.CriticalityCritical:
			out.CriticalFailures++
		case checklist.CriticalityMajor:
			out.MajorFailures++
		default:
			out.MinorFailures++
		}
	}

	out.Category = Categorize(out.OverallPercentage, out.CriticalFailures, rules)
	out.Passed = out.Category != CategoryNonCompliant && out.OverallPercentage >= rules.PassingThreshold
	return out
}
