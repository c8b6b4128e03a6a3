package scoring

import (
	"math"
	"strings"

	"github.com/okian/millcert/internal/domain/checklist"
)

const (
	// optimalBandRatio is the share of the tolerance that earns full credit
	// on either side of a numeric target.
	optimalBandRatio = 0.1
	// partialCreditRatio is awarded for in-range values outside the optimal band.
	partialCreditRatio = 0.5
	yesLiteral         = "YES"
)

// Evaluation is the outcome of scoring one item against one response.
type Evaluation struct {
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
	Compliant bool    `json:"compliant"`
}

// MaxPoints returns the item's explicit weight, or the tier default.
func MaxPoints(item checklist.Item, rules Rules) float64 {
	if item.Weight != nil {
		return *item.Weight
	}
	return rules.TierWeight(item.Criticality)
}

// Evaluate scores one answered item. Unanswered items never reach here; the
// section aggregator counts them as zero against the full weight.
func Evaluate(item checklist.Item, resp checklist.Response, rules Rules) Evaluation {
	maxPoints := MaxPoints(item, rules)
	ratio, compliant := credit(item, resp.Value)
	return Evaluation{
		Points:    maxPoints * ratio,
		MaxPoints: maxPoints,
		Compliant: compliant,
	}
}

// credit returns the share of the item's points earned and whether the
// answer is compliant.
func credit(item checklist.Item, v checklist.Value) (float64, bool) {
	switch item.ResponseType {
	case checklist.ResponseYesNo:
		return all(yesAnswer(v))
	case checklist.ResponseNumeric:
		return numericCredit(item, v)
	case checklist.ResponseDropdown, checklist.ResponseMultipleChoice:
		return all(item.TargetValue != nil && v.Equal(*item.TargetValue))
	case checklist.ResponseText:
		s, ok := v.Text()
		return all(ok && strings.TrimSpace(s) != "")
	default:
		return 0, false
	}
}

func all(ok bool) (float64, bool) {
	if ok {
		return 1, true
	}
	return 0, false
}

func yesAnswer(v checklist.Value) bool {
	if b, ok := v.Bool(); ok {
		return b
	}
	s, ok := v.Text()
	return ok && s == yesLiteral
}

// numericCredit applies the tolerance bands. Half credit inside the range is
// still non-compliant.
func numericCredit(item checklist.Item, v checklist.Value) (float64, bool) {
	if item.TargetRange == nil {
		return 0, false
	}
	x, ok := v.Number()
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	target := numericTarget(item)
	band := optimalBandRatio * (item.TargetRange.Max - item.TargetRange.Min) / 2
	switch {
	case x >= target-band && x <= target+band:
		return 1, true
	case item.TargetRange.Contains(x):
		return partialCreditRatio, false
	default:
		return 0, false
	}
}

// numericTarget is the explicit target value, or the midpoint of the range.
func numericTarget(item checklist.Item) float64 {
	if item.TargetValue != nil {
		if t, ok := item.TargetValue.Number(); ok {
			return t
		}
	}
	return item.TargetRange.Midpoint()
}
