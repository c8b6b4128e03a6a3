package scoring

import "github.com/okian/millcert/internal/domain/checklist"

// Default scoring configuration constants.
const (
	defaultCriticalWeight            = 10
	defaultMajorWeight               = 5
	defaultMinorWeight               = 2
	defaultPassingThreshold          = 70
	defaultExcellentThreshold        = 90
	defaultGoodThreshold             = 75
	defaultNeedsImprovementThreshold = 60
)

// Category is the classification assigned to a scored audit.
type Category string

// Audit categories.
const (
	CategoryExcellent        Category = "EXCELLENT"
	CategoryGood             Category = "GOOD"
	CategoryNeedsImprovement Category = "NEEDS_IMPROVEMENT"
	CategoryNonCompliant     Category = "NON_COMPLIANT"
)

// Rules is the weighting and classification policy for one scoring pass.
// It is a value type; callers hand it down explicitly.
type Rules struct {
	CriticalWeight float64 `json:"critical_weight"`
	MajorWeight    float64 `json:"major_weight"`
	MinorWeight    float64 `json:"minor_weight"`

	PassingThreshold          float64 `json:"passing_threshold"`
	ExcellentThreshold        float64 `json:"excellent_threshold"`
	GoodThreshold             float64 `json:"good_threshold"`
	NeedsImprovementThreshold float64 `json:"needs_improvement_threshold"`

	// AutoFailOnCritical forces NON_COMPLIANT when any critical item fails.
	AutoFailOnCritical bool `json:"auto_fail_on_critical"`
}

// DefaultRules returns the stock certification policy.
func DefaultRules() Rules {
	return Rules{
		CriticalWeight:            defaultCriticalWeight,
		MajorWeight:               defaultMajorWeight,
		MinorWeight:               defaultMinorWeight,
		PassingThreshold:          defaultPassingThreshold,
		ExcellentThreshold:        defaultExcellentThreshold,
		GoodThreshold:             defaultGoodThreshold,
		NeedsImprovementThreshold: defaultNeedsImprovementThreshold,
		AutoFailOnCritical:        true,
	}
}

// TierWeight returns the default points for a criticality tier. Unknown tiers
// are weighted as minor.
func (r Rules) TierWeight(c checklist.Criticality) float64 {
	switch c {
	case checklist.CriticalityCritical:
		return r.CriticalWeight
	case checklist.CriticalityMajor:
		return r.MajorWeight
	default:
		return r.MinorWeight
	}
}

// Priority maps a tier to its red-flag priority, 1 being the most urgent.
func Priority(c checklist.Criticality) int {
	switch c {
	case checklist.CriticalityCritical:
		return 1
	case checklist.CriticalityMajor:
		return 2
	default:
		return 3
	}
}

// Categorize classifies an overall percentage. Precedence is fixed: the
// critical auto-fail first, then the thresholds from the top down. Thresholds
// are not checked for ordering.
func Categorize(percentage float64, criticalFailures int, rules Rules) Category {
	switch {
	case rules.AutoFailOnCritical && criticalFailures > 0:
		return CategoryNonCompliant
	case percentage >= rules.ExcellentThreshold:
		return CategoryExcellent
	case percentage >= rules.GoodThreshold:
		return CategoryGood
	case percentage >= rules.NeedsImprovementThreshold:
		return CategoryNeedsImprovement
	default:
		return CategoryNonCompliant
	}
}
