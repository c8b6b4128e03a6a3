package scoring

import (
	"strings"

	"github.com/okian/millcert/internal/domain/checklist"
)

const genericRecommendation = "Review and address non-compliance for: "

// Recommender produces remediation text for a non-compliant item.
type Recommender interface {
	Recommend(item checklist.Item) string
}

// keywordRule matches when every term in all and at least one term in any
// (when given) occurs in the lower-cased question.
type keywordRule struct {
	all  []string
	any  []string
	text string
}

func (r keywordRule) matches(question string) bool {
	for _, term := range r.all {
		if !strings.Contains(question, term) {
			return false
		}
	}
	if len(r.any) == 0 {
		return true
	}
	for _, term := range r.any {
		if strings.Contains(question, term) {
			return true
		}
	}
	return false
}

// Remediation texts shared by the tag table and the keyword rules.
const (
	recDoserCalibration = "Recalibrate the doser against a certified reference and record the calibration result before the next production run."
	recPremixStorage    = "Store premix in a cool, dry, light-protected area, rotate stock first-expiry-first-out and log storage conditions."
	recQualityControl   = "Reinstate the quality control sampling plan and test fortificant levels in finished product every shift."
	recDocumentation    = "Complete and maintain production and fortification records and keep them available for inspection."
	recDosage           = "Verify the fortificant dosage against the national standard and adjust the feeder rate."
	recLabeling         = "Correct product labels to show the fortification logo and the declared micronutrient content."
	recTraining         = "Schedule refresher training for operators on fortification procedures and keep attendance records."
	recHygiene          = "Apply the sanitation schedule and verify cleaning of the fortification area before production."
	recMoisture         = "Check drying and storage conditions to bring moisture back within the acceptable range."
)

// defaultKeywordRules is evaluated in order; the first match wins.
var defaultKeywordRules = []keywordRule{ //nolint:gochecknoglobals // static rule table
	{all: []string{"doser", "calibration"}, text: recDoserCalibration},
	{all: []string{"premix", "storage"}, text: recPremixStorage},
	{all: []string{"quality control"}, text: recQualityControl},
	{any: []string{"record", "documentation"}, text: recDocumentation},
	{any: []string{"fortificant", "dosage"}, text: recDosage},
	{any: []string{"label"}, text: recLabeling},
	{any: []string{"training"}, text: recTraining},
	{any: []string{"hygiene", "sanitation"}, text: recHygiene},
	{any: []string{"moisture"}, text: recMoisture},
}

// defaultTagRecommendations maps item tags to remediation text.
func defaultTagRecommendations() map[string]string {
	return map[string]string{
		"doser-calibration":  recDoserCalibration,
		"premix-storage":     recPremixStorage,
		"quality-control":    recQualityControl,
		"documentation":      recDocumentation,
		"fortificant-dosage": recDosage,
		"labeling":           recLabeling,
		"training":           recTraining,
		"hygiene":            recHygiene,
		"moisture":           recMoisture,
	}
}

// RecommenderOption configures a KeywordRecommender.
type RecommenderOption func(*KeywordRecommender)

// WithTagRecommendations adds or overrides tag entries.
func WithTagRecommendations(byTag map[string]string) RecommenderOption {
	return func(r *KeywordRecommender) {
		for tag, text := range byTag {
			if text != "" {
				r.byTag[strings.ToLower(tag)] = text
			}
		}
	}
}

// KeywordRecommender looks up item tags first, then falls back to keyword
// matching on the question text, then to a generic instruction.
type KeywordRecommender struct {
	byTag map[string]string
	rules []keywordRule
}

// NewKeywordRecommender builds a recommender seeded with the default table.
func NewKeywordRecommender(opts ...RecommenderOption) *KeywordRecommender {
	r := &KeywordRecommender{
		byTag: defaultTagRecommendations(),
		rules: defaultKeywordRules,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend implements Recommender.
func (r *KeywordRecommender) Recommend(item checklist.Item) string {
	for _, tag := range item.Tags {
		if text, ok := r.byTag[strings.ToLower(tag)]; ok {
			return text
		}
	}
	q := strings.ToLower(item.Question)
	for _, rule := range r.rules {
		if rule.matches(q) {
			return rule.text
		}
	}
	return genericRecommendation + item.Question
}
