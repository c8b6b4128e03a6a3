package auditload

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/millcert/internal/domain/checklist"
)

// Answer mix for generated audits.
const (
	unansweredRatio  = 0.03
	minDiligence     = 0.55
	diligenceSpread  = 0.45
	optimalJitter    = 0.04
	outOfRangeMargin = 0.25
)

// auditRequest mirrors the body of POST /audits.
type auditRequest struct {
	AuditID    string               `json:"audit_id"`
	MillID     string               `json:"mill_id"`
	TemplateID string               `json:"template_id"`
	Responses  []checklist.Response `json:"responses"`
}

// generator builds audits where each mill answers compliantly with its own
// fixed probability, so some mills rank consistently higher than others.
type generator struct {
	rng       *rand.Rand
	tmpl      checklist.Template
	diligence []float64
}

func newGenerator(tmpl checklist.Template, mills int, seed uint64) *generator {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // load shaping, not security
	d := make([]float64, mills)
	for i := range d {
		d[i] = minDiligence + rng.Float64()*diligenceSpread
	}
	return &generator{rng: rng, tmpl: tmpl, diligence: d}
}

func millID(i int) string { return fmt.Sprintf("mill-%04d", i) }

// audits generates n audits spread round-robin over the mills.
func (g *generator) audits(n int) []auditRequest {
	out := make([]auditRequest, n)
	for i := range out {
		m := i % len(g.diligence)
		out[i] = auditRequest{
			AuditID:    uuid.NewString(),
			MillID:     millID(m),
			TemplateID: g.tmpl.ID,
			Responses:  g.responses(g.diligence[m]),
		}
	}
	return out
}

func (g *generator) responses(diligence float64) []checklist.Response {
	out := make([]checklist.Response, 0, g.tmpl.ItemCount())
	for _, sec := range g.tmpl.Sections {
		for _, item := range sec.Items {
			if g.rng.Float64() < unansweredRatio {
				continue
			}
			out = append(out, checklist.Response{
				ItemID: item.ID,
				Value:  g.answer(item, g.rng.Float64() < diligence),
			})
		}
	}
	return out
}

// answer returns a value that does or does not comply with item.
func (g *generator) answer(item checklist.Item, comply bool) checklist.Value {
	switch item.ResponseType {
	case checklist.ResponseYesNo:
		if g.rng.IntN(2) == 0 {
			return checklist.Bool(comply)
		}
		if comply {
			return checklist.Text("YES")
		}
		return checklist.Text("NO")
	case checklist.ResponseNumeric:
		return checklist.Number(g.numeric(item, comply))
	case checklist.ResponseDropdown, checklist.ResponseMultipleChoice:
		if comply && item.TargetValue != nil {
			return *item.TargetValue
		}
		if item.ResponseType == checklist.ResponseMultipleChoice {
			return checklist.Choice("none")
		}
		return checklist.Text("Not available")
	case checklist.ResponseText:
		if comply {
			return checklist.Text("Observed during walk-through")
		}
		return checklist.Text("")
	default:
		return checklist.Value{}
	}
}

// numeric lands near the target when complying and outside the range
// otherwise.
func (g *generator) numeric(item checklist.Item, comply bool) float64 {
	r := *item.TargetRange
	width := r.Max - r.Min
	if comply {
		target := r.Midpoint()
		if item.TargetValue != nil {
			if t, ok := item.TargetValue.Number(); ok {
				target = t
			}
		}
		return target + (g.rng.Float64()*2-1)*width*optimalJitter
	}
	margin := width*outOfRangeMargin + 1
	if g.rng.IntN(2) == 0 {
		return r.Min - margin
	}
	return r.Max + margin
}
