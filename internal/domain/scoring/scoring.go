// Package scoring turns an auditor's checklist responses into a weighted
// compliance score, a category, a prioritised list of red flags and what-if
// projections.
//
// The package-level functions are pure: they take a template's sections, the
// responses and a Rules value, and return freshly built results. Engine binds
// a Rules value and a Recommender for callers that score many audits.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/millcert/internal/domain/checklist"
)

var defaultRecommender Recommender = NewKeywordRecommender() //nolint:gochecknoglobals // stateless default

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules sets the scoring policy.
func WithRules(rules Rules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithRecommender replaces the remediation text source.
func WithRecommender(rec Recommender) Option {
	return func(e *Engine) {
		if rec != nil {
			e.recommender = rec
		}
	}
}

// Scorer scores audits against a template.
type Scorer interface {
	// Score computes the result for one audit, honoring ctx for cancellation.
	Score(ctx context.Context, tmpl checklist.Template, responses []checklist.Response) (Result, error)
	// WhatIf projects the score with some response values replaced.
	WhatIf(ctx context.Context, tmpl checklist.Template, responses []checklist.Response, changes map[string]checklist.Value) (Projection, error)
}

// Engine implements Scorer. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	rules       Rules
	recommender Recommender
}

// NewEngine creates an engine with the default rules and recommender.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:       DefaultRules(),
		recommender: defaultRecommender,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rules returns a copy of the engine's policy.
func (e *Engine) Rules() Rules { return e.rules }

// Score implements Scorer.
func (e *Engine) Score(ctx context.Context, tmpl checklist.Template, responses []checklist.Response) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	return calculate(tmpl.Sections, checklist.IndexResponses(responses), e.rules, e.recommender), nil
}

// WhatIf implements Scorer.
func (e *Engine) WhatIf(ctx context.Context, tmpl checklist.Template, responses []checklist.Response, changes map[string]checklist.Value) (Projection, error) {
	if err := ctx.Err(); err != nil {
		return Projection{}, fmt.Errorf("context cancelled: %w", err)
	}
	return whatIf(tmpl.Sections, responses, changes, e.rules, e.recommender), nil
}
