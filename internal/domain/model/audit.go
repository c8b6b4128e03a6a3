// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/internal/domain/scoring"
)

// Sentinel kinds for submission validation.
var (
	ErrMissingMill     = errors.New("missing mill_id")
	ErrMissingTemplate = errors.New("missing template_id")
)

// Submission is a completed audit waiting to be scored.
type Submission struct {
	AuditID     string               // unique id for idempotency
	MillID      string               // audited mill
	TemplateID  string               // checklist the audit was run against
	Responses   []checklist.Response // auditor answers
	SubmittedAt time.Time
}

// Normalize trims identifiers, assigns a fresh audit id when none was given
// and stamps the submission time. It returns the updated copy.
func (s Submission) Normalize(now time.Time) Submission {
	s.AuditID = strings.TrimSpace(s.AuditID)
	s.MillID = strings.TrimSpace(s.MillID)
	s.TemplateID = strings.TrimSpace(s.TemplateID)
	if s.AuditID == "" {
		s.AuditID = NewAuditID()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = now.UTC()
	}
	return s
}

// Validate checks the fields the pipeline cannot work without.
func (s Submission) Validate() error {
	switch {
	case strings.TrimSpace(s.MillID) == "":
		return ErrMissingMill
	case strings.TrimSpace(s.TemplateID) == "":
		return ErrMissingTemplate
	}
	return nil
}

// NewAuditID returns a random audit identifier.
func NewAuditID() string { return uuid.NewString() }

// Record is a scored audit as kept by the result store.
type Record struct {
	AuditID    string         `json:"audit_id"`
	MillID     string         `json:"mill_id"`
	TemplateID string         `json:"template_id"`
	Result     scoring.Result `json:"result"`
	ScoredAt   time.Time      `json:"scored_at"`
}
