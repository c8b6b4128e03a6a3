package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/millcert/internal/domain/checklist"
	"github.com/okian/millcert/internal/domain/model"
	"github.com/okian/millcert/pkg/logger"
	"github.com/okian/millcert/pkg/metrics"
)

// auditRequest is the body of POST /audits.
type auditRequest struct {
	AuditID     string               `json:"audit_id"`
	MillID      string               `json:"mill_id"`
	TemplateID  string               `json:"template_id"`
	Responses   []checklist.Response `json:"responses"`
	SubmittedAt time.Time            `json:"submitted_at"`
}

func (a auditRequest) submission() model.Submission {
	return model.Submission{
		AuditID:     a.AuditID,
		MillID:      a.MillID,
		TemplateID:  a.TemplateID,
		Responses:   a.Responses,
		SubmittedAt: a.SubmittedAt,
	}
}

// scoreRequest is the body of POST /audits/score.
type scoreRequest struct {
	TemplateID string               `json:"template_id"`
	Responses  []checklist.Response `json:"responses"`
}

// whatIfRequest is the body of POST /audits/what-if. Changes maps item ids
// to the values to try in place of the current answers.
type whatIfRequest struct {
	TemplateID string                     `json:"template_id"`
	Responses  []checklist.Response       `json:"responses"`
	Changes    map[string]checklist.Value `json:"changes"`
}

type ackResponse struct {
	Status    string `json:"status"`
	AuditID   string `json:"audit_id"`
	Duplicate bool   `json:"duplicate"`
}

func (s *Server) template(id string) (checklist.Template, error) {
	if id == "" {
		return checklist.Template{}, model.ErrMissingTemplate
	}
	tmpl, ok := s.deps.Templates.Get(id)
	if !ok {
		return checklist.Template{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

// handleSubmitAudit handles POST /audits.
func (s *Server) handleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_audit"
	var req auditRequest
	if err := decode(w, r, &req); err != nil {
		s.writeFailure(w, r, op, err)
		return
	}

	sub := req.submission().Normalize(s.now())
	if err := sub.Validate(); err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	if _, err := s.template(sub.TemplateID); err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	metrics.RecordAuditReceived()

	// Idempotency check - mark as seen first
	if s.deps.Submitter.SeenAndRecord(r.Context(), sub.AuditID) {
		metrics.RecordAuditDuplicate()
		writeJSON(w, r, http.StatusOK, ackResponse{Status: "duplicate", AuditID: sub.AuditID, Duplicate: true})
		return
	}

	if err := s.deps.Submitter.Enqueue(r.Context(), sub); err != nil {
		// Rollback the "seen" status since enqueue failed
		s.deps.Submitter.Unrecord(r.Context(), sub.AuditID)
		s.logger.Warn(r.Context(), "audit not enqueued",
			logger.String("audit_id", sub.AuditID), logger.Error(err))
		s.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, ackResponse{Status: "accepted", AuditID: sub.AuditID})
}

// handleScoreAudit handles POST /audits/score. Nothing is stored.
func (s *Server) handleScoreAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_audit"
	var req scoreRequest
	if err := decode(w, r, &req); err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	tmpl, err := s.template(req.TemplateID)
	if err != nil {
		s.writeFailure(w, r, op, err)
		return
	}

	start := time.Now()
	result, err := s.deps.Scorer.Score(r.Context(), tmpl, req.Responses)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordScoringError()
		s.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleWhatIf handles POST /audits/what-if.
func (s *Server) handleWhatIf(w http.ResponseWriter, r *http.Request) {
	const op = "api.what_if"
	var req whatIfRequest
	if err := decode(w, r, &req); err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	tmpl, err := s.template(req.TemplateID)
	if err != nil {
		s.writeFailure(w, r, op, err)
		return
	}

	projection, err := s.deps.Scorer.WhatIf(r.Context(), tmpl, req.Responses, req.Changes)
	if err != nil {
		metrics.RecordScoringError()
		s.writeFailure(w, r, op, err)
		return
	}
	metrics.RecordWhatIf()
	writeJSON(w, r, http.StatusOK, projection)
}

// handleGetAudit handles GET /audits/{auditID}.
func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_audit"
	rec, err := s.deps.Results.Get(r.Context(), chi.URLParam(r, "auditID"))
	if err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}
