package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type templateSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Sections int    `json:"sections"`
	Items    int    `json:"items"`
}

// handleListTemplates handles GET /templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	tmpls := s.deps.Templates.List()
	out := make([]templateSummary, 0, len(tmpls))
	for _, t := range tmpls {
		out = append(out, templateSummary{
			ID:       t.ID,
			Name:     t.Name,
			Version:  t.Version,
			Sections: len(t.Sections),
			Items:    t.ItemCount(),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleGetTemplate handles GET /templates/{templateID}.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.template(chi.URLParam(r, "templateID"))
	if err != nil {
		s.writeFailure(w, r, "api.get_template", err)
		return
	}
	writeJSON(w, r, http.StatusOK, tmpl)
}
