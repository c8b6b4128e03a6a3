package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleLeaderboard handles GET /leaderboard?limit=N. Without a limit the
// first defaultLeaderboardLimit mills are returned, capped at the maximum.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := min(defaultLeaderboardLimit, s.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			s.writeFailure(w, r, op, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if v > s.maxLimit {
			s.writeFailure(w, r, op, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, v, s.maxLimit))
			return
		}
		n = v
	}

	standings, err := s.deps.Results.TopN(r.Context(), n)
	if err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, standings)
}

// handleMillRank handles GET /mills/{millID}/rank.
func (s *Server) handleMillRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	standing, err := s.deps.Results.Rank(r.Context(), chi.URLParam(r, "millID"))
	if err != nil {
		s.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, r, http.StatusOK, standing)
}
