// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"net/http"

	"github.com/pdiddy/work-output/internal/aggregate"
	"github.com/pdiddy/work-output/internal/source"
	"github.com/pdiddy/work-output/pkg/types"
)

// ---------------------------------------------------------------------------
// GET /api/artifacts
// ---------------------------------------------------------------------------

func (s *Server) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	if start == "" || end == "" {
		s.writeError(w, http.StatusBadRequest, "start_date and end_date are required (YYYY-MM-DD)")
		return
	}

	dr, err := source.ParseDateRange(start, end)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel, err := aggregate.ParseSources(q.Get("sources"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, s.agg.GetArtifacts(r.Context(), dr, sel))
}

// ---------------------------------------------------------------------------
// POST /api/summarize
// ---------------------------------------------------------------------------

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req types.ArtifactsResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.writeJSON(w, http.StatusOK, summarizeResponse{Summary: s.agg.SummarizeArtifacts(r.Context(), req)})
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
