package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/quantumlife/viewerscope/internal/core"
	"github.com/quantumlife/viewerscope/internal/geo"
	"github.com/quantumlife/viewerscope/internal/profile"
)

const maxAnalyzeBody = 1 << 20

type healthResponse struct {
	Status        string `json:"status"`
	Visitors      int    `json:"visitors"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

type visitorsResponse struct {
	Count    int            `json:"count"`
	Visitors []*core.Viewer `json:"visitors"`
}

type analyzeResponse struct {
	Success  bool            `json:"success"`
	Analysis *profile.Result `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Visitors:      s.presence.Count(),
		UptimeSeconds: int64(time.Since(s.startedAt) / time.Second),
	})
}

func (s *Server) handleVisitors(w http.ResponseWriter, r *http.Request) {
	visitors := s.presence.Visitors()
	s.respondJSON(w, http.StatusOK, visitorsResponse{
		Count:    len(visitors),
		Visitors: visitors,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBody)

	var bundle profile.SignalBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondJSON(w, http.StatusRequestEntityTooLarge, analyzeResponse{Error: "request body too large"})
			return
		}
		s.respondJSON(w, http.StatusBadRequest, analyzeResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	if bundle.Location == nil && s.resolver != nil {
		bundle.Location = profile.HintFromRecord(s.resolver.Resolve(r.Context(), geo.ClientIP(r)))
	}

	result, err := profile.Analyze(&bundle)
	if err != nil {
		if errors.Is(err, core.ErrInvalidBundle) {
			s.respondJSON(w, http.StatusBadRequest, analyzeResponse{Error: err.Error()})
			return
		}
		s.log.Error("analysis failed: %v", err)
		s.respondJSON(w, http.StatusInternalServerError, analyzeResponse{Error: core.ErrAnalysisFailed.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, analyzeResponse{Success: true, Analysis: result})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.presence == nil {
		s.respondError(w, http.StatusServiceUnavailable, "presence unavailable")
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		s.log.Debug("websocket upgrade failed: %v", err)
		return
	}

	if err := s.presence.Serve(r.Context(), ws, geo.ClientIP(r), r.UserAgent()); err != nil {
		s.log.Debug("websocket session ended: %v", err)
	}
}
