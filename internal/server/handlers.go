package server

import (
	"encoding/json"
	"net/http"

	"github.com/monify-labs/macmonitor/pkg/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sampler.Sample(r.Context()))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.info.Info(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to collect system info")
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "system info unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
