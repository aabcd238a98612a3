package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/core"
)

type healthStatus struct {
	Status  string                   `json:"status"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

// handleHealth pings the store. It is served without authentication.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		respondErrorStatus(w, r, http.StatusServiceUnavailable, fmt.Errorf("%w: ping: %w", core.ErrPersistence, err))
		return
	}
	writeJSON(w, r, http.StatusOK, Envelope{
		Success: true,
		Message: "Sales Analytics API is running",
		Data:    healthStatus{Status: "OK", Uploads: s.service.UploadStatus()},
	})
}
