package api

import (
	"net/http"
	"time"

	"ridepool/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
	}
	if s.Jobs != nil {
		info["jobs"] = s.Jobs.Jobs()
	}
	if s.Settings != nil {
		info["config"] = s.Settings
	}
	writeJSON(w, http.StatusOK, info)
}
