package handler

import "net/http"

// GetHealth handles GET /health.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, http.StatusOK, nil)
}
