package handler

import (
	"net/http"
)

// UpdatePosition handles POST /drivers/update_pos. Updates are forwarded to
// the fleet's live channel; those arriving faster than the per-driver
// minimum interval are rejected with 409 and never reach it.
func (s *Server) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var body struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	if err := s.positions.Update(r.Context(), user, body.Lat, body.Lon); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, nil)
}

// ReloadGeoChannels handles POST /geo/reload: tears down every fleet's live
// channel so they are rebuilt from fresh position updates.
func (s *Server) ReloadGeoChannels(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r); err != nil {
		respondErr(w, r, err)
		return
	}

	if err := s.positions.ReloadChannels(r.Context()); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, nil)
}
