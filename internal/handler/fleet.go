package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// ListFleets handles GET /fleets: owned fleets for an owner, joined fleets
// for a driver.
func (s *Server) ListFleets(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	fleets, err := s.fleets.List(r.Context(), user)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"fleets": fleets})
}

// CreateFleet handles POST /fleets.
func (s *Server) CreateFleet(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	fleet, err := s.fleets.Create(r.Context(), user, body.Name, body.Description)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"fleet_id": fleet.ID})
}

// GetFleet handles GET /fleets/{fleetID}.
func (s *Server) GetFleet(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	fleetID, err := pathUUID(r, "fleetID")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	fleet, err := s.fleets.Get(r.Context(), user, fleetID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"fleet": fleet})
}

// DeleteFleet handles DELETE /fleets/{fleetID}.
func (s *Server) DeleteFleet(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	fleetID, err := pathUUID(r, "fleetID")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if err := s.fleets.Delete(r.Context(), user, fleetID); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, nil)
}

// ListFleetMembers handles GET /fleets/{fleetID}/drivers.
func (s *Server) ListFleetMembers(w http.ResponseWriter, r *http.Request) {
	s.listFleetDrivers(w, r, s.memberships.ListMembers)
}

// ListFleetPendingDrivers handles GET /fleets/{fleetID}/pending_drivers.
func (s *Server) ListFleetPendingDrivers(w http.ResponseWriter, r *http.Request) {
	s.listFleetDrivers(w, r, s.memberships.ListPending)
}

// ListFleetAvailableDrivers handles GET /fleets/{fleetID}/available_drivers:
// drivers with no relationship to the fleet, the candidate pool for invites.
func (s *Server) ListFleetAvailableDrivers(w http.ResponseWriter, r *http.Request) {
	s.listFleetDrivers(w, r, s.memberships.ListNonMembers)
}

func (s *Server) listFleetDrivers(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	fleetID, err := pathUUID(r, "fleetID")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	drivers, err := list(r.Context(), user, fleetID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"drivers": userListJSON(drivers)})
}
