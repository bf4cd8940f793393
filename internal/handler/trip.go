package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// AddTrip handles POST /fleets/{fleetID}/trips.
func (s *Server) AddTrip(w http.ResponseWriter, r *http.Request) {
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

	var body struct {
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	trip, err := s.trips.Create(r.Context(), user, fleetID, body.Description)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, map[string]any{"trip": tripJSON(trip)})
}

// AcceptTrip handles POST /trips/accept.
func (s *Server) AcceptTrip(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var body struct {
		TripID uuid.UUID `json:"trip_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	trip, err := s.trips.Accept(r.Context(), user, body.TripID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trip": tripJSON(trip)})
}

// GetTrip handles GET /trips/{tripID}. Visibility is enforced by the
// service: owners see their fleets' trips, drivers only their own.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		respondErr(w, r, err)
		return
	}

	trip, err := s.trips.GetByID(r.Context(), user, tripID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trip": tripJSON(trip)})
}

// GetCurrentTrip handles GET /drivers/current_trip.
func (s *Server) GetCurrentTrip(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	trip, err := s.trips.Current(r.Context(), user)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trip": tripJSON(trip)})
}

// ReportProblem handles POST /drivers/report_problem.
func (s *Server) ReportProblem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var body struct {
		Problem int `json:"problem"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	trip, err := s.trips.ReportProblem(r.Context(), user, domain.Problem(body.Problem))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trip": tripJSON(trip)})
}

// FinishTrip handles POST /drivers/finish_trip.
func (s *Server) FinishTrip(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	trip, err := s.trips.Finish(r.Context(), user)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trip": tripJSON(trip)})
}

// ListUnacceptedTrips handles GET /fleets/{fleetID}/trips/unaccepted.
func (s *Server) ListUnacceptedTrips(w http.ResponseWriter, r *http.Request) {
	s.listFleetTrips(w, r, s.trips.UnacceptedByFleet)
}

// ListFinishedTrips handles GET /fleets/{fleetID}/trips/finished.
// Finished trips accumulate for the life of the fleet, so this listing is
// paginated via optional page and limit query params.
func (s *Server) ListFinishedTrips(w http.ResponseWriter, r *http.Request) {
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

	trips, err := s.trips.FinishedByFleet(r.Context(), user, fleetID, queryPagination(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trips": tripListJSON(trips)})
}

// ListAvailableTrips handles GET /drivers/available_trips: the open trips
// across all fleets the driver is a member of.
func (s *Server) ListAvailableTrips(w http.ResponseWriter, r *http.Request) {
	s.listDriverTrips(w, r, s.trips.Available)
}

// ListFleetAvailableTrips handles GET /drivers/fleets/{fleetID}/available_trips.
func (s *Server) ListFleetAvailableTrips(w http.ResponseWriter, r *http.Request) {
	s.listFleetTrips(w, r, s.trips.AvailableByFleet)
}

// ListDriverTrips handles GET /drivers/trips: the driver's own trips across
// fleets they are still a member of.
func (s *Server) ListDriverTrips(w http.ResponseWriter, r *http.Request) {
	s.listDriverTrips(w, r, s.trips.History)
}

// ListDriverFleetTrips handles GET /drivers/fleets/{fleetID}/trips.
func (s *Server) ListDriverFleetTrips(w http.ResponseWriter, r *http.Request) {
	s.listFleetTrips(w, r, s.trips.HistoryByFleet)
}

func (s *Server) listFleetTrips(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.Trip, error)) {
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

	trips, err := list(r.Context(), user, fleetID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trips": tripListJSON(trips)})
}

func (s *Server) listDriverTrips(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, driver domain.User) ([]domain.Trip, error)) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	trips, err := list(r.Context(), user)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"trips": tripListJSON(trips)})
}
