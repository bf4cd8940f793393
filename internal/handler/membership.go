package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/service"
)

// InviteDrivers handles POST /fleets/{fleetID}/invite. The body carries a
// comma-separated driver id list; rejected ids come back grouped by reason
// with a 409, accepted ones become pending invites either way.
func (s *Server) InviteDrivers(w http.ResponseWriter, r *http.Request) {
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
		DriverID string `json:"driver_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}
	driverIDs, err := parseIDList(body.DriverID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	result, err := s.memberships.Invite(r.Context(), user, fleetID, driverIDs)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if result.Failed() {
		respondErrors(w, http.StatusConflict, inviteFailures(result))
		return
	}
	respondOK(w, http.StatusOK, nil)
}

// inviteFailures groups the rejected driver ids by reason, omitting empty
// groups.
func inviteFailures(result service.InviteResult) map[string][]uuid.UUID {
	failures := map[string][]uuid.UUID{}
	if len(result.AlreadyMembers) > 0 {
		failures["already_in_fleet"] = result.AlreadyMembers
	}
	if len(result.AlreadyPending) > 0 {
		failures["already_in_pending_fleet"] = result.AlreadyPending
	}
	if len(result.NotFound) > 0 {
		failures["not_found"] = result.NotFound
	}
	return failures
}

// DismissDriver handles POST /fleets/{fleetID}/dismiss.
func (s *Server) DismissDriver(w http.ResponseWriter, r *http.Request) {
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
		DriverID uuid.UUID `json:"driver_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}

	if err := s.memberships.Dismiss(r.Context(), user, fleetID, body.DriverID); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, nil)
}

// AcceptInvites handles POST /drivers/pending_fleets/accept. The body
// carries a comma-separated fleet id list; fleets without a pending invite
// are skipped silently, unknown fleet ids come back as a 404 group.
func (s *Server) AcceptInvites(w http.ResponseWriter, r *http.Request) {
	s.resolveInvites(w, r, s.memberships.Accept)
}

// DeclineInvites handles POST /drivers/pending_fleets/decline.
// Same skip semantics as AcceptInvites.
func (s *Server) DeclineInvites(w http.ResponseWriter, r *http.Request) {
	s.resolveInvites(w, r, s.memberships.Decline)
}

func (s *Server) resolveInvites(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error)) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var body struct {
		FleetID string `json:"fleet_id"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondErr(w, r, err)
		return
	}
	fleetIDs, err := parseIDList(body.FleetID)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	result, err := resolve(r.Context(), user, fleetIDs)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if len(result.NotFound) > 0 {
		respondErrors(w, http.StatusNotFound, map[string][]uuid.UUID{"not_found": result.NotFound})
		return
	}
	respondOK(w, http.StatusOK, nil)
}

// ListDriverFleets handles GET /drivers/fleets: the fleets the driver is a
// member of.
func (s *Server) ListDriverFleets(w http.ResponseWriter, r *http.Request) {
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

// ListDriverPendingFleets handles GET /drivers/pending_fleets: the fleets
// the driver has an open invite to.
func (s *Server) ListDriverPendingFleets(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	fleets, err := s.fleets.ListPending(r.Context(), user)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"fleets": fleets})
}
