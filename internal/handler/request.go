package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/middleware"
)

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody decodes the request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrValidation)
	}
	return nil
}

// pathUUID parses the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

// parseIDList parses a comma-separated list of UUIDs, the batch id format
// used by invite, accept, and decline bodies.
func parseIDList(s string) ([]uuid.UUID, error) {
	parts := strings.Split(s, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no ids given", domain.ErrValidation)
	}
	return ids, nil
}

// queryPagination reads the optional page and limit query params. Values
// that are missing or not integers fall back to the defaults.
func queryPagination(r *http.Request) domain.PaginationParams {
	var page, limit *int
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = &v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = &v
	}
	return domain.NewPaginationParams(page, limit)
}

// currentUser returns the authenticated user placed in the context by the
// authenticator middleware. The unauthenticated case is unreachable behind
// the middleware; the error path exists for direct handler tests.
func currentUser(r *http.Request) (domain.User, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return domain.User{}, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)
	}
	return user, nil
}

// tripJSON is the wire shape of a trip, with the display name derived from
// the fleet name and the state derived from the stored fields.
func tripJSON(t domain.Trip) map[string]any {
	out := map[string]any{
		"id":          t.ID,
		"name":        t.DisplayName(),
		"fleet_id":    t.FleetID,
		"description": t.Description,
		"problem":     t.Problem,
		"is_finished": t.IsFinished,
		"state":       t.State(),
		"start_date":  t.StartDate,
	}
	if t.DriverID != nil {
		out["driver_id"] = *t.DriverID
	}
	if t.EndDate != nil {
		out["end_date"] = *t.EndDate
	}
	return out
}

// tripListJSON converts a trip slice for the envelope, never nil.
func tripListJSON(trips []domain.Trip) []map[string]any {
	out := make([]map[string]any, 0, len(trips))
	for _, t := range trips {
		out = append(out, tripJSON(t))
	}
	return out
}

// userJSON is the wire shape of a user in driver listings.
func userJSON(u domain.User) map[string]any {
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
	}
}

// userListJSON converts a user slice for the envelope, never nil.
func userListJSON(users []domain.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	return out
}
