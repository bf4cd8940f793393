// Package handler implements the HTTP handlers for the fleet dispatch API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (auth.go, fleet.go, trip.go, ...) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/middleware"
	"github.com/akorchak/fleet-dispatch/internal/service"
	"github.com/akorchak/fleet-dispatch/spec"
)

// The servicer interfaces below define the business operations each handler
// depends on. Defining them here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.

// AuthServicer defines the operations the auth handlers depend on.
type AuthServicer interface {
	Signup(ctx context.Context, in service.SignupInput) (domain.User, error)
	Login(ctx context.Context, username, password string) (string, domain.User, error)
}

// FleetServicer defines the operations the fleet handlers depend on.
type FleetServicer interface {
	Create(ctx context.Context, actor domain.User, name, description string) (domain.Fleet, error)
	List(ctx context.Context, actor domain.User) ([]domain.Fleet, error)
	ListPending(ctx context.Context, driver domain.User) ([]domain.Fleet, error)
	Get(ctx context.Context, actor domain.User, fleetID uuid.UUID) (domain.Fleet, error)
	Delete(ctx context.Context, actor domain.User, fleetID uuid.UUID) error
}

// MembershipServicer defines the operations the membership handlers depend on.
type MembershipServicer interface {
	Invite(ctx context.Context, actor domain.User, fleetID uuid.UUID, driverIDs []uuid.UUID) (service.InviteResult, error)
	Accept(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error)
	Decline(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (service.BatchResult, error)
	Dismiss(ctx context.Context, actor domain.User, fleetID, driverID uuid.UUID) error
	ListMembers(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)
	ListPending(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)
	ListNonMembers(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error)
}

// TripServicer defines the operations the trip handlers depend on.
type TripServicer interface {
	Create(ctx context.Context, actor domain.User, fleetID uuid.UUID, description string) (domain.Trip, error)
	Accept(ctx context.Context, driver domain.User, tripID uuid.UUID) (domain.Trip, error)
	ReportProblem(ctx context.Context, driver domain.User, problem domain.Problem) (domain.Trip, error)
	Finish(ctx context.Context, driver domain.User) (domain.Trip, error)
	Current(ctx context.Context, driver domain.User) (domain.Trip, error)
	GetByID(ctx context.Context, actor domain.User, tripID uuid.UUID) (domain.Trip, error)
	UnacceptedByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.Trip, error)
	FinishedByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error)
	Available(ctx context.Context, driver domain.User) ([]domain.Trip, error)
	AvailableByFleet(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error)
	History(ctx context.Context, driver domain.User) ([]domain.Trip, error)
	HistoryByFleet(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error)
}

// PositionServicer defines the operations the position handlers depend on.
type PositionServicer interface {
	Update(ctx context.Context, driver domain.User, lat, lon float64) error
	ReloadChannels(ctx context.Context) error
}

// ExportServicer defines the operations the export handler depends on.
type ExportServicer interface {
	ExportByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.ExportRow, error)
}

// Server holds the handlers' dependencies. Methods live in the
// domain-specific files but all operate on this struct.
type Server struct {
	auth        AuthServicer
	fleets      FleetServicer
	memberships MembershipServicer
	trips       TripServicer
	positions   PositionServicer
	export      ExportServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(auth AuthServicer, fleets FleetServicer, memberships MembershipServicer, trips TripServicer, positions PositionServicer, export ExportServicer) *Server {
	return &Server{
		auth:        auth,
		fleets:      fleets,
		memberships: memberships,
		trips:       trips,
		positions:   positions,
		export:      export,
	}
}

// Routes builds the /api route tree. The authn middleware resolves the
// bearer token to a user; role guards narrow the owner- and driver-only
// subtrees on top of it.
func (s *Server) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Post("/auth/signup", s.Signup)
	r.Post("/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Post("/geo/reload", s.ReloadGeoChannels)
		r.Get("/fleets", s.ListFleets)
		r.Get("/trips/{tripID}", s.GetTrip)

		// Trip creation is open to the fleet owner and member drivers;
		// the service decides which.
		r.Post("/fleets/{fleetID}/trips", s.AddTrip)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleOwner))

			r.Post("/fleets", s.CreateFleet)
			r.Get("/fleets/{fleetID}", s.GetFleet)
			r.Delete("/fleets/{fleetID}", s.DeleteFleet)
			r.Get("/fleets/{fleetID}/drivers", s.ListFleetMembers)
			r.Get("/fleets/{fleetID}/pending_drivers", s.ListFleetPendingDrivers)
			r.Get("/fleets/{fleetID}/available_drivers", s.ListFleetAvailableDrivers)
			r.Post("/fleets/{fleetID}/invite", s.InviteDrivers)
			r.Post("/fleets/{fleetID}/dismiss", s.DismissDriver)
			r.Get("/fleets/{fleetID}/trips/unaccepted", s.ListUnacceptedTrips)
			r.Get("/fleets/{fleetID}/trips/finished", s.ListFinishedTrips)
			r.Get("/fleets/{fleetID}/trips/export", s.ExportFleetTrips)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleDriver))

			r.Get("/drivers/fleets", s.ListDriverFleets)
			r.Get("/drivers/pending_fleets", s.ListDriverPendingFleets)
			r.Post("/drivers/pending_fleets/accept", s.AcceptInvites)
			r.Post("/drivers/pending_fleets/decline", s.DeclineInvites)
			r.Get("/drivers/available_trips", s.ListAvailableTrips)
			r.Get("/drivers/fleets/{fleetID}/available_trips", s.ListFleetAvailableTrips)
			r.Get("/drivers/fleets/{fleetID}/trips", s.ListDriverFleetTrips)
			r.Get("/drivers/trips", s.ListDriverTrips)
			r.Get("/drivers/current_trip", s.GetCurrentTrip)
			r.Post("/drivers/report_problem", s.ReportProblem)
			r.Post("/drivers/finish_trip", s.FinishTrip)
			r.Post("/drivers/update_pos", s.UpdatePosition)
			r.Post("/trips/accept", s.AcceptTrip)
		})
	})

	return r
}

// GetOpenAPI serves the embedded OpenAPI document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
