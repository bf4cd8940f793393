package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/geo"
	"github.com/akorchak/fleet-dispatch/internal/repo"
)

// TripService drives the trip lifecycle: create (unassigned), accept
// (assigned to exactly one driver), report problem, finish (terminal).
type TripService struct {
	trips       repo.TripRepo
	fleets      repo.FleetRepo
	memberships repo.MembershipRepo
	channel     geo.Channel

	now func() time.Time
}

// NewTripService constructs a TripService backed by the provided repos and
// position channel.
func NewTripService(trips repo.TripRepo, fleets repo.FleetRepo, memberships repo.MembershipRepo, channel geo.Channel) *TripService {
	return &TripService{
		trips:       trips,
		fleets:      fleets,
		memberships: memberships,
		channel:     channel,
		now:         time.Now,
	}
}

// Create validates and persists a new unassigned trip in the fleet.
// The fleet owner can always create; a driver can create only in fleets they
// are a member of. Returns domain.ErrForbidden otherwise.
func (s *TripService) Create(ctx context.Context, actor domain.User, fleetID uuid.UUID, description string) (domain.Trip, error) {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}

	switch {
	case fleet.OwnedBy(actor):
		// ok
	case actor.IsDriver():
		status, err := s.memberships.Status(ctx, fleetID, actor.ID)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
		}
		if status != domain.MembershipMember {
			return domain.Trip{}, fmt.Errorf("%w: you are not a member in that fleet", domain.ErrForbidden)
		}
	default:
		return domain.Trip{}, fmt.Errorf("%w: not your fleet", domain.ErrForbidden)
	}

	trip := domain.Trip{
		FleetID:     fleetID,
		Description: description,
		Problem:     domain.ProblemNone,
		StartDate:   s.now().UTC(),
	}
	result, err := s.trips.Create(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return result, nil
}

// Accept assigns the trip to the driver. The guards run in a fixed order so
// a request that trips several of them always reports the same one:
//
//  1. trip already finished by this driver
//  2. trip is this driver's current trip
//  3. trip taken by another driver
//  4. driver is not a member of the trip's fleet
//  5. driver already holds another active trip
//  6. trip has an open problem
//
// The assignment itself is a single conditional update, so two racing
// accepts resolve to exactly one winner; the loser is re-classified through
// the same guard order.
func (s *TripService) Accept(ctx context.Context, driver domain.User, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Accept: %w", err)
	}
	if err := s.classifyAccept(ctx, driver, trip); err != nil {
		return domain.Trip{}, err
	}

	claimed, err := s.trips.Claim(ctx, tripID, driver.ID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Accept: %w", err)
	}
	if !claimed {
		// Lost a race between the guard reads and the claim. Re-read and
		// classify the new state.
		trip, err = s.trips.GetByID(ctx, tripID)
		if err != nil {
			return domain.Trip{}, fmt.Errorf("service.TripService.Accept: %w", err)
		}
		if err := s.classifyAccept(ctx, driver, trip); err != nil {
			return domain.Trip{}, err
		}
		return domain.Trip{}, domain.Conflict(domain.ConflictAlreadyAccepted)
	}

	result, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Accept: %w", err)
	}
	return result, nil
}

// classifyAccept returns the first guard the trip's current state violates,
// or nil when the trip is acceptable for the driver.
func (s *TripService) classifyAccept(ctx context.Context, driver domain.User, trip domain.Trip) error {
	if trip.AssignedTo(driver.ID) {
		if trip.IsFinished {
			return domain.Conflict(domain.ConflictAlreadyFinishedByYou)
		}
		return domain.Conflict(domain.ConflictAlreadyYourCurrentTrip)
	}
	if trip.DriverID != nil {
		return domain.Conflict(domain.ConflictAlreadyAccepted)
	}
	if trip.IsFinished {
		// A finished trip always has a driver; reaching here means the
		// store holds a state no transition can produce.
		return domain.InvariantError{Msg: fmt.Sprintf("trip %s is finished but has no driver", trip.ID)}
	}

	status, err := s.memberships.Status(ctx, trip.FleetID, driver.ID)
	if err != nil {
		return fmt.Errorf("service.TripService.Accept: %w", err)
	}
	if status != domain.MembershipMember {
		return domain.Conflict(domain.ConflictNotFleetMember)
	}

	busy, err := s.trips.HasActiveTrip(ctx, driver.ID)
	if err != nil {
		return fmt.Errorf("service.TripService.Accept: %w", err)
	}
	if busy {
		return domain.Conflict(domain.ConflictAlreadyHasActiveTrip)
	}

	if !trip.Problem.Clear() {
		return domain.Conflict(domain.ConflictHasOpenProblem)
	}
	return nil
}

// ReportProblem sets the problem code on the driver's current trip. The code
// stays until overwritten, and ProblemNone clears it. No state transition.
// Returns a no_current_trip conflict when the driver holds no active trip.
func (s *TripService) ReportProblem(ctx context.Context, driver domain.User, problem domain.Problem) (domain.Trip, error) {
	if !problem.Valid() {
		return domain.Trip{}, fmt.Errorf("%w: unknown problem code", domain.ErrValidation)
	}
	trip, err := s.currentTrip(ctx, driver)
	if err != nil {
		return domain.Trip{}, err
	}
	if err := s.trips.SetProblem(ctx, trip.ID, problem); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.ReportProblem: %w", err)
	}
	trip.Problem = problem
	return trip, nil
}

// Finish marks the driver's current trip finished and releases the driver's
// live-position entry. Finished is terminal: the conditional update refuses
// a trip that is no longer the driver's active trip.
// Returns a no_current_trip conflict when the driver holds no active trip.
func (s *TripService) Finish(ctx context.Context, driver domain.User) (domain.Trip, error) {
	trip, err := s.currentTrip(ctx, driver)
	if err != nil {
		return domain.Trip{}, err
	}

	end := s.now().UTC()
	finished, err := s.trips.Finish(ctx, trip.ID, driver.ID, end)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Finish: %w", err)
	}
	if !finished {
		return domain.Trip{}, domain.Conflict(domain.ConflictNoCurrentTrip)
	}

	if err := s.channel.DeleteDriverPos(ctx, trip.FleetID, driver.ID); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Finish: %w", err)
	}

	trip.IsFinished = true
	trip.EndDate = &end
	return trip, nil
}

// Current returns the driver's active trip.
// Returns a no_current_trip conflict when there is none.
func (s *TripService) Current(ctx context.Context, driver domain.User) (domain.Trip, error) {
	return s.currentTrip(ctx, driver)
}

func (s *TripService) currentTrip(ctx context.Context, driver domain.User) (domain.Trip, error) {
	trip, err := s.trips.CurrentByDriver(ctx, driver.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, domain.Conflict(domain.ConflictNoCurrentTrip)
		}
		return domain.Trip{}, fmt.Errorf("service.TripService: %w", err)
	}
	return trip, nil
}

// GetByID returns a single trip visible to the actor: the fleet owner sees
// all fleet trips, a driver only their own.
func (s *TripService) GetByID(ctx context.Context, actor domain.User, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	if actor.IsDriver() {
		if !trip.AssignedTo(actor.ID) {
			return domain.Trip{}, fmt.Errorf("%w: not your trip", domain.ErrForbidden)
		}
		return trip, nil
	}
	fleet, err := s.fleets.GetByID(ctx, trip.FleetID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	if !fleet.OwnedBy(actor) {
		return domain.Trip{}, fmt.Errorf("%w: not your fleet", domain.ErrForbidden)
	}
	return trip, nil
}

// UnacceptedByFleet returns the fleet's unassigned unfinished trips.
// Returns domain.ErrForbidden when the actor does not own the fleet.
func (s *TripService) UnacceptedByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.Trip, error) {
	if err := s.requireOwned(ctx, actor, fleetID); err != nil {
		return nil, fmt.Errorf("service.TripService.UnacceptedByFleet: %w", err)
	}
	trips, err := s.trips.ListUnacceptedByFleet(ctx, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.UnacceptedByFleet: %w", err)
	}
	return nonNil(trips), nil
}

// FinishedByFleet returns one page of the fleet's finished trips.
// Returns domain.ErrForbidden when the actor does not own the fleet.
func (s *TripService) FinishedByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error) {
	if err := s.requireOwned(ctx, actor, fleetID); err != nil {
		return nil, fmt.Errorf("service.TripService.FinishedByFleet: %w", err)
	}
	trips, err := s.trips.ListFinishedByFleet(ctx, fleetID, page)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.FinishedByFleet: %w", err)
	}
	return nonNil(trips), nil
}

// Available returns the open trips the driver could accept across all fleets
// they are a member of.
func (s *TripService) Available(ctx context.Context, driver domain.User) ([]domain.Trip, error) {
	trips, err := s.trips.ListAvailableForDriver(ctx, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Available: %w", err)
	}
	return nonNil(trips), nil
}

// AvailableByFleet returns the open trips of one fleet visible to the
// driver. A driver who is not a member sees an empty list, not an error.
func (s *TripService) AvailableByFleet(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error) {
	if _, err := s.fleets.GetByID(ctx, fleetID); err != nil {
		return nil, fmt.Errorf("service.TripService.AvailableByFleet: %w", err)
	}
	member, err := s.isMember(ctx, fleetID, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.AvailableByFleet: %w", err)
	}
	if !member {
		return []domain.Trip{}, nil
	}
	trips, err := s.trips.ListUnacceptedByFleet(ctx, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.AvailableByFleet: %w", err)
	}
	return nonNil(trips), nil
}

// History returns the driver's own trips across fleets they are still a
// member of; leaving a fleet hides its trips from the history.
func (s *TripService) History(ctx context.Context, driver domain.User) ([]domain.Trip, error) {
	trips, err := s.trips.ListByDriver(ctx, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.History: %w", err)
	}
	return nonNil(trips), nil
}

// HistoryByFleet returns the driver's own trips within one fleet. A driver
// who is not a member sees an empty list, not an error.
func (s *TripService) HistoryByFleet(ctx context.Context, driver domain.User, fleetID uuid.UUID) ([]domain.Trip, error) {
	if _, err := s.fleets.GetByID(ctx, fleetID); err != nil {
		return nil, fmt.Errorf("service.TripService.HistoryByFleet: %w", err)
	}
	member, err := s.isMember(ctx, fleetID, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.HistoryByFleet: %w", err)
	}
	if !member {
		return []domain.Trip{}, nil
	}
	trips, err := s.trips.ListByDriverAndFleet(ctx, driver.ID, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.HistoryByFleet: %w", err)
	}
	return nonNil(trips), nil
}

func (s *TripService) isMember(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	status, err := s.memberships.Status(ctx, fleetID, driverID)
	if err != nil {
		return false, err
	}
	return status == domain.MembershipMember, nil
}

func (s *TripService) requireOwned(ctx context.Context, actor domain.User, fleetID uuid.UUID) error {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if err != nil {
		return err
	}
	if !fleet.OwnedBy(actor) {
		return fmt.Errorf("%w: not your fleet", domain.ErrForbidden)
	}
	return nil
}

// nonNil normalizes an empty query result so callers can safely range and
// handlers always serialize a JSON array.
func nonNil(trips []domain.Trip) []domain.Trip {
	if trips == nil {
		return []domain.Trip{}
	}
	return trips
}
