package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/geo"
	"github.com/akorchak/fleet-dispatch/internal/repo"
)

// Hand-written test doubles for the repo interfaces and the geo channel.
// Each method delegates to a func field when set and returns zero values
// otherwise, so tests only wire the calls they exercise.

// ---- mockUserRepo ----------------------------------------------------------

type mockUserRepo struct {
	create        func(ctx context.Context, user domain.User) (domain.User, error)
	getByID       func(ctx context.Context, id uuid.UUID) (domain.User, error)
	getByUsername func(ctx context.Context, username string) (domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return m.create(ctx, user)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return m.getByUsername(ctx, username)
}

var _ repo.UserRepo = (*mockUserRepo)(nil)

// ---- mockFleetRepo ---------------------------------------------------------

type mockFleetRepo struct {
	create              func(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error)
	getByID             func(ctx context.Context, id uuid.UUID) (domain.Fleet, error)
	listByOwner         func(ctx context.Context, ownerID uuid.UUID) ([]domain.Fleet, error)
	listByDriver        func(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error)
	listPendingByDriver func(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error)
	delete              func(ctx context.Context, id uuid.UUID) error
}

func (m *mockFleetRepo) Create(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error) {
	return m.create(ctx, fleet)
}
func (m *mockFleetRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Fleet, error) {
	return m.getByID(ctx, id)
}
func (m *mockFleetRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Fleet, error) {
	return m.listByOwner(ctx, ownerID)
}
func (m *mockFleetRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error) {
	return m.listByDriver(ctx, driverID)
}
func (m *mockFleetRepo) ListPendingByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error) {
	return m.listPendingByDriver(ctx, driverID)
}
func (m *mockFleetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.FleetRepo = (*mockFleetRepo)(nil)

// ---- mockMembershipRepo ----------------------------------------------------

type mockMembershipRepo struct {
	invite               func(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)
	status               func(ctx context.Context, fleetID, driverID uuid.UUID) (domain.MembershipStatus, error)
	accept               func(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)
	decline              func(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)
	dismiss              func(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)
	listDrivers          func(ctx context.Context, fleetID uuid.UUID, status domain.MembershipStatus) ([]domain.User, error)
	listNonMemberDrivers func(ctx context.Context, fleetID uuid.UUID) ([]domain.User, error)
}

func (m *mockMembershipRepo) Invite(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	return m.invite(ctx, fleetID, driverID)
}
func (m *mockMembershipRepo) Status(ctx context.Context, fleetID, driverID uuid.UUID) (domain.MembershipStatus, error) {
	if m.status != nil {
		return m.status(ctx, fleetID, driverID)
	}
	return domain.MembershipNone, nil
}
func (m *mockMembershipRepo) Accept(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	return m.accept(ctx, fleetID, driverID)
}
func (m *mockMembershipRepo) Decline(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	return m.decline(ctx, fleetID, driverID)
}
func (m *mockMembershipRepo) Dismiss(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	return m.dismiss(ctx, fleetID, driverID)
}
func (m *mockMembershipRepo) ListDrivers(ctx context.Context, fleetID uuid.UUID, status domain.MembershipStatus) ([]domain.User, error) {
	return m.listDrivers(ctx, fleetID, status)
}
func (m *mockMembershipRepo) ListNonMemberDrivers(ctx context.Context, fleetID uuid.UUID) ([]domain.User, error) {
	return m.listNonMemberDrivers(ctx, fleetID)
}

var _ repo.MembershipRepo = (*mockMembershipRepo)(nil)

// ---- mockTripRepo ----------------------------------------------------------

type mockTripRepo struct {
	create                 func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID                func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listUnacceptedByFleet  func(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error)
	listFinishedByFleet    func(ctx context.Context, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error)
	listByFleet            func(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error)
	listAvailableForDriver func(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error)
	listByDriver           func(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error)
	listByDriverAndFleet   func(ctx context.Context, driverID, fleetID uuid.UUID) ([]domain.Trip, error)
	currentByDriver        func(ctx context.Context, driverID uuid.UUID) (domain.Trip, error)
	hasActiveTrip          func(ctx context.Context, driverID uuid.UUID) (bool, error)
	claim                  func(ctx context.Context, tripID, driverID uuid.UUID) (bool, error)
	setProblem             func(ctx context.Context, tripID uuid.UUID, problem domain.Problem) error
	finish                 func(ctx context.Context, tripID, driverID uuid.UUID, endDate time.Time) (bool, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListUnacceptedByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error) {
	return m.listUnacceptedByFleet(ctx, fleetID)
}
func (m *mockTripRepo) ListFinishedByFleet(ctx context.Context, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error) {
	return m.listFinishedByFleet(ctx, fleetID, page)
}
func (m *mockTripRepo) ListByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error) {
	return m.listByFleet(ctx, fleetID)
}
func (m *mockTripRepo) ListAvailableForDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error) {
	return m.listAvailableForDriver(ctx, driverID)
}
func (m *mockTripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error) {
	return m.listByDriver(ctx, driverID)
}
func (m *mockTripRepo) ListByDriverAndFleet(ctx context.Context, driverID, fleetID uuid.UUID) ([]domain.Trip, error) {
	return m.listByDriverAndFleet(ctx, driverID, fleetID)
}
func (m *mockTripRepo) CurrentByDriver(ctx context.Context, driverID uuid.UUID) (domain.Trip, error) {
	return m.currentByDriver(ctx, driverID)
}
func (m *mockTripRepo) HasActiveTrip(ctx context.Context, driverID uuid.UUID) (bool, error) {
	if m.hasActiveTrip != nil {
		return m.hasActiveTrip(ctx, driverID)
	}
	return false, nil
}
func (m *mockTripRepo) Claim(ctx context.Context, tripID, driverID uuid.UUID) (bool, error) {
	return m.claim(ctx, tripID, driverID)
}
func (m *mockTripRepo) SetProblem(ctx context.Context, tripID uuid.UUID, problem domain.Problem) error {
	return m.setProblem(ctx, tripID, problem)
}
func (m *mockTripRepo) Finish(ctx context.Context, tripID, driverID uuid.UUID, endDate time.Time) (bool, error) {
	return m.finish(ctx, tripID, driverID, endDate)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

// ---- mockChannel -----------------------------------------------------------

// mockChannel is a test double for geo.Channel. Unset methods succeed.
type mockChannel struct {
	updateDriverPos      func(ctx context.Context, fleetID, driverID uuid.UUID, lat, lon float64) error
	deleteDriverPos      func(ctx context.Context, fleetID, driverID uuid.UUID) error
	deleteFleetChannel   func(ctx context.Context, fleetID uuid.UUID) error
	clearAllFleetChannel func(ctx context.Context) error
}

func (m *mockChannel) UpdateDriverPos(ctx context.Context, fleetID, driverID uuid.UUID, lat, lon float64) error {
	if m.updateDriverPos != nil {
		return m.updateDriverPos(ctx, fleetID, driverID, lat, lon)
	}
	return nil
}
func (m *mockChannel) DeleteDriverPos(ctx context.Context, fleetID, driverID uuid.UUID) error {
	if m.deleteDriverPos != nil {
		return m.deleteDriverPos(ctx, fleetID, driverID)
	}
	return nil
}
func (m *mockChannel) DeleteFleetChannel(ctx context.Context, fleetID uuid.UUID) error {
	if m.deleteFleetChannel != nil {
		return m.deleteFleetChannel(ctx, fleetID)
	}
	return nil
}
func (m *mockChannel) ClearAllFleetChannels(ctx context.Context) error {
	if m.clearAllFleetChannel != nil {
		return m.clearAllFleetChannel(ctx)
	}
	return nil
}

var _ geo.Channel = (*mockChannel)(nil)

// ---- fixtures --------------------------------------------------------------

func owner() domain.User {
	return domain.User{ID: uuid.New(), Username: "fleet-owner", Role: domain.RoleOwner}
}

func driver() domain.User {
	return domain.User{ID: uuid.New(), Username: "driver-one", Role: domain.RoleDriver}
}

// fleetOwnedBy returns a fleet whose owner is the given user, plus a
// getByID func serving it.
func fleetOwnedBy(u domain.User) (domain.Fleet, func(ctx context.Context, id uuid.UUID) (domain.Fleet, error)) {
	fleet := domain.Fleet{ID: uuid.New(), OwnerID: u.ID, Name: "North"}
	return fleet, func(_ context.Context, id uuid.UUID) (domain.Fleet, error) {
		if id != fleet.ID {
			return domain.Fleet{}, domain.ErrNotFound
		}
		return fleet, nil
	}
}
