package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/geo"
	"github.com/akorchak/fleet-dispatch/internal/repo"
)

// FleetService implements business logic for fleet CRUD.
type FleetService struct {
	fleets  repo.FleetRepo
	channel geo.Channel
}

// NewFleetService constructs a FleetService backed by the provided repo and
// position channel.
func NewFleetService(fleets repo.FleetRepo, channel geo.Channel) *FleetService {
	return &FleetService{fleets: fleets, channel: channel}
}

// Create validates and persists a new fleet owned by the actor.
// Returns domain.ErrForbidden when the actor is not an owner.
func (s *FleetService) Create(ctx context.Context, actor domain.User, name, description string) (domain.Fleet, error) {
	if !actor.IsOwner() {
		return domain.Fleet{}, fmt.Errorf("%w: only owners can create fleets", domain.ErrForbidden)
	}
	if strings.TrimSpace(name) == "" {
		return domain.Fleet{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	fleet := domain.Fleet{
		OwnerID:     actor.ID,
		Name:        strings.TrimSpace(name),
		Description: description,
	}
	result, err := s.fleets.Create(ctx, fleet)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Create: %w", err)
	}
	return result, nil
}

// List returns the fleets visible to the actor: owned fleets for an owner,
// joined fleets for a driver. Always returns a non-nil slice.
func (s *FleetService) List(ctx context.Context, actor domain.User) ([]domain.Fleet, error) {
	var (
		fleets []domain.Fleet
		err    error
	)
	if actor.IsOwner() {
		fleets, err = s.fleets.ListByOwner(ctx, actor.ID)
	} else {
		fleets, err = s.fleets.ListByDriver(ctx, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("service.FleetService.List: %w", err)
	}
	if fleets == nil {
		fleets = []domain.Fleet{}
	}
	return fleets, nil
}

// ListPending returns the fleets the driver has an open invite to.
// Always returns a non-nil slice.
func (s *FleetService) ListPending(ctx context.Context, driver domain.User) ([]domain.Fleet, error) {
	fleets, err := s.fleets.ListPendingByDriver(ctx, driver.ID)
	if err != nil {
		return nil, fmt.Errorf("service.FleetService.ListPending: %w", err)
	}
	if fleets == nil {
		fleets = []domain.Fleet{}
	}
	return fleets, nil
}

// Get returns a single fleet owned by the actor.
// Returns domain.ErrNotFound for an unknown id and domain.ErrForbidden when
// the fleet belongs to someone else.
func (s *FleetService) Get(ctx context.Context, actor domain.User, fleetID uuid.UUID) (domain.Fleet, error) {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("service.FleetService.Get: %w", err)
	}
	if !fleet.OwnedBy(actor) {
		return domain.Fleet{}, fmt.Errorf("%w: not your fleet", domain.ErrForbidden)
	}
	return fleet, nil
}

// Delete removes a fleet owned by the actor. The fleet's position channel is
// released first so a channel failure aborts the delete with no partial
// mutation; memberships and trips cascade at the schema level.
func (s *FleetService) Delete(ctx context.Context, actor domain.User, fleetID uuid.UUID) error {
	if _, err := s.Get(ctx, actor, fleetID); err != nil {
		return err
	}
	if err := s.channel.DeleteFleetChannel(ctx, fleetID); err != nil {
		return fmt.Errorf("service.FleetService.Delete: %w", err)
	}
	if err := s.fleets.Delete(ctx, fleetID); err != nil {
		return fmt.Errorf("service.FleetService.Delete: %w", err)
	}
	return nil
}
