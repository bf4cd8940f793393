package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/geo"
	"github.com/akorchak/fleet-dispatch/internal/repo"
)

// MembershipService drives the fleet membership state machine:
// none -> pending (invite), pending -> member (accept),
// pending -> none (decline), member -> none (dismiss).
type MembershipService struct {
	fleets      repo.FleetRepo
	memberships repo.MembershipRepo
	users       repo.UserRepo
	channel     geo.Channel
}

// NewMembershipService constructs a MembershipService backed by the provided
// repos and position channel.
func NewMembershipService(fleets repo.FleetRepo, memberships repo.MembershipRepo, users repo.UserRepo, channel geo.Channel) *MembershipService {
	return &MembershipService{fleets: fleets, memberships: memberships, users: users, channel: channel}
}

// InviteResult reports, per driver id, why an invite in a batch did not
// create a pending membership. Drivers absent from all three groups were
// invited successfully.
type InviteResult struct {
	AlreadyMembers []uuid.UUID
	AlreadyPending []uuid.UUID
	NotFound       []uuid.UUID
}

// Failed reports whether any driver in the batch was rejected.
func (r InviteResult) Failed() bool {
	return len(r.AlreadyMembers) > 0 || len(r.AlreadyPending) > 0 || len(r.NotFound) > 0
}

// Invite moves each listed driver to pending for the fleet. Each driver is
// processed independently: one bad id never blocks the others, and the
// per-driver outcomes are grouped in the result.
// Returns domain.ErrForbidden when the actor does not own the fleet.
func (s *MembershipService) Invite(ctx context.Context, actor domain.User, fleetID uuid.UUID, driverIDs []uuid.UUID) (InviteResult, error) {
	if err := s.requireOwned(ctx, actor, fleetID); err != nil {
		return InviteResult{}, fmt.Errorf("service.MembershipService.Invite: %w", err)
	}

	var result InviteResult
	for _, driverID := range driverIDs {
		user, err := s.users.GetByID(ctx, driverID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result.NotFound = append(result.NotFound, driverID)
				continue
			}
			return InviteResult{}, fmt.Errorf("service.MembershipService.Invite: %w", err)
		}
		if !user.IsDriver() {
			result.NotFound = append(result.NotFound, driverID)
			continue
		}

		inserted, err := s.memberships.Invite(ctx, fleetID, driverID)
		if err != nil {
			return InviteResult{}, fmt.Errorf("service.MembershipService.Invite: %w", err)
		}
		if inserted {
			continue
		}

		status, err := s.memberships.Status(ctx, fleetID, driverID)
		if err != nil {
			return InviteResult{}, fmt.Errorf("service.MembershipService.Invite: %w", err)
		}
		switch status {
		case domain.MembershipMember:
			result.AlreadyMembers = append(result.AlreadyMembers, driverID)
		case domain.MembershipPending:
			result.AlreadyPending = append(result.AlreadyPending, driverID)
		}
		// MembershipNone here means the row was declined between the two
		// statements; the net effect equals invite-then-decline, so the
		// driver counts as invited.
	}
	return result, nil
}

// BatchResult reports the fleet ids in a batch that did not exist.
type BatchResult struct {
	NotFound []uuid.UUID
}

// Accept moves the driver from pending to member in each listed fleet.
// Fleets where the driver has no pending invite are silently skipped; the
// transition is a conditional update, so a dismissed or never-invited driver
// cannot promote themselves. Unknown fleet ids are collected in the result.
func (s *MembershipService) Accept(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (BatchResult, error) {
	return s.resolvePending(ctx, driver, fleetIDs, s.memberships.Accept, "Accept")
}

// Decline removes the driver's pending invite from each listed fleet.
// Same skip semantics as Accept.
func (s *MembershipService) Decline(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID) (BatchResult, error) {
	return s.resolvePending(ctx, driver, fleetIDs, s.memberships.Decline, "Decline")
}

func (s *MembershipService) resolvePending(ctx context.Context, driver domain.User, fleetIDs []uuid.UUID, transition func(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error), op string) (BatchResult, error) {
	var result BatchResult
	for _, fleetID := range fleetIDs {
		if _, err := s.fleets.GetByID(ctx, fleetID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result.NotFound = append(result.NotFound, fleetID)
				continue
			}
			return BatchResult{}, fmt.Errorf("service.MembershipService.%s: %w", op, err)
		}
		if _, err := transition(ctx, fleetID, driver.ID); err != nil {
			return BatchResult{}, fmt.Errorf("service.MembershipService.%s: %w", op, err)
		}
	}
	return result, nil
}

// Dismiss removes a member from the fleet. The driver's live-position entry
// is released first so a channel failure aborts the dismissal with no
// partial mutation.
// Returns domain.ErrForbidden when the actor does not own the fleet and a
// not_member conflict when the driver is not currently a member.
func (s *MembershipService) Dismiss(ctx context.Context, actor domain.User, fleetID, driverID uuid.UUID) error {
	if err := s.requireOwned(ctx, actor, fleetID); err != nil {
		return fmt.Errorf("service.MembershipService.Dismiss: %w", err)
	}
	if err := s.channel.DeleteDriverPos(ctx, fleetID, driverID); err != nil {
		return fmt.Errorf("service.MembershipService.Dismiss: %w", err)
	}
	removed, err := s.memberships.Dismiss(ctx, fleetID, driverID)
	if err != nil {
		return fmt.Errorf("service.MembershipService.Dismiss: %w", err)
	}
	if !removed {
		return domain.Conflict(domain.ConflictNotMember)
	}
	return nil
}

// ListMembers returns the fleet's current members, ordered by username.
// Returns domain.ErrForbidden when the actor does not own the fleet.
func (s *MembershipService) ListMembers(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error) {
	return s.listDrivers(ctx, actor, fleetID, domain.MembershipMember, "ListMembers")
}

// ListPending returns the fleet's pending invitees, ordered by username.
// Returns domain.ErrForbidden when the actor does not own the fleet.
func (s *MembershipService) ListPending(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error) {
	return s.listDrivers(ctx, actor, fleetID, domain.MembershipPending, "ListPending")
}

// ListNonMembers returns the drivers with no relationship to the fleet at
// all, the candidate pool for new invites.
// Returns domain.ErrForbidden when the actor does not own the fleet.
func (s *MembershipService) ListNonMembers(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.User, error) {
	if err := s.requireOwned(ctx, actor, fleetID); err != nil {
		return nil, fmt.Errorf("service.MembershipService.ListNonMembers: %w", err)
	}
	users, err := s.memberships.ListNonMemberDrivers(ctx, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.MembershipService.ListNonMembers: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *MembershipService) listDrivers(ctx context.Context, actor domain.User, fleetID uuid.UUID, status domain.MembershipStatus, op string) ([]domain.User, error) {
	if err := s.requireOwned(ctx, actor, fleetID); err != nil {
		return nil, fmt.Errorf("service.MembershipService.%s: %w", op, err)
	}
	users, err := s.memberships.ListDrivers(ctx, fleetID, status)
	if err != nil {
		return nil, fmt.Errorf("service.MembershipService.%s: %w", op, err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// requireOwned loads the fleet and verifies the actor owns it.
func (s *MembershipService) requireOwned(ctx context.Context, actor domain.User, fleetID uuid.UUID) error {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if err != nil {
		return err
	}
	if !fleet.OwnedBy(actor) {
		return fmt.Errorf("%w: not your fleet", domain.ErrForbidden)
	}
	return nil
}
