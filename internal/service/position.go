package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/geo"
	"github.com/akorchak/fleet-dispatch/internal/ratelimit"
	"github.com/akorchak/fleet-dispatch/internal/repo"
)

// PositionService forwards driver position updates to the fleet's live
// channel, gated by a per-driver minimum interval.
type PositionService struct {
	trips   repo.TripRepo
	limiter *ratelimit.Limiter
	channel geo.Channel
}

// NewPositionService constructs a PositionService backed by the provided
// repo, limiter, and channel.
func NewPositionService(trips repo.TripRepo, limiter *ratelimit.Limiter, channel geo.Channel) *PositionService {
	return &PositionService{trips: trips, limiter: limiter, channel: channel}
}

// Update publishes the driver's position on their current trip's fleet
// channel. The checks run in order: coordinate validation, current trip,
// rate limit. A rejected update never reaches the channel, and a denied
// update does not extend the driver's rate-limit window.
// Returns domain.ErrNotFound when the driver has no current trip and
// domain.ErrRateLimited when the update arrives too soon after the last one.
func (s *PositionService) Update(ctx context.Context, driver domain.User, lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrValidation)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrValidation)
	}

	trip, err := s.trips.CurrentByDriver(ctx, driver.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: you have no current trip", domain.ErrNotFound)
		}
		return fmt.Errorf("service.PositionService.Update: %w", err)
	}

	if !s.limiter.Allow(driver.ID) {
		return domain.ErrRateLimited
	}

	if err := s.channel.UpdateDriverPos(ctx, trip.FleetID, driver.ID, lat, lon); err != nil {
		return fmt.Errorf("service.PositionService.Update: %w", err)
	}
	return nil
}

// ReloadChannels tears down every fleet's live-position channel so they are
// rebuilt from fresh updates. Administrative operation.
func (s *PositionService) ReloadChannels(ctx context.Context) error {
	if err := s.channel.ClearAllFleetChannels(ctx); err != nil {
		return fmt.Errorf("service.PositionService.ReloadChannels: %w", err)
	}
	s.limiter.Reset()
	return nil
}
