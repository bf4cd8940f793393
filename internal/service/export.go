package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/repo"
)

// ExportService assembles a flat export of a fleet's full trip history.
type ExportService struct {
	trips  repo.TripRepo
	fleets repo.FleetRepo
	users  repo.UserRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(trips repo.TripRepo, fleets repo.FleetRepo, users repo.UserRepo) *ExportService {
	return &ExportService{trips: trips, fleets: fleets, users: users}
}

// ExportByFleet returns one ExportRow per trip in the fleet, newest first,
// with driver usernames resolved. Returns domain.ErrForbidden when the
// actor does not own the fleet.
func (s *ExportService) ExportByFleet(ctx context.Context, actor domain.User, fleetID uuid.UUID) ([]domain.ExportRow, error) {
	fleet, err := s.fleets.GetByID(ctx, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.ExportByFleet: %w", err)
	}
	if !fleet.OwnedBy(actor) {
		return nil, fmt.Errorf("%w: not your fleet", domain.ErrForbidden)
	}

	trips, err := s.trips.ListByFleet(ctx, fleetID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.ExportByFleet: %w", err)
	}

	// Usernames are resolved once per distinct driver, not once per trip.
	usernames := map[uuid.UUID]string{}
	rows := make([]domain.ExportRow, 0, len(trips))
	for _, trip := range trips {
		row := domain.ExportRow{
			TripID:      trip.ID.String(),
			TripName:    trip.DisplayName(),
			Description: trip.Description,
			State:       string(trip.State()),
			Problem:     int(trip.Problem),
			StartDate:   trip.StartDate.Format(time.RFC3339),
		}
		if trip.EndDate != nil {
			row.EndDate = trip.EndDate.Format(time.RFC3339)
		}
		if trip.DriverID != nil {
			driverID := *trip.DriverID
			name, ok := usernames[driverID]
			if !ok {
				driver, err := s.users.GetByID(ctx, driverID)
				if err != nil {
					return nil, fmt.Errorf("service.ExportService.ExportByFleet: %w", err)
				}
				name = driver.Username
				usernames[driverID] = name
			}
			row.DriverID = driverID.String()
			row.DriverUsername = name
		}
		rows = append(rows, row)
	}
	return rows, nil
}
