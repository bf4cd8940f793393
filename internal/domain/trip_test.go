package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

func TestTrip_State(t *testing.T) {
	driverID := uuid.New()

	tests := []struct {
		name string
		trip domain.Trip
		want domain.TripState
	}{
		{"no driver, not finished", domain.Trip{}, domain.TripUnassigned},
		{"driver set, not finished", domain.Trip{DriverID: &driverID}, domain.TripAssigned},
		{"finished", domain.Trip{DriverID: &driverID, IsFinished: true}, domain.TripFinished},
		{"finished without driver", domain.Trip{IsFinished: true}, domain.TripFinished},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.trip.State())
		})
	}
}

func TestTrip_DisplayName(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000000")
	trip := domain.Trip{ID: id, FleetName: "North"}

	assert.Equal(t, "North#a1b2c3d4", trip.DisplayName())
}

func TestTrip_AssignedTo(t *testing.T) {
	driverID := uuid.New()
	trip := domain.Trip{DriverID: &driverID}

	assert.True(t, trip.AssignedTo(driverID))
	assert.False(t, trip.AssignedTo(uuid.New()))
	assert.False(t, domain.Trip{}.AssignedTo(driverID))
}

func TestProblem_Clear(t *testing.T) {
	assert.True(t, domain.ProblemNone.Clear())
	assert.False(t, domain.ProblemBreakdown.Clear())
	assert.False(t, domain.ProblemTraffic.Clear())
}

func TestProblem_Valid(t *testing.T) {
	assert.True(t, domain.ProblemNone.Valid())
	assert.True(t, domain.ProblemAccident.Valid())
	assert.False(t, domain.Problem(0).Valid())
	assert.False(t, domain.Problem(99).Valid())
}
