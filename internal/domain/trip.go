package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Problem is a driver-reported obstruction status on a trip.
// The clear sentinel is ProblemNone = 1, kept wire-compatible with the
// historical encoding where 1 means "no problem".
type Problem int

const (
	ProblemNone      Problem = 1
	ProblemBreakdown Problem = 2
	ProblemTraffic   Problem = 3
	ProblemAccident  Problem = 4
)

// Clear reports whether the code means "no open problem".
func (p Problem) Clear() bool { return p == ProblemNone }

// Valid reports whether p is a known problem code.
func (p Problem) Valid() bool {
	return p >= ProblemNone && p <= ProblemAccident
}

// TripState is the lifecycle state of a trip, derived from its driver
// assignment and finished flag. TripFinished is terminal.
type TripState string

const (
	TripUnassigned TripState = "unassigned"
	TripAssigned   TripState = "assigned"
	TripFinished   TripState = "finished"
)

// Trip is a unit of dispatched work belonging to exactly one fleet,
// assignable to at most one driver at a time. FleetID is immutable after
// creation. A nil DriverID means the trip is unassigned.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	FleetID     uuid.UUID  `json:"fleet_id"`
	DriverID    *uuid.UUID `json:"driver_id,omitempty"`
	Description string     `json:"description,omitempty"`
	Problem     Problem    `json:"problem"`
	IsFinished  bool       `json:"is_finished"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"` // set only at finish

	// FleetName is populated by repo reads (joined from the fleets table)
	// so DisplayName can be derived without a second lookup.
	FleetName string `json:"-"`
}

// State derives the lifecycle state from the stored fields.
func (t Trip) State() TripState {
	switch {
	case t.IsFinished:
		return TripFinished
	case t.DriverID != nil:
		return TripAssigned
	default:
		return TripUnassigned
	}
}

// Active reports whether the trip is not finished yet.
func (t Trip) Active() bool { return !t.IsFinished }

// AssignedTo reports whether the trip is currently assigned to the given driver.
func (t Trip) AssignedTo(driverID uuid.UUID) bool {
	return t.DriverID != nil && *t.DriverID == driverID
}

// DisplayName is the trip's human-readable name, a pure derivation of the
// fleet name and the trip identifier. Nothing is stored: the historical
// two-phase write (insert, then patch the name using the generated id) is
// replaced by computing the value at read time.
func (t Trip) DisplayName() string {
	return fmt.Sprintf("%s#%.8s", t.FleetName, t.ID.String())
}
