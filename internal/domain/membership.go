package domain

import (
	"time"

	"github.com/google/uuid"
)

// MembershipStatus is the state of a (driver, fleet) relationship.
// The persistent model stores one row per pair with a status column, so a
// driver can never be both pending and member of the same fleet; the absence
// of a row is MembershipNone.
type MembershipStatus string

const (
	MembershipNone    MembershipStatus = "none"
	MembershipPending MembershipStatus = "pending"
	MembershipMember  MembershipStatus = "member"
)

// Membership is one edge between a driver and a fleet.
// JoinedAt is nil until the driver accepts the invite.
type Membership struct {
	FleetID   uuid.UUID        `json:"fleet_id"`
	DriverID  uuid.UUID        `json:"driver_id"`
	Status    MembershipStatus `json:"status"`
	InvitedAt time.Time        `json:"invited_at"`
	JoinedAt  *time.Time       `json:"joined_at,omitempty"`
}
