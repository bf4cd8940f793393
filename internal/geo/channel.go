// Package geo is the client for the real-time position side-channel.
// The backend only produces into it: handlers and services push driver
// positions and tear channels down; consumers (map UIs) read them elsewhere.
package geo

import (
	"context"

	"github.com/google/uuid"
)

// Channel is the contract the dispatch services depend on. Failures are
// returned to the caller as recoverable errors, never swallowed.
type Channel interface {
	// UpdateDriverPos publishes the driver's current position on the
	// fleet's channel.
	UpdateDriverPos(ctx context.Context, fleetID, driverID uuid.UUID, lat, lon float64) error

	// DeleteDriverPos removes the driver's live-position entry from the
	// fleet's channel. Removing an absent entry is not an error.
	DeleteDriverPos(ctx context.Context, fleetID, driverID uuid.UUID) error

	// DeleteFleetChannel tears down the fleet's whole channel.
	DeleteFleetChannel(ctx context.Context, fleetID uuid.UUID) error

	// ClearAllFleetChannels tears down every fleet channel. Used by the
	// administrative reload endpoint.
	ClearAllFleetChannels(ctx context.Context) error
}
