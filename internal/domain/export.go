package domain

// ExportRow is a single row in a fleet's trip-history export.
// It is a flat, denormalized view of one trip, with the assigned driver's
// username resolved so consumers never need a second lookup. Unassigned
// trips yield empty driver fields.
type ExportRow struct {
	TripID      string
	TripName    string
	Description string
	State       string // "unassigned", "assigned", or "finished"
	Problem     int

	// Driver fields — empty strings when the trip is unassigned.
	DriverID       string
	DriverUsername string

	StartDate string // RFC 3339 formatted timestamp
	EndDate   string // empty string when the trip is still active
}
