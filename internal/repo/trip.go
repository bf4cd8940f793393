package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// TripRepo defines the persistence operations for trips.
// All reads join the fleets table so domain.Trip.FleetName (and therefore
// DisplayName) is populated without a second query.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with
	// DB-generated id populated). The trip starts unassigned.
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListUnacceptedByFleet returns the fleet's trips with no driver and not
	// finished, newest first.
	ListUnacceptedByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error)

	// ListFinishedByFleet returns one page of the fleet's finished trips,
	// newest first. This is the only list that grows without bound, so it
	// is the only paginated one.
	ListFinishedByFleet(ctx context.Context, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error)

	// ListByFleet returns every trip of the fleet regardless of state,
	// newest first. Used for the fleet history export.
	ListByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error)

	// ListAvailableForDriver returns unassigned unfinished trips across all
	// fleets the driver is a member of.
	ListAvailableForDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error)

	// ListByDriver returns the driver's own trips across fleets the driver
	// is still a member of.
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error)

	// ListByDriverAndFleet returns the driver's own trips within one fleet.
	ListByDriverAndFleet(ctx context.Context, driverID, fleetID uuid.UUID) ([]domain.Trip, error)

	// CurrentByDriver returns the driver's single unfinished trip.
	// Returns domain.ErrNotFound when the driver has no active trip.
	CurrentByDriver(ctx context.Context, driverID uuid.UUID) (domain.Trip, error)

	// HasActiveTrip reports whether the driver currently holds an unfinished trip.
	HasActiveTrip(ctx context.Context, driverID uuid.UUID) (bool, error)

	// Claim atomically assigns the trip to the driver. The update succeeds
	// only if the trip is still unassigned, unfinished, problem-free, and
	// the driver holds no other active trip — all evaluated in one
	// statement, so two racing claims (same trip or same driver) resolve to
	// exactly one winner. Returns false when the conditions no longer hold;
	// the caller re-reads to classify why.
	Claim(ctx context.Context, tripID, driverID uuid.UUID) (bool, error)

	// SetProblem updates the trip's problem code. No state transition.
	SetProblem(ctx context.Context, tripID uuid.UUID, problem domain.Problem) error

	// Finish marks the driver's trip finished and stamps end_date. The
	// update is conditional on the trip still being the driver's active
	// trip; returns false when it no longer is.
	Finish(ctx context.Context, tripID, driverID uuid.UUID, endDate time.Time) (bool, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

// tripColumns is the canonical select list; every trip read uses it with the
// trips table aliased t and the fleets table aliased f.
const tripColumns = `t.id, t.fleet_id, t.driver_id, t.description, t.problem, t.is_finished, t.start_date, t.end_date, f.name`

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO trips (fleet_id, description, start_date)
			VALUES (@fleet_id, @description, @start_date)
			RETURNING id, fleet_id, driver_id, description, problem, is_finished, start_date, end_date
		)
		SELECT t.id, t.fleet_id, t.driver_id, t.description, t.problem, t.is_finished, t.start_date, t.end_date, f.name
		FROM inserted t
		JOIN fleets f ON f.id = t.fleet_id`

	args := pgx.NamedArgs{
		"fleet_id":    trip.FleetID,
		"description": trip.Description,
		"start_date":  trip.StartDate,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		WHERE t.id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) ListUnacceptedByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		WHERE t.fleet_id = @fleet_id AND t.driver_id IS NULL AND NOT t.is_finished
		ORDER BY t.start_date DESC`

	return r.listTrips(ctx, "ListUnacceptedByFleet", q, pgx.NamedArgs{"fleet_id": fleetID})
}

func (r *pgTripRepo) ListFinishedByFleet(ctx context.Context, fleetID uuid.UUID, page domain.PaginationParams) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		WHERE t.fleet_id = @fleet_id AND t.is_finished
		ORDER BY t.end_date DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{
		"fleet_id": fleetID,
		"limit":    page.Limit,
		"offset":   page.Offset(),
	}

	return r.listTrips(ctx, "ListFinishedByFleet", q, args)
}

func (r *pgTripRepo) ListByFleet(ctx context.Context, fleetID uuid.UUID) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		WHERE t.fleet_id = @fleet_id
		ORDER BY t.start_date DESC`

	return r.listTrips(ctx, "ListByFleet", q, pgx.NamedArgs{"fleet_id": fleetID})
}

func (r *pgTripRepo) ListAvailableForDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		JOIN fleet_memberships m ON m.fleet_id = t.fleet_id
		WHERE m.driver_id = @driver_id AND m.status = 'member'
		  AND t.driver_id IS NULL AND NOT t.is_finished
		ORDER BY t.start_date DESC`

	return r.listTrips(ctx, "ListAvailableForDriver", q, pgx.NamedArgs{"driver_id": driverID})
}

func (r *pgTripRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		JOIN fleet_memberships m ON m.fleet_id = t.fleet_id AND m.driver_id = @driver_id
		WHERE m.status = 'member' AND t.driver_id = @driver_id
		ORDER BY t.start_date DESC`

	return r.listTrips(ctx, "ListByDriver", q, pgx.NamedArgs{"driver_id": driverID})
}

func (r *pgTripRepo) ListByDriverAndFleet(ctx context.Context, driverID, fleetID uuid.UUID) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		WHERE t.fleet_id = @fleet_id AND t.driver_id = @driver_id
		ORDER BY t.start_date DESC`

	return r.listTrips(ctx, "ListByDriverAndFleet", q, pgx.NamedArgs{"driver_id": driverID, "fleet_id": fleetID})
}

func (r *pgTripRepo) CurrentByDriver(ctx context.Context, driverID uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips t
		JOIN fleets f ON f.id = t.fleet_id
		WHERE t.driver_id = @driver_id AND NOT t.is_finished`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.CurrentByDriver: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) HasActiveTrip(ctx context.Context, driverID uuid.UUID) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM trips WHERE driver_id = @driver_id AND NOT is_finished
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"driver_id": driverID}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.TripRepo.HasActiveTrip: %w", err)
	}
	return exists, nil
}

func (r *pgTripRepo) Claim(ctx context.Context, tripID, driverID uuid.UUID) (bool, error) {
	const q = `
		UPDATE trips
		SET driver_id = @driver_id
		WHERE id = @trip_id
		  AND driver_id IS NULL
		  AND NOT is_finished
		  AND problem = @problem_none
		  AND NOT EXISTS (
			SELECT 1 FROM trips other
			WHERE other.driver_id = @driver_id AND NOT other.is_finished
		  )`

	args := pgx.NamedArgs{
		"trip_id":      tripID,
		"driver_id":    driverID,
		"problem_none": int(domain.ProblemNone),
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return false, fmt.Errorf("repo.TripRepo.Claim: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgTripRepo) SetProblem(ctx context.Context, tripID uuid.UUID, problem domain.Problem) error {
	const q = `UPDATE trips SET problem = @problem WHERE id = @trip_id AND NOT is_finished`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "problem": int(problem)})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.SetProblem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.SetProblem: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) Finish(ctx context.Context, tripID, driverID uuid.UUID, endDate time.Time) (bool, error) {
	const q = `
		UPDATE trips
		SET is_finished = true, end_date = @end_date
		WHERE id = @trip_id AND driver_id = @driver_id AND NOT is_finished`

	args := pgx.NamedArgs{
		"trip_id":   tripID,
		"driver_id": driverID,
		"end_date":  endDate,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return false, fmt.Errorf("repo.TripRepo.Finish: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgTripRepo) listTrips(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.%s: scan: %w", op, err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TripRepo.%s: rows: %w", op, err)
	}
	return trips, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID conversions and the nullable driver_id and end_date.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t        domain.Trip
		id       pgtype.UUID
		fleetID  pgtype.UUID
		driverID pgtype.UUID
		problem  int
		endDate  pgtype.Timestamptz
	)

	err := s.Scan(&id, &fleetID, &driverID, &t.Description, &problem, &t.IsFinished, &t.StartDate, &endDate, &t.FleetName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.FleetID = uuid.UUID(fleetID.Bytes)
	t.Problem = domain.Problem(problem)
	if driverID.Valid {
		d := uuid.UUID(driverID.Bytes)
		t.DriverID = &d
	}
	if endDate.Valid {
		ed := endDate.Time
		t.EndDate = &ed
	}

	return t, nil
}
