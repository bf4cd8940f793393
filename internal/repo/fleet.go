package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// FleetRepo defines the persistence operations for fleets.
type FleetRepo interface {
	// Create inserts a new fleet and returns the persisted record (with
	// DB-generated id and created_at populated).
	Create(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error)

	// GetByID retrieves a fleet by primary key.
	// Returns domain.ErrNotFound if no fleet with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Fleet, error)

	// ListByOwner returns all fleets owned by the given owner, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Fleet, error)

	// ListByDriver returns all fleets the given driver is a member of.
	ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error)

	// ListPendingByDriver returns all fleets the given driver has a pending
	// invite to.
	ListPendingByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error)

	// Delete removes a fleet by ID. Memberships and trips cascade at the
	// schema level. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgFleetRepo is the Postgres implementation of FleetRepo.
type pgFleetRepo struct {
	db db
}

// NewFleetRepo constructs a FleetRepo backed by the provided db connection.
func NewFleetRepo(db db) FleetRepo {
	return &pgFleetRepo{db: db}
}

const fleetColumns = `id, owner_id, name, description, created_at`

func (r *pgFleetRepo) Create(ctx context.Context, fleet domain.Fleet) (domain.Fleet, error) {
	const q = `
		INSERT INTO fleets (owner_id, name, description)
		VALUES (@owner_id, @name, @description)
		RETURNING ` + fleetColumns

	args := pgx.NamedArgs{
		"owner_id":    fleet.OwnerID,
		"name":        fleet.Name,
		"description": fleet.Description,
	}

	result, err := scanFleet(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgFleetRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Fleet, error) {
	const q = `SELECT ` + fleetColumns + ` FROM fleets WHERE id = @id`

	result, err := scanFleet(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Fleet{}, fmt.Errorf("repo.FleetRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgFleetRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Fleet, error) {
	const q = `
		SELECT ` + fleetColumns + `
		FROM fleets
		WHERE owner_id = @owner_id
		ORDER BY created_at DESC`

	return r.listFleets(ctx, "ListByOwner", q, pgx.NamedArgs{"owner_id": ownerID})
}

func (r *pgFleetRepo) ListByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error) {
	const q = `
		SELECT f.id, f.owner_id, f.name, f.description, f.created_at
		FROM fleets f
		JOIN fleet_memberships m ON m.fleet_id = f.id
		WHERE m.driver_id = @driver_id AND m.status = 'member'
		ORDER BY f.created_at DESC`

	return r.listFleets(ctx, "ListByDriver", q, pgx.NamedArgs{"driver_id": driverID})
}

func (r *pgFleetRepo) ListPendingByDriver(ctx context.Context, driverID uuid.UUID) ([]domain.Fleet, error) {
	const q = `
		SELECT f.id, f.owner_id, f.name, f.description, f.created_at
		FROM fleets f
		JOIN fleet_memberships m ON m.fleet_id = f.id
		WHERE m.driver_id = @driver_id AND m.status = 'pending'
		ORDER BY m.invited_at DESC`

	return r.listFleets(ctx, "ListPendingByDriver", q, pgx.NamedArgs{"driver_id": driverID})
}

func (r *pgFleetRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM fleets WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.FleetRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.FleetRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgFleetRepo) listFleets(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Fleet, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.FleetRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var fleets []domain.Fleet
	for rows.Next() {
		f, err := scanFleet(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.FleetRepo.%s: scan: %w", op, err)
		}
		fleets = append(fleets, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.FleetRepo.%s: rows: %w", op, err)
	}
	return fleets, nil
}

// scanFleet maps a single database row into a domain.Fleet.
func scanFleet(s scanner) (domain.Fleet, error) {
	var (
		f       domain.Fleet
		id      pgtype.UUID
		ownerID pgtype.UUID
	)
	err := s.Scan(&id, &ownerID, &f.Name, &f.Description, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Fleet{}, domain.ErrNotFound
		}
		return domain.Fleet{}, err
	}
	f.ID = uuid.UUID(id.Bytes)
	f.OwnerID = uuid.UUID(ownerID.Bytes)
	return f, nil
}
