package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/akorchak/fleet-dispatch/internal/domain"
)

// MembershipRepo defines the persistence operations for the driver↔fleet
// relationship. Every transition is a single conditional statement keyed on
// (fleet_id, driver_id, status), so a concurrent accept and dismiss for the
// same pair cannot lose an update: exactly one of them matches the row.
type MembershipRepo interface {
	// Invite inserts a pending row for the pair. Returns false without error
	// when a row already exists (pending or member); use Status to find out
	// which.
	Invite(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)

	// Status returns the current membership state for the pair.
	// A missing row is domain.MembershipNone, not an error.
	Status(ctx context.Context, fleetID, driverID uuid.UUID) (domain.MembershipStatus, error)

	// Accept promotes a pending row to member. Returns false when the pair
	// is not currently pending.
	Accept(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)

	// Decline removes a pending row. Returns false when the pair is not
	// currently pending.
	Decline(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)

	// Dismiss removes a member row. Returns false when the pair is not
	// currently a member.
	Dismiss(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error)

	// ListDrivers returns the drivers related to the fleet with the given
	// status, ordered by username.
	ListDrivers(ctx context.Context, fleetID uuid.UUID, status domain.MembershipStatus) ([]domain.User, error)

	// ListNonMemberDrivers returns all drivers with no relationship to the
	// fleet at all — neither member nor pending.
	ListNonMemberDrivers(ctx context.Context, fleetID uuid.UUID) ([]domain.User, error)
}

// pgMembershipRepo is the Postgres implementation of MembershipRepo.
type pgMembershipRepo struct {
	db db
}

// NewMembershipRepo constructs a MembershipRepo backed by the provided db connection.
func NewMembershipRepo(db db) MembershipRepo {
	return &pgMembershipRepo{db: db}
}

func (r *pgMembershipRepo) Invite(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	const q = `
		INSERT INTO fleet_memberships (fleet_id, driver_id, status)
		VALUES (@fleet_id, @driver_id, 'pending')
		ON CONFLICT (fleet_id, driver_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"fleet_id": fleetID, "driver_id": driverID})
	if err != nil {
		return false, fmt.Errorf("repo.MembershipRepo.Invite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgMembershipRepo) Status(ctx context.Context, fleetID, driverID uuid.UUID) (domain.MembershipStatus, error) {
	const q = `
		SELECT status FROM fleet_memberships
		WHERE fleet_id = @fleet_id AND driver_id = @driver_id`

	var status string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"fleet_id": fleetID, "driver_id": driverID}).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MembershipNone, nil
		}
		return domain.MembershipNone, fmt.Errorf("repo.MembershipRepo.Status: %w", err)
	}
	return domain.MembershipStatus(status), nil
}

func (r *pgMembershipRepo) Accept(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	const q = `
		UPDATE fleet_memberships
		SET status = 'member', joined_at = now()
		WHERE fleet_id = @fleet_id AND driver_id = @driver_id AND status = 'pending'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"fleet_id": fleetID, "driver_id": driverID})
	if err != nil {
		return false, fmt.Errorf("repo.MembershipRepo.Accept: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgMembershipRepo) Decline(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	const q = `
		DELETE FROM fleet_memberships
		WHERE fleet_id = @fleet_id AND driver_id = @driver_id AND status = 'pending'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"fleet_id": fleetID, "driver_id": driverID})
	if err != nil {
		return false, fmt.Errorf("repo.MembershipRepo.Decline: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgMembershipRepo) Dismiss(ctx context.Context, fleetID, driverID uuid.UUID) (bool, error) {
	const q = `
		DELETE FROM fleet_memberships
		WHERE fleet_id = @fleet_id AND driver_id = @driver_id AND status = 'member'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"fleet_id": fleetID, "driver_id": driverID})
	if err != nil {
		return false, fmt.Errorf("repo.MembershipRepo.Dismiss: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgMembershipRepo) ListDrivers(ctx context.Context, fleetID uuid.UUID, status domain.MembershipStatus) ([]domain.User, error) {
	const q = `
		SELECT u.id, u.username, u.email, u.password_hash, u.role, u.first_name, u.last_name, u.created_at
		FROM users u
		JOIN fleet_memberships m ON m.driver_id = u.id
		WHERE m.fleet_id = @fleet_id AND m.status = @status
		ORDER BY u.username`

	args := pgx.NamedArgs{"fleet_id": fleetID, "status": string(status)}
	return r.listUsers(ctx, "ListDrivers", q, args)
}

func (r *pgMembershipRepo) ListNonMemberDrivers(ctx context.Context, fleetID uuid.UUID) ([]domain.User, error) {
	const q = `
		SELECT u.id, u.username, u.email, u.password_hash, u.role, u.first_name, u.last_name, u.created_at
		FROM users u
		WHERE u.role = 'driver'
		  AND NOT EXISTS (
			SELECT 1 FROM fleet_memberships m
			WHERE m.fleet_id = @fleet_id AND m.driver_id = u.id
		  )
		ORDER BY u.username`

	return r.listUsers(ctx, "ListNonMemberDrivers", q, pgx.NamedArgs{"fleet_id": fleetID})
}

func (r *pgMembershipRepo) listUsers(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.MembershipRepo.%s: scan: %w", op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.MembershipRepo.%s: rows: %w", op, err)
	}
	return users, nil
}
