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

// UserRepo defines the persistence operations for users.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type UserRepo interface {
	// Create inserts a new user and returns the persisted record.
	// Returns domain.ErrConflict if the username is already taken.
	Create(ctx context.Context, user domain.User) (domain.User, error)

	// GetByID retrieves a user by primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// GetByUsername retrieves a user by unique username.
	// Returns domain.ErrNotFound if no user with that username exists.
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, created_at`

func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash, role, first_name, last_name)
		VALUES (@username, @email, @password_hash, @role, @first_name, @last_name)
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
	}

	result, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf("repo.UserRepo.Create: username taken: %w", domain.ErrConflict)
		}
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = @id`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = @username`

	result, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"username": username}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByUsername: %w", err)
	}
	return result, nil
}

// scanUser maps a single database row into a domain.User.
// It handles the UUID conversion through pgtype.
func scanUser(s scanner) (domain.User, error) {
	var (
		u    domain.User
		id   pgtype.UUID
		role string
	)
	err := s.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &role, &u.FirstName, &u.LastName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.Role = domain.Role(role)
	return u, nil
}
