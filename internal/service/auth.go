// Package service contains the business logic for the fleet dispatch API.
// Services validate inputs, enforce role and ownership rules, and drive the
// trip and membership state machines by orchestrating repo calls. No SQL
// lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/akorchak/fleet-dispatch/internal/domain"
	"github.com/akorchak/fleet-dispatch/internal/repo"
	"github.com/akorchak/fleet-dispatch/internal/token"
)

// AuthService implements signup and login.
type AuthService struct {
	users  repo.UserRepo
	tokens *token.Service
}

// NewAuthService constructs an AuthService backed by the provided repo and
// token service.
func NewAuthService(users repo.UserRepo, tokens *token.Service) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// SignupInput carries the fields accepted at registration.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	Role      domain.Role
	FirstName string
	LastName  string
}

// Signup validates the input, hashes the password, and persists the user.
// Returns domain.ErrValidation for invalid input and domain.ErrConflict when
// the username is already taken.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	if err := validateSignup(in); err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Signup: %w", err)
	}

	user := domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Role:         in.Role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	result, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("service.AuthService.Signup: %w", err)
	}
	return result, nil
}

// Login verifies the credentials and issues a signed token for the user.
// Returns domain.ErrUnauthorized on an unknown username or a wrong password;
// the two cases are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.User{}, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
		}
		return "", domain.User{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	}

	tok, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return tok, user, nil
}

// validateSignup enforces the registration business rules.
func validateSignup(in SignupInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: role must be owner or driver", domain.ErrValidation)
	}
	return nil
}
