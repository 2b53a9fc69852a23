package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate for any unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserService manages company users and verifies their credentials.
type UserService interface {
	CreateUser(ctx context.Context, companyCode, username, email, password string, role Role) (*User, error)
	ListUsers(ctx context.Context, companyCode string) ([]User, error)
	GetByID(ctx context.Context, userID string) (*User, error)
	// Authenticate returns the active user matching the credentials within a company.
	Authenticate(ctx context.Context, companyCode, username, password string) (*User, *Company, error)
}

type userService struct {
	store Store
}

// NewUserService constructs a UserService over the given store.
func NewUserService(store Store) UserService {
	return &userService{store: store}
}

func (s *userService) CreateUser(ctx context.Context, companyCode, username, email, password string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "username is required")
	}
	if len(password) < 8 {
		return nil, invalid("password", "password must be at least 8 characters")
	}
	if role != RoleOwner && role != RoleCashier {
		return nil, invalid("role", "unknown role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var u *User
	err = s.store.InTx(ctx, func(r Repos) error {
		company, err := resolveCompany(ctx, r, companyCode)
		if err != nil {
			return err
		}
		if _, err := r.Users().GetByUsername(ctx, company.ID, username); err == nil {
			return fmt.Errorf("user %q %w", username, ErrDuplicate)
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to check username: %w", err)
		}
		u = &User{
			ID:           uuid.NewString(),
			CompanyID:    company.ID,
			Username:     username,
			Email:        strings.TrimSpace(email),
			PasswordHash: string(hash),
			Role:         role,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}
		if err := r.Users().Create(ctx, u); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) ListUsers(ctx context.Context, companyCode string) ([]User, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) GetByID(ctx context.Context, userID string) (*User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user id=%s not found: %w", userID, err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, companyCode, username, password string) (*User, *Company, error) {
	company, err := resolveCompany(ctx, s.store, companyCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	u, err := s.store.Users().GetByUsername(ctx, company.ID, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	return u, company, nil
}
