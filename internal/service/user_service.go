package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/faraddouglas/conecsa-api/internal/auth"
	"github.com/faraddouglas/conecsa-api/internal/domain"
	"github.com/faraddouglas/conecsa-api/internal/repository"
	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

// UserService manages user records on behalf of administrators.
type UserService struct {
	users  repository.UserRepository
	hasher *auth.Hasher
}

// UserInput is a full user record as submitted by an administrator.
type UserInput struct {
	Name     string
	Email    string
	Password string
	BirthAt  *time.Time
	Role     domain.Role
}

// UserPatch holds the fields of a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	BirthAt  *time.Time
	Role     *domain.Role
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, hasher *auth.Hasher) *UserService {
	return &UserService{users: users, hasher: hasher}
}

// Create stores a new user. A zero role defaults to RoleUser.
func (s *UserService) Create(ctx context.Context, input UserInput) (*domain.User, error) {
	hash, err := s.hashPassword(ctx, input.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
		BirthAt:      input.BirthAt,
		Role:         defaultRole(input.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapUserWriteError(err, user.Email)
	}
	return user, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if err := validateUserID(id); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserLookupError(err, id)
	}
	return user, nil
}

// Update replaces every field of a user, re-hashing the password.
func (s *UserService) Update(ctx context.Context, id string, input UserInput) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(ctx, input.Password)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Email = normalizeEmail(input.Email)
	user.PasswordHash = hash
	user.BirthAt = input.BirthAt
	user.Role = defaultRole(input.Role)

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapUserWriteError(err, user.Email)
	}
	return user, nil
}

// Patch applies the non-nil fields of patch. The password is re-hashed only when present.
func (s *UserService) Patch(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = normalizeEmail(*patch.Email)
	}
	if patch.Password != nil {
		hash, err := s.hashPassword(ctx, *patch.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if patch.BirthAt != nil {
		user.BirthAt = patch.BirthAt
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapUserWriteError(err, user.Email)
	}
	return user, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := validateUserID(id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapUserLookupError(err, id)
	}
	return nil
}

func (s *UserService) hashPassword(ctx context.Context, password string) (string, error) {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmptyPassword) {
			return "", apperrors.NewValidationError("invalid payload", map[string]any{"password": "cannot be blank"})
		}
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func validateUserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewBadRequest("invalid user id")
	}
	return nil
}

func defaultRole(role domain.Role) domain.Role {
	if !role.Valid() {
		return domain.RoleUser
	}
	return role
}

func mapUserLookupError(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

func mapUserWriteError(err error, email string) error {
	if errors.Is(err, repository.ErrEmailTaken) {
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}
	return mapUserLookupError(err, "")
}
