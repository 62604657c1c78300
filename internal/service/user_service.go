package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util/errorutil"
)

// UserService exposes profile reads and mutations.
type UserService struct {
	users repository.UserRepository
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// GetByID returns the active user, or nil when absent or soft-deleted.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("load user", err)
	}
	return user, nil
}

// List returns all active users.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list users", err)
	}
	return users, nil
}

// Update merges the supplied patch fields. Returns false when no active
// record exists for id. An email change is checked against uniqueness.
func (s *UserService) Update(ctx context.Context, id int64, patch domain.UserPatch) (bool, error) {
	if patch.Empty() {
		return false, apperrors.NewValidationError("no fields to update", nil)
	}

	if patch.Email != nil {
		existing, err := s.users.GetByEmail(ctx, *patch.Email)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewStorageError("lookup email", err)
		}
		if existing != nil && existing.ID != id {
			return false, apperrors.NewConflict("email already registered",
				map[string]any{"email": *patch.Email})
		}
	}

	ok, err := s.users.ApplyPatch(ctx, id, patch)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			details := map[string]any{}
			if patch.Email != nil {
				details["email"] = *patch.Email
			}
			return false, apperrors.NewConflict("email already registered", details)
		}
		return false, apperrors.NewStorageError("update user", err)
	}
	return ok, nil
}

// Delete soft-deletes the user. Returns false when already deleted or absent.
func (s *UserService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.users.MarkDeleted(ctx, id)
	if err != nil {
		return false, apperrors.NewStorageError("delete user", err)
	}
	return ok, nil
}
