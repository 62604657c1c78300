package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/marketplace-service/internal/auth"
	"github.com/spec-kit/marketplace-service/internal/config"
	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/repository"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	FirstName      string
	SecondName     string
	LastName       string
	SecondLastName string
	Email          string
	Password       string
	Role           domain.UserRole
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterUser creates a new account with a unique email and returns a
// signed token alongside the persisted user.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered",
			map[string]any{"email": input.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.NewStorageError("lookup email", err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	role := input.Role
	if role == "" {
		role = domain.UserRoleRegular
	}

	user := &domain.User{
		FirstName:      input.FirstName,
		SecondName:     input.SecondName,
		LastName:       input.LastName,
		SecondLastName: input.SecondLastName,
		Email:          input.Email,
		PasswordHash:   hash,
		Role:           role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent registration can slip past the lookup above; the
		// unique constraint is the authority and still means conflict
		if apperrors.IsUniqueViolation(err) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered",
				map[string]any{"email": input.Email})
		}
		return nil, "", time.Time{}, apperrors.NewStorageError("create user", err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// LoginUser authenticates by email and password.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.NewStorageError("lookup email", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.NewStorageError("load user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	ok, err := s.users.ApplyPatch(ctx, userID, domain.UserPatch{PasswordHash: &hash})
	if err != nil {
		return apperrors.NewStorageError("update password", err)
	}
	if !ok {
		return apperrors.NewUnauthorized("user not found")
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
