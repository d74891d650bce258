package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository"
)

// UserService handles profile management for the authenticated user and
// the administrative operations used by the admin CLI.
type UserService struct {
	userRepo repository.UserRepository
	hasher   crypto.Hasher
	logger   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, hasher crypto.Hasher, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		logger:   logger.With().Str("service", "user").Logger(),
	}
}

// ChangePasswordInput contains the data needed to replace a password.
type ChangePasswordInput struct {
	CurrentSecret string
	NewSecret     string
}

// Profile returns the user with the given ID.
// A token that outlives its user gets domain.ErrNotFound.
func (s *UserService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// UpdateProfile applies the present fields of patch to the user.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, patch *domain.UserPatch) (*domain.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	patch.Apply(user)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", userID).Msg("profile updated")
	return user, nil
}

// ChangePassword verifies the current secret and replaces the hash wholesale.
// Tokens issued before the change stay valid until they expire.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, input ChangePasswordInput) error {
	var v domain.Validator
	v.Check(input.CurrentSecret != "", "current_secret", "is required")
	validateSecret(&v, "new_secret", input.NewSecret)
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(input.CurrentSecret, user.PasswordHash) {
		s.logger.Debug().Int64("user_id", userID).Msg("password change with wrong current secret")
		return domain.NewValidationError("current_secret", "is incorrect")
	}

	if err := s.setPassword(ctx, user, input.NewSecret); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", userID).Msg("password changed")
	return nil
}

// DeleteAccount removes the user after confirming their secret.
// Every owned row is removed with it.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64, secret string) error {
	if secret == "" {
		return domain.NewValidationError("secret", "is required")
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(secret, user.PasswordHash) {
		s.logger.Debug().Int64("user_id", userID).Msg("account deletion with wrong secret")
		return domain.NewValidationError("secret", "is incorrect")
	}

	return s.Remove(ctx, userID)
}

// =============================================================================
// Administrative operations
// =============================================================================

// List returns all users with pagination.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[*domain.User], error) {
	result, err := s.userRepo.List(ctx, opts.Normalize())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return result, nil
}

// Remove deletes a user without confirmation.
func (s *UserService) Remove(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to delete user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", userID).Msg("user deleted")
	return nil
}

// ResetPassword sets a new secret for the user with the given email.
func (s *UserService) ResetPassword(ctx context.Context, email, secret string) (*domain.User, error) {
	var v domain.Validator
	validateSecret(&v, "secret", secret)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotFound
		}
		s.logger.Error().Err(err).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.setPassword(ctx, user, secret); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("password reset")
	return user, nil
}

func (s *UserService) setPassword(ctx context.Context, user *domain.User, secret string) error {
	passwordHash, err := s.hasher.Hash(secret)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}
	user.PasswordHash = passwordHash
	return s.save(ctx, user)
}

func (s *UserService) save(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to update user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}
