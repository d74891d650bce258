package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/metrics"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository"
)

// IdentityService handles registration and login.
// Each call is independent; no session state is kept between calls.
type IdentityService struct {
	userRepo repository.UserRepository
	hasher   crypto.Hasher
	issuer   auth.Issuer
	limiter  *LoginLimiter
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	// decoyHash is verified against when the email is unknown, so both
	// login failures cost one hash comparison.
	decoyHash string
}

// NewIdentityService creates a new IdentityService. limiter and m may be nil.
func NewIdentityService(
	userRepo repository.UserRepository,
	hasher crypto.Hasher,
	issuer auth.Issuer,
	limiter *LoginLimiter,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *IdentityService {
	s := &IdentityService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		limiter:  limiter,
		metrics:  m,
		logger:   logger.With().Str("service", "identity").Logger(),
	}
	if decoy, err := hasher.Hash("monedero-decoy-secret"); err == nil {
		s.decoyHash = decoy
	}
	return s
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	User  *domain.User
	Token *auth.Token
}

// RegisterInput contains the data needed to register a new user.
type RegisterInput struct {
	Name    string
	Surname string
	Phone   string
	Email   string
	Secret  string
}

// Validate checks the registration fields.
func (in RegisterInput) Validate() error {
	var v domain.Validator
	v.Required("name", in.Name)
	v.MaxLen("name", in.Name, domain.MaxNameLength)
	v.MaxLen("surname", in.Surname, domain.MaxNameLength)
	v.MaxLen("phone", in.Phone, domain.MaxPhoneLength)
	validateEmail(&v, "email", in.Email)
	validateSecret(&v, "secret", in.Secret)
	return v.Err()
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email  string
	Secret string
}

// Validate checks that both credentials are present.
func (in LoginInput) Validate() error {
	var v domain.Validator
	v.Required("email", in.Email)
	v.Check(in.Secret != "", "secret", "is required")
	return v.Err()
}

// Register creates a user and issues a token for it.
//
// The existence check answers the common case early. Concurrent registrations
// of the same email both pass it; the unique constraint on users.email then
// rejects all but one insert, and that rejection is reported the same way.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		s.logger.Debug().Str("email", email).Msg("registration with taken email")
		return nil, domain.ErrDuplicateEmail
	}

	passwordHash, err := s.hasher.Hash(input.Secret)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Name, input.Surname, input.Phone, email, passwordHash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.logger.Debug().Str("email", email).Msg("registration lost race on unique email")
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.metrics.RecordRegistration()
	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")

	return s.issue(user)
}

// Login verifies credentials and issues a token.
// Unknown emails and wrong secrets both fail with domain.ErrInvalidCredentials.
func (s *IdentityService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)

	if err := s.limiter.Check(ctx, email); err != nil {
		s.metrics.RecordLogin("limited")
		s.logger.Debug().Str("email", email).Msg("login refused by attempt limiter")
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("failed to look up user")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		s.hasher.Verify(input.Secret, s.decoyHash)
		s.logger.Debug().Str("email", email).Msg("login with unknown email")
		return nil, s.fail(ctx, email)
	}

	if !s.hasher.Verify(input.Secret, user.PasswordHash) {
		s.logger.Debug().Int64("user_id", user.ID).Msg("login with wrong secret")
		return nil, s.fail(ctx, email)
	}

	s.limiter.Reset(ctx, email)
	s.metrics.RecordLogin("success")
	s.logger.Info().Int64("user_id", user.ID).Msg("user logged in")

	return s.issue(user)
}

func (s *IdentityService) fail(ctx context.Context, email string) error {
	s.limiter.Fail(ctx, email)
	s.metrics.RecordLogin("failure")
	return domain.ErrInvalidCredentials
}

func (s *IdentityService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.issuer.Issue(user.ID, map[string]any{"email": user.Email})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: failed to issue token", ErrInternalError)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func validateEmail(v *domain.Validator, field, email string) {
	email = domain.NormalizeEmail(email)
	v.Required(field, email)
	v.MaxLen(field, email, domain.MaxEmailLength)
	if email != "" {
		v.Email(field, email)
	}
}

func validateSecret(v *domain.Validator, field, secret string) {
	v.Check(len(secret) >= domain.MinSecretLength, field,
		fmt.Sprintf("must be at least %d characters", domain.MinSecretLength))
	v.Check(len(secret) <= domain.MaxSecretLength, field,
		fmt.Sprintf("must be at most %d bytes", domain.MaxSecretLength))
}
