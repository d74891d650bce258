package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

// ReferenceChecker verifies that account and category ids named by a
// resource belong to the same owner, and tells a vanished owner apart from
// a vanished referenced row when the database reports a foreign key failure.
type ReferenceChecker struct {
	users      repository.UserRepository
	accounts   repository.OwnedRepository[*domain.Account]
	categories repository.OwnedRepository[*domain.Category]
}

// NewReferenceChecker creates a ReferenceChecker.
func NewReferenceChecker(
	users repository.UserRepository,
	accounts repository.OwnedRepository[*domain.Account],
	categories repository.OwnedRepository[*domain.Category],
) *ReferenceChecker {
	return &ReferenceChecker{users: users, accounts: accounts, categories: categories}
}

// Check returns a *domain.ValidationError naming every reference that is
// missing or owned by someone else.
func (c *ReferenceChecker) Check(ctx context.Context, ownerID int64, refs domain.References) error {
	var v domain.Validator
	if refs.AccountID != nil {
		ok, err := owns(ctx, c.accounts, ownerID, *refs.AccountID)
		if err != nil {
			return err
		}
		v.Check(ok, "account_id", "does not exist")
	}
	if refs.CategoryID != nil {
		ok, err := owns(ctx, c.categories, ownerID, *refs.CategoryID)
		if err != nil {
			return err
		}
		v.Check(ok, "category_id", "does not exist")
	}
	return v.Err()
}

func owns[R domain.Resource](ctx context.Context, repo repository.OwnedRepository[R], ownerID, id int64) (bool, error) {
	r, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return r.Meta().OwnedBy(ownerID), nil
}

// explain turns a repository.ErrReferenceViolation into what the caller
// should see: domain.ErrUnauthorized once the owner is gone, otherwise a
// validation failure for a reference deleted since it was checked.
func (c *ReferenceChecker) explain(ctx context.Context, ownerID int64) error {
	if _, err := c.users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthorized
		}
		return err
	}
	return domain.NewValidationError("reference", "refers to a row that no longer exists")
}

// ResourceService implements the ownership contract for one kind of owned
// resource: every read and write is scoped to the caller, and rows of other
// owners are indistinguishable from missing ones.
type ResourceService[R domain.Resource] struct {
	kind   string
	repo   repository.OwnedRepository[R]
	newFn  func() R
	refs   *ReferenceChecker
	now    func() time.Time
	logger zerolog.Logger
}

// NewResourceService creates a ResourceService. newFn returns a resource
// holding the defaults for fields a create request omits.
func NewResourceService[R domain.Resource](
	kind string,
	repo repository.OwnedRepository[R],
	newFn func() R,
	refs *ReferenceChecker,
	logger zerolog.Logger,
) *ResourceService[R] {
	return &ResourceService[R]{
		kind:   kind,
		repo:   repo,
		newFn:  newFn,
		refs:   refs,
		now:    time.Now,
		logger: logger.With().Str("service", kind).Logger(),
	}
}

// Kind returns the resource name used in logs and routes.
func (s *ResourceService[R]) Kind() string {
	return s.kind
}

func (s *ResourceService[R]) today() domain.Date {
	return domain.DateOf(s.now())
}

// List returns the caller's rows.
func (s *ResourceService[R]) List(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[R], error) {
	result, err := s.repo.List(ctx, ownerID, opts.Normalize())
	if err != nil {
		return nil, s.internal(err, "failed to list", ownerID, 0)
	}
	for _, r := range result.Items {
		compute(r)
	}
	return result, nil
}

// Get returns the row id if the caller owns it, otherwise domain.ErrNotFound.
func (s *ResourceService[R]) Get(ctx context.Context, ownerID, id int64) (R, error) {
	var zero R

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return zero, domain.ErrNotFound
		}
		return zero, s.internal(err, "failed to get", ownerID, id)
	}

	if !r.Meta().OwnedBy(ownerID) {
		s.logger.Debug().Int64("user_id", ownerID).Int64("id", id).Msg("access to row of another owner")
		return zero, domain.ErrNotFound
	}

	compute(r)
	return r, nil
}

// Create validates patch, stamps the caller as owner and inserts the row.
// The stored row is read back so server-set fields are returned.
func (s *ResourceService[R]) Create(ctx context.Context, ownerID int64, patch domain.Patch[R]) (R, error) {
	var zero R

	if err := patch.Validate(true); err != nil {
		return zero, err
	}

	r := s.newFn()
	patch.Apply(r)
	r.Meta().OwnerID = ownerID
	if d, ok := any(r).(domain.Defaulter); ok {
		d.ApplyDefaults(s.today())
	}
	if err := s.check(ctx, ownerID, r); err != nil {
		return zero, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return zero, s.writeError(ctx, err, "failed to create", ownerID, 0)
	}

	s.logger.Info().Int64("user_id", ownerID).Int64("id", r.Meta().ID).Msg(s.kind + " created")
	return s.Get(ctx, ownerID, r.Meta().ID)
}

// Update applies the fields present in patch to the caller's row id.
func (s *ResourceService[R]) Update(ctx context.Context, ownerID, id int64, patch domain.Patch[R]) (R, error) {
	var zero R

	if err := patch.Validate(false); err != nil {
		return zero, err
	}

	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return zero, err
	}

	patch.Apply(r)
	if err := s.check(ctx, ownerID, r); err != nil {
		return zero, err
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return zero, s.writeError(ctx, err, "failed to update", ownerID, id)
	}

	s.logger.Info().Int64("user_id", ownerID).Int64("id", id).Msg(s.kind + " updated")
	return s.Get(ctx, ownerID, id)
}

// Delete removes the caller's row id. Returns domain.ErrNotFound when
// nothing was deleted.
func (s *ResourceService[R]) Delete(ctx context.Context, ownerID, id int64) error {
	deleted, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return s.internal(err, "failed to delete", ownerID, id)
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.logger.Info().Int64("user_id", ownerID).Int64("id", id).Msg(s.kind + " deleted")
	return nil
}

// check runs the cross-field and reference checks of r.
func (s *ResourceService[R]) check(ctx context.Context, ownerID int64, r R) error {
	if c, ok := any(r).(domain.Checker); ok {
		if err := c.Check(); err != nil {
			return err
		}
	}
	ref, ok := any(r).(domain.Referrer)
	if !ok || s.refs == nil {
		return nil
	}
	if err := s.refs.Check(ctx, ownerID, ref.References()); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return err
		}
		return s.internal(err, "failed to check references", ownerID, r.Meta().ID)
	}
	return nil
}

func (s *ResourceService[R]) writeError(ctx context.Context, err error, msg string, ownerID, id int64) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, repository.ErrReferenceViolation) && s.refs != nil:
		explained := s.refs.explain(ctx, ownerID)
		if errors.Is(explained, domain.ErrUnauthorized) || errors.Is(explained, domain.ErrValidation) {
			s.logger.Debug().Err(err).Int64("user_id", ownerID).Msg(msg)
			return explained
		}
		return s.internal(explained, msg, ownerID, id)
	}
	return s.internal(err, msg, ownerID, id)
}

func (s *ResourceService[R]) internal(err error, msg string, ownerID, id int64) error {
	s.logger.Error().Err(err).Int64("user_id", ownerID).Int64("id", id).Msg(msg + " " + s.kind)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}

func compute[R domain.Resource](r R) {
	if c, ok := any(r).(domain.Computer); ok {
		c.Compute()
	}
}
