package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/monedero/internal/domain"
)

func storedUser(t *testing.T, secret string) *domain.User {
	t.Helper()
	hash, err := testHasher(t).Hash(secret)
	require.NoError(t, err)
	return &domain.User{ID: 5, Name: "Ana", Surname: "Ruiz", Phone: "600", Email: "ana@example.com", PasswordHash: hash}
}

func TestUserService_Profile(t *testing.T) {
	users := &MockUserRepository{}
	users.On("GetByID", mock.Anything, int64(5)).Return(storedUser(t, "abcdef"), nil)
	users.On("GetByID", mock.Anything, int64(6)).Return(nil, domain.ErrUserNotFound)
	svc := NewUserService(users, testHasher(t), zerolog.Nop())

	user, err := svc.Profile(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "Ana", user.Name)

	_, err = svc.Profile(context.Background(), 6)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	users := &MockUserRepository{}
	users.On("GetByID", mock.Anything, int64(5)).Return(storedUser(t, "abcdef"), nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)
	svc := NewUserService(users, testHasher(t), zerolog.Nop())

	user, err := svc.UpdateProfile(context.Background(), 5, &domain.UserPatch{Phone: ptr(" 611 ")})
	require.NoError(t, err)
	require.Equal(t, "611", user.Phone)
	require.Equal(t, "Ana", user.Name, "absent fields are unchanged")
	require.Equal(t, "Ruiz", user.Surname)

	_, err = svc.UpdateProfile(context.Background(), 5, &domain.UserPatch{Name: ptr("  ")})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_ChangePassword(t *testing.T) {
	users := &MockUserRepository{}
	users.On("GetByID", mock.Anything, int64(5)).Return(storedUser(t, "abcdef"), nil)

	var saved *domain.User
	users.On("Update", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.User) }).
		Return(nil)

	hasher := testHasher(t)
	svc := NewUserService(users, hasher, zerolog.Nop())
	ctx := context.Background()

	err := svc.ChangePassword(ctx, 5, ChangePasswordInput{CurrentSecret: "wrong!", NewSecret: "ghijkl"})
	require.ErrorIs(t, err, domain.ErrValidation)
	require.Nil(t, saved)

	err = svc.ChangePassword(ctx, 5, ChangePasswordInput{CurrentSecret: "abcdef", NewSecret: "gh"})
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, 5, ChangePasswordInput{CurrentSecret: "abcdef", NewSecret: "ghijkl"}))
	require.NotNil(t, saved)
	require.True(t, hasher.Verify("ghijkl", saved.PasswordHash))
	require.False(t, hasher.Verify("abcdef", saved.PasswordHash))
}

func TestUserService_DeleteAccount(t *testing.T) {
	users := &MockUserRepository{}
	users.On("GetByID", mock.Anything, int64(5)).Return(storedUser(t, "abcdef"), nil)
	users.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	svc := NewUserService(users, testHasher(t), zerolog.Nop())
	ctx := context.Background()

	require.ErrorIs(t, svc.DeleteAccount(ctx, 5, ""), domain.ErrValidation)
	require.ErrorIs(t, svc.DeleteAccount(ctx, 5, "nope!!"), domain.ErrValidation)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	require.NoError(t, svc.DeleteAccount(ctx, 5, "abcdef"))
	users.AssertExpectations(t)
}

func TestUserService_ResetPassword(t *testing.T) {
	users := &MockUserRepository{}
	users.On("GetByEmail", mock.Anything, "ana@example.com").Return(storedUser(t, "abcdef"), nil)
	users.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, domain.ErrUserNotFound)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)
	hasher := testHasher(t)
	svc := NewUserService(users, hasher, zerolog.Nop())

	user, err := svc.ResetPassword(context.Background(), "ANA@example.com", "newsecret")
	require.NoError(t, err)
	require.True(t, hasher.Verify("newsecret", user.PasswordHash))

	_, err = svc.ResetPassword(context.Background(), "bob@example.com", "newsecret")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
