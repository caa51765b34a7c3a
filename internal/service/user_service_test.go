package service

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserService_CreateUser(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	s := NewUserService(repo, testLogger())
	repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = 1 }).Return(nil).Once()

	u, err := s.CreateUser(ctx, &models.User{Name: " Ann ", Email: "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "Ann", u.Name)

	_, err = s.CreateUser(ctx, &models.User{Name: "Ann", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = s.CreateUser(ctx, &models.User{Name: "", Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	repo.On("CreateUser", ctx, mock.Anything).Return(domain.ErrConflict).Once()
	_, err = s.CreateUser(ctx, &models.User{Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{"ann@example.com", "a.b+tag@sub.example.org"} {
		assert.NoError(t, validateEmail(email), email)
	}
	for _, email := range []string{"", "broken", "Bob <bob@example.com>", "Bob Smith <bob@example.com>", "bob@"} {
		assert.ErrorIs(t, validateEmail(email), domain.ErrInvalidState, email)
	}
}

func TestUserService_CreateUser_DisplayNameRejected(t *testing.T) {
	repo := new(mockRepo)
	s := NewUserService(repo, testLogger())

	_, err := s.CreateUser(context.Background(), &models.User{Name: "bob", Email: "Bob Smith <bob@example.com>"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserService_UpdateUser(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepo)
	s := NewUserService(repo, testLogger())
	repo.On("GetUserByID", ctx, int64(1)).Return(&models.User{ID: 1, Name: "Ann", Email: "ann@example.com"}, nil)
	repo.On("UpdateUser", ctx, mock.Anything).Return(nil)

	u, err := s.UpdateUser(ctx, 1, models.UserPatch{Name: strp("Anna")})
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)

	_, err = s.UpdateUser(ctx, 1, models.UserPatch{Email: strp("broken")})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	repo2 := new(mockRepo)
	s2 := NewUserService(repo2, testLogger())
	repo2.On("GetUserByID", ctx, int64(4)).Return(nil, domain.ErrNotFound)
	_, err = s2.UpdateUser(ctx, 4, models.UserPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	s := NewUserService(repo, testLogger())
	repo.On("GetAllUsers", ctx).Return([]*models.User{{ID: 1}, {ID: 2}}, nil)
	repo.On("DeleteUser", ctx, int64(2)).Return(nil)
	repo.On("DeleteUser", ctx, int64(3)).Return(domain.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	assert.NoError(t, s.DeleteUser(ctx, 2))
	assert.ErrorIs(t, s.DeleteUser(ctx, 3), domain.ErrNotFound)
}
