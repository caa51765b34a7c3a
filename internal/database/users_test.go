package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &models.User{Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, db.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)

	got.Name = "Alice B."
	require.NoError(t, db.UpdateUser(ctx, got))
	got, err = db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", got.Name)

	bob := seedUser(t, db, "bob")
	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, bob.ID, users[1].ID)

	err = db.UpdateUser(ctx, &models.User{ID: bob.ID, Name: "bob", Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, db.DeleteUser(ctx, u.ID))
	_, err = db.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, db.DeleteUser(ctx, u.ID), domain.ErrNotFound)
	assert.ErrorIs(t, db.UpdateUser(ctx, &models.User{ID: 999, Name: "x", Email: "x@y"}), domain.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner")
	booker := seedUser(t, db, "booker")
	item := seedItem(t, db, owner.ID, "drill", true)
	start := time.Now().Add(time.Hour)
	b := seedBooking(t, db, item.ID, booker.ID, start, start.Add(time.Hour), models.StatusWaiting)

	require.NoError(t, db.DeleteUser(ctx, owner.ID))

	_, err := db.GetItemByID(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = db.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
