package database

import (
	"context"
	"testing"
	"time"

	"campusrooms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertUser(ctx, &models.User{
		ID: 1, Name: "Dana Whitfield", Email: "dana@example.edu", Role: models.RoleAdmin,
	}))

	user, err := db.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Dana Whitfield", user.Name)
	assert.True(t, user.IsAdmin())

	_, err = db.GetUser(ctx, 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetRoom(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoom(ctx, &models.Room{ID: 1, Name: "R201", Capacity: 12, IsActive: true}))

	room, err := db.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "R201", room.Name)
	assert.Equal(t, int64(12), room.Capacity)

	_, err = db.GetRoom(ctx, 99)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpsertRoomUpdatesExisting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertRoom(ctx, &models.Room{ID: 1, Name: "R201", Capacity: 12, IsActive: true}))
	require.NoError(t, db.UpsertRoom(ctx, &models.Room{ID: 1, Name: "R201", Capacity: 12, IsActive: false}))

	room, err := db.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.False(t, room.IsActive)

	rooms, err := db.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestHolidayLookup(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertHoliday(ctx, &models.Holiday{
		Date: "2026-12-25", Name: "Winter Break", IsActive: true,
	}))
	require.NoError(t, db.UpsertHoliday(ctx, &models.Holiday{
		Date: "2026-07-04", Name: "Retired", IsActive: false,
	}))

	// Any time of day on the holiday date matches.
	blocked, err := db.IsHolidayDate(ctx, time.Date(2026, 12, 25, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, blocked)

	// Inactive holidays do not block.
	blocked, err = db.IsHolidayDate(ctx, time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, blocked)

	blocked, err = db.IsHolidayDate(ctx, time.Date(2026, 12, 26, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, blocked)

	holidays, err := db.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, holidays, 2)
}
