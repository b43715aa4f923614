package services

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Favorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Road").ID, 30)
	user := customer()

	updated, err := f.users.AddFavorite(ctx, user, bike.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bike.ID}, updated.Favorites)

	_, err = f.users.AddFavorite(ctx, user, bike.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.users.AddFavorite(ctx, user, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	profile, err := f.users.GetProfile(ctx, user)
	require.NoError(t, err)
	require.Len(t, profile.Favorites, 1)
	assert.Equal(t, bike.Name, profile.Favorites[0].Name)

	updated, err = f.users.RemoveFavorite(ctx, user, bike.ID.String())
	require.NoError(t, err)
	assert.Empty(t, updated.Favorites)
}

func TestUserService_Admin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bike := f.bike(t, f.category(t, "Hybrid").ID, 18)
	alice, bob := customer(), customer()

	f.confirmedBooking(t, alice, bike.ID, 1)
	_, err := f.users.GetProfile(ctx, bob)
	require.NoError(t, err)

	users, pagination, err := f.users.ListUsers(ctx, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, int64(2), pagination.Total)

	profile, err := f.users.GetUser(ctx, alice.UserID.String())
	require.NoError(t, err)
	require.Len(t, profile.Bookings, 1)
	assert.Equal(t, domain.BookingConfirmed, profile.Bookings[0].Status)

	bookings, _, err := f.users.GetUserBookings(ctx, alice, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	require.NoError(t, f.users.DeleteUser(ctx, bob.UserID.String()))
	_, err = f.users.GetUser(ctx, bob.UserID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.users.DeleteUser(ctx, "bad"), domain.ErrValidation)
}
