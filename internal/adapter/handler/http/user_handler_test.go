package http

import (
	"net/http"
	"testing"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := newCaller(t, domain.Admin)
	user := newCaller(t, domain.AppUser)

	category := s.createCategory(t, admin, "Kids")
	bike := s.createBike(t, admin, category.ID, 10)
	s.createBooking(t, user, bike.ID, "2027-05-01", "2027-05-02")

	favoritePath := "/users/favorites/" + bike.ID.String()

	t.Run("favorites", func(t *testing.T) {
		u, _ := decode[domain.User](t, s.do(t, http.MethodPost, favoritePath, user.token, nil), http.StatusOK)
		assert.Equal(t, []uuid.UUID{bike.ID}, u.Favorites)

		rec := s.do(t, http.MethodPost, favoritePath, user.token, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = s.do(t, http.MethodPost, "/users/favorites/"+uuid.NewString(), user.token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("profile", func(t *testing.T) {
		profile, _ := decode[ProfileResponse](t, s.do(t, http.MethodGet, "/users/profile", user.token, nil), http.StatusOK)
		assert.Equal(t, user.userID, profile.ID)
		assert.Nil(t, profile.Identity)
		require.Len(t, profile.Favorites, 1)
		assert.Equal(t, bike.ID, profile.Favorites[0].ID)
		assert.Len(t, profile.Bookings, 1)
	})

	t.Run("my bookings", func(t *testing.T) {
		bookings, env := decode[[]BookingResponse](t, s.do(t, http.MethodGet, "/users/bookings", user.token, nil), http.StatusOK)
		assert.Len(t, bookings, 1)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, int64(1), env.Pagination.Total)
	})

	t.Run("remove favorite", func(t *testing.T) {
		u, _ := decode[domain.User](t, s.do(t, http.MethodDelete, favoritePath, user.token, nil), http.StatusOK)
		assert.Empty(t, u.Favorites)
	})

	t.Run("admin views", func(t *testing.T) {
		users, _ := decode[[]UserSummaryResponse](t, s.do(t, http.MethodGet, "/users", admin.token, nil), http.StatusOK)
		require.Len(t, users, 1)
		assert.Equal(t, user.userID, users[0].ID)
		assert.Equal(t, 1, users[0].BookingCount)

		profile, _ := decode[ProfileResponse](t, s.do(t, http.MethodGet, "/users/"+user.userID.String(), admin.token, nil), http.StatusOK)
		assert.Equal(t, user.userID, profile.ID)

		rec := s.do(t, http.MethodDelete, "/users/"+user.userID.String(), admin.token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/users/"+user.userID.String(), admin.token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
