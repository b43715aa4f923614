package http

import (
	"net/http"
	"testing"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) completeBooking(t *testing.T, admin, user caller, bikeID uuid.UUID, start, end string) BookingResponse {
	t.Helper()
	booking := s.createBooking(t, user, bikeID, start, end)
	s.payAndConfirm(t, user, booking.ID)

	path := "/bookings/" + booking.ID.String() + "/advance"
	decode[BookingResponse](t, s.do(t, http.MethodPost, path, admin.token, AdvanceBookingRequest{Status: "active"}), http.StatusOK)
	completed, _ := decode[BookingResponse](t, s.do(t, http.MethodPost, path, admin.token, AdvanceBookingRequest{Status: "completed"}), http.StatusOK)
	return completed
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t)
	admin := newCaller(t, domain.Admin)
	user := newCaller(t, domain.AppUser)
	other := newCaller(t, domain.AppUser)

	category := s.createCategory(t, admin, "Gravel")
	bike := s.createBike(t, admin, category.ID, 30)

	pending := s.createBooking(t, user, bike.ID, "2027-04-10", "2027-04-11")
	rec := s.do(t, http.MethodPost, "/reviews", user.token, ReviewRequest{
		Booking: pending.ID.String(), Rating: 5, Title: "Too early", Comment: "Not ridden yet",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "only completed bookings can be reviewed")

	booking := s.completeBooking(t, admin, user, bike.ID, "2027-04-01", "2027-04-03")

	rec = s.do(t, http.MethodPost, "/reviews", other.token, ReviewRequest{
		Booking: booking.ID.String(), Rating: 1, Title: "Not mine", Comment: "Someone else's ride",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	review, _ := decode[domain.Review](t, s.do(t, http.MethodPost, "/reviews", user.token, ReviewRequest{
		Booking: booking.ID.String(), Rating: 4, Title: "Great ride", Comment: "Smooth gears",
	}), http.StatusCreated)
	assert.Equal(t, bike.ID, review.BikeID)
	assert.True(t, review.Verified)

	rec = s.do(t, http.MethodPost, "/reviews", user.token, ReviewRequest{
		Booking: booking.ID.String(), Rating: 5, Title: "Again", Comment: "Second try",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	got, _ := decode[BikeResponse](t, s.do(t, http.MethodGet, "/bikes/"+bike.ID.String(), "", nil), http.StatusOK)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 1, got.ReviewCount)

	reviewPath := "/reviews/" + review.ID.String()

	t.Run("bike reviews are public", func(t *testing.T) {
		reviews, _ := decode[[]domain.Review](t, s.do(t, http.MethodGet, "/bikes/"+bike.ID.String()+"/reviews", "", nil), http.StatusOK)
		require.Len(t, reviews, 1)

		reviews, _ = decode[[]domain.Review](t, s.do(t, http.MethodGet, "/reviews/bike/"+bike.ID.String(), "", nil), http.StatusOK)
		require.Len(t, reviews, 1)
	})

	t.Run("helpful votes", func(t *testing.T) {
		voted, _ := decode[domain.Review](t, s.do(t, http.MethodPost, reviewPath+"/helpful", other.token, nil), http.StatusOK)
		assert.Equal(t, []uuid.UUID{other.userID}, voted.Helpful)

		rec := s.do(t, http.MethodPost, reviewPath+"/helpful", other.token, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("only the author edits", func(t *testing.T) {
		rating := 5
		rec := s.do(t, http.MethodPut, reviewPath, admin.token, UpdateReviewRequest{Rating: &rating})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		updated, _ := decode[domain.Review](t, s.do(t, http.MethodPut, reviewPath, user.token, UpdateReviewRequest{Rating: &rating}), http.StatusOK)
		assert.Equal(t, 5, updated.Rating)
	})

	t.Run("stats", func(t *testing.T) {
		stats, _ := decode[domain.ReviewStats](t, s.do(t, http.MethodGet, "/reviews/stats/overview", admin.token, nil), http.StatusOK)
		assert.Equal(t, int64(1), stats.TotalReviews)
		assert.Equal(t, 5.0, stats.AverageRating)
	})

	t.Run("admin deletes", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, reviewPath, other.token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodDelete, reviewPath, admin.token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, reviewPath, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		got, _ := decode[BikeResponse](t, s.do(t, http.MethodGet, "/bikes/"+bike.ID.String(), "", nil), http.StatusOK)
		assert.Equal(t, 0.0, got.Rating)
		assert.Equal(t, 0, got.ReviewCount)
	})
}
