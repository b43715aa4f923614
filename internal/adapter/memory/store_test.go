package memory

import (
	"context"
	"testing"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBike(t *testing.T, s *Store, name string, typ domain.BikeType, price int64, city string) *domain.Bike {
	t.Helper()
	bike, err := s.CreateBike(context.Background(), &domain.Bike{
		Name:         name,
		Description:  name + " for rent",
		Type:         typ,
		PricePerDay:  decimal.NewFromInt(price),
		Availability: true,
		Location:     domain.Location{City: city},
		CategoryID:   uuid.New(),
	})
	require.NoError(t, err)
	return bike
}

func TestStore_ListBikesFiltersAndSorts(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedBike(t, s, "Trail King", domain.Mountain, 30, "Denver")
	cheap := seedBike(t, s, "City Glide", domain.Hybrid, 12, "Boston")
	seedBike(t, s, "Volt", domain.Electric, 55, "denver")

	minPrice := decimal.NewFromInt(20)
	bikes, total, err := s.ListBikes(ctx, domain.BikeFilter{
		City:     "DENVER",
		MinPrice: &minPrice,
		Sort:     domain.ParseBikeSort("-pricePerDay"),
	}, domain.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, bikes, 2)
	assert.Equal(t, "Volt", bikes[0].Name)
	assert.Equal(t, "Trail King", bikes[1].Name)

	bikes, _, err = s.ListBikes(ctx, domain.BikeFilter{Search: "glide"}, domain.NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, bikes, 1)
	assert.Equal(t, cheap.ID, bikes[0].ID)

	bikes, total, err = s.ListBikes(ctx, domain.BikeFilter{}, domain.NewPage(2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, bikes, 1)
}

func TestStore_ListBikesPastTheEnd(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedBike(t, s, "Trail King", domain.Mountain, 30, "Denver")

	bikes, total, err := s.ListBikes(ctx, domain.BikeFilter{}, domain.NewPage(400000000000000001, 25))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, bikes)

	assert.Empty(t, page([]int{1, 2, 3}, domain.Page{Page: -4, Limit: 10}))
	assert.Equal(t, []int{3}, page([]int{1, 2, 3}, domain.Page{Page: 2, Limit: 2}))
}

func TestStore_UpdateBikeKeepsRating(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	bike := seedBike(t, s, "Roadster", domain.Road, 20, "Austin")
	require.NoError(t, s.SetRatingStats(ctx, bike.ID, 4.5, 2))

	bike.Name = "Roadster Pro"
	bike.Rating = 0
	updated, err := s.UpdateBike(ctx, bike)
	require.NoError(t, err)
	assert.Equal(t, "Roadster Pro", updated.Name)
	assert.Equal(t, 4.5, updated.Rating)
	assert.Equal(t, 2, updated.ReviewCount)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	bike := seedBike(t, s, "Roadster", domain.Road, 20, "Austin")

	got, err := s.GetBikeByID(ctx, bike.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetBikeByID(ctx, bike.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadster", again.Name)
}

func TestStore_NotFound(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.GetBikeByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetBookingByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReview(ctx, uuid.New()), domain.ErrNotFound)
	assert.ErrorIs(t, s.SetBikeCount(ctx, uuid.New(), 1), domain.ErrNotFound)
	_, err = s.AddFavorite(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_BookingsByBikeAndStats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	bikeID := uuid.New()

	for _, st := range []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed, domain.BookingConfirmed, domain.BookingCancelled} {
		_, err := s.CreateBooking(ctx, &domain.Booking{
			UserID:     uuid.New(),
			BikeID:     bikeID,
			Status:     st,
			TotalPrice: decimal.NewFromInt(50),
		})
		require.NoError(t, err)
	}

	blocking, err := s.GetBookingsByBike(ctx, bikeID, domain.BlockingStatuses)
	require.NoError(t, err)
	assert.Len(t, blocking, 2)

	all, err := s.GetBookingsByBike(ctx, bikeID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	stats, err := s.GetBookingStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, domain.BookingCancelled, stats[0].Status)
	assert.Equal(t, domain.BookingConfirmed, stats[1].Status)
	assert.Equal(t, int64(2), stats[1].Count)
	assert.True(t, decimal.NewFromInt(100).Equal(stats[1].TotalRevenue))

	n, err := s.DeleteBookingsByBike(ctx, bikeID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestStore_ReviewPerBookingAndHelpful(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	bookingID := uuid.New()

	review, err := s.CreateReview(ctx, &domain.Review{BookingID: bookingID, BikeID: uuid.New(), Rating: 4})
	require.NoError(t, err)

	_, err = s.CreateReview(ctx, &domain.Review{BookingID: bookingID, Rating: 5})
	assert.ErrorIs(t, err, domain.ErrDuplicateReview)

	voter := uuid.New()
	added, err := s.AddHelpful(ctx, review.ID, voter)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddHelpful(ctx, review.ID, voter)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := s.GetReviewByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{voter}, got.Helpful)
}

func TestStore_CategoryNamesAreUnique(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, &domain.Category{Name: "Mountain"})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, &domain.Category{Name: "mountain"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	other, err := s.CreateCategory(ctx, &domain.Category{Name: "Road"})
	require.NoError(t, err)
	other.Name = "MOUNTAIN"
	_, err = s.UpdateCategory(ctx, other)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStore_UserReferences(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	userID, bikeID, bookingID := uuid.New(), uuid.New(), uuid.New()

	user, err := s.GetOrCreateUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, user.Favorites)

	added, err := s.AddFavorite(ctx, userID, bikeID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.AddFavorite(ctx, userID, bikeID)
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, s.AddBooking(ctx, userID, bookingID))
	require.NoError(t, s.RemoveBikeReferences(ctx, bikeID, []uuid.UUID{bookingID}))

	user, err = s.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, user.Favorites)
	assert.Empty(t, user.Bookings)
}

func TestStore_StampsTimestamps(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	bike := seedBike(t, s, "Roadster", domain.Road, 20, "Austin")
	assert.Equal(t, fixed, bike.CreatedAt)
	assert.Equal(t, fixed, bike.UpdatedAt)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("bike:1", []byte("v"), time.Minute))
	got, err := c.Get("bike:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(2 * time.Minute)
	_, err = c.Get("bike:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLocker(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "booking-lock:bike:1", time.Minute)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "booking-lock:bike:1", time.Minute)
	assert.Error(t, err)

	release()
	release2, err := l.Acquire(ctx, "booking-lock:bike:1", time.Minute)
	require.NoError(t, err)
	release2()
}
