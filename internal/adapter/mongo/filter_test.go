package mongo

import (
	"testing"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBikeFilter(t *testing.T) {
	category := uuid.New()
	minPrice := decimal.NewFromInt(10)
	available := true

	filter := bikeFilter(domain.BikeFilter{
		Type:       domain.Road,
		CategoryID: &category,
		City:       "St. Louis",
		MinPrice:   &minPrice,
		Available:  &available,
		Search:     "carbon",
	})

	assert.Equal(t, "Road", filter["type"])
	assert.Equal(t, category.String(), filter["category"])
	assert.Equal(t, true, filter["availability"])
	assert.Equal(t, bson.M{"$search": "carbon"}, filter["$text"])

	city, ok := filter["location.city"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, `^St\. Louis$`, city.Pattern)
	assert.Equal(t, "i", city.Options)

	price, ok := filter["pricePerDay"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, price, "$gte")
	assert.NotContains(t, price, "$lte")
}

func TestBikeFilterEmpty(t *testing.T) {
	assert.Empty(t, bikeFilter(domain.BikeFilter{}))
}

func TestBikeSort(t *testing.T) {
	sort := bikeSort(domain.ParseBikeSort("-pricePerDay,rating"))

	assert.Equal(t, bson.D{
		{Key: "pricePerDay", Value: -1},
		{Key: "rating", Value: 1},
		{Key: "_id", Value: 1},
	}, sort)

	assert.Equal(t, bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: 1},
	}, bikeSort(nil))
}

func TestBookingFilter(t *testing.T) {
	user := uuid.New()
	filter := bookingFilter(domain.BookingFilter{UserID: &user, Status: domain.BookingConfirmed})

	assert.Equal(t, bson.M{"user": user.String(), "status": "confirmed"}, filter)
}

func TestDecimalRoundTrip(t *testing.T) {
	price := decimal.RequireFromString("37.05")
	assert.True(t, price.Equal(fromDecimal128(toDecimal128(price))))
}

func TestBikeDocumentRoundTrip(t *testing.T) {
	bike := &domain.Bike{
		ID:          uuid.New(),
		Name:        "Trail",
		Type:        domain.Mountain,
		PricePerDay: decimal.NewFromInt(45),
		CategoryID:  uuid.New(),
		Condition:   domain.Good,
	}

	got := newBikeDocument(bike).toDomain()

	assert.Equal(t, bike.ID, got.ID)
	assert.Equal(t, bike.CategoryID, got.CategoryID)
	assert.True(t, bike.PricePerDay.Equal(got.PricePerDay))
	assert.Equal(t, []string{}, got.Images)
}
