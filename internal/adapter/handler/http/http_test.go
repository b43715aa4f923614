package http

import (
	"net/http"
	"testing"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBikeRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := newCaller(t, domain.Admin)

	category := s.createCategory(t, admin, "Mountain")
	first := s.createBike(t, admin, category.ID, 25)
	s.createBike(t, admin, category.ID, 40)

	assert.Equal(t, 25.0, first.PricePerDay)
	assert.True(t, first.Availability)
	assert.Equal(t, admin.userID, first.CreatedBy)

	t.Run("list is public and paginated", func(t *testing.T) {
		bikes, env := decode[[]BikeResponse](t, s.do(t, http.MethodGet, "/bikes?limit=1&sort=pricePerDay", "", nil), http.StatusOK)
		require.Len(t, bikes, 1)
		assert.Equal(t, 25.0, bikes[0].PricePerDay)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, int64(2), env.Pagination.Total)
		require.NotNil(t, env.Count)
		assert.Equal(t, 1, *env.Count)
	})

	t.Run("page far past the end", func(t *testing.T) {
		bikes, env := decode[[]BikeResponse](t, s.do(t, http.MethodGet, "/bikes?page=400000000000000001", "", nil), http.StatusOK)
		assert.Empty(t, bikes)
		require.NotNil(t, env.Pagination)
		assert.False(t, env.Pagination.HasNext)
		assert.Equal(t, domain.MaxPage, env.Pagination.CurrentPage)
	})

	t.Run("get", func(t *testing.T) {
		bike, _ := decode[BikeResponse](t, s.do(t, http.MethodGet, "/bikes/"+first.ID.String(), "", nil), http.StatusOK)
		assert.Equal(t, first.ID, bike.ID)

		rec := s.do(t, http.MethodGet, "/bikes/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("search", func(t *testing.T) {
		bikes, _ := decode[[]BikeResponse](t, s.do(t, http.MethodGet, "/bikes/search/trail", "", nil), http.StatusOK)
		assert.Len(t, bikes, 2)
	})

	t.Run("availability quote", func(t *testing.T) {
		path := "/bikes/" + first.ID.String() + "/availability?startDate=2027-03-01&endDate=2027-03-04"
		quote, _ := decode[QuoteResponse](t, s.do(t, http.MethodGet, path, "", nil), http.StatusOK)
		assert.True(t, quote.Available)
		assert.Equal(t, 3, quote.TotalDays)
		assert.Equal(t, 75.0, quote.TotalPrice)

		rec := s.do(t, http.MethodGet, "/bikes/"+first.ID.String()+"/availability?startDate=2027-03-04&endDate=2027-03-01", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update and delete", func(t *testing.T) {
		price := 30.0
		bike, _ := decode[BikeResponse](t, s.do(t, http.MethodPut, "/bikes/"+first.ID.String(), admin.token,
			UpdateBikeRequest{PricePerDay: &price}), http.StatusOK)
		assert.Equal(t, 30.0, bike.PricePerDay)

		rec := s.do(t, http.MethodDelete, "/bikes/"+first.ID.String(), admin.token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/bikes/"+first.ID.String(), "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/bikes/stats/overview", admin.token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCategoryRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := newCaller(t, domain.Admin)

	category := s.createCategory(t, admin, "Road")

	rec := s.do(t, http.MethodPost, "/categories", admin.token, CategoryRequest{Name: "road"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	categories, _ := decode[[]domain.Category](t, s.do(t, http.MethodGet, "/categories", "", nil), http.StatusOK)
	require.Len(t, categories, 1)

	s.createBike(t, admin, category.ID, 20)
	got, _ := decode[domain.Category](t, s.do(t, http.MethodGet, "/categories/"+category.ID.String(), "", nil), http.StatusOK)
	assert.Equal(t, int64(1), got.BikeCount)

	rec = s.do(t, http.MethodDelete, "/categories/"+category.ID.String(), admin.token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
