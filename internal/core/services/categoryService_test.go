package services

import (
	"context"
	"testing"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.category(t, "Mountain")
	assert.Zero(t, created.BikeCount)

	_, err := f.categories.CreateCategory(ctx, &domain.Category{Name: "mountain"})
	assert.ErrorIs(t, err, domain.ErrConflict, "names are unique regardless of case")

	_, err = f.categories.CreateCategory(ctx, &domain.Category{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	description := "Off-road"
	updated, err := f.categories.UpdateCategory(ctx, created.ID.String(), domain.CategoryUpdate{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "Off-road", updated.Description)
	assert.Equal(t, "Mountain", updated.Name)

	f.category(t, "Road")
	list, err := f.categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.categories.DeleteCategory(ctx, created.ID.String()))
	_, err = f.categories.GetCategory(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryService_DeleteCategory_WithBikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	category := f.category(t, "BMX")
	bike := f.bike(t, category.ID, 10)

	err := f.categories.DeleteCategory(ctx, category.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, f.bikes.DeleteBike(ctx, bike.ID.String()))
	assert.NoError(t, f.categories.DeleteCategory(ctx, category.ID.String()))
}
