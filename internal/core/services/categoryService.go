package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CategoryService struct {
	categoryRepo ports.CategoryRepository
	bikeRepo     ports.BikeRepository
	logger       ports.LoggerPort
	validate     *validator.Validate
}

func NewCategoryService(
	categoryRepo ports.CategoryRepository,
	bikeRepo ports.BikeRepository,
	logger ports.LoggerPort,
	validate *validator.Validate,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		bikeRepo:     bikeRepo,
		logger:       logger,
		validate:     validate,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if err := validateStruct(s.validate, s.logger, "Category", category); err != nil {
		return nil, err
	}

	now := time.Now()
	category.ID = uuid.New()
	category.BikeCount = 0
	category.CreatedAt = now
	category.UpdatedAt = now

	createdCategory, err := s.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		s.logger.Error("Failed to create category", map[string]interface{}{
			"error": err.Error(),
			"name":  category.Name,
		})
		return nil, err
	}

	s.logger.Info("Category created successfully", map[string]interface{}{
		"category_id": createdCategory.ID,
		"name":        createdCategory.Name,
	})
	return createdCategory, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	categoryUUID, err := parseID(s.logger, "category", categoryID)
	if err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetCategoryByID(ctx, categoryUUID)
	if err != nil {
		s.logger.Error("Failed to get category", map[string]interface{}{
			"error":       err.Error(),
			"category_id": categoryID,
		})
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return categories, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID string, update domain.CategoryUpdate) (*domain.Category, error) {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		category.Name = *update.Name
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	if update.Image != nil {
		category.Image = *update.Image
	}
	if err := validateStruct(s.validate, s.logger, "Category", category); err != nil {
		return nil, err
	}
	category.UpdatedAt = time.Now()

	updatedCategory, err := s.categoryRepo.UpdateCategory(ctx, category)
	if err != nil {
		s.logger.Error("Failed to update category", map[string]interface{}{
			"error":       err.Error(),
			"category_id": categoryID,
		})
		return nil, err
	}
	return updatedCategory, nil
}

// DeleteCategory refuses while any bike still points at the category.
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID string) error {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	count, err := s.bikeRepo.CountBikesByCategory(ctx, category.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Warn("Refusing to delete category with bikes", map[string]interface{}{
			"category_id": categoryID,
			"bike_count":  count,
		})
		return fmt.Errorf("category %s still has %d bikes: %w", categoryID, count, domain.ErrConflict)
	}

	if err := s.categoryRepo.DeleteCategory(ctx, category.ID); err != nil {
		s.logger.Error("Failed to delete category", map[string]interface{}{
			"error":       err.Error(),
			"category_id": categoryID,
		})
		return err
	}

	s.logger.Info("Category deleted successfully", map[string]interface{}{
		"category_id": categoryID,
	})
	return nil
}
