package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/services"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
	logger          ports.LoggerPort
	metrics         ports.MetricsPort
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required" example:"Mountain"`
	Description string `json:"description,omitempty" example:"Off-road bikes"`
	Image       string `json:"image,omitempty" example:"https://cdn.example.com/mtb.jpg"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" example:"Trail"`
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
}

func NewCategoryHandler(
	categoryService *services.CategoryService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
		metrics:         metrics,
	}
}

// @Summary Список категорий
// @Tags categories
// @Produce json
// @Success 200 {object} successResponse{data=[]domain.Category} "Категории"
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	categories, err := h.categoryService.ListCategories(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to get categories")
		return
	}

	newListResponse(c, len(categories), nil, categories)
}

// @Summary Получить категорию
// @Tags categories
// @Produce json
// @Param id path string true "ID категории"
// @Success 200 {object} successResponse{data=domain.Category} "Категория"
// @Failure 404 {object} errorResponse "Категория не найдена"
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	category, err := h.categoryService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get category")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", category)
}

// @Summary Создать категорию
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CategoryRequest true "Данные категории"
// @Success 201 {object} successResponse{data=domain.Category} "Категория создана"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Категория уже существует"
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create category", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &domain.Category{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to create category")
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Category created successfully", category)
}

// @Summary Обновить категорию
// @Tags categories
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID категории"
// @Param request body UpdateCategoryRequest true "Данные для обновления"
// @Success 200 {object} successResponse{data=domain.Category} "Категория обновлена"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 404 {object} errorResponse "Категория не найдена"
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), c.Param("id"), domain.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		handleServiceError(c, err, "Update failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Category updated successfully", category)
}

// @Summary Удалить категорию
// @Description Категорию с байками удалить нельзя
// @Tags categories
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID категории"
// @Success 200 {object} successResponse "Категория удалена"
// @Failure 404 {object} errorResponse "Категория не найдена"
// @Failure 409 {object} errorResponse "В категории есть байки"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	if err := h.categoryService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err, "Delete failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Category deleted successfully", nil)
}
