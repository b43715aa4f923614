package http

import (
	"net/http"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	logger        ports.LoggerPort
	metrics       ports.MetricsPort
}

type ReviewRequest struct {
	Booking string   `json:"booking" binding:"required" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
	Rating  int      `json:"rating" binding:"required,min=1,max=5" example:"5"`
	Title   string   `json:"title" binding:"required" example:"Great ride"`
	Comment string   `json:"comment" binding:"required" example:"Smooth gears, comfy saddle"`
	Images  []string `json:"images,omitempty"`
}

type UpdateReviewRequest struct {
	Rating  *int     `json:"rating,omitempty" example:"4"`
	Title   *string  `json:"title,omitempty"`
	Comment *string  `json:"comment,omitempty"`
	Images  []string `json:"images,omitempty"`
}

func NewReviewHandler(
	reviewService *services.ReviewService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
		metrics:       metrics,
	}
}

// @Summary Список отзывов
// @Tags reviews
// @Produce json
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(25)
// @Success 200 {object} successResponse{data=[]domain.Review} "Отзывы"
// @Router /reviews [get]
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	reviews, pagination, err := h.reviewService.ListReviews(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err, "Failed to get reviews")
		return
	}

	newListResponse(c, len(reviews), &pagination, reviews)
}

// @Summary Получить отзыв
// @Tags reviews
// @Produce json
// @Param id path string true "ID отзыва"
// @Success 200 {object} successResponse{data=domain.Review} "Отзыв"
// @Failure 404 {object} errorResponse "Отзыв не найден"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetReview(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	review, err := h.reviewService.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get review")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", review)
}

// @Summary Отзывы о байке
// @Tags reviews
// @Produce json
// @Param bikeId path string true "ID байка"
// @Success 200 {object} successResponse{data=[]domain.Review} "Отзывы"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /reviews/bike/{bikeId} [get]
func (h *ReviewHandler) GetBikeReviews(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("bikeId")
	if bikeID == "" {
		bikeID = c.Param("id")
	}

	reviews, err := h.reviewService.GetBikeReviews(c.Request.Context(), bikeID)
	if err != nil {
		handleServiceError(c, err, "Failed to get reviews")
		return
	}

	newListResponse(c, len(reviews), nil, reviews)
}

// @Summary Оставить отзыв
// @Description Отзыв можно оставить только на свое завершенное бронирование, один раз
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ReviewRequest true "Данные отзыва"
// @Success 201 {object} successResponse{data=domain.Review} "Отзыв создан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 403 {object} errorResponse "Чужое бронирование"
// @Failure 409 {object} errorResponse "Бронирование не завершено или уже есть отзыв"
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create review", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bookingID, err := uuid.Parse(req.Booking)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), payload, domain.ReviewRequest{
		BookingID: bookingID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Images:    req.Images,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to create review")
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Review created successfully", review)
}

// @Summary Обновить отзыв
// @Tags reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID отзыва"
// @Param request body UpdateReviewRequest true "Данные для обновления"
// @Success 200 {object} successResponse{data=domain.Review} "Отзыв обновлен"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Отзыв не найден"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), payload, c.Param("id"), domain.ReviewUpdate{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		handleServiceError(c, err, "Update failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Review updated successfully", review)
}

// @Summary Удалить отзыв
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID отзыва"
// @Success 200 {object} successResponse "Отзыв удален"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Отзыв не найден"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), payload, c.Param("id")); err != nil {
		handleServiceError(c, err, "Delete failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Review deleted successfully", nil)
}

// @Summary Отметить отзыв полезным
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID отзыва"
// @Success 200 {object} successResponse{data=domain.Review} "Отмечено"
// @Failure 404 {object} errorResponse "Отзыв не найден"
// @Failure 409 {object} errorResponse "Уже отмечено"
// @Router /reviews/{id}/helpful [post]
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	review, err := h.reviewService.MarkHelpful(c.Request.Context(), payload, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to mark review")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Review marked as helpful", review)
}

// @Summary Статистика отзывов
// @Tags reviews
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=domain.ReviewStats} "Статистика"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /reviews/stats/overview [get]
func (h *ReviewHandler) GetReviewStats(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	stats, err := h.reviewService.GetReviewStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to get review stats")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", stats)
}
