package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BikeHandler struct {
	bikeService    *services.BikeService
	bookingService *services.BookingService
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type BikeRequest struct {
	Name           string                `json:"name" binding:"required" example:"Trek Marlin 7"`
	Description    string                `json:"description" binding:"required" example:"Hardtail trail bike"`
	Type           string                `json:"type" binding:"required" example:"Mountain"`
	Brand          string                `json:"brand" binding:"required" example:"Trek"`
	PricePerDay    float64               `json:"pricePerDay" binding:"required" example:"35.5"`
	Images         []string              `json:"images"`
	Specifications domain.Specifications `json:"specifications"`
	Location       domain.Location       `json:"location"`
	Availability   *bool                 `json:"availability,omitempty" example:"true"`
	Condition      string                `json:"condition,omitempty" example:"Good"`
	Category       string                `json:"category" binding:"required" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
}

type UpdateBikeRequest struct {
	Name           *string                `json:"name,omitempty" example:"Trek Marlin 8"`
	Description    *string                `json:"description,omitempty"`
	Type           *string                `json:"type,omitempty" example:"Mountain"`
	Brand          *string                `json:"brand,omitempty" example:"Trek"`
	PricePerDay    *float64               `json:"pricePerDay,omitempty" example:"40"`
	Images         []string               `json:"images,omitempty"`
	Specifications *domain.Specifications `json:"specifications,omitempty"`
	Location       *domain.Location       `json:"location,omitempty"`
	Availability   *bool                  `json:"availability,omitempty" example:"false"`
	Condition      *string                `json:"condition,omitempty" example:"Fair"`
	Category       *string                `json:"category,omitempty"`
}

type BikeResponse struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Type           string                `json:"type"`
	Brand          string                `json:"brand"`
	PricePerDay    float64               `json:"pricePerDay"`
	Images         []string              `json:"images"`
	Specifications domain.Specifications `json:"specifications"`
	Location       domain.Location       `json:"location"`
	Availability   bool                  `json:"availability"`
	Condition      string                `json:"condition"`
	Rating         float64               `json:"rating"`
	ReviewCount    int                   `json:"reviewCount"`
	Category       uuid.UUID             `json:"category"`
	CreatedBy      uuid.UUID             `json:"createdBy"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

type QuoteResponse struct {
	Available  bool    `json:"available" example:"true"`
	TotalDays  int     `json:"totalDays" example:"3"`
	TotalPrice float64 `json:"totalPrice" example:"106.5"`
}

func NewBikeHandler(
	bikeService *services.BikeService,
	bookingService *services.BookingService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *BikeHandler {
	return &BikeHandler{
		bikeService:    bikeService,
		bookingService: bookingService,
		logger:         logger,
		metrics:        metrics,
	}
}

func toBikeResponse(b *domain.Bike) BikeResponse {
	price, _ := b.PricePerDay.Float64()
	images := b.Images
	if images == nil {
		images = []string{}
	}
	return BikeResponse{
		ID:             b.ID,
		Name:           b.Name,
		Description:    b.Description,
		Type:           string(b.Type),
		Brand:          b.Brand,
		PricePerDay:    price,
		Images:         images,
		Specifications: b.Specifications,
		Location:       b.Location,
		Availability:   b.Availability,
		Condition:      string(b.Condition),
		Rating:         b.Rating,
		ReviewCount:    b.ReviewCount,
		Category:       b.CategoryID,
		CreatedBy:      b.CreatedBy,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func toBikeResponses(bikes []*domain.Bike) []BikeResponse {
	out := make([]BikeResponse, len(bikes))
	for i, b := range bikes {
		out[i] = toBikeResponse(b)
	}
	return out
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// bikeFilterFromQuery reads the catalog filters. Malformed numbers and ids are ignored.
func bikeFilterFromQuery(c *gin.Context) domain.BikeFilter {
	filter := domain.BikeFilter{
		Type:   domain.BikeType(c.Query("type")),
		City:   c.Query("city"),
		Search: c.Query("search"),
		Sort:   domain.ParseBikeSort(c.Query("sort")),
	}
	if id, err := uuid.Parse(c.Query("category")); err == nil {
		filter.CategoryID = &id
	}
	if v, err := strconv.ParseFloat(c.Query("minPrice"), 64); err == nil {
		p := money(v)
		filter.MinPrice = &p
	}
	if v, err := strconv.ParseFloat(c.Query("maxPrice"), 64); err == nil {
		p := money(v)
		filter.MaxPrice = &p
	}
	if v, err := strconv.ParseBool(c.Query("available")); err == nil {
		filter.Available = &v
	}
	return filter
}

// @Summary Список байков
// @Description Каталог байков с фильтрами, сортировкой и пагинацией
// @Tags bikes
// @Produce json
// @Param type query string false "Тип байка" Enums(Mountain, Road, Electric, Hybrid, BMX, Cruiser)
// @Param category query string false "ID категории"
// @Param city query string false "Город"
// @Param minPrice query number false "Минимальная цена за день"
// @Param maxPrice query number false "Максимальная цена за день"
// @Param available query bool false "Только доступные"
// @Param sort query string false "Сортировка, например -pricePerDay,rating"
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(25)
// @Success 200 {object} successResponse{data=[]BikeResponse} "Список байков"
// @Failure 500 {object} errorResponse "Внутренняя ошибка сервера"
// @Router /bikes [get]
func (h *BikeHandler) ListBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikes, pagination, err := h.bikeService.ListBikes(c.Request.Context(), bikeFilterFromQuery(c), pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err, "Failed to get bikes")
		return
	}

	newListResponse(c, len(bikes), &pagination, toBikeResponses(bikes))
}

// @Summary Поиск байков
// @Description Полнотекстовый поиск по названию и описанию среди доступных байков
// @Tags bikes
// @Produce json
// @Param query path string true "Поисковый запрос" example:"trail"
// @Success 200 {object} successResponse{data=[]BikeResponse} "Найденные байки"
// @Failure 500 {object} errorResponse "Внутренняя ошибка сервера"
// @Router /bikes/search/{query} [get]
func (h *BikeHandler) SearchBikes(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikes, err := h.bikeService.SearchBikes(c.Request.Context(), c.Param("query"))
	if err != nil {
		handleServiceError(c, err, "Search failed")
		return
	}

	newListResponse(c, len(bikes), nil, toBikeResponses(bikes))
}

// @Summary Получить байк
// @Description Получение информации о байке по ID
// @Tags bikes
// @Produce json
// @Param id path string true "ID байка" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"
// @Success 200 {object} successResponse{data=BikeResponse} "Байк найден"
// @Failure 400 {object} errorResponse "Неверный ID"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id} [get]
func (h *BikeHandler) GetBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bike, err := h.bikeService.GetBikeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get bike")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", toBikeResponse(bike))
}

// @Summary Проверить доступность байка
// @Description Расчет стоимости и проверка свободных дат без создания бронирования
// @Tags bikes
// @Produce json
// @Param id path string true "ID байка"
// @Param startDate query string true "Дата начала (ISO-8601)" example:"2026-06-01"
// @Param endDate query string true "Дата окончания (ISO-8601)" example:"2026-06-04"
// @Success 200 {object} successResponse{data=QuoteResponse} "Расчет"
// @Failure 400 {object} errorResponse "Неверные даты"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id}/availability [get]
func (h *BikeHandler) CheckAvailability(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	startDate, endDate, err := parseDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.bookingService.QuoteBooking(c.Request.Context(), c.Param("id"), startDate, endDate)
	if err != nil {
		handleServiceError(c, err, "Failed to check availability")
		return
	}

	total, _ := quote.TotalPrice.Float64()
	newSuccessResponse(c, http.StatusOK, "", QuoteResponse{
		Available:  quote.Available,
		TotalDays:  quote.TotalDays,
		TotalPrice: total,
	})
}

// @Summary Создать байк
// @Description Добавление байка в каталог (только админ)
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BikeRequest true "Данные байка"
// @Success 201 {object} successResponse{data=BikeResponse} "Байк создан"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Категория не найдена"
// @Router /bikes [post]
func (h *BikeHandler) CreateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to CreateBike", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	categoryID, err := uuid.Parse(req.Category)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	availability := true
	if req.Availability != nil {
		availability = *req.Availability
	}

	bike := &domain.Bike{
		Name:           req.Name,
		Description:    req.Description,
		Type:           domain.BikeType(req.Type),
		Brand:          req.Brand,
		PricePerDay:    money(req.PricePerDay),
		Images:         req.Images,
		Specifications: req.Specifications,
		Location:       req.Location,
		Availability:   availability,
		Condition:      domain.BikeCondition(req.Condition),
		CategoryID:     categoryID,
		CreatedBy:      payload.UserID,
	}

	createdBike, err := h.bikeService.CreateBike(c.Request.Context(), bike)
	if err != nil {
		h.logger.Error("Failed to create bike", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserID,
		})
		handleServiceError(c, err, "Failed to create bike")
		return
	}

	newSuccessResponse(c, http.StatusCreated, "Bike created successfully", toBikeResponse(createdBike))
}

// @Summary Обновить байк
// @Description Частичное обновление байка (только админ)
// @Tags bikes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID байка"
// @Param request body UpdateBikeRequest true "Данные для обновления"
// @Success 200 {object} successResponse{data=BikeResponse} "Байк обновлен"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id} [put]
func (h *BikeHandler) UpdateBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("id")

	var req UpdateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in update bike", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	update := domain.BikeUpdate{
		Name:           req.Name,
		Description:    req.Description,
		Brand:          req.Brand,
		Images:         req.Images,
		Specifications: req.Specifications,
		Location:       req.Location,
		Availability:   req.Availability,
	}
	if req.Type != nil {
		bikeType := domain.BikeType(*req.Type)
		update.Type = &bikeType
	}
	if req.Condition != nil {
		condition := domain.BikeCondition(*req.Condition)
		update.Condition = &condition
	}
	if req.PricePerDay != nil {
		price := money(*req.PricePerDay)
		update.PricePerDay = &price
	}
	if req.Category != nil {
		categoryID, err := uuid.Parse(*req.Category)
		if err != nil {
			newErrorResponse(c, http.StatusBadRequest, "Invalid category ID")
			return
		}
		update.CategoryID = &categoryID
	}

	updatedBike, err := h.bikeService.UpdateBike(c.Request.Context(), bikeID, update)
	if err != nil {
		h.logger.Error("Failed to update bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		handleServiceError(c, err, "Update failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Bike updated successfully", toBikeResponse(updatedBike))
}

// @Summary Удалить байк
// @Description Удаление байка вместе с его бронированиями и отзывами (только админ)
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID байка"
// @Success 200 {object} successResponse "Байк удален"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Router /bikes/{id} [delete]
func (h *BikeHandler) DeleteBike(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	bikeID := c.Param("id")

	if err := h.bikeService.DeleteBike(c.Request.Context(), bikeID); err != nil {
		h.logger.Error("Failed to delete bike", map[string]interface{}{
			"error":   err.Error(),
			"bike_id": bikeID,
		})
		handleServiceError(c, err, "Delete failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Bike deleted successfully", nil)
}

// @Summary Статистика по байкам
// @Description Количество, средняя цена и рейтинг по типам байков (только админ)
// @Tags bikes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=[]domain.BikeTypeStats} "Статистика"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /bikes/stats/overview [get]
func (h *BikeHandler) GetBikeStats(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	stats, err := h.bikeService.GetBikeStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to get bike stats")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", stats)
}
