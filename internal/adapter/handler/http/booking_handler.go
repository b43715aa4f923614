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

type BookingHandler struct {
	bookingService *services.BookingService
	logger         ports.LoggerPort
	metrics        ports.MetricsPort
}

type BookingRequest struct {
	Bike            string `json:"bike" binding:"required" example:"3fa85f64-5717-4562-b3fc-2c963f66afa6"`
	StartDate       string `json:"startDate" binding:"required" example:"2026-06-01"`
	EndDate         string `json:"endDate" binding:"required" example:"2026-06-04"`
	SpecialRequests string `json:"specialRequests,omitempty" example:"Child seat please"`
}

type UpdateBookingRequest struct {
	SpecialRequests string `json:"specialRequests" example:"Pick up after 10am"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty" example:"Plans changed"`
}

type AdvanceBookingRequest struct {
	Status string `json:"status" binding:"required,oneof=active completed" example:"active"`
}

type BookingResponse struct {
	ID                 uuid.UUID       `json:"id"`
	User               uuid.UUID       `json:"user"`
	Bike               uuid.UUID       `json:"bike"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            time.Time       `json:"endDate"`
	TotalDays          int             `json:"totalDays"`
	TotalPrice         float64         `json:"totalPrice"`
	Status             string          `json:"status"`
	PaymentStatus      string          `json:"paymentStatus"`
	PaymentIntentID    string          `json:"paymentIntentId,omitempty"`
	PickupLocation     domain.Location `json:"pickupLocation"`
	SpecialRequests    string          `json:"specialRequests,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type PaymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status" example:"requires_payment_method"`
}

type BookingStatsResponse struct {
	Status       string  `json:"status" example:"confirmed"`
	Count        int64   `json:"count" example:"12"`
	TotalRevenue float64 `json:"totalRevenue" example:"1450.5"`
}

func NewBookingHandler(
	bookingService *services.BookingService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
		metrics:        metrics,
	}
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	total, _ := b.TotalPrice.Float64()
	return BookingResponse{
		ID:                 b.ID,
		User:               b.UserID,
		Bike:               b.BikeID,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		TotalDays:          b.TotalDays,
		TotalPrice:         total,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		PaymentIntentID:    b.PaymentIntentID,
		PickupLocation:     b.PickupLocation,
		SpecialRequests:    b.SpecialRequests,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CompletedAt:        b.CompletedAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	out := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		out[i] = toBookingResponse(b)
	}
	return out
}

// authorized pulls the caller or answers 401.
func (h *BookingHandler) authorized(c *gin.Context, action string) (*domain.TokenPayload, bool) {
	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to "+action, map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
	}
	return payload, exists
}

// @Summary Список бронирований
// @Description Админ видит все бронирования, пользователь только свои
// @Tags bookings
// @Security BearerAuth
// @Produce json
// @Param status query string false "Статус" Enums(pending, confirmed, active, completed, cancelled)
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(25)
// @Success 200 {object} successResponse{data=[]BookingResponse} "Бронирования"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "ListBookings")
	if !ok {
		return
	}

	bookings, pagination, err := h.bookingService.ListBookings(c.Request.Context(), payload,
		domain.BookingStatus(c.Query("status")), pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err, "Failed to get bookings")
		return
	}

	newListResponse(c, len(bookings), &pagination, toBookingResponses(bookings))
}

// @Summary Создать бронирование
// @Description Бронирование байка на диапазон дат; статус pending до оплаты
// @Tags bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body BookingRequest true "Данные бронирования"
// @Success 201 {object} successResponse{data=BookingResponse} "Бронирование создано"
// @Failure 400 {object} errorResponse "Неверный запрос"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Failure 409 {object} errorResponse "Байк недоступен на эти даты"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "CreateBooking")
	if !ok {
		return
	}

	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create booking", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	bikeID, err := uuid.Parse(req.Bike)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid bike ID")
		return
	}
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), payload, domain.BookingRequest{
		BikeID:          bikeID,
		StartDate:       startDate,
		EndDate:         endDate,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to create booking")
		return
	}

	h.metrics.RecordBookingEvent("created")
	newSuccessResponse(c, http.StatusCreated, "Booking created successfully", toBookingResponse(booking))
}

// @Summary Получить бронирование
// @Tags bookings
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID бронирования"
// @Success 200 {object} successResponse{data=BookingResponse} "Бронирование"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Бронирование не найдено"
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "GetBooking")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), payload, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get booking")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", toBookingResponse(booking))
}

// @Summary Обновить бронирование
// @Description Меняет только пожелания клиента у незавершенного бронирования
// @Tags bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID бронирования"
// @Param request body UpdateBookingRequest true "Данные для обновления"
// @Success 200 {object} successResponse{data=BookingResponse} "Бронирование обновлено"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Бронирование уже завершено"
// @Router /bookings/{id} [put]
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "UpdateBooking")
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), payload, c.Param("id"), req.SpecialRequests)
	if err != nil {
		handleServiceError(c, err, "Update failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Booking updated successfully", toBookingResponse(booking))
}

// @Summary Отменить бронирование
// @Description Оплаченное бронирование сначала возвращает деньги
// @Tags bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID бронирования"
// @Param request body CancelBookingRequest false "Причина отмены"
// @Success 200 {object} successResponse{data=BookingResponse} "Бронирование отменено"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Бронирование не найдено"
// @Failure 409 {object} errorResponse "Недопустимый переход статуса"
// @Router /bookings/{id} [delete]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "CancelBooking")
	if !ok {
		return
	}

	var req CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
			return
		}
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), payload, c.Param("id"), req.Reason)
	if err != nil {
		handleServiceError(c, err, "Cancel failed")
		return
	}

	h.metrics.RecordBookingEvent("cancelled")
	newSuccessResponse(c, http.StatusOK, "Booking cancelled successfully", toBookingResponse(booking))
}

// @Summary Создать платеж
// @Description Создает платежное намерение на сумму бронирования
// @Tags bookings
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID бронирования"
// @Success 200 {object} successResponse{data=PaymentIntentResponse} "Платеж создан"
// @Failure 402 {object} errorResponse "Ошибка платежа"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Бронирование не ожидает оплаты"
// @Router /bookings/{id}/payment [post]
func (h *BookingHandler) CreatePayment(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "CreatePayment")
	if !ok {
		return
	}

	intent, err := h.bookingService.CreatePayment(c.Request.Context(), payload, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Payment processing failed")
		return
	}

	h.metrics.RecordBookingEvent("payment_created")
	newSuccessResponse(c, http.StatusOK, "", PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Status:          string(intent.Status),
	})
}

// @Summary Подтвердить оплату
// @Description Проверяет платеж у провайдера и подтверждает бронирование
// @Tags bookings
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID бронирования"
// @Success 200 {object} successResponse{data=BookingResponse} "Бронирование подтверждено"
// @Failure 402 {object} errorResponse "Платеж не прошел"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Байк больше недоступен"
// @Router /bookings/{id}/confirm-payment [post]
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "ConfirmPayment")
	if !ok {
		return
	}

	booking, err := h.bookingService.ConfirmPayment(c.Request.Context(), payload, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Payment confirmation failed")
		return
	}

	h.metrics.RecordBookingEvent("confirmed")
	newSuccessResponse(c, http.StatusOK, "Payment confirmed successfully", toBookingResponse(booking))
}

// @Summary Продвинуть бронирование
// @Description Операционный переход confirmed -> active -> completed (только админ)
// @Tags bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID бронирования"
// @Param request body AdvanceBookingRequest true "Новый статус"
// @Success 200 {object} successResponse{data=BookingResponse} "Статус обновлен"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 409 {object} errorResponse "Недопустимый переход статуса"
// @Router /bookings/{id}/advance [post]
func (h *BookingHandler) AdvanceBooking(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, ok := h.authorized(c, "AdvanceBooking")
	if !ok {
		return
	}

	var req AdvanceBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Status must be active or completed")
		return
	}

	booking, err := h.bookingService.AdvanceBooking(c.Request.Context(), payload, c.Param("id"), domain.BookingStatus(req.Status))
	if err != nil {
		handleServiceError(c, err, "Advance failed")
		return
	}

	h.metrics.RecordBookingEvent(string(booking.Status))
	newSuccessResponse(c, http.StatusOK, "Booking status updated", toBookingResponse(booking))
}

// @Summary Статистика бронирований
// @Description Количество и выручка по статусам (только админ)
// @Tags bookings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=[]BookingStatsResponse} "Статистика"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /bookings/stats/overview [get]
func (h *BookingHandler) GetBookingStats(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	stats, err := h.bookingService.GetBookingStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, "Failed to get booking stats")
		return
	}

	response := make([]BookingStatsResponse, len(stats))
	for i, st := range stats {
		revenue, _ := st.TotalRevenue.Float64()
		response[i] = BookingStatsResponse{
			Status:       string(st.Status),
			Count:        st.Count,
			TotalRevenue: revenue,
		}
	}

	newSuccessResponse(c, http.StatusOK, "", response)
}
