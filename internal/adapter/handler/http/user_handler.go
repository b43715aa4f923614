package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/runtime"
	httptransport "github.com/go-openapi/runtime/client"
	"github.com/google/uuid"
	user_client "github.com/sm8ta/webike_user_microservice_nikita/pkg/client"
	"github.com/sm8ta/webike_user_microservice_nikita/pkg/client/users"
)

type UserHandler struct {
	userService *services.UserService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
	userClient  *user_client.UserMicroservice
}

type UserResponseInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	DateOfBirth string    `json:"date_of_birth"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProfileResponse struct {
	ID        uuid.UUID         `json:"id"`
	Identity  *UserResponseInfo `json:"identity,omitempty"`
	Favorites []BikeResponse    `json:"favorites"`
	Bookings  []BookingResponse `json:"bookings"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type UserSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	FavoriteCount int       `json:"favoriteCount"`
	BookingCount  int       `json:"bookingCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUserHandler accepts a nil userClient; profiles are then served without identity data.
func NewUserHandler(
	userService *services.UserService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
	userClient *user_client.UserMicroservice,
) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
		metrics:     metrics,
		userClient:  userClient,
	}
}

// lookupIdentity asks the user service for the account record, forwarding the caller's token.
// Failures only cost the enrichment.
func (h *UserHandler) lookupIdentity(c *gin.Context, userID uuid.UUID) *UserResponseInfo {
	if h.userClient == nil {
		return nil
	}

	params := users.NewGetUsersIDParams()
	params.ID = userID.String()
	params.Context = c.Request.Context()

	authHeader := c.GetHeader("Authorization")
	var authInfo runtime.ClientAuthInfoWriter
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		authInfo = httptransport.BearerToken(token)
	}

	resp, err := h.userClient.Users.GetUsersID(params, authInfo)
	if err != nil {
		h.logger.Warn("Failed to get user from user-service", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID.String(),
		})
		return nil
	}
	if resp == nil || resp.Payload == nil {
		return nil
	}

	return &UserResponseInfo{
		ID:          resp.Payload.ID,
		Name:        resp.Payload.Name,
		Email:       resp.Payload.Email,
		DateOfBirth: resp.Payload.DateOfBirth,
		Role:        resp.Payload.Role,
		CreatedAt:   resp.Payload.CreatedAt,
		UpdatedAt:   resp.Payload.UpdatedAt,
	}
}

func (h *UserHandler) toProfileResponse(c *gin.Context, profile *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        profile.User.ID,
		Identity:  h.lookupIdentity(c, profile.User.ID),
		Favorites: toBikeResponses(profile.Favorites),
		Bookings:  toBookingResponses(profile.Bookings),
		CreatedAt: profile.User.CreatedAt,
		UpdatedAt: profile.User.UpdatedAt,
	}
}

// @Summary Мой профиль
// @Description Избранные байки, бронирования и данные аккаунта из user-service
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} successResponse{data=ProfileResponse} "Профиль"
// @Failure 401 {object} errorResponse "Не авторизован"
// @Router /users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to GetProfile", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), payload)
	if err != nil {
		handleServiceError(c, err, "Failed to get profile")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", h.toProfileResponse(c, profile))
}

// @Summary Добавить в избранное
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Success 200 {object} successResponse{data=domain.User} "Байк добавлен в избранное"
// @Failure 404 {object} errorResponse "Байк не найден"
// @Failure 409 {object} errorResponse "Уже в избранном"
// @Router /users/favorites/{bikeId} [post]
func (h *UserHandler) AddFavorite(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userService.AddFavorite(c.Request.Context(), payload, c.Param("bikeId"))
	if err != nil {
		handleServiceError(c, err, "Failed to add favorite")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Bike added to favorites", user)
}

// @Summary Убрать из избранного
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param bikeId path string true "ID байка"
// @Success 200 {object} successResponse{data=domain.User} "Байк убран из избранного"
// @Router /users/favorites/{bikeId} [delete]
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userService.RemoveFavorite(c.Request.Context(), payload, c.Param("bikeId"))
	if err != nil {
		handleServiceError(c, err, "Failed to remove favorite")
		return
	}

	newSuccessResponse(c, http.StatusOK, "Bike removed from favorites", user)
}

// @Summary Мои бронирования
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(25)
// @Success 200 {object} successResponse{data=[]BookingResponse} "Бронирования"
// @Router /users/bookings [get]
func (h *UserHandler) GetMyBookings(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bookings, pagination, err := h.userService.GetUserBookings(c.Request.Context(), payload, pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err, "Failed to get bookings")
		return
	}

	newListResponse(c, len(bookings), &pagination, toBookingResponses(bookings))
}

// @Summary Список пользователей
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(25)
// @Success 200 {object} successResponse{data=[]UserSummaryResponse} "Пользователи"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	list, pagination, err := h.userService.ListUsers(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		handleServiceError(c, err, "Failed to get users")
		return
	}

	response := make([]UserSummaryResponse, len(list))
	for i, u := range list {
		response[i] = UserSummaryResponse{
			ID:            u.ID,
			FavoriteCount: len(u.Favorites),
			BookingCount:  len(u.Bookings),
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		}
	}

	newListResponse(c, len(response), &pagination, response)
}

// @Summary Получить пользователя
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} successResponse{data=ProfileResponse} "Пользователь"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Пользователь не найден"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	profile, err := h.userService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to get user")
		return
	}

	newSuccessResponse(c, http.StatusOK, "", h.toProfileResponse(c, profile))
}

// @Summary Удалить пользователя
// @Description Удаляет арендный профиль; учетная запись остается в user-service
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} successResponse "Пользователь удален"
// @Failure 403 {object} errorResponse "Доступ запрещен"
// @Failure 404 {object} errorResponse "Пользователь не найден"
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	userID := c.Param("id")
	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		h.logger.Error("Failed to delete user", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		handleServiceError(c, err, "Delete failed")
		return
	}

	newSuccessResponse(c, http.StatusOK, "User deleted successfully", nil)
}
