package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Error message"`
}

type successResponse struct {
	Success    bool               `json:"success" example:"true"`
	Message    string             `json:"message,omitempty" example:"Success"`
	Count      *int               `json:"count,omitempty"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
	Data       interface{}        `json:"data,omitempty"`
}

func newErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorResponse{
		Success: false,
		Message: message,
	})
}

func newSuccessResponse(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, successResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func newListResponse(c *gin.Context, count int, pagination *domain.Pagination, data interface{}) {
	c.JSON(http.StatusOK, successResponse{
		Success:    true,
		Count:      &count,
		Pagination: pagination,
		Data:       data,
	})
}

var errorStatuses = []struct {
	err  error
	code int
}{
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrInvalidRange, http.StatusBadRequest},
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrPaymentFailed, http.StatusPaymentRequired},
	{domain.ErrIllegalTransition, http.StatusConflict},
	{domain.ErrUnavailable, http.StatusConflict},
	{domain.ErrDuplicateReview, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},
}

func errorStatus(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return http.StatusInternalServerError
}

// handleServiceError answers with the status mapped from err. Internal details stay in the logs.
func handleServiceError(c *gin.Context, err error, fallback string) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		newErrorResponse(c, code, fallback)
		return
	}
	newErrorResponse(c, code, err.Error())
}

const dateOnly = "2006-01-02"

// parseDate accepts RFC 3339 timestamps and plain dates; plain dates are midnight UTC.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateOnly, raw)
}

func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, errors.New("startDate and endDate are required")
	}
	start, err := parseDate(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("startDate must be an ISO-8601 date")
	}
	end, err := parseDate(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("endDate must be an ISO-8601 date")
	}
	return start, end, nil
}

func pageFromQuery(c *gin.Context) domain.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return domain.NewPage(page, limit)
}
