package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)
	userID := uuid.NewString()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{
			name: "expired",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"id": uuid.NewString(), "user_id": userID, "role": "appuser",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			want: http.StatusUnauthorized,
		},
		{
			name: "no expiry",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"id": uuid.NewString(), "user_id": userID, "role": "appuser",
			}),
			want: http.StatusUnauthorized,
		},
		{
			name: "unknown role",
			header: "Bearer " + signToken(t, jwt.MapClaims{
				"id": uuid.NewString(), "user_id": userID, "role": "root",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			want: http.StatusUnauthorized,
		},
		{"valid", "Bearer " + newCaller(t, domain.AppUser).token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/users/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := s.serve(req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAdminOnly(t *testing.T) {
	s := newTestServer(t)
	user := newCaller(t, domain.AppUser)
	admin := newCaller(t, domain.Admin)

	rec := s.do(t, http.MethodPost, "/categories", user.token, CategoryRequest{Name: "Road"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	for _, path := range []string{"/bikes/stats/overview", "/bookings/stats/overview", "/reviews/stats/overview", "/users"} {
		rec := s.do(t, http.MethodGet, path, user.token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = s.do(t, http.MethodGet, path, admin.token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NotFound("bike", uuid.New()), http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidRange, http.StatusBadRequest},
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrPaymentFailed, http.StatusPaymentRequired},
		{domain.ErrIllegalTransition, http.StatusConflict},
		{domain.ErrUnavailable, http.StatusConflict},
		{domain.ErrDuplicateReview, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorStatus(tt.err), tt.err.Error())
	}
}
