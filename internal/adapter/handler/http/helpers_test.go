package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/logger"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/memory"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/payment"
	metricsAdapter "github.com/sm8ta/webike_rental_microservice_nikita/internal/adapter/prometheus"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/config"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/domain"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	engine   *gin.Engine
	store    *memory.Store
	payments *payment.SandboxGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	cache := memory.NewCache()
	payments := payment.NewSandboxGateway()
	log := logger.NewLoggerAdapter("production")
	validate := validator.New()
	metrics := metricsAdapter.NewPrometheusAdapterWith(prometheus.NewRegistry())

	aggregates := services.NewAggregateService(store, store, store, cache, log)
	bikeService := services.NewBikeService(store, store, store, store, store, aggregates, log, validate, cache)
	bookingService := services.NewBookingService(store, store, store, services.NewAvailabilityChecker(store), payments, log, validate)
	reviewService := services.NewReviewService(store, store, aggregates, log, validate)
	categoryService := services.NewCategoryService(store, store, log, validate)
	userService := services.NewUserService(store, store, store, log)

	router, err := NewRouter(
		&config.HTTP{Env: "test", AllowedOrigins: "http://localhost:3000"},
		NewJWTTokenService(testSecret, log),
		store,
		Handlers{
			Bike:     NewBikeHandler(bikeService, bookingService, log, metrics),
			Booking:  NewBookingHandler(bookingService, log, metrics),
			Review:   NewReviewHandler(reviewService, log, metrics),
			Category: NewCategoryHandler(categoryService, log, metrics),
			User:     NewUserHandler(userService, log, metrics, nil),
		},
	)
	require.NoError(t, err)

	return &testServer{engine: router.Engine(), store: store, payments: payments}
}

type caller struct {
	userID uuid.UUID
	token  string
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newCaller(t *testing.T, role domain.UserRole) caller {
	t.Helper()
	userID := uuid.New()
	return caller{
		userID: userID,
		token: signToken(t, jwt.MapClaims{
			"id":      uuid.NewString(),
			"user_id": userID.String(),
			"role":    string(role),
			"exp":     time.Now().Add(time.Hour).Unix(),
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	Count      *int               `json:"count"`
	Pagination *domain.Pagination `json:"pagination"`
	Data       json.RawMessage    `json:"data"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder, wantCode int) (T, envelope) {
	t.Helper()
	require.Equal(t, wantCode, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	var data T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return data, env
}

func (s *testServer) createCategory(t *testing.T, admin caller, name string) domain.Category {
	t.Helper()
	category, _ := decode[domain.Category](t,
		s.do(t, http.MethodPost, "/categories", admin.token, CategoryRequest{Name: name}), http.StatusCreated)
	return category
}

func (s *testServer) createBike(t *testing.T, admin caller, categoryID uuid.UUID, price float64) BikeResponse {
	t.Helper()
	bike, _ := decode[BikeResponse](t, s.do(t, http.MethodPost, "/bikes", admin.token, BikeRequest{
		Name:        "Trek Marlin 7",
		Description: "Hardtail trail bike",
		Type:        "Mountain",
		Brand:       "Trek",
		PricePerDay: price,
		Specifications: domain.Specifications{
			FrameSize: "M", Gears: 21, Weight: 13.5, WheelSize: "29", Material: "Aluminium", Brakes: "Disc",
		},
		Location: domain.Location{City: "Denver"},
		Category: categoryID.String(),
	}), http.StatusCreated)
	return bike
}

func (s *testServer) createBooking(t *testing.T, user caller, bikeID uuid.UUID, start, end string) BookingResponse {
	t.Helper()
	booking, _ := decode[BookingResponse](t, s.do(t, http.MethodPost, "/bookings", user.token, BookingRequest{
		Bike: bikeID.String(), StartDate: start, EndDate: end,
	}), http.StatusCreated)
	return booking
}

func (s *testServer) payAndConfirm(t *testing.T, user caller, bookingID uuid.UUID) BookingResponse {
	t.Helper()
	decode[PaymentIntentResponse](t,
		s.do(t, http.MethodPost, "/bookings/"+bookingID.String()+"/payment", user.token, nil), http.StatusOK)
	booking, _ := decode[BookingResponse](t,
		s.do(t, http.MethodPost, "/bookings/"+bookingID.String()+"/confirm-payment", user.token, nil), http.StatusOK)
	return booking
}
