package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/config"
	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	router *gin.Engine
	server *http.Server
}

type Handlers struct {
	Bike     *BikeHandler
	Booking  *BookingHandler
	Review   *ReviewHandler
	Category *CategoryHandler
	User     *UserHandler
}

func NewRouter(
	cfg *config.HTTP,
	tokenService ports.TokenService,
	store ports.StorePinger,
	h Handlers,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(tokenService)
	admin := AdminOnly()

	// Bikes routes
	bikes := router.Group("/bikes")
	{
		bikes.GET("", h.Bike.ListBikes)
		bikes.GET("/search/:query", h.Bike.SearchBikes)
		bikes.GET("/stats/overview", auth, admin, h.Bike.GetBikeStats)
		bikes.GET("/:id", h.Bike.GetBike)
		bikes.GET("/:id/reviews", h.Review.GetBikeReviews)
		bikes.GET("/:id/availability", h.Bike.CheckAvailability)
		bikes.POST("", auth, admin, h.Bike.CreateBike)
		bikes.PUT("/:id", auth, admin, h.Bike.UpdateBike)
		bikes.DELETE("/:id", auth, admin, h.Bike.DeleteBike)
	}

	// Bookings routes
	bookings := router.Group("/bookings")
	bookings.Use(auth)
	{
		bookings.GET("", h.Booking.ListBookings)
		bookings.POST("", h.Booking.CreateBooking)
		bookings.GET("/stats/overview", admin, h.Booking.GetBookingStats)
		bookings.GET("/:id", h.Booking.GetBooking)
		bookings.PUT("/:id", h.Booking.UpdateBooking)
		bookings.DELETE("/:id", h.Booking.CancelBooking)
		bookings.POST("/:id/payment", h.Booking.CreatePayment)
		bookings.POST("/:id/confirm-payment", h.Booking.ConfirmPayment)
		bookings.POST("/:id/advance", admin, h.Booking.AdvanceBooking)
	}

	// Reviews routes
	reviews := router.Group("/reviews")
	{
		reviews.GET("", h.Review.ListReviews)
		reviews.GET("/stats/overview", auth, admin, h.Review.GetReviewStats)
		reviews.GET("/bike/:bikeId", h.Review.GetBikeReviews)
		reviews.GET("/:id", h.Review.GetReview)
		reviews.POST("", auth, h.Review.CreateReview)
		reviews.PUT("/:id", auth, h.Review.UpdateReview)
		reviews.DELETE("/:id", auth, h.Review.DeleteReview)
		reviews.POST("/:id/helpful", auth, h.Review.MarkHelpful)
	}

	// Categories routes
	categories := router.Group("/categories")
	{
		categories.GET("", h.Category.ListCategories)
		categories.GET("/:id", h.Category.GetCategory)
		categories.POST("", auth, admin, h.Category.CreateCategory)
		categories.PUT("/:id", auth, admin, h.Category.UpdateCategory)
		categories.DELETE("/:id", auth, admin, h.Category.DeleteCategory)
	}

	// Users routes
	users := router.Group("/users")
	users.Use(auth)
	{
		users.GET("/profile", h.User.GetProfile)
		users.GET("/bookings", h.User.GetMyBookings)
		users.POST("/favorites/:bikeId", h.User.AddFavorite)
		users.DELETE("/favorites/:bikeId", h.User.RemoveFavorite)
		users.GET("", admin, h.User.ListUsers)
		users.GET("/:id", admin, h.User.GetUser)
		users.DELETE("/:id", admin, h.User.DeleteUser)
	}

	return &Router{
		router: router,
		server: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Serve blocks until Shutdown; it then returns http.ErrServerClosed.
func (r *Router) Serve(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return r.server.Serve(listener)
}

func (r *Router) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}
